package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ecosystem-trading/ibconnect/pkg/backoff"
	"github.com/ecosystem-trading/ibconnect/pkg/logger"
)

// Client is a gateway session over WebSocket. It implements Requester and
// dispatches every inbound frame to the CallbackSink it was constructed
// with. Transport failures trigger reconnection with exponential back-off;
// the session is ready only between a login ack and the next disconnect.
type Client struct {
	cfg  Config
	log  *logger.Logger
	sink CallbackSink

	reqID  uint64 // atomic
	closed uint32 // atomic

	writeMu sync.Mutex // gorilla allows a single concurrent writer

	mu      sync.Mutex
	conn    *websocket.Conn
	isReady bool
	readyCh chan struct{}
}

var _ Requester = (*Client)(nil)

// New creates a Client bound to sink. No connection is made until Start.
func New(cfg Config, sink CallbackSink, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, ErrNilSink
	}
	return &Client{
		cfg:     cfg,
		log:     log.Named("gateway"),
		sink:    sink,
		readyCh: make(chan struct{}),
	}, nil
}

// CallbackTarget returns the sink this session dispatches to.
func (c *Client) CallbackTarget() CallbackSink { return c.sink }

// IsReady reports whether the session is established.
func (c *Client) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isReady
}

// Ready returns a channel closed once the session is established.
func (c *Client) Ready() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyCh
}

// Start runs the session until ctx is cancelled or Close is called.
func (c *Client) Start(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.isClosed() {
			return nil
		}

		var conn *websocket.Conn
		err := backoff.Execute(ctx, c.cfg.BackoffConfig, c.log, func(ctxTry context.Context) error {
			if c.isClosed() {
				return backoff.Permanent(ErrClosed)
			}
			var dialErr error
			conn, _, dialErr = websocket.DefaultDialer.DialContext(ctxTry, c.cfg.URL, nil)
			if dialErr != nil {
				incConnect("error")
			}
			return dialErr
		})
		if err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			incError("connect")
			c.log.Error("gateway: failed to connect after retries", zap.Error(err))
			continue
		}
		// Close may have raced the dial; the connection is not registered
		// yet, so tear it down here instead of running a session.
		if c.isClosed() {
			conn.Close()
			return nil
		}
		incConnect("ok")
		c.log.Info("gateway: connected", zap.String("url", c.cfg.URL))

		c.setConn(conn)

		connCtx, cancelPing := context.WithCancel(ctx)

		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		})
		go c.pingLoop(connCtx, conn)

		if err := c.login(); err != nil {
			c.log.Error("gateway: login failed", zap.Error(err))
			cancelPing()
			conn.Close()
			c.setConn(nil)
			continue
		}

		// The gateway must ack the login before the read deadline would
		// fire anyway; a dedicated timer keeps a silent gateway from
		// holding a half-open session.
		loginTimer := time.AfterFunc(c.cfg.LoginTimeout, func() {
			if !c.IsReady() {
				c.log.Warn("gateway: login ack timeout")
				conn.Close()
			}
		})

		readErr := c.readLoop(conn)

		loginTimer.Stop()
		cancelPing()
		conn.Close()
		wasReady := c.clearReady()
		c.setConn(nil)

		if c.isClosed() || ctx.Err() != nil {
			continue
		}
		incError("read")
		c.log.Warn("gateway: connection lost, reconnecting", zap.Error(readErr))
		if wasReady {
			c.sink.OnDisconnect(readErr)
		}
	}
}

// Close tears the session down. Safe to call more than once.
func (c *Client) Close() error {
	atomic.StoreUint32(&c.closed, 1)
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (RequestID, error) {
	if req.ClientOrderID == "" {
		req.ClientOrderID = NewClientOrderID()
	}
	if err := req.ClientOrderID.Validate(); err != nil {
		return 0, fmt.Errorf("gateway: place order: %w", err)
	}
	return c.send(ctx, msgNewOrder, req)
}

func (c *Client) CancelOrder(ctx context.Context, clientOrderID ClientOrderID) (RequestID, error) {
	if err := clientOrderID.Validate(); err != nil {
		return 0, fmt.Errorf("gateway: cancel order: %w", err)
	}
	return c.send(ctx, msgCancelOrder, cancelOrderRequest{ClientOrderID: clientOrderID})
}

func (c *Client) SubscribeMarketData(ctx context.Context, symbols ...string) (RequestID, error) {
	if len(symbols) == 0 {
		return 0, fmt.Errorf("gateway: subscribe: at least one symbol is required")
	}
	return c.send(ctx, msgSubscribe, marketDataRequest{Symbols: symbols})
}

func (c *Client) UnsubscribeMarketData(ctx context.Context, symbols ...string) (RequestID, error) {
	if len(symbols) == 0 {
		return 0, fmt.Errorf("gateway: unsubscribe: at least one symbol is required")
	}
	return c.send(ctx, msgUnsubscribe, marketDataRequest{Symbols: symbols})
}

func (c *Client) RequestAccountSummary(ctx context.Context) (RequestID, error) {
	return c.send(ctx, msgAccountSummary, accountSummaryRequest{})
}

// send assigns a request ID and writes one outbound frame. Results, if any,
// arrive through the sink.
func (c *Client) send(ctx context.Context, frameType string, payload interface{}) (RequestID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if c.isClosed() {
		return 0, ErrClosed
	}
	if !c.IsReady() {
		return 0, ErrNotReady
	}
	id := RequestID(atomic.AddUint64(&c.reqID, 1))
	if err := c.writeFrame(frameType, id, payload); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Client) login() error {
	id := RequestID(atomic.AddUint64(&c.reqID, 1))
	return c.writeFrame(msgLogin, id, loginRequest{
		APIKey:   c.cfg.APIKey,
		ClientID: c.cfg.ClientID,
	})
}

func (c *Client) writeFrame(frameType string, id RequestID, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gateway: marshal %s: %w", frameType, err)
	}
	env := envelope{Type: frameType, ID: id, Data: data}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotReady
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteJSON(env); err != nil {
		incError("write")
		return fmt.Errorf("gateway: write %s: %w", frameType, err)
	}
	return nil
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.ReadTimeout / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				c.log.Warn("gateway: ping failed", zap.Error(err))
			}
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(data)
	}
}

// dispatch decodes one inbound frame and routes it to the sink. A frame the
// client cannot decode is counted and skipped; the read loop never dies on
// bad input.
func (c *Client) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		incError("decode")
		c.log.Warn("gateway: undecodable frame", zap.Error(err))
		return
	}
	incMessage(env.Type)

	switch env.Type {
	case msgLoginAck:
		var ack loginAck
		if !c.decode(env, &ack) {
			return
		}
		if ack.ResponseCode != loginResponseOK {
			c.log.Error("gateway: login rejected", zap.String("reason", ack.Reason))
			c.sink.OnError(env.ID, CodeLoginRejected, ack.Reason)
			return
		}
		c.markReady()
		c.sink.OnConnect(ack.SessionID)

	case msgExecutionReport:
		var report ExecutionReport
		if c.decode(env, &report) {
			c.sink.OnOrderStatus(report)
		}

	case msgExecution:
		var exec Execution
		if c.decode(env, &exec) {
			c.sink.OnExecution(exec)
		}

	case msgTick:
		var tick Tick
		if c.decode(env, &tick) {
			c.sink.OnTick(tick)
		}

	case msgAccountSummary:
		var summary AccountSummary
		if c.decode(env, &summary) {
			c.sink.OnAccountSummary(summary)
		}

	case msgError:
		var gwErr gatewayError
		if c.decode(env, &gwErr) {
			c.sink.OnError(gwErr.RequestID, gwErr.Code, gwErr.Message)
		}

	default:
		incDrop(env.Type)
		c.log.Debug("gateway: unsupported frame type", zap.String("type", env.Type))
	}
}

func (c *Client) decode(env envelope, v interface{}) bool {
	if err := json.Unmarshal(env.Data, v); err != nil {
		incError("decode")
		c.log.Warn("gateway: bad payload",
			zap.String("type", env.Type),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (c *Client) markReady() {
	c.mu.Lock()
	if !c.isReady {
		c.isReady = true
		close(c.readyCh)
	}
	c.mu.Unlock()
	setReady(true)
}

// clearReady resets the ready state and reports whether the session had
// been established.
func (c *Client) clearReady() bool {
	c.mu.Lock()
	wasReady := c.isReady
	c.isReady = false
	c.readyCh = make(chan struct{})
	c.mu.Unlock()
	setReady(false)
	return wasReady
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) isClosed() bool {
	return atomic.LoadUint32(&c.closed) == 1
}
