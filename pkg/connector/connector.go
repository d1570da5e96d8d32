// Package connector provides the dual-role gateway session object: one
// instance is simultaneously the handle for issuing outbound requests
// (gateway.Requester) and the sink the transport invokes for inbound
// gateway events (gateway.CallbackSink).
package connector

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ecosystem-trading/ibconnect/pkg/gateway"
	"github.com/ecosystem-trading/ibconnect/pkg/logger"
)

// Connector composes both halves of a gateway session. The embedded client
// carries the Requester capability; the Connector's own methods satisfy
// CallbackSink, so replies to requests issued through this instance are
// delivered back to this same instance.
type Connector struct {
	*gateway.Client

	log *logger.Logger

	mu       sync.RWMutex
	handlers map[EventType]Handler
}

var (
	_ gateway.Requester    = (*Connector)(nil)
	_ gateway.CallbackSink = (*Connector)(nil)
)

// New constructs a Connector. Construction is two-phase: the sink half (the
// Connector shell) exists first, then the request half is built with a
// back-reference to it. No connection is made until Start.
func New(cfg gateway.Config, log *logger.Logger) (*Connector, error) {
	c := &Connector{
		log:      log.Named("connector"),
		handlers: make(map[EventType]Handler),
	}
	client, err := gateway.New(cfg, c, log)
	if err != nil {
		return nil, err
	}
	c.Client = client
	return c, nil
}

// Handle registers h for events of type t, replacing any previous handler.
// Events without a handler are logged and dropped.
func (c *Connector) Handle(t EventType, h Handler) {
	c.mu.Lock()
	c.handlers[t] = h
	c.mu.Unlock()
}

func (c *Connector) route(ev Event) {
	incCallback(string(ev.Type))

	c.mu.RLock()
	h, ok := c.handlers[ev.Type]
	c.mu.RUnlock()
	if !ok {
		incUnhandled(string(ev.Type))
		c.log.Debug("no handler for event", zap.String("event_type", string(ev.Type)))
		return
	}
	h(ev)
}

// --- CallbackSink ---

func (c *Connector) OnConnect(sessionID string) {
	c.log.Info("session established", zap.String("session_id", sessionID))
	c.route(Event{Type: EventConnect, SessionID: sessionID})
}

func (c *Connector) OnDisconnect(err error) {
	c.log.Warn("session lost", zap.Error(err))
	c.route(Event{Type: EventDisconnect, Err: err})
}

func (c *Connector) OnError(reqID gateway.RequestID, code int, message string) {
	c.log.Error("gateway error",
		zap.Uint64("request_id", uint64(reqID)),
		zap.Int("code", code),
		zap.String("message", message),
	)
	c.route(Event{Type: EventError, RequestID: reqID, Code: code, Message: message})
}

func (c *Connector) OnOrderStatus(report gateway.ExecutionReport) {
	c.log.Debug("order status",
		zap.String("client_order_id", report.ClientOrderID.String()),
		zap.String("status", report.Status.String()),
	)
	c.route(Event{Type: EventOrderStatus, OrderStatus: &report})
}

func (c *Connector) OnExecution(exec gateway.Execution) {
	c.log.Debug("execution",
		zap.Uint64("trade_id", exec.TradeID),
		zap.String("symbol", exec.Symbol),
	)
	c.route(Event{Type: EventExecution, Execution: &exec})
}

func (c *Connector) OnTick(tick gateway.Tick) {
	c.route(Event{Type: EventTick, Tick: &tick})
}

func (c *Connector) OnAccountSummary(summary gateway.AccountSummary) {
	c.route(Event{Type: EventAccountSummary, AccountSummary: &summary})
}
