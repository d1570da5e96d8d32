package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ecosystem-trading/ibconnect/pkg/backoff"
	"github.com/ecosystem-trading/ibconnect/pkg/logger"
)

// recordingSink captures callbacks for assertions.
type recordingSink struct {
	connected chan string
	reports   chan ExecutionReport
	ticks     chan Tick
	errs      chan gatewayError
	drops     chan error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		connected: make(chan string, 8),
		reports:   make(chan ExecutionReport, 8),
		ticks:     make(chan Tick, 8),
		errs:      make(chan gatewayError, 8),
		drops:     make(chan error, 8),
	}
}

func (s *recordingSink) OnConnect(sessionID string) { s.connected <- sessionID }
func (s *recordingSink) OnDisconnect(err error)     { s.drops <- err }
func (s *recordingSink) OnError(reqID RequestID, code int, message string) {
	s.errs <- gatewayError{RequestID: reqID, Code: code, Message: message}
}
func (s *recordingSink) OnOrderStatus(report ExecutionReport) { s.reports <- report }
func (s *recordingSink) OnExecution(Execution)                {}
func (s *recordingSink) OnTick(tick Tick)                     { s.ticks <- tick }
func (s *recordingSink) OnAccountSummary(AccountSummary)      {}

func writeEnvelope(t *testing.T, conn *websocket.Conn, frameType string, id RequestID, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s: %v", frameType, err)
	}
	if err := conn.WriteJSON(envelope{Type: frameType, ID: id, Data: data}); err != nil {
		t.Fatalf("write %s: %v", frameType, err)
	}
}

// gatewayStub accepts one session: acks the login, answers newOrder with an
// execution report, subscribe with a tick, and cancelOrder with an error.
func gatewayStub(t *testing.T) *httptest.Server {
	t.Helper()
	upg := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upg.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var env envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			switch env.Type {
			case msgLogin:
				writeEnvelope(t, conn, msgLoginAck, env.ID, loginAck{SessionID: "sess-1", ResponseCode: loginResponseOK})
			case msgNewOrder:
				var req OrderRequest
				if err := json.Unmarshal(env.Data, &req); err != nil {
					t.Errorf("decode newOrder: %v", err)
					return
				}
				writeEnvelope(t, conn, msgExecutionReport, 0, ExecutionReport{
					OrderID:        42,
					ClientOrderID:  req.ClientOrderID,
					Status:         OrderStatusNew,
					Symbol:         req.Symbol,
					Side:           req.Side,
					Type:           req.Type,
					TimeInForce:    req.TimeInForce,
					Quantity:       req.Quantity,
					LeavesQuantity: req.Quantity,
					CumQuantity:    "0",
					Timestamp:      1700000000,
				})
			case msgSubscribe:
				writeEnvelope(t, conn, msgTick, 0, Tick{Symbol: "EURUSD", Bid: "1.0841", Ask: "1.0843", Timestamp: 1700000001})
			case msgCancelOrder:
				writeEnvelope(t, conn, msgError, env.ID, gatewayError{RequestID: env.ID, Code: CodeUnknownOrder, Message: "unknown order"})
			}
		}
	}))
}

func fastConfig(url string) Config {
	return Config{
		URL: url,
		BackoffConfig: backoff.Config{
			InitialInterval:     time.Millisecond,
			RandomizationFactor: 0,
			Multiplier:          1,
			MaxInterval:         time.Millisecond,
			MaxElapsedTime:      time.Second,
		},
	}
}

func TestClient_SessionIntegration(t *testing.T) {
	server := gatewayStub(t)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	log, _ := logger.New(logger.Config{Level: "debug", DevMode: true})
	sink := newRecordingSink()

	client, err := New(fastConfig(wsURL), sink, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- client.Start(ctx) }()

	select {
	case <-client.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("session never became ready")
	}
	if !client.IsReady() {
		t.Error("IsReady() = false after Ready() closed")
	}

	select {
	case sessionID := <-sink.connected:
		if sessionID != "sess-1" {
			t.Errorf("OnConnect sessionID = %q; want sess-1", sessionID)
		}
	case <-time.After(time.Second):
		t.Fatal("OnConnect never fired")
	}

	// Place an order and expect the report routed back to the sink.
	req := OrderRequest{
		Symbol:      "EURUSD",
		Side:        OrderSideBuy,
		Type:        OrderTypeLimit,
		TimeInForce: TimeInForceGTC,
		Quantity:    "1000",
		Price:       "1.0842",
	}
	if _, err := client.PlaceOrder(ctx, req); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	select {
	case report := <-sink.reports:
		if report.OrderID != 42 || report.Status != OrderStatusNew || report.Symbol != "EURUSD" {
			t.Errorf("unexpected report: %+v", report)
		}
		if report.ClientOrderID == "" {
			t.Error("report missing generated client order id")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("execution report never arrived")
	}

	// Market data subscription produces ticks.
	if _, err := client.SubscribeMarketData(ctx, "EURUSD"); err != nil {
		t.Fatalf("SubscribeMarketData: %v", err)
	}
	select {
	case tick := <-sink.ticks:
		if tick.Symbol != "EURUSD" || tick.Bid != "1.0841" {
			t.Errorf("unexpected tick: %+v", tick)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tick never arrived")
	}

	// Cancelling an unknown order surfaces a gateway error via OnError.
	reqID, err := client.CancelOrder(ctx, NewClientOrderID())
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	select {
	case gwErr := <-sink.errs:
		if gwErr.Code != CodeUnknownOrder {
			t.Errorf("OnError code = %d; want %d", gwErr.Code, CodeUnknownOrder)
		}
		if gwErr.RequestID != reqID {
			t.Errorf("OnError requestId = %d; want %d", gwErr.RequestID, reqID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("gateway error never arrived")
	}

	cancel()
	select {
	case err := <-runDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Start returned %v; want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestClient_CloseDuringReconnect(t *testing.T) {
	log, _ := logger.New(logger.Config{Level: "debug", DevMode: true})
	sink := newRecordingSink()

	// Nothing listens on the dial target, so Start stays in the retry
	// phase. Close must abort the dialing, not just an open connection.
	cfg := fastConfig("ws://127.0.0.1:1")
	cfg.BackoffConfig.MaxElapsedTime = time.Minute

	client, err := New(cfg, sink, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	runDone := make(chan error, 1)
	go func() { runDone <- client.Start(context.Background()) }()

	time.Sleep(20 * time.Millisecond) // let the dial retries begin
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-runDone:
		if err != nil {
			t.Errorf("Start returned %v; want nil after Close", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Close during reconnect")
	}

	select {
	case sessionID := <-sink.connected:
		t.Errorf("OnConnect(%q) after Close", sessionID)
	default:
	}
	if client.IsReady() {
		t.Error("IsReady() = true after Close")
	}
}

func TestClient_LoginRejected(t *testing.T) {
	upg := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upg.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		writeEnvelope(t, conn, msgLoginAck, env.ID, loginAck{ResponseCode: "DENIED", Reason: "bad api key"})
		conn.ReadJSON(&env) // hold the connection open until the client gives up
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	log, _ := logger.New(logger.Config{Level: "debug", DevMode: true})
	sink := newRecordingSink()

	cfg := fastConfig(wsURL)
	cfg.LoginTimeout = 100 * time.Millisecond

	client, err := New(cfg, sink, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- client.Start(ctx) }()

	select {
	case gwErr := <-sink.errs:
		if gwErr.Code != CodeLoginRejected {
			t.Errorf("OnError code = %d; want %d", gwErr.Code, CodeLoginRejected)
		}
		if gwErr.Message != "bad api key" {
			t.Errorf("OnError message = %q; want the gateway reason", gwErr.Message)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("login rejection never reached the sink")
	}
	if client.IsReady() {
		t.Error("IsReady() = true after rejected login")
	}

	cancel()
	select {
	case err := <-runDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Start returned %v; want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestClient_ReconnectAfterDisconnect(t *testing.T) {
	upg := websocket.Upgrader{}
	var sessions uint32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upg.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := atomic.AddUint32(&sessions, 1)
		for {
			var env envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			if env.Type != msgLogin {
				continue
			}
			writeEnvelope(t, conn, msgLoginAck, env.ID, loginAck{SessionID: fmt.Sprintf("sess-%d", n), ResponseCode: loginResponseOK})
			if n == 1 {
				return // drop the first session right after the ack
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	log, _ := logger.New(logger.Config{Level: "debug", DevMode: true})
	sink := newRecordingSink()

	client, err := New(fastConfig(wsURL), sink, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	select {
	case sessionID := <-sink.connected:
		if sessionID != "sess-1" {
			t.Errorf("first OnConnect sessionID = %q; want sess-1", sessionID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first session never connected")
	}

	select {
	case err := <-sink.drops:
		if err == nil {
			t.Error("OnDisconnect err = nil; want the transport error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnDisconnect never fired after the gateway dropped the session")
	}

	select {
	case sessionID := <-sink.connected:
		if sessionID != "sess-2" {
			t.Errorf("second OnConnect sessionID = %q; want sess-2", sessionID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("client never reconnected")
	}
}

func TestClient_ReadLoopSurvivesUnknownFrames(t *testing.T) {
	upg := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upg.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var env envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			switch env.Type {
			case msgLogin:
				writeEnvelope(t, conn, msgLoginAck, env.ID, loginAck{SessionID: "sess-1", ResponseCode: loginResponseOK})
			case msgSubscribe:
				// Garbage, then a frame type the client does not know,
				// then a well-formed tick. Only the tick may reach the sink.
				if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
					return
				}
				writeEnvelope(t, conn, "newsBulletin", 0, map[string]string{"headline": "ignored"})
				writeEnvelope(t, conn, msgTick, 0, Tick{Symbol: "EURUSD", Bid: "1.0841", Ask: "1.0843", Timestamp: 1700000001})
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	log, _ := logger.New(logger.Config{Level: "debug", DevMode: true})
	sink := newRecordingSink()

	client, err := New(fastConfig(wsURL), sink, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	select {
	case <-client.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("session never became ready")
	}
	if _, err := client.SubscribeMarketData(ctx, "EURUSD"); err != nil {
		t.Fatalf("SubscribeMarketData: %v", err)
	}

	select {
	case tick := <-sink.ticks:
		if tick.Symbol != "EURUSD" {
			t.Errorf("unexpected tick: %+v", tick)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tick never arrived; read loop died on a bad frame")
	}

	select {
	case gwErr := <-sink.errs:
		t.Errorf("unexpected OnError for an unknown frame: %+v", gwErr)
	case err := <-sink.drops:
		t.Errorf("unexpected OnDisconnect for an unknown frame: %v", err)
	default:
	}
}

func TestClient_RequestsBeforeReady(t *testing.T) {
	log, _ := logger.New(logger.Config{Level: "debug", DevMode: true})
	client, err := New(fastConfig("ws://127.0.0.1:1"), newRecordingSink(), log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.IsReady() {
		t.Error("IsReady() = true before Start")
	}
	if _, err := client.PlaceOrder(context.Background(), OrderRequest{Symbol: "EURUSD", Quantity: "1"}); !errors.Is(err, ErrNotReady) {
		t.Errorf("PlaceOrder error = %v; want ErrNotReady", err)
	}
	if _, err := client.RequestAccountSummary(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("RequestAccountSummary error = %v; want ErrNotReady", err)
	}
}

func TestNew_RequiresSink(t *testing.T) {
	log, _ := logger.New(logger.Config{Level: "debug", DevMode: true})
	if _, err := New(fastConfig("ws://foo"), nil, log); !errors.Is(err, ErrNilSink) {
		t.Errorf("New error = %v; want ErrNilSink", err)
	}
}

func TestClient_CallbackTargetIdentity(t *testing.T) {
	log, _ := logger.New(logger.Config{Level: "debug", DevMode: true})
	sink := newRecordingSink()
	client, err := New(fastConfig("ws://foo"), sink, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.CallbackTarget() != CallbackSink(sink) {
		t.Error("CallbackTarget is not the sink the client was constructed with")
	}
}
