package gateway

import "context"

// Requester is the outbound half of a gateway session: the operations a
// caller uses to send requests to the remote trading gateway. Requests are
// fire-and-forget writes; every result arrives asynchronously through the
// CallbackSink the session was constructed with.
type Requester interface {
	// Start runs the session until ctx is cancelled or Close is called,
	// reconnecting with back-off on transport failures.
	Start(ctx context.Context) error

	// Close tears the session down. Safe to call more than once.
	Close() error

	// CallbackTarget returns the sink inbound events are dispatched to.
	CallbackTarget() CallbackSink

	// IsReady reports whether the session is established (login acked).
	IsReady() bool

	// Ready returns a channel that is closed once the session is
	// established. A fresh channel is returned after every disconnect.
	Ready() <-chan struct{}

	PlaceOrder(ctx context.Context, req OrderRequest) (RequestID, error)
	CancelOrder(ctx context.Context, clientOrderID ClientOrderID) (RequestID, error)
	SubscribeMarketData(ctx context.Context, symbols ...string) (RequestID, error)
	UnsubscribeMarketData(ctx context.Context, symbols ...string) (RequestID, error)
	RequestAccountSummary(ctx context.Context) (RequestID, error)
}

// CallbackSink is the inbound half: the handler set the session transport
// invokes for gateway-originated events. Implementations must not block;
// callbacks are delivered sequentially from the session read loop.
type CallbackSink interface {
	// OnConnect is invoked after the gateway acknowledges login.
	OnConnect(sessionID string)

	// OnDisconnect is invoked when the transport drops. The session keeps
	// reconnecting unless it was closed.
	OnDisconnect(err error)

	// OnError delivers a gateway-side error. reqID is zero when the error
	// is not attributable to a specific request.
	OnError(reqID RequestID, code int, message string)

	OnOrderStatus(report ExecutionReport)
	OnExecution(exec Execution)
	OnTick(tick Tick)
	OnAccountSummary(summary AccountSummary)
}
