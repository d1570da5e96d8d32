package gateway

import "errors"

var (
	// ErrNotReady is returned when a request is issued before the session
	// has been established (login ack not yet received).
	ErrNotReady = errors.New("gateway: session not ready")

	// ErrClosed is returned when the client has been closed.
	ErrClosed = errors.New("gateway: client closed")

	// ErrNilSink is returned by New when no callback target is supplied.
	ErrNilSink = errors.New("gateway: callback sink is required")
)

// Well-known gateway error codes, carried on inbound "error" frames.
const (
	CodeLoginRejected    = 1100
	CodeDuplicateOrderID = 2100
	CodeUnknownOrder     = 2101
	CodeInvalidRequest   = 2102
	CodeUnknownSymbol    = 2103
)
