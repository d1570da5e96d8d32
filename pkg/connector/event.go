package connector

import "github.com/ecosystem-trading/ibconnect/pkg/gateway"

// EventType names the inbound callback an Event originated from.
type EventType string

const (
	EventConnect        EventType = "connect"
	EventDisconnect     EventType = "disconnect"
	EventError          EventType = "error"
	EventOrderStatus    EventType = "orderStatus"
	EventExecution      EventType = "execution"
	EventTick           EventType = "tick"
	EventAccountSummary EventType = "accountSummary"
)

// Event is one inbound gateway event. Only the fields matching Type are set.
type Event struct {
	Type EventType

	SessionID string
	Err       error

	RequestID gateway.RequestID
	Code      int
	Message   string

	OrderStatus    *gateway.ExecutionReport
	Execution      *gateway.Execution
	Tick           *gateway.Tick
	AccountSummary *gateway.AccountSummary
}

// Handler consumes routed events. Handlers run on the session read loop and
// must not block.
type Handler func(Event)
