package gateway

import "encoding/json"

// Frame type tags. Outbound and inbound frames share one envelope shape:
// {"type": "...", "id": N, "data": {...}}.
const (
	msgLogin           = "login"
	msgLoginAck        = "loginAck"
	msgNewOrder        = "newOrder"
	msgCancelOrder     = "cancelOrder"
	msgSubscribe       = "subscribe"
	msgUnsubscribe     = "unsubscribe"
	msgAccountSummary  = "accountSummary"
	msgExecutionReport = "executionReport"
	msgExecution       = "execution"
	msgTick            = "tick"
	msgError           = "error"
)

type envelope struct {
	Type string          `json:"type"`
	ID   RequestID       `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type loginRequest struct {
	APIKey   string `json:"apiKey,omitempty"`
	ClientID string `json:"clientId"`
}

type loginAck struct {
	SessionID    string `json:"sessionId"`
	ResponseCode string `json:"responseCode"`
	Reason       string `json:"reason,omitempty"`
}

const loginResponseOK = "OK"

type cancelOrderRequest struct {
	ClientOrderID ClientOrderID `json:"clientOrderId"`
}

type marketDataRequest struct {
	Symbols []string `json:"symbols"`
}

type accountSummaryRequest struct {
	Account string `json:"account,omitempty"`
}

type gatewayError struct {
	RequestID RequestID `json:"requestId,omitempty"`
	Code      int       `json:"code"`
	Message   string    `json:"message"`
}
