package gateway

// RequestID numbers outbound requests within a session. The gateway carries
// it back on error frames so failures can be tied to the request that
// caused them.
type RequestID uint64

// OrderRequest describes a new order to be placed on the gateway.
// Prices and quantities travel as decimal strings to avoid float rounding
// on the wire.
type OrderRequest struct {
	ClientOrderID ClientOrderID `json:"clientOrderId"`
	Symbol        string        `json:"symbol"`
	Side          OrderSide     `json:"side"`
	Type          OrderType     `json:"type"`
	TimeInForce   TimeInForce   `json:"timeInForce"`
	Quantity      string        `json:"quantity"`
	Price         string        `json:"price,omitempty"`
	StopPrice     string        `json:"stopPrice,omitempty"`
}

// ExecutionReport is the gateway's view of an order after a state change.
type ExecutionReport struct {
	OrderID        uint64        `json:"orderId"`
	ClientOrderID  ClientOrderID `json:"clientOrderId"`
	Status         OrderStatus   `json:"orderStatus"`
	Symbol         string        `json:"symbol"`
	Side           OrderSide     `json:"side"`
	Type           OrderType     `json:"type"`
	TimeInForce    TimeInForce   `json:"timeInForce"`
	Price          string        `json:"price,omitempty"`
	AveragePrice   string        `json:"averagePrice,omitempty"`
	Quantity       string        `json:"quantity"`
	LeavesQuantity string        `json:"leavesQuantity"`
	CumQuantity    string        `json:"cumQuantity"`
	RejectReason   string        `json:"rejectReason,omitempty"`
	Timestamp      uint64        `json:"timestamp"`
}

// Execution reports a single fill.
type Execution struct {
	TradeID       uint64        `json:"tradeId"`
	OrderID       uint64        `json:"orderId"`
	ClientOrderID ClientOrderID `json:"clientOrderId"`
	Symbol        string        `json:"symbol"`
	Side          OrderSide     `json:"side"`
	LastPrice     string        `json:"lastPrice"`
	LastQuantity  string        `json:"lastQuantity"`
	Fee           string        `json:"fee,omitempty"`
	FeeCurrency   string        `json:"feeCurrency,omitempty"`
	Timestamp     uint64        `json:"timestamp"`
}

// Tick is a top-of-book market data update for a subscribed symbol.
type Tick struct {
	Symbol    string `json:"symbol"`
	Bid       string `json:"bid"`
	BidSize   string `json:"bidSize"`
	Ask       string `json:"ask"`
	AskSize   string `json:"askSize"`
	Last      string `json:"last,omitempty"`
	Timestamp uint64 `json:"timestamp"`
}

// AccountSummary is a snapshot of account-level values.
type AccountSummary struct {
	Account        string `json:"account"`
	Currency       string `json:"currency"`
	NetLiquidation string `json:"netLiquidation"`
	AvailableFunds string `json:"availableFunds"`
	BuyingPower    string `json:"buyingPower"`
	Timestamp      uint64 `json:"timestamp"`
}
