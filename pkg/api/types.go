package api

// REST response and WebSocket message types. Amounts and rates are decimal
// strings so callers never lose precision to JSON numbers.

// SubmitOrderResponse acknowledges an accepted submission.
type SubmitOrderResponse struct {
	OrderID uint64 `json:"orderId"`
	Status  string `json:"status"` // "pending" until the next window closes
}

// TransferInfo is one settlement instruction in wire form.
type TransferInfo struct {
	LenderID   uint64 `json:"lenderId"`
	BorrowerID uint64 `json:"borrowerId"`
	Lender     string `json:"lender"`
	Borrower   string `json:"borrower"`
	Amount     string `json:"amount"`
	Rate       string `json:"rate"` // basis points
	Maturity   int64  `json:"maturity"`
}

// OrderOutcomeInfo is the diagnostic for one order in a settled batch.
type OrderOutcomeInfo struct {
	OrderID uint64 `json:"orderId"`
	Matched string `json:"matched"`
	Rate    string `json:"rate,omitempty"` // clearing rate, empty if unmatched
	Reason  string `json:"reason,omitempty"`
}

// BatchInfo is one settled batch.
type BatchInfo struct {
	Seq       uint64             `json:"seq"`
	ClosedAt  int64              `json:"closedAt"`
	Orders    int                `json:"orders"`
	Transfers []TransferInfo     `json:"transfers"`
	Outcomes  []OrderOutcomeInfo `json:"outcomes"`
}

// PoolInfo describes the open window.
type PoolInfo struct {
	Pending int `json:"pending"`
}

// WSSubscribeRequest is the client -> server control message.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" | "unsubscribe"
	Channels []string `json:"channels"`
}

// WSMessage is the server -> client envelope.
type WSMessage struct {
	Channel string      `json:"channel"`
	Data    interface{} `json:"data"`
}

// ChannelSettlements carries a BatchInfo whenever a window settles.
const ChannelSettlements = "settlements"
