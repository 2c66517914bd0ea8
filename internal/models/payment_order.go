package models

import "time"

// OrderStatus mirrors the gateway-side lifecycle of a checkout order.
type OrderStatus string

const (
	OrderCreated OrderStatus = "created"
	OrderPaid    OrderStatus = "paid"
	OrderFailed  OrderStatus = "failed"
)

// PaymentOrder is a gateway order tied to one analysis session. A session may
// be re-associated with a fresh order after a failed attempt; superseded
// orders are kept as failed rows, never deleted.
type PaymentOrder struct {
	OrderID      string      `json:"orderId" db:"order_id"`
	SessionID    string      `json:"sessionId" db:"session_id"`
	Amount       int64       `json:"amount" db:"amount"` // converted currency units
	CurrencyCode string      `json:"currencyCode" db:"currency_code"`
	GatewayKey   string      `json:"gatewayKey" db:"gateway_key"`
	Status       OrderStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
}
