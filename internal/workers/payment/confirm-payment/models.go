// internal/workers/payment/confirm-payment/models.go
package confirmpayment

type Input struct {
	SessionID string `json:"sessionId"`
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

type Output struct {
	SessionID string `json:"sessionId"`
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}
