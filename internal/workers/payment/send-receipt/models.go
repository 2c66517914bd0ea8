// internal/workers/payment/send-receipt/models.go
package sendreceipt

type Input struct {
	SessionID    string `json:"sessionId"`
	OrderID      string `json:"orderId"`
	PaymentID    string `json:"paymentId"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode,omitempty"`
	Formatted    string `json:"formatted,omitempty"`
}

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

type Output struct {
	ReceiptID string `json:"receiptId"`
	Status    string `json:"status"`
	SentAt    string `json:"sentAt"`
	EmailSent bool   `json:"emailSent"`
	SMSSent   bool   `json:"smsSent"`
}
