// internal/workers/payment/create-order/models.go
package createorder

type Input struct {
	SessionID       string `json:"sessionId"`
	CurrencyCode    string `json:"currencyCode,omitempty"`
	ConvertedAmount int64  `json:"convertedAmount,omitempty"`
}

type Output struct {
	OrderID      string `json:"orderId"`
	SessionID    string `json:"sessionId"`
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
	GatewayKey   string `json:"gatewayKey"`
}
