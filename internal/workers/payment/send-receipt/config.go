// internal/workers/payment/send-receipt/config.go
package sendreceipt

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	AWSRegion    string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   false,
		FromEmail:    "receipts@siteintel.in",
		AWSRegion:    "ap-south-1",
		Timeout:      30 * time.Second,
	}
}
