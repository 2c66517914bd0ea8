// internal/workers/payment/confirm-payment/config.go
package confirmpayment

import "time"

type Config struct {
	AnalyticsIndex string
	Timeout        time.Duration
}

func LoadConfig() *Config {
	return &Config{
		AnalyticsIndex: "paid-sessions",
		Timeout:        30 * time.Second,
	}
}
