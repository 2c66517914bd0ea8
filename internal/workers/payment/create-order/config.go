// internal/workers/payment/create-order/config.go
package createorder

import "time"

type Config struct {
	DefaultCurrency string
	Timeout         time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DefaultCurrency: "INR",
		Timeout:         30 * time.Second,
	}
}
