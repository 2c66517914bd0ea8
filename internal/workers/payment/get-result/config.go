// internal/workers/payment/get-result/config.go
package getresult

import "time"

type Config struct {
	NarrativeTimeout time.Duration
	Timeout          time.Duration
}

func LoadConfig() *Config {
	return &Config{
		NarrativeTimeout: 10 * time.Second,
		Timeout:          30 * time.Second,
	}
}
