// internal/workers/analysis/validate-location/config.go
package validatelocation

import "time"

type Config struct {
	RadiusMeters int
	CacheTTL     time.Duration
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		RadiusMeters: 1500,
		CacheTTL:     15 * time.Minute,
		Timeout:      30 * time.Second,
	}
}
