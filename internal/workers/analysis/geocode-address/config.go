// internal/workers/analysis/geocode-address/config.go
package geocodeaddress

import "time"

type Config struct {
	CacheTTL time.Duration
	Timeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL: 24 * time.Hour,
		Timeout:  15 * time.Second,
	}
}
