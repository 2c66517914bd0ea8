// internal/workers/locale/resolve-currency/config.go
package resolvecurrency

import "time"

type Config struct {
	GeoIPTimeout time.Duration
	CacheTTL     time.Duration
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		GeoIPTimeout: 2 * time.Second,
		CacheTTL:     12 * time.Hour,
		Timeout:      10 * time.Second,
	}
}
