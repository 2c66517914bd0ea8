// internal/workers/analysis/score-location/config.go
package scorelocation

import "time"

type Config struct {
	RadiusMeters int
	TopRatedN    int
	CacheTTL     time.Duration
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		RadiusMeters: 1500,
		TopRatedN:    10,
		CacheTTL:     15 * time.Minute,
		Timeout:      30 * time.Second,
	}
}
