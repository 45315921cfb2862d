// internal/workers/advisory/orchestrate-query/config.go
package orchestratequery

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
