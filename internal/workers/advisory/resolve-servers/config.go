// internal/workers/advisory/resolve-servers/config.go
package resolveservers

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
