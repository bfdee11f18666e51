// internal/workers/assignment/commit-assignment/config.go
package commitassignment

import "time"

type Config struct {
	Timeout      time.Duration
	QueryTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		QueryTimeout: 5 * time.Second,
	}
}
