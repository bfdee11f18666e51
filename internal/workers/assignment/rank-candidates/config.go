// internal/workers/assignment/rank-candidates/config.go
package rankcandidates

import "time"

type Config struct {
	Timeout         time.Duration
	RankingCacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		RankingCacheTTL: 60 * time.Second,
	}
}
