package config

import "time"

// CacheConfig configures the Redis response cache on the leaderboard and
// the administrator reports.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 15*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "pool:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 256<<10),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Second
	}
	return cfg
}
