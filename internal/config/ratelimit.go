package config

import "time"

// RateLimitConfig configures the Redis token bucket in front of booking
// and attendance writes. Each bucket holds Burst tokens and regains one
// every Every.
type RateLimitConfig struct {
	Enabled bool
	Burst   int
	Every   time.Duration
	// Scope selects the bucket key: "member", "member_route" or "ip".
	Scope  string
	Prefix string
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Burst:   envInt("RATE_LIMIT_BURST", 20),
		Every:   envDur("RATE_LIMIT_EVERY", 3*time.Second),
		Scope:   envStr("RATE_LIMIT_SCOPE", "member_route"),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "pool:rl"),
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.Every <= 0 {
		cfg.Every = time.Second
	}
	return cfg
}

// IdleTTL is how long an untouched bucket lives: long enough to refill
// completely.
func (c RateLimitConfig) IdleTTL() time.Duration {
	return time.Duration(c.Burst+1) * c.Every
}
