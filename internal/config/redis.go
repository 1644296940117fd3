package config

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewRedisClient builds a client from REDIS_ADDR (or REDIS_HOST and
// REDIS_PORT), REDIS_PASSWORD, REDIS_DB and REDIS_TLS. It returns nil when
// the server does not answer a ping; callers then run without the slot
// guard, response cache and rate limiter.
func NewRedisClient() *redis.Client {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", "")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	var tlsConf *tls.Config
	if envBool("REDIS_TLS", false) {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  envStr("REDIS_PASSWORD", ""),
		DB:        envInt("REDIS_DB", 0),
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("component", "config").Str("addr", addr).Msg("redis unavailable")
		_ = client.Close()
		return nil
	}
	return client
}

// SlotGuardConfig controls the Redis per-slot head counter that fronts the
// database capacity check.
type SlotGuardConfig struct {
	Enabled bool
	Prefix  string
	TTL     time.Duration
}

// LoadSlotGuardConfig reads POOL_SLOT_GUARD_* variables.
func LoadSlotGuardConfig() SlotGuardConfig {
	return SlotGuardConfig{
		Enabled: envBool("POOL_SLOT_GUARD_ENABLED", true),
		Prefix:  envStr("POOL_SLOT_GUARD_PREFIX", "pool:slot"),
		TTL:     envDur("POOL_SLOT_GUARD_TTL", 48*time.Hour),
	}
}
