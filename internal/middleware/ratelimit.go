package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/pool-reservation/internal/config"
)

// takeToken refills the bucket in whole steps of every_ms and spends one
// token. Returns {allowed, tokens_left, wait_ms}.
var takeToken = redis.NewScript(`
local now   = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local every = tonumber(ARGV[3])
local b = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens = tonumber(b[1]) or burst
local at = tonumber(b[2]) or now
local steps = math.floor(math.max(0, now - at) / every)
if steps > 0 then
	tokens = math.min(burst, tokens + steps)
	at = at + steps * every
end
if tokens >= burst then
	at = now
end
if tokens < 1 then
	return {0, 0, every - (now - at)}
end
tokens = tokens - 1
redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', at)
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return {1, tokens, 0}
`)

// NewTokenBucket throttles writes per bucket key. When Redis is down the
// request goes through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	every := cfg.Every.Milliseconds()
	ttl := cfg.IdleTTL().Milliseconds()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			res, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Burst, every, ttl).Int64Slice()
			if err != nil || len(res) != 3 {
				log.Warn().Err(err).Str("component", "ratelimit").Str("key", key).Msg("bucket unavailable")
				return next(c)
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			if res[0] == 1 {
				return next(c)
			}
			wait := int((res[2] + 999) / 1000)
			if wait < 1 {
				wait = 1
			}
			h.Set("Retry-After", strconv.Itoa(wait))
			log.Debug().Str("component", "ratelimit").Str("key", key).Int("retry_after", wait).Msg("throttled")
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "RATE_LIMITED",
				"message":     "too many requests, slow down",
				"retry_after": wait,
			})
		}
	}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// rateKey scopes the bucket. Anonymous callers share the "guest" member.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	switch cfg.Scope {
	case "ip":
		return cfg.Prefix + ":ip:" + c.RealIP()
	case "member":
		return cfg.Prefix + ":m:" + userID(c)
	default:
		return cfg.Prefix + ":m:" + userID(c) + ":" + c.Request().Method + ":" + c.Path()
	}
}
