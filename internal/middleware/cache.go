package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/pool-reservation/internal/config"
)

// cachedResponse is what the cache stores per key.
type cachedResponse struct {
	ContentType string `json:"ct"`
	Body        []byte `json:"b"`
}

// recorder tees the response body up to limit bytes. overflow is set once
// the body no longer fits.
type recorder struct {
	http.ResponseWriter
	status   int
	body     bytes.Buffer
	limit    int
	overflow bool
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.overflow {
		if r.limit > 0 && r.body.Len()+len(b) > r.limit {
			r.overflow = true
			r.body.Reset()
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// responseKey hashes the route and the query with parameters sorted, so
// ?a=1&b=2 and ?b=2&a=1 share an entry.
func responseKey(prefix string, c echo.Context) string {
	sum := sha1.Sum([]byte(c.Path() + "?" + c.QueryParams().Encode()))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// NewRedisCache serves repeated GETs of the leaderboard and reports from
// Redis for cfg.TTL. Only complete 200 responses are stored.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			key := responseKey(cfg.Prefix, c)
			if raw, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				var hit cachedResponse
				if json.Unmarshal(raw, &hit) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(http.StatusOK, hit.ContentType, hit.Body)
				}
			} else if !errors.Is(err, redis.Nil) {
				log.Warn().Err(err).Str("component", "cache").Msg("lookup failed")
			}

			rec := &recorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflow {
				return nil
			}
			raw, err := json.Marshal(cachedResponse{
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.body.Bytes(),
			})
			if err != nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := rdb.Set(ctx, key, raw, cfg.TTL).Err(); err != nil {
				log.Warn().Err(err).Str("component", "cache").Msg("store failed")
			}
			return nil
		}
	}
}
