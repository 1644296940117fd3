package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/pool-reservation/internal/model"
)

// reserveScript adds heads to a slot counter only while the total stays
// within the limit. A missing counter starts from the database occupancy
// passed as seed.
var reserveScript = redis.NewScript(`
	local key = KEYS[1]
	local seed = tonumber(ARGV[1])
	local heads = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl_seconds = tonumber(ARGV[4])

	local current = tonumber(redis.call('GET', key))
	if current == nil then
		current = seed
	end

	if current + heads > limit then
		redis.call('SET', key, current, 'EX', ttl_seconds)
		local remaining = limit - current
		if remaining < 0 then remaining = 0 end
		return { 0, remaining }
	end

	current = current + heads
	redis.call('SET', key, current, 'EX', ttl_seconds)
	return { 1, limit - current }
`)

// releaseScript subtracts heads from a counter without going below zero.
var releaseScript = redis.NewScript(`
	local key = KEYS[1]
	local heads = tonumber(ARGV[1])
	local current = tonumber(redis.call('GET', key))
	if current == nil then
		return 0
	end
	current = current - heads
	if current < 0 then current = 0 end
	redis.call('SET', key, current, 'KEEPTTL')
	return current
`)

// SlotCounter keeps a per-(date, hour) head count in Redis so concurrent
// bookings on different instances are admitted atomically before the
// database transaction runs.
type SlotCounter struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSlotCounter returns a SlotCounter storing keys under prefix.
func NewSlotCounter(rdb *redis.Client, prefix string, ttl time.Duration) *SlotCounter {
	if prefix == "" {
		prefix = "pool:slot"
	}
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &SlotCounter{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Key returns the counter key of one slot, e.g. pool:slot:2024-06-04:09.
func (s *SlotCounter) Key(date time.Time, hour int) string {
	return fmt.Sprintf("%s:%s:%02d", s.prefix, model.FormatDate(date), hour)
}

// Reserve atomically adds heads to the slot when the result stays within
// limit. It reports the places left afterwards, or left before the
// attempt when it was refused.
func (s *SlotCounter) Reserve(ctx context.Context, date time.Time, hour, seed, heads, limit int) (bool, int, error) {
	vals, err := reserveScript.Run(ctx, s.rdb, []string{s.Key(date, hour)},
		seed, heads, limit, int64(s.ttl/time.Second)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("slot reserve: %w", err)
	}
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 2 {
		return false, 0, fmt.Errorf("slot reserve: unexpected result %#v", vals)
	}
	return asInt(arr[0]) == 1, asInt(arr[1]), nil
}

// Release gives heads back to the slot.
func (s *SlotCounter) Release(ctx context.Context, date time.Time, hour, heads int) error {
	if err := releaseScript.Run(ctx, s.rdb, []string{s.Key(date, hour)}, heads).Err(); err != nil {
		return fmt.Errorf("slot release: %w", err)
	}
	return nil
}

func asInt(v interface{}) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case int:
		return t
	case string:
		n, _ := strconv.Atoi(t)
		return n
	}
	return 0
}
