package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadScheduleConfigDefaults(t *testing.T) {
	cfg := LoadScheduleConfig()
	assert.Equal(t, 5, cfg.OpenHour)
	assert.Equal(t, 20, cfg.CloseHourWeekday)
	assert.Equal(t, 14, cfg.CloseHourSaturday)
	assert.Equal(t, 50, cfg.MaxPerHour)
	assert.Equal(t, []int{5, 6, 15, 16, 17}, cfg.PrivilegedList())
	assert.False(t, cfg.OpenWeekdays[time.Monday])
	assert.True(t, cfg.OpenWeekdays[time.Saturday])
}

func TestLoadScheduleConfigOverrides(t *testing.T) {
	t.Setenv("POOL_MAX_CAPACITY", "30")
	t.Setenv("POOL_PRIVILEGED_HOURS", "7, 8")
	t.Setenv("POOL_OPEN_WEEKDAYS", "1,2")
	t.Setenv("POOL_LANE_SIZE", "0")
	cfg := LoadScheduleConfig()
	assert.Equal(t, 30, cfg.MaxPerHour)
	assert.Equal(t, []int{7, 8}, cfg.PrivilegedList())
	assert.True(t, cfg.OpenWeekdays[time.Monday])
	assert.False(t, cfg.OpenWeekdays[time.Saturday])
	assert.Equal(t, 6, cfg.LaneSize)
}

func TestLoadScheduleConfigIgnoresMalformedLists(t *testing.T) {
	t.Setenv("POOL_PRIVILEGED_HOURS", "5,x")
	cfg := LoadScheduleConfig()
	assert.Equal(t, []int{5, 6, 15, 16, 17}, cfg.PrivilegedList())
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "0")
	t.Setenv("RATE_LIMIT_EVERY", "-1s")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Burst)
	assert.Equal(t, time.Second, cfg.Every)
	assert.Equal(t, 2*time.Second, cfg.IdleTTL())
	assert.Equal(t, "member_route", cfg.Scope)
	assert.Equal(t, "pool:rl", cfg.Prefix)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "off")
	t.Setenv("CACHE_TTL", "0s")
	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 15*time.Second, cfg.TTL)
	assert.Equal(t, "pool:cache", cfg.Prefix)
}
