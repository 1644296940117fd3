package config

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// ScheduleConfig describes when the pool can be booked and how many people
// fit in one hour. It is loaded once at startup and never mutated.
type ScheduleConfig struct {
	OpenHour          int                   // first bookable hour
	CloseHourWeekday  int                   // exclusive upper bound Tuesday to Friday
	CloseHourSaturday int                   // exclusive upper bound on Saturday
	MaxPerHour        int                   // people admitted per hour
	PrivilegedHours   map[int]bool          // hours restricted to privileged roles
	OpenWeekdays      map[time.Weekday]bool // days the facility operates
	LaneSize          int                   // people per lane band
	CodePrefix        string                // booking code prefix
}

// DefaultSchedule returns the facility defaults.
func DefaultSchedule() ScheduleConfig {
	return ScheduleConfig{
		OpenHour:          5,
		CloseHourWeekday:  20,
		CloseHourSaturday: 14,
		MaxPerHour:        50,
		PrivilegedHours:   map[int]bool{5: true, 6: true, 15: true, 16: true, 17: true},
		OpenWeekdays: map[time.Weekday]bool{
			time.Tuesday: true, time.Wednesday: true, time.Thursday: true,
			time.Friday: true, time.Saturday: true,
		},
		LaneSize:   6,
		CodePrefix: "ALB",
	}
}

// LoadScheduleConfig overlays POOL_* environment variables on the defaults.
func LoadScheduleConfig() ScheduleConfig {
	def := DefaultSchedule()
	def.OpenHour = envInt("POOL_OPEN_HOUR", def.OpenHour)
	def.CloseHourWeekday = envInt("POOL_CLOSE_HOUR_WEEKDAY", def.CloseHourWeekday)
	def.CloseHourSaturday = envInt("POOL_CLOSE_HOUR_SATURDAY", def.CloseHourSaturday)
	def.MaxPerHour = envInt("POOL_MAX_CAPACITY", def.MaxPerHour)
	def.LaneSize = envInt("POOL_LANE_SIZE", def.LaneSize)
	def.CodePrefix = envStr("POOL_CODE_PREFIX", def.CodePrefix)
	if hs, ok := parseInts(envStr("POOL_PRIVILEGED_HOURS", "")); ok {
		def.PrivilegedHours = make(map[int]bool, len(hs))
		for _, h := range hs {
			def.PrivilegedHours[h] = true
		}
	}
	if ds, ok := parseInts(envStr("POOL_OPEN_WEEKDAYS", "")); ok {
		def.OpenWeekdays = make(map[time.Weekday]bool, len(ds))
		for _, d := range ds {
			if d >= 0 && d <= 6 {
				def.OpenWeekdays[time.Weekday(d)] = true
			}
		}
	}
	if def.LaneSize < 1 {
		def.LaneSize = 6
	}
	return def
}

// PrivilegedList returns the privileged hours in ascending order.
func (s ScheduleConfig) PrivilegedList() []int {
	out := make([]int, 0, len(s.PrivilegedHours))
	for h := range s.PrivilegedHours {
		out = append(out, h)
	}
	sort.Ints(out)
	return out
}

func parseInts(s string) ([]int, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	var out []int
	for _, p := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
