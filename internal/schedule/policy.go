// Package schedule answers whether a date and hour can be booked, and by
// whom. Every function is pure over the loaded ScheduleConfig.
package schedule

import (
	"time"

	"github.com/iliyamo/pool-reservation/internal/config"
	"github.com/iliyamo/pool-reservation/internal/model"
)

// Policy wraps a ScheduleConfig with the booking predicates.
type Policy struct {
	cfg config.ScheduleConfig
}

// NewPolicy returns a Policy over cfg.
func NewPolicy(cfg config.ScheduleConfig) *Policy { return &Policy{cfg: cfg} }

// Config exposes the underlying schedule settings.
func (p *Policy) Config() config.ScheduleConfig { return p.cfg }

// IsOperatingDay reports whether the facility opens on date's weekday.
func (p *Policy) IsOperatingDay(date time.Time) bool {
	return p.cfg.OpenWeekdays[date.Weekday()]
}

// ClosingHour is the exclusive last hour for date.
func (p *Policy) ClosingHour(date time.Time) int {
	if date.Weekday() == time.Saturday {
		return p.cfg.CloseHourSaturday
	}
	return p.cfg.CloseHourWeekday
}

// IsPrivilegedHour reports whether hour is reserved for privileged roles.
func (p *Policy) IsPrivilegedHour(hour int) bool {
	return p.cfg.PrivilegedHours[hour]
}

// CanUseHour reports whether role may book hour.
func (p *Policy) CanUseHour(hour int, role model.Role) bool {
	return !p.IsPrivilegedHour(hour) || role.Privileged()
}

// OperatingHours lists the bookable hours of date in order, or nil on a
// closed day.
func (p *Policy) OperatingHours(date time.Time) []int {
	if !p.IsOperatingDay(date) {
		return nil
	}
	closing := p.ClosingHour(date)
	hours := make([]int, 0, closing-p.cfg.OpenHour)
	for h := p.cfg.OpenHour; h < closing; h++ {
		hours = append(hours, h)
	}
	return hours
}
