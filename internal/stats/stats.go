// Package stats aggregates attendance into personal totals, the lap
// leaderboard and reserved-versus-attended occupancy reports. Only sessions
// with a check-out count toward swim statistics.
package stats

import (
	"context"
	"time"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/model"
	"github.com/iliyamo/pool-reservation/internal/schedule"
)

// Session is a reservation joined with its attendance record, if any.
type Session struct {
	Reservation model.Reservation
	Attendance  *model.AttendanceRecord
}

// Completed reports whether the session has both timestamps.
func (s Session) Completed() bool { return s.Attendance != nil && s.Attendance.Completed() }

// Filter narrows a session query. Zero values mean "no restriction".
type Filter struct {
	UserID        string
	From, To      time.Time // inclusive reservation-date bounds
	CompletedOnly bool      // only sessions with check-out set
	AttendedOnly  bool      // only sessions with an attendance record
}

// Source loads joined sessions ordered by reservation date, hour and check-out.
type Source interface {
	Sessions(ctx context.Context, f Filter) ([]Session, error)
}

// Aggregator serves the reporting queries.
type Aggregator struct {
	src    Source
	policy *schedule.Policy
}

// NewAggregator wires an Aggregator.
func NewAggregator(src Source, policy *schedule.Policy) *Aggregator {
	return &Aggregator{src: src, policy: policy}
}

// PersonalStats returns the totals of userID relative to now.
func (a *Aggregator) PersonalStats(ctx context.Context, userID string, now time.Time) (PersonalStats, error) {
	ss, err := a.src.Sessions(ctx, Filter{UserID: userID, CompletedOnly: true})
	if err != nil {
		return PersonalStats{}, apperr.Storage(err)
	}
	return ComputePersonalStats(ss, userID, now), nil
}

// Leaderboard returns the top swimmers by total laps.
func (a *Aggregator) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	ss, err := a.src.Sessions(ctx, Filter{CompletedOnly: true})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return ComputeLeaderboard(ss, LeaderboardSize), nil
}

// OccupancyReport builds the report of mode around ref.
func (a *Aggregator) OccupancyReport(ctx context.Context, mode ReportMode, ref time.Time) (Report, error) {
	if !mode.Valid() {
		return Report{}, apperr.New(apperr.Validation, "mode must be DAILY, WEEKLY or MONTHLY")
	}
	from, to := mode.Window(ref)
	ss, err := a.src.Sessions(ctx, Filter{From: from, To: to})
	if err != nil {
		return Report{}, apperr.Storage(err)
	}
	return ComputeReport(mode, ref, ss, a.policy), nil
}

// Weekdays returns confirmed head counts per operating weekday.
func (a *Aggregator) Weekdays(ctx context.Context, from, to time.Time) ([]WeekdayCount, error) {
	ss, err := a.src.Sessions(ctx, Filter{From: from, To: to})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return ComputeWeekdays(ss, a.policy), nil
}

// ExportRows returns one row per attendance record between from and to.
func (a *Aggregator) ExportRows(ctx context.Context, from, to time.Time) ([]Session, error) {
	ss, err := a.src.Sessions(ctx, Filter{From: from, To: to, AttendedOnly: true})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return ss, nil
}
