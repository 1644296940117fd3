// Package ledger derives slot occupancy and lane bands from confirmed
// reservations. Nothing here writes; every figure is recomputed from the
// reservation store on demand.
package ledger

import (
	"context"
	"time"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/model"
	"github.com/iliyamo/pool-reservation/internal/schedule"
)

// ReservationSource is the read side of the reservation store.
type ReservationSource interface {
	ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error)
}

// Ledger answers occupancy questions for a schedule.
type Ledger struct {
	src    ReservationSource
	policy *schedule.Policy
}

// New returns a Ledger reading from src.
func New(src ReservationSource, policy *schedule.Policy) *Ledger {
	return &Ledger{src: src, policy: policy}
}

// Occupancy sums head counts of confirmed reservations at (date, hour) in rs.
func Occupancy(rs []model.Reservation, date time.Time, hour int) int {
	total := 0
	for _, r := range rs {
		if r.Confirmed() && r.Hour == hour && model.SameDate(date, r.Date) {
			total += r.HeadCount
		}
	}
	return total
}

// ByHour sums confirmed head counts per hour for the reservations of one date.
func ByHour(rs []model.Reservation, date time.Time) map[int]int {
	out := make(map[int]int)
	for _, r := range rs {
		if r.Confirmed() && model.SameDate(date, r.Date) {
			out[r.Hour] += r.HeadCount
		}
	}
	return out
}

// LaneRange returns the inclusive lane band a group of headCount people gets
// when occupancy people are already in the water. Bands are laneSize wide
// and are a hint only: groups may share a boundary lane.
func LaneRange(occupancy, headCount, laneSize int) (start, end int) {
	start = occupancy/laneSize + 1
	end = (occupancy+headCount-1)/laneSize + 1
	return start, end
}

// Snapshot loads the per-hour occupancy of date.
func (l *Ledger) Snapshot(ctx context.Context, date time.Time) (map[int]int, error) {
	rs, err := l.src.ListByDate(ctx, date)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return ByHour(rs, date), nil
}

// Occupancy returns the confirmed head count at (date, hour).
func (l *Ledger) Occupancy(ctx context.Context, date time.Time, hour int) (int, error) {
	snap, err := l.Snapshot(ctx, date)
	if err != nil {
		return 0, err
	}
	return snap[hour], nil
}

// Remaining returns the free places at (date, hour), never below zero.
func (l *Ledger) Remaining(ctx context.Context, date time.Time, hour int) (int, error) {
	occ, err := l.Occupancy(ctx, date, hour)
	if err != nil {
		return 0, err
	}
	return clamp(l.policy.Config().MaxPerHour - occ), nil
}

// NextLaneRange returns the lane band for a new group at (date, hour).
func (l *Ledger) NextLaneRange(ctx context.Context, date time.Time, hour, headCount int) (int, int, error) {
	occ, err := l.Occupancy(ctx, date, hour)
	if err != nil {
		return 0, 0, err
	}
	start, end := LaneRange(occ, headCount, l.policy.Config().LaneSize)
	return start, end, nil
}

// Slot is the availability of one operating hour.
type Slot struct {
	Hour       int  `json:"hour"`
	Occupancy  int  `json:"occupancy"`
	Remaining  int  `json:"remaining"`
	Privileged bool `json:"privileged"`
	NextLane   int  `json:"next_lane"`
}

// Slots lists availability for every operating hour of date. A closed day
// yields an empty list.
func (l *Ledger) Slots(ctx context.Context, date time.Time) ([]Slot, error) {
	hours := l.policy.OperatingHours(date)
	if len(hours) == 0 {
		return []Slot{}, nil
	}
	snap, err := l.Snapshot(ctx, date)
	if err != nil {
		return nil, err
	}
	cfg := l.policy.Config()
	out := make([]Slot, 0, len(hours))
	for _, h := range hours {
		occ := snap[h]
		out = append(out, Slot{
			Hour:       h,
			Occupancy:  occ,
			Remaining:  clamp(cfg.MaxPerHour - occ),
			Privileged: l.policy.IsPrivilegedHour(h),
			NextLane:   occ/cfg.LaneSize + 1,
		})
	}
	return out, nil
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
