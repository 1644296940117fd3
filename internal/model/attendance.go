package model

import (
	"math"
	"time"
)

// PoolLengthMeters is the distance covered by one lap.
const PoolLengthMeters = 50

// AttendanceState is derived from which timestamps are present.
type AttendanceState string

const (
	StatePending    AttendanceState = "PENDING"
	StateCheckedIn  AttendanceState = "CHECKED_IN"
	StateCheckedOut AttendanceState = "CHECKED_OUT"
)

// AttendanceRecord tracks arrival and departure for exactly one
// reservation-hour.
//
// Fields:
//  ID            – opaque unique identifier (UUID).
//  ReservationID – owning reservation (unique).
//  CheckInTime   – arrival, nil until checked in.
//  CheckOutTime  – departure, nil until checked out.
//  Laps          – laps swum, supplied at check-out.
type AttendanceRecord struct {
	ID            string     `json:"id" db:"id"`
	ReservationID string     `json:"reservation_id" db:"reservation_id"`
	CheckInTime   *time.Time `json:"check_in_time" db:"check_in_time"`
	CheckOutTime  *time.Time `json:"check_out_time" db:"check_out_time"`
	Laps          int        `json:"laps" db:"laps"`
}

// State returns the attendance lifecycle position of the record. A nil
// record is PENDING.
func (a *AttendanceRecord) State() AttendanceState {
	switch {
	case a == nil || a.CheckInTime == nil:
		return StatePending
	case a.CheckOutTime == nil:
		return StateCheckedIn
	default:
		return StateCheckedOut
	}
}

// Completed reports whether both timestamps are set.
func (a *AttendanceRecord) Completed() bool { return a.State() == StateCheckedOut }

// Elapsed returns check-out minus check-in, clamped at zero. ok is false
// until the session is completed.
func (a *AttendanceRecord) Elapsed() (d time.Duration, ok bool) {
	if !a.Completed() {
		return 0, false
	}
	d = a.CheckOutTime.Sub(*a.CheckInTime)
	if d < 0 {
		d = 0
	}
	return d, true
}

// DurationMinutes is round(elapsed ms / 60000).
func (a *AttendanceRecord) DurationMinutes() (int, bool) {
	d, ok := a.Elapsed()
	if !ok {
		return 0, false
	}
	return int(math.Round(float64(d.Milliseconds()) / 60000)), true
}

// DistanceMeters converts laps into meters.
func (a *AttendanceRecord) DistanceMeters() int { return a.Laps * PoolLengthMeters }
