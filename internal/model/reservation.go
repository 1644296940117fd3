package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ReservationStatus is the lifecycle state of a single reservation-hour.
// CANCELLED is terminal.
type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

// Reservation is one booked hour. A multi-hour booking produces one
// Reservation per covered hour, all sharing HeadCount, Lanes and Code.
//
// Fields:
//  ID        – opaque unique identifier (UUID).
//  UserID    – owning member.
//  UserName  – owner display name at booking time.
//  Role      – owner role at booking time.
//  Date      – civil date of the slot.
//  Hour      – hour of day in [0,23].
//  HeadCount – people covered by this reservation.
//  Status    – CONFIRMED or CANCELLED.
//  Lanes     – contiguous lane numbers assigned at admission.
//  Code      – booking code shared by every hour of one booking.
//  CreatedAt – insertion timestamp.
type Reservation struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	UserName  string            `json:"user_name"`
	Role      Role              `json:"user_role"`
	Date      time.Time         `json:"-"`
	Hour      int               `json:"hour"`
	HeadCount int               `json:"head_count"`
	Status    ReservationStatus `json:"status"`
	Lanes     []int             `json:"lanes"`
	Code      string            `json:"booking_code"`
	CreatedAt time.Time         `json:"created_at"`
}

// MarshalJSON renders Date as a civil date string.
func (r Reservation) MarshalJSON() ([]byte, error) {
	type alias Reservation
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias(r), FormatDate(r.Date)})
}

// Confirmed reports whether the reservation still counts toward occupancy.
func (r Reservation) Confirmed() bool { return r.Status == StatusConfirmed }

// Summary renders a one-line human description used in cancellation notices.
func (r Reservation) Summary() string {
	return fmt.Sprintf("booking %s on %s at %02d:00 (%d people, lanes %s)",
		r.Code, FormatDate(r.Date), r.Hour, r.HeadCount, LaneString(r.Lanes))
}

// LaneString renders lanes as "1, 2".
func LaneString(lanes []int) string {
	parts := make([]string, len(lanes))
	for i, l := range lanes {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ", ")
}

// ParseLanes is the inverse of LaneString. Malformed entries are skipped.
func ParseLanes(s string) []int {
	out := []int{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}

// LaneRange expands an inclusive [start,end] range into lane numbers.
func LaneRange(start, end int) []int {
	if end < start {
		return []int{}
	}
	out := make([]int, 0, end-start+1)
	for l := start; l <= end; l++ {
		out = append(out, l)
	}
	return out
}
