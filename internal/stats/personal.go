package stats

import (
	"math"
	"time"

	"github.com/iliyamo/pool-reservation/internal/model"
)

// Totals sums one window.
type Totals struct {
	Laps    int `json:"laps"`
	Meters  int `json:"meters"`
	Minutes int `json:"minutes"`
}

// BestDay is the check-out date with the most laps. Date is "-" when no
// day has laps.
type BestDay struct {
	Date   string `json:"date"`
	Laps   int    `json:"laps"`
	Meters int    `json:"meters"`
}

// PersonalStats holds a swimmer's week, month and year totals.
type PersonalStats struct {
	UserID  string  `json:"user_id"`
	Week    Totals  `json:"week"`
	Month   Totals  `json:"month"`
	Year    Totals  `json:"year"`
	BestDay BestDay `json:"best_day"`
}

// WeekStart returns midnight of the Monday of t's week.
func WeekStart(t time.Time) time.Time {
	d := model.DateOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

type accumulator struct {
	laps    int
	minutes float64
}

func (a *accumulator) add(rec *model.AttendanceRecord) {
	a.laps += rec.Laps
	if d, ok := rec.Elapsed(); ok {
		a.minutes += d.Minutes()
	}
}

func (a accumulator) totals() Totals {
	return Totals{Laps: a.laps, Meters: a.laps * model.PoolLengthMeters, Minutes: int(math.Round(a.minutes))}
}

// ComputePersonalStats aggregates the completed sessions of userID. A
// session falls in a window when its check-out is at or after the window
// start. Minutes are summed unrounded and rounded once per window.
func ComputePersonalStats(ss []Session, userID string, now time.Time) PersonalStats {
	weekFrom := WeekStart(now)
	monthFrom := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	yearFrom := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())

	var week, month, year accumulator
	dayLaps := map[string]int{}
	var dayOrder []string
	for _, s := range ss {
		if s.Reservation.UserID != userID || !s.Completed() {
			continue
		}
		rec := s.Attendance
		out := rec.CheckOutTime.In(now.Location())
		if !out.Before(weekFrom) {
			week.add(rec)
		}
		if !out.Before(monthFrom) {
			month.add(rec)
		}
		if !out.Before(yearFrom) {
			year.add(rec)
		}
		key := model.FormatDate(out)
		if _, ok := dayLaps[key]; !ok {
			dayOrder = append(dayOrder, key)
		}
		dayLaps[key] += rec.Laps
	}

	best := BestDay{Date: "-"}
	for _, d := range dayOrder {
		if dayLaps[d] > best.Laps {
			best = BestDay{Date: d, Laps: dayLaps[d], Meters: dayLaps[d] * model.PoolLengthMeters}
		}
	}
	return PersonalStats{
		UserID:  userID,
		Week:    week.totals(),
		Month:   month.totals(),
		Year:    year.totals(),
		BestDay: best,
	}
}
