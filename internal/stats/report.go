package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iliyamo/pool-reservation/internal/model"
	"github.com/iliyamo/pool-reservation/internal/schedule"
)

// ReportMode selects the granularity of an occupancy report.
type ReportMode string

const (
	Daily   ReportMode = "DAILY"
	Weekly  ReportMode = "WEEKLY"
	Monthly ReportMode = "MONTHLY"
)

// ParseMode accepts a mode name in any case.
func ParseMode(s string) ReportMode { return ReportMode(strings.ToUpper(strings.TrimSpace(s))) }

// Valid reports whether m is a known mode.
func (m ReportMode) Valid() bool { return m == Daily || m == Weekly || m == Monthly }

// Window returns the inclusive date range the report of m covers around ref.
func (m ReportMode) Window(ref time.Time) (from, to time.Time) {
	d := model.DateOf(ref)
	switch m {
	case Weekly:
		from = WeekStart(d)
		return from, from.AddDate(0, 0, 6)
	case Monthly:
		from = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
		return from, from.AddDate(0, 1, -1)
	default:
		return d, d
	}
}

// Row is one hour (DAILY) or one day (WEEKLY, MONTHLY) of a report.
type Row struct {
	Label      string  `json:"label"`
	Date       string  `json:"date"`
	Hour       *int    `json:"hour,omitempty"`
	Weekday    string  `json:"weekday,omitempty"`
	Reserved   int     `json:"reserved"`
	Attended   int     `json:"attended"`
	Compliance float64 `json:"compliance"`
}

// Summary totals a report.
type Summary struct {
	TotalReserved  int     `json:"total_reserved"`
	TotalAttended  int     `json:"total_attended"`
	AttendanceRate float64 `json:"attendance_rate"`
	NoShowRate     float64 `json:"no_show_rate"`
}

// Report is the reserved-versus-attended view over a window.
type Report struct {
	Mode    ReportMode `json:"mode"`
	From    string     `json:"from"`
	To      string     `json:"to"`
	Rows    []Row      `json:"rows"`
	Summary Summary    `json:"summary"`
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

// ComputeReport builds the report of mode around ref from ss. Only confirmed
// reservations count; a reservation counts as attended once it has a
// check-in, completed or not.
func ComputeReport(mode ReportMode, ref time.Time, ss []Session, policy *schedule.Policy) Report {
	from, to := mode.Window(ref)
	type cell struct{ reserved, attended int }
	cells := map[string]*cell{}
	key := func(date time.Time, hour int) string {
		if mode == Daily {
			return fmt.Sprintf("%s/%02d", model.FormatDate(date), hour)
		}
		return model.FormatDate(date)
	}
	for _, s := range ss {
		r := s.Reservation
		if !r.Confirmed() {
			continue
		}
		d := model.DateOf(r.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		k := key(d, r.Hour)
		c, ok := cells[k]
		if !ok {
			c = &cell{}
			cells[k] = c
		}
		c.reserved += r.HeadCount
		if s.Attendance != nil && s.Attendance.CheckInTime != nil {
			c.attended += r.HeadCount
		}
	}

	rep := Report{Mode: mode, From: model.FormatDate(from), To: model.FormatDate(to), Rows: []Row{}}
	add := func(row Row, c *cell) {
		if c != nil {
			row.Reserved, row.Attended = c.reserved, c.attended
		}
		row.Compliance = percent(row.Attended, row.Reserved)
		rep.Summary.TotalReserved += row.Reserved
		rep.Summary.TotalAttended += row.Attended
		rep.Rows = append(rep.Rows, row)
	}
	if mode == Daily {
		for _, h := range policy.OperatingHours(from) {
			h := h
			add(Row{Label: fmt.Sprintf("%02d:00", h), Date: model.FormatDate(from), Hour: &h}, cells[key(from, h)])
		}
	} else {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			add(Row{Label: model.FormatDate(d), Date: model.FormatDate(d), Weekday: d.Weekday().String()}, cells[key(d, 0)])
		}
	}
	rep.Summary.AttendanceRate = percent(rep.Summary.TotalAttended, rep.Summary.TotalReserved)
	rep.Summary.NoShowRate = math.Round((100-rep.Summary.AttendanceRate)*10) / 10
	return rep
}

// WeekdayCount is the confirmed head count booked on one weekday.
type WeekdayCount struct {
	Weekday string `json:"weekday"`
	People  int    `json:"people"`
}

// ComputeWeekdays sums confirmed head counts by weekday, listing only the
// days the facility operates, Monday first.
func ComputeWeekdays(ss []Session, policy *schedule.Policy) []WeekdayCount {
	counts := map[time.Weekday]int{}
	for _, s := range ss {
		if s.Reservation.Confirmed() {
			counts[s.Reservation.Date.Weekday()] += s.Reservation.HeadCount
		}
	}
	open := policy.Config().OpenWeekdays
	out := []WeekdayCount{}
	for i := 1; i <= 7; i++ {
		wd := time.Weekday(i % 7)
		if open[wd] {
			out = append(out, WeekdayCount{Weekday: wd.String(), People: counts[wd]})
		}
	}
	return out
}
