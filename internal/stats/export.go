package stats

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/iliyamo/pool-reservation/internal/model"
)

var exportHeader = []string{
	"user_name", "role", "reservation_date", "reservation_hour",
	"check_in", "check_out", "duration_minutes", "laps", "meters",
}

// WriteCSV writes one row per attended session. Timestamps are RFC 3339 in
// loc; missing values are left empty.
func WriteCSV(w io.Writer, ss []Session, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, s := range ss {
		if s.Attendance == nil {
			continue
		}
		r, a := s.Reservation, s.Attendance
		row := []string{
			r.UserName,
			r.Role.Label(),
			model.FormatDate(r.Date),
			strconv.Itoa(r.Hour) + ":00",
			stamp(a.CheckInTime, loc),
			stamp(a.CheckOutTime, loc),
			"",
			strconv.Itoa(a.Laps),
			strconv.Itoa(a.DistanceMeters()),
		}
		if mins, ok := a.DurationMinutes(); ok {
			row[6] = strconv.Itoa(mins)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func stamp(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}
