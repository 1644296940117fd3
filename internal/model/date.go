package model

import "time"

const (
	// DateLayout is the civil-date format used on the wire and in storage.
	DateLayout = "2006-01-02"
	// compactDateLayout is embedded in booking codes.
	compactDateLayout = "20060102"
)

// DateOf truncates t to midnight in its own location. Reservation dates are
// civil dates; they carry no time-of-day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate parses a YYYY-MM-DD string as a civil date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// FormatDate renders a civil date as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// CompactDate renders a civil date as YYYYMMDD.
func CompactDate(t time.Time) string { return t.Format(compactDateLayout) }

// SameDate reports whether a and b fall on the same calendar day. b is
// converted into a's location first.
func SameDate(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SlotStart returns the instant at which hour begins on date.
func SlotStart(date time.Time, hour int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, date.Location())
}
