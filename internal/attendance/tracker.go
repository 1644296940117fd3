// Package attendance records arrivals and departures against confirmed
// reservations. Each reservation-hour moves PENDING -> CHECKED_IN ->
// CHECKED_OUT and never back.
package attendance

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/model"
)

// Reservations is the reservation lookup the tracker needs.
type Reservations interface {
	GetByID(ctx context.Context, id string) (model.Reservation, error)
	ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error)
}

// Store persists attendance records.
type Store interface {
	GetByReservation(ctx context.Context, reservationID string) (model.AttendanceRecord, error)
	ListByDate(ctx context.Context, date time.Time) ([]model.AttendanceRecord, error)
	// Insert fails with apperr.ErrDuplicate when the reservation already
	// has a record.
	Insert(ctx context.Context, rec model.AttendanceRecord) error
	// CompleteCheckOut sets check-out fields only if they are still empty
	// and reports whether it did.
	CompleteCheckOut(ctx context.Context, reservationID string, at time.Time, laps int) (bool, error)
}

// Tracker implements check-in and check-out.
type Tracker struct {
	reservations Reservations
	store        Store
}

// NewTracker wires a Tracker.
func NewTracker(reservations Reservations, store Store) *Tracker {
	return &Tracker{reservations: reservations, store: store}
}

// CheckInAllowed applies the arrival window: from the start of the reserved
// hour until the end of the same day. Late arrival is fine, early is not.
func CheckInAllowed(r model.Reservation, now time.Time) error {
	start := model.SlotStart(r.Date, r.Hour)
	if now.Before(start) {
		return apperr.New(apperr.FutureCheckIn, "check-in opens at "+start.Format("15:04"))
	}
	if !model.SameDate(r.Date, now) {
		return apperr.New(apperr.Validation, "check-in is only possible on the reservation date")
	}
	return nil
}

// CheckIn records arrival at now for reservationID.
func (t *Tracker) CheckIn(ctx context.Context, reservationID string, now time.Time) (model.AttendanceRecord, error) {
	r, err := t.reservation(ctx, reservationID)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	if !r.Confirmed() {
		return model.AttendanceRecord{}, apperr.New(apperr.Cancelled, "reservation is cancelled")
	}
	if err := CheckInAllowed(r, now); err != nil {
		return model.AttendanceRecord{}, err
	}

	if _, err := t.store.GetByReservation(ctx, reservationID); err == nil {
		return model.AttendanceRecord{}, apperr.New(apperr.DuplicateCheckIn, "already checked in")
	} else if !errors.Is(err, apperr.ErrNoRecord) {
		return model.AttendanceRecord{}, t.storageErr(err, reservationID)
	}

	at := now
	rec := model.AttendanceRecord{ID: uuid.NewString(), ReservationID: reservationID, CheckInTime: &at}
	if err := t.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return model.AttendanceRecord{}, apperr.New(apperr.DuplicateCheckIn, "already checked in")
		}
		return model.AttendanceRecord{}, t.storageErr(err, reservationID)
	}
	log.Info().Str("component", "attendance").Str("reservation_id", reservationID).Msg("checked in")
	return rec, nil
}

// CheckOut records departure at now with the laps swum. Zero laps is valid.
func (t *Tracker) CheckOut(ctx context.Context, reservationID string, laps int, now time.Time) (model.AttendanceRecord, error) {
	if laps < 0 {
		return model.AttendanceRecord{}, apperr.New(apperr.Validation, "laps cannot be negative")
	}
	if _, err := t.reservation(ctx, reservationID); err != nil {
		return model.AttendanceRecord{}, err
	}
	rec, err := t.store.GetByReservation(ctx, reservationID)
	if errors.Is(err, apperr.ErrNoRecord) {
		return model.AttendanceRecord{}, apperr.New(apperr.CheckInMissing, "no check-in recorded")
	}
	if err != nil {
		return model.AttendanceRecord{}, t.storageErr(err, reservationID)
	}
	switch rec.State() {
	case model.StatePending:
		return model.AttendanceRecord{}, apperr.New(apperr.CheckInMissing, "no check-in recorded")
	case model.StateCheckedOut:
		return model.AttendanceRecord{}, apperr.New(apperr.AlreadyCheckedOut, "already checked out")
	}

	at := now
	if at.Before(*rec.CheckInTime) {
		at = *rec.CheckInTime
	}
	ok, err := t.store.CompleteCheckOut(ctx, reservationID, at, laps)
	if err != nil {
		return model.AttendanceRecord{}, t.storageErr(err, reservationID)
	}
	if !ok {
		return model.AttendanceRecord{}, apperr.New(apperr.AlreadyCheckedOut, "already checked out")
	}
	rec.CheckOutTime = &at
	rec.Laps = laps
	log.Info().Str("component", "attendance").Str("reservation_id", reservationID).Int("laps", laps).Msg("checked out")
	return rec, nil
}

// BoardEntry is one confirmed reservation of a day with its attendance.
type BoardEntry struct {
	Reservation model.Reservation       `json:"reservation"`
	Attendance  *model.AttendanceRecord `json:"attendance,omitempty"`
	State       model.AttendanceState   `json:"state"`
}

// Board lists the confirmed reservations of date ordered by hour, each with
// its attendance state. It backs the front-desk check-in screen.
func (t *Tracker) Board(ctx context.Context, date time.Time) ([]BoardEntry, error) {
	rs, err := t.reservations.ListByDate(ctx, date)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	recs, err := t.store.ListByDate(ctx, date)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	byRes := make(map[string]model.AttendanceRecord, len(recs))
	for _, a := range recs {
		byRes[a.ReservationID] = a
	}
	out := make([]BoardEntry, 0, len(rs))
	for _, r := range rs {
		if !r.Confirmed() {
			continue
		}
		e := BoardEntry{Reservation: r, State: model.StatePending}
		if a, ok := byRes[r.ID]; ok {
			a := a
			e.Attendance = &a
			e.State = a.State()
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Reservation.Hour < out[j].Reservation.Hour })
	return out, nil
}

func (t *Tracker) reservation(ctx context.Context, id string) (model.Reservation, error) {
	r, err := t.reservations.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNoRecord) {
		return model.Reservation{}, apperr.New(apperr.NotFound, "reservation not found")
	}
	if err != nil {
		return model.Reservation{}, t.storageErr(err, id)
	}
	return r, nil
}

func (t *Tracker) storageErr(err error, reservationID string) error {
	log.Error().Err(err).Str("component", "attendance").Str("reservation_id", reservationID).Msg("storage failure")
	return apperr.Storage(err)
}
