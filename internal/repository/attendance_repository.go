package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/model"
)

// AttendanceRepo persists check-in/check-out records. The unique key on
// reservation_id keeps one record per reservation-hour.
type AttendanceRepo struct {
	db *sqlx.DB
}

// NewAttendanceRepo returns a new AttendanceRepo bound to the given database.
func NewAttendanceRepo(db *sqlx.DB) *AttendanceRepo { return &AttendanceRepo{db: db} }

const attendanceColumns = `id, reservation_id, check_in_time, check_out_time, laps`

// GetByReservation returns the record of a reservation or apperr.ErrNoRecord.
func (r *AttendanceRepo) GetByReservation(ctx context.Context, reservationID string) (model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	q := `SELECT ` + attendanceColumns + ` FROM attendance WHERE reservation_id = ?`
	if err := r.db.GetContext(ctx, &rec, q, reservationID); err != nil {
		return model.AttendanceRecord{}, notFound(err)
	}
	return rec, nil
}

// ListByDate returns the records whose reservation falls on date.
func (r *AttendanceRepo) ListByDate(ctx context.Context, date time.Time) ([]model.AttendanceRecord, error) {
	const q = `SELECT a.id, a.reservation_id, a.check_in_time, a.check_out_time, a.laps
               FROM attendance a
               JOIN reservations r ON r.id = a.reservation_id
               WHERE r.date = ?`
	var out []model.AttendanceRecord
	if err := r.db.SelectContext(ctx, &out, q, model.FormatDate(date)); err != nil {
		return nil, fmt.Errorf("list attendance by date: %w", err)
	}
	return out, nil
}

// Insert creates a check-in record. A second record for the same
// reservation fails with apperr.ErrDuplicate.
func (r *AttendanceRepo) Insert(ctx context.Context, rec model.AttendanceRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attendance (id, reservation_id, check_in_time, check_out_time, laps) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.ReservationID, rec.CheckInTime, rec.CheckOutTime, rec.Laps)
	if err != nil {
		if isDuplicate(err) {
			return apperr.ErrDuplicate
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// CompleteCheckOut stamps check-out and laps on a checked-in record that
// has no check-out yet, reporting whether a row changed.
func (r *AttendanceRepo) CompleteCheckOut(ctx context.Context, reservationID string, at time.Time, laps int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE attendance SET check_out_time = ?, laps = ?
         WHERE reservation_id = ? AND check_in_time IS NOT NULL AND check_out_time IS NULL`,
		at, laps, reservationID)
	if err != nil {
		return false, fmt.Errorf("check out: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
