package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/model"
)

// ReservationRepo persists reservation-hours in the reservations table.
// Roles are stored as category labels and lanes as "1, 2" strings; both
// are translated here and nowhere else.
type ReservationRepo struct {
	db *sqlx.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sqlx.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// reservationRow mirrors the reservations table.
type reservationRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	UserName    string    `db:"user_name"`
	UserRole    string    `db:"user_role"`
	Date        time.Time `db:"date"`
	Hour        int       `db:"hour"`
	HeadCount   int       `db:"head_count"`
	Status      string    `db:"status"`
	LaneNumbers string    `db:"lane_numbers"`
	BookingCode string    `db:"booking_code"`
	CreatedAt   time.Time `db:"created_at"`
}

const reservationColumns = `id, user_id, user_name, user_role, date, hour, head_count, status, lane_numbers, booking_code, created_at`

func (row reservationRow) toModel() model.Reservation {
	return model.Reservation{
		ID:        row.ID,
		UserID:    row.UserID,
		UserName:  row.UserName,
		Role:      model.RoleFromLabel(row.UserRole),
		Date:      model.DateOf(row.Date),
		Hour:      row.Hour,
		HeadCount: row.HeadCount,
		Status:    model.ReservationStatus(row.Status),
		Lanes:     model.ParseLanes(row.LaneNumbers),
		Code:      row.BookingCode,
		CreatedAt: row.CreatedAt,
	}
}

func toModels(rows []reservationRow) []model.Reservation {
	out := make([]model.Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out
}

// ListByDate returns every reservation of one civil date, any status.
func (r *ReservationRepo) ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
	var rows []reservationRow
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE date = ? ORDER BY hour, created_at`
	if err := r.db.SelectContext(ctx, &rows, q, model.FormatDate(date)); err != nil {
		return nil, fmt.Errorf("list reservations by date: %w", err)
	}
	return toModels(rows), nil
}

// ListByUser returns a member's reservations, newest slot first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	var rows []reservationRow
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ? ORDER BY date DESC, hour DESC`
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, fmt.Errorf("list reservations by user: %w", err)
	}
	return toModels(rows), nil
}

// GetByID returns one reservation or apperr.ErrNoRecord.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (model.Reservation, error) {
	var row reservationRow
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return model.Reservation{}, notFound(err)
	}
	return row.toModel(), nil
}

// InsertBooking writes all hour-records of one booking in a single
// transaction. Each covered slot is summed under a locking read first, so
// concurrent bookings of the same slot serialise and the hourly limit
// holds. Nothing is written when any hour would overflow.
func (r *ReservationRepo) InsertBooking(ctx context.Context, rs []model.Reservation, maxPerHour int) error {
	if len(rs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, res := range rs {
		occ, err := r.OccupancyTx(ctx, tx, res.Date, res.Hour)
		if err != nil {
			return err
		}
		if occ+res.HeadCount > maxPerHour {
			remaining := maxPerHour - occ
			if remaining < 0 {
				remaining = 0
			}
			return apperr.Capacity(res.Hour, remaining)
		}
	}
	if err := r.CreateBulkTx(ctx, tx, rs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking tx: %w", err)
	}
	committed = true
	return nil
}

// OccupancyTx sums confirmed head counts at (date, hour) and locks the
// matching index range until tx ends.
func (r *ReservationRepo) OccupancyTx(ctx context.Context, tx *sqlx.Tx, date time.Time, hour int) (int, error) {
	const q = `SELECT COALESCE(SUM(head_count), 0) FROM reservations
               WHERE date = ? AND hour = ? AND status = 'CONFIRMED' FOR UPDATE`
	var occ int
	if err := tx.GetContext(ctx, &occ, q, model.FormatDate(date), hour); err != nil {
		return 0, fmt.Errorf("slot occupancy: %w", err)
	}
	return occ, nil
}

// CreateBulkTx inserts reservation rows in one statement inside tx.
func (r *ReservationRepo) CreateBulkTx(ctx context.Context, tx *sqlx.Tx, rs []model.Reservation) error {
	if len(rs) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO reservations (id, user_id, user_name, user_role, date, hour, head_count, status, lane_numbers, booking_code) VALUES `)
	args := make([]interface{}, 0, len(rs)*10)
	for i, res := range rs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, res.ID, res.UserID, res.UserName, res.Role.Label(), model.FormatDate(res.Date),
			res.Hour, res.HeadCount, string(res.Status), model.LaneString(res.Lanes), res.Code)
	}
	if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("insert reservations: %w", err)
	}
	return nil
}

// Cancel moves a CONFIRMED reservation to CANCELLED. It reports false when
// no confirmed row matched.
func (r *ReservationRepo) Cancel(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = 'CANCELLED' WHERE id = ? AND status = 'CONFIRMED'`, id)
	if err != nil {
		return false, fmt.Errorf("cancel reservation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes a reservation; its attendance row goes with it through
// the foreign key cascade.
func (r *ReservationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNoRecord
	}
	return nil
}
