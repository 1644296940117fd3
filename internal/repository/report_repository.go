package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pool-reservation/internal/model"
	"github.com/iliyamo/pool-reservation/internal/stats"
)

// ReportRepo serves the reporting queries: reservations left-joined with
// their attendance record, built with goqu.
type ReportRepo struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// NewReportRepo returns a new ReportRepo bound to the given database.
func NewReportRepo(db *sqlx.DB) *ReportRepo {
	return &ReportRepo{db: db, dialect: goqu.Dialect("mysql")}
}

type sessionRow struct {
	reservationRow
	AttendanceID sql.NullString `db:"attendance_id"`
	CheckInTime  sql.NullTime   `db:"check_in_time"`
	CheckOutTime sql.NullTime   `db:"check_out_time"`
	Laps         sql.NullInt64  `db:"laps"`
}

func (row sessionRow) toSession() stats.Session {
	s := stats.Session{Reservation: row.reservationRow.toModel()}
	if !row.AttendanceID.Valid {
		return s
	}
	rec := &model.AttendanceRecord{
		ID:            row.AttendanceID.String,
		ReservationID: row.ID,
		Laps:          int(row.Laps.Int64),
	}
	if row.CheckInTime.Valid {
		t := row.CheckInTime.Time
		rec.CheckInTime = &t
	}
	if row.CheckOutTime.Valid {
		t := row.CheckOutTime.Time
		rec.CheckOutTime = &t
	}
	s.Attendance = rec
	return s
}

// SessionsQuery builds the SQL and arguments for f.
func (r *ReportRepo) SessionsQuery(f stats.Filter) (string, []interface{}, error) {
	ds := r.dialect.From(goqu.T("reservations").As("r")).
		LeftJoin(goqu.T("attendance").As("a"), goqu.On(goqu.I("a.reservation_id").Eq(goqu.I("r.id")))).
		Select(
			goqu.I("r.id"), goqu.I("r.user_id"), goqu.I("r.user_name"), goqu.I("r.user_role"),
			goqu.I("r.date"), goqu.I("r.hour"), goqu.I("r.head_count"), goqu.I("r.status"),
			goqu.I("r.lane_numbers"), goqu.I("r.booking_code"), goqu.I("r.created_at"),
			goqu.I("a.id").As("attendance_id"), goqu.I("a.check_in_time"),
			goqu.I("a.check_out_time"), goqu.I("a.laps"),
		)

	var where []goqu.Expression
	if f.UserID != "" {
		where = append(where, goqu.I("r.user_id").Eq(f.UserID))
	}
	if !f.From.IsZero() {
		where = append(where, goqu.I("r.date").Gte(model.FormatDate(f.From)))
	}
	if !f.To.IsZero() {
		where = append(where, goqu.I("r.date").Lte(model.FormatDate(f.To)))
	}
	if f.AttendedOnly {
		where = append(where, goqu.I("a.id").IsNotNull())
	}
	if f.CompletedOnly {
		where = append(where, goqu.I("a.check_out_time").IsNotNull())
	}
	if len(where) > 0 {
		ds = ds.Where(where...)
	}
	return ds.Order(goqu.I("r.date").Asc(), goqu.I("r.hour").Asc(), goqu.I("a.check_out_time").Asc()).
		Prepared(true).ToSQL()
}

// Sessions loads joined sessions matching f ordered by date, hour and
// check-out time.
func (r *ReportRepo) Sessions(ctx context.Context, f stats.Filter) ([]stats.Session, error) {
	q, args, err := r.SessionsQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build sessions query: %w", err)
	}
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	out := make([]stats.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toSession())
	}
	return out, nil
}
