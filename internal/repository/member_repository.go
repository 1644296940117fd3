package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/model"
	"github.com/iliyamo/pool-reservation/internal/utils"
)

// MemberRepo reads and registers members. The category column holds the
// role label.
type MemberRepo struct{ db *sqlx.DB }

// NewMemberRepo returns a new MemberRepo bound to the given database.
func NewMemberRepo(db *sqlx.DB) *MemberRepo { return &MemberRepo{db: db} }

type memberRow struct {
	ID              string         `db:"id"`
	Username        string         `db:"username"`
	FullName        string         `db:"full_name"`
	PasswordHash    string         `db:"password_hash"`
	Category        string         `db:"category"`
	Email           sql.NullString `db:"email"`
	Phone           sql.NullString `db:"phone"`
	Status          sql.NullString `db:"status"`
	LastPaymentDate sql.NullTime   `db:"last_payment_date"`
	CreatedAt       time.Time      `db:"created_at"`
}

const memberColumns = `id, username, full_name, password_hash, category, email, phone, status, last_payment_date, created_at`

func (row memberRow) toModel() model.Member {
	m := model.Member{
		ID:           row.ID,
		Username:     row.Username,
		FullName:     row.FullName,
		PasswordHash: row.PasswordHash,
		Role:         model.RoleFromLabel(row.Category),
		Email:        row.Email.String,
		Phone:        row.Phone.String,
		Status:       row.Status.String,
		CreatedAt:    row.CreatedAt,
	}
	if row.LastPaymentDate.Valid {
		t := row.LastPaymentDate.Time
		m.LastPaymentDate = &t
	}
	return m
}

// NewMember carries registration input.
type NewMember struct {
	Username string
	FullName string
	Password string
	Role     model.Role
	Email    string
	Phone    string
	Status   string
}

// ErrUsernameExists is returned when the username is taken.
var ErrUsernameExists = fmt.Errorf("username already exists: %w", apperr.ErrDuplicate)

// Create hashes the password and inserts the member, returning its ID.
func (r *MemberRepo) Create(ctx context.Context, in NewMember, cost int) (string, error) {
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO members (id, username, full_name, password_hash, category, email, phone, status)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, strings.ToLower(strings.TrimSpace(in.Username)), in.FullName, hash, in.Role.Label(),
		nullable(in.Email), nullable(normalizePhone(in.Phone)), nullable(in.Status))
	if err != nil {
		if isDuplicate(err) {
			return "", ErrUsernameExists
		}
		return "", fmt.Errorf("insert member: %w", err)
	}
	return id, nil
}

// List returns every member ordered by name.
func (r *MemberRepo) List(ctx context.Context) ([]model.Member, error) {
	var rows []memberRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+memberColumns+` FROM members ORDER BY full_name`); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]model.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

// GetByID fetches a member by id.
func (r *MemberRepo) GetByID(ctx context.Context, id string) (model.Member, error) {
	return r.getBy(ctx, "id", id)
}

// GetByUsername fetches a member by normalized username.
func (r *MemberRepo) GetByUsername(ctx context.Context, username string) (model.Member, error) {
	return r.getBy(ctx, "username", strings.ToLower(strings.TrimSpace(username)))
}

// GetByPhone fetches a member by phone number, ignoring formatting.
func (r *MemberRepo) GetByPhone(ctx context.Context, phone string) (model.Member, error) {
	return r.getBy(ctx, "phone", normalizePhone(phone))
}

func (r *MemberRepo) getBy(ctx context.Context, column, value string) (model.Member, error) {
	var row memberRow
	q := `SELECT ` + memberColumns + ` FROM members WHERE ` + column + ` = ? LIMIT 1`
	if err := r.db.GetContext(ctx, &row, q, value); err != nil {
		return model.Member{}, notFound(err)
	}
	return row.toModel(), nil
}

func normalizePhone(p string) string {
	var b strings.Builder
	for _, c := range p {
		if (c >= '0' && c <= '9') || (c == '+' && b.Len() == 0) {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
