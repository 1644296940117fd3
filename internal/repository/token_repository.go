package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pool-reservation/internal/apperr"
)

// TokenRepo persists and validates refresh tokens by hash.
type TokenRepo struct{ db *sqlx.DB }

// NewTokenRepo returns a new TokenRepo bound to the given database.
func NewTokenRepo(db *sqlx.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, memberID, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (member_id, token_hash, expires_at) VALUES (?,?,?)",
		memberID, tokenHash, exp)
	return err
}

// ValidateRefresh returns the member ID if a non-revoked token with that
// hash exists and has not expired at now.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var row struct {
		MemberID  string     `db:"member_id"`
		ExpiresAt time.Time  `db:"expires_at"`
		RevokedAt *time.Time `db:"revoked_at"`
	}
	err := r.db.GetContext(ctx, &row,
		"SELECT member_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash)
	if err != nil {
		return "", notFound(err)
	}
	if row.RevokedAt != nil || now.After(row.ExpiresAt) {
		return "", apperr.ErrNoRecord
	}
	return row.MemberID, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForMember revokes every active token of a member.
func (r *TokenRepo) RevokeAllForMember(ctx context.Context, memberID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE member_id=? AND revoked_at IS NULL",
		memberID)
	return err
}
