package model

import "time"

// Member represents a row of the `members` table: a person allowed to book
// the pool. The record is owned by the membership office; the engine only
// reads it to resolve names, roles and contact details.
//
// Fields:
//  ID              – opaque identifier (UUID).
//  Username        – login name.
//  FullName        – display name copied into reservations.
//  PasswordHash    – bcrypt hash.
//  Role            – canonical role (stored as a category label).
//  Email, Phone    – contact details; Phone doubles as lookup key.
//  Status          – membership status text, display-only.
//  LastPaymentDate – last recorded payment, display-only.
type Member struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	FullName        string     `json:"name"`
	PasswordHash    string     `json:"-"`
	Role            Role       `json:"role"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Status          string     `json:"status,omitempty"`
	LastPaymentDate *time.Time `json:"last_payment_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Contact returns the preferred notification address: phone first, then
// email. Empty when neither is on file.
func (m Member) Contact() string {
	if m.Phone != "" {
		return m.Phone
	}
	return m.Email
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the token value is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	MemberID  string     // refresh_tokens.member_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
