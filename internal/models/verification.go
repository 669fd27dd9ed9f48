package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	VerificationTypeEmail         = "email_verification"
	VerificationTypePasswordReset = "password_reset"
)

// VerificationToken is a single-use token for email verification or
// password reset. Valid only while unused and not expired. Expired tokens
// are retained and swept separately.
type VerificationToken struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Token     string    `db:"token" json:"-"`
	Type      string    `db:"type" json:"type"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Used      bool      `db:"used" json:"used"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Valid reports whether the token can still be consumed at now.
func (t *VerificationToken) Valid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
