package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gigscape/backend/internal/models"
)

var (
	ErrTokenNotFound = errors.New("verification token not found")
	// ErrTokenInvalid is returned when a token exists but is used or expired.
	ErrTokenInvalid = errors.New("verification token is used or expired")
)

type VerificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Create stores a new token.
func (r *VerificationRepository) Create(ctx context.Context, userID uuid.UUID, tokenType, token string, expiresAt time.Time) (*models.VerificationToken, error) {
	var vt models.VerificationToken
	err := r.db.GetContext(ctx, &vt, `
		INSERT INTO verification_tokens (user_id, token, type, expires_at, used)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING *
	`, userID, token, tokenType, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("verification repository: create %w", err)
	}
	return &vt, nil
}

// Consume atomically marks a valid token as used. A used or expired token
// affects no row and is reported invalid.
func (r *VerificationRepository) Consume(ctx context.Context, token, tokenType string) (*models.VerificationToken, error) {
	var vt models.VerificationToken
	err := r.db.GetContext(ctx, &vt, `
		UPDATE verification_tokens SET used = TRUE
		WHERE token = $1 AND type = $2 AND used = FALSE AND expires_at > NOW()
		RETURNING *
	`, token, tokenType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish unknown tokens from stale ones.
			var exists bool
			if checkErr := r.db.GetContext(ctx, &exists, `
				SELECT EXISTS (SELECT 1 FROM verification_tokens WHERE token = $1 AND type = $2)
			`, token, tokenType); checkErr == nil && exists {
				return nil, ErrTokenInvalid
			}
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("verification repository: consume %w", err)
	}
	return &vt, nil
}

// DeleteExpired sweeps tokens past their expiry. Returns the number removed.
func (r *VerificationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verification_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("verification repository: delete expired %w", err)
	}
	return res.RowsAffected()
}
