package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/logger"
	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
	"github.com/gigscape/backend/internal/repository"
	"github.com/gigscape/backend/internal/validation"
)

// VerificationRepository is the token storage surface.
type VerificationRepository interface {
	Create(ctx context.Context, userID uuid.UUID, tokenType, token string, expiresAt time.Time) (*models.VerificationToken, error)
	Consume(ctx context.Context, token, tokenType string) (*models.VerificationToken, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// VerificationUserRepository is the slice of the user repository the
// verification flows touch.
type VerificationUserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetEmailVerified(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// VerificationService issues and consumes single-use tokens for email
// verification and password reset.
type VerificationService struct {
	repo             VerificationRepository
	users            VerificationUserRepository
	verificationTTL  time.Duration
	passwordResetTTL time.Duration
}

func NewVerificationService(repo VerificationRepository, users VerificationUserRepository, verificationTTL, passwordResetTTL time.Duration) *VerificationService {
	return &VerificationService{
		repo:             repo,
		users:            users,
		verificationTTL:  verificationTTL,
		passwordResetTTL: passwordResetTTL,
	}
}

// RequestEmailVerification issues a verification token for a new account.
func (s *VerificationService) RequestEmailVerification(ctx context.Context, user *models.User) error {
	token, err := generateToken()
	if err != nil {
		return err
	}
	_, err = s.repo.Create(ctx, user.ID, models.VerificationTypeEmail, token, time.Now().Add(s.verificationTTL))
	if err != nil {
		return err
	}
	// TODO: deliver the token by email once an SMTP relay is configured.
	logger.Log.WithField("user_id", user.ID).Info("verification service: email verification token issued")
	return nil
}

// VerifyEmail consumes a verification token and flags the account verified.
func (s *VerificationService) VerifyEmail(ctx context.Context, token string) error {
	vt, err := s.repo.Consume(ctx, token, models.VerificationTypeEmail)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) || errors.Is(err, repository.ErrTokenInvalid) {
			return apperror.New(apperror.ErrCodeBadRequest, "verification token is invalid or expired")
		}
		return err
	}
	return s.users.SetEmailVerified(ctx, vt.UserID)
}

// RequestPasswordReset issues a reset token for the given email. Unknown
// addresses are not reported to the caller.
func (s *VerificationService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Do not reveal whether the address is registered.
			return nil
		}
		return err
	}

	token, err := generateToken()
	if err != nil {
		return err
	}
	_, err = s.repo.Create(ctx, user.ID, models.VerificationTypePasswordReset, token, time.Now().Add(s.passwordResetTTL))
	if err != nil {
		return err
	}
	logger.Log.WithField("user_id", user.ID).Info("verification service: password reset token issued")
	return nil
}

// ResetPassword consumes a reset token and stores the new password hash.
func (s *VerificationService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	vt, err := s.repo.Consume(ctx, token, models.VerificationTypePasswordReset)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) || errors.Is(err, repository.ErrTokenInvalid) {
			return apperror.New(apperror.ErrCodeBadRequest, "reset token is invalid or expired")
		}
		return err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("verification service: hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, vt.UserID, string(passHash))
}

// SweepExpired removes expired tokens. Meant for a periodic background run.
func (s *VerificationService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("verification service: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
