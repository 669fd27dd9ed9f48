package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gigscape/backend/internal/models"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidTransition is returned when a status update loses the race
	// against the transaction state machine guard.
	ErrInvalidTransition = errors.New("invalid transaction status transition")
)

// TransactionRepository manages the payment-intent side of the ledger:
// provider-backed transactions that commit to a wallet only once confirmed.
type TransactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a pending transaction. No balance effect.
func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	err := r.db.GetContext(ctx, t, `
		INSERT INTO transactions (wallet_id, user_id, type, amount, currency, status, provider,
			provider_payment_id, reason, related_contract_id, related_milestone_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING *
	`, t.WalletID, t.UserID, t.Type, t.Amount, t.Currency, t.Status, t.Provider,
		t.ProviderPaymentID, t.Reason, t.RelatedContractID, t.RelatedMilestoneID)
	if err != nil {
		return fmt.Errorf("transaction repository: create %w", err)
	}
	return nil
}

// GetByID returns a transaction by id.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.GetContext(ctx, &t, `SELECT * FROM transactions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("transaction repository: get by id %w", err)
	}
	return &t, nil
}

// GetByProviderPaymentID returns a transaction by its provider intent id.
func (r *TransactionRepository) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.GetContext(ctx, &t, `SELECT * FROM transactions WHERE provider_payment_id = $1`, providerPaymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("transaction repository: get by provider payment id %w", err)
	}
	return &t, nil
}

// UpdateStatus moves the transaction from one status to another. The WHERE
// guard keeps concurrent updates from skipping states.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.GetContext(ctx, &t, `
		UPDATE transactions SET status = $3,
			completed_at = CASE WHEN $3 IN ('succeeded', 'failed', 'refunded') THEN NOW() ELSE completed_at END
		WHERE id = $1 AND status = $2
		RETURNING *
	`, id, from, to)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("transaction repository: update status %w", err)
	}
	return &t, nil
}

// ConfirmCredit marks a pending credit succeeded and commits the wallet
// credit in the same transaction.
func (r *TransactionRepository) ConfirmCredit(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var t models.Transaction
	err = tx.GetContext(ctx, &t, `
		UPDATE transactions SET status = 'succeeded', completed_at = NOW()
		WHERE id = $1 AND status = 'pending' AND type = 'credit'
		RETURNING *
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("transaction repository: confirm credit %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance = balance + $2, updated_at = NOW() WHERE id = $1
	`, t.WalletID, t.Amount); err != nil {
		return nil, fmt.Errorf("transaction repository: commit wallet credit %w", err)
	}

	return &t, tx.Commit()
}

// Refund moves a succeeded credit to refunded and debits the wallet by the
// same amount. The compensating debit must not push the balance negative.
func (r *TransactionRepository) Refund(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var t models.Transaction
	err = tx.GetContext(ctx, &t, `
		UPDATE transactions SET status = 'refunded', completed_at = NOW()
		WHERE id = $1 AND status = 'succeeded'
		RETURNING *
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("transaction repository: refund %w", err)
	}

	if t.Type == models.TransactionTypeCredit {
		var balance float64
		if err := tx.GetContext(ctx, &balance, `
			SELECT balance FROM wallets WHERE id = $1 FOR UPDATE
		`, t.WalletID); err != nil {
			return nil, fmt.Errorf("transaction repository: lock wallet for refund %w", err)
		}
		if balance < t.Amount {
			return nil, ErrInsufficientFunds
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE wallets SET balance = balance - $2, updated_at = NOW() WHERE id = $1
		`, t.WalletID, t.Amount); err != nil {
			return nil, fmt.Errorf("transaction repository: compensate refund %w", err)
		}
	}

	return &t, tx.Commit()
}

// ListByUser returns a user's transactions, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return transactions, err
}

// Stats aggregates transactions by status and type for the admin dashboard.
func (r *TransactionRepository) Stats(ctx context.Context) ([]models.TransactionStats, error) {
	var stats []models.TransactionStats
	err := r.db.SelectContext(ctx, &stats, `
		SELECT status, type, COUNT(*) as count, COALESCE(SUM(amount), 0) as total_amount
		FROM transactions GROUP BY status, type
	`)
	return stats, err
}
