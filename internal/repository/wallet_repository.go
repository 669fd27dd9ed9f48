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
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrWalletExists      = errors.New("wallet already exists")
	ErrHoldNotFound      = errors.New("hold not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// WalletRepository owns the wallet, hold and ledger tables. Every balance
// mutation locks the wallet row and writes its ledger entry in the same
// transaction, so balance and transaction history cannot diverge.
type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Create inserts a wallet for the user. Fails when one already exists.
func (r *WalletRepository) Create(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.GetContext(ctx, &wallet, `
		INSERT INTO wallets (user_id, balance, currency)
		VALUES ($1, 0, $2)
		RETURNING id, user_id, balance, currency, created_at, updated_at
	`, userID, currency)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrWalletExists
		}
		return nil, fmt.Errorf("wallet repository: create %w", err)
	}
	return &wallet, nil
}

// GetByUser returns the user's wallet.
func (r *WalletRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.GetContext(ctx, &wallet, `SELECT * FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("wallet repository: get by user %w", err)
	}
	return &wallet, nil
}

// GetOrCreate returns the user's wallet, creating it lazily on first access.
func (r *WalletRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.GetContext(ctx, &wallet, `
		INSERT INTO wallets (user_id, balance, currency)
		VALUES ($1, 0, $2)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, user_id, balance, currency, created_at, updated_at
	`, userID, currency)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: get or create %w", err)
	}
	return &wallet, nil
}

// ListActiveHolds returns the wallet's unreleased holds.
func (r *WalletRepository) ListActiveHolds(ctx context.Context, walletID uuid.UUID) ([]models.WalletHold, error) {
	var holds []models.WalletHold
	err := r.db.SelectContext(ctx, &holds, `
		SELECT * FROM wallet_holds WHERE wallet_id = $1 AND released_at IS NULL ORDER BY created_at
	`, walletID)
	return holds, err
}

// Deposit credits the balance and records a succeeded credit entry.
func (r *WalletRepository) Deposit(ctx context.Context, userID uuid.UUID, amount float64, reason string) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	wallet, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance = balance + $2, updated_at = NOW() WHERE id = $1
	`, wallet.ID, amount); err != nil {
		return nil, fmt.Errorf("wallet repository: deposit update balance %w", err)
	}

	transaction, err := insertLedgerEntry(ctx, tx, wallet, userID, models.TransactionTypeCredit, amount, reason, nil)
	if err != nil {
		return nil, err
	}

	return transaction, tx.Commit()
}

// Withdraw debits the balance, rejecting overdrafts, and records a debit entry.
func (r *WalletRepository) Withdraw(ctx context.Context, userID uuid.UUID, amount float64, reason string) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	wallet, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance = balance - $2, updated_at = NOW() WHERE id = $1
	`, wallet.ID, amount); err != nil {
		return nil, fmt.Errorf("wallet repository: withdraw update balance %w", err)
	}

	transaction, err := insertLedgerEntry(ctx, tx, wallet, userID, models.TransactionTypeDebit, amount, reason, nil)
	if err != nil {
		return nil, err
	}

	return transaction, tx.Commit()
}

// Hold moves amount out of the balance into an active hold and records the
// debit. The held amount can later be refunded or converted to a payout.
func (r *WalletRepository) Hold(ctx context.Context, userID uuid.UUID, amount float64, reason string, relatedID *uuid.UUID) (*models.WalletHold, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	wallet, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance = balance - $2, updated_at = NOW() WHERE id = $1
	`, wallet.ID, amount); err != nil {
		return nil, fmt.Errorf("wallet repository: hold update balance %w", err)
	}

	var hold models.WalletHold
	if err := tx.GetContext(ctx, &hold, `
		INSERT INTO wallet_holds (wallet_id, amount, reason, related_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, wallet_id, amount, reason, related_id, created_at, released_at
	`, wallet.ID, amount, reason, relatedID); err != nil {
		return nil, fmt.Errorf("wallet repository: create hold %w", err)
	}

	if _, err := insertLedgerEntry(ctx, tx, wallet, userID, models.TransactionTypeDebit, amount, "escrow hold: "+reason, relatedID); err != nil {
		return nil, err
	}

	return &hold, tx.Commit()
}

// ReleaseHold closes the active hold matching relatedID. With refund true the
// amount returns to the balance with a credit entry; otherwise the hold is
// finalized as a payout and the money stays debited. Idempotent per hold.
func (r *WalletRepository) ReleaseHold(ctx context.Context, userID uuid.UUID, relatedID uuid.UUID, refund bool) (*models.WalletHold, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	wallet, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	var hold models.WalletHold
	err = tx.GetContext(ctx, &hold, `
		SELECT * FROM wallet_holds
		WHERE wallet_id = $1 AND related_id = $2 AND released_at IS NULL
		FOR UPDATE
	`, wallet.ID, relatedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("wallet repository: find hold %w", err)
	}

	if err := tx.GetContext(ctx, &hold, `
		UPDATE wallet_holds SET released_at = NOW() WHERE id = $1
		RETURNING id, wallet_id, amount, reason, related_id, created_at, released_at
	`, hold.ID); err != nil {
		return nil, fmt.Errorf("wallet repository: release hold %w", err)
	}

	if refund {
		if _, err := tx.ExecContext(ctx, `
			UPDATE wallets SET balance = balance + $2, updated_at = NOW() WHERE id = $1
		`, wallet.ID, hold.Amount); err != nil {
			return nil, fmt.Errorf("wallet repository: refund hold %w", err)
		}
		if _, err := insertLedgerEntry(ctx, tx, wallet, userID, models.TransactionTypeCredit, hold.Amount, "escrow release: "+hold.Reason, hold.RelatedID); err != nil {
			return nil, err
		}
	}

	return &hold, tx.Commit()
}

// ListTransactions returns the user's ledger entries, newest first.
func (r *WalletRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return transactions, err
}

// lockWallet fetches the wallet row FOR UPDATE inside tx.
func lockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.GetContext(ctx, &wallet, `SELECT * FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("wallet repository: lock wallet %w", err)
	}
	return &wallet, nil
}

// insertLedgerEntry records a succeeded wallet-provider transaction inside tx.
func insertLedgerEntry(ctx context.Context, tx *sqlx.Tx, wallet *models.Wallet, userID uuid.UUID, txType string, amount float64, reason string, relatedID *uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := tx.GetContext(ctx, &transaction, `
		INSERT INTO transactions (wallet_id, user_id, type, amount, currency, status, provider, reason, related_contract_id, completed_at)
		VALUES ($1, $2, $3, $4, $5, 'succeeded', 'wallet', $6, $7, NOW())
		RETURNING *
	`, wallet.ID, userID, txType, amount, wallet.Currency, reason, relatedID)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: insert ledger entry %w", err)
	}
	return &transaction, nil
}
