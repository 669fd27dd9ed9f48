package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
	"github.com/gigscape/backend/internal/repository"
	"github.com/gigscape/backend/internal/validation"
)

// WalletRepository is the storage surface WalletService depends on.
type WalletRepository interface {
	Create(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	GetOrCreate(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error)
	ListActiveHolds(ctx context.Context, walletID uuid.UUID) ([]models.WalletHold, error)
	Deposit(ctx context.Context, userID uuid.UUID, amount float64, reason string) (*models.Transaction, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amount float64, reason string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error)
}

// WalletService exposes wallet reads and direct balance operations. Escrow
// holds flow through the contract service instead.
type WalletService struct {
	repo            WalletRepository
	defaultCurrency string
}

func NewWalletService(repo WalletRepository, defaultCurrency string) *WalletService {
	return &WalletService{repo: repo, defaultCurrency: defaultCurrency}
}

// Create opens a wallet explicitly. Conflict when one already exists.
func (s *WalletService) Create(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	if currency == "" {
		currency = s.defaultCurrency
	}
	if err := validation.ValidateCurrency(currency); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	wallet, err := s.repo.Create(ctx, userID, currency)
	if err != nil {
		if errors.Is(err, repository.ErrWalletExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "wallet already exists")
		}
		return nil, err
	}
	return wallet, nil
}

// Get returns the user's wallet with its active holds, creating the wallet
// on first access.
func (s *WalletService) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.repo.GetOrCreate(ctx, userID, s.defaultCurrency)
	if err != nil {
		return nil, err
	}

	holds, err := s.repo.ListActiveHolds(ctx, wallet.ID)
	if err != nil {
		return nil, err
	}
	wallet.Holds = holds

	return wallet, nil
}

// Deposit credits the wallet directly. Card deposits go through the payment
// intent flow instead.
func (s *WalletService) Deposit(ctx context.Context, userID uuid.UUID, amount float64, reason string) (*models.Transaction, error) {
	if err := validation.ValidateAmount("amount", amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if reason == "" {
		reason = "wallet deposit"
	}

	if _, err := s.repo.GetOrCreate(ctx, userID, s.defaultCurrency); err != nil {
		return nil, err
	}

	return s.repo.Deposit(ctx, userID, amount, reason)
}

// Withdraw debits the wallet, rejecting overdrafts.
func (s *WalletService) Withdraw(ctx context.Context, userID uuid.UUID, amount float64, reason string) (*models.Transaction, error) {
	if err := validation.ValidateAmount("amount", amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if reason == "" {
		reason = "wallet withdrawal"
	}

	transaction, err := s.repo.Withdraw(ctx, userID, amount, reason)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, apperror.ErrInsufficientFunds
		}
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, apperror.ErrWalletNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// ListTransactions returns the user's ledger, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}
