package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/logger"
	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/payments"
	"github.com/gigscape/backend/internal/pkg/apperror"
	"github.com/gigscape/backend/internal/repository"
	"github.com/gigscape/backend/internal/validation"
)

// TransactionRepository is the storage surface TransactionService depends on.
type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (*models.Transaction, error)
	ConfirmCredit(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	Refund(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error)
	Stats(ctx context.Context) ([]models.TransactionStats, error)
}

// TransactionWalletRepository resolves wallets for new intents.
type TransactionWalletRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error)
}

// PaymentProvider is the slice of the Stripe client the service uses.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency, idempotencyKey string, metadata map[string]string) (*payments.Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*payments.Intent, error)
	CreateRefund(ctx context.Context, intentID, idempotencyKey string) (*payments.Refund, error)
}

// TransactionService drives provider-backed payment intents through the
// transaction state machine. Wallet credits only land once the provider
// confirms.
type TransactionService struct {
	repo            TransactionRepository
	wallets         TransactionWalletRepository
	provider        PaymentProvider
	notifier        Notifier
	defaultCurrency string
}

// DepositIntent pairs the pending transaction with the provider's client
// secret for the frontend checkout.
type DepositIntent struct {
	Transaction  *models.Transaction `json:"transaction"`
	ClientSecret string              `json:"client_secret,omitempty"`
}

func NewTransactionService(
	repo TransactionRepository,
	wallets TransactionWalletRepository,
	provider PaymentProvider,
	notifier Notifier,
	defaultCurrency string,
) *TransactionService {
	return &TransactionService{
		repo:            repo,
		wallets:         wallets,
		provider:        provider,
		notifier:        notifier,
		defaultCurrency: defaultCurrency,
	}
}

// CreateDeposit opens a pending card deposit through the payment provider.
func (s *TransactionService) CreateDeposit(ctx context.Context, userID uuid.UUID, amount float64, currency string) (*DepositIntent, error) {
	if s.provider == nil {
		return nil, apperror.New(apperror.ErrCodeProvider, "card payments are not configured")
	}
	if err := validation.ValidateAmount("amount", amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if currency == "" {
		currency = s.defaultCurrency
	}
	if err := validation.ValidateCurrency(currency); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	wallet, err := s.wallets.GetOrCreate(ctx, userID, currency)
	if err != nil {
		return nil, err
	}

	idempotencyKey := uuid.NewString()
	intent, err := s.provider.CreateIntent(ctx, toMinorUnits(amount), currency, idempotencyKey, map[string]string{
		"user_id": userID.String(),
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeProvider, "payment provider rejected the intent")
	}

	transaction := &models.Transaction{
		WalletID:          wallet.ID,
		UserID:            userID,
		Type:              models.TransactionTypeCredit,
		Amount:            amount,
		Currency:          currency,
		Status:            models.TransactionStatusPending,
		Provider:          models.ProviderStripe,
		ProviderPaymentID: &intent.ID,
		Reason:            "card deposit",
	}

	if err := s.repo.Create(ctx, transaction); err != nil {
		return nil, err
	}

	return &DepositIntent{Transaction: transaction, ClientSecret: intent.ClientSecret}, nil
}

// ManualTransactionInput describes an admin-entered ledger correction.
type ManualTransactionInput struct {
	UserID   uuid.UUID
	Type     string
	Amount   float64
	Currency string
	Reason   string
}

// CreateManual records a bank or offline payment without touching a provider.
// The transaction starts pending and follows the same state machine as card
// deposits.
func (s *TransactionService) CreateManual(ctx context.Context, in ManualTransactionInput) (*models.Transaction, error) {
	if in.Type != models.TransactionTypeCredit && in.Type != models.TransactionTypeDebit {
		return nil, apperror.New(apperror.ErrCodeValidation, "type must be credit or debit")
	}
	if err := validation.ValidateAmount("amount", in.Amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.Reason == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "reason is required")
	}
	currency := in.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	if err := validation.ValidateCurrency(currency); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	wallet, err := s.wallets.GetOrCreate(ctx, in.UserID, currency)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		WalletID: wallet.ID,
		UserID:   in.UserID,
		Type:     in.Type,
		Amount:   in.Amount,
		Currency: currency,
		Status:   models.TransactionStatusPending,
		Provider: models.ProviderBank,
		Reason:   in.Reason,
	}

	if err := s.repo.Create(ctx, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

// AdminUpdateStatus moves a transaction along the state machine without an
// ownership check. Succeeding a pending credit commits it to the wallet.
func (s *TransactionService) AdminUpdateStatus(ctx context.Context, transactionID uuid.UUID, to string) (*models.Transaction, error) {
	transaction, err := s.repo.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, apperror.ErrTransactionNotFound
		}
		return nil, err
	}
	if !models.CanTransition(models.TransactionTransitions, transaction.Status, to) {
		return nil, apperror.New(apperror.ErrCodeConflict,
			fmt.Sprintf("transaction cannot move from %s to %s", transaction.Status, to))
	}

	switch to {
	case models.TransactionStatusSucceeded:
		if transaction.Type == models.TransactionTypeCredit {
			return s.repo.ConfirmCredit(ctx, transactionID)
		}
		return s.repo.UpdateStatus(ctx, transactionID, transaction.Status, to)
	case models.TransactionStatusFailed:
		return s.markFailed(ctx, transactionID)
	case models.TransactionStatusRefunded:
		return s.repo.Refund(ctx, transactionID)
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "unknown target status")
	}
}

// Confirm checks the provider's verdict on a pending deposit and commits it
// to the wallet. Failed intents move the transaction to failed.
func (s *TransactionService) Confirm(ctx context.Context, userID, transactionID uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.own(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.Status != models.TransactionStatusPending {
		return nil, apperror.New(apperror.ErrCodeConflict,
			fmt.Sprintf("transaction is %s, not pending", transaction.Status))
	}
	if transaction.Provider != models.ProviderStripe || transaction.ProviderPaymentID == nil {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "transaction has no provider intent to confirm")
	}
	if s.provider == nil {
		return nil, apperror.New(apperror.ErrCodeProvider, "card payments are not configured")
	}

	intent, err := s.provider.RetrieveIntent(ctx, *transaction.ProviderPaymentID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeProvider, "failed to check the payment intent")
	}

	switch intent.Status {
	case "succeeded":
		confirmed, err := s.repo.ConfirmCredit(ctx, transactionID)
		if err != nil {
			if errors.Is(err, repository.ErrInvalidTransition) {
				// Lost a race with another confirm; report the current row.
				return s.repo.GetByID(ctx, transactionID)
			}
			return nil, err
		}
		s.notify(userID, "wallet.credited", confirmed)
		return confirmed, nil
	case "canceled":
		return s.markFailed(ctx, transactionID)
	default:
		return nil, apperror.New(apperror.ErrCodeConflict,
			fmt.Sprintf("payment intent is still %s", intent.Status))
	}
}

// Refund reverses a succeeded card deposit. Provider refund first, then the
// compensating wallet debit.
func (s *TransactionService) Refund(ctx context.Context, userID, transactionID uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.own(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(models.TransactionTransitions, transaction.Status, models.TransactionStatusRefunded) {
		return nil, apperror.New(apperror.ErrCodeConflict,
			fmt.Sprintf("transaction cannot move from %s to refunded", transaction.Status))
	}
	if transaction.Type != models.TransactionTypeCredit {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "only credits can be refunded")
	}

	if transaction.Provider == models.ProviderStripe && transaction.ProviderPaymentID != nil {
		if s.provider == nil {
			return nil, apperror.New(apperror.ErrCodeProvider, "card payments are not configured")
		}
		if _, err := s.provider.CreateRefund(ctx, *transaction.ProviderPaymentID, uuid.NewString()); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeProvider, "payment provider rejected the refund")
		}
	}

	refunded, err := s.repo.Refund(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, apperror.New(apperror.ErrCodeConflict, "wallet balance is too low to absorb the refund")
		}
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, apperror.New(apperror.ErrCodeConflict, "transaction is no longer refundable")
		}
		return nil, err
	}

	s.notify(userID, "wallet.refunded", refunded)

	logger.Log.WithFields(map[string]interface{}{
		"transaction_id": transactionID,
		"amount":         refunded.Amount,
	}).Info("transaction service: deposit refunded")

	return refunded, nil
}

// MarkFailed moves a pending transaction to failed. Used when the provider
// reports an abandoned or declined intent.
func (s *TransactionService) MarkFailed(ctx context.Context, userID, transactionID uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.own(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(models.TransactionTransitions, transaction.Status, models.TransactionStatusFailed) {
		return nil, apperror.New(apperror.ErrCodeConflict,
			fmt.Sprintf("transaction cannot move from %s to failed", transaction.Status))
	}
	return s.markFailed(ctx, transactionID)
}

// Get returns a transaction, owner only.
func (s *TransactionService) Get(ctx context.Context, userID, transactionID uuid.UUID) (*models.Transaction, error) {
	return s.own(ctx, userID, transactionID)
}

// List returns the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Stats aggregates transactions for the admin dashboard.
func (s *TransactionService) Stats(ctx context.Context) ([]models.TransactionStats, error) {
	return s.repo.Stats(ctx)
}

func (s *TransactionService) markFailed(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	failed, err := s.repo.UpdateStatus(ctx, transactionID, models.TransactionStatusPending, models.TransactionStatusFailed)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, apperror.New(apperror.ErrCodeConflict, "transaction is no longer pending")
		}
		return nil, err
	}
	return failed, nil
}

func (s *TransactionService) own(ctx context.Context, userID, transactionID uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.repo.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, apperror.ErrTransactionNotFound
		}
		return nil, err
	}
	if transaction.UserID != userID {
		return nil, apperror.ErrForbidden
	}
	return transaction, nil
}

func (s *TransactionService) notify(userID uuid.UUID, event string, data any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BroadcastToUser(userID, event, data); err != nil {
		logger.Log.WithError(err).Warn("transaction service: notify failed")
	}
}

// toMinorUnits converts a major-unit amount to the provider's smallest unit.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
