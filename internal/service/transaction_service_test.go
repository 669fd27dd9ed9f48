package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/payments"
	"github.com/gigscape/backend/internal/pkg/apperror"
)

type mockTransactionRepo struct {
	mock.Mock
}

func (m *mockTransactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	args := m.Called(ctx, t)
	if args.Error(0) == nil {
		t.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Transaction, error) {
	args := m.Called(ctx, providerPaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (*models.Transaction, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) ConfirmCredit(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) Refund(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) Stats(ctx context.Context) ([]models.TransactionStats, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.TransactionStats), args.Error(1)
}

type mockWalletResolver struct {
	mock.Mock
}

func (m *mockWalletResolver) GetOrCreate(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

type mockPaymentProvider struct {
	mock.Mock
}

func (m *mockPaymentProvider) CreateIntent(ctx context.Context, amountMinor int64, currency, idempotencyKey string, metadata map[string]string) (*payments.Intent, error) {
	args := m.Called(ctx, amountMinor, currency, idempotencyKey, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Intent), args.Error(1)
}

func (m *mockPaymentProvider) RetrieveIntent(ctx context.Context, intentID string) (*payments.Intent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Intent), args.Error(1)
}

func (m *mockPaymentProvider) CreateRefund(ctx context.Context, intentID, idempotencyKey string) (*payments.Refund, error) {
	args := m.Called(ctx, intentID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Refund), args.Error(1)
}

func pendingCardDeposit(userID uuid.UUID) *models.Transaction {
	intentID := "pi_test_123"
	return &models.Transaction{
		ID:                uuid.New(),
		WalletID:          uuid.New(),
		UserID:            userID,
		Type:              models.TransactionTypeCredit,
		Amount:            250,
		Currency:          "inr",
		Status:            models.TransactionStatusPending,
		Provider:          models.ProviderStripe,
		ProviderPaymentID: &intentID,
		Reason:            "card deposit",
	}
}

func TestTransactionService_CreateDeposit_Success(t *testing.T) {
	repo := new(mockTransactionRepo)
	wallets := new(mockWalletResolver)
	provider := new(mockPaymentProvider)
	svc := NewTransactionService(repo, wallets, provider, nil, "inr")
	ctx := context.Background()

	userID := uuid.New()
	wallets.On("GetOrCreate", ctx, userID, "inr").
		Return(&models.Wallet{ID: uuid.New(), UserID: userID, Currency: "inr"}, nil)
	provider.On("CreateIntent", ctx, int64(25000), "inr", mock.Anything, mock.Anything).
		Return(&payments.Intent{ID: "pi_1", Status: "requires_payment_method", ClientSecret: "pi_1_secret"}, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)

	intent, err := svc.CreateDeposit(ctx, userID, 250, "")
	assert.NoError(t, err)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, models.TransactionStatusPending, intent.Transaction.Status)
	assert.Equal(t, "pi_1", *intent.Transaction.ProviderPaymentID)
}

func TestTransactionService_CreateDeposit_NoProvider(t *testing.T) {
	svc := NewTransactionService(new(mockTransactionRepo), new(mockWalletResolver), nil, nil, "inr")

	_, err := svc.CreateDeposit(context.Background(), uuid.New(), 100, "inr")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestTransactionService_CreateDeposit_InvalidAmount(t *testing.T) {
	svc := NewTransactionService(new(mockTransactionRepo), new(mockWalletResolver), new(mockPaymentProvider), nil, "inr")

	for _, amount := range []float64{0, -10} {
		_, err := svc.CreateDeposit(context.Background(), uuid.New(), amount, "inr")
		assert.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	}
}

func TestTransactionService_Confirm_Succeeded(t *testing.T) {
	repo := new(mockTransactionRepo)
	provider := new(mockPaymentProvider)
	svc := NewTransactionService(repo, new(mockWalletResolver), provider, nil, "inr")
	ctx := context.Background()

	userID := uuid.New()
	transaction := pendingCardDeposit(userID)
	confirmed := *transaction
	confirmed.Status = models.TransactionStatusSucceeded

	repo.On("GetByID", ctx, transaction.ID).Return(transaction, nil)
	provider.On("RetrieveIntent", ctx, *transaction.ProviderPaymentID).
		Return(&payments.Intent{ID: *transaction.ProviderPaymentID, Status: "succeeded"}, nil)
	repo.On("ConfirmCredit", ctx, transaction.ID).Return(&confirmed, nil)

	got, err := svc.Confirm(ctx, userID, transaction.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSucceeded, got.Status)
}

func TestTransactionService_Confirm_CanceledIntentFails(t *testing.T) {
	repo := new(mockTransactionRepo)
	provider := new(mockPaymentProvider)
	svc := NewTransactionService(repo, new(mockWalletResolver), provider, nil, "inr")
	ctx := context.Background()

	userID := uuid.New()
	transaction := pendingCardDeposit(userID)
	failed := *transaction
	failed.Status = models.TransactionStatusFailed

	repo.On("GetByID", ctx, transaction.ID).Return(transaction, nil)
	provider.On("RetrieveIntent", ctx, *transaction.ProviderPaymentID).
		Return(&payments.Intent{ID: *transaction.ProviderPaymentID, Status: "canceled"}, nil)
	repo.On("UpdateStatus", ctx, transaction.ID, models.TransactionStatusPending, models.TransactionStatusFailed).
		Return(&failed, nil)

	got, err := svc.Confirm(ctx, userID, transaction.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, got.Status)
	repo.AssertNotCalled(t, "ConfirmCredit", mock.Anything, mock.Anything)
}

func TestTransactionService_Confirm_AlreadySucceeded(t *testing.T) {
	repo := new(mockTransactionRepo)
	svc := NewTransactionService(repo, new(mockWalletResolver), new(mockPaymentProvider), nil, "inr")
	ctx := context.Background()

	userID := uuid.New()
	transaction := pendingCardDeposit(userID)
	transaction.Status = models.TransactionStatusSucceeded
	repo.On("GetByID", ctx, transaction.ID).Return(transaction, nil)

	_, err := svc.Confirm(ctx, userID, transaction.ID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not pending")
}

func TestTransactionService_Confirm_NotOwner(t *testing.T) {
	repo := new(mockTransactionRepo)
	svc := NewTransactionService(repo, new(mockWalletResolver), new(mockPaymentProvider), nil, "inr")
	ctx := context.Background()

	transaction := pendingCardDeposit(uuid.New())
	repo.On("GetByID", ctx, transaction.ID).Return(transaction, nil)

	_, err := svc.Confirm(ctx, uuid.New(), transaction.ID)
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestTransactionService_Refund_OfPendingRejected(t *testing.T) {
	repo := new(mockTransactionRepo)
	provider := new(mockPaymentProvider)
	svc := NewTransactionService(repo, new(mockWalletResolver), provider, nil, "inr")
	ctx := context.Background()

	userID := uuid.New()
	transaction := pendingCardDeposit(userID)
	repo.On("GetByID", ctx, transaction.ID).Return(transaction, nil)

	_, err := svc.Refund(ctx, userID, transaction.ID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot move from pending")
	provider.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransactionService_Refund_OfFailedRejected(t *testing.T) {
	repo := new(mockTransactionRepo)
	svc := NewTransactionService(repo, new(mockWalletResolver), new(mockPaymentProvider), nil, "inr")
	ctx := context.Background()

	userID := uuid.New()
	transaction := pendingCardDeposit(userID)
	transaction.Status = models.TransactionStatusFailed
	repo.On("GetByID", ctx, transaction.ID).Return(transaction, nil)

	_, err := svc.Refund(ctx, userID, transaction.ID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot move from failed")
}

func TestTransactionService_Refund_Succeeded(t *testing.T) {
	repo := new(mockTransactionRepo)
	provider := new(mockPaymentProvider)
	svc := NewTransactionService(repo, new(mockWalletResolver), provider, nil, "inr")
	ctx := context.Background()

	userID := uuid.New()
	transaction := pendingCardDeposit(userID)
	transaction.Status = models.TransactionStatusSucceeded
	refunded := *transaction
	refunded.Status = models.TransactionStatusRefunded

	repo.On("GetByID", ctx, transaction.ID).Return(transaction, nil)
	provider.On("CreateRefund", ctx, *transaction.ProviderPaymentID, mock.Anything).
		Return(&payments.Refund{ID: "re_1", Status: "succeeded"}, nil)
	repo.On("Refund", ctx, transaction.ID).Return(&refunded, nil)

	got, err := svc.Refund(ctx, userID, transaction.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRefunded, got.Status)
	provider.AssertCalled(t, "CreateRefund", ctx, *transaction.ProviderPaymentID, mock.Anything)
}

func TestTransactionService_MarkFailed_FromSucceededRejected(t *testing.T) {
	repo := new(mockTransactionRepo)
	svc := NewTransactionService(repo, new(mockWalletResolver), new(mockPaymentProvider), nil, "inr")
	ctx := context.Background()

	userID := uuid.New()
	transaction := pendingCardDeposit(userID)
	transaction.Status = models.TransactionStatusSucceeded
	repo.On("GetByID", ctx, transaction.ID).Return(transaction, nil)

	_, err := svc.MarkFailed(ctx, userID, transaction.ID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot move from succeeded")
}

func TestTransactionService_CreateManual_Success(t *testing.T) {
	repo := new(mockTransactionRepo)
	wallets := new(mockWalletResolver)
	svc := NewTransactionService(repo, wallets, nil, nil, "inr")
	ctx := context.Background()

	userID := uuid.New()
	walletID := uuid.New()
	wallets.On("GetOrCreate", ctx, userID, "inr").
		Return(&models.Wallet{ID: walletID, UserID: userID, Currency: "inr"}, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)

	got, err := svc.CreateManual(ctx, ManualTransactionInput{
		UserID: userID,
		Type:   models.TransactionTypeCredit,
		Amount: 500,
		Reason: "bank transfer ref 8841",
	})
	assert.NoError(t, err)
	assert.Equal(t, walletID, got.WalletID)
	assert.Equal(t, models.ProviderBank, got.Provider)
	assert.Equal(t, models.TransactionStatusPending, got.Status)
	assert.Equal(t, "inr", got.Currency)
}

func TestTransactionService_CreateManual_Invalid(t *testing.T) {
	svc := NewTransactionService(new(mockTransactionRepo), new(mockWalletResolver), nil, nil, "inr")
	ctx := context.Background()

	cases := []ManualTransactionInput{
		{UserID: uuid.New(), Type: "transfer", Amount: 100, Reason: "r"},
		{UserID: uuid.New(), Type: models.TransactionTypeCredit, Amount: 0, Reason: "r"},
		{UserID: uuid.New(), Type: models.TransactionTypeDebit, Amount: 100, Reason: ""},
	}
	for _, in := range cases {
		_, err := svc.CreateManual(ctx, in)
		assert.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	}
}

func TestTransactionService_AdminUpdateStatus_SucceedCredit(t *testing.T) {
	repo := new(mockTransactionRepo)
	svc := NewTransactionService(repo, new(mockWalletResolver), nil, nil, "inr")
	ctx := context.Background()

	transaction := pendingCardDeposit(uuid.New())
	transaction.Provider = models.ProviderBank
	succeeded := *transaction
	succeeded.Status = models.TransactionStatusSucceeded

	repo.On("GetByID", ctx, transaction.ID).Return(transaction, nil)
	repo.On("ConfirmCredit", ctx, transaction.ID).Return(&succeeded, nil)

	got, err := svc.AdminUpdateStatus(ctx, transaction.ID, models.TransactionStatusSucceeded)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSucceeded, got.Status)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransactionService_AdminUpdateStatus_InvalidTransition(t *testing.T) {
	repo := new(mockTransactionRepo)
	svc := NewTransactionService(repo, new(mockWalletResolver), nil, nil, "inr")
	ctx := context.Background()

	transaction := pendingCardDeposit(uuid.New())
	repo.On("GetByID", ctx, transaction.ID).Return(transaction, nil)

	_, err := svc.AdminUpdateStatus(ctx, transaction.ID, models.TransactionStatusRefunded)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot move from pending")
	repo.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
}

func TestTransactionTransitions_Graph(t *testing.T) {
	assert.True(t, models.CanTransition(models.TransactionTransitions, models.TransactionStatusPending, models.TransactionStatusSucceeded))
	assert.True(t, models.CanTransition(models.TransactionTransitions, models.TransactionStatusPending, models.TransactionStatusFailed))
	assert.True(t, models.CanTransition(models.TransactionTransitions, models.TransactionStatusSucceeded, models.TransactionStatusRefunded))

	assert.False(t, models.CanTransition(models.TransactionTransitions, models.TransactionStatusPending, models.TransactionStatusRefunded))
	assert.False(t, models.CanTransition(models.TransactionTransitions, models.TransactionStatusFailed, models.TransactionStatusSucceeded))
	assert.False(t, models.CanTransition(models.TransactionTransitions, models.TransactionStatusRefunded, models.TransactionStatusSucceeded))
	assert.False(t, models.CanTransition(models.TransactionTransitions, models.TransactionStatusSucceeded, models.TransactionStatusPending))
}
