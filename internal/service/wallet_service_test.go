package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
	"github.com/gigscape/backend/internal/repository"
)

type mockWalletRepo struct {
	mock.Mock

	balance float64
}

func (m *mockWalletRepo) Create(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *mockWalletRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *mockWalletRepo) GetOrCreate(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *mockWalletRepo) ListActiveHolds(ctx context.Context, walletID uuid.UUID) ([]models.WalletHold, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).([]models.WalletHold), args.Error(1)
}

// Deposit and Withdraw keep a running balance so scenario tests can check the
// same overdraft arithmetic the SQL layer enforces.
func (m *mockWalletRepo) Deposit(ctx context.Context, userID uuid.UUID, amount float64, reason string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amount, reason)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	m.balance += amount
	return &models.Transaction{
		ID:     uuid.New(),
		UserID: userID,
		Type:   models.TransactionTypeCredit,
		Amount: amount,
		Status: models.TransactionStatusSucceeded,
		Reason: reason,
	}, nil
}

func (m *mockWalletRepo) Withdraw(ctx context.Context, userID uuid.UUID, amount float64, reason string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amount, reason)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	if amount > m.balance {
		return nil, repository.ErrInsufficientFunds
	}
	m.balance -= amount
	return &models.Transaction{
		ID:     uuid.New(),
		UserID: userID,
		Type:   models.TransactionTypeDebit,
		Amount: amount,
		Status: models.TransactionStatusSucceeded,
		Reason: reason,
	}, nil
}

func (m *mockWalletRepo) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func TestWalletService_Get_CreatesWalletWithHolds(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, "inr")
	ctx := context.Background()

	userID := uuid.New()
	wallet := &models.Wallet{ID: uuid.New(), UserID: userID, Currency: "inr"}
	repo.On("GetOrCreate", ctx, userID, "inr").Return(wallet, nil)
	repo.On("ListActiveHolds", ctx, wallet.ID).
		Return([]models.WalletHold{{ID: uuid.New(), Amount: 150}}, nil)

	got, err := svc.Get(ctx, userID)
	assert.NoError(t, err)
	assert.Len(t, got.Holds, 1)
}

func TestWalletService_Deposit_RejectsNonPositiveAmounts(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, "inr")

	for _, amount := range []float64{0, -50} {
		_, err := svc.Deposit(context.Background(), uuid.New(), amount, "")
		assert.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	}
	repo.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWalletService_Withdraw_OverdraftRejected(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, "inr")
	ctx := context.Background()

	userID := uuid.New()
	repo.On("Withdraw", ctx, userID, 150.0, "wallet withdrawal").
		Return(nil, repository.ErrInsufficientFunds)

	_, err := svc.Withdraw(ctx, userID, 150, "")
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds)
}

func TestWalletService_DepositWithdrawScenario(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, "inr")
	ctx := context.Background()

	userID := uuid.New()
	wallet := &models.Wallet{ID: uuid.New(), UserID: userID, Currency: "inr"}
	repo.On("GetOrCreate", ctx, userID, "inr").Return(wallet, nil)
	repo.On("Deposit", ctx, userID, 100.0, "wallet deposit").Return(nil, nil)
	repo.On("Withdraw", ctx, userID, mock.Anything, "wallet withdrawal").Return(nil, nil)

	_, err := svc.Deposit(ctx, userID, 100, "")
	assert.NoError(t, err)

	// 150 off a balance of 100 must overdraw.
	_, err = svc.Withdraw(ctx, userID, 150, "")
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds)

	tx, err := svc.Withdraw(ctx, userID, 40, "")
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionTypeDebit, tx.Type)
	assert.Equal(t, 40.0, tx.Amount)
	assert.Equal(t, 60.0, repo.balance)
}

func TestWalletService_ListTransactions_ClampsLimit(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, "inr")
	ctx := context.Background()

	userID := uuid.New()
	repo.On("ListTransactions", ctx, userID, 20, 0).Return([]models.Transaction{}, nil)

	_, err := svc.ListTransactions(ctx, userID, 500, 0)
	assert.NoError(t, err)
	repo.AssertCalled(t, "ListTransactions", ctx, userID, 20, 0)
}

func TestWalletService_Create_Conflict(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, "inr")
	ctx := context.Background()

	userID := uuid.New()
	repo.On("Create", ctx, userID, "inr").Return(nil, repository.ErrWalletExists)

	_, err := svc.Create(ctx, userID, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestWalletService_Create_DefaultsCurrency(t *testing.T) {
	repo := new(mockWalletRepo)
	svc := NewWalletService(repo, "inr")
	ctx := context.Background()

	userID := uuid.New()
	repo.On("Create", ctx, userID, "inr").
		Return(&models.Wallet{ID: uuid.New(), UserID: userID, Currency: "inr"}, nil)

	wallet, err := svc.Create(ctx, userID, "")
	assert.NoError(t, err)
	assert.Equal(t, "inr", wallet.Currency)
}
