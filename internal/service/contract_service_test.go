package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
	"github.com/gigscape/backend/internal/repository"
)

type mockContractRepo struct {
	mock.Mock
}

func (m *mockContractRepo) Create(ctx context.Context, contract *models.Contract) error {
	args := m.Called(ctx, contract)
	if args.Error(0) == nil {
		contract.ID = uuid.New()
		contract.Status = models.ContractStatusPending
		contract.EscrowStatus = models.EscrowStatusNotRequired
	}
	return args.Error(0)
}

func (m *mockContractRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contract), args.Error(1)
}

func (m *mockContractRepo) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.Contract, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Contract), args.Error(1)
}

func (m *mockContractRepo) Update(ctx context.Context, contract *models.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

func (m *mockContractRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockContractRepo) UpdateEscrowStatus(ctx context.Context, id uuid.UUID, escrowStatus string) error {
	args := m.Called(ctx, id, escrowStatus)
	return args.Error(0)
}

func (m *mockContractRepo) CompleteIfAllMilestonesDone(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockContractRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockContractRepo) Stats(ctx context.Context) ([]models.ContractStats, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.ContractStats), args.Error(1)
}

type mockProposalReader struct {
	mock.Mock
}

func (m *mockProposalReader) GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

func (m *mockProposalReader) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type mockJobReader struct {
	mock.Mock
}

func (m *mockJobReader) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *mockJobReader) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type mockMilestoneWriter struct {
	mock.Mock
}

func (m *mockMilestoneWriter) Create(ctx context.Context, milestone *models.Milestone) error {
	args := m.Called(ctx, milestone)
	if args.Error(0) == nil {
		milestone.ID = uuid.New()
		milestone.Status = models.MilestoneStatusPending
	}
	return args.Error(0)
}

func (m *mockMilestoneWriter) ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Milestone, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).([]models.Milestone), args.Error(1)
}

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) Hold(ctx context.Context, userID uuid.UUID, amount float64, reason string, relatedID *uuid.UUID) (*models.WalletHold, error) {
	args := m.Called(ctx, userID, amount, reason, relatedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletHold), args.Error(1)
}

func (m *mockWallet) ReleaseHold(ctx context.Context, userID uuid.UUID, relatedID uuid.UUID, refund bool) (*models.WalletHold, error) {
	args := m.Called(ctx, userID, relatedID, refund)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletHold), args.Error(1)
}

func (m *mockWallet) Deposit(ctx context.Context, userID uuid.UUID, amount float64, reason string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func contractServiceFixture() (*ContractService, *mockContractRepo, *mockProposalReader, *mockJobReader, *mockMilestoneWriter, *mockWallet) {
	contracts := new(mockContractRepo)
	proposals := new(mockProposalReader)
	jobs := new(mockJobReader)
	milestones := new(mockMilestoneWriter)
	wallet := new(mockWallet)
	svc := NewContractService(contracts, proposals, jobs, milestones, wallet, nil)
	return svc, contracts, proposals, jobs, milestones, wallet
}

func TestContractService_AcceptProposal_WithMilestones(t *testing.T) {
	svc, contracts, proposals, jobs, milestones, _ := contractServiceFixture()
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	jobID := uuid.New()
	proposalID := uuid.New()

	proposal := &models.Proposal{
		ID:           proposalID,
		JobID:        jobID,
		FreelancerID: freelancerID,
		BidAmount:    1000,
		Currency:     "inr",
		Status:       models.ProposalStatusPending,
	}
	job := &models.Job{ID: jobID, ClientID: clientID, Status: models.JobStatusOpen}

	proposals.On("GetByID", ctx, proposalID).Return(proposal, nil)
	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	contracts.On("Create", ctx, mock.AnythingOfType("*models.Contract")).Return(nil)
	milestones.On("Create", ctx, mock.AnythingOfType("*models.Milestone")).Return(nil)
	proposals.On("UpdateStatus", ctx, proposalID, models.ProposalStatusAccepted).Return(nil)
	jobs.On("UpdateStatus", ctx, jobID, models.JobStatusInProgress).Return(nil)

	due := time.Now().AddDate(0, 0, 7).Truncate(time.Second)
	contract, err := svc.AcceptProposal(ctx, clientID, proposalID, []MilestoneInput{
		{Title: "Design", Amount: 400, DueDate: &due},
		{Title: "Implementation", Amount: 600},
	})

	assert.NoError(t, err)
	assert.NotNil(t, contract)
	// Milestone amounts win over the bid when provided.
	assert.Equal(t, 1000.0, contract.TotalAmount)
	assert.Len(t, contract.Milestones, 2)
	assert.Equal(t, freelancerID, contract.FreelancerID)
	assert.NotNil(t, contract.Milestones[0].DueDate)
	assert.Equal(t, due, *contract.Milestones[0].DueDate)
	assert.Nil(t, contract.Milestones[1].DueDate)
	milestones.AssertNumberOfCalls(t, "Create", 2)
}

func TestContractService_AcceptProposal_NotJobOwner(t *testing.T) {
	svc, _, proposals, jobs, _, _ := contractServiceFixture()
	ctx := context.Background()

	proposal := &models.Proposal{
		ID:     uuid.New(),
		JobID:  uuid.New(),
		Status: models.ProposalStatusPending,
	}
	job := &models.Job{ID: proposal.JobID, ClientID: uuid.New(), Status: models.JobStatusOpen}

	proposals.On("GetByID", ctx, proposal.ID).Return(proposal, nil)
	jobs.On("GetByID", ctx, proposal.JobID).Return(job, nil)

	_, err := svc.AcceptProposal(ctx, uuid.New(), proposal.ID, nil)
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestContractService_AcceptProposal_NotPending(t *testing.T) {
	svc, _, proposals, _, _, _ := contractServiceFixture()
	ctx := context.Background()

	proposal := &models.Proposal{ID: uuid.New(), Status: models.ProposalStatusWithdrawn}
	proposals.On("GetByID", ctx, proposal.ID).Return(proposal, nil)

	_, err := svc.AcceptProposal(ctx, uuid.New(), proposal.ID, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no longer pending")
}

func TestContractService_FundEscrow_InsufficientFunds(t *testing.T) {
	svc, contracts, _, _, _, wallet := contractServiceFixture()
	ctx := context.Background()

	clientID := uuid.New()
	contract := &models.Contract{
		ID:           uuid.New(),
		ClientID:     clientID,
		FreelancerID: uuid.New(),
		TotalAmount:  1000,
		Status:       models.ContractStatusPending,
		EscrowStatus: models.EscrowStatusNotRequired,
	}

	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	wallet.On("Hold", ctx, clientID, 1000.0, mock.Anything, mock.Anything).
		Return(nil, repository.ErrInsufficientFunds)

	_, err := svc.FundEscrow(ctx, contract.ID, clientID)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds)
}

func TestContractService_FundEscrow_Success(t *testing.T) {
	svc, contracts, _, _, _, wallet := contractServiceFixture()
	ctx := context.Background()

	clientID := uuid.New()
	contract := &models.Contract{
		ID:           uuid.New(),
		ClientID:     clientID,
		FreelancerID: uuid.New(),
		TotalAmount:  500,
		Status:       models.ContractStatusPending,
		EscrowStatus: models.EscrowStatusNotRequired,
	}

	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	wallet.On("Hold", ctx, clientID, 500.0, mock.Anything, mock.Anything).
		Return(&models.WalletHold{ID: uuid.New(), Amount: 500}, nil)
	contracts.On("UpdateEscrowStatus", ctx, contract.ID, models.EscrowStatusFundsHeld).Return(nil)
	contracts.On("UpdateStatus", ctx, contract.ID, models.ContractStatusActive).Return(nil)

	funded, err := svc.FundEscrow(ctx, contract.ID, clientID)
	assert.NoError(t, err)
	assert.Equal(t, models.EscrowStatusFundsHeld, funded.EscrowStatus)
	assert.Equal(t, models.ContractStatusActive, funded.Status)
}

func TestContractService_ReconcileCompletion_NoChange(t *testing.T) {
	svc, contracts, _, _, _, wallet := contractServiceFixture()
	ctx := context.Background()

	contractID := uuid.New()
	contracts.On("CompleteIfAllMilestonesDone", ctx, contractID).Return(false, nil)

	changed, err := svc.ReconcileCompletion(ctx, contractID)
	assert.NoError(t, err)
	assert.False(t, changed)
	wallet.AssertNotCalled(t, "ReleaseHold", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestContractService_ReconcileCompletion_SettlesOnce(t *testing.T) {
	svc, contracts, _, _, _, wallet := contractServiceFixture()
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	contract := &models.Contract{
		ID:           uuid.New(),
		ClientID:     clientID,
		FreelancerID: freelancerID,
		TotalAmount:  750,
		Status:       models.ContractStatusCompleted,
		EscrowStatus: models.EscrowStatusFundsHeld,
	}

	contracts.On("CompleteIfAllMilestonesDone", ctx, contract.ID).Return(true, nil)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	wallet.On("ReleaseHold", ctx, clientID, contract.ID, false).
		Return(&models.WalletHold{Amount: 750}, nil)
	wallet.On("Deposit", ctx, freelancerID, 750.0, mock.Anything).
		Return(&models.Transaction{ID: uuid.New()}, nil)
	contracts.On("UpdateEscrowStatus", ctx, contract.ID, models.EscrowStatusReleased).Return(nil)

	changed, err := svc.ReconcileCompletion(ctx, contract.ID)
	assert.NoError(t, err)
	assert.True(t, changed)
	wallet.AssertCalled(t, "Deposit", ctx, freelancerID, 750.0, mock.Anything)
}

func TestContractService_Settle_NoopWhenNotHeld(t *testing.T) {
	svc, contracts, _, _, _, wallet := contractServiceFixture()
	ctx := context.Background()

	contract := &models.Contract{
		ID:           uuid.New(),
		ClientID:     uuid.New(),
		FreelancerID: uuid.New(),
		Status:       models.ContractStatusCompleted,
		EscrowStatus: models.EscrowStatusReleased,
	}
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	err := svc.Settle(ctx, contract.ID)
	assert.NoError(t, err)
	wallet.AssertNotCalled(t, "ReleaseHold", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	wallet.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestContractService_Reconcile_NotParticipant(t *testing.T) {
	svc, contracts, _, _, _, _ := contractServiceFixture()
	ctx := context.Background()

	contract := &models.Contract{
		ID:           uuid.New(),
		ClientID:     uuid.New(),
		FreelancerID: uuid.New(),
		Status:       models.ContractStatusActive,
		EscrowStatus: models.EscrowStatusFundsHeld,
	}
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	_, err := svc.Reconcile(ctx, contract.ID, uuid.New())
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	contracts.AssertNotCalled(t, "CompleteIfAllMilestonesDone", mock.Anything, mock.Anything)
}

func TestContractService_Reconcile_ParticipantDelegates(t *testing.T) {
	svc, contracts, _, _, _, _ := contractServiceFixture()
	ctx := context.Background()

	contract := &models.Contract{
		ID:           uuid.New(),
		ClientID:     uuid.New(),
		FreelancerID: uuid.New(),
		Status:       models.ContractStatusActive,
		EscrowStatus: models.EscrowStatusNotRequired,
	}
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	contracts.On("CompleteIfAllMilestonesDone", ctx, contract.ID).Return(false, nil)

	changed, err := svc.Reconcile(ctx, contract.ID, contract.FreelancerID)
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestContractService_Update_AmountLockedAfterFunding(t *testing.T) {
	svc, contracts, _, _, _, _ := contractServiceFixture()
	ctx := context.Background()

	clientID := uuid.New()
	contract := &models.Contract{
		ID:           uuid.New(),
		ClientID:     clientID,
		FreelancerID: uuid.New(),
		TotalAmount:  900,
		Status:       models.ContractStatusActive,
		EscrowStatus: models.EscrowStatusFundsHeld,
	}
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	amount := 1200.0
	_, err := svc.Update(ctx, contract.ID, clientID, UpdateContractInput{TotalAmount: &amount})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "escrow funding")
	contracts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestContractService_Update_DatesAndAmount(t *testing.T) {
	svc, contracts, _, _, _, _ := contractServiceFixture()
	ctx := context.Background()

	clientID := uuid.New()
	contract := &models.Contract{
		ID:           uuid.New(),
		ClientID:     clientID,
		FreelancerID: uuid.New(),
		TotalAmount:  900,
		Status:       models.ContractStatusPending,
		EscrowStatus: models.EscrowStatusNotRequired,
	}
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	contracts.On("Update", ctx, mock.AnythingOfType("*models.Contract")).Return(nil)

	amount := 1200.0
	end := time.Now().AddDate(0, 1, 0)
	updated, err := svc.Update(ctx, contract.ID, clientID, UpdateContractInput{TotalAmount: &amount, EndDate: &end})
	assert.NoError(t, err)
	assert.Equal(t, 1200.0, updated.TotalAmount)
	assert.Equal(t, end, *updated.EndDate)
}

func TestContractService_UpdateStatus_RejectsCompletion(t *testing.T) {
	svc, contracts, _, _, _, _ := contractServiceFixture()
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, uuid.New(), uuid.New(), models.ContractStatusCompleted)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	contracts.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestContractService_Delete_RefusesHeldEscrow(t *testing.T) {
	svc, contracts, _, _, _, _ := contractServiceFixture()
	ctx := context.Background()

	contract := &models.Contract{
		ID:           uuid.New(),
		ClientID:     uuid.New(),
		FreelancerID: uuid.New(),
		Status:       models.ContractStatusActive,
		EscrowStatus: models.EscrowStatusFundsHeld,
	}
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	err := svc.Delete(ctx, contract.ID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "escrow funds")
	contracts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestContractService_Cancel_RefundsHeldEscrow(t *testing.T) {
	svc, contracts, _, _, _, wallet := contractServiceFixture()
	ctx := context.Background()

	clientID := uuid.New()
	contract := &models.Contract{
		ID:           uuid.New(),
		ClientID:     clientID,
		FreelancerID: uuid.New(),
		TotalAmount:  300,
		Status:       models.ContractStatusActive,
		EscrowStatus: models.EscrowStatusFundsHeld,
	}

	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	wallet.On("ReleaseHold", ctx, clientID, contract.ID, true).
		Return(&models.WalletHold{Amount: 300}, nil)
	contracts.On("UpdateEscrowStatus", ctx, contract.ID, models.EscrowStatusRefunded).Return(nil)
	contracts.On("UpdateStatus", ctx, contract.ID, models.ContractStatusCancelled).Return(nil)

	cancelled, err := svc.Cancel(ctx, contract.ID, clientID)
	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusCancelled, cancelled.Status)
	assert.Equal(t, models.EscrowStatusRefunded, cancelled.EscrowStatus)
}
