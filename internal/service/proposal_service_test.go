package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
)

type mockProposalRepo struct {
	mock.Mock
}

func (m *mockProposalRepo) Create(ctx context.Context, proposal *models.Proposal) error {
	args := m.Called(ctx, proposal)
	if args.Error(0) == nil {
		proposal.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockProposalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

func (m *mockProposalRepo) GetLiveByJobAndFreelancer(ctx context.Context, jobID, freelancerID uuid.UUID) (*models.Proposal, error) {
	args := m.Called(ctx, jobID, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

func (m *mockProposalRepo) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Proposal, error) {
	args := m.Called(ctx, freelancerID, limit, offset)
	return args.Get(0).([]models.Proposal), args.Error(1)
}

func (m *mockProposalRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Proposal, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]models.Proposal), args.Error(1)
}

func (m *mockProposalRepo) ListAll(ctx context.Context, limit, offset int) ([]models.Proposal, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Proposal), args.Error(1)
}

func (m *mockProposalRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProposalRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type mockJobLookup struct {
	mock.Mock
}

func (m *mockJobLookup) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *mockJobLookup) IncrementProposalCount(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func openJob(clientID uuid.UUID) *models.Job {
	return &models.Job{
		ID:       uuid.New(),
		ClientID: clientID,
		Status:   models.JobStatusOpen,
		Currency: "inr",
	}
}

func TestProposalService_Submit_Success(t *testing.T) {
	repo := new(mockProposalRepo)
	jobs := new(mockJobLookup)
	svc := NewProposalService(repo, jobs, nil)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	job := openJob(clientID)

	jobs.On("GetByID", ctx, job.ID).Return(job, nil)
	repo.On("GetLiveByJobAndFreelancer", ctx, job.ID, freelancerID).Return(nil, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Proposal")).Return(nil)
	jobs.On("IncrementProposalCount", ctx, job.ID).Return(nil)

	proposal, err := svc.Submit(ctx, freelancerID, SubmitProposalInput{
		JobID:       job.ID,
		CoverLetter: "I have shipped three projects like this one.",
		BidAmount:   800,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.ProposalStatusPending, proposal.Status)
	// Currency falls back to the job's when the bid omits it.
	assert.Equal(t, "inr", proposal.Currency)
}

func TestProposalService_Submit_DuplicateLiveProposal(t *testing.T) {
	repo := new(mockProposalRepo)
	jobs := new(mockJobLookup)
	svc := NewProposalService(repo, jobs, nil)
	ctx := context.Background()

	freelancerID := uuid.New()
	job := openJob(uuid.New())

	jobs.On("GetByID", ctx, job.ID).Return(job, nil)
	repo.On("GetLiveByJobAndFreelancer", ctx, job.ID, freelancerID).
		Return(&models.Proposal{ID: uuid.New(), Status: models.ProposalStatusPending}, nil)

	_, err := svc.Submit(ctx, freelancerID, SubmitProposalInput{
		JobID:       job.ID,
		CoverLetter: "Second bid on the same job should bounce.",
		BidAmount:   500,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already have a live proposal")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProposalService_Submit_OwnJobForbidden(t *testing.T) {
	repo := new(mockProposalRepo)
	jobs := new(mockJobLookup)
	svc := NewProposalService(repo, jobs, nil)
	ctx := context.Background()

	clientID := uuid.New()
	job := openJob(clientID)
	jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.Submit(ctx, clientID, SubmitProposalInput{
		JobID:       job.ID,
		CoverLetter: "Bidding on my own listing to test the guard.",
		BidAmount:   100,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestProposalService_Submit_ClosedJobRejected(t *testing.T) {
	repo := new(mockProposalRepo)
	jobs := new(mockJobLookup)
	svc := NewProposalService(repo, jobs, nil)
	ctx := context.Background()

	job := openJob(uuid.New())
	job.Status = models.JobStatusCancelled
	jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.Submit(ctx, uuid.New(), SubmitProposalInput{
		JobID:       job.ID,
		CoverLetter: "This job already closed, the bid must fail.",
		BidAmount:   100,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not accepting proposals")
}

func TestProposalService_Submit_CoverLetterTooShort(t *testing.T) {
	svc := NewProposalService(new(mockProposalRepo), new(mockJobLookup), nil)

	_, err := svc.Submit(context.Background(), uuid.New(), SubmitProposalInput{
		JobID:       uuid.New(),
		CoverLetter: "hi",
		BidAmount:   100,
	})
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Submit(context.Background(), uuid.New(), SubmitProposalInput{
		JobID:       uuid.New(),
		CoverLetter: strings.Repeat("x", 5001),
		BidAmount:   100,
	})
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestProposalService_Withdraw_PendingOnly(t *testing.T) {
	repo := new(mockProposalRepo)
	svc := NewProposalService(repo, new(mockJobLookup), nil)
	ctx := context.Background()

	freelancerID := uuid.New()
	proposal := &models.Proposal{
		ID:           uuid.New(),
		FreelancerID: freelancerID,
		Status:       models.ProposalStatusAccepted,
	}
	repo.On("GetByID", ctx, proposal.ID).Return(proposal, nil)

	err := svc.Withdraw(ctx, proposal.ID, freelancerID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "only pending proposals")
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestProposalService_Reject_ClientOnly(t *testing.T) {
	repo := new(mockProposalRepo)
	jobs := new(mockJobLookup)
	svc := NewProposalService(repo, jobs, nil)
	ctx := context.Background()

	proposal := &models.Proposal{
		ID:           uuid.New(),
		JobID:        uuid.New(),
		FreelancerID: uuid.New(),
		Status:       models.ProposalStatusPending,
	}
	job := &models.Job{ID: proposal.JobID, ClientID: uuid.New(), Status: models.JobStatusOpen}

	repo.On("GetByID", ctx, proposal.ID).Return(proposal, nil)
	jobs.On("GetByID", ctx, proposal.JobID).Return(job, nil)

	err := svc.Reject(ctx, proposal.ID, uuid.New())
	assert.True(t, apperror.IsForbidden(err))
}

func TestProposalService_ListByJob_NotOwner(t *testing.T) {
	repo := new(mockProposalRepo)
	jobs := new(mockJobLookup)
	svc := NewProposalService(repo, jobs, nil)
	ctx := context.Background()

	job := openJob(uuid.New())
	jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.ListByJob(ctx, job.ID, uuid.New())
	assert.True(t, apperror.IsForbidden(err))
}

func TestProposalService_Delete_PendingRefused(t *testing.T) {
	repo := new(mockProposalRepo)
	jobs := new(mockJobLookup)
	svc := NewProposalService(repo, jobs, nil)
	ctx := context.Background()

	freelancerID := uuid.New()
	proposal := &models.Proposal{
		ID:           uuid.New(),
		JobID:        uuid.New(),
		FreelancerID: freelancerID,
		Status:       models.ProposalStatusPending,
	}
	repo.On("GetByID", ctx, proposal.ID).Return(proposal, nil)

	err := svc.Delete(ctx, proposal.ID, freelancerID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "withdraw")
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProposalService_Delete_Withdrawn(t *testing.T) {
	repo := new(mockProposalRepo)
	jobs := new(mockJobLookup)
	svc := NewProposalService(repo, jobs, nil)
	ctx := context.Background()

	freelancerID := uuid.New()
	proposal := &models.Proposal{
		ID:           uuid.New(),
		JobID:        uuid.New(),
		FreelancerID: freelancerID,
		Status:       models.ProposalStatusWithdrawn,
	}
	repo.On("GetByID", ctx, proposal.ID).Return(proposal, nil)
	repo.On("Delete", ctx, proposal.ID).Return(nil)

	err := svc.Delete(ctx, proposal.ID, freelancerID)
	assert.NoError(t, err)
	repo.AssertCalled(t, "Delete", ctx, proposal.ID)
}
