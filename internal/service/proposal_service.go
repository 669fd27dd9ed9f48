package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/logger"
	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
	"github.com/gigscape/backend/internal/repository"
	"github.com/gigscape/backend/internal/validation"
)

// ProposalRepository is the storage surface ProposalService depends on.
type ProposalRepository interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	GetLiveByJobAndFreelancer(ctx context.Context, jobID, freelancerID uuid.UUID) (*models.Proposal, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Proposal, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Proposal, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Proposal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProposalJobRepository is the slice of the job repository proposal flows
// need.
type ProposalJobRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	IncrementProposalCount(ctx context.Context, id uuid.UUID) error
}

// ProposalService owns bidding rules: one live proposal per freelancer per
// job, bids only on open jobs.
type ProposalService struct {
	repo     ProposalRepository
	jobs     ProposalJobRepository
	notifier Notifier
}

// SubmitProposalInput carries a freelancer's bid.
type SubmitProposalInput struct {
	JobID          uuid.UUID
	CoverLetter    string
	BidAmount      float64
	Currency       string
	EstimatedHours *int
}

func NewProposalService(repo ProposalRepository, jobs ProposalJobRepository, notifier Notifier) *ProposalService {
	return &ProposalService{repo: repo, jobs: jobs, notifier: notifier}
}

// Submit places a bid on an open job.
func (s *ProposalService) Submit(ctx context.Context, freelancerID uuid.UUID, in SubmitProposalInput) (*models.Proposal, error) {
	if err := validation.ValidateLength("cover_letter", in.CoverLetter, 10, 5000); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmount("bid_amount", in.BidAmount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	job, err := s.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, err
	}

	if job.Status != models.JobStatusOpen && job.Status != models.JobStatusPublished {
		return nil, apperror.New(apperror.ErrCodeConflict, "job is not accepting proposals")
	}
	if job.ClientID == freelancerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "cannot bid on your own job")
	}

	existing, err := s.repo.GetLiveByJobAndFreelancer(ctx, in.JobID, freelancerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "you already have a live proposal for this job")
	}

	currency := in.Currency
	if currency == "" {
		currency = job.Currency
	}

	proposal := &models.Proposal{
		JobID:          in.JobID,
		FreelancerID:   freelancerID,
		CoverLetter:    in.CoverLetter,
		BidAmount:      in.BidAmount,
		Currency:       currency,
		EstimatedHours: in.EstimatedHours,
		Status:         models.ProposalStatusPending,
	}

	if err := s.repo.Create(ctx, proposal); err != nil {
		return nil, err
	}

	// The counter is denormalized; a failed bump does not invalidate the bid.
	if err := s.jobs.IncrementProposalCount(ctx, in.JobID); err != nil {
		logger.Log.WithError(err).Warn("proposal service: proposal count update failed")
	}

	s.notify(job.ClientID, "proposal.received", proposal)

	return proposal, nil
}

// Get returns a proposal visible to the freelancer who wrote it or to the
// job's client.
func (s *ProposalService) Get(ctx context.Context, proposalID, userID uuid.UUID) (*models.Proposal, error) {
	proposal, err := s.repo.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrProposalNotFound) {
			return nil, apperror.ErrProposalNotFound
		}
		return nil, err
	}

	if proposal.FreelancerID != userID {
		job, err := s.jobs.GetByID(ctx, proposal.JobID)
		if err != nil {
			return nil, err
		}
		if job.ClientID != userID {
			return nil, apperror.ErrForbidden
		}
	}

	return proposal, nil
}

// ListByJob returns the proposals for a job, client only.
func (s *ProposalService) ListByJob(ctx context.Context, jobID, clientID uuid.UUID) ([]models.Proposal, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, err
	}
	if job.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}
	return s.repo.ListByJob(ctx, jobID)
}

// ListMine returns the freelancer's own proposals.
func (s *ProposalService) ListMine(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Proposal, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByFreelancer(ctx, freelancerID, limit, offset)
}

// Withdraw retracts the freelancer's own pending proposal.
func (s *ProposalService) Withdraw(ctx context.Context, proposalID, freelancerID uuid.UUID) error {
	proposal, err := s.repo.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrProposalNotFound) {
			return apperror.ErrProposalNotFound
		}
		return err
	}
	if proposal.FreelancerID != freelancerID {
		return apperror.ErrForbidden
	}
	if proposal.Status != models.ProposalStatusPending {
		return apperror.New(apperror.ErrCodeConflict, "only pending proposals can be withdrawn")
	}
	return s.repo.UpdateStatus(ctx, proposalID, models.ProposalStatusWithdrawn)
}

// Delete removes the freelancer's own dead proposal. Live proposals are
// withdrawn, not deleted.
func (s *ProposalService) Delete(ctx context.Context, proposalID, freelancerID uuid.UUID) error {
	proposal, err := s.repo.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrProposalNotFound) {
			return apperror.ErrProposalNotFound
		}
		return err
	}
	if proposal.FreelancerID != freelancerID {
		return apperror.ErrForbidden
	}
	if proposal.Status == models.ProposalStatusPending || proposal.Status == models.ProposalStatusAccepted {
		return apperror.New(apperror.ErrCodeConflict, "withdraw the proposal before deleting it")
	}
	return s.repo.Delete(ctx, proposalID)
}

// ListAll pages through every proposal for the admin dashboard.
func (s *ProposalService) ListAll(ctx context.Context, limit, offset int) ([]models.Proposal, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListAll(ctx, limit, offset)
}

// Reject declines a pending proposal, client only.
func (s *ProposalService) Reject(ctx context.Context, proposalID, clientID uuid.UUID) error {
	proposal, err := s.repo.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrProposalNotFound) {
			return apperror.ErrProposalNotFound
		}
		return err
	}

	job, err := s.jobs.GetByID(ctx, proposal.JobID)
	if err != nil {
		return err
	}
	if job.ClientID != clientID {
		return apperror.ErrForbidden
	}
	if proposal.Status != models.ProposalStatusPending {
		return apperror.New(apperror.ErrCodeConflict, "proposal is no longer pending")
	}

	if err := s.repo.UpdateStatus(ctx, proposalID, models.ProposalStatusRejected); err != nil {
		return err
	}

	s.notify(proposal.FreelancerID, "proposal.rejected", proposal)
	return nil
}

func (s *ProposalService) notify(userID uuid.UUID, event string, data any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BroadcastToUser(userID, event, data); err != nil {
		logger.Log.WithError(err).Warn("proposal service: notify failed")
	}
}
