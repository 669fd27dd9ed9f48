package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/logger"
	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
	"github.com/gigscape/backend/internal/repository"
	"github.com/gigscape/backend/internal/validation"
)

// ContractRepository is the storage surface ContractService depends on.
type ContractRepository interface {
	Create(ctx context.Context, contract *models.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.Contract, error)
	Update(ctx context.Context, contract *models.Contract) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateEscrowStatus(ctx context.Context, id uuid.UUID, escrowStatus string) error
	CompleteIfAllMilestonesDone(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) ([]models.ContractStats, error)
}

// ContractProposalRepository is the slice of the proposal repository the
// acceptance flow needs.
type ContractProposalRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// ContractJobRepository is the slice of the job repository the acceptance
// flow needs.
type ContractJobRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// ContractMilestoneRepository loads milestones for contract views.
type ContractMilestoneRepository interface {
	Create(ctx context.Context, milestone *models.Milestone) error
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Milestone, error)
}

// EscrowWallet is the wallet surface used to hold and settle contract funds.
type EscrowWallet interface {
	Hold(ctx context.Context, userID uuid.UUID, amount float64, reason string, relatedID *uuid.UUID) (*models.WalletHold, error)
	ReleaseHold(ctx context.Context, userID uuid.UUID, relatedID uuid.UUID, refund bool) (*models.WalletHold, error)
	Deposit(ctx context.Context, userID uuid.UUID, amount float64, reason string) (*models.Transaction, error)
}

// ContractService owns the contract lifecycle: acceptance, escrow funding,
// completion and settlement.
type ContractService struct {
	repo       ContractRepository
	proposals  ContractProposalRepository
	jobs       ContractJobRepository
	milestones ContractMilestoneRepository
	wallet     EscrowWallet
	notifier   Notifier
}

// MilestoneInput describes a milestone created together with the contract.
type MilestoneInput struct {
	Title       string
	Description string
	Amount      float64
	DueDate     *time.Time
}

func NewContractService(
	repo ContractRepository,
	proposals ContractProposalRepository,
	jobs ContractJobRepository,
	milestones ContractMilestoneRepository,
	wallet EscrowWallet,
	notifier Notifier,
) *ContractService {
	return &ContractService{
		repo:       repo,
		proposals:  proposals,
		jobs:       jobs,
		milestones: milestones,
		wallet:     wallet,
		notifier:   notifier,
	}
}

// AcceptProposal turns a pending proposal into a contract. The job moves to
// in_progress, the proposal to accepted.
func (s *ContractService) AcceptProposal(ctx context.Context, clientID, proposalID uuid.UUID, milestoneInputs []MilestoneInput) (*models.Contract, error) {
	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrProposalNotFound) {
			return nil, apperror.ErrProposalNotFound
		}
		return nil, err
	}
	if proposal.Status != models.ProposalStatusPending {
		return nil, apperror.New(apperror.ErrCodeConflict, "proposal is no longer pending")
	}

	job, err := s.jobs.GetByID(ctx, proposal.JobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}
	if job.Status != models.JobStatusOpen && job.Status != models.JobStatusPublished {
		return nil, apperror.New(apperror.ErrCodeConflict, "job is no longer open")
	}

	total := proposal.BidAmount
	if len(milestoneInputs) > 0 {
		total = 0
		for _, m := range milestoneInputs {
			if err := validation.ValidateAmount("milestone amount", m.Amount); err != nil {
				return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
			}
			total += m.Amount
		}
	}

	contract := &models.Contract{
		JobID:        proposal.JobID,
		ProposalID:   proposal.ID,
		ClientID:     clientID,
		FreelancerID: proposal.FreelancerID,
		TotalAmount:  total,
		Currency:     proposal.Currency,
	}

	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, err
	}

	for _, in := range milestoneInputs {
		milestone := &models.Milestone{
			ContractID:  contract.ID,
			Title:       in.Title,
			Description: in.Description,
			DueDate:     in.DueDate,
			Amount:      in.Amount,
			Currency:    contract.Currency,
		}
		if err := s.milestones.Create(ctx, milestone); err != nil {
			return nil, err
		}
		contract.Milestones = append(contract.Milestones, *milestone)
	}

	if err := s.proposals.UpdateStatus(ctx, proposalID, models.ProposalStatusAccepted); err != nil {
		return nil, err
	}
	if err := s.jobs.UpdateStatus(ctx, proposal.JobID, models.JobStatusInProgress); err != nil {
		return nil, err
	}

	s.notify(proposal.FreelancerID, "proposal.accepted", contract)

	logger.Log.WithFields(map[string]interface{}{
		"contract_id": contract.ID,
		"job_id":      proposal.JobID,
		"client_id":   clientID,
	}).Info("contract service: contract created")

	return contract, nil
}

// FundEscrow locks the contract total in the client's wallet and activates
// the contract.
func (s *ContractService) FundEscrow(ctx context.Context, contractID, clientID uuid.UUID) (*models.Contract, error) {
	contract, err := s.get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}
	if contract.Status != models.ContractStatusPending {
		return nil, apperror.New(apperror.ErrCodeConflict, "contract is not awaiting funding")
	}
	if contract.EscrowStatus == models.EscrowStatusFundsHeld {
		return contract, nil
	}

	reason := fmt.Sprintf("contract %s", contract.ID)
	if _, err := s.wallet.Hold(ctx, clientID, contract.TotalAmount, reason, &contract.ID); err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, apperror.ErrInsufficientFunds
		}
		return nil, err
	}

	if err := s.repo.UpdateEscrowStatus(ctx, contractID, models.EscrowStatusFundsHeld); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, contractID, models.ContractStatusActive); err != nil {
		return nil, err
	}

	contract.EscrowStatus = models.EscrowStatusFundsHeld
	contract.Status = models.ContractStatusActive

	s.notify(contract.FreelancerID, "contract.funded", contract)

	return contract, nil
}

// Get returns a contract with its milestones, participants only.
func (s *ContractService) Get(ctx context.Context, contractID, userID uuid.UUID) (*models.Contract, error) {
	contract, err := s.get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !contract.Participant(userID) {
		return nil, apperror.ErrForbidden
	}

	milestones, err := s.milestones.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	contract.Milestones = milestones

	return contract, nil
}

// List returns the user's contracts.
func (s *ContractService) List(ctx context.Context, userID uuid.UUID) ([]models.Contract, error) {
	return s.repo.ListByParticipant(ctx, userID)
}

// Cancel aborts a contract before completion. Held funds go back to the
// client.
func (s *ContractService) Cancel(ctx context.Context, contractID, userID uuid.UUID) (*models.Contract, error) {
	contract, err := s.get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !contract.Participant(userID) {
		return nil, apperror.ErrForbidden
	}
	if contract.Status == models.ContractStatusCompleted || contract.Status == models.ContractStatusCancelled {
		return nil, apperror.New(apperror.ErrCodeConflict, "contract is already closed")
	}

	if contract.EscrowStatus == models.EscrowStatusFundsHeld {
		if _, err := s.wallet.ReleaseHold(ctx, contract.ClientID, contract.ID, true); err != nil && !errors.Is(err, repository.ErrHoldNotFound) {
			return nil, err
		}
		if err := s.repo.UpdateEscrowStatus(ctx, contractID, models.EscrowStatusRefunded); err != nil {
			return nil, err
		}
		contract.EscrowStatus = models.EscrowStatusRefunded
	}

	if err := s.repo.UpdateStatus(ctx, contractID, models.ContractStatusCancelled); err != nil {
		return nil, err
	}
	contract.Status = models.ContractStatusCancelled

	s.notify(contract.Peer(userID), "contract.cancelled", contract)

	return contract, nil
}

// UpdateContractInput carries the fields a client may change before the
// contract closes. Nil fields are left untouched.
type UpdateContractInput struct {
	TotalAmount *float64
	StartDate   *time.Time
	EndDate     *time.Time
}

// Update adjusts dates and, while the escrow is unfunded, the total amount.
func (s *ContractService) Update(ctx context.Context, contractID, clientID uuid.UUID, in UpdateContractInput) (*models.Contract, error) {
	contract, err := s.get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}
	if contract.Status == models.ContractStatusCompleted || contract.Status == models.ContractStatusCancelled {
		return nil, apperror.New(apperror.ErrCodeConflict, "contract is already closed")
	}

	if in.TotalAmount != nil {
		if contract.EscrowStatus != models.EscrowStatusNotRequired {
			return nil, apperror.New(apperror.ErrCodeConflict, "amount cannot change after escrow funding")
		}
		if err := validation.ValidateAmount("total_amount", *in.TotalAmount); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		contract.TotalAmount = *in.TotalAmount
	}
	if in.StartDate != nil {
		contract.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		contract.EndDate = in.EndDate
	}

	if err := s.repo.Update(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// UpdateStatus moves the contract between active and in_progress. Completion
// belongs to the milestone aggregation and cancellation to Cancel.
func (s *ContractService) UpdateStatus(ctx context.Context, contractID, userID uuid.UUID, status string) (*models.Contract, error) {
	if status != models.ContractStatusActive && status != models.ContractStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeValidation, "status must be active or in_progress")
	}

	contract, err := s.get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !contract.Participant(userID) {
		return nil, apperror.ErrForbidden
	}
	if contract.Status == models.ContractStatusCompleted || contract.Status == models.ContractStatusCancelled {
		return nil, apperror.New(apperror.ErrCodeConflict, "contract is already closed")
	}

	if err := s.repo.UpdateStatus(ctx, contractID, status); err != nil {
		return nil, err
	}
	contract.Status = status
	return contract, nil
}

// Delete removes a contract record entirely. Admin only; a contract holding
// escrow must be cancelled first so the funds find their way back.
func (s *ContractService) Delete(ctx context.Context, contractID uuid.UUID) error {
	contract, err := s.get(ctx, contractID)
	if err != nil {
		return err
	}
	if contract.EscrowStatus == models.EscrowStatusFundsHeld {
		return apperror.New(apperror.ErrCodeConflict, "contract still holds escrow funds")
	}
	return s.repo.Delete(ctx, contractID)
}

// Reconcile is the participant-facing entry to ReconcileCompletion.
func (s *ContractService) Reconcile(ctx context.Context, contractID, userID uuid.UUID) (bool, error) {
	contract, err := s.get(ctx, contractID)
	if err != nil {
		return false, err
	}
	if !contract.Participant(userID) {
		return false, apperror.ErrForbidden
	}
	return s.ReconcileCompletion(ctx, contractID)
}

// ReconcileCompletion promotes the contract to completed when every
// milestone is done. Safe to call repeatedly; only the first effective call
// settles the escrow.
func (s *ContractService) ReconcileCompletion(ctx context.Context, contractID uuid.UUID) (bool, error) {
	changed, err := s.repo.CompleteIfAllMilestonesDone(ctx, contractID)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	return true, s.Settle(ctx, contractID)
}

// Settle pays the held escrow out to the freelancer. No-op unless funds are
// currently held.
func (s *ContractService) Settle(ctx context.Context, contractID uuid.UUID) error {
	contract, err := s.get(ctx, contractID)
	if err != nil {
		return err
	}
	if contract.EscrowStatus != models.EscrowStatusFundsHeld {
		return nil
	}

	if _, err := s.wallet.ReleaseHold(ctx, contract.ClientID, contract.ID, false); err != nil {
		if errors.Is(err, repository.ErrHoldNotFound) {
			return nil
		}
		return err
	}

	reason := fmt.Sprintf("contract payout %s", contract.ID)
	if _, err := s.wallet.Deposit(ctx, contract.FreelancerID, contract.TotalAmount, reason); err != nil {
		return err
	}

	if err := s.repo.UpdateEscrowStatus(ctx, contractID, models.EscrowStatusReleased); err != nil {
		return err
	}

	s.notify(contract.ClientID, "contract.completed", contract)
	s.notify(contract.FreelancerID, "contract.completed", contract)

	logger.Log.WithFields(map[string]interface{}{
		"contract_id":   contractID,
		"freelancer_id": contract.FreelancerID,
		"amount":        contract.TotalAmount,
	}).Info("contract service: escrow settled")

	return nil
}

// Stats aggregates contracts by status for the admin dashboard.
func (s *ContractService) Stats(ctx context.Context) ([]models.ContractStats, error) {
	return s.repo.Stats(ctx)
}

func (s *ContractService) get(ctx context.Context, contractID uuid.UUID) (*models.Contract, error) {
	contract, err := s.repo.GetByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, repository.ErrContractNotFound) {
			return nil, apperror.ErrContractNotFound
		}
		return nil, err
	}
	return contract, nil
}

func (s *ContractService) notify(userID uuid.UUID, event string, data any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BroadcastToUser(userID, event, data); err != nil {
		logger.Log.WithError(err).Warn("contract service: notify failed")
	}
}
