package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/logger"
	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/pkg/apperror"
	"github.com/gigscape/backend/internal/repository"
	"github.com/gigscape/backend/internal/validation"
)

// MilestoneRepository is the storage surface MilestoneService depends on.
type MilestoneRepository interface {
	Create(ctx context.Context, milestone *models.Milestone) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Milestone, error)
	Update(ctx context.Context, milestone *models.Milestone) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error
	CompleteAndPromote(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context, limit, offset int) ([]models.Milestone, error)
	AddDeliverable(ctx context.Context, d *models.MilestoneDeliverable) error
	ListDeliverables(ctx context.Context, milestoneID uuid.UUID) ([]models.MilestoneDeliverable, error)
}

// MilestoneContractRepository loads contracts for access checks.
type MilestoneContractRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
}

// ContractSettler pays a completed contract's escrow out. The contract
// service implements it.
type ContractSettler interface {
	Settle(ctx context.Context, contractID uuid.UUID) error
}

// DeliverableStore persists uploaded milestone files.
type DeliverableStore interface {
	Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (path, mimeType string, size int64, err error)
}

// MilestoneService enforces the milestone state machine and drives
// contract completion off milestone completion events.
type MilestoneService struct {
	repo      MilestoneRepository
	contracts MilestoneContractRepository
	settler   ContractSettler
	store     DeliverableStore
	notifier  Notifier
}

// CreateMilestoneInput carries a new milestone's fields.
type CreateMilestoneInput struct {
	ContractID  uuid.UUID
	Title       string
	Description string
	DueDate     *time.Time
	Amount      float64
}

func NewMilestoneService(
	repo MilestoneRepository,
	contracts MilestoneContractRepository,
	settler ContractSettler,
	store DeliverableStore,
	notifier Notifier,
) *MilestoneService {
	return &MilestoneService{
		repo:      repo,
		contracts: contracts,
		settler:   settler,
		store:     store,
		notifier:  notifier,
	}
}

// Create adds a milestone to an open contract, client only.
func (s *MilestoneService) Create(ctx context.Context, clientID uuid.UUID, in CreateMilestoneInput) (*models.Milestone, error) {
	if err := validation.ValidateLength("title", in.Title, 2, 200); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmount("amount", in.Amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	contract, err := s.contract(ctx, in.ContractID)
	if err != nil {
		return nil, err
	}
	if contract.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}
	if contract.Status == models.ContractStatusCompleted || contract.Status == models.ContractStatusCancelled {
		return nil, apperror.New(apperror.ErrCodeConflict, "contract is closed")
	}

	milestone := &models.Milestone{
		ContractID:  in.ContractID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Amount:      in.Amount,
		Currency:    contract.Currency,
	}

	if err := s.repo.Create(ctx, milestone); err != nil {
		return nil, err
	}

	s.notify(contract.FreelancerID, "milestone.created", milestone)

	return milestone, nil
}

// Get returns a milestone with its deliverables, participants only.
func (s *MilestoneService) Get(ctx context.Context, milestoneID, userID uuid.UUID) (*models.Milestone, error) {
	milestone, _, err := s.load(ctx, milestoneID, userID)
	if err != nil {
		return nil, err
	}

	deliverables, err := s.repo.ListDeliverables(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	milestone.Deliverables = deliverables

	return milestone, nil
}

// ListByContract returns the contract's milestones, participants only.
func (s *MilestoneService) ListByContract(ctx context.Context, contractID, userID uuid.UUID) ([]models.Milestone, error) {
	contract, err := s.contract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !contract.Participant(userID) {
		return nil, apperror.ErrForbidden
	}
	return s.repo.ListByContract(ctx, contractID)
}

// Start moves a pending milestone to in_progress, freelancer only.
func (s *MilestoneService) Start(ctx context.Context, milestoneID, userID uuid.UUID) (*models.Milestone, error) {
	milestone, contract, err := s.load(ctx, milestoneID, userID)
	if err != nil {
		return nil, err
	}
	if contract.FreelancerID != userID {
		return nil, apperror.ErrForbidden
	}
	if err := contractOpen(contract); err != nil {
		return nil, err
	}

	return s.transition(ctx, milestone, models.MilestoneStatusInProgress)
}

// Cancel moves a pending or in_progress milestone to cancelled. A cancelled
// milestone keeps the contract from completing until it is removed or the
// contract itself is cancelled.
func (s *MilestoneService) Cancel(ctx context.Context, milestoneID, userID uuid.UUID) (*models.Milestone, error) {
	milestone, contract, err := s.load(ctx, milestoneID, userID)
	if err != nil {
		return nil, err
	}
	if contract.ClientID != userID {
		return nil, apperror.ErrForbidden
	}
	if err := contractOpen(contract); err != nil {
		return nil, err
	}

	return s.transition(ctx, milestone, models.MilestoneStatusCancelled)
}

// Complete finishes an in_progress milestone, client only, and promotes the
// contract to completed when it was the last one. The milestone and
// contract updates commit atomically.
func (s *MilestoneService) Complete(ctx context.Context, milestoneID, userID uuid.UUID) (*models.Milestone, error) {
	milestone, contract, err := s.load(ctx, milestoneID, userID)
	if err != nil {
		return nil, err
	}
	if contract.ClientID != userID {
		return nil, apperror.ErrForbidden
	}
	if err := contractOpen(contract); err != nil {
		return nil, err
	}

	if !models.CanTransition(models.MilestoneTransitions, milestone.Status, models.MilestoneStatusCompleted) {
		return nil, apperror.New(apperror.ErrCodeConflict,
			fmt.Sprintf("milestone cannot move from %s to %s", milestone.Status, models.MilestoneStatusCompleted))
	}

	contractCompleted, err := s.repo.CompleteAndPromote(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, repository.ErrMilestoneTransition) {
			return nil, apperror.New(apperror.ErrCodeConflict, "milestone is not in progress")
		}
		return nil, err
	}
	milestone.Status = models.MilestoneStatusCompleted

	s.notify(contract.FreelancerID, "milestone.completed", milestone)

	if contractCompleted {
		if err := s.settler.Settle(ctx, contract.ID); err != nil {
			// The contract is completed either way; settlement retries via
			// the reconcile endpoint.
			logger.Log.WithError(err).WithField("contract_id", contract.ID).
				Error("milestone service: settlement failed after completion")
		}
	}

	return milestone, nil
}

// UpdateMilestoneInput carries the editable milestone fields. Nil fields are
// left untouched.
type UpdateMilestoneInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Amount      *float64
}

// Update edits a milestone that has not reached a terminal state, client only.
func (s *MilestoneService) Update(ctx context.Context, milestoneID, userID uuid.UUID, in UpdateMilestoneInput) (*models.Milestone, error) {
	milestone, contract, err := s.load(ctx, milestoneID, userID)
	if err != nil {
		return nil, err
	}
	if contract.ClientID != userID {
		return nil, apperror.ErrForbidden
	}
	if milestone.Status == models.MilestoneStatusCompleted || milestone.Status == models.MilestoneStatusCancelled {
		return nil, apperror.New(apperror.ErrCodeConflict, "milestone is already closed")
	}

	if in.Title != nil {
		if err := validation.ValidateLength("title", *in.Title, 2, 200); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		milestone.Title = *in.Title
	}
	if in.Description != nil {
		milestone.Description = *in.Description
	}
	if in.DueDate != nil {
		milestone.DueDate = in.DueDate
	}
	if in.Amount != nil {
		if err := validation.ValidateAmount("amount", *in.Amount); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		milestone.Amount = *in.Amount
	}

	if err := s.repo.Update(ctx, milestone); err != nil {
		return nil, err
	}
	return milestone, nil
}

// Delete removes a milestone. Completed milestones are paid-for work and stay
// put unless an admin forces the removal.
func (s *MilestoneService) Delete(ctx context.Context, milestoneID, userID uuid.UUID, force bool) error {
	milestone, err := s.repo.GetByID(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, repository.ErrMilestoneNotFound) {
			return apperror.ErrMilestoneNotFound
		}
		return err
	}

	if !force {
		contract, err := s.contract(ctx, milestone.ContractID)
		if err != nil {
			return err
		}
		if contract.ClientID != userID {
			return apperror.ErrForbidden
		}
		if milestone.Status == models.MilestoneStatusCompleted {
			return apperror.New(apperror.ErrCodeConflict, "completed milestones cannot be deleted")
		}
	}

	return s.repo.Delete(ctx, milestoneID)
}

// ListAll pages through every milestone for the admin dashboard.
func (s *MilestoneService) ListAll(ctx context.Context, limit, offset int) ([]models.Milestone, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListAll(ctx, limit, offset)
}

// AttachDeliverable stores an uploaded file against the milestone,
// freelancer only.
func (s *MilestoneService) AttachDeliverable(ctx context.Context, milestoneID, userID uuid.UUID, fileName string, r io.Reader) (*models.MilestoneDeliverable, error) {
	milestone, contract, err := s.load(ctx, milestoneID, userID)
	if err != nil {
		return nil, err
	}
	if contract.FreelancerID != userID {
		return nil, apperror.ErrForbidden
	}
	if milestone.Status != models.MilestoneStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeConflict, "deliverables can only be attached to a milestone in progress")
	}

	path, mimeType, size, err := s.store.Save(ctx, userID, fileName, r)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, err.Error())
	}

	deliverable := &models.MilestoneDeliverable{
		MilestoneID: milestoneID,
		FilePath:    path,
		FileName:    fileName,
		MimeType:    mimeType,
		SizeBytes:   size,
		UploadedBy:  userID,
	}

	if err := s.repo.AddDeliverable(ctx, deliverable); err != nil {
		return nil, err
	}

	s.notify(contract.ClientID, "milestone.deliverable", deliverable)

	return deliverable, nil
}

// contractOpen rejects milestone work on a completed or cancelled contract.
// Cancelled and completed are terminal; their milestones are frozen.
func contractOpen(contract *models.Contract) error {
	if contract.Status == models.ContractStatusCompleted || contract.Status == models.ContractStatusCancelled {
		return apperror.New(apperror.ErrCodeConflict, "contract is closed")
	}
	return nil
}

func (s *MilestoneService) transition(ctx context.Context, milestone *models.Milestone, to string) (*models.Milestone, error) {
	if !models.CanTransition(models.MilestoneTransitions, milestone.Status, to) {
		return nil, apperror.New(apperror.ErrCodeConflict,
			fmt.Sprintf("milestone cannot move from %s to %s", milestone.Status, to))
	}

	if err := s.repo.UpdateStatus(ctx, milestone.ID, milestone.Status, to); err != nil {
		if errors.Is(err, repository.ErrMilestoneTransition) {
			return nil, apperror.New(apperror.ErrCodeConflict, "milestone status changed concurrently")
		}
		return nil, err
	}

	milestone.Status = to
	return milestone, nil
}

func (s *MilestoneService) load(ctx context.Context, milestoneID, userID uuid.UUID) (*models.Milestone, *models.Contract, error) {
	milestone, err := s.repo.GetByID(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, repository.ErrMilestoneNotFound) {
			return nil, nil, apperror.ErrMilestoneNotFound
		}
		return nil, nil, err
	}

	contract, err := s.contract(ctx, milestone.ContractID)
	if err != nil {
		return nil, nil, err
	}
	if !contract.Participant(userID) {
		return nil, nil, apperror.ErrForbidden
	}

	return milestone, contract, nil
}

func (s *MilestoneService) contract(ctx context.Context, contractID uuid.UUID) (*models.Contract, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, repository.ErrContractNotFound) {
			return nil, apperror.ErrContractNotFound
		}
		return nil, err
	}
	return contract, nil
}

func (s *MilestoneService) notify(userID uuid.UUID, event string, data any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BroadcastToUser(userID, event, data); err != nil {
		logger.Log.WithError(err).Warn("milestone service: notify failed")
	}
}
