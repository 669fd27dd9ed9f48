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

// JobRepository is the storage surface JobService depends on.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.JobFilter) ([]models.Job, error)
	Update(ctx context.Context, job *models.Job) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) ([]models.JobStats, error)
}

// JobService owns job posting and listing rules.
type JobService struct {
	repo JobRepository
}

// CreateJobInput carries the fields a client submits for a new job.
type CreateJobInput struct {
	Title         string
	Description   string
	CategoryID    *uuid.UUID
	Skills        []string
	BudgetType    string
	BudgetMin     *float64
	FixedBudget   *float64
	Currency      string
	DurationWeeks *int
	Remote        bool
	Location      *string
}

func NewJobService(repo JobRepository) *JobService {
	return &JobService{repo: repo}
}

// Create validates and posts a new job in the open status.
func (s *JobService) Create(ctx context.Context, clientID uuid.UUID, in CreateJobInput) (*models.Job, error) {
	if err := validation.ValidateLength("title", in.Title, 3, 200); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("description", in.Description, 10, 10000); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.Currency != "" {
		if err := validation.ValidateCurrency(in.Currency); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if in.BudgetType != models.BudgetTypeFixed && in.BudgetType != models.BudgetTypeHourly {
		in.BudgetType = models.BudgetTypeFixed
	}
	if in.FixedBudget != nil {
		if err := validation.ValidateAmount("fixed_budget", *in.FixedBudget); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	job := &models.Job{
		ClientID:      clientID,
		Title:         in.Title,
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		Skills:        in.Skills,
		BudgetType:    in.BudgetType,
		BudgetMin:     in.BudgetMin,
		FixedBudget:   in.FixedBudget,
		Currency:      in.Currency,
		DurationWeeks: in.DurationWeeks,
		Remote:        in.Remote,
		Location:      in.Location,
		Status:        models.JobStatusOpen,
	}
	if job.Skills == nil {
		job.Skills = []string{}
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"job_id":    job.ID,
		"client_id": clientID,
	}).Info("job service: job posted")

	return job, nil
}

// Get loads a job and counts the view.
func (s *JobService) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, err
	}

	if err := s.repo.IncrementViews(ctx, id); err != nil {
		logger.Log.WithError(err).WithField("job_id", id).Warn("job service: failed to count view")
	}

	return job, nil
}

// List returns jobs matching the filter.
func (s *JobService) List(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter)
}

// Update applies edits to the client's own job.
func (s *JobService) Update(ctx context.Context, jobID, clientID uuid.UUID, in CreateJobInput) (*models.Job, error) {
	job, err := s.ownJob(ctx, jobID, clientID)
	if err != nil {
		return nil, err
	}

	if job.Status != models.JobStatusOpen && job.Status != models.JobStatusDraft {
		return nil, apperror.New(apperror.ErrCodeConflict, "only open or draft jobs can be edited")
	}

	if in.Title != "" {
		if err := validation.ValidateLength("title", in.Title, 3, 200); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		job.Title = in.Title
	}
	if in.Description != "" {
		if err := validation.ValidateLength("description", in.Description, 10, 10000); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		job.Description = in.Description
	}
	if in.Skills != nil {
		job.Skills = in.Skills
	}
	if in.CategoryID != nil {
		job.CategoryID = in.CategoryID
	}
	if in.FixedBudget != nil {
		if err := validation.ValidateAmount("fixed_budget", *in.FixedBudget); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		job.FixedBudget = in.FixedBudget
	}
	if in.Location != nil {
		job.Location = in.Location
	}
	job.Remote = in.Remote

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Close moves the client's job to the cancelled status.
func (s *JobService) Close(ctx context.Context, jobID, clientID uuid.UUID) error {
	if _, err := s.ownJob(ctx, jobID, clientID); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, jobID, models.JobStatusCancelled)
}

// Delete removes a draft job. Posted jobs are closed, not deleted.
func (s *JobService) Delete(ctx context.Context, jobID, clientID uuid.UUID) error {
	job, err := s.ownJob(ctx, jobID, clientID)
	if err != nil {
		return err
	}
	if job.Status != models.JobStatusDraft {
		return apperror.New(apperror.ErrCodeConflict, "only draft jobs can be deleted")
	}
	return s.repo.Delete(ctx, jobID)
}

// Stats aggregates jobs by status for the admin dashboard.
func (s *JobService) Stats(ctx context.Context) ([]models.JobStats, error) {
	return s.repo.Stats(ctx)
}

func (s *JobService) ownJob(ctx context.Context, jobID, clientID uuid.UUID) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, err
	}
	if job.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}
	return job, nil
}
