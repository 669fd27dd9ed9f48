package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/repository/common"
)

var ErrJobNotFound = errors.New("job not found")

type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (client_id, title, description, category_id, skills, budget_type,
			budget_min, fixed_budget, currency, duration_weeks, remote, location, status,
			featured, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, proposal_count, views, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		job.ClientID, job.Title, job.Description, job.CategoryID, job.Skills, job.BudgetType,
		job.BudgetMin, job.FixedBudget, job.Currency, job.DurationWeeks, job.Remote,
		job.Location, job.Status, job.Featured, job.ExpiresAt,
	).Scan(&job.ID, &job.ProposalCount, &job.Views, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("job repository: create %w", err)
	}
	return nil
}

// GetByID returns a job by id.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return common.GetByID[models.Job](ctx, r.db, "jobs", id, ErrJobNotFound)
}

// IncrementViews bumps the view counter.
func (r *JobRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE jobs SET views = views + 1 WHERE id = $1`, id)
	return err
}

// List returns jobs matching the filter, newest first.
func (r *JobRepository) List(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	addArg := func(cond string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, cond+"$"+strconv.Itoa(len(args)))
	}

	if filter.ClientID != nil {
		addArg("client_id = ", *filter.ClientID)
	}
	if filter.CategoryID != nil {
		addArg("category_id = ", *filter.CategoryID)
	}
	if filter.Status != "" {
		addArg("status = ", filter.Status)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		conditions = append(conditions, "(title ILIKE $"+n+" OR description ILIKE $"+n+")")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT * FROM jobs WHERE %s
		ORDER BY featured DESC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(conditions, " AND "), len(args)-1, len(args))

	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, query, args...)
	return jobs, err
}

// Update replaces the mutable job fields.
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET title = $2, description = $3, category_id = $4, skills = $5,
			budget_type = $6, budget_min = $7, fixed_budget = $8, currency = $9,
			duration_weeks = $10, remote = $11, location = $12, expires_at = $13,
			updated_at = NOW()
		WHERE id = $1
	`, job.ID, job.Title, job.Description, job.CategoryID, job.Skills, job.BudgetType,
		job.BudgetMin, job.FixedBudget, job.Currency, job.DurationWeeks, job.Remote,
		job.Location, job.ExpiresAt)
	return err
}

// UpdateStatus sets the job status.
func (r *JobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Delete removes a job.
func (r *JobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	return err
}

// IncrementProposalCount bumps the proposal counter.
func (r *JobRepository) IncrementProposalCount(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE jobs SET proposal_count = proposal_count + 1 WHERE id = $1`, id)
	return err
}

// Stats aggregates jobs by status.
func (r *JobRepository) Stats(ctx context.Context) ([]models.JobStats, error) {
	var stats []models.JobStats
	err := r.db.SelectContext(ctx, &stats, `
		SELECT status, COUNT(*) as count FROM jobs GROUP BY status
	`)
	return stats, err
}
