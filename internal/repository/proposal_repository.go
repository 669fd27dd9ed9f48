package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/repository/common"
)

var ErrProposalNotFound = errors.New("proposal not found")

type ProposalRepository struct {
	db *sqlx.DB
}

func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Create inserts a proposal and bumps the job's proposal counter in one tx.
func (r *ProposalRepository) Create(ctx context.Context, proposal *models.Proposal) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO proposals (job_id, freelancer_id, cover_letter, bid_amount, currency, estimated_hours, status)
			VALUES ($1, $2, $3, $4, $5, $6, 'pending')
			RETURNING id, status, created_at, updated_at
		`, proposal.JobID, proposal.FreelancerID, proposal.CoverLetter, proposal.BidAmount,
			proposal.Currency, proposal.EstimatedHours,
		).Scan(&proposal.ID, &proposal.Status, &proposal.CreatedAt, &proposal.UpdatedAt)
		if err != nil {
			return fmt.Errorf("proposal repository: create %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE jobs SET proposal_count = proposal_count + 1 WHERE id = $1
		`, proposal.JobID); err != nil {
			return fmt.Errorf("proposal repository: bump proposal count %w", err)
		}
		return nil
	})
}

// GetByID returns a proposal by id.
func (r *ProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	return common.GetByID[models.Proposal](ctx, r.db, "proposals", id, ErrProposalNotFound)
}

// GetLiveByJobAndFreelancer returns the freelancer's non-withdrawn proposal
// for a job, or nil when none exists.
func (r *ProposalRepository) GetLiveByJobAndFreelancer(ctx context.Context, jobID, freelancerID uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.GetContext(ctx, &proposal, `
		SELECT * FROM proposals
		WHERE job_id = $1 AND freelancer_id = $2 AND status != 'withdrawn'
	`, jobID, freelancerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &proposal, nil
}

// ListByFreelancer returns a freelancer's proposals, newest first.
func (r *ProposalRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.SelectContext(ctx, &proposals, `
		SELECT * FROM proposals WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	return proposals, err
}

// ListByJob returns all proposals for a job.
func (r *ProposalRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.SelectContext(ctx, &proposals, `
		SELECT * FROM proposals WHERE job_id = $1 ORDER BY created_at DESC
	`, jobID)
	return proposals, err
}

// ListAll returns proposals for the admin dashboard.
func (r *ProposalRepository) ListAll(ctx context.Context, limit, offset int) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.SelectContext(ctx, &proposals, `
		SELECT * FROM proposals ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	return proposals, err
}

// UpdateStatus sets the proposal status.
func (r *ProposalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE proposals SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrProposalNotFound
	}
	return nil
}

// Delete removes a proposal.
func (r *ProposalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM proposals WHERE id = $1`, id)
	return err
}
