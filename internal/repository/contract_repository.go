package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/repository/common"
)

var ErrContractNotFound = errors.New("contract not found")

type ContractRepository struct {
	db *sqlx.DB
}

func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create inserts a contract.
func (r *ContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	query := `
		INSERT INTO contracts (job_id, proposal_id, client_id, freelancer_id, total_amount,
			currency, start_date, end_date, status, escrow_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', 'not_required')
		RETURNING id, status, escrow_status, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		contract.JobID, contract.ProposalID, contract.ClientID, contract.FreelancerID,
		contract.TotalAmount, contract.Currency, contract.StartDate, contract.EndDate,
	).Scan(&contract.ID, &contract.Status, &contract.EscrowStatus, &contract.CreatedAt, &contract.UpdatedAt)
	if err != nil {
		return fmt.Errorf("contract repository: create %w", err)
	}
	return nil
}

// GetByID returns a contract by id.
func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	return common.GetByID[models.Contract](ctx, r.db, "contracts", id, ErrContractNotFound)
}

// ListByParticipant returns the contracts where the user is client or
// freelancer, newest first.
func (r *ContractRepository) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.SelectContext(ctx, &contracts, `
		SELECT * FROM contracts WHERE client_id = $1 OR freelancer_id = $1 ORDER BY created_at DESC
	`, userID)
	return contracts, err
}

// Update replaces the mutable contract fields.
func (r *ContractRepository) Update(ctx context.Context, contract *models.Contract) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE contracts SET total_amount = $2, currency = $3, start_date = $4, end_date = $5,
			updated_at = NOW()
		WHERE id = $1
	`, contract.ID, contract.TotalAmount, contract.Currency, contract.StartDate, contract.EndDate)
	return err
}

// UpdateStatus sets the contract status.
func (r *ContractRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contracts SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrContractNotFound
	}
	return nil
}

// UpdateEscrowStatus sets the escrow status.
func (r *ContractRepository) UpdateEscrowStatus(ctx context.Context, id uuid.UUID, escrowStatus string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contracts SET escrow_status = $2, updated_at = NOW() WHERE id = $1
	`, id, escrowStatus)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrContractNotFound
	}
	return nil
}

// Delete removes a contract.
func (r *ContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	return err
}

// CompleteIfAllMilestonesDone promotes the contract to completed when it has
// at least one milestone and none remain incomplete. The WHERE guard makes
// the write idempotent: a second pass over an unchanged milestone set
// affects zero rows.
func (r *ContractRepository) CompleteIfAllMilestonesDone(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contracts SET status = 'completed', updated_at = NOW()
		WHERE id = $1
		  AND status NOT IN ('completed', 'cancelled')
		  AND EXISTS (SELECT 1 FROM milestones WHERE contract_id = $1)
		  AND NOT EXISTS (
			SELECT 1 FROM milestones WHERE contract_id = $1 AND status != 'completed'
		  )
	`, id)
	if err != nil {
		return false, fmt.Errorf("contract repository: complete if all milestones done %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Stats aggregates contracts by status for the admin dashboard.
func (r *ContractRepository) Stats(ctx context.Context) ([]models.ContractStats, error) {
	var stats []models.ContractStats
	err := r.db.SelectContext(ctx, &stats, `
		SELECT status, COUNT(*) as count, COALESCE(SUM(total_amount), 0) as total_amount
		FROM contracts GROUP BY status
	`)
	return stats, err
}
