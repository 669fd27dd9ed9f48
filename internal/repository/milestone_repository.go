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

var (
	ErrMilestoneNotFound = errors.New("milestone not found")
	// ErrMilestoneTransition is returned when a guarded status update
	// affects no rows, meaning the milestone was not in the expected state.
	ErrMilestoneTransition = errors.New("milestone is not in the expected status")
)

type MilestoneRepository struct {
	db *sqlx.DB
}

func NewMilestoneRepository(db *sqlx.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

// Create inserts a milestone under its contract.
func (r *MilestoneRepository) Create(ctx context.Context, milestone *models.Milestone) error {
	query := `
		INSERT INTO milestones (contract_id, title, description, due_date, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING id, status, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		milestone.ContractID, milestone.Title, milestone.Description, milestone.DueDate,
		milestone.Amount, milestone.Currency,
	).Scan(&milestone.ID, &milestone.Status, &milestone.CreatedAt, &milestone.UpdatedAt)
	if err != nil {
		return fmt.Errorf("milestone repository: create %w", err)
	}
	return nil
}

// GetByID returns a milestone by id.
func (r *MilestoneRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	return common.GetByID[models.Milestone](ctx, r.db, "milestones", id, ErrMilestoneNotFound)
}

// ListByContract returns the contract's milestones in creation order.
func (r *MilestoneRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Milestone, error) {
	var milestones []models.Milestone
	err := r.db.SelectContext(ctx, &milestones, `
		SELECT * FROM milestones WHERE contract_id = $1 ORDER BY created_at
	`, contractID)
	return milestones, err
}

// ListAll returns milestones for the admin dashboard.
func (r *MilestoneRepository) ListAll(ctx context.Context, limit, offset int) ([]models.Milestone, error) {
	var milestones []models.Milestone
	err := r.db.SelectContext(ctx, &milestones, `
		SELECT * FROM milestones ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	return milestones, err
}

// Update replaces the mutable milestone fields.
func (r *MilestoneRepository) Update(ctx context.Context, milestone *models.Milestone) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE milestones SET title = $2, description = $3, due_date = $4, amount = $5,
			currency = $6, updated_at = NOW()
		WHERE id = $1
	`, milestone.ID, milestone.Title, milestone.Description, milestone.DueDate,
		milestone.Amount, milestone.Currency)
	return err
}

// UpdateStatus moves the milestone from one status to another. The WHERE
// guard rejects racing transitions.
func (r *MilestoneRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE milestones SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return fmt.Errorf("milestone repository: update status %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrMilestoneTransition
	}
	return nil
}

// CompleteAndPromote marks an in-progress milestone completed and, when no
// sibling remains incomplete, promotes the owning contract to completed.
// Both writes happen in one transaction so the contract invariant (completed
// implies all milestones completed) cannot be observed broken.
func (r *MilestoneRepository) CompleteAndPromote(ctx context.Context, id uuid.UUID) (contractCompleted bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var contractID uuid.UUID
	err = tx.GetContext(ctx, &contractID, `
		UPDATE milestones SET status = 'completed', updated_at = NOW()
		WHERE id = $1 AND status = 'in_progress'
		RETURNING contract_id
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrMilestoneTransition
		}
		return false, fmt.Errorf("milestone repository: complete %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE contracts SET status = 'completed', updated_at = NOW()
		WHERE id = $1
		  AND status NOT IN ('completed', 'cancelled')
		  AND NOT EXISTS (
			SELECT 1 FROM milestones WHERE contract_id = $1 AND status != 'completed'
		  )
	`, contractID)
	if err != nil {
		return false, fmt.Errorf("milestone repository: promote contract %w", err)
	}
	affected, _ := res.RowsAffected()

	return affected > 0, tx.Commit()
}

// Delete removes a milestone.
func (r *MilestoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM milestones WHERE id = $1`, id)
	return err
}

// AddDeliverable appends a file reference to the milestone.
func (r *MilestoneRepository) AddDeliverable(ctx context.Context, d *models.MilestoneDeliverable) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO milestone_deliverables (milestone_id, file_path, file_name, mime_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, d.MilestoneID, d.FilePath, d.FileName, d.MimeType, d.SizeBytes, d.UploadedBy,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("milestone repository: add deliverable %w", err)
	}
	return nil
}

// ListDeliverables returns the milestone's attached files in upload order.
func (r *MilestoneRepository) ListDeliverables(ctx context.Context, milestoneID uuid.UUID) ([]models.MilestoneDeliverable, error) {
	var deliverables []models.MilestoneDeliverable
	err := r.db.SelectContext(ctx, &deliverables, `
		SELECT * FROM milestone_deliverables WHERE milestone_id = $1 ORDER BY created_at
	`, milestoneID)
	return deliverables, err
}
