package models

import (
	"time"

	"github.com/google/uuid"
)

// Proposal is a freelancer's bid on a job.
type Proposal struct {
	ID             uuid.UUID `db:"id" json:"id"`
	JobID          uuid.UUID `db:"job_id" json:"job_id"`
	FreelancerID   uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	CoverLetter    string    `db:"cover_letter" json:"cover_letter"`
	BidAmount      float64   `db:"bid_amount" json:"bid_amount"`
	Currency       string    `db:"currency" json:"currency"`
	EstimatedHours *int      `db:"estimated_hours" json:"estimated_hours,omitempty"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
