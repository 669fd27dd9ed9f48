package models

import (
	"time"

	"github.com/google/uuid"
)

// Contract is the agreement between a client and a freelancer for a job.
// Status completed is only reachable when every milestone is completed.
type Contract struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	JobID        uuid.UUID  `db:"job_id" json:"job_id"`
	ProposalID   uuid.UUID  `db:"proposal_id" json:"proposal_id"`
	ClientID     uuid.UUID  `db:"client_id" json:"client_id"`
	FreelancerID uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	TotalAmount  float64    `db:"total_amount" json:"total_amount"`
	Currency     string     `db:"currency" json:"currency"`
	StartDate    *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	Status       string     `db:"status" json:"status"`
	EscrowStatus string     `db:"escrow_status" json:"escrow_status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	// Loaded separately
	Milestones []Milestone `json:"milestones,omitempty"`
}

// Participant reports whether userID is a party to the contract.
func (c *Contract) Participant(userID uuid.UUID) bool {
	return userID == c.ClientID || userID == c.FreelancerID
}

// Peer returns the other party of the contract.
func (c *Contract) Peer(userID uuid.UUID) uuid.UUID {
	if userID == c.ClientID {
		return c.FreelancerID
	}
	return c.ClientID
}

// ContractStats aggregates contracts by status for the admin dashboard.
type ContractStats struct {
	Status      string  `db:"status" json:"status"`
	Count       int     `db:"count" json:"count"`
	TotalAmount float64 `db:"total_amount" json:"total_amount"`
}
