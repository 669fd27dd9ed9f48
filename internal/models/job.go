package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lib/pq"
)

// Job describes a client's posted job.
type Job struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	ClientID      uuid.UUID      `db:"client_id" json:"client_id"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	CategoryID    *uuid.UUID     `db:"category_id" json:"category_id,omitempty"`
	Skills        pq.StringArray `db:"skills" json:"skills"`
	BudgetType    string         `db:"budget_type" json:"budget_type"`
	BudgetMin     *float64       `db:"budget_min" json:"budget_min,omitempty"`
	FixedBudget   *float64       `db:"fixed_budget" json:"fixed_budget,omitempty"`
	Currency      string         `db:"currency" json:"currency"`
	DurationWeeks *int           `db:"duration_weeks" json:"duration_weeks,omitempty"`
	Remote        bool           `db:"remote" json:"remote"`
	Location      *string        `db:"location" json:"location,omitempty"`
	Status        string         `db:"status" json:"status"`
	ProposalCount int            `db:"proposal_count" json:"proposal_count"`
	Views         int            `db:"views" json:"views"`
	Featured      bool           `db:"featured" json:"featured"`
	ExpiresAt     *time.Time     `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// JobFilter narrows job listings.
type JobFilter struct {
	ClientID   *uuid.UUID
	CategoryID *uuid.UUID
	Status     string
	Search     string
	Limit      int
	Offset     int
}

// JobStats aggregates jobs by status for the admin dashboard.
type JobStats struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}
