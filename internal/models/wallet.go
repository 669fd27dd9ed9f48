package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet tracks a user's spendable balance. Balance never goes below zero;
// held funds are moved out of balance into active hold rows.
type Wallet struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Balance   float64   `db:"balance" json:"balance"`
	Currency  string    `db:"currency" json:"currency"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Loaded separately
	Holds []WalletHold `json:"holds,omitempty"`
}

// WalletHold is an amount earmarked for an in-flight contract or milestone.
// ReleasedAt set means the hold is no longer active.
type WalletHold struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	WalletID   uuid.UUID  `db:"wallet_id" json:"wallet_id"`
	Amount     float64    `db:"amount" json:"amount"`
	Reason     string     `db:"reason" json:"reason"`
	RelatedID  *uuid.UUID `db:"related_id" json:"related_id,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ReleasedAt *time.Time `db:"released_at" json:"released_at,omitempty"`
}

// Transaction is an immutable-once-terminal record of a balance-affecting
// event. Status follows pending -> succeeded|failed, succeeded -> refunded.
type Transaction struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	WalletID           uuid.UUID  `db:"wallet_id" json:"wallet_id"`
	UserID             uuid.UUID  `db:"user_id" json:"user_id"`
	Type               string     `db:"type" json:"type"`
	Amount             float64    `db:"amount" json:"amount"`
	Currency           string     `db:"currency" json:"currency"`
	Status             string     `db:"status" json:"status"`
	Provider           string     `db:"provider" json:"provider"`
	ProviderPaymentID  *string    `db:"provider_payment_id" json:"provider_payment_id,omitempty"`
	Reason             string     `db:"reason" json:"reason"`
	RelatedContractID  *uuid.UUID `db:"related_contract_id" json:"related_contract_id,omitempty"`
	RelatedMilestoneID *uuid.UUID `db:"related_milestone_id" json:"related_milestone_id,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// TransactionStats aggregates transactions for the admin dashboard.
type TransactionStats struct {
	Status      string  `db:"status" json:"status"`
	Type        string  `db:"type" json:"type"`
	Count       int     `db:"count" json:"count"`
	TotalAmount float64 `db:"total_amount" json:"total_amount"`
}
