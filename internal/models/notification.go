package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types emitted by system events.
const (
	NotificationTypeProposalStatus    = "proposal_status"
	NotificationTypeMilestoneUpdate   = "milestone_update"
	NotificationTypeContractCompleted = "contract_completed"
	NotificationTypeWalletCredit      = "wallet_credit"
	NotificationTypeChatMessage       = "chat_message"
)

// Notification is an event delivered to a user.
type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	Link      *string   `db:"link" json:"link,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
