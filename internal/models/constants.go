package models

// User roles
const (
	RoleAdmin      = "admin"
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
)

// JobStatus constants
const (
	JobStatusDraft      = "draft"
	JobStatusPublished  = "published"
	JobStatusOpen       = "open"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
	JobStatusExpired    = "expired"
)

// ProposalStatus constants
const (
	ProposalStatusPending   = "pending"
	ProposalStatusAccepted  = "accepted"
	ProposalStatusRejected  = "rejected"
	ProposalStatusWithdrawn = "withdrawn"
)

// ContractStatus constants
const (
	ContractStatusPending    = "pending"
	ContractStatusActive     = "active"
	ContractStatusInProgress = "in_progress"
	ContractStatusCompleted  = "completed"
	ContractStatusCancelled  = "cancelled"
)

// EscrowStatus constants for contracts
const (
	EscrowStatusNotRequired = "not_required"
	EscrowStatusFundsHeld   = "funds_held"
	EscrowStatusReleased    = "released"
	EscrowStatusRefunded    = "refunded"
)

// MilestoneStatus constants
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusCompleted  = "completed"
	MilestoneStatusCancelled  = "cancelled"
)

// TransactionType constants
const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// TransactionStatus constants
const (
	TransactionStatusPending   = "pending"
	TransactionStatusSucceeded = "succeeded"
	TransactionStatusFailed    = "failed"
	TransactionStatusRefunded  = "refunded"
)

// PaymentProvider constants
const (
	ProviderStripe   = "stripe"
	ProviderRazorpay = "razorpay"
	ProviderWallet   = "wallet"
	ProviderBank     = "bank"
)

// BudgetType constants for jobs
const (
	BudgetTypeFixed  = "fixed"
	BudgetTypeHourly = "hourly"
)

// ValidJobStatuses lists the accepted job statuses.
var ValidJobStatuses = map[string]struct{}{
	JobStatusDraft:      {},
	JobStatusPublished:  {},
	JobStatusOpen:       {},
	JobStatusInProgress: {},
	JobStatusCompleted:  {},
	JobStatusCancelled:  {},
	JobStatusExpired:    {},
}

// ValidContractStatuses lists the accepted contract statuses.
var ValidContractStatuses = map[string]struct{}{
	ContractStatusPending:    {},
	ContractStatusActive:     {},
	ContractStatusInProgress: {},
	ContractStatusCompleted:  {},
	ContractStatusCancelled:  {},
}

// ValidEscrowStatuses lists the accepted escrow statuses.
var ValidEscrowStatuses = map[string]struct{}{
	EscrowStatusNotRequired: {},
	EscrowStatusFundsHeld:   {},
	EscrowStatusReleased:    {},
	EscrowStatusRefunded:    {},
}

// MilestoneTransitions is the allowed milestone state machine.
// Skipping states or reversing a transition is rejected.
var MilestoneTransitions = map[string][]string{
	MilestoneStatusPending:    {MilestoneStatusInProgress, MilestoneStatusCancelled},
	MilestoneStatusInProgress: {MilestoneStatusCompleted, MilestoneStatusCancelled},
	MilestoneStatusCompleted:  {},
	MilestoneStatusCancelled:  {},
}

// TransactionTransitions is the allowed transaction state machine:
// pending -> succeeded|failed, succeeded -> refunded. failed is terminal.
var TransactionTransitions = map[string][]string{
	TransactionStatusPending:   {TransactionStatusSucceeded, TransactionStatusFailed},
	TransactionStatusSucceeded: {TransactionStatusRefunded},
	TransactionStatusFailed:    {},
	TransactionStatusRefunded:  {},
}

// CanTransition reports whether to is reachable from from in the given graph.
func CanTransition(graph map[string][]string, from, to string) bool {
	for _, next := range graph[from] {
		if next == to {
			return true
		}
	}
	return false
}
