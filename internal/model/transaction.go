package model

import "time"

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TxEarning           TransactionType = "EARNING"
	TxAdvance           TransactionType = "ADVANCE"
	TxAdjustment        TransactionType = "ADJUSTMENT"
	TxWithdrawalRequest TransactionType = "WITHDRAWAL_REQUEST"
	TxGoalAllocation    TransactionType = "GOAL_ALLOCATION"
)

// WithdrawalStatus is the state of a WITHDRAWAL_REQUEST entry. It is the one
// field on a transaction that may change after the row is written.
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "PENDING"
	WithdrawalPaid     WithdrawalStatus = "PAID"
	WithdrawalRejected WithdrawalStatus = "REJECTED"
)

// Transaction is one append-only ledger entry. AmountCents is stored signed:
// earnings positive, advances/withdrawals/goal allocations negative,
// adjustments either. The profile's balance_cents must always equal the
// signed sum of its applicable entries (pending and rejected withdrawal
// requests excluded).
type Transaction struct {
	ID                int64             `json:"id"`
	ProfileID         int64             `json:"profile_id"`
	Type              TransactionType   `json:"type"`
	AmountCents       int64             `json:"amount_cents"`
	Amount            float64           `json:"amount"`
	Memo              string            `json:"memo"`
	Status            *WithdrawalStatus `json:"status,omitempty"`
	TaskID            *int64            `json:"task_id,omitempty"`
	GoalID            *int64            `json:"goal_id,omitempty"`
	BalanceAfterCents *int64            `json:"balance_after_cents,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}
