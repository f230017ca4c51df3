package model

import "time"

// TaskStatus is the lifecycle state of a task. Transition legality lives in
// the task package; the model only enumerates the values.
type TaskStatus string

const (
	TaskDraft           TaskStatus = "DRAFT"
	TaskOpen            TaskStatus = "OPEN"
	TaskAssigned        TaskStatus = "ASSIGNED"
	TaskPendingApproval TaskStatus = "PENDING_APPROVAL"
	TaskPendingPayment  TaskStatus = "PENDING_PAYMENT"
	// TaskPendingWithdrawal appears in data imported from older installs.
	// No current operation produces it; it behaves like PENDING_PAYMENT.
	TaskPendingWithdrawal TaskStatus = "PENDING_WITHDRAWAL"
	TaskPaid              TaskStatus = "PAID"
	TaskRejected          TaskStatus = "REJECTED"
	TaskDeleted           TaskStatus = "DELETED"
)

// Task is a unit of assignable work. ValueCents, when set, is a flat payment
// that overrides rate-based valuation. Multiplier and BonusCents feed the
// computed path. Tasks are never physically deleted; DELETED is a terminal
// status filtered from active views.
type Task struct {
	ID               int64      `json:"id"`
	HouseholdID      int64      `json:"household_id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	BaselineMinutes  int        `json:"baseline_minutes"`
	Status           TaskStatus `json:"status"`
	AssigneeID       *int64     `json:"assignee_id"`
	ValueCents       *int64     `json:"value_cents,omitempty"`
	Multiplier       float64    `json:"multiplier"`
	BonusCents       int64      `json:"bonus_cents"`
	RejectionComment string     `json:"rejection_comment,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
