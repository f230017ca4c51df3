package model

import "time"

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "ACTIVE"
	GoalCompleted GoalStatus = "COMPLETED"
)

// SavingsGoal is a sub-ledger bucket. Funds move from the profile's spendable
// balance into the goal via GOAL_ALLOCATION entries and move back when the
// goal is released. CurrentCents may pass TargetCents (that is what completes
// the goal), but an allocation may never exceed the profile's spendable
// balance.
type SavingsGoal struct {
	ID           int64      `json:"id"`
	ProfileID    int64      `json:"profile_id"`
	Name         string     `json:"name"`
	TargetCents  int64      `json:"target_cents"`
	CurrentCents int64      `json:"current_cents"`
	Status       GoalStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
