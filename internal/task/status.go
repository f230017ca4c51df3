// Package task holds the pure task-domain logic: the lifecycle state machine
// and task valuation. Persistence lives in the store package; everything here
// is computation over in-memory values.
package task

import (
	"fmt"

	"github.com/mora090410/homework/internal/model"
)

// TransitionError reports an operation attempted from a status that does not
// support it.
type TransitionError struct {
	From model.TaskStatus
	To   model.TaskStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal task transition %s -> %s", e.From, e.To)
}

// transitions maps each status to the statuses reachable from it. DELETED is
// handled separately (reachable from any non-PAID status); it never appears
// as a target here.
var transitions = map[model.TaskStatus][]model.TaskStatus{
	model.TaskDraft:           {model.TaskOpen, model.TaskAssigned},
	model.TaskOpen:            {model.TaskAssigned},
	model.TaskAssigned:        {model.TaskPendingApproval},
	model.TaskPendingApproval: {model.TaskPendingPayment, model.TaskAssigned},
	model.TaskPendingPayment:  {model.TaskPaid, model.TaskPendingApproval},
	// Legacy status from older installs; treated like PENDING_PAYMENT.
	model.TaskPendingWithdrawal: {model.TaskPaid, model.TaskPendingApproval},
	model.TaskPaid:              nil,
	model.TaskRejected:          nil,
	model.TaskDeleted:           nil,
}

// CanTransition reports whether moving a task from one status to another is
// legal. Soft deletion is legal from every status except PAID and DELETED.
func CanTransition(from, to model.TaskStatus) bool {
	if to == model.TaskDeleted {
		return from != model.TaskPaid && from != model.TaskDeleted
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a status change, returning a *TransitionError when it
// is illegal.
func Transition(from, to model.TaskStatus) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// Terminal reports whether a status has no further legal transitions.
func Terminal(s model.TaskStatus) bool {
	return s == model.TaskPaid || s == model.TaskDeleted
}
