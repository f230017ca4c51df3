package task

import (
	"errors"
	"testing"

	"github.com/mora090410/homework/internal/model"
)

func TestLegalTransitions(t *testing.T) {
	legal := []struct{ from, to model.TaskStatus }{
		{model.TaskDraft, model.TaskOpen},
		{model.TaskDraft, model.TaskAssigned},
		{model.TaskOpen, model.TaskAssigned},
		{model.TaskAssigned, model.TaskPendingApproval},
		{model.TaskPendingApproval, model.TaskPendingPayment},
		{model.TaskPendingApproval, model.TaskAssigned},
		{model.TaskPendingPayment, model.TaskPaid},
		{model.TaskPendingPayment, model.TaskPendingApproval},
		{model.TaskPendingWithdrawal, model.TaskPaid},
	}
	for _, c := range legal {
		if !CanTransition(c.from, c.to) {
			t.Errorf("CanTransition(%s, %s) = false, want true", c.from, c.to)
		}
		if err := Transition(c.from, c.to); err != nil {
			t.Errorf("Transition(%s, %s) = %v, want nil", c.from, c.to, err)
		}
	}
}

func TestIllegalTransitions(t *testing.T) {
	illegal := []struct{ from, to model.TaskStatus }{
		{model.TaskDraft, model.TaskPendingApproval},
		{model.TaskDraft, model.TaskPaid},
		{model.TaskOpen, model.TaskPendingApproval},
		{model.TaskOpen, model.TaskPaid},
		{model.TaskAssigned, model.TaskPaid},
		{model.TaskAssigned, model.TaskPendingPayment},
		{model.TaskPendingApproval, model.TaskPaid},
		{model.TaskPaid, model.TaskOpen},
		{model.TaskPaid, model.TaskAssigned},
		{model.TaskDeleted, model.TaskOpen},
		{model.TaskOpen, model.TaskDraft},
	}
	for _, c := range illegal {
		if CanTransition(c.from, c.to) {
			t.Errorf("CanTransition(%s, %s) = true, want false", c.from, c.to)
		}
		err := Transition(c.from, c.to)
		var te *TransitionError
		if !errors.As(err, &te) {
			t.Errorf("Transition(%s, %s) error = %v, want *TransitionError", c.from, c.to, err)
			continue
		}
		if te.From != c.from || te.To != c.to {
			t.Errorf("TransitionError = %s -> %s, want %s -> %s", te.From, te.To, c.from, c.to)
		}
	}
}

func TestSoftDeleteFromAnyNonPaid(t *testing.T) {
	deletable := []model.TaskStatus{
		model.TaskDraft, model.TaskOpen, model.TaskAssigned,
		model.TaskPendingApproval, model.TaskPendingPayment, model.TaskRejected,
	}
	for _, s := range deletable {
		if !CanTransition(s, model.TaskDeleted) {
			t.Errorf("CanTransition(%s, DELETED) = false, want true", s)
		}
	}
	if CanTransition(model.TaskPaid, model.TaskDeleted) {
		t.Error("paid tasks must not be deletable")
	}
	if CanTransition(model.TaskDeleted, model.TaskDeleted) {
		t.Error("DELETED -> DELETED must be illegal")
	}
}

func TestTerminal(t *testing.T) {
	if !Terminal(model.TaskPaid) || !Terminal(model.TaskDeleted) {
		t.Error("PAID and DELETED are terminal")
	}
	if Terminal(model.TaskOpen) || Terminal(model.TaskPendingPayment) {
		t.Error("OPEN and PENDING_PAYMENT are not terminal")
	}
}
