package store

import (
	"errors"
	"testing"

	"github.com/mora090410/homework/internal/database"
	"github.com/mora090410/homework/internal/model"
)

func setupGoalTestDB(t *testing.T) (*ProfileStore, *LedgerStore, *GoalStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hs := NewHouseholdStore(db)
	ps := NewProfileStore(db)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")
	return ps, NewLedgerStore(db), NewGoalStore(db), child.ID
}

func TestAllocateMovesSpendableFunds(t *testing.T) {
	ps, ls, gs, childID := setupGoalTestDB(t)
	ls.Append(model.Transaction{ProfileID: childID, Type: model.TxEarning, AmountCents: 2000}, 2000)

	goal, err := gs.Create(childID, "New bike", 10000)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	goal, err = gs.Allocate(goal.ID, 1500, "Saving up")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if goal.CurrentCents != 1500 {
		t.Errorf("current = %d, want 1500", goal.CurrentCents)
	}
	if goal.Status != model.GoalActive {
		t.Errorf("status = %q, want ACTIVE", goal.Status)
	}

	p, _ := ps.GetByID(childID)
	if p.BalanceCents != 500 {
		t.Errorf("balance = %d, want 500", p.BalanceCents)
	}
	sum, _ := ls.AppliedSumCents(childID)
	if sum != 500 {
		t.Errorf("ledger sum = %d, want 500", sum)
	}
}

func TestAllocateBeyondSpendableFails(t *testing.T) {
	_, ls, gs, childID := setupGoalTestDB(t)
	ls.Append(model.Transaction{ProfileID: childID, Type: model.TxEarning, AmountCents: 1000}, 1000)
	ls.RequestWithdrawal(childID, 600, "")

	goal, _ := gs.Create(childID, "New bike", 10000)
	if _, err := gs.Allocate(goal.ID, 500, ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("over-allocation = %v, want ErrInsufficientFunds", err)
	}

	// Spendable is 400; exactly that much is fine.
	if _, err := gs.Allocate(goal.ID, 400, ""); err != nil {
		t.Errorf("exact allocation = %v, want nil", err)
	}
}

func TestAllocationReachingTargetCompletesGoal(t *testing.T) {
	_, ls, gs, childID := setupGoalTestDB(t)
	ls.Append(model.Transaction{ProfileID: childID, Type: model.TxEarning, AmountCents: 5000}, 5000)

	goal, _ := gs.Create(childID, "Skateboard", 3000)
	goal, err := gs.Allocate(goal.ID, 3000, "")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if goal.Status != model.GoalCompleted {
		t.Errorf("status = %q, want COMPLETED", goal.Status)
	}

	// Completed goals take no further allocations.
	if _, err := gs.Allocate(goal.ID, 100, ""); !errors.Is(err, ErrStatusConflict) {
		t.Errorf("allocate to completed goal = %v, want ErrStatusConflict", err)
	}
}

func TestReleaseReturnsFunds(t *testing.T) {
	ps, ls, gs, childID := setupGoalTestDB(t)
	ls.Append(model.Transaction{ProfileID: childID, Type: model.TxEarning, AmountCents: 2000}, 2000)

	goal, _ := gs.Create(childID, "New bike", 10000)
	gs.Allocate(goal.ID, 1200, "")

	if err := gs.Release(goal.ID); err != nil {
		t.Fatalf("release: %v", err)
	}

	p, _ := ps.GetByID(childID)
	if p.BalanceCents != 2000 {
		t.Errorf("balance after release = %d, want 2000", p.BalanceCents)
	}
	sum, _ := ls.AppliedSumCents(childID)
	if sum != 2000 {
		t.Errorf("ledger sum after release = %d, want 2000", sum)
	}

	if g, _ := gs.GetByID(goal.ID); g != nil {
		t.Errorf("goal still exists after release: %+v", g)
	}

	// Both the outbound and refund entries are on the ledger.
	txs, _ := ls.ListByProfile(childID)
	var allocations int
	for _, tx := range txs {
		if tx.Type == model.TxGoalAllocation {
			allocations++
		}
	}
	if allocations != 2 {
		t.Errorf("allocation entries = %d, want 2", allocations)
	}
}
