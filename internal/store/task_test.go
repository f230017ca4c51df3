package store

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mora090410/homework/internal/database"
	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/task"
)

func setupTestDB(t *testing.T) (*HouseholdStore, *ProfileStore, *TaskStore, *LedgerStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewHouseholdStore(db), NewProfileStore(db), NewTaskStore(db), NewLedgerStore(db)
}

// setupFileTestDB backs the database with a file so concurrent goroutines
// share one schema through the connection pool.
func setupFileTestDB(t *testing.T) (*HouseholdStore, *ProfileStore, *TaskStore, *LedgerStore) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewHouseholdStore(db), NewProfileStore(db), NewTaskStore(db), NewLedgerStore(db)
}

func mustHousehold(t *testing.T, hs *HouseholdStore) *model.Household {
	t.Helper()
	h, err := hs.CreateDefault("Test Family")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return h
}

func mustChild(t *testing.T, ps *ProfileStore, householdID int64, name string) *model.Profile {
	t.Helper()
	p, err := ps.Create(householdID, name, model.RoleChild)
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return p
}

func TestTaskCreateDefaults(t *testing.T) {
	hs, _, ts, _ := setupTestDB(t)
	h := mustHousehold(t, hs)

	task, err := ts.Create(CreateParams{
		HouseholdID:     h.ID,
		Name:            "Mow the lawn",
		BaselineMinutes: 45,
		Status:          model.TaskOpen,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != model.TaskOpen {
		t.Errorf("status = %q, want OPEN", task.Status)
	}
	if task.Multiplier != 1.0 {
		t.Errorf("multiplier = %v, want 1.0", task.Multiplier)
	}
	if task.AssigneeID != nil {
		t.Errorf("assignee = %v, want nil", task.AssigneeID)
	}
}

func TestClaimOpenTask(t *testing.T) {
	hs, ps, ts, _ := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	task, err := ts.Create(CreateParams{HouseholdID: h.ID, Name: "Dishes", Status: model.TaskOpen})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	claimed, err := ts.Claim(task.ID, child.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Status != model.TaskAssigned {
		t.Errorf("status = %q, want ASSIGNED", claimed.Status)
	}
	if claimed.AssigneeID == nil || *claimed.AssigneeID != child.ID {
		t.Errorf("assignee = %v, want %d", claimed.AssigneeID, child.ID)
	}
}

func TestClaimNonOpenTaskFails(t *testing.T) {
	hs, ps, ts, _ := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	draft, err := ts.Create(CreateParams{HouseholdID: h.ID, Name: "Dishes", Status: model.TaskDraft})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := ts.Claim(draft.ID, child.ID); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("claim of DRAFT task = %v, want ErrAlreadyClaimed", err)
	}

	// A task someone else already holds reads as claimed too.
	taken, _ := ts.Create(CreateParams{HouseholdID: h.ID, Name: "Laundry", Status: model.TaskOpen})
	if _, err := ts.Claim(taken.ID, child.ID); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, err := ts.Claim(taken.ID, child.ID); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("claim of ASSIGNED task = %v, want ErrAlreadyClaimed", err)
	}
}

func TestClaimRace(t *testing.T) {
	hs, ps, ts, _ := setupFileTestDB(t)
	h := mustHousehold(t, hs)
	a := mustChild(t, ps, h.ID, "Ada")
	b := mustChild(t, ps, h.ID, "Ben")

	task, err := ts.Create(CreateParams{HouseholdID: h.ID, Name: "Dishes", Status: model.TaskOpen})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = ts.Claim(task.ID, a.ID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = ts.Claim(task.ID, b.ID)
	}()
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyClaimed):
			losses++
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("wins = %d, losses = %d, want exactly one of each", wins, losses)
	}

	final, err := ts.GetByID(task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if final.Status != model.TaskAssigned {
		t.Errorf("final status = %q, want ASSIGNED", final.Status)
	}
	if final.AssigneeID == nil {
		t.Fatal("final task has no assignee")
	}
	if *final.AssigneeID != a.ID && *final.AssigneeID != b.ID {
		t.Errorf("assignee = %d, want %d or %d", *final.AssigneeID, a.ID, b.ID)
	}
}

func TestSubmitApproveRejectFlow(t *testing.T) {
	hs, ps, ts, _ := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	created, _ := ts.Create(CreateParams{HouseholdID: h.ID, Name: "Dishes", Status: model.TaskOpen})
	if _, err := ts.Claim(created.ID, child.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := ts.Submit(created.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Submitting twice is an illegal transition: it is no longer ASSIGNED.
	var te *task.TransitionError
	if err := ts.Submit(created.ID); !errors.As(err, &te) {
		t.Errorf("second submit = %v, want TransitionError", err)
	}

	if err := ts.Reject(created.ID, "Still crumbs on the counter"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	got, _ := ts.GetByID(created.ID)
	if got.Status != model.TaskAssigned {
		t.Errorf("status after reject = %q, want ASSIGNED", got.Status)
	}
	if got.RejectionComment != "Still crumbs on the counter" {
		t.Errorf("rejection comment = %q", got.RejectionComment)
	}

	// Resubmit and approve.
	if err := ts.Submit(created.ID); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if err := ts.Approve(created.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got, _ = ts.GetByID(created.ID)
	if got.Status != model.TaskPendingPayment {
		t.Errorf("status after approve = %q, want PENDING_PAYMENT", got.Status)
	}

	// Undo approval reverses with no ledger effect.
	if err := ts.UndoApproval(created.ID); err != nil {
		t.Fatalf("undo approval: %v", err)
	}
	got, _ = ts.GetByID(created.ID)
	if got.Status != model.TaskPendingApproval {
		t.Errorf("status after undo = %q, want PENDING_APPROVAL", got.Status)
	}
}

func TestRejectRequiresComment(t *testing.T) {
	hs, ps, ts, _ := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	task, _ := ts.Create(CreateParams{HouseholdID: h.ID, Name: "Dishes", Status: model.TaskOpen})
	ts.Claim(task.ID, child.ID)
	ts.Submit(task.ID)

	for _, comment := range []string{"", "   ", "\t\n"} {
		if err := ts.Reject(task.ID, comment); !errors.Is(err, ErrEmptyRejectionComment) {
			t.Errorf("Reject(%q) = %v, want ErrEmptyRejectionComment", comment, err)
		}
	}

	// Status untouched by the failed rejections.
	got, _ := ts.GetByID(task.ID)
	if got.Status != model.TaskPendingApproval {
		t.Errorf("status = %q, want PENDING_APPROVAL", got.Status)
	}
}

func TestApproveFromWrongStatusFails(t *testing.T) {
	hs, _, ts, _ := setupTestDB(t)
	h := mustHousehold(t, hs)

	draft, _ := ts.Create(CreateParams{HouseholdID: h.ID, Name: "Dishes", Status: model.TaskDraft})
	err := ts.Approve(draft.ID)

	// The error names the status the task is actually in and the one the
	// approval tried to reach.
	var te *task.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("approve of DRAFT = %v, want TransitionError", err)
	}
	if te.From != model.TaskDraft || te.To != model.TaskPendingPayment {
		t.Errorf("transition error = %s -> %s, want DRAFT -> PENDING_PAYMENT", te.From, te.To)
	}
}

func TestMarkPaidPostsEarningOnce(t *testing.T) {
	hs, ps, ts, ls := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	task, _ := ts.Create(CreateParams{HouseholdID: h.ID, Name: "Dishes", Status: model.TaskOpen})
	ts.Claim(task.ID, child.ID)
	ts.Submit(task.ID)
	ts.Approve(task.ID)

	tx, err := ts.MarkPaid(task.ID, child.ID, 500, "Dishes")
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if tx == nil || tx.Type != model.TxEarning || tx.AmountCents != 500 {
		t.Fatalf("earning = %+v, want EARNING of 500", tx)
	}
	if tx.BalanceAfterCents == nil || *tx.BalanceAfterCents != 500 {
		t.Errorf("balance_after = %v, want 500", tx.BalanceAfterCents)
	}

	// Paying again is a no-op success: no second earning, no balance change.
	tx2, err := ts.MarkPaid(task.ID, child.ID, 500, "Dishes")
	if err != nil {
		t.Fatalf("second mark paid: %v", err)
	}
	if tx2 != nil {
		t.Errorf("second payment posted a transaction: %+v", tx2)
	}

	txs, err := ls.ListByProfile(child.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transaction count = %d, want 1", len(txs))
	}

	p, _ := ps.GetByID(child.ID)
	if p.BalanceCents != 500 {
		t.Errorf("balance = %d, want 500", p.BalanceCents)
	}

	got, _ := ts.GetByID(task.ID)
	if got.Status != model.TaskPaid {
		t.Errorf("status = %q, want PAID", got.Status)
	}
	if got.PaidAt == nil {
		t.Error("paid_at not set")
	}
}

func TestMarkPaidFromWrongStatusFails(t *testing.T) {
	hs, ps, ts, _ := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	open, _ := ts.Create(CreateParams{HouseholdID: h.ID, Name: "Dishes", Status: model.TaskOpen})
	_, err := ts.MarkPaid(open.ID, child.ID, 500, "")

	var te *task.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("pay of OPEN task = %v, want TransitionError", err)
	}
	if te.From != model.TaskOpen || te.To != model.TaskPaid {
		t.Errorf("transition error = %s -> %s, want OPEN -> PAID", te.From, te.To)
	}
}

func TestMarkPaidRejectsNonPositiveAmount(t *testing.T) {
	hs, ps, ts, ls := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	created, _ := ts.Create(CreateParams{HouseholdID: h.ID, Name: "Dishes", Status: model.TaskOpen})
	ts.Claim(created.ID, child.ID)
	ts.Submit(created.ID)
	ts.Approve(created.ID)

	for _, amount := range []int64{0, -500} {
		if _, err := ts.MarkPaid(created.ID, child.ID, amount, "Dishes"); !errors.Is(err, ErrNonPositiveAmount) {
			t.Errorf("MarkPaid(%d) = %v, want ErrNonPositiveAmount", amount, err)
		}
	}

	// Nothing moved: no status flip, no ledger row, no balance change.
	got, _ := ts.GetByID(created.ID)
	if got.Status != model.TaskPendingPayment {
		t.Errorf("status = %q, want PENDING_PAYMENT", got.Status)
	}
	txs, err := ls.ListByProfile(child.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("transaction count = %d, want 0", len(txs))
	}
	p, _ := ps.GetByID(child.ID)
	if p.BalanceCents != 0 {
		t.Errorf("balance = %d, want 0", p.BalanceCents)
	}
}

func TestSoftDeleteFiltersFromActive(t *testing.T) {
	hs, _, ts, _ := setupTestDB(t)
	h := mustHousehold(t, hs)

	doomed, _ := ts.Create(CreateParams{HouseholdID: h.ID, Name: "Dishes", Status: model.TaskOpen})
	keep, _ := ts.Create(CreateParams{HouseholdID: h.ID, Name: "Laundry", Status: model.TaskOpen})

	if err := ts.SoftDelete(doomed.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	active, err := ts.ListActive(h.ID)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != keep.ID {
		t.Fatalf("active tasks = %+v, want only %d", active, keep.ID)
	}

	// The row still exists.
	got, err := ts.GetByID(doomed.ID)
	if err != nil {
		t.Fatalf("get deleted task: %v", err)
	}
	if got == nil || got.Status != model.TaskDeleted {
		t.Errorf("deleted task = %+v, want DELETED row", got)
	}

	// Deleting again is illegal; DELETED has no outgoing transitions.
	var te *task.TransitionError
	if err := ts.SoftDelete(doomed.ID); !errors.As(err, &te) {
		t.Errorf("second delete = %v, want TransitionError", err)
	}
}
