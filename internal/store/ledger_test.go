package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/mora090410/homework/internal/model"
)

func TestAppendAdjustsBalance(t *testing.T) {
	hs, ps, _, ls := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	tx, err := ls.Append(model.Transaction{
		ProfileID:   child.ID,
		Type:        model.TxEarning,
		AmountCents: 750,
		Memo:        "Raked leaves",
	}, 750)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if tx.AmountCents != 750 || tx.Amount != 7.50 {
		t.Errorf("amount = %d / %v, want 750 / 7.50", tx.AmountCents, tx.Amount)
	}

	p, _ := ps.GetByID(child.ID)
	if p.BalanceCents != 750 {
		t.Errorf("balance = %d, want 750", p.BalanceCents)
	}
	if p.Balance != 7.50 {
		t.Errorf("dollar balance = %v, want 7.50", p.Balance)
	}
}

func TestConcurrentAppendsLoseNoUpdate(t *testing.T) {
	hs, ps, _, ls := setupFileTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ls.Append(model.Transaction{
				ProfileID:   child.ID,
				Type:        model.TxEarning,
				AmountCents: 100,
			}, 100)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	p, _ := ps.GetByID(child.ID)
	if p.BalanceCents != int64(workers)*100 {
		t.Errorf("balance = %d, want %d", p.BalanceCents, workers*100)
	}

	sum, err := ls.AppliedSumCents(child.ID)
	if err != nil {
		t.Fatalf("applied sum: %v", err)
	}
	if sum != p.BalanceCents {
		t.Errorf("ledger sum = %d, balance = %d; must match", sum, p.BalanceCents)
	}
}

func TestWithdrawalLifecycle(t *testing.T) {
	hs, ps, _, ls := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	// Fund the profile.
	if _, err := ls.Append(model.Transaction{ProfileID: child.ID, Type: model.TxEarning, AmountCents: 1000}, 1000); err != nil {
		t.Fatalf("fund: %v", err)
	}

	req, err := ls.RequestWithdrawal(child.ID, 400, "Toy store")
	if err != nil {
		t.Fatalf("request withdrawal: %v", err)
	}
	if req.Status == nil || *req.Status != model.WithdrawalPending {
		t.Fatalf("status = %v, want PENDING", req.Status)
	}
	if req.AmountCents != -400 {
		t.Errorf("amount = %d, want -400 (stored signed)", req.AmountCents)
	}

	// Balance unchanged; encumbrance visible.
	p, _ := ps.GetByID(child.ID)
	if p.BalanceCents != 1000 {
		t.Errorf("balance after request = %d, want 1000", p.BalanceCents)
	}
	pending, _ := ls.PendingWithdrawalCents(child.ID)
	if pending != -400 {
		t.Errorf("pending = %d, want -400", pending)
	}

	// Pending requests are excluded from the applied sum.
	sum, _ := ls.AppliedSumCents(child.ID)
	if sum != 1000 {
		t.Errorf("applied sum = %d, want 1000", sum)
	}

	// Confirm deducts.
	paid, err := ls.ConfirmWithdrawal(req.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if paid.Status == nil || *paid.Status != model.WithdrawalPaid {
		t.Errorf("status = %v, want PAID", paid.Status)
	}
	p, _ = ps.GetByID(child.ID)
	if p.BalanceCents != 600 {
		t.Errorf("balance after payout = %d, want 600", p.BalanceCents)
	}
	sum, _ = ls.AppliedSumCents(child.ID)
	if sum != 600 {
		t.Errorf("applied sum after payout = %d, want 600", sum)
	}

	// Confirming twice conflicts.
	if _, err := ls.ConfirmWithdrawal(req.ID); !errors.Is(err, ErrStatusConflict) {
		t.Errorf("second confirm = %v, want ErrStatusConflict", err)
	}
}

func TestRejectWithdrawalReleasesEncumbrance(t *testing.T) {
	hs, ps, _, ls := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	ls.Append(model.Transaction{ProfileID: child.ID, Type: model.TxEarning, AmountCents: 500}, 500)
	req, err := ls.RequestWithdrawal(child.ID, 500, "")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	rejected, err := ls.RejectWithdrawal(req.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status == nil || *rejected.Status != model.WithdrawalRejected {
		t.Errorf("status = %v, want REJECTED", rejected.Status)
	}

	p, _ := ps.GetByID(child.ID)
	if p.BalanceCents != 500 {
		t.Errorf("balance = %d, want 500 (reject moves no money)", p.BalanceCents)
	}
	pending, _ := ls.PendingWithdrawalCents(child.ID)
	if pending != 0 {
		t.Errorf("pending = %d, want 0", pending)
	}
	// Rejected requests never count toward the applied sum.
	sum, _ := ls.AppliedSumCents(child.ID)
	if sum != 500 {
		t.Errorf("applied sum = %d, want 500", sum)
	}
}

func TestRequestWithdrawalBeyondSpendableFails(t *testing.T) {
	hs, ps, _, ls := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	ls.Append(model.Transaction{ProfileID: child.ID, Type: model.TxEarning, AmountCents: 1000}, 1000)

	if _, err := ls.RequestWithdrawal(child.ID, 700, ""); err != nil {
		t.Fatalf("first request: %v", err)
	}
	// 300 spendable left; asking for 400 must fail.
	if _, err := ls.RequestWithdrawal(child.ID, 400, ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("over-request = %v, want ErrInsufficientFunds", err)
	}
	if _, err := ls.RequestWithdrawal(child.ID, 300, ""); err != nil {
		t.Errorf("exact spendable request = %v, want nil", err)
	}
}

func TestBalanceInvariantAcrossMixedOperations(t *testing.T) {
	hs, ps, _, ls := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	ls.Append(model.Transaction{ProfileID: child.ID, Type: model.TxEarning, AmountCents: 1500}, 1500)
	ls.Append(model.Transaction{ProfileID: child.ID, Type: model.TxAdvance, AmountCents: -300}, -300)
	ls.Append(model.Transaction{ProfileID: child.ID, Type: model.TxAdjustment, AmountCents: 50}, 50)
	ls.Append(model.Transaction{ProfileID: child.ID, Type: model.TxAdjustment, AmountCents: -25}, -25)
	req, _ := ls.RequestWithdrawal(child.ID, 200, "")
	ls.ConfirmWithdrawal(req.ID)
	req2, _ := ls.RequestWithdrawal(child.ID, 100, "")
	ls.RejectWithdrawal(req2.ID)

	p, _ := ps.GetByID(child.ID)
	sum, _ := ls.AppliedSumCents(child.ID)
	want := int64(1500 - 300 + 50 - 25 - 200)
	if p.BalanceCents != want {
		t.Errorf("balance = %d, want %d", p.BalanceCents, want)
	}
	if sum != p.BalanceCents {
		t.Errorf("ledger sum = %d, balance = %d; invariant violated", sum, p.BalanceCents)
	}
}
