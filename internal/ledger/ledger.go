// Package ledger implements the balance-affecting operations. Every
// operation validates its amount, appends exactly one transaction, and
// adjusts the profile balance through the store's atomic posting primitive.
// Nothing here reads a balance and writes it back.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/money"
	"github.com/mora090410/homework/internal/store"
)

// ValidationError rejects an operation before any persistence attempt.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Service wires the ledger operations to their stores.
type Service struct {
	ledger  *store.LedgerStore
	profile *store.ProfileStore
	goals   *store.GoalStore
	logger  *slog.Logger
}

func NewService(ls *store.LedgerStore, ps *store.ProfileStore, gs *store.GoalStore, logger *slog.Logger) *Service {
	return &Service{ledger: ls, profile: ps, goals: gs, logger: logger}
}

// withRetry runs fn with a short bounded backoff, retrying only transient
// store contention (SQLITE_BUSY surfacing through the driver). Domain errors
// pass straight through.
func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	backoff := retry.WithMaxRetries(3, retry.NewConstant(25*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn()
		if err == nil {
			return nil
		}
		if isBusy(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// isBusy reports whether an error looks like SQLite writer contention.
func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// RecordEarning posts a positive EARNING and credits the balance.
func (s *Service) RecordEarning(ctx context.Context, profileID, amountCents int64, memo string, taskID *int64) (*model.Transaction, error) {
	if amountCents <= 0 {
		return nil, &ValidationError{Field: "amount_cents", Reason: "must be a positive integer"}
	}

	var tx *model.Transaction
	err := s.withRetry(ctx, func() error {
		var err error
		tx, err = s.ledger.Append(model.Transaction{
			ProfileID:   profileID,
			Type:        model.TxEarning,
			AmountCents: amountCents,
			Memo:        memo,
			TaskID:      taskID,
		}, amountCents)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("earning recorded", "profile_id", profileID, "amount_cents", amountCents)
	return tx, nil
}

// RecordAdvance posts a negative ADVANCE: the parent pays money out ahead of
// earnings and the balance drops.
func (s *Service) RecordAdvance(ctx context.Context, profileID, amountCents int64, memo string) (*model.Transaction, error) {
	if amountCents <= 0 {
		return nil, &ValidationError{Field: "amount_cents", Reason: "must be a positive integer"}
	}

	var tx *model.Transaction
	err := s.withRetry(ctx, func() error {
		var err error
		tx, err = s.ledger.Append(model.Transaction{
			ProfileID:   profileID,
			Type:        model.TxAdvance,
			AmountCents: -amountCents,
			Memo:        memo,
		}, -amountCents)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("advance recorded", "profile_id", profileID, "amount_cents", amountCents)
	return tx, nil
}

// RecordAdjustment posts a signed manual ADJUSTMENT. Zero is rejected; either
// sign is fine.
func (s *Service) RecordAdjustment(ctx context.Context, profileID, amountCents int64, memo string) (*model.Transaction, error) {
	if amountCents == 0 {
		return nil, &ValidationError{Field: "amount_cents", Reason: "must be a non-zero integer"}
	}
	if strings.TrimSpace(memo) == "" {
		return nil, &ValidationError{Field: "memo", Reason: "adjustments require a reason"}
	}

	var tx *model.Transaction
	err := s.withRetry(ctx, func() error {
		var err error
		tx, err = s.ledger.Append(model.Transaction{
			ProfileID:   profileID,
			Type:        model.TxAdjustment,
			AmountCents: amountCents,
			Memo:        memo,
		}, amountCents)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("adjustment recorded", "profile_id", profileID, "amount_cents", amountCents)
	return tx, nil
}

// RequestWithdrawal records a PENDING withdrawal request. The balance does
// not move; the amount encumbers spendable balance until the request is
// confirmed or rejected.
func (s *Service) RequestWithdrawal(ctx context.Context, profileID, amountCents int64, memo string) (*model.Transaction, error) {
	if amountCents <= 0 {
		return nil, &ValidationError{Field: "amount_cents", Reason: "must be a positive integer"}
	}

	var tx *model.Transaction
	err := s.withRetry(ctx, func() error {
		var err error
		tx, err = s.ledger.RequestWithdrawal(profileID, amountCents, memo)
		return err
	})
	return tx, err
}

// ConfirmWithdrawalPayout marks a pending request PAID and deducts the money.
func (s *Service) ConfirmWithdrawalPayout(ctx context.Context, transactionID int64) (*model.Transaction, error) {
	var tx *model.Transaction
	err := s.withRetry(ctx, func() error {
		var err error
		tx, err = s.ledger.ConfirmWithdrawal(transactionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("withdrawal paid", "transaction_id", transactionID)
	return tx, nil
}

// RejectWithdrawal marks a pending request REJECTED, releasing its
// encumbrance. The balance never moved.
func (s *Service) RejectWithdrawal(ctx context.Context, transactionID int64) (*model.Transaction, error) {
	var tx *model.Transaction
	err := s.withRetry(ctx, func() error {
		var err error
		tx, err = s.ledger.RejectWithdrawal(transactionID)
		return err
	})
	return tx, err
}

// TransferToGoal moves spendable funds into a savings goal.
func (s *Service) TransferToGoal(ctx context.Context, goalID, amountCents int64) (*model.SavingsGoal, error) {
	if amountCents <= 0 {
		return nil, &ValidationError{Field: "amount_cents", Reason: "must be a positive integer"}
	}

	var goal *model.SavingsGoal
	err := s.withRetry(ctx, func() error {
		var err error
		goal, err = s.goals.Allocate(goalID, amountCents, "Savings goal allocation")
		return err
	})
	return goal, err
}

// ReleaseGoal deletes a goal and returns its funds to the profile.
func (s *Service) ReleaseGoal(ctx context.Context, goalID int64) error {
	return s.withRetry(ctx, func() error {
		return s.goals.Release(goalID)
	})
}

// Balances reports a profile's authoritative and spendable balances.
type Balances struct {
	BalanceCents   int64   `json:"balance_cents"`
	Balance        float64 `json:"balance"`
	SpendableCents int64   `json:"spendable_cents"`
	Spendable      float64 `json:"spendable"`
}

func (s *Service) Balances(profileID int64) (*Balances, error) {
	p, err := s.profile.GetByID(profileID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("profile not found")
	}
	pending, err := s.ledger.PendingWithdrawalCents(profileID)
	if err != nil {
		return nil, err
	}

	spendable := p.BalanceCents + pending // pending sum is <= 0
	return &Balances{
		BalanceCents:   p.BalanceCents,
		Balance:        p.Balance,
		SpendableCents: spendable,
		Spendable:      money.CentsToDollars(spendable),
	}, nil
}

// CheckResult is the consistency checker's verdict for one profile.
type CheckResult struct {
	ProfileID      int64 `json:"profile_id"`
	BalanceCents   int64 `json:"balance_cents"`
	LedgerSumCents int64 `json:"ledger_sum_cents"`
	Consistent     bool  `json:"consistent"`
}

// CheckBalance verifies the central invariant: the stored balance equals the
// signed sum of the profile's applied ledger entries.
func (s *Service) CheckBalance(profileID int64) (*CheckResult, error) {
	p, err := s.profile.GetByID(profileID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("profile not found")
	}
	sum, err := s.ledger.AppliedSumCents(profileID)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		ProfileID:      profileID,
		BalanceCents:   p.BalanceCents,
		LedgerSumCents: sum,
		Consistent:     p.BalanceCents == sum,
	}
	if !result.Consistent {
		s.logger.Error("balance invariant violated",
			"profile_id", profileID, "balance_cents", p.BalanceCents, "ledger_sum_cents", sum)
	}
	return result, nil
}
