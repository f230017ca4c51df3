package store

import (
	"database/sql"
	"fmt"

	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/money"
)

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

const transactionCols = `id, profile_id, type, amount_cents, memo, status, task_id, goal_id, balance_after_cents, created_at`

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.Transaction, error) {
	var t model.Transaction
	var status sql.NullString
	var taskID, goalID, balanceAfter sql.NullInt64

	err := scanner.Scan(&t.ID, &t.ProfileID, &t.Type, &t.AmountCents, &t.Memo,
		&status, &taskID, &goalID, &balanceAfter, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if status.Valid {
		ws := model.WithdrawalStatus(status.String)
		t.Status = &ws
	}
	if taskID.Valid {
		t.TaskID = &taskID.Int64
	}
	if goalID.Valid {
		t.GoalID = &goalID.Int64
	}
	if balanceAfter.Valid {
		t.BalanceAfterCents = &balanceAfter.Int64
	}
	t.Amount = money.CentsToDollars(t.AmountCents)
	return &t, nil
}

func getTransaction(db *sql.DB, id int64) (*model.Transaction, error) {
	row := db.QueryRow(`SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// applyBalanceDelta adjusts a profile's balance in place. The relative UPDATE
// is the whole point: the database performs the increment, so two concurrent
// postings to the same profile can never lose an update.
func applyBalanceDelta(tx *sql.Tx, profileID, deltaCents int64) error {
	result, err := tx.Exec(
		`UPDATE profiles SET balance_cents = balance_cents + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		deltaCents, profileID,
	)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("profile %d not found", profileID)
	}
	return nil
}

// Append writes one ledger entry and applies deltaCents to the profile's
// balance as a single SQL transaction. For entries that move money the delta
// equals the entry's signed amount; a pending withdrawal request passes a
// zero delta because no money moves until confirmation.
func (s *LedgerStore) Append(t model.Transaction, deltaCents int64) (*model.Transaction, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var status sql.NullString
	if t.Status != nil {
		status = sql.NullString{String: string(*t.Status), Valid: true}
	}
	var taskID, goalID sql.NullInt64
	if t.TaskID != nil {
		taskID = sql.NullInt64{Int64: *t.TaskID, Valid: true}
	}
	if t.GoalID != nil {
		goalID = sql.NullInt64{Int64: *t.GoalID, Valid: true}
	}

	result, err := tx.Exec(
		`INSERT INTO transactions (profile_id, type, amount_cents, memo, status, task_id, goal_id, balance_after_cents)
		 VALUES (?, ?, ?, ?, ?, ?, ?,
			(SELECT balance_cents FROM profiles WHERE id = ?) + ?)`,
		t.ProfileID, t.Type, t.AmountCents, t.Memo, status, taskID, goalID,
		t.ProfileID, deltaCents,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if deltaCents != 0 {
		if err := applyBalanceDelta(tx, t.ProfileID, deltaCents); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return getTransaction(s.db, id)
}

func (s *LedgerStore) GetByID(id int64) (*model.Transaction, error) {
	return getTransaction(s.db, id)
}

// ListByProfile returns a profile's ledger, newest first.
func (s *LedgerStore) ListByProfile(profileID int64) ([]model.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionCols+` FROM transactions
		 WHERE profile_id = ? ORDER BY created_at DESC, id DESC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// PendingWithdrawalCents sums the pending withdrawal requests for a profile.
// Amounts are stored negative, so the result is <= 0.
func (s *LedgerStore) PendingWithdrawalCents(profileID int64) (int64, error) {
	var sum sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		 WHERE profile_id = ? AND type = ? AND status = ?`,
		profileID, model.TxWithdrawalRequest, model.WithdrawalPending,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum pending withdrawals: %w", err)
	}
	return sum.Int64, nil
}

// ConfirmWithdrawal flips a PENDING withdrawal request to PAID and deducts
// its amount from the profile's balance, atomically. Requests in any other
// state conflict.
func (s *LedgerStore) ConfirmWithdrawal(transactionID int64) (*model.Transaction, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var profileID, amountCents int64
	err = tx.QueryRow(
		`SELECT profile_id, amount_cents FROM transactions
		 WHERE id = ? AND type = ? AND status = ?`,
		transactionID, model.TxWithdrawalRequest, model.WithdrawalPending,
	).Scan(&profileID, &amountCents)
	if err == sql.ErrNoRows {
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, fmt.Errorf("read withdrawal request: %w", err)
	}

	result, err := tx.Exec(
		`UPDATE transactions SET status = ?,
			balance_after_cents = (SELECT balance_cents FROM profiles WHERE id = ?) + ?
		 WHERE id = ? AND status = ?`,
		model.WithdrawalPaid, profileID, amountCents, transactionID, model.WithdrawalPending,
	)
	if err != nil {
		return nil, fmt.Errorf("confirm withdrawal: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrStatusConflict
	}

	// amountCents is stored negative, so applying it deducts.
	if err := applyBalanceDelta(tx, profileID, amountCents); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return getTransaction(s.db, transactionID)
}

// RejectWithdrawal flips a PENDING withdrawal request to REJECTED. No money
// ever moved, so the balance is untouched.
func (s *LedgerStore) RejectWithdrawal(transactionID int64) (*model.Transaction, error) {
	result, err := s.db.Exec(
		`UPDATE transactions SET status = ? WHERE id = ? AND type = ? AND status = ?`,
		model.WithdrawalRejected, transactionID, model.TxWithdrawalRequest, model.WithdrawalPending,
	)
	if err != nil {
		return nil, fmt.Errorf("reject withdrawal: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrStatusConflict
	}
	return getTransaction(s.db, transactionID)
}

// spendableCentsTx computes balance minus pending withdrawal encumbrances
// inside an open transaction, so check-then-write sequences can't race.
func spendableCentsTx(tx *sql.Tx, profileID int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(`SELECT balance_cents FROM profiles WHERE id = ?`, profileID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("profile %d not found", profileID)
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}

	var pending sql.NullInt64
	err = tx.QueryRow(
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		 WHERE profile_id = ? AND type = ? AND status = ?`,
		profileID, model.TxWithdrawalRequest, model.WithdrawalPending,
	).Scan(&pending)
	if err != nil {
		return 0, fmt.Errorf("sum pending withdrawals: %w", err)
	}

	// Pending amounts are stored negative.
	return balance + pending.Int64, nil
}

// RequestWithdrawal records a PENDING withdrawal request. The balance does
// not change; the amount becomes an encumbrance against spendable balance.
// The spendable check happens inside the same transaction as the insert.
func (s *LedgerStore) RequestWithdrawal(profileID, amountCents int64, memo string) (*model.Transaction, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	spendable, err := spendableCentsTx(tx, profileID)
	if err != nil {
		return nil, err
	}
	if amountCents > spendable {
		return nil, ErrInsufficientFunds
	}

	result, err := tx.Exec(
		`INSERT INTO transactions (profile_id, type, amount_cents, memo, status)
		 VALUES (?, ?, ?, ?, ?)`,
		profileID, model.TxWithdrawalRequest, -amountCents, memo, model.WithdrawalPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert withdrawal request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return getTransaction(s.db, id)
}

// AppliedSumCents computes the signed sum of the entries that should be
// reflected in the profile's balance: everything except withdrawal requests
// that never became payouts.
func (s *LedgerStore) AppliedSumCents(profileID int64) (int64, error) {
	var sum sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		 WHERE profile_id = ?
		   AND NOT (type = ? AND status != ?)`,
		profileID, model.TxWithdrawalRequest, model.WithdrawalPaid,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum applied transactions: %w", err)
	}
	return sum.Int64, nil
}
