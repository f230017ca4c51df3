package store

import (
	"database/sql"
	"fmt"

	"github.com/mora090410/homework/internal/model"
)

type GoalStore struct {
	db *sql.DB
}

func NewGoalStore(db *sql.DB) *GoalStore {
	return &GoalStore{db: db}
}

const goalCols = `id, profile_id, name, target_cents, current_cents, status, created_at, updated_at`

func scanGoal(scanner interface{ Scan(...any) error }) (*model.SavingsGoal, error) {
	var g model.SavingsGoal
	err := scanner.Scan(&g.ID, &g.ProfileID, &g.Name, &g.TargetCents, &g.CurrentCents,
		&g.Status, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *GoalStore) Create(profileID int64, name string, targetCents int64) (*model.SavingsGoal, error) {
	result, err := s.db.Exec(
		`INSERT INTO savings_goals (profile_id, name, target_cents) VALUES (?, ?, ?)`,
		profileID, name, targetCents,
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *GoalStore) GetByID(id int64) (*model.SavingsGoal, error) {
	row := s.db.QueryRow(`SELECT `+goalCols+` FROM savings_goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *GoalStore) ListByProfile(profileID int64) ([]model.SavingsGoal, error) {
	rows, err := s.db.Query(
		`SELECT `+goalCols+` FROM savings_goals WHERE profile_id = ? ORDER BY created_at ASC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []model.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// Allocate moves amountCents from the profile's spendable balance into the
// goal: one GOAL_ALLOCATION ledger entry, a balance decrement, and a goal
// increment, all in one SQL transaction. Reaching or passing the target marks
// the goal COMPLETED. Drawing past the spendable balance fails with
// ErrInsufficientFunds and changes nothing.
func (s *GoalStore) Allocate(goalID, amountCents int64, memo string) (*model.SavingsGoal, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var profileID, targetCents, currentCents int64
	err = tx.QueryRow(
		`SELECT profile_id, target_cents, current_cents FROM savings_goals WHERE id = ? AND status = ?`,
		goalID, model.GoalActive,
	).Scan(&profileID, &targetCents, &currentCents)
	if err == sql.ErrNoRows {
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, fmt.Errorf("read goal: %w", err)
	}

	spendable, err := spendableCentsTx(tx, profileID)
	if err != nil {
		return nil, err
	}
	if amountCents > spendable {
		return nil, ErrInsufficientFunds
	}

	_, err = tx.Exec(
		`INSERT INTO transactions (profile_id, type, amount_cents, memo, goal_id, balance_after_cents)
		 VALUES (?, ?, ?, ?, ?,
			(SELECT balance_cents FROM profiles WHERE id = ?) - ?)`,
		profileID, model.TxGoalAllocation, -amountCents, memo, goalID, profileID, amountCents,
	)
	if err != nil {
		return nil, fmt.Errorf("insert allocation: %w", err)
	}

	if err := applyBalanceDelta(tx, profileID, -amountCents); err != nil {
		return nil, err
	}

	newCurrent := currentCents + amountCents
	status := model.GoalActive
	if newCurrent >= targetCents {
		status = model.GoalCompleted
	}
	_, err = tx.Exec(
		`UPDATE savings_goals SET current_cents = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newCurrent, status, goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(goalID)
}

// Release deletes a goal and returns its accumulated funds to the profile's
// balance via a positive GOAL_ALLOCATION entry, atomically.
func (s *GoalStore) Release(goalID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var profileID, currentCents int64
	var name string
	err = tx.QueryRow(
		`SELECT profile_id, current_cents, name FROM savings_goals WHERE id = ?`,
		goalID,
	).Scan(&profileID, &currentCents, &name)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("read goal: %w", err)
	}

	if currentCents > 0 {
		_, err = tx.Exec(
			`INSERT INTO transactions (profile_id, type, amount_cents, memo, goal_id, balance_after_cents)
			 VALUES (?, ?, ?, ?, ?,
				(SELECT balance_cents FROM profiles WHERE id = ?) + ?)`,
			profileID, model.TxGoalAllocation, currentCents,
			fmt.Sprintf("Returned from goal %q", name), goalID, profileID, currentCents,
		)
		if err != nil {
			return fmt.Errorf("insert refund: %w", err)
		}
		if err := applyBalanceDelta(tx, profileID, currentCents); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`DELETE FROM savings_goals WHERE id = ?`, goalID); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
