package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/task"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, household_id, name, description, baseline_minutes, status, assignee_id,
	value_cents, multiplier, bonus_cents, rejection_comment, paid_at, created_at, updated_at`

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var assignee, valueCents sql.NullInt64
	var paidAt sql.NullTime

	err := scanner.Scan(
		&t.ID, &t.HouseholdID, &t.Name, &t.Description, &t.BaselineMinutes, &t.Status,
		&assignee, &valueCents, &t.Multiplier, &t.BonusCents, &t.RejectionComment,
		&paidAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignee.Valid {
		t.AssigneeID = &assignee.Int64
	}
	if valueCents.Valid {
		t.ValueCents = &valueCents.Int64
	}
	if paidAt.Valid {
		t.PaidAt = &paidAt.Time
	}
	return &t, nil
}

// CreateParams carries the fields a parent sets when creating a task.
type CreateParams struct {
	HouseholdID     int64
	Name            string
	Description     string
	BaselineMinutes int
	Status          model.TaskStatus // DRAFT, OPEN, or ASSIGNED
	AssigneeID      *int64
	ValueCents      *int64
	Multiplier      float64
	BonusCents      int64
}

func (s *TaskStore) Create(p CreateParams) (*model.Task, error) {
	var assignee sql.NullInt64
	if p.AssigneeID != nil {
		assignee = sql.NullInt64{Int64: *p.AssigneeID, Valid: true}
	}
	var valueCents sql.NullInt64
	if p.ValueCents != nil {
		valueCents = sql.NullInt64{Int64: *p.ValueCents, Valid: true}
	}
	if p.Multiplier == 0 {
		p.Multiplier = 1.0
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (household_id, name, description, baseline_minutes, status,
			assignee_id, value_cents, multiplier, bonus_cents)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.HouseholdID, p.Name, p.Description, p.BaselineMinutes, p.Status,
		assignee, valueCents, p.Multiplier, p.BonusCents,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListActive returns the household's tasks excluding soft-deleted ones.
func (s *TaskStore) ListActive(householdID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks
		 WHERE household_id = ? AND status != 'DELETED'
		 ORDER BY created_at DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return collectTasks(rows)
}

// ListByStatus returns the household's tasks in one status.
func (s *TaskStore) ListByStatus(householdID int64, status model.TaskStatus) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks
		 WHERE household_id = ? AND status = ?
		 ORDER BY created_at DESC`,
		householdID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by status: %w", err)
	}
	return collectTasks(rows)
}

// ListByAssignee returns a profile's non-deleted tasks.
func (s *TaskStore) ListByAssignee(assigneeID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks
		 WHERE assignee_id = ? AND status != 'DELETED'
		 ORDER BY created_at DESC`,
		assigneeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by assignee: %w", err)
	}
	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]model.Task, error) {
	defer rows.Close()
	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Update edits a task's descriptive and valuation fields; status is never
// touched here, only through the transition methods below.
func (s *TaskStore) Update(id int64, name, description string, baselineMinutes int, valueCents *int64, multiplier float64, bonusCents int64) (*model.Task, error) {
	var vc sql.NullInt64
	if valueCents != nil {
		vc = sql.NullInt64{Int64: *valueCents, Valid: true}
	}
	if multiplier == 0 {
		multiplier = 1.0
	}
	_, err := s.db.Exec(
		`UPDATE tasks SET name = ?, description = ?, baseline_minutes = ?, value_cents = ?,
			multiplier = ?, bonus_cents = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, description, baselineMinutes, vc, multiplier, bonusCents, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

// fieldUpdates is the set of extra columns a transition may set.
type fieldUpdates struct {
	setAssignee      bool
	assigneeID       *int64
	setRejection     bool
	rejectionComment string
}

// conditionalUpdateStatus flips a task's status only if it currently has the
// expected status. Every transition funnels through here: the current status
// is checked against the lifecycle state machine first, so an operation
// attempted from the wrong status gets a *task.TransitionError naming both
// statuses. The conditional WHERE clause then makes the database the arbiter
// of races; losing the swap is an ErrStatusConflict, retryable after a
// re-read.
func (s *TaskStore) conditionalUpdateStatus(id int64, expected, next model.TaskStatus, f fieldUpdates) error {
	var current model.TaskStatus
	err := s.db.QueryRow(`SELECT status FROM tasks WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("read task status: %w", err)
	}
	if current != expected {
		if err := task.Transition(current, next); err != nil {
			return err
		}
		return ErrStatusConflict
	}

	query := `UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP`
	args := []any{next}

	if f.setAssignee {
		query += `, assignee_id = ?`
		if f.assigneeID != nil {
			args = append(args, *f.assigneeID)
		} else {
			args = append(args, nil)
		}
	}
	if f.setRejection {
		query += `, rejection_comment = ?`
		args = append(args, f.rejectionComment)
	}

	query += ` WHERE id = ? AND status = ?`
	args = append(args, id, expected)

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrStatusConflict
	}
	return nil
}

// UpdateStatus flips a task from expected to next with no side fields.
func (s *TaskStore) UpdateStatus(id int64, expected, next model.TaskStatus) error {
	return s.conditionalUpdateStatus(id, expected, next, fieldUpdates{})
}

// Claim assigns an OPEN task to a profile. Exactly one of two racing claims
// can win; the loser gets ErrAlreadyClaimed, as does a claim on a task that
// is already ASSIGNED.
func (s *TaskStore) Claim(id, profileID int64) (*model.Task, error) {
	err := s.conditionalUpdateStatus(id, model.TaskOpen, model.TaskAssigned, fieldUpdates{
		setAssignee: true,
		assigneeID:  &profileID,
	})
	var te *task.TransitionError
	if errors.As(err, &te) && te.From == model.TaskAssigned {
		return nil, ErrAlreadyClaimed
	}
	if err == ErrStatusConflict {
		return nil, ErrAlreadyClaimed
	}
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// Submit moves an ASSIGNED task to PENDING_APPROVAL.
func (s *TaskStore) Submit(id int64) error {
	return s.UpdateStatus(id, model.TaskAssigned, model.TaskPendingApproval)
}

// Approve moves a PENDING_APPROVAL task to PENDING_PAYMENT.
func (s *TaskStore) Approve(id int64) error {
	return s.UpdateStatus(id, model.TaskPendingApproval, model.TaskPendingPayment)
}

// Reject sends a PENDING_APPROVAL task back to ASSIGNED with the parent's
// comment so the child can see why and resubmit. The comment is mandatory; a
// blank one is rejected before anything is written.
func (s *TaskStore) Reject(id int64, comment string) error {
	if strings.TrimSpace(comment) == "" {
		return ErrEmptyRejectionComment
	}
	return s.conditionalUpdateStatus(id, model.TaskPendingApproval, model.TaskAssigned, fieldUpdates{
		setRejection:     true,
		rejectionComment: comment,
	})
}

// UndoApproval reverses a non-paying approval. No ledger effect: nothing was
// posted yet.
func (s *TaskStore) UndoApproval(id int64) error {
	return s.UpdateStatus(id, model.TaskPendingPayment, model.TaskPendingApproval)
}

// MarkPaid flips a PENDING_PAYMENT task to PAID and posts its EARNING in one
// SQL transaction: status flip, ledger row, and balance increment all commit
// or none do. A task already PAID is a no-op success, which is what makes
// paying idempotent; paying from any other status is an illegal transition.
// The amount must be positive: an EARNING never deducts.
func (s *TaskStore) MarkPaid(id, profileID, amountCents int64, memo string) (*model.Transaction, error) {
	if amountCents <= 0 {
		return nil, ErrNonPositiveAmount
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.Exec(
		`UPDATE tasks SET status = ?, paid_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status IN (?, ?)`,
		model.TaskPaid, now, id, model.TaskPendingPayment, model.TaskPendingWithdrawal,
	)
	if err != nil {
		return nil, fmt.Errorf("mark task paid: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		var status model.TaskStatus
		err := tx.QueryRow(`SELECT status FROM tasks WHERE id = ?`, id).Scan(&status)
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		if err != nil {
			return nil, fmt.Errorf("read task status: %w", err)
		}
		if status == model.TaskPaid {
			// Repeat of a completed payment: leave the ledger alone.
			return nil, nil
		}
		if err := task.Transition(status, model.TaskPaid); err != nil {
			return nil, err
		}
		return nil, ErrStatusConflict
	}

	txResult, err := tx.Exec(
		`INSERT INTO transactions (profile_id, type, amount_cents, memo, task_id, balance_after_cents)
		 VALUES (?, ?, ?, ?, ?,
			(SELECT balance_cents FROM profiles WHERE id = ?) + ?)`,
		profileID, model.TxEarning, amountCents, memo, id, profileID, amountCents,
	)
	if err != nil {
		return nil, fmt.Errorf("insert earning: %w", err)
	}
	txID, err := txResult.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := applyBalanceDelta(tx, profileID, amountCents); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return getTransaction(s.db, txID)
}

// SoftDelete marks a non-PAID task DELETED. The row stays; active queries
// filter it out.
func (s *TaskStore) SoftDelete(id int64) error {
	var current model.TaskStatus
	err := s.db.QueryRow(`SELECT status FROM tasks WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("read task status: %w", err)
	}
	if err := task.Transition(current, model.TaskDeleted); err != nil {
		return err
	}

	result, err := s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status NOT IN (?, ?)`,
		model.TaskDeleted, id, model.TaskPaid, model.TaskDeleted,
	)
	if err != nil {
		return fmt.Errorf("soft delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrStatusConflict
	}
	return nil
}
