// Package decode coerces loosely-typed record data (imported household data,
// request payloads, rows written by older app versions) into the typed enums
// and structs the rest of the system works with.
//
// Fallback policy, kept from the original data model on purpose: an unknown
// task status decodes to OPEN and an unknown grade decodes to C. Callers that
// need to distinguish "defaulted" from "matched" check the ok result.
package decode

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mora090410/homework/internal/model"
)

// Grade parses a grade string. Unknown values fall back to C with ok=false.
func Grade(s string) (model.Grade, bool) {
	g := model.Grade(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range model.Grades() {
		if g == known {
			return g, true
		}
	}
	return model.GradeC, false
}

// TaskStatus parses a task status string. Unknown values fall back to OPEN
// with ok=false.
func TaskStatus(s string) (model.TaskStatus, bool) {
	st := model.TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case model.TaskDraft, model.TaskOpen, model.TaskAssigned,
		model.TaskPendingApproval, model.TaskPendingPayment,
		model.TaskPendingWithdrawal, model.TaskPaid,
		model.TaskRejected, model.TaskDeleted:
		return st, true
	}
	return model.TaskOpen, false
}

// TransactionType parses a ledger entry type. There is no fallback for
// transaction types: an unknown type is a decode error, because defaulting a
// ledger entry's type would silently corrupt balances.
func TransactionType(s string) (model.TransactionType, error) {
	tt := model.TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	switch tt {
	case model.TxEarning, model.TxAdvance, model.TxAdjustment,
		model.TxWithdrawalRequest, model.TxGoalAllocation:
		return tt, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// rawSubject is the loosely-typed subject shape found in imported data.
type rawSubject struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Grade string `json:"grade"`
}

// Subjects decodes a JSON array of subjects, applying the grade fallback per
// entry. Malformed JSON is an error; a subject with a blank name is an error;
// an unknown grade is not.
func Subjects(data []byte) ([]model.Subject, error) {
	var raw []rawSubject
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode subjects: %w", err)
	}

	subs := make([]model.Subject, 0, len(raw))
	for i, r := range raw {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("subject %d: name is required", i)
		}
		grade, _ := Grade(r.Grade)
		subs = append(subs, model.Subject{ID: r.ID, Name: name, Grade: grade})
	}
	return subs, nil
}
