// Package store implements the persistence layer over SQLite. Each entity
// gets its own store struct; the two concurrency-sensitive operations (task
// claiming, ledger posting) run as conditional updates and single SQL
// transactions so the database, not application locks, provides atomicity.
package store

import "errors"

var (
	// ErrStatusConflict means a conditional status update found the row in a
	// different status than expected. Retryable by the caller after a re-read.
	ErrStatusConflict = errors.New("status conflict")

	// ErrAlreadyClaimed means a claim lost the race for an OPEN task.
	ErrAlreadyClaimed = errors.New("task already claimed")

	// ErrInsufficientFunds means an operation would draw more than the
	// profile's spendable balance.
	ErrInsufficientFunds = errors.New("insufficient spendable balance")

	// ErrEmptyRejectionComment means a rejection was attempted without
	// telling the child why.
	ErrEmptyRejectionComment = errors.New("rejection comment is required")

	// ErrNonPositiveAmount means a posting was attempted with a zero or
	// negative amount. Earnings only ever add money.
	ErrNonPositiveAmount = errors.New("amount must be positive")
)
