// internal/domain/errors.go
package domain

import "errors"

var (
	// ErrNotFound means a referenced book, student or borrow record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means the book is already out on loan.
	ErrUnavailable = errors.New("book unavailable")
	// ErrConflict means a deletion is blocked by an open borrow record.
	ErrConflict = errors.New("conflict")
	// ErrLimitExceeded means the student holds too many overdue books to borrow another.
	ErrLimitExceeded = errors.New("overdue limit exceeded")
	// ErrValidation means the command input violates a domain rule.
	ErrValidation = errors.New("validation failed")
)
