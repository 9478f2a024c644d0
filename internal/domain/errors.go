package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency.

var (
	// Store errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrPositionNotFound  = errors.New("position not found")
	ErrLiabilityNotFound = errors.New("liability not found")
	ErrAssetNotFound     = errors.New("other asset not found")

	// Submission errors
	ErrNoService  = errors.New("no data service configured")
	ErrSubmitting = errors.New("a submission is already in flight")
)

// ─── Error Taxonomy ─────────────────────────────────────────────────────────
// ValidationError: malformed row, never retried.
// TransientError:  network/5xx-class failure, retried per policy.
// TerminalError:   4xx-class failure, surfaced to the user, never retried.

// ValidationError marks a row that fails basic shape checks before any
// request is attempted.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid row %s: %s", e.Key, e.Reason)
}

// TransientError marks a failure that is safe to retry (network errors,
// 5xx responses).
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// TerminalError marks a client-class failure. Retrying cannot help; the
// error is surfaced as-is.
type TerminalError struct {
	Op     string
	Status int
	Err    error
}

func (e *TerminalError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TerminalError) Unwrap() error { return e.Err }

// IsTransient reports whether an error may be retried. Validation and
// terminal errors never are; anything unclassified is treated as transient
// so that plain transport errors still get the retry policy.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var v *ValidationError
	var t *TerminalError
	if errors.As(err, &v) || errors.As(err, &t) {
		return false
	}
	return true
}

// ClassifyStatus wraps err according to the HTTP status class of a failed
// request: 4xx is terminal, everything else transient.
func ClassifyStatus(op string, status int, err error) error {
	if status >= 400 && status < 500 {
		return &TerminalError{Op: op, Status: status, Err: err}
	}
	return &TransientError{Op: op, Err: err}
}
