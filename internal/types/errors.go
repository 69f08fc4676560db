// internal/types/errors.go
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionBusy is returned when a transition loses the per-date lock to a
// concurrent invocation. The caller should retry.
var ErrSessionBusy = errors.New("session busy: another transition is in progress")

// ErrSessionNotFound is returned when an operation references a date that has
// no session yet.
var ErrSessionNotFound = errors.New("session not found")

// InvalidFilenameError marks an inbox file whose name doesn't match
// SYMBOL_TIMEFRAME_DATE.ext. The file is left in place for inspection.
type InvalidFilenameError struct {
	Name   string
	Reason string
}

func (e *InvalidFilenameError) Error() string {
	return fmt.Sprintf("invalid filename %q: %s", e.Name, e.Reason)
}

// PreconditionError marks a state transition attempted before its inputs
// exist, e.g. prompt assembly on an empty session.
type PreconditionError struct {
	Date   SessionDate
	Status SessionStatus
	Op     string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("session %s is %s: cannot %s", e.Date, e.Status, e.Op)
}

// FetchError wraps a failed calendar or news fetch. Cached data is preserved.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError collects the problems found in a submitted response.
// The session stays prompted and the raw payload is retained.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid response: " + strings.Join(e.Problems, "; ")
}
