package service

import "fmt"

// ValidationError reports a user-correctable input problem, naming the
// offending field so callers can surface it next to the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// GoalSafetyError rejects a goal whose weekly rate falls outside the
// health-safe bounds. Suggested carries the nearest safe rate so callers
// can offer a correction instead of silently clamping.
type GoalSafetyError struct {
	Reason    string
	Suggested float64
}

func (e *GoalSafetyError) Error() string {
	return e.Reason
}

// SourceUnavailableError wraps a failed external health-source call. It is
// absorbed inside the balance engine and never surfaces past it.
type SourceUnavailableError struct {
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("health source unavailable: %v", e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// PersistenceError wraps a store failure after bounded retries.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
