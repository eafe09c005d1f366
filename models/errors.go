package models

import "fmt"

// ValidationError covers malformed input: unknown status values, missing
// required references. The store never mutates state before returning one.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("validation failed: %s", e.Msg)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError is kept distinct from ValidationError so handlers can render
// 404 vs 400.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidTransitionError reports a status change the state machine forbids.
type InvalidTransitionError struct {
	From LineStatus
	To   LineStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid line transition %s -> %s", e.From, e.To)
}

// DuplicateAssignmentError reports an already-assigned (queue, product) pair.
type DuplicateAssignmentError struct {
	QueueID   string
	ProductID string
}

func (e *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf("product %s is already assigned to queue %s", e.ProductID, e.QueueID)
}

// PersistenceError wraps a storage failure. It is surfaced as-is, never masked
// as success; the failed operation leaves visible state unchanged.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
