package planner

import (
	"errors"
	"fmt"
)

// ErrBusy short-circuits a re-entrant trigger while an identical operation
// is still in flight (double-click guard).
var ErrBusy = errors.New("operation already in progress")

// ValidationError means user input failed a precondition. The operation was
// never dispatched; surface the message next to the control.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RoutineUnavailableError means the routine could not be created or loaded.
// All task operations are refused until a retry succeeds.
type RoutineUnavailableError struct {
	Err error
}

func (e *RoutineUnavailableError) Error() string {
	return fmt.Sprintf("routine unavailable: %v", e.Err)
}

func (e *RoutineUnavailableError) Unwrap() error {
	return e.Err
}

// BulkOperationError means a create/update/delete bulk call failed. No local
// state was committed; the action can be retried as a whole.
type BulkOperationError struct {
	Op  string
	Err error
}

func (e *BulkOperationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *BulkOperationError) Unwrap() error {
	return e.Err
}

// OrderPersistenceError means a reorder write failed after the visual
// reorder already happened. The local order is kept; the next successful
// reorder reconciles the ledger.
type OrderPersistenceError struct {
	Key OrderKey
	Err error
}

func (e *OrderPersistenceError) Error() string {
	return fmt.Sprintf("saving order for %s/%s: %v", e.Key.MemberID, e.Key.DayOfWeek, e.Err)
}

func (e *OrderPersistenceError) Unwrap() error {
	return e.Err
}
