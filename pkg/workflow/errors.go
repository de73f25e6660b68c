package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a drop arrives while a plan or commit is in flight
	ErrBusy = errors.New("a move is already being planned or committed")

	// ErrNotReviewing is returned by Confirm and Cancel when there is nothing to act on
	ErrNotReviewing = errors.New("no move is awaiting review")

	// ErrStalePlan marks a plan response that no longer matches the open request
	ErrStalePlan = errors.New("stale plan response")

	// ErrUnsatisfiablePlan is returned when the backend could not resolve a target node
	ErrUnsatisfiablePlan = errors.New("plan has no target node")

	// ErrMissingPool is returned when a drop target carries no pool identifier
	ErrMissingPool = errors.New("drop target has no pool")

	// ErrNotCommitting is returned when a commit result arrives with no commit in flight
	ErrNotCommitting = errors.New("no move is being committed")

	ErrUnknownWorkload = errors.New("unknown workload")
	ErrUnknownNode     = errors.New("unknown node")
)

// InputError reports an override field the operator must fix before confirming
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}
