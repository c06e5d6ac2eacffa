package ports

import "errors"

var (
	// ErrNotFound is returned by reads referencing an id no collection holds.
	ErrNotFound = errors.New("entity not found")

	// ErrQuotaExceeded is returned when the underlying store rejects a write
	// because the payload is too large. It must reach the caller unswallowed.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrValidation is returned when caller-supplied data fails a shape
	// constraint. Nothing is written when it fires.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when a run operation is attempted
	// from a state that does not allow it.
	ErrInvalidTransition = errors.New("invalid run state transition")

	// ErrNothingToRerun is returned by rerun-failed when the run has no
	// failed executions.
	ErrNothingToRerun = errors.New("no failed executions to rerun")

	// ErrSnapshotFormat is returned when an import snapshot fails to parse
	// or lacks a recognizable shape. No collection is mutated.
	ErrSnapshotFormat = errors.New("unrecognized snapshot format")
)
