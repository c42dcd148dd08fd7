package engine

import "errors"

// Sentinel errors returned by store operations. Callers match with
// errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrDuplicateID is returned when adding a process or resource whose
	// id already exists.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrNotFound is returned when an operation references an unknown
	// process or resource id.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyHeld is returned when a process requests a resource it
	// already holds.
	ErrAlreadyHeld = errors.New("resource already held by process")

	// ErrAlreadyWaiting is returned when a process requests a resource it
	// is already queued for.
	ErrAlreadyWaiting = errors.New("process already waiting for resource")

	// ErrNotHeld is returned when releasing a resource the process does
	// not hold.
	ErrNotHeld = errors.New("resource not held by process")

	// ErrNoDeadlock is returned by Recover when no cycle exists.
	ErrNoDeadlock = errors.New("no deadlock to recover from")

	// ErrInvalidState indicates an internal invariant violation. It is
	// unreachable by construction; seeing it means a bug, not a
	// recoverable condition.
	ErrInvalidState = errors.New("invalid internal state")
)
