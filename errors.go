package branchkit

import "errors"

// Namespace prefixes every sentinel error in this package, matching the
// teacher's convention of a single namespaced error family per module.
const Namespace = "branchkit"

var (
	// ErrShuttingDown is returned by Submit/SubmitUrgent/SubmitBatch once a
	// branch's Close has been called. No further tasks are accepted.
	ErrShuttingDown = errors.New(Namespace + ": branch is shutting down")

	// ErrTaskPanicked tags an error produced by recovering a panicking task.
	// The original panic value is preserved in the wrapped error's message.
	ErrTaskPanicked = errors.New(Namespace + ": task execution panicked")

	// ErrInvalidBatch is returned when SubmitBatch is called with fewer than
	// two callables.
	ErrInvalidBatch = errors.New(Namespace + ": batch must contain at least two callables")

	// ErrInvalidWorkerDelta is returned when IncreaseBy/DecreaseBy is called with zero.
	ErrInvalidWorkerDelta = errors.New(Namespace + ": worker delta must be greater than zero")
)
