package branchkit

import (
	"errors"
	"fmt"
)

// BranchError exposes correlation metadata for a task failure: which branch
// and which worker identity ran the task that produced err.
type BranchError interface {
	error
	Unwrap() error
	BranchName() string
	WorkerID() uint64
}

type branchTaggedError struct {
	err      error
	branch   string
	workerID uint64
}

func newBranchTaggedError(err error, branch string, workerID uint64) error {
	if err == nil {
		return nil
	}
	return &branchTaggedError{err: err, branch: branch, workerID: workerID}
}

func (e *branchTaggedError) Error() string { return e.err.Error() }
func (e *branchTaggedError) Unwrap() error { return e.err }

func (e *branchTaggedError) BranchName() string { return e.branch }
func (e *branchTaggedError) WorkerID() uint64    { return e.workerID }

func (e *branchTaggedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "branch(name=%s,worker=%d): %+v", e.branch, e.workerID, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractBranchName returns the branch name from err if present.
func ExtractBranchName(err error) (string, bool) {
	var be BranchError
	if errors.As(err, &be) {
		return be.BranchName(), true
	}
	return "", false
}

// ExtractWorkerID returns the worker identity from err if present.
func ExtractWorkerID(err error) (uint64, bool) {
	var be BranchError
	if errors.As(err, &be) {
		return be.WorkerID(), true
	}
	return 0, false
}
