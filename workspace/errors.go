package workspace

import "errors"

const Namespace = "branchkit/workspace"

var (
	ErrShuttingDown      = errors.New(Namespace + ": workspace is shutting down")
	ErrUnknownBranch     = errors.New(Namespace + ": no branch registered under that identifier")
	ErrUnknownSupervisor = errors.New(Namespace + ": no supervisor registered under that identifier")
	ErrNoBranches        = errors.New(Namespace + ": workspace has no attached branches")
)
