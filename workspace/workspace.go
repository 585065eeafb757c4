// Package workspace owns a named collection of branches and supervisors,
// dispatches submissions to the least-loaded branch, and enforces an
// orderly shutdown: supervisors stop before the branches they watch.
//
// Grounded on the teacher's Config/options builder shape (config.go,
// options.go) for its own construction, and on lifecycle.go's
// Close-once sequencing idiom for Close.
package workspace

import (
	"sync"

	"github.com/branchkit/branchkit"
	"github.com/branchkit/branchkit/supervisor"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

// maxprocsOnce ensures maxprocs.Set runs at most once per process, since
// calling it again would needlessly re-read the container CPU quota.
var maxprocsOnce sync.Once

// BranchID identifies a branch attached to one particular Workspace
// instance. It is opaque outside that instance: an ID issued by one
// Workspace means nothing to another.
type BranchID uint64

// SupervisorID identifies a supervisor attached to one particular Workspace
// instance, drawn from a space disjoint from BranchID.
type SupervisorID uint64

// Workspace dispatches work across a set of attached branches, picking the
// least-loaded one by QueueDepth and breaking ties with a round-robin
// cursor over attached branches in identifier order.
type Workspace struct {
	mu sync.Mutex

	branches     map[BranchID]*branchkit.Branch
	branchNames  map[BranchID]string
	branchOrder  []BranchID // ascending identifier order == attach order
	nextBranchID BranchID
	cursor       int

	supervisors      map[SupervisorID]*supervisor.Supervisor
	supervisorNames  map[SupervisorID]string
	supervisorOrder  []SupervisorID
	nextSupervisorID SupervisorID

	logger    *zap.Logger
	closing   bool
	closeOnce sync.Once
}

// Option configures a Workspace at construction.
type Option func(*Workspace)

// WithLogger attaches a *zap.Logger for attach/detach/dispatch diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Workspace) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New constructs an empty Workspace. On first call per process, it applies
// GOMAXPROCS from the container's CPU quota via automaxprocs, so that
// callers sizing a branch as "one worker per core" get a container-aware
// core count rather than the host's.
func New(opts ...Option) *Workspace {
	maxprocsOnce.Do(func() {
		_, _ = maxprocs.Set()
	})

	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}

	w := &Workspace{
		branches:        make(map[BranchID]*branchkit.Branch),
		branchNames:     make(map[BranchID]string),
		supervisors:     make(map[SupervisorID]*supervisor.Supervisor),
		supervisorNames: make(map[SupervisorID]string),
		logger:          logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// AttachBranch takes ownership of b, labeling it with name for diagnostics
// (descriptive only, need not be unique), and returns the identifier the
// workspace issued for it. Close will close every attached branch. Fails
// if the workspace is shutting down.
func (w *Workspace) AttachBranch(name string, b *branchkit.Branch) (BranchID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closing {
		return 0, ErrShuttingDown
	}

	w.nextBranchID++
	id := w.nextBranchID
	w.branches[id] = b
	w.branchNames[id] = name
	w.branchOrder = append(w.branchOrder, id)
	w.logger.Debug("branch attached", zap.Uint64("branch_id", uint64(id)), zap.String("branch", name))
	return id, nil
}

// DetachBranch releases ownership of the branch registered under id and
// returns it to the caller; subsequent lookups by id fail. It does not
// close the branch.
func (w *Workspace) DetachBranch(id BranchID) (*branchkit.Branch, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.branches[id]
	if !ok {
		return nil, ErrUnknownBranch
	}
	delete(w.branches, id)
	delete(w.branchNames, id)
	w.branchOrder = removeBranchID(w.branchOrder, id)
	return b, nil
}

// LookupBranch returns the branch registered under id.
func (w *Workspace) LookupBranch(id BranchID) (*branchkit.Branch, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.branches[id]
	if !ok {
		return nil, ErrUnknownBranch
	}
	return b, nil
}

// AttachSupervisor takes ownership of s, labels it with name, starts its
// rebalance loop, and returns the identifier the workspace issued for it.
// Close stops every attached supervisor before closing any branch. Fails
// if the workspace is shutting down.
func (w *Workspace) AttachSupervisor(name string, s *supervisor.Supervisor) (SupervisorID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closing {
		return 0, ErrShuttingDown
	}

	w.nextSupervisorID++
	id := w.nextSupervisorID
	w.supervisors[id] = s
	w.supervisorNames[id] = name
	w.supervisorOrder = append(w.supervisorOrder, id)
	s.Supervise()
	w.logger.Debug("supervisor attached", zap.Uint64("supervisor_id", uint64(id)), zap.String("supervisor", name))
	return id, nil
}

// DetachSupervisor stops the supervisor registered under id, removes it,
// and returns it to the caller.
func (w *Workspace) DetachSupervisor(id SupervisorID) (*supervisor.Supervisor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.supervisors[id]
	if !ok {
		return nil, ErrUnknownSupervisor
	}
	s.Stop()
	delete(w.supervisors, id)
	delete(w.supervisorNames, id)
	w.supervisorOrder = removeSupervisorID(w.supervisorOrder, id)
	return s, nil
}

// LookupSupervisor returns the supervisor registered under id.
func (w *Workspace) LookupSupervisor(id SupervisorID) (*supervisor.Supervisor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.supervisors[id]
	if !ok {
		return nil, ErrUnknownSupervisor
	}
	return s, nil
}

// pick selects the least-loaded attached branch, breaking ties by scanning
// forward from the round-robin cursor in identifier order.
func (w *Workspace) pick() (*branchkit.Branch, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closing {
		return nil, ErrShuttingDown
	}

	n := len(w.branchOrder)
	if n == 0 {
		return nil, ErrNoBranches
	}

	minDepth := -1
	for _, id := range w.branchOrder {
		d := w.branches[id].QueueDepth()
		if minDepth == -1 || d < minDepth {
			minDepth = d
		}
	}

	for i := 0; i < n; i++ {
		idx := (w.cursor + i) % n
		id := w.branchOrder[idx]
		if w.branches[id].QueueDepth() == minDepth {
			w.cursor = (idx + 1) % n
			return w.branches[id], nil
		}
	}
	// unreachable: minDepth was computed from this same set
	return nil, ErrNoBranches
}

// Submit dispatches fn to the least-loaded branch at normal priority.
func (w *Workspace) Submit(fn func()) error {
	b, err := w.pick()
	if err != nil {
		return err
	}
	return b.Submit(fn)
}

// SubmitUrgent dispatches fn to the least-loaded branch at urgent priority.
func (w *Workspace) SubmitUrgent(fn func()) error {
	b, err := w.pick()
	if err != nil {
		return err
	}
	return b.SubmitUrgent(fn)
}

// SubmitBatch dispatches fns as a single sequential batch entry to the
// least-loaded branch.
func (w *Workspace) SubmitBatch(fns ...func() error) error {
	b, err := w.pick()
	if err != nil {
		return err
	}
	return b.SubmitBatch(fns...)
}

// SubmitValue dispatches a value-producing task to the least-loaded branch
// and returns a Result. It is a package-level function because methods
// cannot carry their own type parameters.
func SubmitValue[T any](w *Workspace, fn func() (T, error)) (*branchkit.Result[T], error) {
	b, err := w.pick()
	if err != nil {
		return nil, err
	}
	return branchkit.SubmitValue(b, fn)
}

// Close stops every attached supervisor, then closes every attached branch,
// each kind in reverse attach order, regardless of which goroutine calls
// Close. After Close begins, Attach and dispatch both fail. Safe to call
// more than once.
func (w *Workspace) Close() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closing = true
		supervisors := make([]*supervisor.Supervisor, len(w.supervisorOrder))
		for i, id := range w.supervisorOrder {
			supervisors[len(supervisors)-1-i] = w.supervisors[id]
		}
		branches := make([]*branchkit.Branch, len(w.branchOrder))
		for i, id := range w.branchOrder {
			branches[len(branches)-1-i] = w.branches[id]
		}
		w.mu.Unlock()

		for _, s := range supervisors {
			s.Stop()
		}
		for _, b := range branches {
			b.Close()
		}
	})
}

func removeBranchID(ids []BranchID, target BranchID) []BranchID {
	out := ids[:0:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func removeSupervisorID(ids []SupervisorID, target SupervisorID) []SupervisorID {
	out := ids[:0:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
