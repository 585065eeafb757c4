package workspace

import (
	"errors"
	"time"

	"github.com/branchkit/branchkit"
	"golang.org/x/sync/errgroup"
)

// ForEachConcurrent submits fn(item) for every item across the workspace's
// branches (distributed via the same least-loaded dispatch Submit uses) and
// waits for all of them, returning the first error encountered.
//
// Adapted from the teacher's foreach.go, generalized from "construct one
// Workers instance for the call" to "fan out across whatever branches are
// already attached to the workspace", using golang.org/x/sync/errgroup in
// place of the teacher's internal WaitGroup-based completion tracking.
func ForEachConcurrent[T any](w *Workspace, items []T, fn func(T) error) error {
	if len(items) == 0 {
		return nil
	}

	g := new(errgroup.Group)
	for _, item := range items {
		item := item
		g.Go(func() error {
			res, err := SubmitValue(w, func() (struct{}, error) { return struct{}{}, fn(item) })
			if err != nil {
				return err
			}
			_, execErr := res.Get()
			return execErr
		})
	}
	return g.Wait()
}

var errNotDrained = errors.New(Namespace + ": branch did not drain before timeout")

// WaitAll blocks until every attached branch's queue has drained or timeout
// elapses, checking all branches concurrently via errgroup rather than
// polling them one after another.
func WaitAll(w *Workspace, timeout time.Duration) bool {
	w.mu.Lock()
	branches := make([]*branchkit.Branch, 0, len(w.branchOrder))
	for _, id := range w.branchOrder {
		branches = append(branches, w.branches[id])
	}
	w.mu.Unlock()

	var g errgroup.Group
	for _, b := range branches {
		b := b
		g.Go(func() error {
			if !b.WaitForTasks(timeout) {
				return errNotDrained
			}
			return nil
		})
	}
	return g.Wait() == nil
}
