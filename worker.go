package branchkit

import "github.com/branchkit/branchkit/pool"

// workerLoop runs on its own goroutine for the lifetime of one pool.Worker.
// It pulls entries from q and executes them until the worker is marked for
// exit and the queue is empty, then returns, letting the caller (Branch)
// deregister it from the worker set.
//
// Adapted from the teacher's worker[R].execute plus its dispatch loop in
// dispatcher.go: the teacher spawns a goroutine per task from a shared
// channel, while a branch's workers are long-lived and pull repeatedly from
// the queue themselves, matching the spec's "workers loop: pop, execute,
// repeat" description.
func workerLoop(w *pool.Worker, q *taskQueue, sink ExceptionSink, branchName string, onTaskStart, onTaskDone func()) {
	for {
		e, ok := q.Pop(w)
		if !ok {
			return
		}
		if onTaskStart != nil {
			onTaskStart()
		}
		e.run(branchName, w.ID, sink)
		q.Done()
		if onTaskDone != nil {
			onTaskDone()
		}
	}
}
