package branchkit

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/branchkit/branchkit/metrics"
	"github.com/branchkit/branchkit/pool"
	"go.uber.org/zap"
)

// Branch is a named, resizable pool of long-lived workers draining a single
// priority queue: normal submissions join the tail, urgent submissions jump
// the head, and a sequential batch occupies one queue slot regardless of how
// many callables it holds.
//
// Grounded on the teacher's workers[R] (workers.go) generalized from a
// single shared tasks channel plus a sync.Pool-recycled worker per task to a
// registry of long-lived workers (pool.Set) draining a condvar-backed
// taskQueue, since the spec requires push-to-front for urgent work and
// explicit resize control that a plain channel and a recycling pool cannot
// express.
type Branch struct {
	name    string
	queue   *taskQueue
	workers *pool.Set
	sink    ExceptionSink
	logger  *zap.Logger

	asyncSink *AsyncSink

	completed atomic.Int64
	closing   atomic.Bool
	closeOnce sync.Once

	liveWorkersGauge metrics.UpDownCounter
	queueDepthGauge  metrics.UpDownCounter
	tasksCounter     metrics.Counter
}

// New constructs a Branch and starts it with its configured initial worker
// count. Workers begin pulling from the queue immediately.
func New(opts ...Option) (*Branch, error) {
	cfg, err := buildBranchConfig(opts...)
	if err != nil {
		return nil, err
	}

	b := &Branch{
		name:    cfg.name,
		queue:   newTaskQueue(),
		workers: pool.NewSet(),
		sink:    cfg.sink,
		logger:  cfg.logger,

		liveWorkersGauge: cfg.metrics.UpDownCounter(
			"branch_live_workers", metrics.WithAttributes(map[string]string{"branch": cfg.name}),
		),
		queueDepthGauge: cfg.metrics.UpDownCounter(
			"branch_queue_depth", metrics.WithAttributes(map[string]string{"branch": cfg.name}),
		),
		tasksCounter: cfg.metrics.Counter(
			"branch_tasks_completed_total", metrics.WithAttributes(map[string]string{"branch": cfg.name}),
		),
	}

	if as, ok := cfg.sink.(*AsyncSink); ok {
		b.asyncSink = as
	}

	for i := uint(0); i < cfg.initialSize; i++ {
		b.spawnWorker()
	}

	return b, nil
}

func (b *Branch) spawnWorker() {
	b.workers.Spawn(func(w *pool.Worker) {
		b.liveWorkersGauge.Add(1)
		workerLoop(w, b.queue, b.sink, b.name, func() {
			b.queueDepthGauge.Add(-1)
		}, func() {
			b.completed.Add(1)
			b.tasksCounter.Add(1)
		})
		b.workers.Remove(w.ID)
		b.liveWorkersGauge.Add(-1)
	})
}

// Name returns the branch's descriptive name.
func (b *Branch) Name() string { return b.name }

// Submit enqueues a value-less task at normal priority. Its error (if any)
// or recovered panic is reported to the branch's ExceptionSink.
func (b *Branch) Submit(fn func()) error {
	if b.closing.Load() {
		return ErrShuttingDown
	}
	if !b.queue.PushBack(newVoidEntry(fn)) {
		return ErrShuttingDown
	}
	b.queueDepthGauge.Add(1)
	return nil
}

// SubmitErr is Submit for a callable that can return an error.
func (b *Branch) SubmitErr(fn func() error) error {
	if b.closing.Load() {
		return ErrShuttingDown
	}
	if !b.queue.PushBack(newVoidEntryErr(fn)) {
		return ErrShuttingDown
	}
	b.queueDepthGauge.Add(1)
	return nil
}

// SubmitUrgent enqueues a value-less task at the head of the queue. It does
// not preempt a task already running on a worker.
func (b *Branch) SubmitUrgent(fn func()) error {
	if b.closing.Load() {
		return ErrShuttingDown
	}
	if !b.queue.PushFront(newVoidEntry(fn)) {
		return ErrShuttingDown
	}
	b.queueDepthGauge.Add(1)
	return nil
}

// SubmitBatch enqueues fns as a single sequential batch entry: one worker
// runs every callable in order, without re-entry, before picking up anything
// else. Requires at least two callables, since a batch exists to amortize
// queue/mutex overhead across several trivial tasks — a single callable
// should go through Submit or SubmitErr instead.
func (b *Branch) SubmitBatch(fns ...func() error) error {
	if len(fns) < 2 {
		return ErrInvalidBatch
	}
	if b.closing.Load() {
		return ErrShuttingDown
	}
	if !b.queue.PushBack(newBatchEntry(fns)) {
		return ErrShuttingDown
	}
	b.queueDepthGauge.Add(1)
	return nil
}

// SubmitValue enqueues a value-producing task at normal priority and returns
// a Result the caller can block on. It is a package-level function, not a
// method, because Go methods cannot carry their own type parameters.
func SubmitValue[T any](b *Branch, fn func() (T, error)) (*Result[T], error) {
	if b.closing.Load() {
		return nil, ErrShuttingDown
	}
	e := newValueEntry(fn)
	if !b.queue.PushBack(e) {
		return nil, ErrShuttingDown
	}
	b.queueDepthGauge.Add(1)
	return e.result, nil
}

// SubmitValueUrgent is SubmitValue with head-of-queue priority.
func SubmitValueUrgent[T any](b *Branch, fn func() (T, error)) (*Result[T], error) {
	if b.closing.Load() {
		return nil, ErrShuttingDown
	}
	e := newValueEntry(fn)
	if !b.queue.PushFront(e) {
		return nil, ErrShuttingDown
	}
	b.queueDepthGauge.Add(1)
	return e.result, nil
}

// IncreaseBy grows the branch by k workers.
func (b *Branch) IncreaseBy(k uint) error {
	if k == 0 {
		return ErrInvalidWorkerDelta
	}
	for i := uint(0); i < k; i++ {
		b.spawnWorker()
	}
	return nil
}

// DecreaseBy marks up to k live workers for exit. A marked worker keeps
// draining the queue until it observes the queue empty, then terminates; it
// never abandons a task it has already started.
func (b *Branch) DecreaseBy(k uint) error {
	if k == 0 {
		return ErrInvalidWorkerDelta
	}
	b.workers.MarkForExit(k)
	b.queue.WakeAll()
	return nil
}

// LiveWorkers returns the current worker count.
func (b *Branch) LiveWorkers() int { return b.workers.Len() }

// QueueDepth returns the current queue length (urgent + normal + batch
// entries, each batch counting as one).
func (b *Branch) QueueDepth() int { return b.queue.Len() }

// Completed returns the total number of entries this branch has finished
// executing since construction.
func (b *Branch) Completed() int64 { return b.completed.Load() }

// WaitForTasks blocks until the queue is empty and every worker has
// finished whatever it last popped, or timeout elapses (zero or negative
// blocks indefinitely), returning true if it drained.
func (b *Branch) WaitForTasks(timeout time.Duration) bool {
	return b.queue.WaitEmpty(timeout)
}

// Close stops accepting new submissions, waits for the queue to drain,
// signals every worker to exit, and waits for them to terminate. It is safe
// to call more than once; only the first call executes the sequence.
func (b *Branch) Close() {
	b.closeOnce.Do(func() {
		b.closing.Store(true)
		b.queue.WaitEmpty(0)
		b.queue.Close()

		for b.workers.Len() > 0 {
			time.Sleep(time.Millisecond)
		}

		if b.asyncSink != nil {
			b.asyncSink.Close()
		}
		b.logger.Debug("branch closed", zap.String("branch", b.name))
	})
}
