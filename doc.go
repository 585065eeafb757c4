// Package branchkit provides an in-process, dynamically sized worker pool
// (a Branch) with priority submission, plus a Supervisor that rebalances a
// branch's worker count toward a configured band and a Workspace that owns
// a collection of branches and supervisors and dispatches work across them.
//
// Branch
//
// A Branch runs a resizable number of long-lived worker goroutines draining
// a single queue. Submit enqueues a value-less task at normal (tail)
// priority; SubmitUrgent jumps the head without preempting whatever a
// worker is already running; SubmitBatch enqueues a sequence of callables
// as one queue entry, executed in order on a single worker. SubmitValue (a
// package-level generic function, since methods cannot carry type
// parameters) returns a Result the caller blocks on for a value-producing
// task's outcome.
//
// Errors and panics that have nowhere else to go are reported through an
// ExceptionSink, which defaults to logging via zap at Error level.
//
// Resize
//
// IncreaseBy spawns additional workers immediately. DecreaseBy marks
// workers for exit; a marked worker keeps draining the queue until it
// observes the queue empty, then terminates, so decreasing never abandons
// in-flight or already-queued work.
//
// Supervisor and Workspace
//
// The supervisor subpackage periodically resizes a Branch, one worker per
// tick, within a configured [L, U] live-worker band. The workspace subpackage owns a
// named collection of branches and supervisors, dispatches submissions to
// the least-loaded branch (round-robin on ties), and enforces shutdown
// order: supervisors stop before the branches they supervise.
package branchkit
