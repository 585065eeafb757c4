package branchkit

import "sync"

type reportedError struct {
	source string
	err    error
}

// AsyncSink decouples worker goroutines from a possibly slow downstream
// ExceptionSink by buffering reports through a bounded channel and draining
// them on a dedicated goroutine. If the buffer is full, the report is handed
// to a detached sender goroutine instead of blocking the reporting worker,
// tracked by sendWG so Close can wait for them to either deliver or drop.
//
// Adapted from the teacher's errorForwarder: same detached-sender-on-full and
// drain-on-close shape, generalized from a single first-error forward to an
// unbounded stream of reports delivered to the wrapped sink. Buffered reports
// arrive in order; reports handed to detached senders may arrive out of order.
type AsyncSink struct {
	next ExceptionSink

	buf     chan reportedError
	closeCh chan struct{}
	sendWG  sync.WaitGroup
	doneWG  sync.WaitGroup
}

// NewAsyncSink wraps next with an async buffer of the given capacity. A
// capacity of zero still works: a report goes straight to the drain goroutine
// if it is ready to receive, and to a detached sender otherwise, so the
// caller never blocks.
func NewAsyncSink(next ExceptionSink, capacity int) *AsyncSink {
	if capacity < 0 {
		capacity = 0
	}
	s := &AsyncSink{
		next:    next,
		buf:     make(chan reportedError, capacity),
		closeCh: make(chan struct{}),
	}
	s.doneWG.Add(1)
	go s.drain()
	return s
}

func (s *AsyncSink) Report(source string, err error) {
	re := reportedError{source: source, err: err}
	select {
	case s.buf <- re:
	default:
		s.sendWG.Add(1)
		go func() {
			defer s.sendWG.Done()
			select {
			case s.buf <- re:
			case <-s.closeCh:
			}
		}()
	}
}

func (s *AsyncSink) drain() {
	defer s.doneWG.Done()
	for {
		select {
		case re := <-s.buf:
			s.next.Report(re.source, re.err)
		case <-s.closeCh:
			for {
				select {
				case re := <-s.buf:
					s.next.Report(re.source, re.err)
				default:
					return
				}
			}
		}
	}
}

// Close stops accepting new detached senders, waits for any in flight, drains
// whatever remains in the buffer, and returns once the drain goroutine exits.
func (s *AsyncSink) Close() {
	close(s.closeCh)
	s.sendWG.Wait()
	s.doneWG.Wait()
}
