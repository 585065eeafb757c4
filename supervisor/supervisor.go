package supervisor

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Resizable is the surface a Supervisor rebalances against. branchkit.Branch
// satisfies it directly.
type Resizable interface {
	QueueDepth() int
	LiveWorkers() int
	IncreaseBy(k uint) error
	DecreaseBy(k uint) error
}

// Config bounds a Supervisor's rebalance policy: L is the minimum worker
// count per branch, U the maximum (1 <= L <= U), and Interval the tick
// period. Each tick moves the live worker count by at most one worker; this
// is fixed, not configurable, since it damps oscillation under bursty load
// and bounds the worst-case rate of worker churn.
type Config struct {
	L, U     uint
	Interval time.Duration
}

func (c Config) validate() error {
	if c.L < 1 || c.L > c.U {
		return ErrInvalidBand
	}
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	return nil
}

// Option configures a Supervisor at construction.
type Option func(*Supervisor)

// WithClock overrides the Supervisor's stored Clock. The rebalance cadence
// is driven by the ticker (see WithTickerFactory), and neither rebalancing
// nor logging reads the clock.
func WithClock(c Clock) Option {
	return func(s *Supervisor) { s.clock = c }
}

// WithTickerFactory overrides how the Supervisor constructs its rebalance
// ticker, letting tests substitute a manually-driven Ticker.
func WithTickerFactory(f func(time.Duration) Ticker) Option {
	return func(s *Supervisor) { s.newTicker = f }
}

// WithLogger attaches a *zap.Logger the Supervisor uses for resize events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Supervisor periodically inspects a Resizable target's queue depth and
// live worker count and issues at most one resize-by-1 per tick. Grounded
// on roadrunner's worker_watcher ticker-driven allocate loop, generalized
// from "replace a dead worker" to "grow or shrink by one worker toward
// [L, U]", and on the teacher's lifecycle.go Close-once idiom for shutdown.
type Supervisor struct {
	target Resizable
	cfg    Config

	clock     Clock
	newTicker func(time.Duration) Ticker
	logger    *zap.Logger

	paused  atomic.Bool
	stopCh  chan struct{}
	doneWG  sync.WaitGroup
	once    sync.Once
	started atomic.Bool
}

// New constructs a Supervisor for target. Supervise must be called to start
// the rebalance loop.
func New(target Resizable, cfg Config, opts ...Option) (*Supervisor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}

	s := &Supervisor{
		target: target,
		cfg:    cfg,
		clock:  realClock{},
		newTicker: func(d time.Duration) Ticker {
			return newRealTicker(d)
		},
		logger: logger,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Supervise starts the rebalance loop on its own goroutine. It is a no-op
// if already running.
func (s *Supervisor) Supervise() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.doneWG.Add(1)
	go s.run()
}

func (s *Supervisor) run() {
	defer s.doneWG.Done()
	ticker := s.newTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C():
			if s.paused.Load() {
				continue
			}
			s.rebalance()
		}
	}
}

// rebalance applies the control loop from spec §4.2 exactly: read queue
// depth d and live worker count w, then if d > 0 and w < U issue an
// increase-by-1; else if d == 0 and w > L issue a decrease-by-1; otherwise
// leave w unchanged.
func (s *Supervisor) rebalance() {
	depth := s.target.QueueDepth()
	live := uint(s.target.LiveWorkers())

	switch {
	case depth > 0 && live < s.cfg.U:
		if err := s.target.IncreaseBy(1); err != nil {
			s.logger.Warn("supervisor: increase failed", zap.Error(err))
			return
		}
		s.logger.Debug("supervisor: grew target", zap.Int("queue_depth", depth))

	case depth == 0 && live > s.cfg.L:
		if err := s.target.DecreaseBy(1); err != nil {
			s.logger.Warn("supervisor: decrease failed", zap.Error(err))
			return
		}
		s.logger.Debug("supervisor: shrank target", zap.Int("queue_depth", depth))
	}
}

// Pause suspends rebalancing without stopping the loop's goroutine.
func (s *Supervisor) Pause() { s.paused.Store(true) }

// Resume un-suspends rebalancing.
func (s *Supervisor) Resume() { s.paused.Store(false) }

// Stop halts the rebalance loop and waits for its goroutine to exit. It is
// safe to call more than once.
func (s *Supervisor) Stop() {
	s.once.Do(func() {
		close(s.stopCh)
	})
	s.doneWG.Wait()
}

// Close is an alias for Stop, satisfying io.Closer-shaped call sites in
// Workspace shutdown.
func (s *Supervisor) Close() { s.Stop() }
