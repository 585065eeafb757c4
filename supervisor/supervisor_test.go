package supervisor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTicker struct {
	ch chan time.Time
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               {}
func (f *fakeTicker) tick()               { f.ch <- time.Now() }

type fakeTarget struct {
	mu    sync.Mutex
	depth int
	live  uint
}

func (t *fakeTarget) QueueDepth() int  { t.mu.Lock(); defer t.mu.Unlock(); return t.depth }
func (t *fakeTarget) LiveWorkers() int { t.mu.Lock(); defer t.mu.Unlock(); return int(t.live) }
func (t *fakeTarget) setDepth(d int)   { t.mu.Lock(); t.depth = d; t.mu.Unlock() }

func (t *fakeTarget) IncreaseBy(k uint) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live += k
	return nil
}

func (t *fakeTarget) DecreaseBy(k uint) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if k > t.live {
		k = t.live
	}
	t.live -= k
	return nil
}

func newSupervisorWithFakeTicker(t *testing.T, target Resizable, cfg Config) (*Supervisor, *fakeTicker) {
	t.Helper()
	var ft *fakeTicker
	factory := func(d time.Duration) Ticker {
		ft = &fakeTicker{ch: make(chan time.Time, 1)}
		return ft
	}
	s, err := New(target, cfg, WithTickerFactory(factory))
	require.NoError(t, err)
	s.Supervise()
	// Supervise spawns run() which calls newTicker synchronously before
	// entering select, but there's a race with the goroutine scheduling; wait
	// briefly for ft to be set.
	require.Eventually(t, func() bool { return ft != nil }, time.Second, time.Millisecond)
	return s, ft
}

func TestSupervisor_IncreasesByOneWhenDepthPositiveAndBelowU(t *testing.T) {
	target := &fakeTarget{live: 2, depth: 100}
	s, ft := newSupervisorWithFakeTicker(t, target, Config{L: 1, U: 10, Interval: time.Hour})
	defer s.Stop()

	ft.tick()
	require.Eventually(t, func() bool { return target.LiveWorkers() == 3 }, time.Second, time.Millisecond)
}

func TestSupervisor_DecreasesByOneWhenDrainedAndAboveL(t *testing.T) {
	target := &fakeTarget{live: 5, depth: 0}
	s, ft := newSupervisorWithFakeTicker(t, target, Config{L: 2, U: 10, Interval: time.Hour})
	defer s.Stop()

	ft.tick()
	require.Eventually(t, func() bool { return target.LiveWorkers() == 4 }, time.Second, time.Millisecond)
}

func TestSupervisor_DoesNotGrowPastU(t *testing.T) {
	target := &fakeTarget{live: 10, depth: 100}
	s, ft := newSupervisorWithFakeTicker(t, target, Config{L: 1, U: 10, Interval: time.Hour})
	defer s.Stop()

	ft.tick()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 10, target.LiveWorkers())
}

func TestSupervisor_DoesNotShrinkBelowL(t *testing.T) {
	target := &fakeTarget{live: 2, depth: 0}
	s, ft := newSupervisorWithFakeTicker(t, target, Config{L: 2, U: 10, Interval: time.Hour})
	defer s.Stop()

	ft.tick()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 2, target.LiveWorkers())
}

func TestSupervisor_LeavesWorkerCountUnchangedWhenDepthPositiveButAtU(t *testing.T) {
	target := &fakeTarget{live: 10, depth: 5}
	s, ft := newSupervisorWithFakeTicker(t, target, Config{L: 1, U: 10, Interval: time.Hour})
	defer s.Stop()

	ft.tick()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 10, target.LiveWorkers())
}

func TestSupervisor_MovesAtMostOneWorkerPerTick(t *testing.T) {
	target := &fakeTarget{live: 1, depth: 1000}
	s, ft := newSupervisorWithFakeTicker(t, target, Config{L: 1, U: 10, Interval: time.Hour})
	defer s.Stop()

	ft.tick()
	require.Eventually(t, func() bool { return target.LiveWorkers() == 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 2, target.LiveWorkers(), "a single tick must move live workers by at most one")
}

func TestSupervisor_PauseStopsRebalancing(t *testing.T) {
	target := &fakeTarget{live: 2, depth: 100}
	s, ft := newSupervisorWithFakeTicker(t, target, Config{L: 1, U: 10, Interval: time.Hour})
	defer s.Stop()

	s.Pause()
	ft.tick()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 2, target.LiveWorkers())

	s.Resume()
	ft.tick()
	require.Eventually(t, func() bool { return target.LiveWorkers() == 3 }, time.Second, time.Millisecond)
}

func TestSupervisor_StopIsIdempotent(t *testing.T) {
	target := &fakeTarget{live: 1, depth: 0}
	s, err := New(target, Config{L: 1, U: 10, Interval: time.Hour})
	require.NoError(t, err)
	s.Supervise()
	s.Stop()
	s.Stop()
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	target := &fakeTarget{}
	_, err := New(target, Config{L: 10, U: 1, Interval: time.Second})
	require.ErrorIs(t, err, ErrInvalidBand)

	_, err = New(target, Config{L: 0, U: 10, Interval: time.Second})
	require.ErrorIs(t, err, ErrInvalidBand)

	_, err = New(target, Config{L: 1, U: 10, Interval: 0})
	require.ErrorIs(t, err, ErrInvalidInterval)
}
