package branchkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type noopEntry struct{ tag string }

func (noopEntry) run(string, uint64, ExceptionSink) {}

func TestTaskQueue_FIFOForNormalPushes(t *testing.T) {
	q := newTaskQueue()
	q.PushBack(noopEntry{"a"})
	q.PushBack(noopEntry{"b"})

	e1, ok := q.Pop(nil)
	require.True(t, ok)
	require.Equal(t, noopEntry{"a"}, e1)

	e2, ok := q.Pop(nil)
	require.True(t, ok)
	require.Equal(t, noopEntry{"b"}, e2)
}

func TestTaskQueue_UrgentJumpsHead(t *testing.T) {
	q := newTaskQueue()
	q.PushBack(noopEntry{"normal"})
	q.PushFront(noopEntry{"urgent"})

	e, ok := q.Pop(nil)
	require.True(t, ok)
	require.Equal(t, noopEntry{"urgent"}, e)
}

func TestTaskQueue_PopBlocksUntilPush(t *testing.T) {
	q := newTaskQueue()
	done := make(chan struct{})

	go func() {
		_, ok := q.Pop(nil)
		require.True(t, ok)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Pop returned before any entry was pushed")
	case <-time.After(20 * time.Millisecond):
	}

	q.PushBack(noopEntry{"late"})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake after push")
	}
}

func TestTaskQueue_CloseWakesBlockedPop(t *testing.T) {
	q := newTaskQueue()
	done := make(chan bool)

	go func() {
		_, ok := q.Pop(nil)
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake on Close")
	}
}

func TestTaskQueue_WaitEmpty(t *testing.T) {
	q := newTaskQueue()
	require.True(t, q.WaitEmpty(time.Second))

	q.PushBack(noopEntry{"x"})
	require.False(t, q.WaitEmpty(20*time.Millisecond))

	_, _ = q.Pop(nil)
	q.Done()
	require.True(t, q.WaitEmpty(time.Second))
}

func TestTaskQueue_WaitEmpty_BlocksUntilInFlightEntryFinishes(t *testing.T) {
	q := newTaskQueue()
	q.PushBack(noopEntry{"x"})

	_, ok := q.Pop(nil)
	require.True(t, ok)

	// The queue is empty but the popped entry hasn't reported completion:
	// WaitEmpty must not treat that as drained.
	require.False(t, q.WaitEmpty(20*time.Millisecond))

	done := make(chan bool, 1)
	go func() { done <- q.WaitEmpty(time.Second) }()

	q.Done()
	require.True(t, <-done)
}

func TestTaskQueue_Len(t *testing.T) {
	q := newTaskQueue()
	require.Equal(t, 0, q.Len())
	q.PushBack(noopEntry{"a"})
	q.PushBack(noopEntry{"b"})
	require.Equal(t, 2, q.Len())
}
