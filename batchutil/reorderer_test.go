package batchutil

import (
	"reflect"
	"testing"
	"time"
)

func runReorderer(t *testing.T, events []completionEvent[int], resultsCap int) []int {
	t.Helper()
	eCh := make(chan completionEvent[int], len(events))
	rCh := make(chan int, resultsCap)

	r := newReorderer[int](eCh, rCh)
	done := make(chan struct{})
	go func() {
		r.run()
		close(done)
	}()

	for _, e := range events {
		eCh <- e
	}
	close(eCh)

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("reorderer did not finish in time")
	}

	out := make([]int, 0, resultsCap)
	for i := 0; i < resultsCap; i++ {
		select {
		case v := <-rCh:
			out = append(out, v)
		default:
			return out
		}
	}
	return out
}

func TestReorderer_InOrder(t *testing.T) {
	res := runReorderer(t, []completionEvent[int]{
		{idx: 0, val: 1, present: true},
		{idx: 1, val: 2, present: true},
	}, 4)
	if !reflect.DeepEqual(res, []int{1, 2}) {
		t.Fatalf("got %v", res)
	}
}

func TestReorderer_OutOfOrder_BufferThenFlush(t *testing.T) {
	res := runReorderer(t, []completionEvent[int]{
		{idx: 1, val: 2, present: true},
		{idx: 0, val: 1, present: true},
	}, 4)
	if !reflect.DeepEqual(res, []int{1, 2}) {
		t.Fatalf("got %v", res)
	}
}

func TestReorderer_NoResultAdvances(t *testing.T) {
	res := runReorderer(t, []completionEvent[int]{
		{idx: 0, val: 10, present: true},
		{idx: 2, val: 20, present: true},
		{idx: 1, present: false},
	}, 4)
	if !reflect.DeepEqual(res, []int{10, 20}) {
		t.Fatalf("got %v", res)
	}
}

func TestReorderer_ShutdownFlushesContiguousOnly(t *testing.T) {
	res := runReorderer(t, []completionEvent[int]{
		{idx: 1, val: 2, present: true},
	}, 4)
	if len(res) != 0 {
		t.Fatalf("expected empty, got %v", res)
	}
}
