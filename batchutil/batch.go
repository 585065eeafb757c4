package batchutil

import (
	"errors"
	"sync"

	"github.com/branchkit/branchkit"
)

// RunAll submits every fn to b and waits for all of them, returning results
// in completion order and the joined error of every failing task.
//
// Adapted from the teacher's run_all.go, generalized from "own a fresh
// Workers instance for the call's lifetime" to "submit onto a caller-owned
// Branch", since branchkit branches are long-lived and shared across many
// batch calls rather than constructed per call.
func RunAll[T any](b *branchkit.Branch, fns []func() (T, error)) ([]T, error) {
	if len(fns) == 0 {
		return nil, nil
	}

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, len(fns))

	for _, fn := range fns {
		fn := fn
		res, err := branchkit.SubmitValue(b, fn)
		if err != nil {
			done <- outcome{err: err}
			continue
		}
		go func() {
			v, e := res.Get()
			done <- outcome{val: v, err: e}
		}()
	}

	results := make([]T, 0, len(fns))
	var errs []error
	for i := 0; i < len(fns); i++ {
		o := <-done
		if o.err != nil {
			errs = append(errs, o.err)
			continue
		}
		results = append(results, o.val)
	}
	return results, errors.Join(errs...)
}

// ForEach submits fn(item) for every item as an error-only task and returns
// the joined error of every failing invocation. Adapted from foreach.go.
func ForEach[T any](b *branchkit.Branch, items []T, fn func(T) error) error {
	if len(items) == 0 {
		return nil
	}
	_, err := RunAll(b, mapToValueFns(items, fn))
	return err
}

func mapToValueFns[T any](items []T, fn func(T) error) []func() (struct{}, error) {
	fns := make([]func() (struct{}, error), len(items))
	for i := range items {
		item := items[i]
		fns[i] = func() (struct{}, error) { return struct{}{}, fn(item) }
	}
	return fns
}

// Map fans items out through fn on b and returns results in completion
// order alongside the joined error of every failing invocation. Adapted
// from map.go.
func Map[T, R any](b *branchkit.Branch, items []T, fn func(T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	fns := make([]func() (R, error), len(items))
	for i := range items {
		item := items[i]
		fns[i] = func() (R, error) { return fn(item) }
	}
	return RunAll(b, fns)
}

// MapOrdered is Map, but the returned slice is in input order rather than
// completion order: out[i] corresponds to items[i]. Errors are joined in
// input order as well. Grounded on the teacher's WithPreserveOrder option
// applied to Map, generalized since branchkit has no global option system:
// ordering here is a distinct function rather than a flag.
func MapOrdered[T, R any](b *branchkit.Branch, items []T, fn func(T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := make([]*branchkit.Result[R], len(items))
	for i, item := range items {
		item := item
		res, err := branchkit.SubmitValue(b, func() (R, error) { return fn(item) })
		if err != nil {
			return nil, err
		}
		results[i] = res
	}

	out := make([]R, len(items))
	var errs []error
	for i, res := range results {
		v, err := res.Get()
		out[i] = v
		if err != nil {
			errs = append(errs, err)
		}
	}
	return out, errors.Join(errs...)
}

// MapOrderedStream submits fn(item) for every item on b and streams results
// back on the returned channel strictly in input order as soon as the
// contiguous prefix is ready, without waiting for every task to finish
// first. The channel is closed once every result has been emitted.
//
// This is the genuinely streaming counterpart to MapOrdered: it uses
// reorderer to buffer completions that arrive out of order instead of
// blocking on each index's Result.Get in turn.
func MapOrderedStream[T, R any](b *branchkit.Branch, items []T, fn func(T) (R, error)) (<-chan R, error) {
	events := make(chan completionEvent[R], len(items))
	out := make(chan R, len(items))

	type submission struct {
		idx int
		res *branchkit.Result[R]
	}
	subs := make([]submission, 0, len(items))
	for i, item := range items {
		item := item
		res, err := branchkit.SubmitValue(b, func() (R, error) { return fn(item) })
		if err != nil {
			close(events)
			close(out)
			return out, err
		}
		subs = append(subs, submission{idx: i, res: res})
	}

	go func() {
		r := newReorderer(events, out)
		r.run()
		close(out)
	}()

	var wg sync.WaitGroup
	wg.Add(len(subs))
	for _, s := range subs {
		s := s
		go func() {
			defer wg.Done()
			v, err := s.res.Get()
			events <- completionEvent[R]{idx: s.idx, val: v, present: err == nil}
		}()
	}

	go func() {
		wg.Wait()
		close(events)
	}()

	return out, nil
}
