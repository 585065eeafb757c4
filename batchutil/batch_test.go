package batchutil

import (
	"errors"
	"sort"
	"testing"

	"github.com/branchkit/branchkit"
	"github.com/stretchr/testify/require"
)

func newTestBranch(t *testing.T) *branchkit.Branch {
	t.Helper()
	b, err := branchkit.New(branchkit.WithName("batchutil-test"), branchkit.WithInitialWorkers(4))
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func TestRunAll_CollectsAllResultsAndErrors(t *testing.T) {
	b := newTestBranch(t)

	fns := []func() (int, error){
		func() (int, error) { return 1, nil },
		func() (int, error) { return 0, errors.New("bad") },
		func() (int, error) { return 3, nil },
	}
	results, err := RunAll(b, fns)
	require.Error(t, err)

	sort.Ints(results)
	require.Equal(t, []int{1, 3}, results)
}

func TestForEach_JoinsErrors(t *testing.T) {
	b := newTestBranch(t)

	err := ForEach(b, []int{1, 2, 3}, func(n int) error {
		if n == 2 {
			return errors.New("two is bad")
		}
		return nil
	})
	require.Error(t, err)
}

func TestMapOrdered_PreservesInputOrder(t *testing.T) {
	b := newTestBranch(t)

	out, err := MapOrdered(b, []int{1, 2, 3, 4, 5}, func(n int) (int, error) { return n * n, nil })
	require.NoError(t, err)
	require.Equal(t, []int{1, 4, 9, 16, 25}, out)
}

func TestMapOrderedStream_EmitsInOrder(t *testing.T) {
	b := newTestBranch(t)

	ch, err := MapOrderedStream(b, []int{1, 2, 3, 4, 5}, func(n int) (int, error) { return n * 10, nil })
	require.NoError(t, err)

	var got []int
	for v := range ch {
		got = append(got, v)
	}
	require.Equal(t, []int{10, 20, 30, 40, 50}, got)
}
