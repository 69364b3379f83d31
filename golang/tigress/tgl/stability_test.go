package tgl

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectionCountsAdd(t *testing.T) {
	sc := NewSelectionCounts(4, 3)
	sc.Add([]int{2, 0})
	sc.Add([]int{0})
	sc.Add(nil)

	want := [][]int{
		{1, 2, 2},
		{0, 0, 0},
		{1, 1, 1},
		{0, 0, 0},
	}
	for tf := range want {
		for s := range want[tf] {
			require.Equal(t, want[tf][s], sc.Count(tf, s), "tf=%d step=%d", tf, s)
		}
	}
	require.Equal(t, 3, sc.Trials())

	freq := sc.Frequencies(4)
	require.InDelta(t, 0.5, freq.At(0, 2), 1e-15)
	require.InDelta(t, 0.25, freq.At(2, 0), 1e-15)
}

func TestSelectionCountsIgnoresPositionsBeyondSteps(t *testing.T) {
	sc := NewSelectionCounts(3, 2)
	sc.Add([]int{1, 2, 0})
	require.Equal(t, 0, sc.Count(0, 1))
	require.Equal(t, 1, sc.Count(2, 1))
}

func TestSelectionCountsConcurrentAdd(t *testing.T) {
	sc := NewSelectionCounts(3, 3)
	var wg sync.WaitGroup
	for trial := 0; trial < 100; trial++ {
		wg.Add(1)
		go func(trial int) {
			defer wg.Done()
			if trial%2 == 0 {
				sc.Add([]int{0, 1})
			} else {
				sc.Add([]int{1, 2, 0})
			}
		}(trial)
	}
	wg.Wait()

	require.Equal(t, 100, sc.Trials())
	require.Equal(t, 50, sc.Count(0, 0))
	require.Equal(t, 100, sc.Count(0, 2))
	require.Equal(t, 100, sc.Count(1, 1))
	require.Equal(t, 50, sc.Count(2, 1))
	for tf := 0; tf < 3; tf++ {
		for s := 1; s < 3; s++ {
			require.LessOrEqual(t, sc.Count(tf, s-1), sc.Count(tf, s))
		}
	}
}

func TestSelectionCountsFailKeepsLowestTrial(t *testing.T) {
	sc := NewSelectionCounts(1, 1)
	require.Nil(t, sc.Failure())

	boom := errors.New("boom")
	sc.Fail(TargetFailure{Target: "t", Trial: 9, Err: boom})
	sc.Fail(TargetFailure{Target: "t", Trial: 3, Err: boom})
	sc.Fail(TargetFailure{Target: "t", Trial: 5, Err: boom})

	failure := sc.Failure()
	require.NotNil(t, failure)
	require.Equal(t, 3, failure.Trial)
	require.ErrorIs(t, *failure, boom)
}
