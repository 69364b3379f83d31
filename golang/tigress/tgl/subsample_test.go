package tgl

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubsampleSize(t *testing.T) {
	for n, want := range map[int]int{4: 2, 5: 2, 10: 5, 11: 5, 100: 50} {
		require.Equal(t, want, SubsampleSize(n), "n=%d", n)
	}
}

func TestSubsampleDistinctSorted(t *testing.T) {
	rs := NewRandomSource(1)
	for _, n := range []int{4, 5, 9, 30} {
		for trial := 0; trial < 20; trial++ {
			idxs, err := Subsample(n, rs.Stream(TrialKey{Trial: trial}, streamSubsample))
			require.NoError(t, err)
			require.Len(t, idxs, n/2)
			require.True(t, sort.IntsAreSorted(idxs))
			for ind, v := range idxs {
				require.GreaterOrEqual(t, v, 0)
				require.Less(t, v, n)
				if ind > 0 {
					require.NotEqual(t, idxs[ind-1], v, "indices must be distinct")
				}
			}
		}
	}
}

func TestSubsampleReproducible(t *testing.T) {
	rs := NewRandomSource(5)
	key := TrialKey{Target: 2, Trial: 11}
	first, err := Subsample(20, rs.Stream(key, streamSubsample))
	require.NoError(t, err)
	second, err := Subsample(20, rs.Stream(key, streamSubsample))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSubsampleTooFewExperiments(t *testing.T) {
	_, err := Subsample(3, NewRandomSource(1).Stream(TrialKey{}, streamSubsample))
	if !errors.Is(err, ErrTooFewExperiments) {
		t.Fatalf("err = %v, want ErrTooFewExperiments", err)
	}
}

func TestReweightRange(t *testing.T) {
	rs := NewRandomSource(3)
	for _, alpha := range []float64{0.01, 0.2, 0.9} {
		for trial := 0; trial < 10; trial++ {
			weights, err := Reweight(25, alpha, rs.Stream(TrialKey{Trial: trial}, streamReweight))
			require.NoError(t, err)
			require.Len(t, weights, 25)
			for _, w := range weights {
				require.GreaterOrEqual(t, w, alpha)
				require.LessOrEqual(t, w, 1.0)
			}
		}
	}
}

func TestReweightReproducible(t *testing.T) {
	rs := NewRandomSource(3)
	key := TrialKey{Target: 1, Trial: 2}
	first, err := Reweight(10, 0.2, rs.Stream(key, streamReweight))
	require.NoError(t, err)
	second, err := Reweight(10, 0.2, rs.Stream(key, streamReweight))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestReweightBadAlpha(t *testing.T) {
	for _, alpha := range []float64{0, 1, -0.5, 2} {
		_, err := Reweight(3, alpha, NewRandomSource(1).Stream(TrialKey{}, streamReweight))
		require.ErrorIs(t, err, ErrBadAlpha, "alpha=%g", alpha)
	}
}
