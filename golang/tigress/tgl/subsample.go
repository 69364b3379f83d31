package tgl

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

//SubsampleSize is the number of experiments kept in every trial: floor(n/2).
func SubsampleSize(n int) int {
	return n / 2
}

//Subsample draws floor(n/2) distinct experiment indices without replacement.
//The indices are returned in ascending order.
func Subsample(n int, src rand.Source) ([]int, error) {
	if n < MinExperiments {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewExperiments, n)
	}
	idxs := make([]int, SubsampleSize(n))
	sampleuv.WithoutReplacement(idxs, n, src)
	sort.Ints(idxs)
	return idxs, nil
}
