package tgl

import (
	"sync"

	"gonum.org/v1/gonum/mat"
)

//SelectionCounts accumulates, for one target gene, how many trials selected each TF
//within s steps. Trials of the same target may add concurrently; the lock is scoped
//to this target only.
type SelectionCounts struct {
	mu     sync.Mutex
	steps  int
	counts [][]int // [tf][step]
	trials int
	failed *TargetFailure
}

func NewSelectionCounts(numTF, steps int) *SelectionCounts {
	counts := make([][]int, numTF)
	for ind := range counts {
		counts[ind] = make([]int, steps)
	}
	return &SelectionCounts{steps: steps, counts: counts}
}

//Add records one trial. order holds TF list positions; the TF at 1-indexed position p
//counts for every step s >= p.
func (sc *SelectionCounts) Add(order []int) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for pos, tf := range order {
		if pos >= sc.steps {
			break
		}
		for s := pos; s < sc.steps; s++ {
			sc.counts[tf][s]++
		}
	}
	sc.trials++
}

//Fail marks the target as failed. The failure of the lowest trial index is kept,
//so the report does not depend on scheduling.
func (sc *SelectionCounts) Fail(failure TargetFailure) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.failed == nil || failure.Trial < sc.failed.Trial {
		sc.failed = &failure
	}
}

//Failure returns the recorded failure, if any.
func (sc *SelectionCounts) Failure() *TargetFailure {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.failed
}

func (sc *SelectionCounts) Count(tf, step int) int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.counts[tf][step]
}

func (sc *SelectionCounts) Trials() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.trials
}

//Frequencies divides the counts by nsplit. The result is a TF × step matrix.
func (sc *SelectionCounts) Frequencies(nsplit int) *mat.Dense {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	freq := mat.NewDense(len(sc.counts), sc.steps, nil)
	for tf, row := range sc.counts {
		for s, count := range row {
			freq.Set(tf, s, float64(count)/float64(nsplit))
		}
	}
	return freq
}
