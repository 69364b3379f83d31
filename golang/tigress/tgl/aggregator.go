package tgl

import (
	"context"
	"fmt"
)

//Aggregator runs stability selection trials for the targets of one inference run.
//It only reads shared state, so trials of any target may run concurrently.
type Aggregator struct {
	experiments int
	numTF       int
	alpha       float64
	nsplit      int
	random      RandomSource
	solver      PathSolver
	setups      []regressionSetup
	counts      []*SelectionCounts
	targets     []string
}

func newAggregator(em *ExpressionMatrix, tfs, targets []string, params Params) (*Aggregator, error) {
	tfRows := make([]int, len(tfs))
	for ind, tf := range tfs {
		row, ok := em.Index(tf)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownGene, tf)
		}
		tfRows[ind] = row
	}

	agg := &Aggregator{
		experiments: em.Experiments(),
		numTF:       len(tfs),
		alpha:       params.Alpha,
		nsplit:      params.NSplit,
		random:      NewRandomSource(params.Seed),
		solver:      PathSolver{MaxSteps: params.Steps},
		setups:      make([]regressionSetup, len(targets)),
		counts:      make([]*SelectionCounts, len(targets)),
		targets:     targets,
	}
	for ind, target := range targets {
		setup, err := newRegressionSetup(em, target, tfRows, tfs)
		if err != nil {
			return nil, err
		}
		agg.setups[ind] = setup
		agg.counts[ind] = NewSelectionCounts(len(tfs), params.Steps)
	}
	return agg, nil
}

//RunTrial draws the subsample and the weights of a trial, solves the regression
//and returns the entry order as TF list positions.
func (agg *Aggregator) RunTrial(key TrialKey) (order []int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in trial: %v", r)
		}
	}()

	subsample, err := Subsample(agg.experiments, agg.random.Stream(key, streamSubsample))
	if err != nil {
		return nil, err
	}
	weights, err := Reweight(agg.numTF, agg.alpha, agg.random.Stream(key, streamReweight))
	if err != nil {
		return nil, err
	}

	setup := agg.setups[key.Target]
	if len(setup.available) == 0 {
		return nil, nil
	}
	reg := setup.Build(subsample, weights)
	cols, err := agg.solver.Solve(reg.Design, reg.Response)
	if err != nil {
		return nil, err
	}
	order = make([]int, len(cols))
	for pos, col := range cols {
		order[pos] = reg.Columns[col]
	}
	return order, nil
}

//record runs one trial and reduces its result into the target's counts.
func (agg *Aggregator) record(key TrialKey) {
	order, err := agg.RunTrial(key)
	if err != nil {
		agg.counts[key.Target].Fail(TargetFailure{Target: agg.targets[key.Target], Trial: key.Trial, Err: err})
		return
	}
	agg.counts[key.Target].Add(order)
}

//RunTarget runs all trials of one target in the calling goroutine.
func (agg *Aggregator) RunTarget(ctx context.Context, target int) error {
	for trial := 0; trial < agg.nsplit; trial++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		agg.record(TrialKey{Target: target, Trial: trial})
	}
	return nil
}

//Counts returns the accumulator of a target.
func (agg *Aggregator) Counts(target int) *SelectionCounts {
	return agg.counts[target]
}

//TaskTrial is the pool task of one (target, trial) pair.
type TaskTrial struct {
	agg *Aggregator
	key TrialKey
}

func (task *TaskTrial) Execute(_ context.Context) error {
	task.agg.record(task.key)
	return nil
}
