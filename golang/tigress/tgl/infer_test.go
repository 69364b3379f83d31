package tgl

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//rawValues gives access to the matrix behind a synthetic expression set.
func rawValues(em *ExpressionMatrix) *mat.Dense {
	return em.Values().(*mat.Dense)
}

func TestInferSingleRegulator(t *testing.T) {
	em, ids := syntheticExpression(t, 6, 100, 11)
	values := rawValues(em)
	for q := 0; q < 100; q++ {
		values.Set(5, q, values.At(0, q)+1e-3*values.At(5, q))
	}

	params := quietParams(3, 60, 4)
	params.Alpha = 0.5
	scores, err := Infer(context.Background(), em, ids[:5], ids[5:], params)
	require.NoError(t, err)
	require.Empty(t, scores.Failures())

	first, _ := scores.Score(0, ids[0], ids[5])
	last, _ := scores.Score(2, ids[0], ids[5])
	require.GreaterOrEqual(t, first, 0.9)
	require.GreaterOrEqual(t, last, first)
	for _, tf := range ids[1:5] {
		score, ok := scores.Score(0, tf, ids[5])
		require.True(t, ok)
		require.LessOrEqual(t, score, 0.1)
	}
}

func TestInferSingleRegulatorDefaultAlpha(t *testing.T) {
	em, ids := syntheticExpression(t, 5, 20, 31)
	values := rawValues(em)
	for q := 0; q < 20; q++ {
		values.Set(4, q, values.At(0, q)+1e-3*values.At(4, q))
	}

	scores, err := Infer(context.Background(), em, ids[:4], ids[4:], quietParams(3, 100, 4))
	require.NoError(t, err)

	// small weights on the regulator let noise TFs enter first in a fraction of trials
	first, _ := scores.Score(0, ids[0], ids[4])
	last, _ := scores.Score(2, ids[0], ids[4])
	require.GreaterOrEqual(t, first, 0.65)
	require.GreaterOrEqual(t, last, 0.9)
}

func TestInferIndependentGenes(t *testing.T) {
	const tfsNum = 8
	winners := make(map[int]bool)
	for seed := 1; seed <= 6; seed++ {
		em, ids := syntheticExpression(t, tfsNum+1, 100, uint64(100+seed))
		params := quietParams(3, 50, 2)
		params.Seed = int64(seed)
		scores, err := Infer(context.Background(), em, ids[:tfsNum], ids[tfsNum:], params)
		require.NoError(t, err)

		firstStep := mat.Col(nil, 0, scores.Step(0))
		lastStep := mat.Col(nil, 0, scores.Step(2))

		// one TF enters per trial, three after three steps
		require.InDelta(t, 1.0/tfsNum, floats.Sum(firstStep)/tfsNum, 1e-9, "seed=%d", seed)
		require.InDelta(t, 3.0/tfsNum, floats.Sum(lastStep)/tfsNum, 1e-9, "seed=%d", seed)

		require.Less(t, floats.Max(firstStep), 0.7, "seed=%d", seed)
		winners[floats.MaxIdx(firstStep)] = true
	}
	// no TF dominates across independent data sets
	require.GreaterOrEqual(t, len(winners), 2)
}

func TestInferConstantTarget(t *testing.T) {
	em, ids := syntheticExpression(t, 4, 20, 13)
	values := rawValues(em)
	for q := 0; q < 20; q++ {
		values.Set(3, q, 0.1)
	}

	scores, err := Infer(context.Background(), em, ids[:3], ids[3:], quietParams(3, 20, 1))
	require.NoError(t, err)
	require.Empty(t, scores.Failures())
	require.Equal(t, 0.0, mat.Sum(scores.Step(2)))
}

func TestInferUnknownTF(t *testing.T) {
	em, ids := syntheticExpression(t, 4, 20, 14)
	scores, err := Infer(context.Background(), em, []string{ids[0], "nope"}, ids, quietParams(2, 5, 1))
	require.Nil(t, scores)
	require.ErrorIs(t, err, ErrUnknownGene)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, "tf", validationErr.List)
	require.Equal(t, []string{"nope"}, validationErr.IDs)
}

func TestInferValidation(t *testing.T) {
	em, ids := syntheticExpression(t, 4, 20, 15)
	ctx := context.Background()

	cases := []struct {
		name    string
		em      *ExpressionMatrix
		tfs     []string
		targets []string
		modify  func(*Params)
		want    error
	}{
		{"steps", em, ids[:2], ids, func(p *Params) { p.Steps = 0 }, ErrBadSteps},
		{"alpha high", em, ids[:2], ids, func(p *Params) { p.Alpha = 1 }, ErrBadAlpha},
		{"alpha zero", em, ids[:2], ids, func(p *Params) { p.Alpha = 0 }, ErrBadAlpha},
		{"nsplit", em, ids[:2], ids, func(p *Params) { p.NSplit = 0 }, ErrBadNSplit},
		{"nil matrix", nil, ids[:2], ids, nil, ErrShape},
		{"empty tfs", em, nil, ids, nil, ErrEmptyGeneList},
		{"empty targets", em, ids[:2], []string{}, nil, ErrEmptyGeneList},
		{"duplicate target", em, ids[:2], []string{ids[2], ids[2]}, nil, ErrDuplicateGene},
		{"unknown target", em, ids[:2], []string{"ghost"}, nil, ErrUnknownGene},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := quietParams(2, 5, 1)
			if tc.modify != nil {
				tc.modify(&params)
			}
			scores, err := Infer(ctx, tc.em, tc.tfs, tc.targets, params)
			require.Nil(t, scores)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestInferTooFewExperiments(t *testing.T) {
	em, ids := syntheticExpression(t, 3, 3, 16)
	_, err := Infer(context.Background(), em, ids[:2], ids, quietParams(2, 5, 1))
	require.ErrorIs(t, err, ErrTooFewExperiments)
}

func TestInferReproducibleAcrossThreads(t *testing.T) {
	em, ids := syntheticExpression(t, 8, 30, 17)
	var reference *ScoreTensor
	for _, threads := range []int{1, 4, 8} {
		scores, err := Infer(context.Background(), em, ids[:5], ids, quietParams(4, 30, threads))
		require.NoError(t, err)
		if reference == nil {
			reference = scores
			continue
		}
		for s := 0; s < 4; s++ {
			require.True(t, mat.Equal(reference.Step(s), scores.Step(s)), "threads=%d step=%d", threads, s)
		}
	}
}

func TestInferSeedChangesScores(t *testing.T) {
	em, ids := syntheticExpression(t, 8, 30, 18)
	params := quietParams(3, 30, 2)
	first, err := Infer(context.Background(), em, ids[:5], ids, params)
	require.NoError(t, err)

	params.Seed = 7
	second, err := Infer(context.Background(), em, ids[:5], ids, params)
	require.NoError(t, err)
	require.Equal(t, int64(7), second.Seed())
	require.False(t, mat.Equal(first.Step(2), second.Step(2)))
}

func TestInferMoreStepsExtendsScores(t *testing.T) {
	em, ids := syntheticExpression(t, 7, 40, 19)
	short, err := Infer(context.Background(), em, ids[:5], ids, quietParams(2, 25, 3))
	require.NoError(t, err)
	long, err := Infer(context.Background(), em, ids[:5], ids, quietParams(4, 25, 3))
	require.NoError(t, err)

	for s := 0; s < 2; s++ {
		require.True(t, mat.Equal(short.Step(s), long.Step(s)), "step=%d", s)
	}
}

func TestInferScoresAreMonotoneAndBounded(t *testing.T) {
	em, ids := syntheticExpression(t, 7, 40, 20)
	scores, err := Infer(context.Background(), em, ids[:5], ids, quietParams(4, 25, 0))
	require.NoError(t, err)

	for tf := range scores.TFs() {
		for target := range scores.Targets() {
			prev := 0.0
			for s := 0; s < scores.Steps(); s++ {
				score := scores.At(s, tf, target)
				require.GreaterOrEqual(t, score, prev)
				require.LessOrEqual(t, score, 1.0)
				// every score is a multiple of 1/nsplit
				require.InDelta(t, 0, math.Remainder(score*25, 1), 1e-9)
				prev = score
			}
		}
	}
	for _, id := range ids[:5] {
		score, ok := scores.Score(3, id, id)
		require.True(t, ok)
		require.Equal(t, 0.0, score)
	}
}

func TestInferAreaScoring(t *testing.T) {
	em, ids := syntheticExpression(t, 6, 40, 21)
	params := quietParams(3, 20, 2)
	frequency, err := Infer(context.Background(), em, ids[:4], ids, params)
	require.NoError(t, err)

	params.Scoring = ScoringArea
	area, err := Infer(context.Background(), em, ids[:4], ids, params)
	require.NoError(t, err)
	require.Equal(t, ScoringArea, area.Scoring())

	require.True(t, mat.Equal(frequency.Step(0), area.Step(0)))
	for tf := range ids[:4] {
		for target := range ids {
			sum := 0.0
			for s := 0; s < 3; s++ {
				sum += frequency.At(s, tf, target)
				require.InDelta(t, sum/float64(s+1), area.At(s, tf, target), 1e-12)
				require.LessOrEqual(t, area.At(s, tf, target), frequency.At(s, tf, target)+1e-12)
			}
		}
	}
}

func TestInferIsolatesFailedTarget(t *testing.T) {
	em, ids := syntheticExpression(t, 7, 30, 22)
	values := rawValues(em)
	for q := 0; q < 30; q++ {
		values.Set(5, q, math.NaN())
	}

	for _, threads := range []int{1, 4} {
		scores, err := Infer(context.Background(), em, ids[:4], ids[4:], quietParams(3, 15, threads))
		require.NoError(t, err)

		failures := scores.Failures()
		require.Len(t, failures, 1)
		require.Equal(t, ids[5], failures[0].Target)
		require.Equal(t, 0, failures[0].Trial)
		require.ErrorIs(t, failures[0], ErrNonFinite)
		require.True(t, scores.Failed(ids[5]))
		require.False(t, scores.Failed(ids[4]))

		last := scores.Step(2)
		require.Equal(t, 0.0, mat.Sum(last.ColView(1)))
		require.Greater(t, mat.Sum(last.ColView(0)), 0.0)
		require.Greater(t, mat.Sum(last.ColView(2)), 0.0)
	}
}

func TestInferCancelled(t *testing.T) {
	em, ids := syntheticExpression(t, 5, 20, 23)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, threads := range []int{1, 3} {
		scores, err := Infer(ctx, em, ids[:3], ids, quietParams(2, 10, threads))
		require.Nil(t, scores)
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestRunTrialOrderUsesTFPositions(t *testing.T) {
	em, ids := syntheticExpression(t, 5, 20, 24)
	tfs := []string{ids[3], ids[0], ids[1]}
	agg, err := newAggregator(em, tfs, []string{ids[0]}, quietParams(3, 4, 1))
	require.NoError(t, err)

	order, err := agg.RunTrial(TrialKey{Target: 0, Trial: 2})
	require.NoError(t, err)
	require.NotContains(t, order, 1)
	for _, tf := range order {
		require.True(t, tf == 0 || tf == 2)
	}

	again, err := agg.RunTrial(TrialKey{Target: 0, Trial: 2})
	require.NoError(t, err)
	require.Equal(t, order, again)
}
