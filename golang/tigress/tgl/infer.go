package tgl

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

//Infer scores every TF → target edge by stability selection. For each target, NSplit trials
//half-sample the experiments, reweight the TFs at random and record the order in which LARS
//selects them; the score of an edge at step s is the fraction of trials that selected the TF
//within s steps.
//
//Inputs are validated before any computation. A target whose trials fail is reported in
//ScoreTensor.Failures and keeps zero scores; the other targets are unaffected. The result
//depends only on the inputs and the seed, not on Params.Threads. A cancelled context aborts
//the run and nothing is returned.
func Infer(ctx context.Context, em *ExpressionMatrix, tfs, targets []string, params Params) (*ScoreTensor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if em == nil {
		return nil, fmt.Errorf("%w: nil expression matrix", ErrShape)
	}
	if n := em.Experiments(); n < MinExperiments {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewExperiments, n)
	}
	if err := validateGeneList("tf", tfs, em); err != nil {
		return nil, err
	}
	if err := validateGeneList("target", targets, em); err != nil {
		return nil, err
	}

	agg, err := newAggregator(em, tfs, targets, params)
	if err != nil {
		return nil, err
	}

	logger := params.logger().WithFields(logrus.Fields{
		"tfs":     len(tfs),
		"targets": len(targets),
		"nsplit":  params.NSplit,
		"steps":   params.Steps,
	})
	logger.Info("stability selection started")
	started := time.Now()

	threadsNum := params.threads()
	if threadsNum == 1 {
		for target := range targets {
			if err := agg.RunTarget(ctx, target); err != nil {
				return nil, err
			}
			logger.Debugf("target %d of %d done", target+1, len(targets))
		}
	} else {
		taskPool := NewPool(ctx, threadsNum)
		for target := range targets {
			for trial := 0; trial < params.NSplit; trial++ {
				if ctx.Err() != nil {
					break
				}
				taskPool.AddTask(&TaskTrial{agg: agg, key: TrialKey{Target: target, Trial: trial}})
			}
		}
		taskPool.Close()
		if err := taskPool.WaitAll(); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := newScoreTensor(tfs, targets, params)
	for target, targetID := range targets {
		counts := agg.Counts(target)
		if failure := counts.Failure(); failure != nil {
			scores.failures = append(scores.failures, *failure)
			logger.WithFields(logrus.Fields{
				"target": targetID,
				"trial":  failure.Trial,
			}).WithError(failure.Err).Warn("target skipped")
			continue
		}
		scores.setColumn(target, counts.Frequencies(params.NSplit))
	}

	logger.WithFields(logrus.Fields{
		"failed":  len(scores.failures),
		"elapsed": time.Since(started).String(),
	}).Info("stability selection finished")
	return scores, nil
}

//validateGeneList checks that ids is non-empty, has no duplicates and only names rows of em.
func validateGeneList(list string, ids []string, em *ExpressionMatrix) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: %s list", ErrEmptyGeneList, list)
	}

	seen := make(map[string]bool, len(ids))
	var duplicates, missing []string
	for _, id := range ids {
		if seen[id] {
			duplicates = append(duplicates, id)
			continue
		}
		seen[id] = true
		if _, ok := em.Index(id); !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{List: list, IDs: missing, Err: ErrUnknownGene}
	}
	if len(duplicates) > 0 {
		return &ValidationError{List: list, IDs: duplicates, Err: ErrDuplicateGene}
	}
	return nil
}
