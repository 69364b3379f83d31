package tgl

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//zeroVarianceTolerance is the relative norm under which a centered profile is constant.
const zeroVarianceTolerance = 1e-10

//Regression is the problem handed to the path solver in one trial.
//Column q of Design holds the TF at TFList position Columns[q].
type Regression struct {
	Design   *mat.Dense
	Response []float64
	Columns  []int
}

//regressionSetup is the part of a target's regression that does not change between trials.
type regressionSetup struct {
	values    mat.Matrix
	targetRow int
	tfRows    []int // matrix rows of the TF list
	available []int // TF list positions used as predictors, self excluded
}

func newRegressionSetup(em *ExpressionMatrix, target string, tfRows []int, tfs []string) (regressionSetup, error) {
	targetRow, ok := em.Index(target)
	if !ok {
		return regressionSetup{}, fmt.Errorf("%w: %s", ErrUnknownGene, target)
	}
	setup := regressionSetup{values: em.Values(), targetRow: targetRow, tfRows: tfRows}
	for ind, tf := range tfs {
		if tf == target {
			continue
		}
		setup.available = append(setup.available, ind)
	}
	return setup, nil
}

//Build restricts the profiles to the subsampled experiments, standardizes every
//predictor to zero mean and unit norm and then scales it by its TF's weight.
//The response is centered and scaled to unit norm; a constant response becomes zero.
func (rs regressionSetup) Build(subsample []int, weights []float64) Regression {
	h := len(subsample)
	w := len(rs.available)

	reg := Regression{
		Design:   mat.NewDense(h, w, nil),
		Response: make([]float64, h),
		Columns:  rs.available,
	}

	for p, col := range subsample {
		reg.Response[p] = rs.values.At(rs.targetRow, col)
	}
	standardize(reg.Response)

	column := make([]float64, h)
	for q, tfPos := range rs.available {
		row := rs.tfRows[tfPos]
		for p, col := range subsample {
			column[p] = rs.values.At(row, col)
		}
		standardize(column)
		floats.Scale(weights[tfPos], column)
		reg.Design.SetCol(q, column)
	}
	return reg
}

//standardize centers values in place and scales them to unit L2 norm.
//Constant values are set to zero.
func standardize(values []float64) {
	raw := floats.Norm(values, 2)
	floats.AddConst(-floats.Sum(values)/float64(len(values)), values)
	norm := floats.Norm(values, 2)
	if norm == 0 || norm <= zeroVarianceTolerance*raw {
		for ind := range values {
			values[ind] = 0
		}
		return
	}
	floats.Scale(1/norm, values)
}
