package tgl

import (
	"fmt"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

//syntheticExpression builds a genes × n matrix of standard normal noise with ids g00, g01, ...
func syntheticExpression(t *testing.T, genes, n int, seed uint64) (*ExpressionMatrix, []string) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	ids := make([]string, genes)
	values := mat.NewDense(genes, n, nil)
	for p := 0; p < genes; p++ {
		ids[p] = fmt.Sprintf("g%02d", p)
		for q := 0; q < n; q++ {
			values.Set(p, q, rng.NormFloat64())
		}
	}
	em, err := NewExpressionMatrix(ids, values)
	if err != nil {
		t.Fatalf("expression matrix: %v", err)
	}
	return em, ids
}

//quietParams returns test parameters with logging at the error level only.
func quietParams(steps, nsplit, threads int) Params {
	params := DefaultParams()
	params.Steps = steps
	params.NSplit = nsplit
	params.Threads = threads
	params.Logger = quietLogger()
	return params
}
