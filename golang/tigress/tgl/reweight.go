package tgl

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

//Reweight draws one multiplicative factor per TF, i.i.d. uniform on [alpha, 1].
func Reweight(numTF int, alpha float64, src rand.Source) ([]float64, error) {
	if !(alpha > 0 && alpha < 1) {
		return nil, fmt.Errorf("%w: got %g", ErrBadAlpha, alpha)
	}
	dist := distuv.Uniform{Min: alpha, Max: 1, Src: src}
	weights := make([]float64, numTF)
	for ind := range weights {
		weights[ind] = dist.Rand()
	}
	return weights, nil
}
