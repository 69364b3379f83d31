package tgl

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	//CorrelationTolerance is the relative level below which a correlation with the
	//residual is treated as zero.
	CorrelationTolerance = 1e-10
	//TieTolerance is the relative distance under which two correlations, or two step
	//lengths, are equal. The lowest column index wins a tie.
	TieTolerance = 1e-10
	//maxGramCondition bounds the conditioning of the active Gram matrix. A worse
	//conditioned active set ends the path.
	maxGramCondition = 1e12
)

//EntryOrder is the sequence of design columns in the order they joined the active set.
type EntryOrder []int

type larsState int

const (
	stateSelecting larsState = iota
	stateStepLength
	stateUpdating
	stateTerminal
)

func (s larsState) String() string {
	return [...]string{"selecting", "step-length", "updating", "terminal"}[s]
}

//PathSolver computes least angle regression entry orders.
type PathSolver struct {
	MaxSteps int
}

//larsPath carries the state of one run of the solver.
type larsPath struct {
	x        *mat.Dense
	h, w     int
	maxSteps int

	residual  *mat.VecDense
	corr      *mat.VecDense
	direction *mat.VecDense
	dirCorr   *mat.VecDense

	usable   []bool
	inActive []bool
	active   []int
	order    EntryOrder

	entering   int
	corrTol    float64
	tieTol     float64
	bigC       float64
	equiangle  float64
	candidates int
}

//Solve runs LARS of y on the columns of x and returns the entry order of the columns.
//Columns with zero norm never enter. A zero response, or a singular active set,
//ends the path early; only non-finite input is an error.
func (ps PathSolver) Solve(x *mat.Dense, y []float64) (EntryOrder, error) {
	h, w := x.Dims()
	if len(y) != h {
		return nil, fmt.Errorf("%w: response length %d, design height %d", ErrShape, len(y), h)
	}
	if !finite(y) || !finiteDense(x) {
		return nil, ErrNonFinite
	}
	if h == 0 || w == 0 || ps.MaxSteps < 1 {
		return EntryOrder{}, nil
	}

	path := &larsPath{
		x:         x,
		h:         h,
		w:         w,
		maxSteps:  ps.MaxSteps,
		residual:  mat.NewVecDense(h, append([]float64(nil), y...)),
		corr:      mat.NewVecDense(w, nil),
		direction: mat.NewVecDense(h, nil),
		dirCorr:   mat.NewVecDense(w, nil),
		usable:    make([]bool, w),
		inActive:  make([]bool, w),
	}

	maxNorm := 0.0
	for q := 0; q < w; q++ {
		norm := mat.Norm(x.ColView(q), 2)
		if norm > 0 {
			path.usable[q] = true
			path.candidates++
		}
		maxNorm = math.Max(maxNorm, norm)
	}
	scale := floats.Norm(y, 2) * maxNorm
	if scale == 0 || path.candidates == 0 {
		return EntryOrder{}, nil
	}
	path.corrTol = CorrelationTolerance * scale
	path.tieTol = TieTolerance * scale

	state := stateSelecting
	for state != stateTerminal {
		switch state {
		case stateSelecting:
			state = path.selectFirst()
		case stateStepLength:
			state = path.stepLength()
		case stateUpdating:
			state = path.update()
		}
	}
	return path.order, nil
}

//selectFirst picks the column most correlated with the response.
func (lp *larsPath) selectFirst() larsState {
	lp.corr.MulVec(lp.x.T(), lp.residual)
	best, bestAbs := -1, 0.0
	for q := 0; q < lp.w; q++ {
		if !lp.usable[q] {
			continue
		}
		if c := math.Abs(lp.corr.AtVec(q)); best == -1 || c > bestAbs+lp.tieTol {
			best, bestAbs = q, c
		}
	}
	if best == -1 || bestAbs <= lp.corrTol {
		return stateTerminal
	}
	lp.entering = best
	return stateUpdating
}

//update moves the entering column into the active set.
func (lp *larsPath) update() larsState {
	lp.inActive[lp.entering] = true
	lp.active = append(lp.active, lp.entering)
	lp.order = append(lp.order, lp.entering)
	if len(lp.order) >= lp.maxSteps || len(lp.active) == lp.candidates {
		return stateTerminal
	}
	return stateStepLength
}

//stepLength computes the equiangular direction of the active set, moves the fit along it
//until an inactive column catches up with the active correlation, and names that column.
//When no column catches up before the least squares fit, the fit is completed and the path ends.
func (lp *larsPath) stepLength() larsState {
	lp.corr.MulVec(lp.x.T(), lp.residual)

	lp.bigC = 0
	for _, q := range lp.active {
		lp.bigC = math.Max(lp.bigC, math.Abs(lp.corr.AtVec(q)))
	}
	if lp.bigC <= lp.corrTol {
		return stateTerminal
	}

	// an inactive column tied with the active set enters without moving the fit
	for q := 0; q < lp.w; q++ {
		if lp.usable[q] && !lp.inActive[q] && math.Abs(lp.corr.AtVec(q)) >= lp.bigC-lp.tieTol {
			lp.entering = q
			return stateUpdating
		}
	}

	k := len(lp.active)
	signed := mat.NewDense(lp.h, k, nil)
	for ind, q := range lp.active {
		sign := 1.0
		if lp.corr.AtVec(q) < 0 {
			sign = -1.0
		}
		for p := 0; p < lp.h; p++ {
			signed.Set(p, ind, sign*lp.x.At(p, q))
		}
	}

	gram := mat.NewSymDense(k, nil)
	gram.SymOuterK(1, signed.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok || chol.Cond() > maxGramCondition {
		return stateTerminal
	}

	ones := mat.NewVecDense(k, nil)
	for ind := 0; ind < k; ind++ {
		ones.SetVec(ind, 1)
	}
	weights := mat.NewVecDense(k, nil)
	if err := chol.SolveVecTo(weights, ones); err != nil {
		return stateTerminal
	}
	total := mat.Dot(ones, weights)
	if !(total > 0) {
		return stateTerminal
	}
	lp.equiangle = 1 / math.Sqrt(total)
	weights.ScaleVec(lp.equiangle, weights)

	lp.direction.MulVec(signed, weights)
	lp.dirCorr.MulVec(lp.x.T(), lp.direction)

	gammaOLS := lp.bigC / lp.equiangle
	floor := TieTolerance * gammaOLS
	best, bestGamma := -1, math.Inf(1)
	for q := 0; q < lp.w; q++ {
		if !lp.usable[q] || lp.inActive[q] {
			continue
		}
		c, a := lp.corr.AtVec(q), lp.dirCorr.AtVec(q)
		for _, gamma := range [2]float64{
			stepTo(lp.bigC-c, lp.equiangle-a),
			stepTo(lp.bigC+c, lp.equiangle+a),
		} {
			if gamma > floor && gamma < bestGamma-TieTolerance*gammaOLS {
				best, bestGamma = q, gamma
			}
		}
	}

	if best == -1 || bestGamma >= gammaOLS*(1-TieTolerance) {
		lp.residual.AddScaledVec(lp.residual, -gammaOLS, lp.direction)
		return stateTerminal
	}
	lp.residual.AddScaledVec(lp.residual, -bestGamma, lp.direction)
	lp.entering = best
	return stateUpdating
}

//stepTo returns num/den for a positive denominator and +Inf otherwise.
func stepTo(num, den float64) float64 {
	if den <= 1e-15 {
		return math.Inf(1)
	}
	return num / den
}

func finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func finiteDense(x *mat.Dense) bool {
	h, _ := x.Dims()
	for p := 0; p < h; p++ {
		if !finite(x.RawRowView(p)) {
			return false
		}
	}
	return true
}
