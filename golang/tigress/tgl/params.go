package tgl

import (
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
)

//Defaults of the inference run.
const (
	DefaultSteps  = 5
	DefaultAlpha  = 0.2
	DefaultNSplit = 100

	//DefaultSeed is used whenever Params.Seed is zero, so that runs without
	//an explicit seed are still reproducible.
	DefaultSeed int64 = 20120301

	//MinExperiments is the smallest number of experiments that can be half-sampled.
	MinExperiments = 4
)

//Scoring selects how selection frequencies are turned into edge scores.
type Scoring int

const (
	//ScoringFrequency reports the raw selection frequency of an edge at each step.
	ScoringFrequency Scoring = iota
	//ScoringArea reports the mean frequency over steps 1..s, the area under the stability curve.
	ScoringArea
)

func (s Scoring) String() string {
	switch s {
	case ScoringFrequency:
		return "frequency"
	case ScoringArea:
		return "area"
	}
	return fmt.Sprintf("Scoring(%d)", int(s))
}

//ParseScoring converts a configuration string into a Scoring value.
func ParseScoring(name string) (Scoring, error) {
	switch name {
	case "", "frequency", "original":
		return ScoringFrequency, nil
	case "area":
		return ScoringArea, nil
	}
	return ScoringFrequency, fmt.Errorf("tigress: unknown scoring %q", name)
}

//Params collects arguments of an inference run.
type Params struct {
	Steps   int     // nstepsLARS
	Alpha   float64 // lower bound of the reweighting factors
	NSplit  int     // number of randomized trials per target
	Seed    int64   // zero means DefaultSeed
	Threads int     // zero means runtime.NumCPU(); one runs inline
	Scoring Scoring
	Logger  logrus.FieldLogger
}

//DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		Steps:  DefaultSteps,
		Alpha:  DefaultAlpha,
		NSplit: DefaultNSplit,
	}
}

//Validate checks the numeric parameters.
func (p Params) Validate() error {
	if p.Steps < 1 {
		return fmt.Errorf("%w: got %d", ErrBadSteps, p.Steps)
	}
	if !(p.Alpha > 0 && p.Alpha < 1) {
		return fmt.Errorf("%w: got %g", ErrBadAlpha, p.Alpha)
	}
	if p.NSplit < 1 {
		return fmt.Errorf("%w: got %d", ErrBadNSplit, p.NSplit)
	}
	if p.Scoring != ScoringFrequency && p.Scoring != ScoringArea {
		return fmt.Errorf("tigress: unknown scoring %v", p.Scoring)
	}
	return nil
}

func (p Params) seed() int64 {
	if p.Seed == 0 {
		return DefaultSeed
	}
	return p.Seed
}

func (p Params) threads() int {
	if p.Threads <= 0 {
		return runtime.NumCPU()
	}
	return p.Threads
}

func (p Params) logger() logrus.FieldLogger {
	if p.Logger == nil {
		return logrus.StandardLogger()
	}
	return p.Logger
}
