package tgl

import (
	"errors"
	"fmt"
	"strings"
)

//Every message is prefixed with "tigress:" so it can be grepped in logs.
//Callers match the sentinels with errors.Is.
var (
	//ErrBadSteps is returned when the number of LARS steps is below one.
	ErrBadSteps = errors.New("tigress: nstepsLARS must be >= 1")

	//ErrBadAlpha is returned when alpha is outside the open interval (0, 1).
	ErrBadAlpha = errors.New("tigress: alpha must lie in (0, 1)")

	//ErrBadNSplit is returned when the number of resampling trials is below one.
	ErrBadNSplit = errors.New("tigress: nsplit must be >= 1")

	//ErrTooFewExperiments is returned when there are fewer than MinExperiments columns.
	ErrTooFewExperiments = errors.New("tigress: at least 4 experiments are required")

	//ErrUnknownGene marks a TF or target id absent from the expression matrix.
	ErrUnknownGene = errors.New("tigress: unknown gene id")

	//ErrDuplicateGene marks a gene id listed twice in the same list.
	ErrDuplicateGene = errors.New("tigress: duplicate gene id")

	//ErrEmptyGeneList is returned for an empty TF or target list.
	ErrEmptyGeneList = errors.New("tigress: empty gene list")

	//ErrNonFinite signals NaN or Inf reaching the path solver.
	ErrNonFinite = errors.New("tigress: NaN or Inf in regression input")

	//ErrShape signals inconsistent dimensions in matrices or labels.
	ErrShape = errors.New("tigress: inconsistent shape")
)

//ValidationError reports the offending identifiers of a gene list.
type ValidationError struct {
	List string   // "tf" or "target"
	IDs  []string // identifiers in list order
	Err  error    // ErrUnknownGene or ErrDuplicateGene
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v in %s list: %s", e.Err, e.List, strings.Join(e.IDs, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

//TargetFailure describes a target gene whose computation was aborted.
//Its column in the score tensor stays at zero.
type TargetFailure struct {
	Target string
	Trial  int
	Err    error
}

func (f TargetFailure) Error() string {
	return fmt.Sprintf("tigress: target %s failed at trial %d: %v", f.Target, f.Trial, f.Err)
}

func (f TargetFailure) Unwrap() error {
	return f.Err
}
