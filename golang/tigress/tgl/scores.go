package tgl

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

//ScoreTensor is the result of an inference run: for each LARS step a TF × target
//matrix of scores in [0, 1]. It is immutable once returned by Infer.
type ScoreTensor struct {
	tfs      []string
	targets  []string
	steps    int
	scoring  Scoring
	nsplit   int
	seed     int64
	data     *tensor.Dense // shape (steps, tfs, targets)
	failures []TargetFailure
}

func newScoreTensor(tfs, targets []string, params Params) *ScoreTensor {
	return &ScoreTensor{
		tfs:     append([]string(nil), tfs...),
		targets: append([]string(nil), targets...),
		steps:   params.Steps,
		scoring: params.Scoring,
		nsplit:  params.NSplit,
		seed:    params.seed(),
		data:    tensor.New(tensor.WithShape(params.Steps, len(tfs), len(targets)), tensor.Of(tensor.Float64)),
	}
}

func (st *ScoreTensor) set(step, tf, target int, value float64) {
	HandleError(st.data.SetAt(value, step, tf, target))
}

//setColumn stores the TF × step frequencies of one target, converting them with the
//configured scoring.
func (st *ScoreTensor) setColumn(target int, freq *mat.Dense) {
	for tf := range st.tfs {
		area := 0.0
		for s := 0; s < st.steps; s++ {
			value := freq.At(tf, s)
			if st.scoring == ScoringArea {
				area += value
				value = area / float64(s+1)
			}
			st.set(s, tf, target, value)
		}
	}
}

//At returns the score of (tf, target) at 0-indexed step s, with positions in the TF and target lists.
func (st *ScoreTensor) At(step, tf, target int) float64 {
	val, err := st.data.At(step, tf, target)
	HandleError(err)
	return val.(float64)
}

//Score looks up an edge by gene ids.
func (st *ScoreTensor) Score(step int, tf, target string) (float64, bool) {
	tfInd, targetInd := indexOf(st.tfs, tf), indexOf(st.targets, target)
	if step < 0 || step >= st.steps || tfInd < 0 || targetInd < 0 {
		return 0, false
	}
	return st.At(step, tfInd, targetInd), true
}

//Step copies the TF × target matrix of a 0-indexed step.
func (st *ScoreTensor) Step(step int) *mat.Dense {
	out := mat.NewDense(len(st.tfs), len(st.targets), nil)
	for tf := range st.tfs {
		for target := range st.targets {
			out.Set(tf, target, st.At(step, tf, target))
		}
	}
	return out
}

func (st *ScoreTensor) Steps() int { return st.steps }
func (st *ScoreTensor) TFs() []string { return append([]string(nil), st.tfs...) }
func (st *ScoreTensor) Targets() []string { return append([]string(nil), st.targets...) }
func (st *ScoreTensor) Scoring() Scoring { return st.scoring }
func (st *ScoreTensor) NSplit() int { return st.nsplit }
func (st *ScoreTensor) Seed() int64 { return st.seed }

//Failures lists targets whose scores were not computed, in target list order.
func (st *ScoreTensor) Failures() []TargetFailure {
	return append([]TargetFailure(nil), st.failures...)
}

//Failed reports whether a target id is marked as failed.
func (st *ScoreTensor) Failed(target string) bool {
	for _, failure := range st.failures {
		if failure.Target == target {
			return true
		}
	}
	return false
}

//ScoresDump is the JSON layout of a saved score tensor.
type ScoresDump struct {
	TFs      []string      `json:"tfs"`
	Targets  []string      `json:"targets"`
	Scoring  string        `json:"scoring"`
	NSplit   int           `json:"nsplit"`
	Seed     int64         `json:"seed"`
	Scores   [][][]float64 `json:"scores"` // [step][tf][target]
	Failures []FailureDump `json:"failures,omitempty"`
}

type FailureDump struct {
	Target string `json:"target"`
	Trial  int    `json:"trial"`
	Error  string `json:"error"`
}

func (st *ScoreTensor) dump() ScoresDump {
	d := ScoresDump{
		TFs:     st.tfs,
		Targets: st.targets,
		Scoring: st.scoring.String(),
		NSplit:  st.nsplit,
		Seed:    st.seed,
		Scores:  make([][][]float64, st.steps),
	}
	for s := 0; s < st.steps; s++ {
		d.Scores[s] = make([][]float64, len(st.tfs))
		for tf := range st.tfs {
			d.Scores[s][tf] = make([]float64, len(st.targets))
			for target := range st.targets {
				d.Scores[s][tf][target] = st.At(s, tf, target)
			}
		}
	}
	for _, failure := range st.failures {
		d.Failures = append(d.Failures, FailureDump{Target: failure.Target, Trial: failure.Trial, Error: failure.Err.Error()})
	}
	return d
}

//Save writes the tensor with its labels as indented JSON.
func (st *ScoreTensor) Save(filename string) error {
	bytesResult, err := json.MarshalIndent(st.dump(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, bytesResult, 0o644)
}

//LoadScores reads a tensor written by Save.
func LoadScores(filename string) (*ScoreTensor, error) {
	source, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = source.Close() }()

	var d ScoresDump
	if err := json.NewDecoder(source).Decode(&d); err != nil {
		return nil, err
	}
	scoring, err := ParseScoring(d.Scoring)
	if err != nil {
		return nil, err
	}
	if len(d.Scores) == 0 || len(d.TFs) == 0 || len(d.Targets) == 0 {
		return nil, fmt.Errorf("%w: empty score tensor in %s", ErrShape, filename)
	}

	st := newScoreTensor(d.TFs, d.Targets, Params{Steps: len(d.Scores), NSplit: d.NSplit, Seed: d.Seed, Scoring: scoring})
	for s, step := range d.Scores {
		if len(step) != len(d.TFs) {
			return nil, fmt.Errorf("%w: step %d has %d rows for %d TFs", ErrShape, s+1, len(step), len(d.TFs))
		}
		for tf, row := range step {
			if len(row) != len(d.Targets) {
				return nil, fmt.Errorf("%w: step %d row %d has %d columns for %d targets", ErrShape, s+1, tf, len(row), len(d.Targets))
			}
			for target, value := range row {
				st.set(s, tf, target, value)
			}
		}
	}
	for _, failure := range d.Failures {
		st.failures = append(st.failures, TargetFailure{Target: failure.Target, Trial: failure.Trial, Err: errors.New(failure.Error)})
	}
	return st, nil
}

//WriteNpy writes one npy file per step, named <prefix>_step_<s>.npy with s starting at 1.
func (st *ScoreTensor) WriteNpy(directory, prefix string) ([]string, error) {
	fileNames := make([]string, 0, st.steps)
	for s := 0; s < st.steps; s++ {
		fileName := path.Join(directory, fmt.Sprintf("%s_step_%02d.npy", prefix, s+1))
		if err := writeNpyFile(fileName, st.Step(s)); err != nil {
			return nil, err
		}
		fileNames = append(fileNames, fileName)
	}
	return fileNames, nil
}

func writeNpyFile(fileName string, m *mat.Dense) (err error) {
	dst, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
	}()
	return npyio.Write(dst, m)
}

func indexOf(ids []string, id string) int {
	for ind, candidate := range ids {
		if candidate == id {
			return ind
		}
	}
	return -1
}
