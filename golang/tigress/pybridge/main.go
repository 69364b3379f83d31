package main

/*
#cgo CFLAGS: -I.
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
	"github.com/tarstars/tigress_stability/golang/tigress/tgl"
	"gonum.org/v1/gonum/mat"
)

var (
	handleMu   sync.Mutex
	nextHandle uint64 = 1
	results           = make(map[uint64]*tgl.ScoreTensor)

	lastErrorMu sync.Mutex
	lastError   string

	silentOnce   sync.Once
	silentLogger *logrus.Logger
)

func setLastError(err error) {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if err != nil {
		lastError = err.Error()
	} else {
		lastError = ""
	}
}

func getLastError() string {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	return lastError
}

func logger() *logrus.Logger {
	silentOnce.Do(func() {
		silentLogger = logrus.New()
		silentLogger.SetOutput(io.Discard)
	})
	return silentLogger
}

func storeScores(st *tgl.ScoreTensor) uint64 {
	handleMu.Lock()
	defer handleMu.Unlock()
	handle := nextHandle
	results[handle] = st
	nextHandle++
	return handle
}

func fetchScores(handle uint64) (*tgl.ScoreTensor, error) {
	handleMu.Lock()
	defer handleMu.Unlock()
	st, ok := results[handle]
	if !ok {
		return nil, errors.New("invalid scores handle")
	}
	return st, nil
}

//export FreeScores
func FreeScores(handle C.ulonglong) {
	handleMu.Lock()
	defer handleMu.Unlock()
	delete(results, uint64(handle))
}

func buildDense(ptr *C.double, rows, cols C.int) (*mat.Dense, error) {
	r := int(rows)
	c := int(cols)
	if r <= 0 || c <= 0 {
		return nil, errors.New("invalid matrix dimensions")
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty matrix")
	}
	src := unsafe.Slice((*float64)(unsafe.Pointer(ptr)), r*c)
	return mat.NewDense(r, c, append([]float64(nil), src...)), nil
}

//geneIDs names the rows of a matrix passed from Python by their index.
func geneIDs(rows int) []string {
	ids := make([]string, rows)
	for ind := range ids {
		ids[ind] = fmt.Sprintf("%d", ind)
	}
	return ids
}

func selectIDs(ids []string, ptr *C.int, length C.int) ([]string, error) {
	n := int(length)
	if n < 0 {
		return nil, errors.New("negative length")
	}
	if n == 0 {
		return nil, nil
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty row list")
	}
	rows := unsafe.Slice((*C.int)(unsafe.Pointer(ptr)), n)
	out := make([]string, n)
	for ind, row := range rows {
		if row < 0 || int(row) >= len(ids) {
			return nil, fmt.Errorf("row %d out of range", int(row))
		}
		out[ind] = ids[row]
	}
	return out, nil
}

//export InferNetwork
func InferNetwork(
	expressionPtr *C.double,
	genes C.int,
	experiments C.int,
	tfRowsPtr *C.int,
	tfsNum C.int,
	targetRowsPtr *C.int,
	targetsNum C.int,
	nSteps C.int,
	alpha C.double,
	nSplit C.int,
	seed C.longlong,
	threadsNum C.int,
	scoringKind C.int,
) C.ulonglong {
	setLastError(nil)

	values, err := buildDense(expressionPtr, genes, experiments)
	if err != nil {
		setLastError(err)
		return 0
	}
	ids := geneIDs(int(genes))
	em, err := tgl.NewExpressionMatrix(ids, values)
	if err != nil {
		setLastError(err)
		return 0
	}

	tfs, err := selectIDs(ids, tfRowsPtr, tfsNum)
	if err != nil {
		setLastError(err)
		return 0
	}
	targets := ids
	if targetsNum > 0 {
		if targets, err = selectIDs(ids, targetRowsPtr, targetsNum); err != nil {
			setLastError(err)
			return 0
		}
	}

	var scoring tgl.Scoring
	switch scoringKind {
	case 0:
		scoring = tgl.ScoringFrequency
	case 1:
		scoring = tgl.ScoringArea
	default:
		setLastError(errors.New("unsupported scoring kind"))
		return 0
	}

	params := tgl.Params{
		Steps:   int(nSteps),
		Alpha:   float64(alpha),
		NSplit:  int(nSplit),
		Seed:    int64(seed),
		Threads: int(threadsNum),
		Scoring: scoring,
		Logger:  logger(),
	}
	st, err := tgl.Infer(context.Background(), em, tfs, targets, params)
	if err != nil {
		setLastError(err)
		return 0
	}
	return C.ulonglong(storeScores(st))
}

//export ScoresShape
func ScoresShape(handle C.ulonglong, stepsOut, tfsOut, targetsOut *C.int) C.int {
	setLastError(nil)
	st, err := fetchScores(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	if stepsOut == nil || tfsOut == nil || targetsOut == nil {
		setLastError(errors.New("null output pointer"))
		return 2
	}
	*stepsOut = C.int(st.Steps())
	*tfsOut = C.int(len(st.TFs()))
	*targetsOut = C.int(len(st.Targets()))
	return 0
}

//export CopyScores
func CopyScores(handle C.ulonglong, outputPtr *C.double) C.int {
	setLastError(nil)
	st, err := fetchScores(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	tfsNum, targetsNum := len(st.TFs()), len(st.Targets())
	if outputPtr == nil {
		setLastError(errors.New("null output pointer"))
		return 2
	}
	out := unsafe.Slice((*float64)(unsafe.Pointer(outputPtr)), st.Steps()*tfsNum*targetsNum)
	for s := 0; s < st.Steps(); s++ {
		copy(out[s*tfsNum*targetsNum:], st.Step(s).RawMatrix().Data)
	}
	return 0
}

//export FailedTargets
func FailedTargets(handle C.ulonglong) C.int {
	setLastError(nil)
	st, err := fetchScores(uint64(handle))
	if err != nil {
		setLastError(err)
		return -1
	}
	return C.int(len(st.Failures()))
}

//export SaveScores
func SaveScores(handle C.ulonglong, path *C.char) C.int {
	setLastError(nil)
	st, err := fetchScores(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	if err := st.Save(C.GoString(path)); err != nil {
		setLastError(err)
		return 2
	}
	return 0
}

//export LoadScores
func LoadScores(path *C.char) C.ulonglong {
	setLastError(nil)
	st, err := tgl.LoadScores(C.GoString(path))
	if err != nil {
		setLastError(err)
		return 0
	}
	return C.ulonglong(storeScores(st))
}

//export RenderNetwork
func RenderNetwork(handle C.ulonglong, step, topK C.int, figureType, fileName *C.char) C.int {
	setLastError(nil)
	st, err := fetchScores(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	if step < 0 || int(step) >= st.Steps() {
		setLastError(fmt.Errorf("step %d out of range", int(step)))
		return 2
	}
	goFigureType := C.GoString(figureType)
	if goFigureType == "" {
		goFigureType = "svg"
	}
	if err := st.RenderNetwork(int(step), int(topK), goFigureType, C.GoString(fileName)); err != nil {
		setLastError(err)
		return 3
	}
	return 0
}

//export GetLastError
func GetLastError() *C.char {
	errStr := getLastError()
	if errStr == "" {
		return nil
	}
	return C.CString(errStr)
}

//export FreeCString
func FreeCString(str *C.char) {
	if str != nil {
		C.free(unsafe.Pointer(str))
	}
}

func main() {}
