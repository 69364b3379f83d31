package tgl

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

//ExpressionMatrix holds expression levels of genes (rows) across experiments (columns).
//It is read-only once constructed.
type ExpressionMatrix struct {
	genes       []string
	experiments []string
	values      *mat.Dense
	index       map[string]int
}

//NewExpressionMatrix labels the rows of values with gene ids. The matrix is not copied.
func NewExpressionMatrix(genes []string, values *mat.Dense) (*ExpressionMatrix, error) {
	if values == nil {
		return nil, fmt.Errorf("%w: nil expression values", ErrShape)
	}
	h, _ := values.Dims()
	if h != len(genes) {
		return nil, fmt.Errorf("%w: %d gene ids for %d rows", ErrShape, len(genes), h)
	}
	index := make(map[string]int, len(genes))
	for row, gene := range genes {
		if _, ok := index[gene]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGene, gene)
		}
		index[gene] = row
	}
	return &ExpressionMatrix{
		genes:  append([]string(nil), genes...),
		values: values,
		index:  index,
	}, nil
}

//SetExperiments attaches experiment names, used only for reporting.
func (em *ExpressionMatrix) SetExperiments(names []string) error {
	if len(names) != em.Experiments() {
		return fmt.Errorf("%w: %d experiment names for %d columns", ErrShape, len(names), em.Experiments())
	}
	em.experiments = append([]string(nil), names...)
	return nil
}

func (em *ExpressionMatrix) Genes() []string {
	return append([]string(nil), em.genes...)
}

func (em *ExpressionMatrix) ExperimentNames() []string {
	return append([]string(nil), em.experiments...)
}

func (em *ExpressionMatrix) Experiments() int {
	_, w := em.values.Dims()
	return w
}

//Index returns the row of a gene id.
func (em *ExpressionMatrix) Index(gene string) (int, bool) {
	row, ok := em.index[gene]
	return row, ok
}

//Row returns a view of the expression profile of a gene.
func (em *ExpressionMatrix) Row(gene string) (mat.Vector, bool) {
	row, ok := em.index[gene]
	if !ok {
		return nil, false
	}
	return em.values.RowView(row), true
}

//Values exposes the underlying matrix. Callers must not modify it.
func (em *ExpressionMatrix) Values() mat.Matrix {
	return em.values
}

//ParseExpressionTSV reads a tab separated table: a header "gene<TAB>exp1<TAB>exp2..."
//followed by one row per gene.
func ParseExpressionTSV(src io.Reader) (*ExpressionMatrix, error) {
	reader := csv.NewReader(bufio.NewReader(src))
	reader.Comma = '\t'
	reader.Comment = '#'

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: expression table needs a header and at least one gene", ErrShape)
	}

	header := rows[0]
	w := len(header) - 1
	if w < 1 {
		return nil, fmt.Errorf("%w: expression table has no experiment columns", ErrShape)
	}

	genes := make([]string, 0, len(rows)-1)
	values := mat.NewDense(len(rows)-1, w, nil)
	for p, row := range rows[1:] {
		genes = append(genes, strings.TrimSpace(row[0]))
		for q := 0; q < w; q++ {
			val, err := strconv.ParseFloat(strings.TrimSpace(row[q+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("tigress: gene %s, column %s: %w", row[0], header[q+1], err)
			}
			values.Set(p, q, val)
		}
	}

	em, err := NewExpressionMatrix(genes, values)
	if err != nil {
		return nil, err
	}
	HandleError(em.SetExperiments(header[1:]))
	return em, nil
}

//ReadExpressionTSV reads an expression table from a file.
func ReadExpressionTSV(fileName string) (*ExpressionMatrix, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ParseExpressionTSV(f)
}

//ReadExpressionNpy reads a genes × experiments matrix from an npy file and the row labels
//from a gene list file.
func ReadExpressionNpy(fileNameValues, fileNameGenes string) (*ExpressionMatrix, error) {
	values, err := ReadNpy(fileNameValues)
	if err != nil {
		return nil, err
	}
	genes, err := ReadGeneList(fileNameGenes)
	if err != nil {
		return nil, err
	}
	return NewExpressionMatrix(genes, values)
}

//ReadNpy reads the content of npy file
func ReadNpy(fileName string) (*mat.Dense, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, err
	}

	denseMat := &mat.Dense{}
	if err := r.Read(denseMat); err != nil {
		return nil, fmt.Errorf("tigress: reading %s: %w", fileName, err)
	}
	return denseMat, nil
}

//ParseGeneList reads one gene id per line; blank lines and '#' comments are skipped.
func ParseGeneList(src io.Reader) ([]string, error) {
	var genes []string
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		genes = append(genes, strings.Fields(line)[0])
	}
	return genes, scanner.Err()
}

func ReadGeneList(fileName string) ([]string, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ParseGeneList(f)
}
