package tgl

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

//Edge is a scored TF → target link.
type Edge struct {
	TF     string
	Target string
	Score  float64
}

//Ranking lists the edges of a 0-indexed step by decreasing score. Equal scores keep
//TF list order, then target list order. Self edges are left out.
func (st *ScoreTensor) Ranking(step int) []Edge {
	edges := make([]Edge, 0, len(st.tfs)*len(st.targets))
	for tf, tfID := range st.tfs {
		for target, targetID := range st.targets {
			if tfID == targetID {
				continue
			}
			edges = append(edges, Edge{TF: tfID, Target: targetID, Score: st.At(step, tf, target)})
		}
	}
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Score > edges[j].Score
	})
	return edges
}

//WriteRankingTSV writes "tf<TAB>target<TAB>score" lines for the best limit edges of a step.
//A non-positive limit writes every edge.
func (st *ScoreTensor) WriteRankingTSV(dst io.Writer, step, limit int) error {
	edges := st.Ranking(step)
	if limit > 0 && limit < len(edges) {
		edges = edges[:limit]
	}
	w := bufio.NewWriter(dst)
	for _, edge := range edges {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%.6f\n", edge.TF, edge.Target, edge.Score); err != nil {
			return err
		}
	}
	return w.Flush()
}
