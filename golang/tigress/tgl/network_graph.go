package tgl

import (
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

var graphvizFormats = map[string]graphviz.Format{
	"png": graphviz.PNG,
	"svg": graphviz.SVG,
	"jpg": graphviz.JPG,
	"dot": graphviz.XDOT,
}

//DrawNetwork builds a directed graph of the topK best scored edges of a 0-indexed step.
//Edges with a zero score are never drawn. TFs are drawn as boxes.
func (st *ScoreTensor) DrawNetwork(step, topK int) (*graphviz.Graphviz, *cgraph.Graph, error) {
	graphViz := graphviz.New()
	graph, err := graphViz.Graph()
	if err != nil {
		return nil, nil, err
	}

	isTF := make(map[string]bool, len(st.tfs))
	for _, tf := range st.tfs {
		isTF[tf] = true
	}

	nodes := make(map[string]*cgraph.Node)
	node := func(id string) (*cgraph.Node, error) {
		if n, ok := nodes[id]; ok {
			return n, nil
		}
		n, err := graph.CreateNode(id)
		if err != nil {
			return nil, err
		}
		if isTF[id] {
			n.SetShape(cgraph.BoxShape)
		}
		nodes[id] = n
		return n, nil
	}

	for ind, edge := range st.Ranking(step) {
		if (topK > 0 && ind >= topK) || edge.Score <= 0 {
			break
		}
		from, err := node(edge.TF)
		if err != nil {
			return nil, nil, err
		}
		to, err := node(edge.Target)
		if err != nil {
			return nil, nil, err
		}
		e, err := graph.CreateEdge(fmt.Sprintf("%s->%s", edge.TF, edge.Target), from, to)
		if err != nil {
			return nil, nil, err
		}
		e.SetLabel(fmt.Sprintf("%.2f", edge.Score))
		e.SetPenWidth(1 + 3*edge.Score)
	}
	return graphViz, graph, nil
}

//RenderNetwork draws the network of a step into fileName. figureType is png, svg, jpg or dot.
func (st *ScoreTensor) RenderNetwork(step, topK int, figureType, fileName string) error {
	format, ok := graphvizFormats[figureType]
	if !ok {
		return fmt.Errorf("tigress: unknown figure type %q", figureType)
	}
	graphViz, graph, err := st.DrawNetwork(step, topK)
	if err != nil {
		return err
	}
	defer func() {
		_ = graph.Close()
		_ = graphViz.Close()
	}()
	return graphViz.RenderFilename(graph, format, fileName)
}
