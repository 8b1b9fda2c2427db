package cfg

import (
	"fmt"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/utils/dot"
)

// Dot builds a dot graph with one cluster per function.
func (s *Set) Dot() *dot.Graph {
	g := dot.New(s.Program.Name)
	for _, c := range s.cfgs {
		c.addTo(g)
	}
	return g
}

// Dot builds a dot graph of a single function.
func (c *CFG) Dot() *dot.Graph {
	g := dot.New(c.Name())
	c.addTo(g)
	return g
}

func (c *CFG) addTo(g *dot.Graph) {
	cluster := g.Cluster(fmt.Sprintf("cfg%d", c.ID), dot.Attrs{
		"label":   c.Name(),
		"bgcolor": "#e6ffff",
	})

	nodes := make(map[*Node]*dot.Node, len(c.Nodes))
	for _, n := range c.Nodes {
		attrs := dot.Attrs{"label": n.String()}
		switch n.Kind {
		case EntryNode, ExitNode:
			attrs["fillcolor"] = "#a0ecfa"
		case BranchNode, JoinNode:
			attrs["shape"] = "diamond"
		}
		// Changed statements stand out.
		if n.Stmt != nil && n.Stmt.Change != 0 {
			attrs["fillcolor"] = "#ffd9b3"
		}
		nodes[n] = cluster.Node(fmt.Sprintf("n%d", n.ID), attrs)
	}

	for _, e := range c.Edges {
		attrs := dot.Attrs{}
		if e.Condition != nil {
			attrs["label"] = ast.Print(e.Condition)
			if e.Condition.Synthetic {
				attrs["style"] = "dashed"
			}
		}
		if e.Loop {
			attrs["color"] = "sienna"
			if attrs["style"] == "" {
				attrs["style"] = "bold"
			}
		}
		g.Edge(nodes[e.From], nodes[e.To], attrs)
	}
}

// Visualize renders the graphs to an image in the configured format and
// returns the path of the image.
func (s *Set) Visualize(outfname string) (string, error) {
	return s.Dot().Render(outfname, opts.OutputFormat())
}
