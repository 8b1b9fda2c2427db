package cfg

import (
	"sort"

	"github.com/cs-au-dk/semdiff/utils/graph"
)

// Graph exposes the successor relation of the nodes of c.
func (c *CFG) Graph() graph.Graph[*Node] {
	return graph.Of(func(n *Node) []*Node {
		succs := make([]*Node, len(n.Out))
		for i, e := range n.Out {
			succs[i] = e.To
		}
		return succs
	})
}

// Loop is a cyclic strongly connected component of a graph. Head dominates
// every node of Body, including itself.
type Loop struct {
	Head *Node
	Body []*Node
}

// Loops finds the cycles of c, ordered by the id of their head. Nested
// loops share the component of the outermost loop.
func (c *CFG) Loops() []Loop {
	G := c.Graph()
	scc := G.SCC(c.Entry)
	dom := G.Dominators(c.Entry)

	loops := []Loop{}
	for i, comp := range scc.List {
		if !G.Cyclic(scc, i) {
			continue
		}
		body := append([]*Node{}, comp...)
		sort.Slice(body, func(i, j int) bool { return body[i].ID < body[j].ID })
		loops = append(loops, Loop{Head: dom(comp...), Body: body})
	}
	sort.Slice(loops, func(i, j int) bool { return loops[i].Head.ID < loops[j].Head.ID })
	return loops
}

// Reachable holds if to can be reached from from.
func (c *CFG) Reachable(from, to *Node) bool {
	return c.Graph().BFS(from, func(n *Node) bool { return n == to })
}
