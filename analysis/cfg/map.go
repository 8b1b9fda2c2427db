package cfg

// Map correlates the graphs of two versions of a program through the
// mapping between their syntax trees. Correlated graphs, nodes and edges
// refer to each other through their Mapped fields.
func Map(src, dst *Set) {
	nodes := make(map[nodeKey]*Node)
	for _, c := range dst.All() {
		for _, n := range c.Nodes {
			nodes[n.key()] = n
		}
	}

	for _, c := range src.All() {
		if m := c.Function.Mapped; m != nil {
			if d, ok := dst.Of(m); ok {
				c.Mapped, d.Mapped = d, c
			}
		}

		for _, n := range c.Nodes {
			syn := n.Stmt
			if syn == nil {
				syn = n.Origin
			}
			if syn.Mapped == nil {
				continue
			}
			if d, ok := nodes[nodeKey{n.Kind, syn.Mapped.ID}]; ok {
				n.Mapped, d.Mapped = d, n
			}
		}
	}

	for _, c := range src.All() {
		for _, e := range c.Edges {
			if e.From.Mapped == nil || e.To.Mapped == nil {
				continue
			}
			for _, d := range e.From.Mapped.Out {
				if d.To == e.To.Mapped && sameBranch(e, d) {
					e.Mapped, d.Mapped = d, e
					break
				}
			}
		}
	}
}

func sameBranch(a, b *Edge) bool {
	if a.Condition == nil || b.Condition == nil {
		return a.Condition == nil && b.Condition == nil
	}
	return a.Condition.Synthetic == b.Condition.Synthetic
}
