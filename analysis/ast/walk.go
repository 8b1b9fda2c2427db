package ast

// Inspect traverses the tree rooted at n in depth-first pre-order. If f
// returns false, the children of the node are skipped. Function parameters
// are visited before the function body.
func Inspect(n *Node, f func(*Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, p := range n.Params {
		Inspect(p, f)
	}
	for _, c := range n.Children {
		Inspect(c, f)
	}
}

// InspectPost traverses the tree rooted at n in depth-first post-order.
// Nested functions are not entered.
func InspectPost(n *Node, f func(*Node)) {
	if n == nil {
		return
	}
	if n.Kind != KFunction {
		for _, c := range n.Children {
			InspectPost(c, f)
		}
	}
	f(n)
}

// IDs hands out fresh node ids. Both versions of a file draw from one
// generator so ids are unique across the pair.
type IDs struct {
	next int
}

func (g *IDs) Next() int {
	g.next++
	return g.next
}
