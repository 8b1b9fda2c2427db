package graph

// Components is a decomposition of a graph into strongly connected
// components. A component only has edges to itself and to components with a
// smaller index.
type Components[T comparable] struct {
	List  [][]T
	index map[T]int
}

// Of returns the index of the component of n, if n was reached.
func (c Components[T]) Of(n T) (int, bool) {
	i, ok := c.index[n]
	return i, ok
}

// SCC computes the strongly connected components of the nodes reachable
// from roots with Tarjan's algorithm.
func (G Graph[T]) SCC(roots ...T) Components[T] {
	res := Components[T]{index: make(map[T]int)}
	low := make(map[T]int)
	stack := []T{}
	time := 0

	var visit func(T) int
	visit = func(n T) int {
		time++
		num := time
		low[n] = num
		stack = append(stack, n)

		for _, m := range G.Edges(n) {
			if _, done := res.index[m]; done {
				continue
			}
			l, seen := low[m]
			if !seen {
				l = visit(m)
			}
			low[n] = min(low[n], l)
		}

		if low[n] == num {
			comp := []T{}
			for {
				m := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				res.index[m] = len(res.List)
				comp = append(comp, m)
				if m == n {
					break
				}
			}
			res.List = append(res.List, comp)
		}
		return low[n]
	}

	for _, r := range roots {
		if _, seen := low[r]; !seen {
			visit(r)
		}
	}
	return res
}

// Cyclic holds if component i contains a cycle.
func (G Graph[T]) Cyclic(c Components[T], i int) bool {
	comp := c.List[i]
	if len(comp) > 1 {
		return true
	}
	for _, m := range G.Edges(comp[0]) {
		if m == comp[0] {
			return true
		}
	}
	return false
}
