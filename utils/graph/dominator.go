package graph

import "fmt"

// Dominators computes the dominator tree of the nodes reachable from root,
// following Cooper, Harvey and Kennedy. The returned function finds the
// nearest common dominator of its arguments, which must be reachable.
func (G Graph[T]) Dominators(root T) func(...T) T {
	// Nodes are numbered in post-order, so the root has the highest number.
	number := make(map[T]int)
	order := []T{}
	preds := make(map[T][]T)

	var dfs func(T)
	dfs = func(n T) {
		number[n] = -1
		for _, m := range G.Edges(n) {
			preds[m] = append(preds[m], n)
			if _, seen := number[m]; !seen {
				dfs(m)
			}
		}
		number[n] = len(order)
		order = append(order, n)
	}
	dfs(root)

	idom := make([]int, len(order))
	for i := range idom {
		idom[i] = -1
	}
	top := len(order) - 1
	idom[top] = top

	intersect := func(a, b int) int {
		for a != b {
			for a < b {
				a = idom[a]
			}
			for b < a {
				b = idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for i := top - 1; i >= 0; i-- {
			dom := -1
			for _, p := range preds[order[i]] {
				j := number[p]
				switch {
				case idom[j] == -1:
				case dom == -1:
					dom = j
				default:
					dom = intersect(j, dom)
				}
			}
			if dom != idom[i] {
				idom[i] = dom
				changed = true
			}
		}
	}

	return func(ns ...T) T {
		if len(ns) == 0 {
			panic("no nodes to dominate")
		}
		dom := -1
		for _, n := range ns {
			i, ok := number[n]
			if !ok {
				panic(fmt.Errorf("%v is not reachable from the root", n))
			}
			if dom == -1 {
				dom = i
			} else {
				dom = intersect(i, dom)
			}
		}
		return order[dom]
	}
}
