// Package graph holds algorithms over graphs whose edge relation is given
// by a successor function.
package graph

import "github.com/cs-au-dk/semdiff/utils/worklist"

// Graph is a directed graph. The successors of a node are computed once.
type Graph[T comparable] struct {
	succs func(T) []T
	cache map[T][]T
}

func Of[T comparable](succs func(T) []T) Graph[T] {
	return Graph[T]{succs: succs, cache: make(map[T][]T)}
}

func (G Graph[T]) Edges(n T) []T {
	if es, ok := G.cache[n]; ok {
		return es
	}
	es := G.succs(n)
	G.cache[n] = es
	return es
}

// BFS visits the nodes reachable from start in breadth-first order until
// visit returns true. It reports whether the search stopped early.
func (G Graph[T]) BFS(start T, visit func(T) bool) bool {
	seen := map[T]bool{start: true}
	stopped := false
	worklist.Drain(start, func(n T, add func(T)) {
		if stopped || visit(n) {
			stopped = true
			return
		}
		for _, m := range G.Edges(n) {
			if !seen[m] {
				seen[m] = true
				add(m)
			}
		}
	})
	return stopped
}
