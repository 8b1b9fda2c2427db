package graph

import (
	"sort"
	"testing"
)

var edges = map[int][]int{
	0:  {1, 8},
	1:  {4, 5, 2},
	2:  {6, 3, 9},
	3:  {2, 7},
	4:  {0, 5},
	5:  {6},
	6:  {5},
	7:  {3, 6},
	8:  {},
	9:  {10, 11},
	10: {12, 13},
	11: {12, 13},
	12: {12},
	13: {},
}

func sample() Graph[int] {
	return Of(func(i int) []int { return edges[i] })
}

func TestSCC(t *testing.T) {
	G := sample()
	scc := G.SCC(0)
	comp := func(n int) int {
		i, ok := scc.Of(n)
		if !ok {
			t.Fatalf("%d was not reached", n)
		}
		return i
	}

	same := [][]int{{0, 1, 4}, {2, 3, 7}, {5, 6}}
	for _, group := range same {
		for _, n := range group[1:] {
			if comp(n) != comp(group[0]) {
				t.Errorf("%d and %d are in different components", n, group[0])
			}
		}
	}
	if comp(8) == comp(0) {
		t.Error("8 is in the component of 0")
	}
	if len(scc.List) != 9 {
		t.Errorf("expected 9 components, got %v", scc.List)
	}

	// Components only reach components with smaller indices.
	for n, succs := range edges {
		for _, m := range succs {
			if comp(m) > comp(n) {
				t.Errorf("%d reaches %d in a later component", n, m)
			}
		}
	}

	cyclic := 0
	for i := range scc.List {
		if G.Cyclic(scc, i) {
			cyclic++
		}
	}
	// The three groups and the self loop of 12.
	if cyclic != 4 {
		t.Errorf("expected 4 cyclic components, got %d", cyclic)
	}
}

func TestDominatorTree(t *testing.T) {
	dom := sample().Dominators(0)

	for _, tc := range []struct {
		nodes []int
		want  int
	}{
		{[]int{5}, 5},
		{[]int{5, 6}, 1},
		{[]int{12, 13}, 9},
		{[]int{3, 7}, 3},
		{[]int{8, 10}, 0},
	} {
		if got := dom(tc.nodes...); got != tc.want {
			t.Errorf("dominator of %v is %d, expected %d", tc.nodes, got, tc.want)
		}
	}
}

func TestBFS(t *testing.T) {
	seen := []int{}
	stopped := sample().BFS(9, func(n int) bool {
		seen = append(seen, n)
		return false
	})
	sort.Ints(seen)
	if stopped || len(seen) != 5 || seen[0] != 9 || seen[4] != 13 {
		t.Errorf("unexpected traversal %v", seen)
	}

	if !sample().BFS(0, func(n int) bool { return n == 6 }) {
		t.Error("search for 6 did not stop")
	}
}
