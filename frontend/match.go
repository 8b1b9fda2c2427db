package frontend

import (
	"hash/fnv"
	"strconv"

	"github.com/cs-au-dk/semdiff/analysis/ast"
)

// Match maps the nodes of two versions of a file onto each other and
// classifies every node. Identical subtrees are mapped unchanged. Nodes of
// the same kind that occupy corresponding positions are mapped, and are
// labeled UPDATED if their own attributes differ. Identical subtrees that
// changed position among their siblings are MOVED. Everything left unmapped
// is REMOVED from the source or INSERTED into the destination.
func Match(src, dst *ast.Program) {
	m := &matcher{fp: make(map[*ast.Node]uint64)}
	m.match(src.Root, dst.Root)
}

type matcher struct {
	// fp caches structural fingerprints of subtrees.
	fp map[*ast.Node]uint64
}

func (m *matcher) fingerprint(n *ast.Node) uint64 {
	if f, ok := m.fp[n]; ok {
		return f
	}
	h := fnv.New64a()
	h.Write([]byte(label(n)))
	for _, c := range append(append([]*ast.Node{}, n.Params...), n.Children...) {
		h.Write([]byte(strconv.FormatUint(m.fingerprint(c), 16)))
		h.Write([]byte{0})
	}
	f := h.Sum64()
	m.fp[n] = f
	return f
}

// label renders the attributes of a node that do not depend on its children.
func label(n *ast.Node) string {
	decl := ""
	if n.Decl {
		decl = "decl"
	}
	return n.Kind.String() + "\x00" + n.Op + "\x00" + n.Name + "\x00" + n.Value + "\x00" +
		strconv.Itoa(len(n.Params)) + "\x00" + decl
}

func identical(a, b *ast.Node) bool {
	if label(a) != label(b) || len(a.Children) != len(b.Children) || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !identical(a.Params[i], b.Params[i]) {
			return false
		}
	}
	for i := range a.Children {
		if !identical(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func link(a, b *ast.Node, change ast.ChangeType) {
	a.Mapped, b.Mapped = b, a
	a.Change, b.Change = change, change
}

// same maps two identical subtrees. The roots get the given change type,
// the descendants are unchanged.
func same(a, b *ast.Node, change ast.ChangeType) {
	link(a, b, change)
	for i := range a.Params {
		same(a.Params[i], b.Params[i], ast.Unchanged)
	}
	for i := range a.Children {
		same(a.Children[i], b.Children[i], ast.Unchanged)
	}
}

func mark(n *ast.Node, change ast.ChangeType) {
	ast.Inspect(n, func(c *ast.Node) bool {
		c.Mapped = nil
		c.Change = change
		return true
	})
}

func (m *matcher) equal(a, b *ast.Node) bool {
	return m.fingerprint(a) == m.fingerprint(b) && identical(a, b)
}

func (m *matcher) match(a, b *ast.Node) {
	if m.equal(a, b) {
		same(a, b, ast.Unchanged)
		return
	}

	change := ast.Unchanged
	if label(a) != label(b) {
		change = ast.Updated
	}
	link(a, b, change)
	m.matchLists(a.Params, b.Params)
	m.matchLists(a.Children, b.Children)
}

// matchLists aligns two sibling lists. The longest common subsequence of
// identical subtrees anchors the alignment; between anchors, nodes of the
// same kind are paired in order and matched recursively.
func (m *matcher) matchLists(as, bs []*ast.Node) {
	anchors := m.lcs(as, bs)

	matchedA := make([]bool, len(as))
	matchedB := make([]bool, len(bs))

	pi, pj := 0, 0
	for _, anchor := range append(anchors, [2]int{len(as), len(bs)}) {
		i, j := anchor[0], anchor[1]
		m.pairGap(as[pi:i], bs[pj:j], matchedA[pi:i], matchedB[pj:j])
		if i < len(as) {
			same(as[i], bs[j], ast.Unchanged)
			matchedA[i], matchedB[j] = true, true
		}
		pi, pj = i+1, j+1
	}

	// Identical subtrees found at a different position moved.
	for i, a := range as {
		if matchedA[i] {
			continue
		}
		for j, b := range bs {
			if !matchedB[j] && m.equal(a, b) {
				same(a, b, ast.Moved)
				matchedA[i], matchedB[j] = true, true
				break
			}
		}
	}

	for i, a := range as {
		if !matchedA[i] {
			mark(a, ast.Removed)
		}
	}
	for j, b := range bs {
		if !matchedB[j] {
			mark(b, ast.Inserted)
		}
	}
}

func (m *matcher) pairGap(as, bs []*ast.Node, matchedA, matchedB []bool) {
	j := 0
	for i, a := range as {
		for k := j; k < len(bs); k++ {
			if bs[k].Kind == a.Kind && !m.equal(a, bs[k]) {
				if m.identicalElsewhere(a, bs) || m.identicalElsewhere(bs[k], as) {
					continue
				}
				m.match(a, bs[k])
				matchedA[i], matchedB[k] = true, true
				j = k + 1
				break
			}
		}
	}
}

// identicalElsewhere reports whether n has an identical counterpart in ns.
// Such nodes are left for move detection.
func (m *matcher) identicalElsewhere(n *ast.Node, ns []*ast.Node) bool {
	for _, o := range ns {
		if m.equal(n, o) {
			return true
		}
	}
	return false
}

// lcs returns index pairs of the longest common subsequence of identical
// subtrees.
func (m *matcher) lcs(as, bs []*ast.Node) (res [][2]int) {
	n, k := len(as), len(bs)
	if n == 0 || k == 0 {
		return nil
	}
	table := make([][]int, n+1)
	for i := range table {
		table[i] = make([]int, k+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := k - 1; j >= 0; j-- {
			switch {
			case m.equal(as[i], bs[j]):
				table[i][j] = table[i+1][j+1] + 1
			case table[i+1][j] >= table[i][j+1]:
				table[i][j] = table[i+1][j]
			default:
				table[i][j] = table[i][j+1]
			}
		}
	}
	for i, j := 0, 0; i < n && j < k; {
		switch {
		case m.equal(as[i], bs[j]):
			res = append(res, [2]int{i, j})
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			i++
		default:
			j++
		}
	}
	return
}
