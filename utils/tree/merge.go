package tree

import "github.com/benbjohnson/immutable"

// mergeLeaf inserts every entry of l into t. The flag is true only when
// t is a leaf holding exactly the same bindings as l.
func mergeLeaf[K, V any](l *leaf[K, V], t node[K, V], hasher immutable.Hasher[K], f MergeFunc[V]) (node[K, V], bool) {
	res := t
	for _, e := range l.entries {
		res, _ = insert(res, l.hash, e.key, e.value, hasher, f)
	}

	if res != t {
		return res, false
	}
	other, isLeaf := t.(*leaf[K, V])
	return res, isLeaf && len(other.entries) == len(l.entries)
}

func merge[K, V any](a, b node[K, V], hasher immutable.Hasher[K], f MergeFunc[V]) (node[K, V], bool) {
	switch {
	case a == b:
		return a, true
	case a == nil:
		return b, false
	case b == nil:
		return a, false
	}

	if l, ok := a.(*leaf[K, V]); ok {
		return mergeLeaf(l, b, hasher, f)
	}
	if l, ok := b.(*leaf[K, V]); ok {
		return mergeLeaf(l, a, hasher, f)
	}

	s, t := a.(*branch[K, V]), b.(*branch[K, V])
	if s.bit == t.bit && s.prefix == t.prefix {
		left, lsame := merge(s.left, t.left, hasher, f)
		right, rsame := merge(s.right, t.right, hasher, f)
		switch {
		case lsame && rsame:
			return s, true
		case left == s.left && right == s.right:
			return s, false
		case left == t.left && right == t.right:
			return t, false
		}
		return &branch[K, V]{s.prefix, s.bit, left, right}, false
	}

	// Let s be the branch closer to the root.
	if s.bit > t.bit {
		s, t = t, s
	}
	if s.bit == t.bit || !s.covers(t.prefix) {
		return link[K, V](s.prefix, s, t.prefix, t), false
	}

	left, right := s.left, s.right
	if s.side(t.prefix) {
		left, _ = merge(left, node[K, V](t), hasher, f)
	} else {
		right, _ = merge(right, node[K, V](t), hasher, f)
	}
	if left == s.left && right == s.right {
		return s, false
	}
	return &branch[K, V]{s.prefix, s.bit, left, right}, false
}

func equal[K, V any](a, b node[K, V], hasher immutable.Hasher[K], eq func(a, b V) bool) bool {
	if a == b {
		return true
	} else if a == nil || b == nil {
		return false
	}

	switch a := a.(type) {
	case *leaf[K, V]:
		b, ok := b.(*leaf[K, V])
		if !ok || a.hash != b.hash || len(a.entries) != len(b.entries) {
			return false
		}
		for _, e := range a.entries {
			idx := b.find(e.key, hasher)
			if idx < 0 || !eq(e.value, b.entries[idx].value) {
				return false
			}
		}
		return true

	case *branch[K, V]:
		b, ok := b.(*branch[K, V])
		return ok && a.prefix == b.prefix && a.bit == b.bit &&
			equal(a.left, b.left, hasher, eq) && equal(a.right, b.right, hasher, eq)
	}

	panic("tree: unknown node")
}
