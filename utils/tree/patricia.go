package tree

import "github.com/benbjohnson/immutable"

// The layout follows Okasaki and Gill, "Fast Mergeable Integer Maps".
// Keys are hashed to 32 bits; keys whose hashes collide share a leaf.

type hash = uint32

type node[K, V any] interface {
	each(func(K, V))
	any(func(K, V) bool) bool
}

type entry[K, V any] struct {
	key   K
	value V
}

type leaf[K, V any] struct {
	hash    hash
	entries []entry[K, V]
}

type branch[K, V any] struct {
	// Bits of the hash below bit, shared by every key in the subtree.
	prefix hash
	// Single set bit on which the left (unset) and right (set) subtrees differ.
	bit         hash
	left, right node[K, V]
}

func (l *leaf[K, V]) each(f func(K, V)) {
	for _, e := range l.entries {
		f(e.key, e.value)
	}
}

func (l *leaf[K, V]) any(pred func(K, V) bool) bool {
	for _, e := range l.entries {
		if pred(e.key, e.value) {
			return true
		}
	}
	return false
}

func (l *leaf[K, V]) find(key K, hasher immutable.Hasher[K]) int {
	for idx, e := range l.entries {
		if hasher.Equal(key, e.key) {
			return idx
		}
	}
	return -1
}

func (l *leaf[K, V]) with(idx int, e entry[K, V]) *leaf[K, V] {
	entries := make([]entry[K, V], len(l.entries), len(l.entries)+1)
	copy(entries, l.entries)
	if idx < 0 {
		entries = append(entries, e)
	} else {
		entries[idx] = e
	}
	return &leaf[K, V]{l.hash, entries}
}

func (b *branch[K, V]) each(f func(K, V)) {
	b.left.each(f)
	b.right.each(f)
}

func (b *branch[K, V]) any(pred func(K, V) bool) bool {
	return b.left.any(pred) || b.right.any(pred)
}

// covers checks whether h agrees with the branch prefix below the branching bit.
func (b *branch[K, V]) covers(h hash) bool {
	return h&(b.bit-1) == b.prefix
}

func (b *branch[K, V]) side(h hash) (goLeft bool) {
	return h&b.bit == 0
}

// lowestDifference isolates the lowest bit on which a and b differ.
func lowestDifference(a, b hash) hash {
	d := a ^ b
	return d & -d
}

// newBranch builds a branch, collapsing it if one side is empty.
func newBranch[K, V any](prefix, bit hash, left, right node[K, V]) node[K, V] {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	}
	return &branch[K, V]{prefix, bit, left, right}
}

// link combines two non-empty trees whose prefixes p and q differ.
func link[K, V any](p hash, s node[K, V], q hash, t node[K, V]) node[K, V] {
	bit := lowestDifference(p, q)
	if p&bit == 0 {
		return &branch[K, V]{p & (bit - 1), bit, s, t}
	}
	return &branch[K, V]{p & (bit - 1), bit, t, s}
}

func lookup[K, V any](n node[K, V], h hash, key K, hasher immutable.Hasher[K]) (V, bool) {
	for n != nil {
		switch cur := n.(type) {
		case *leaf[K, V]:
			if cur.hash == h {
				if idx := cur.find(key, hasher); idx >= 0 {
					return cur.entries[idx].value, true
				}
			}
			n = nil
		case *branch[K, V]:
			switch {
			case !cur.covers(h):
				n = nil
			case cur.side(h):
				n = cur.left
			default:
				n = cur.right
			}
		}
	}

	var zero V
	return zero, false
}

// insert returns the updated tree and whether it differs from n.
// When f reports that the merged value equals the old one, n is returned as is.
func insert[K, V any](n node[K, V], h hash, key K, value V, hasher immutable.Hasher[K], f MergeFunc[V]) (node[K, V], bool) {
	fresh := &leaf[K, V]{h, []entry[K, V]{{key, value}}}

	switch cur := n.(type) {
	case nil:
		return fresh, true

	case *leaf[K, V]:
		if cur.hash != h {
			return link[K, V](h, fresh, cur.hash, cur), true
		}

		idx := cur.find(key, hasher)
		if idx >= 0 && f != nil {
			merged, same := f(value, cur.entries[idx].value)
			if same {
				return cur, false
			}
			value = merged
		}
		return cur.with(idx, entry[K, V]{key, value}), true

	case *branch[K, V]:
		if !cur.covers(h) {
			return link[K, V](h, fresh, cur.prefix, cur), true
		}

		left, right := cur.left, cur.right
		var changed bool
		if cur.side(h) {
			left, changed = insert(left, h, key, value, hasher, f)
		} else {
			right, changed = insert(right, h, key, value, hasher, f)
		}
		if !changed {
			return cur, false
		}
		return &branch[K, V]{cur.prefix, cur.bit, left, right}, true
	}

	panic("tree: unknown node")
}

func remove[K, V any](n node[K, V], h hash, key K, hasher immutable.Hasher[K]) node[K, V] {
	switch cur := n.(type) {
	case *leaf[K, V]:
		if cur.hash != h {
			return cur
		}
		kept := make([]entry[K, V], 0, len(cur.entries))
		for _, e := range cur.entries {
			if !hasher.Equal(key, e.key) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		return &leaf[K, V]{cur.hash, kept}

	case *branch[K, V]:
		if !cur.covers(h) {
			return cur
		}
		if cur.side(h) {
			return newBranch(cur.prefix, cur.bit, remove(cur.left, h, key, hasher), cur.right)
		}
		return newBranch(cur.prefix, cur.bit, cur.left, remove(cur.right, h, key, hasher))
	}
	return n
}
