package tree

import (
	"fmt"
	"sort"

	i "github.com/cs-au-dk/semdiff/utils/indenter"

	"github.com/benbjohnson/immutable"
)

// Tree is a persistent key-value map backed by a little-endian Patricia
// tree over key hashes. All operations return new trees and never modify
// the receiver, so trees can be shared freely between abstract states.
type Tree[K, V any] struct {
	hasher immutable.Hasher[K]
	root   node[K, V]
}

// NewTree constructs an empty map using the given hasher.
func NewTree[K, V any](hasher immutable.Hasher[K]) Tree[K, V] {
	return Tree[K, V]{hasher: hasher}
}

// MergeFunc combines two values bound to the same key. It must be
// commutative and idempotent. The flag reports whether a and b are equal,
// which allows the tree to keep the existing node.
type MergeFunc[V any] func(a, b V) (V, bool)

// Lookup retrieves the value bound to key.
func (t Tree[K, V]) Lookup(key K) (V, bool) {
	return lookup(t.root, t.hasher.Hash(key), key, t.hasher)
}

// Contains checks whether key is bound.
func (t Tree[K, V]) Contains(key K) bool {
	_, found := t.Lookup(key)
	return found
}

// Insert binds key to value, replacing any previous binding.
func (t Tree[K, V]) Insert(key K, value V) Tree[K, V] {
	return t.InsertOrMerge(key, value, nil)
}

// InsertOrMerge binds key to value. If key was already bound to old, the new
// binding is f(value, old). A nil f replaces the old value.
func (t Tree[K, V]) InsertOrMerge(key K, value V, f MergeFunc[V]) Tree[K, V] {
	t.root, _ = insert(t.root, t.hasher.Hash(key), key, value, t.hasher, f)
	return t
}

// Remove unbinds key. The receiver is returned unchanged if key is unbound.
func (t Tree[K, V]) Remove(key K) Tree[K, V] {
	if !t.Contains(key) {
		return t
	}
	t.root = remove(t.root, t.hasher.Hash(key), key, t.hasher)
	return t
}

// ForEach calls f once for every binding, in hash order.
func (t Tree[K, V]) ForEach(f func(key K, value V)) {
	if t.root != nil {
		t.root.each(f)
	}
}

// Any reports whether some binding satisfies pred. Iteration stops early.
func (t Tree[K, V]) Any(pred func(key K, value V) bool) bool {
	if t.root == nil {
		return false
	}
	return t.root.any(pred)
}

// Merge computes the union of two maps. Keys bound in both maps are bound to
// the result of f on both values. Subtrees shared between the two maps are
// not visited, so merging a map with a few-updates-removed version of itself
// is cheap.
func (t Tree[K, V]) Merge(other Tree[K, V], f MergeFunc[V]) Tree[K, V] {
	t.root, _ = merge(t.root, other.root, t.hasher, f)
	return t
}

// Equal compares two maps, using eq on values. Shared subtrees are skipped.
func (t Tree[K, V]) Equal(other Tree[K, V], eq func(a, b V) bool) bool {
	return equal(t.root, other.root, t.hasher, eq)
}

// Size returns the number of bindings. Runs in linear time.
func (t Tree[K, V]) Size() (n int) {
	t.ForEach(func(K, V) { n++ })
	return
}

// Empty reports whether the map has no bindings.
func (t Tree[K, V]) Empty() bool {
	return t.root == nil
}

func (t Tree[K, V]) StringFiltered(pred func(k K, v V) bool) string {
	entries := []string{}
	t.ForEach(func(k K, v V) {
		if pred(k, v) {
			entries = append(entries, fmt.Sprintf("%v ↦ %v", k, v))
		}
	})
	sort.Strings(entries)

	buf := make([]func() string, 0, len(entries))
	for _, e := range entries {
		e := e
		buf = append(buf, func() string { return e })
	}
	return i.Indenter().Start("{").NestThunked(buf...).End("}")
}

func (t Tree[K, V]) String() string {
	return t.StringFiltered(func(K, V) bool { return true })
}
