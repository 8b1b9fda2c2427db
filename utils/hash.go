package utils

import (
	"hash/fnv"

	"github.com/benbjohnson/immutable"
)

type (
	// Hashable is implemented by all hashable types.
	Hashable interface {
		Hash() uint32
	}
	// HashableEq is implemented by all hashable types that can be compared for equality.
	HashableEq[T any] interface {
		Hashable
		Equal(T) bool
	}

	// hashableHasher is a hasher for hashable and equality comparable entities.
	hashableHasher[T HashableEq[T]] struct{}
)

// Equal checks that two hashable entities a and b are equal.
func (hashableHasher[T]) Equal(a, b T) bool { return a.Equal(b) }

// Hash computes the uint32 hash of hashable entity a.
func (hashableHasher[T]) Hash(a T) uint32 { return a.Hash() }

// HashableHasher is a generic hasher factory of hashable and equality comparable entities.
func HashableHasher[T HashableEq[T]]() immutable.Hasher[T] { return hashableHasher[T]{} }

// StringHasher hashes strings with FNV-1a so that iteration orders of
// string-keyed persistent maps are stable across runs.
type StringHasher struct{}

func (StringHasher) Hash(s string) uint32 { return HashString(s) }

func (StringHasher) Equal(a, b string) bool { return a == b }

var _ immutable.Hasher[string] = StringHasher{}

// HashString computes the FNV-1a hash of s.
func HashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// HashCombine uses the C++ boost algorithm for combining multiple hash values.
func HashCombine(hs ...uint32) (seed uint32) {
	for _, v := range hs {
		seed = v + 0x9e3779b9 + (seed << 6) + (seed >> 2)
	}

	return
}

// IntHasher hashes integer keys such as syntax node ids.
type IntHasher struct{}

func (IntHasher) Hash(i int) uint32 { return HashCombine(uint32(i), uint32(int64(i)>>32)) }

func (IntHasher) Equal(a, b int) bool { return a == b }

var _ immutable.Hasher[int] = IntHasher{}
