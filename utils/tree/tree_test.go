package tree

import (
	"math/rand"
	"testing"

	"github.com/benbjohnson/immutable"
)

var intHasher = immutable.NewHasher[int](0)

type collidingHasher struct{}

func (collidingHasher) Hash(int) uint32     { return 7 }
func (collidingHasher) Equal(a, b int) bool { return a == b }

type modHasher uint32

func (m modHasher) Hash(i int) uint32     { return uint32(i) % uint32(m) }
func (modHasher) Equal(a, b int) bool   { return a == b }

func hashers() []immutable.Hasher[int] {
	return []immutable.Hasher[int]{intHasher, collidingHasher{}, modHasher(3)}
}

func keep(a, b string) (string, bool) {
	if a < b {
		return a, a == b
	}
	return b, a == b
}

func TestLookupAfterInsert(t *testing.T) {
	for _, hasher := range hashers() {
		tr := NewTree[int, string](hasher)
		for i := 0; i < 20; i++ {
			tr = tr.Insert(i, string(rune('a'+i)))
		}

		for i := 0; i < 20; i++ {
			v, ok := tr.Lookup(i)
			if !ok || v != string(rune('a'+i)) {
				t.Errorf("Lookup(%d) = %q, %v, expected %q", i, v, ok, string(rune('a'+i)))
			}
		}
		if _, ok := tr.Lookup(42); ok {
			t.Errorf("Lookup(42) should miss in %v", tr)
		}
		if sz := tr.Size(); sz != 20 {
			t.Errorf("Size() = %d, expected 20", sz)
		}
	}
}

func TestPersistence(t *testing.T) {
	for _, hasher := range hashers() {
		history := []Tree[int, int]{NewTree[int, int](hasher)}
		for i := 0; i < 30; i++ {
			history = append(history, history[len(history)-1].Insert(i, i))
		}

		for version, tr := range history {
			for i := 0; i < 30; i++ {
				_, ok := tr.Lookup(i)
				if ok != (i < version) {
					t.Errorf("version %d: Lookup(%d) found = %v", version, i, ok)
				}
			}
		}
	}
}

func TestRemove(t *testing.T) {
	for _, hasher := range hashers() {
		tr := NewTree[int, int](hasher).Insert(1, 1).Insert(2, 2).Insert(3, 3)
		removed := tr.Remove(2)

		if _, ok := removed.Lookup(2); ok {
			t.Errorf("2 should be removed from %v", removed)
		}
		if _, ok := tr.Lookup(2); !ok {
			t.Errorf("removal must not affect the original map %v", tr)
		}
		if !tr.Remove(4).Equal(tr, func(a, b int) bool { return a == b }) {
			t.Errorf("removing an unbound key should be a no-op")
		}
		if !removed.Remove(1).Remove(3).Empty() {
			t.Errorf("expected empty map")
		}
	}
}

func TestInsertOrMerge(t *testing.T) {
	tr := NewTree[int, string](intHasher).Insert(0, "b")
	tr = tr.InsertOrMerge(0, "a", keep)
	if v, _ := tr.Lookup(0); v != "a" {
		t.Errorf("expected merged value a, got %s", v)
	}

	same := tr.InsertOrMerge(0, "a", keep)
	if same.root != tr.root {
		t.Errorf("an idempotent merge should preserve the node")
	}
}

func TestMerge(t *testing.T) {
	for _, hasher := range hashers() {
		a := NewTree[int, string](hasher).Insert(0, "x").Insert(1, "y")
		b := NewTree[int, string](hasher).Insert(1, "b").Insert(2, "z")

		for _, m := range []Tree[int, string]{a.Merge(b, keep), b.Merge(a, keep)} {
			expected := map[int]string{0: "x", 1: "b", 2: "z"}
			for k, v := range expected {
				if got, ok := m.Lookup(k); !ok || got != v {
					t.Errorf("Lookup(%d) = %q, expected %q in %v", k, got, v, m)
				}
			}
			if m.Size() != len(expected) {
				t.Errorf("Size() = %d, expected %d", m.Size(), len(expected))
			}
		}
	}
}

func TestMergeRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for iter := 0; iter < 50; iter++ {
		a, b := NewTree[int, string](intHasher), NewTree[int, string](intHasher)
		reference := map[int]string{}
		for i := 0; i < 40; i++ {
			k := r.Intn(60)
			v := string(rune('a' + r.Intn(26)))
			if r.Intn(2) == 0 {
				a = a.InsertOrMerge(k, v, keep)
			} else {
				b = b.InsertOrMerge(k, v, keep)
			}
			if old, ok := reference[k]; !ok || v < old {
				reference[k] = v
			}
		}

		m := a.Merge(b, keep)
		if m.Size() != len(reference) {
			t.Errorf("Size() = %d, expected %d", m.Size(), len(reference))
		}
		for k, v := range reference {
			if got, _ := m.Lookup(k); got != v {
				t.Errorf("Lookup(%d) = %q, expected %q", k, got, v)
			}
		}
	}
}

func TestMergeSharing(t *testing.T) {
	a := NewTree[int, int](intHasher)
	for i := 0; i < 8; i++ {
		a = a.Insert(i, i)
	}
	b := a.Remove(5)

	eq := func(x, y int) (int, bool) { return x, x == y }
	m := a.Merge(b, eq)
	if m.root != a.root {
		t.Errorf("merging with a subset should return the superset unchanged")
	} else {
		t.Logf("%v ⊔ %v = %v", a, b, m)
	}

	if !a.Merge(a, eq).Equal(a, func(x, y int) bool { return x == y }) {
		t.Errorf("merge should be idempotent")
	}
}

func TestAny(t *testing.T) {
	tr := NewTree[int, int](intHasher).Insert(1, 10).Insert(2, 20)
	if !tr.Any(func(_ int, v int) bool { return v == 20 }) {
		t.Errorf("expected a binding with value 20")
	}
	if tr.Any(func(k int, _ int) bool { return k > 5 }) {
		t.Errorf("no key is larger than 5")
	}
}
