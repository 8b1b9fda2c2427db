package lattice

import "testing"

func TestAddressesCap(t *testing.T) {
	limit := opts.MaxAddresses()
	set := AddrBot()
	for i := 0; i < limit; i++ {
		set = set.Join(AddrsOf(Address{Base: int64(i)}))
	}
	if set.IsTop() || set.Size() != limit {
		t.Fatalf("expected %d addresses, got %s", limit, set)
	}

	if res := set.Join(AddrsOf(Address{Base: 0})); !res.Eq(set) {
		t.Errorf("joining a member changed the set: %s", res)
	}
	if res := set.Join(AddrsOf(Address{Base: int64(limit)})); !res.IsTop() {
		t.Errorf("expected ⊤ above the cap, got %s", res)
	}
}

func TestAddressesMembership(t *testing.T) {
	a, b, c := Address{Base: 1}, Address{Base: 1, Prop: "p"}, Address{Base: -4}
	set := AddrsOf(b, a, b)

	tests := []struct {
		addr     Address
		expected bool
	}{
		{a, true},
		{b, true},
		{c, false},
	}
	for _, test := range tests {
		if res := set.Contains(test.addr); res != test.expected {
			t.Errorf("%s ∈ %s = %v, expected %v", test.addr, set, res, test.expected)
		}
	}

	if set.Size() != 2 {
		t.Errorf("duplicates were not removed: %s", set)
	}
	if _, ok := set.Singleton(); ok {
		t.Errorf("%s is not a singleton", set)
	}
	if s, ok := AddrsOf(c).Singleton(); !ok || s != c {
		t.Errorf("expected singleton %s", c)
	}
	if !AddrsOf(a).Leq(set) || set.Leq(AddrsOf(a)) {
		t.Errorf("unexpected ordering between %s and %s", AddrsOf(a), set)
	}
	if !AddrTop().Contains(c) {
		t.Errorf("⊤ contains every address")
	}
}
