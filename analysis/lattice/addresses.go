package lattice

import (
	"sort"
	"strings"
)

// Addresses is a finite set of addresses or ⊤. Sets larger than
// the configured maximum collapse to ⊤. The zero value is ⊥.
type Addresses struct {
	top   bool
	addrs []Address
}

func AddrBot() Addresses { return Addresses{} }
func AddrTop() Addresses { return Addresses{top: true} }

// AddrsOf builds the set of the given addresses.
func AddrsOf(as ...Address) Addresses {
	return Addresses{}.add(as...)
}

func (s Addresses) add(as ...Address) Addresses {
	if s.top || len(as) == 0 {
		return s
	}
	merged := make([]Address, 0, len(s.addrs)+len(as))
	merged = append(merged, s.addrs...)
	merged = append(merged, as...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Less(merged[j]) })

	res := merged[:0]
	for i, a := range merged {
		if i == 0 || a != merged[i-1] {
			res = append(res, a)
		}
	}
	if limit := opts.MaxAddresses(); limit > 0 && len(res) > limit {
		return AddrTop()
	}
	return Addresses{addrs: res}
}

func (s Addresses) Join(o Addresses) Addresses {
	switch {
	case s.top || o.top:
		return AddrTop()
	case len(o.addrs) == 0:
		return s
	case len(s.addrs) == 0:
		return o
	}
	return s.add(o.addrs...)
}

// StrongUpdate replaces the set with the given addresses.
func (s Addresses) StrongUpdate(as ...Address) Addresses {
	return AddrsOf(as...)
}

// WeakUpdate adds the given addresses to the set.
func (s Addresses) WeakUpdate(as ...Address) Addresses {
	return s.add(as...)
}

func (s Addresses) Eq(o Addresses) bool {
	if s.top != o.top || len(s.addrs) != len(o.addrs) {
		return false
	}
	for i, a := range s.addrs {
		if a != o.addrs[i] {
			return false
		}
	}
	return true
}

func (s Addresses) Leq(o Addresses) bool {
	switch {
	case o.top:
		return true
	case s.top:
		return false
	}
	for _, a := range s.addrs {
		if !o.Contains(a) {
			return false
		}
	}
	return true
}

func (s Addresses) IsBot() bool { return !s.top && len(s.addrs) == 0 }
func (s Addresses) IsTop() bool { return s.top }

// Size is the number of addresses in a non-⊤ set.
func (s Addresses) Size() int { return len(s.addrs) }

func (s Addresses) Contains(a Address) bool {
	if s.top {
		return true
	}
	i := sort.Search(len(s.addrs), func(i int) bool { return !s.addrs[i].Less(a) })
	return i < len(s.addrs) && s.addrs[i] == a
}

// Singleton returns the only member of a one-element set.
func (s Addresses) Singleton() (Address, bool) {
	if s.top || len(s.addrs) != 1 {
		return Address{}, false
	}
	return s.addrs[0], true
}

// Entries returns the addresses in ascending order. It is empty for ⊤.
func (s Addresses) Entries() []Address {
	return s.addrs
}

func (s Addresses) ForEach(do func(Address)) {
	for _, a := range s.addrs {
		do(a)
	}
}

func (s Addresses) String() string {
	switch {
	case s.top:
		return colorize.Element(topSym)
	case len(s.addrs) == 0:
		return colorize.Element(botSym)
	}
	strs := make([]string, 0, len(s.addrs))
	for _, a := range s.addrs {
		strs = append(strs, a.String())
	}
	return "{" + strings.Join(strs, ", ") + "}"
}
