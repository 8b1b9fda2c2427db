package heap

import (
	"fmt"
	"sort"

	"github.com/cs-au-dk/semdiff/analysis/lattice"
	i "github.com/cs-au-dk/semdiff/utils/indenter"
	"github.com/cs-au-dk/semdiff/utils/tree"
)

// Store maps addresses to abstract values and to objects. The two mappings
// are independent: a function declaration binds its address to a value
// pointing at itself in the first and to the function object in the second.
type Store struct {
	values  tree.Tree[lattice.Address, lattice.BValue]
	objects tree.Tree[lattice.Address, *Obj]
}

func NewStore() Store {
	return Store{
		values:  newAddressTree[lattice.BValue](),
		objects: newAddressTree[*Obj](),
	}
}

func joinValues(a, b lattice.BValue) (lattice.BValue, bool) {
	if a.Eq(b) {
		return a, true
	}
	return a.Join(b), false
}

// Alloc binds addr to v, or joins v into the current value when addr is
// already bound.
func (s Store) Alloc(addr lattice.Address, v lattice.BValue) Store {
	s.values = s.values.InsertOrMerge(addr, v, joinValues)
	return s
}

// StrongUpdate replaces the value at addr.
func (s Store) StrongUpdate(addr lattice.Address, v lattice.BValue) Store {
	s.values = s.values.Insert(addr, v)
	return s
}

// Update writes v through every address in the set. Writes through a
// singleton are strong, all other writes are weak.
func (s Store) Update(addrs lattice.Addresses, v lattice.BValue) Store {
	if a, ok := addrs.Singleton(); ok {
		return s.StrongUpdate(a, v)
	}
	addrs.ForEach(func(a lattice.Address) {
		s = s.Alloc(a, v)
	})
	return s
}

// Apply reads the value at addr.
func (s Store) Apply(addr lattice.Address) (lattice.BValue, bool) {
	return s.values.Lookup(addr)
}

// ApplyAll joins the values at every bound address in the set. The flag is
// false if none of the addresses is bound.
func (s Store) ApplyAll(addrs lattice.Addresses) (res lattice.BValue, found bool) {
	addrs.ForEach(func(a lattice.Address) {
		if v, ok := s.values.Lookup(a); ok {
			res, found = res.Join(v), true
		}
	})
	return
}

// AllocObj binds addr to obj, joining with the current object if any.
func (s Store) AllocObj(addr lattice.Address, obj *Obj) Store {
	old, ok := s.objects.Lookup(addr)
	if !ok {
		s.objects = s.objects.Insert(addr, obj)
		return s
	}
	joined, conflicts := old.join(obj)
	s.objects = s.objects.Insert(addr, joined)
	return s.resolve(conflicts)
}

// StrongUpdateObj replaces the object at addr.
func (s Store) StrongUpdateObj(addr lattice.Address, obj *Obj) Store {
	s.objects = s.objects.Insert(addr, obj)
	return s
}

// Obj retrieves the object at addr.
func (s Store) Obj(addr lattice.Address) (*Obj, bool) {
	return s.objects.Lookup(addr)
}

// Join computes the address-wise join of both mappings. When the same
// object binds a property to different addresses in the two stores, the
// lower address is kept and the values at both addresses are joined into it.
func (s Store) Join(o Store) Store {
	var conflicts []conflict
	res := Store{
		values: s.values.Merge(o.values, joinValues),
		objects: s.objects.Merge(o.objects, func(a, b *Obj) (*Obj, bool) {
			if a == b || a.Equal(b) {
				return a, true
			}
			joined, cs := a.join(b)
			conflicts = append(conflicts, cs...)
			return joined, false
		}),
	}
	return res.resolve(conflicts)
}

// Mismatches lists the properties, as @base.name, that objects at the same
// address bind through different declarations in s and o.
func (s Store) Mismatches(o Store) (props []string) {
	s.objects.ForEach(func(a lattice.Address, obj *Obj) {
		other, ok := o.objects.Lookup(a)
		if !ok || other == obj {
			return
		}
		obj.ForEach(func(p Property) {
			if q, ok := other.Lookup(p.Name); ok && q.Definer != p.Definer {
				props = append(props, fmt.Sprintf("@%d.%s", a.Base, p.Name))
			}
		})
	})
	sort.Strings(props)
	return
}

func (s Store) resolve(conflicts []conflict) Store {
	for _, c := range conflicts {
		if v, ok := s.values.Lookup(c.dropped); ok {
			s = s.Alloc(c.kept, v)
		}
	}
	return s
}

func (s Store) Equal(o Store) bool {
	return s.values.Equal(o.values, lattice.BValue.Eq) &&
		s.objects.Equal(o.objects, (*Obj).Equal)
}

// ForEachValue iterates over the value bindings.
func (s Store) ForEachValue(do func(lattice.Address, lattice.BValue)) {
	s.values.ForEach(do)
}

// ForEachObj iterates over the object bindings.
func (s Store) ForEachObj(do func(lattice.Address, *Obj)) {
	s.objects.ForEach(do)
}

func (s Store) String() string {
	return i.Indenter().Start("Store: ").NestStrings(
		"Values: "+s.values.StringFiltered(func(a lattice.Address, _ lattice.BValue) bool {
			return !a.IsBuiltin()
		}),
		"Objects: "+s.objects.StringFiltered(func(a lattice.Address, _ *Obj) bool {
			return !a.IsBuiltin()
		}),
	).End("")
}
