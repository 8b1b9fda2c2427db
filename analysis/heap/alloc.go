package heap

import "github.com/cs-au-dk/semdiff/analysis/lattice"

// Allocator hands out builtin addresses. Builtin addresses are negative so
// that they never collide with addresses derived from syntax node ids.
type Allocator struct {
	next int64
}

func NewAllocator() *Allocator {
	return &Allocator{next: -1}
}

// Alloc returns a fresh address.
func (a *Allocator) Alloc(prop string) lattice.Address {
	addr := lattice.Address{Base: a.next, Prop: prop}
	a.next--
	return addr
}
