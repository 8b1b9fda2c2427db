package absint

import (
	"fmt"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

// Trace names the program point being interpreted. Addresses are derived
// from the trace and the id of the allocating syntax node, so interpreting
// the same node at the same point again yields the same address.
type Trace struct {
	pp int
}

func NewTrace(pp int) Trace {
	return Trace{pp}
}

// Update moves the trace to another program point.
func (t Trace) Update(pp int) Trace {
	return Trace{pp}
}

// Program points of nodes, edges and call sites are interleaved so that
// they never coincide. Point 0 is the top-level entry.
const pointKinds = 3

func (t Trace) AtNode(n *cfg.Node) Trace  { return t.Update(pointKinds*n.ID + 1) }
func (t Trace) AtEdge(e *cfg.Edge) Trace  { return t.Update(pointKinds*e.ID + 2) }
func (t Trace) AtCall(fc *ast.Node) Trace { return t.Update(pointKinds*fc.ID + 3) }

// MakeAddr derives the address allocated by syntax node id at this point.
func (t Trace) MakeAddr(id int, prop string) lattice.Address {
	return lattice.Address{Base: int64(t.pp)<<32 + int64(id), Prop: prop}
}

// ToAddr derives an address owned by the program point itself.
func (t Trace) ToAddr(prop string) lattice.Address {
	return lattice.Address{Base: int64(t.pp) << 32, Prop: prop}
}

func (t Trace) String() string {
	return fmt.Sprintf("pp%d", t.pp)
}
