package absint

import (
	"go.uber.org/zap"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

// interpreter evaluates the payload of a single instruction. It updates its
// copy of the state in place; the input state of the instruction is never
// modified.
type interpreter struct {
	*Analysis
	state State
	frame *StackFrame
	// site is the instruction being transferred. Frames pushed while
	// evaluating a call return their results to it.
	site *nodeInstruction
	// suspended is set once a call pushed a frame. The remaining evaluation
	// is abandoned and the instruction is replayed once the callee returns.
	suspended bool
}

func (a *Analysis) interpreter(s State, frame *StackFrame, site *nodeInstruction) *interpreter {
	return &interpreter{Analysis: a, state: s, frame: frame, site: site}
}

// value marks n as the origin of a value.
func (in *interpreter) value(n *ast.Node) lattice.Dependencies {
	return in.ann.Criterion(n, lattice.VALUE)
}

// conv classifies the value created by n. Inserted and removed nodes create
// changed values and are marked as such.
func (in *interpreter) conv(n *ast.Node) (lattice.Change, lattice.Dependencies) {
	return in.changeOf(lattice.Conv(n), n, lattice.VALUE_CHANGE)
}

// convU is conv that also treats updated nodes as changed.
func (in *interpreter) convU(n *ast.Node) (lattice.Change, lattice.Dependencies) {
	return in.changeOf(lattice.ConvU(n), n, lattice.VALUE_CHANGE)
}

func (in *interpreter) changeOf(c lattice.Change, n *ast.Node, kind lattice.CriterionKind) (lattice.Change, lattice.Dependencies) {
	if c == lattice.Changed {
		return c, in.ann.Criterion(n, kind)
	}
	return c, lattice.Dependencies{}
}

// taint joins a change and its provenance into v.
// An unchanged classification does not lift a changed value to ⊤.
func taint(v lattice.BValue, c lattice.Change, d lattice.Dependencies) lattice.BValue {
	if c.IsChanged() || !v.Change.IsChanged() {
		v = v.WithChange(v.Change.Join(c))
	}
	return v.WithDeps(v.Deps.Join(d))
}

// apply reads the value at addr on behalf of n.
func (in *interpreter) apply(addr lattice.Address, n *ast.Node) (lattice.BValue, bool) {
	v, ok := in.state.Store.Apply(addr)
	if ok {
		in.ann.Depend(n, v.Deps)
	}
	return v, ok
}

// write stores v at every address on behalf of n. Writes through a single
// address are strong.
func (in *interpreter) write(addrs lattice.Addresses, v lattice.BValue, n *ast.Node) {
	in.state.Store = in.state.Store.Update(addrs, v)
	in.ann.Depend(n, v.Deps)
}

// alloc allocates v at addr on behalf of n, joining with any previous value.
func (in *interpreter) alloc(addr lattice.Address, v lattice.BValue, n *ast.Node) {
	in.state.Store = in.state.Store.Alloc(addr, v)
	in.ann.Depend(n, v.Deps)
}

// unknown is the value of expressions outside the modeled subset.
func (in *interpreter) unknown(n *ast.Node) lattice.BValue {
	if n.Kind == ast.KUnsupported {
		in.log.Debug("unsupported expression, assuming any value",
			zap.Int("node", n.ID), zap.Int("line", n.Span.Line), zap.String("source", n.Value))
	}
	c, d := in.convU(n)
	return lattice.BValueTop(c, in.value(n).Join(d))
}

// isAllocation holds for expressions whose change is decided by what they
// allocate or return rather than by their own syntax.
func isAllocation(n *ast.Node) bool {
	switch n.Unparen().Kind {
	case ast.KObject, ast.KArray, ast.KCall, ast.KNew:
		return true
	}
	return false
}
