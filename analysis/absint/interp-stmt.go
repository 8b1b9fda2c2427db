package absint

import (
	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/heap"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

// transferNode interprets the payload of a CFG node.
func (in *interpreter) transferNode(n *cfg.Node) {
	in.state.Trace = in.state.Trace.AtNode(n)

	switch n.Kind {
	case cfg.EntryNode, cfg.ExitNode, cfg.JoinNode:
		return
	case cfg.BranchNode:
		in.controlDeps(n.Stmt)
		in.eval(n.Stmt)
		return
	}

	stmt := n.Stmt
	in.controlDeps(stmt)

	switch stmt.Kind {
	case ast.KExprStmt, ast.KThrow:
		in.eval(stmt.Child(0))
	case ast.KVar:
		for _, d := range stmt.Children {
			if d.Kind == ast.KDeclarator && d.Child(1) != nil {
				in.evalAssignment(d.Child(0), d.Child(1))
			}
		}
	case ast.KReturn:
		in.evalReturn(stmt)
	case ast.KUnsupported:
		in.unknown(stmt)
	default:
		// Loop updates are bare expressions.
		in.eval(stmt)
	}
}

// controlDeps records that stmt executes under the changed calls and
// conditions of the current control.
func (in *interpreter) controlDeps(stmt *ast.Node) {
	var deps lattice.Dependencies
	for _, id := range in.state.Control.Calls() {
		deps = deps.Add(lattice.Criterion{Kind: lattice.CALL_CHANGE, ID: id})
	}
	for _, id := range in.state.Control.Conditions() {
		deps = deps.Add(lattice.Criterion{Kind: lattice.CONDITION_CHANGE, ID: id})
	}
	in.ann.Depend(stmt, deps)
}

// evalReturn stores the returned value in the scratchpad and binds it to a
// pseudo variable so that the definition of the return statement can be
// looked up like any other.
func (in *interpreter) evalReturn(rs *ast.Node) {
	var v lattice.BValue
	if val := rs.Child(0); val != nil {
		v = in.eval(val)
	} else {
		c, d := in.convU(rs)
		v = lattice.InjectUndefined(c, in.value(rs).Join(d))
	}
	if in.suspended {
		return
	}
	if old, ok := in.state.Scratch.Return(); ok {
		v = v.Join(old)
	}

	addr := in.state.Trace.MakeAddr(rs.ID, "")
	in.state.Env = in.state.Env.WeakUpdate(heap.Variable{
		Name:    RetvalName,
		Definer: rs.ID,
		Change:  lattice.Unchanged,
		Deps:    in.ann.Criterion(rs, lattice.VARIABLE),
		Addrs:   lattice.AddrsOf(addr),
	})
	in.alloc(addr, v, rs)
	in.state.Scratch = in.state.Scratch.WithReturn(v)
}

// transferEdge follows edge e. Conditions are not evaluated again, the
// branch node did that; they only narrow the values they test.
func (a *Analysis) transferEdge(e *cfg.Edge, s State) State {
	s.Trace = s.Trace.AtEdge(e)
	s.Control = s.Control.Branch(e)
	s.Scratch = s.Scratch.ClearCalls()

	cond := e.Condition
	if cond == nil {
		return s
	}
	if lattice.ConvU(cond) == lattice.Changed {
		a.ann.Criterion(cond, lattice.CONDITION_CHANGE)
	}

	in := a.interpreter(s, nil, nil)
	in.narrow(cond, true)
	return in.state
}

// narrow refines the values tested by cond, assuming cond converts to
// truthy (or falsy).
func (in *interpreter) narrow(cond *ast.Node, truthy bool) {
	cond = cond.Unparen()
	switch cond.Kind {
	case ast.KUnary:
		if cond.Op == "!" {
			in.narrow(cond.Child(0), !truthy)
		}
	case ast.KName, ast.KMember:
		in.refine(cond, func(v lattice.BValue) lattice.BValue {
			if truthy {
				return v.Truthy()
			}
			return v.Falsy()
		})
	case ast.KBinary:
		switch cond.Op {
		case "&&":
			if truthy {
				in.narrow(cond.Child(0), true)
				in.narrow(cond.Child(1), true)
			}
		case "||":
			if !truthy {
				in.narrow(cond.Child(0), false)
				in.narrow(cond.Child(1), false)
			}
		case "==", "===", "!=", "!==":
			in.narrowEquality(cond, truthy)
		}
	}
}

// narrowEquality refines x in comparisons x == lit and lit == x, where lit
// is null, undefined, the blank string, zero, NaN or false.
func (in *interpreter) narrowEquality(cond *ast.Node, truthy bool) {
	x, lit := cond.Child(0).Unparen(), cond.Child(1).Unparen()
	if isTestLiteral(x) {
		x, lit = lit, x
	}
	if !isTestLiteral(lit) || (x.Kind != ast.KName && x.Kind != ast.KMember) {
		return
	}

	strict := len(cond.Op) == 3
	equal := (cond.Op == "==" || cond.Op == "===") == truthy

	in.refine(x, func(v lattice.BValue) lattice.BValue {
		res := lattice.BValue{Change: v.Change, Deps: v.Deps}
		switch {
		case lit.Kind == ast.KKeyword && (lit.Op == "null" || lit.Op == "undefined"):
			nullish := !strict || lit.Op == "null"
			undef := !strict || lit.Op == "undefined"
			if equal {
				if nullish {
					res.Null = v.Null
				}
				if undef {
					res.Undef = v.Undef
				}
				return res
			}
			if nullish {
				v.Null = lattice.NullBot
			}
			if undef {
				v.Undef = lattice.UndefBot
			}
			return v
		case !strict:
			return v
		case lit.Kind == ast.KKeyword && lit.Op == "false":
			if equal {
				res.Bool = v.Bool.Falsy()
				return res
			}
			v.Bool = v.Bool.Truthy()
			return v
		case lit.Kind == ast.KString:
			if equal {
				res.Str = v.Str.Falsy()
				return res
			}
			v.Str = v.Str.Truthy()
			return v
		case equal:
			// Zero and NaN are only separated on the equal branch.
			res.Num = v.Num.Falsy()
			return res
		}
		return v
	})
}

// isTestLiteral holds for the literals equality narrowing understands.
func isTestLiteral(n *ast.Node) bool {
	switch n.Kind {
	case ast.KKeyword:
		return n.Op == "null" || n.Op == "undefined" || n.Op == "false"
	case ast.KString:
		return n.Value == ""
	case ast.KNumber:
		f := lattice.NumVal(n.Value)
		return f.IsZero() || f.IsNaN()
	case ast.KName:
		return n.Name == "NaN"
	}
	return false
}

// refine strongly updates the value of a name or a constant property path
// with f. Nothing is evaluated, so paths that do not resolve to a single
// address are left alone.
func (in *interpreter) refine(n *ast.Node, f func(lattice.BValue) lattice.BValue) {
	addrs, ok := in.path(n)
	if !ok {
		return
	}
	a, ok := addrs.Singleton()
	if !ok {
		return
	}
	if v, ok := in.state.Store.Apply(a); ok {
		in.state.Store = in.state.Store.StrongUpdate(a, f(v))
	}
}

// path resolves a name or a chain of named property accesses to the
// addresses holding its value, without evaluating anything.
func (in *interpreter) path(n *ast.Node) (lattice.Addresses, bool) {
	n = n.Unparen()
	switch n.Kind {
	case ast.KName:
		v, ok := in.state.Env.Apply(n.Name)
		return v.Addrs, ok
	case ast.KMember:
		objs, ok := in.path(n.Child(0))
		if !ok {
			return lattice.Addresses{}, false
		}
		obj, ok := in.state.Store.ApplyAll(objs)
		if !ok {
			return lattice.Addresses{}, false
		}
		var res []lattice.Address
		obj.Addr.ForEach(func(a lattice.Address) {
			if p, ok := in.lookupProperty(a, n.Child(1).Name); ok {
				res = append(res, p.Addr)
			}
		})
		return lattice.AddrsOf(res...), len(res) > 0
	}
	return lattice.Addresses{}, false
}
