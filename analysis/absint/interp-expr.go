package absint

import (
	"strconv"
	"strings"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/heap"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

// eval computes the abstract value of expression n. Evaluation never
// fails: anything that cannot be resolved evaluates to a conservative
// value.
func (in *interpreter) eval(n *ast.Node) lattice.BValue {
	if in.suspended || n == nil {
		return lattice.BValueBot()
	}

	switch n.Kind {
	case ast.KParen:
		return in.eval(n.Child(0))
	case ast.KName:
		return in.evalName(n)
	case ast.KNumber:
		c, d := in.convU(n)
		return lattice.InjectNum(lattice.NumVal(n.Value), c, in.value(n).Join(d))
	case ast.KString:
		c, d := in.convU(n)
		return lattice.InjectStr(lattice.StrLiteral(n.Value), c, in.value(n).Join(d))
	case ast.KKeyword:
		return in.evalKeyword(n)
	case ast.KFunction:
		return in.evalFunction(n)
	case ast.KObject, ast.KArray:
		return in.evalLiteral(n)
	case ast.KUnary:
		return in.evalUnary(n)
	case ast.KUpdate:
		return in.evalUpdate(n)
	case ast.KBinary:
		l, r := in.eval(n.Child(0)), in.eval(n.Child(1))
		return in.evalBinary(n, n.Op, l, r)
	case ast.KAssign:
		return in.evalAssign(n)
	case ast.KConditional:
		test := in.eval(n.Child(0))
		v := in.eval(n.Child(1)).Join(in.eval(n.Child(2)))
		return taint(v, test.Change, test.Deps)
	case ast.KSequence:
		var v lattice.BValue
		for _, c := range n.Children {
			v = in.eval(c)
		}
		return v
	case ast.KCall, ast.KNew:
		return in.evalCall(n)
	case ast.KMember, ast.KIndex:
		if v, ok := in.resolveValue(n); ok {
			return v
		}
		return lattice.BValueTop(lattice.Unchanged, in.value(n))
	}
	return in.unknown(n)
}

func (in *interpreter) evalName(n *ast.Node) lattice.BValue {
	v, ok := in.resolveValue(n)
	if !ok {
		v = lattice.BValueTop(lattice.Unchanged, in.value(n))
	}
	c, d := in.convU(n)
	return taint(v, c, d)
}

func (in *interpreter) evalKeyword(n *ast.Node) lattice.BValue {
	c, d := in.conv(n)
	deps := in.value(n).Join(d)

	switch n.Op {
	case "this":
		if v, ok := in.apply(in.state.Self, n); ok {
			return v
		}
		return lattice.BValueTop(c, deps)
	case "null":
		return lattice.InjectNull(c, deps)
	case "undefined":
		return lattice.InjectUndefined(c, deps)
	case "true", "false":
		return lattice.InjectBool(lattice.BoolVal(n.Op == "true"), c, deps)
	}
	return lattice.BValue{Change: c, Deps: deps}
}

// evalFunction creates the object of a function expression. It closes over
// the current environment.
func (in *interpreter) evalFunction(fn *ast.Node) lattice.BValue {
	addr := in.state.Trace.MakeAddr(fn.ID, "")
	in.state.Store = in.functionObject(in.state.Store, in.state.Trace, addr, fn, in.state.Env)

	c, d := in.convU(fn)
	return lattice.InjectAddr(addr, c, in.value(fn).Join(d))
}

// propertyName renders an object literal key.
func propertyName(key *ast.Node) string {
	switch key.Kind {
	case ast.KName:
		return key.Name
	case ast.KString:
		return key.Value
	case ast.KNumber:
		if v, ok := lattice.NumVal(key.Value).Value(); ok {
			return v
		}
		return key.Value
	}
	return unknownProperty
}

const unknownProperty = "~unknown~"

// evalLiteral allocates the object of an object or array literal. Every
// property gets its own address, derived from the property node.
func (in *interpreter) evalLiteral(n *ast.Node) lattice.BValue {
	kind := heap.ClassObject
	if n.Kind == ast.KArray {
		kind = heap.ClassArray
	}
	obj := heap.NewObj(heap.Plain{Proto: lattice.AddrsOf(in.builtins.ObjectProto), Kind: kind})

	for idx, el := range n.Children {
		if el == nil || el.Kind == ast.KEmpty {
			continue
		}
		name, val := strconv.Itoa(idx), el
		if el.Kind == ast.KProperty {
			name, val = propertyName(el.Child(0)), el.Child(1)
		}

		v := in.eval(val)
		if !v.Change.IsChanged() && !isAllocation(val) {
			// The property is bound to a different expression.
			if c, d := in.convU(val); c == lattice.Changed {
				v = taint(v, c, d)
			}
		}

		addr := in.state.Trace.MakeAddr(el.ID, name)
		in.alloc(addr, v, el)
		obj = obj.With(heap.Property{Definer: el.ID, Name: name, Addr: addr})
	}

	addr := in.state.Trace.MakeAddr(n.ID, "")
	in.state.Store = in.state.Store.AllocObj(addr, obj)

	c, d := in.conv(n)
	return lattice.InjectAddr(addr, c, in.value(n).Join(d))
}

func (in *interpreter) evalUnary(n *ast.Node) lattice.BValue {
	operand := in.eval(n.Child(0))
	c, d := in.conv(n)
	c = operand.Change.Join(c)
	deps := in.value(n).Join(d).Join(operand.Deps)

	switch n.Op {
	case "!", "delete":
		return lattice.InjectBool(lattice.BoolTop, c, deps)
	case "typeof":
		return lattice.InjectStr(lattice.StrTop(), c, deps)
	case "void":
		return lattice.InjectUndefined(c, deps)
	case "-", "+", "~":
		return lattice.InjectNum(lattice.NumTop(), c, deps)
	}
	return lattice.BValueTop(c, deps)
}

func (in *interpreter) evalUpdate(n *ast.Node) lattice.BValue {
	target := n.Child(0)
	old := in.eval(target)
	c, d := in.conv(n)

	v := lattice.InjectNum(lattice.NumTop(), old.Change.Join(c), in.value(n).Join(d).Join(old.Deps))
	in.assign(target, v)
	return v
}

// evalBinary applies operator op to the operands of n.
func (in *interpreter) evalBinary(n *ast.Node, op string, l, r lattice.BValue) lattice.BValue {
	c, d := in.conv(n)
	c = l.Change.Join(r.Change).Join(c)
	deps := in.value(n).Join(d).Join(l.Deps).Join(r.Deps)

	switch op {
	case "+":
		return evalPlus(l, r, c, deps)
	case "-", "*", "/", "%", "**", "<<", ">>", ">>>", "&", "|", "^":
		return lattice.InjectNum(lattice.NumTop(), c, deps)
	case "==", "!=", "===", "!==", "<", ">", "<=", ">=", "instanceof", "in":
		return lattice.InjectBool(lattice.BoolTop, c, deps)
	case "&&", "||", "??":
		// The result is one of the operands.
		return l.Join(r).WithChange(c).WithDeps(deps)
	}
	return lattice.BValueTop(c, deps)
}

// evalPlus over-approximates `+`. Every string operand makes the result any
// string; every other primitive makes it any number and objects make it
// either. Constants are not folded.
func evalPlus(l, r lattice.BValue, c lattice.Change, deps lattice.Dependencies) lattice.BValue {
	res := lattice.BValue{Change: c, Deps: deps}
	for _, v := range [...]lattice.BValue{l, r} {
		if !v.Str.IsBot() {
			res.Str = lattice.StrTop()
		}
		if !v.Num.IsBot() || !v.Bool.IsBot() || !v.Null.IsBot() || !v.Undef.IsBot() {
			res.Num = lattice.NumTop()
		}
		if !v.Addr.IsBot() {
			res.Num = lattice.NumTop()
			res.Str = lattice.StrTop()
		}
	}
	return res
}

func (in *interpreter) evalAssign(n *ast.Node) lattice.BValue {
	lhs, rhs := n.Child(0), n.Child(1)
	if n.Op == "=" {
		return in.evalAssignment(lhs, rhs)
	}

	// Compound assignment: compute the value, store it and read it back.
	op := strings.TrimSuffix(n.Op, "=")
	l, r := in.eval(lhs), in.eval(rhs)
	v := in.evalBinary(n, op, l, r)
	in.assign(lhs, v)
	return in.eval(lhs)
}

// evalAssignment interprets lhs = rhs.
func (in *interpreter) evalAssignment(lhs, rhs *ast.Node) lattice.BValue {
	addrs := in.resolveOrCreate(lhs)
	v := in.eval(rhs)
	if !v.Change.IsChanged() && !isAllocation(rhs) {
		// The target now points to a different expression.
		if c, d := in.convU(rhs); c == lattice.Changed {
			v = taint(v, c, d)
		}
	}
	in.write(addrs, v, lhs)
	return v
}

// assign stores an already computed value through lhs.
func (in *interpreter) assign(lhs *ast.Node, v lattice.BValue) {
	in.write(in.resolveOrCreate(lhs), v, lhs)
}
