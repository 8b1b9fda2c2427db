package absint

import (
	"sort"
	"strconv"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/heap"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

const argumentsName = "arguments"

// RetvalName is the pseudo variable bound to the value of return statements.
const RetvalName = "~retval~"

// scope lists the names a function body declares. Declarations in nested
// functions belong to those functions.
type scope struct {
	// locals are the name nodes of variable declarators.
	locals []*ast.Node
	// funcs are the nested function declarations.
	funcs []*ast.Node
}

func scopeOf(fn *ast.Node) (s scope) {
	body := fn
	if fn.Kind == ast.KFunction {
		body = fn.Body()
	}
	ast.Inspect(body, func(n *ast.Node) bool {
		switch n.Kind {
		case ast.KFunction:
			if n.Decl {
				s.funcs = append(s.funcs, n)
			}
			return false
		case ast.KDeclarator:
			s.locals = append(s.locals, n.Child(0))
		}
		return true
	})
	return
}

// names returns every name the scope binds.
func (s scope) names() map[string]bool {
	res := make(map[string]bool, len(s.locals)+len(s.funcs))
	for _, l := range s.locals {
		res[l.Name] = true
	}
	for _, f := range s.funcs {
		res[f.Name] = true
	}
	return res
}

// globals lists the names read or written in p that no scope declares, in
// lexicographic order.
func globals(p *ast.Node) []string {
	declared := map[*ast.Node]map[string]bool{}
	declaredIn := func(fn *ast.Node) map[string]bool {
		if d, ok := declared[fn]; ok {
			return d
		}
		d := scopeOf(fn).names()
		for _, p := range fn.Params {
			d[p.Name] = true
		}
		if fn.Kind == ast.KFunction {
			d[argumentsName] = true
		}
		declared[fn] = d
		return d
	}

	used := map[string]bool{}
	ast.Inspect(p, func(n *ast.Node) bool {
		if n.Kind != ast.KName || !isReference(n) {
			return true
		}
		for fn := n.EnclosingFunction(); fn != nil; fn = fn.EnclosingFunction() {
			if declaredIn(fn)[n.Name] {
				return true
			}
		}
		used[n.Name] = true
		return true
	})

	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isReference holds for name nodes that refer to a variable, as opposed to
// property names, object keys and parameters.
func isReference(n *ast.Node) bool {
	p := n.Parent
	if p == nil {
		return true
	}
	switch p.Kind {
	case ast.KMember:
		return p.Child(1) != n
	case ast.KProperty:
		// Shorthand properties reference their key.
		return p.Child(0) != n || p.Child(1) == n
	case ast.KFunction:
		return false
	}
	return true
}

// declare binds a declared name. The binding is changed if the declaration
// is.
func (in *interpreter) declare(env *heap.FreshEnvironment, name string, def *ast.Node, addrs lattice.Addresses) {
	c, d := in.changeOf(lattice.ConvU(def), def, lattice.VARIABLE_CHANGE)
	env.Bind(heap.Variable{
		Name:    name,
		Definer: def.ID,
		Change:  c,
		Deps:    in.ann.Criterion(def, lattice.VARIABLE).Join(d),
		Addrs:   addrs,
	})
}

// hoist binds the locals and nested function declarations of fn into env.
// Function declarations are bound to their addresses; the function objects
// are returned for allocation once the environment is frozen.
func (in *interpreter) hoist(env *heap.FreshEnvironment, fn *ast.Node, skip map[string]bool) (decls []*ast.Node) {
	s := scopeOf(fn)
	bound := map[string]bool{}
	for _, l := range s.locals {
		if skip[l.Name] || bound[l.Name] {
			continue
		}
		bound[l.Name] = true

		addr := in.state.Trace.MakeAddr(l.ID, "")
		in.alloc(addr, lattice.InjectUndefined(lattice.ConvU(l), in.value(l)), l)
		in.declare(env, l.Name, l, lattice.AddrsOf(addr))
	}

	for _, f := range s.funcs {
		// Later declarations of the same name win.
		addr := in.state.Trace.MakeAddr(f.ID, "")
		in.declare(env, f.Name, f, lattice.AddrsOf(addr))
		decls = append(decls, f)
	}
	return
}

// allocDecls creates the objects of hoisted function declarations closing
// over env.
func (in *interpreter) allocDecls(decls []*ast.Node, env heap.Environment) {
	for _, f := range decls {
		addr := in.state.Trace.MakeAddr(f.ID, "")
		in.state.Store = in.functionObject(in.state.Store, in.state.Trace, addr, f, env)

		c, d := in.conv(f)
		in.alloc(addr, lattice.InjectAddr(addr, c, in.value(f).Join(d)), f)
	}
}

// functionObject allocates the object of function fn at addr.
func (in *interpreter) functionObject(store heap.Store, trace Trace, addr lattice.Address, fn *ast.Node, env heap.Environment) heap.Store {
	c, ok := in.cfgs.Of(fn)
	if !ok {
		panic("absint: no control flow graph for " + fn.String())
	}

	length := trace.MakeAddr(fn.ID, "length")
	store = store.Alloc(length, lattice.InjectNum(lattice.NumVal(strconv.Itoa(len(fn.Params))),
		lattice.Unchanged, lattice.Dependencies{}))

	obj := heap.NewObj(heap.Function{
		Proto:   lattice.AddrsOf(in.builtins.FunctionProto),
		Closure: heap.UserFunction{CFG: c, Env: env},
	}).With(heap.Property{Definer: fn.ID, Name: "length", Addr: length})
	return store.AllocObj(addr, obj)
}

// selfAddr is the address holding the receiver of fn. It does not depend on
// the call site so that receivers of different calls meet at the entry.
func selfAddr(fn *ast.Node) lattice.Address {
	return NewTrace(0).MakeAddr(fn.ID, "this")
}

// entryState computes the state at the entry of closure f called at site
// with the given arguments. Without a receiver the callee keeps the
// receiver of the caller.
func (in *interpreter) entryState(site *ast.Node, f heap.UserFunction, args []lattice.BValue, self lattice.BValue) State {
	sub := in.Analysis.interpreter(State{
		Store:   in.state.Store,
		Scratch: NewScratchpad(args...),
		Trace:   in.state.Trace.AtCall(site),
		Control: in.state.Control.Enter(site),
		Self:    in.state.Self,
	}, in.frame, nil)
	return sub.enter(f, args, self)
}

// enter builds the entry state of f from the caller parts already set in
// the interpreter state.
func (in *interpreter) enter(f heap.UserFunction, args []lattice.BValue, self lattice.BValue) State {
	fn := f.CFG.Function
	trace := in.state.Trace

	if !self.Addr.IsBot() {
		in.state.Self = selfAddr(fn)
		in.state.Store = in.state.Store.StrongUpdate(in.state.Self, self)
	}

	env := f.Env.Fresh()

	// The arguments object aliases the parameters.
	argsObj := heap.NewObj(heap.Plain{Proto: lattice.AddrsOf(in.builtins.Arguments), Kind: heap.ClassArguments})
	props := make([]lattice.Address, len(args))
	for i, arg := range args {
		name := strconv.Itoa(i)
		props[i] = trace.MakeAddr(fn.ID, name)
		in.state.Store = in.state.Store.StrongUpdate(props[i], arg)
		argsObj = argsObj.With(heap.Property{Definer: fn.ID, Name: name, Addr: props[i]})
	}
	argsAddr := trace.MakeAddr(fn.ID, "")
	in.state.Store = in.state.Store.StrongUpdateObj(argsAddr, argsObj)
	argsVar := trace.MakeAddr(fn.ID, argumentsName)
	in.state.Store = in.state.Store.StrongUpdate(argsVar,
		lattice.InjectAddr(argsAddr, lattice.Unchanged, lattice.Dependencies{}))
	env.Bind(heap.Variable{
		Name:    argumentsName,
		Definer: fn.ID,
		Change:  lattice.Unchanged,
		Addrs:   lattice.AddrsOf(argsVar),
	})

	params := map[string]bool{}
	for i, p := range fn.Params {
		params[p.Name] = true
		var addr lattice.Address
		if i < len(props) {
			addr = props[i]
		} else {
			addr = trace.MakeAddr(p.ID, strconv.Itoa(i))
			in.state.Store = in.state.Store.StrongUpdate(addr, lattice.BValueTop(lattice.Unchanged, in.value(p)))
		}
		in.declare(env, p.Name, p, lattice.AddrsOf(addr))
	}

	decls := in.hoist(env, fn, params)
	in.state.Env = env.Freeze()
	in.allocDecls(decls, in.state.Env)
	return in.state
}

// scriptState computes the initial state of the top-level code. Names used
// without a declaration are bound to the properties of the global object
// or to fresh builtin addresses holding any value.
func (a *Analysis) scriptState(store heap.Store, script *cfg.CFG) State {
	in := a.interpreter(State{
		Store:   store,
		Scratch: NewScratchpad(),
		Trace:   NewTrace(0),
		Self:    a.builtins.GlobalBinding,
	}, nil, nil)

	env := a.builtins.InitialEnvironment().Fresh()
	decls := in.hoist(env, script.Function, nil)

	global, _ := in.state.Store.Obj(a.builtins.Global)
	for _, name := range globals(script.Function) {
		if _, ok := env.Lookup(name); ok {
			continue
		}
		if p, ok := global.Lookup(name); ok {
			env.Bind(heap.Variable{Name: name, Definer: p.Definer, Change: lattice.Unchanged, Addrs: lattice.AddrsOf(p.Addr)})
			continue
		}
		addr := a.alloc.Alloc(name)
		in.state.Store = in.state.Store.Alloc(addr, lattice.BValueTop(lattice.Unchanged, lattice.Dependencies{}))
		env.Bind(heap.Variable{Name: name, Definer: int(addr.Base), Change: lattice.Unchanged, Addrs: lattice.AddrsOf(addr)})
	}

	in.state.Env = env.Freeze()
	in.allocDecls(decls, in.state.Env)
	return in.state
}
