package absint

import (
	"go.uber.org/zap"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/heap"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

// localNames lists the names whose bindings the sweep starts from: the
// locals and nested function declarations of the function, plus its
// parameters, or the globals for the script.
func localNames(fn *ast.Node) []string {
	s := scopeOf(fn)
	names := []string{}
	for _, l := range s.locals {
		names = append(names, l.Name)
	}
	for _, f := range s.funcs {
		names = append(names, f.Name)
	}
	if fn.Kind == ast.KFunction {
		for _, p := range fn.Params {
			names = append(names, p.Name)
		}
	} else {
		names = append(names, globals(fn)...)
	}
	return names
}

// sweep queues the functions reachable from the locals of c in its exit
// state that were never entered. They are analyzed once the call stack is
// empty.
func (a *Analysis) sweep(c *cfg.CFG, exit State) {
	visited := map[lattice.Address]bool{}

	var visitValue func(lattice.BValue)
	visitObj := func(addr lattice.Address) {
		if visited[addr] {
			return
		}
		visited[addr] = true

		obj, ok := exit.Store.Obj(addr)
		if !ok {
			return
		}
		if f, ok := obj.Closure(); ok {
			if f, ok := f.(heap.UserFunction); ok {
				a.enqueue(f, exit.Store)
			}
		}
		obj.ForEach(func(p heap.Property) {
			if v, ok := exit.Store.Apply(p.Addr); ok {
				visitValue(v)
			}
		})
	}
	visitValue = func(v lattice.BValue) {
		v.Addr.ForEach(visitObj)
	}

	for _, name := range localNames(c.Function) {
		if _, v, ok := exit.Lookup(name); ok {
			visitValue(v)
		}
	}
}

func (a *Analysis) enqueue(f heap.UserFunction, store heap.Store) {
	if _, entered := a.entries[f.CFG]; entered || a.queued[f.CFG] {
		return
	}
	a.queued[f.CFG] = true
	a.events.Push(event{fn: f, store: store})
	a.log.Debug("queued unreached function", zap.Stringer("function", f.CFG))
}

// sweptEntry is the entry state of a function that is analyzed without a
// caller: it receives no arguments and its receiver is the global object.
func (a *Analysis) sweptEntry(ev event) State {
	in := a.interpreter(State{
		Store:   ev.store,
		Scratch: NewScratchpad(),
		Trace:   NewTrace(0).AtCall(ev.fn.CFG.Function),
		Self:    a.builtins.GlobalBinding,
	}, nil, nil)
	return in.enter(ev.fn, nil, lattice.BValue{})
}
