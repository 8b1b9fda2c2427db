package absint

import (
	"go.uber.org/zap"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/heap"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

// firstChange returns the first changed classification among the
// candidates, or Unchanged if none is changed.
func firstChange(cands ...changeSource) (lattice.Change, lattice.Dependencies) {
	for _, c := range cands {
		if c.change.IsChanged() {
			return lattice.Changed, c.deps
		}
	}
	return lattice.Unchanged, lattice.Dependencies{}
}

type changeSource struct {
	change lattice.Change
	deps   lattice.Dependencies
}

func source(c lattice.Change, d lattice.Dependencies) changeSource {
	return changeSource{c, d}
}

// evalCall interprets a call or new expression. Callees that are user
// functions are either answered from their summary or pushed onto the call
// stack, in which case interpretation of the current instruction is
// suspended until they return.
func (in *interpreter) evalCall(fc *ast.Node) lattice.BValue {
	callee := fc.Callee().Unparen()

	var fun, self lattice.BValue
	if callee.Kind == ast.KMember || callee.Kind == ast.KIndex {
		self = in.receiver(callee.Child(0))
		fun = in.readProperty(callee, self)
	} else {
		fun = in.eval(callee)
	}

	params := fc.Args()
	args := make([]lattice.BValue, len(params))
	for i, p := range params {
		args[i] = in.eval(p)
	}
	if in.suspended {
		return lattice.BValueBot()
	}

	siteC, siteD := in.conv(fc)
	targetC, targetD := in.convU(callee)
	for i, p := range params {
		argC, argD := in.convU(p)
		c, d := firstChange(
			source(siteC, siteD),
			source(targetC, targetD),
			source(fun.Change, fun.Deps),
			source(argC, argD))
		args[i] = taint(args[i], c, d)
	}

	if lattice.ConvU(fc) == lattice.Changed {
		in.ann.Criterion(fc, lattice.CALL_CHANGE)
	}

	var receiver lattice.BValue
	if fc.Kind == ast.KNew {
		receiver = in.construct(fc)
		self = receiver
	}

	res, ok := in.state.Scratch.Call(fc.ID)
	if !ok {
		res = in.invoke(fc, fun, self, args, siteC, siteD, targetC, targetD)
		if in.suspended {
			return lattice.BValueBot()
		}
	}
	in.ann.Depend(fc, res.Deps)

	if fc.Kind == ast.KNew {
		// Constructors yield the receiver unless they return an object.
		ret := res
		res = taint(receiver, res.Change, res.Deps)
		res.Addr = res.Addr.Join(ret.Addr)
	}
	return res
}

// construct allocates the receiver of a new expression.
func (in *interpreter) construct(fc *ast.Node) lattice.BValue {
	addr := in.state.Trace.MakeAddr(fc.ID, "")
	in.state.Store = in.state.Store.AllocObj(addr, in.emptyObject())
	c, d := in.conv(fc)
	return lattice.InjectAddr(addr, c, in.value(fc).Join(d))
}

// invoke resolves the targets of a call and computes its result.
func (in *interpreter) invoke(fc *ast.Node, fun, self lattice.BValue, args []lattice.BValue,
	siteC lattice.Change, siteD lattice.Dependencies,
	targetC lattice.Change, targetD lattice.Dependencies,
) lattice.BValue {
	in.metrics.addCallees(fc, fun.Addr.Size())

	type target struct {
		cfg   *cfg.CFG
		entry State
	}
	var (
		res      lattice.BValue
		resolved bool
		pushes   []target
	)

	retC, retD := firstChange(source(siteC, siteD), source(targetC, targetD), source(fun.Change, fun.Deps))

	fun.Addr.ForEach(func(a lattice.Address) {
		obj, ok := in.state.Store.Obj(a)
		if !ok {
			return
		}
		closure, ok := obj.Closure()
		if !ok {
			return
		}
		resolved = true

		switch closure := closure.(type) {
		case heap.Builtin:
			store, v := closure.Summary(heap.BuiltinCall{
				Self:   in.state.Self,
				Store:  in.state.Store,
				Args:   args,
				Change: retC,
				Deps:   retD,
			})
			in.state.Store = store
			res = res.Join(v)

		case heap.UserFunction:
			entry := in.entryState(fc, closure, args, self)
			if v, store, ok := in.summary(closure.CFG, entry); ok {
				in.state.Store = store
				res = res.Join(taint(v, retC, retD))
				return
			}
			pushes = append(pushes, target{closure.CFG, entry})
		}
	})

	if !resolved {
		argC, argD := lattice.ChangeBot, lattice.Dependencies{}
		for _, arg := range args {
			argC = argC.Join(arg.Change)
			if arg.Change.IsChanged() {
				argD = argD.Join(arg.Deps)
			}
		}
		c, d := firstChange(source(siteC, siteD), source(targetC, targetD), source(argC, argD))
		in.log.Debug("unresolved call", zap.Int("node", fc.ID), zap.Int("line", fc.Span.Line))
		return lattice.BValueTop(c, in.value(fc).Join(d))
	}

	if len(pushes) == 0 {
		return res
	}

	// Results of builtins and summaries are kept for the replay.
	in.site.pre.Scratch = in.site.pre.Scratch.WithCall(fc.ID, res)
	in.site.pre.Store = in.state.Store.Join(in.site.pre.Store)
	for _, t := range pushes {
		in.push(t.cfg, t.entry, &callSite{
			frame:  in.frame,
			instr:  in.site,
			call:   fc,
			change: retC,
			deps:   retD,
		})
	}
	in.suspended = true
	return lattice.BValueBot()
}

// summary answers a call from previous analyses of the callee. It succeeds
// if the callee is already being analyzed further up the stack, or if its
// recorded entry state subsumes the entry state of this call. A call that
// cannot be pushed also falls back to the summary.
func (in *interpreter) summary(c *cfg.CFG, entry State) (lattice.BValue, heap.Store, bool) {
	old, seen := in.entries[c]
	switch {
	case in.onStack(c), in.site == nil:
	case seen && old.Join(entry).Equal(old):
	default:
		return lattice.BValue{}, heap.Store{}, false
	}
	in.metrics.summaryUsed()

	exit, ok := in.exits[c]
	if !ok {
		return lattice.BValueTop(lattice.Unchanged, lattice.Dependencies{}), in.state.Store, true
	}
	ret, ok := exit.Scratch.Return()
	if !ok {
		ret = lattice.InjectUndefined(lattice.Unchanged, lattice.Dependencies{})
	}
	return ret, exit.Store.Join(in.state.Store), true
}
