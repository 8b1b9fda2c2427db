package absint

import (
	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/heap"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

// maxProtoDepth bounds prototype chain traversal.
const maxProtoDepth = 16

// variable looks up the binding of a name on behalf of n.
func (in *interpreter) variable(n *ast.Node) (heap.Variable, bool) {
	v, ok := in.state.Env.Apply(n.Name)
	if ok {
		in.ann.Depend(n, v.Deps)
	}
	return v, ok
}

// read joins the values at every address on behalf of n.
func (in *interpreter) read(addrs lattice.Addresses, n *ast.Node) (res lattice.BValue, found bool) {
	addrs.ForEach(func(a lattice.Address) {
		if v, ok := in.apply(a, n); ok {
			res, found = res.Join(v), true
		}
	})
	return
}

// resolveValue reads the value of a name or property access. The flag is
// false if nothing is bound.
func (in *interpreter) resolveValue(n *ast.Node) (lattice.BValue, bool) {
	switch n.Kind {
	case ast.KParen:
		return in.resolveValue(n.Child(0))
	case ast.KName:
		v, ok := in.variable(n)
		if !ok {
			return lattice.BValue{}, false
		}
		val, found := in.read(v.Addrs, n)
		if !found {
			return lattice.BValue{}, false
		}
		return taint(val, v.Change, v.Deps), true
	case ast.KMember, ast.KIndex:
		return in.readProperty(n, in.receiver(n.Child(0))), true
	}
	return in.eval(n), true
}

// readProperty reads the property accessed by n from the objects obj
// points to. Properties missing from some object read as a dummy value.
func (in *interpreter) readProperty(n *ast.Node, obj lattice.BValue) lattice.BValue {
	name, key := in.propName(n)

	var res lattice.BValue
	missing := false
	obj.Addr.ForEach(func(a lattice.Address) {
		if o, ok := in.state.Store.Obj(a); ok && name == unknownProperty {
			// Any own property may be read.
			o.ForEach(func(p heap.Property) {
				if v, ok := in.apply(p.Addr, n); ok {
					res = res.Join(v)
				}
			})
		}
		p, ok := in.lookupProperty(a, name)
		if !ok {
			missing = true
			return
		}
		if v, ok := in.apply(p.Addr, n); ok {
			res = res.Join(v)
		} else {
			missing = true
		}
	})
	if missing {
		res = res.Join(lattice.Dummy(lattice.Unchanged, in.value(n)))
	}

	res = taint(res, obj.Change, obj.Deps)
	return taint(res, key.Change, key.Deps)
}

// lookupProperty finds a property of the object at addr, following the
// prototype chain.
func (in *interpreter) lookupProperty(addr lattice.Address, name string) (heap.Property, bool) {
	visited := map[lattice.Address]bool{}
	todo := []lattice.Address{addr}
	for depth := 0; len(todo) > 0 && depth < maxProtoDepth; depth++ {
		var next []lattice.Address
		for _, a := range todo {
			if visited[a] {
				continue
			}
			visited[a] = true

			obj, ok := in.state.Store.Obj(a)
			if !ok {
				continue
			}
			if p, ok := obj.Lookup(name); ok {
				return p, true
			}
			next = append(next, obj.Internal.Prototype().Entries()...)
		}
		todo = next
	}
	return heap.Property{}, false
}

// propName computes the accessed property name of a member or index
// expression. Index keys that are not constant are collapsed into a single
// unknown property. The key value is returned for its taint.
func (in *interpreter) propName(n *ast.Node) (string, lattice.BValue) {
	if n.Kind == ast.KMember {
		return n.Child(1).Name, lattice.BValue{}
	}

	key := in.eval(n.Child(1))
	switch {
	case key.IsBot():
	case key.Str.IsBot() && key.Addr.IsBot() && key.Bool.IsBot() && key.Null.IsBot() && key.Undef.IsBot():
		if v, ok := key.Num.Value(); ok {
			return v, key
		}
	case key.Num.IsBot() && key.Addr.IsBot() && key.Bool.IsBot() && key.Null.IsBot() && key.Undef.IsBot():
		if v, ok := key.Str.Value(); ok {
			return v, key
		}
	}
	return unknownProperty, key
}

// propNode is the node defining properties created through n.
func propNode(n *ast.Node) *ast.Node {
	return n.Child(1)
}

// resolveOrCreate computes the addresses an assignment to n writes to.
// Missing bindings and properties are created on the fly.
func (in *interpreter) resolveOrCreate(n *ast.Node) lattice.Addresses {
	switch n.Kind {
	case ast.KParen:
		return in.resolveOrCreate(n.Child(0))
	case ast.KName:
		if v, ok := in.variable(n); ok {
			return v.Addrs
		}
		addr := in.state.Trace.MakeAddr(n.ID, "")
		in.state.Env = in.state.Env.StrongUpdate(heap.Variable{
			Name:    n.Name,
			Definer: n.ID,
			Change:  lattice.ChangeBot,
			Addrs:   lattice.AddrsOf(addr),
		})
		in.state.Store = in.state.Store.Alloc(addr, lattice.Dummy(lattice.ChangeBot, in.value(n)))
		return lattice.AddrsOf(addr)
	case ast.KMember, ast.KIndex:
		objs := in.receiver(n.Child(0)).Addr
		name, _ := in.propName(n)
		def := propNode(n)

		var res []lattice.Address
		objs.ForEach(func(a lattice.Address) {
			obj, ok := in.state.Store.Obj(a)
			if !ok {
				obj = in.emptyObject()
			}
			if p, ok := obj.Lookup(name); ok {
				res = append(res, p.Addr)
				return
			}
			addr := in.state.Trace.MakeAddr(def.ID, name)
			in.state.Store = in.state.Store.Alloc(addr, lattice.Dummy(lattice.ChangeBot, in.value(def)))
			in.state.Store = in.state.Store.StrongUpdateObj(a,
				obj.With(heap.Property{Definer: def.ID, Name: name, Addr: addr}))
			res = append(res, addr)
		})
		return lattice.AddrsOf(res...)
	}

	v := in.eval(n)
	addr := in.state.Trace.MakeAddr(n.ID, "")
	in.alloc(addr, v, n)
	return lattice.AddrsOf(addr)
}

func (in *interpreter) emptyObject() *heap.Obj {
	return heap.NewObj(heap.Plain{Proto: lattice.AddrsOf(in.builtins.ObjectProto), Kind: heap.ClassObject})
}

// receiver evaluates n as the object of a property access. A value that
// points nowhere is replaced by a fresh empty object.
func (in *interpreter) receiver(n *ast.Node) lattice.BValue {
	v := in.eval(n)
	if in.suspended || (!v.Addr.IsBot() && !v.Addr.IsTop()) {
		return v
	}

	addr := in.state.Trace.MakeAddr(n.ID, "")
	if _, ok := in.state.Store.Obj(addr); !ok {
		in.state.Store = in.state.Store.StrongUpdateObj(addr, in.emptyObject())
	}
	v.Addr = lattice.AddrsOf(addr)
	return v
}
