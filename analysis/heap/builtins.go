package heap

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

// Builtins records the addresses of the built-in objects.
type Builtins struct {
	// Global is the global object and GlobalBinding the value pointing to
	// it, which is bound to `this` at the top level.
	Global        lattice.Address
	GlobalBinding lattice.Address

	Object        lattice.Address
	ObjectProto   lattice.Address
	FunctionProto lattice.Address
	Arguments     lattice.Address
}

// Definers of built-in properties. They are negative so that they never
// coincide with syntax node ids.
const (
	definerGlobal = -10 - iota
	definerObject
	definerObjectProto
	definerFunctionProto
	definerArguments
)

type heapBuilder struct {
	alloc *Allocator
	store Store
	b     *Builtins
}

// NewBuiltins allocates the built-in objects and returns their addresses
// together with the store holding them.
func NewBuiltins(alloc *Allocator) (*Builtins, Store) {
	hb := &heapBuilder{
		alloc: alloc,
		store: NewStore(),
		b: &Builtins{
			Global:        alloc.Alloc(""),
			GlobalBinding: alloc.Alloc(""),
			Object:        alloc.Alloc(""),
			ObjectProto:   alloc.Alloc(""),
			FunctionProto: alloc.Alloc(""),
			Arguments:     alloc.Alloc(""),
		},
	}
	b := hb.b

	hb.store = hb.store.Alloc(b.GlobalBinding, lattice.InjectAddr(b.Global, lattice.Unchanged, lattice.Dependencies{}))

	hb.store = hb.store.AllocObj(b.Global, hb.props(
		NewObj(Plain{Proto: lattice.AddrsOf(b.ObjectProto), Kind: ClassObject}),
		definerGlobal,
		map[string]lattice.BValue{
			"Object":    pointer(b.Object),
			"undefined": lattice.InjectUndefined(lattice.Unchanged, lattice.Dependencies{}),
			"module":    lattice.InjectUndefined(lattice.Unchanged, lattice.Dependencies{}),
		}))

	statics := map[string]lattice.BValue{
		"prototype": pointer(b.ObjectProto),
		"length":    lattice.InjectNum(lattice.NumTop(), lattice.Unchanged, lattice.Dependencies{}),
	}
	for _, name := range []string{
		"create", "defineProperties", "defineProperty", "freeze",
		"getOwnPropertyDescriptor", "getOwnPropertyNames", "getPrototypeOf",
		"isExtensible", "isFrozen", "isSealed", "keys", "preventExtensions", "seal",
	} {
		statics[name] = hb.function("Object."+name, top())
	}
	hb.store = hb.store.AllocObj(b.Object, hb.props(
		NewObj(Function{
			Proto:   lattice.AddrsOf(b.FunctionProto),
			Closure: Const("Object", lattice.InjectAddr(b.Global, lattice.Unchanged, lattice.Dependencies{})),
		}),
		definerObject,
		statics))

	hb.store = hb.store.AllocObj(b.ObjectProto, hb.props(
		NewObj(Plain{Kind: ClassObject}),
		definerObjectProto,
		map[string]lattice.BValue{
			"toString":             hb.function("Object.prototype.toString", str()),
			"toLocaleString":       hb.function("Object.prototype.toLocaleString", str()),
			"valueOf":              hb.function("Object.prototype.valueOf", top()),
			"hasOwnProperty":       hb.function("Object.prototype.hasOwnProperty", boolean()),
			"isPrototypeOf":        hb.function("Object.prototype.isPrototypeOf", boolean()),
			"propertyIsEnumerable": hb.function("Object.prototype.propertyIsEnumerable", boolean()),
		}))

	hb.store = hb.store.AllocObj(b.FunctionProto, hb.props(
		NewObj(Plain{Proto: lattice.AddrsOf(b.ObjectProto), Kind: ClassFunctionProto}),
		definerFunctionProto,
		map[string]lattice.BValue{
			"toString": hb.function("Function.prototype.toString", str()),
			"apply":    hb.function("Function.prototype.apply", top()),
			"call":     hb.function("Function.prototype.call", top()),
		}))

	hb.store = hb.store.AllocObj(b.Arguments, hb.props(
		NewObj(Plain{Proto: lattice.AddrsOf(b.ObjectProto), Kind: ClassArguments}),
		definerArguments,
		map[string]lattice.BValue{
			"length": lattice.InjectNum(lattice.NumTop(), lattice.Unchanged, lattice.Dependencies{}),
		}))

	return b, hb.store
}

func pointer(a lattice.Address) lattice.BValue {
	return lattice.InjectAddr(a, lattice.Unchanged, lattice.Dependencies{})
}

func top() lattice.BValue {
	return lattice.BValueTop(lattice.Unchanged, lattice.Dependencies{})
}

func str() lattice.BValue {
	return lattice.InjectStr(lattice.StrTop(), lattice.Unchanged, lattice.Dependencies{})
}

func boolean() lattice.BValue {
	return lattice.InjectBool(lattice.BoolTop, lattice.Unchanged, lattice.Dependencies{})
}

// props allocates a value address per property and adds the properties to
// obj. Names are visited in sorted order to keep addresses stable.
func (hb *heapBuilder) props(obj *Obj, definer int, props map[string]lattice.BValue) *Obj {
	names := maps.Keys(props)
	slices.Sort(names)
	for _, name := range names {
		addr := hb.alloc.Alloc(name)
		hb.store = hb.store.Alloc(addr, props[name])
		obj = obj.With(Property{Definer: definer, Name: name, Addr: addr})
	}
	return obj
}

// function allocates a builtin function object returning ret and yields a
// value pointing to it.
func (hb *heapBuilder) function(name string, ret lattice.BValue) lattice.BValue {
	addr := hb.alloc.Alloc("")
	hb.store = hb.store.AllocObj(addr, NewObj(Function{
		Proto:   lattice.AddrsOf(hb.b.FunctionProto),
		Closure: Const(name, ret),
	}))
	return pointer(addr)
}

// InitialEnvironment binds `this` at the top level.
func (b *Builtins) InitialEnvironment() Environment {
	return NewEnvironment().StrongUpdate(Variable{
		Name:    "this",
		Definer: definerGlobal,
		Change:  lattice.Unchanged,
		Addrs:   lattice.AddrsOf(b.GlobalBinding),
	})
}
