package heap

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/semdiff/analysis/lattice"
	"github.com/cs-au-dk/semdiff/utils/tree"
)

// Class is the internal [[Class]] of an object.
type Class uint8

const (
	ClassObject Class = iota
	ClassFunction
	ClassArguments
	ClassArray
	ClassObjectCtor
	ClassFunctionProto
)

func (c Class) String() string {
	switch c {
	case ClassObject:
		return "Object"
	case ClassFunction:
		return "Function"
	case ClassArguments:
		return "Arguments"
	case ClassArray:
		return "Array"
	case ClassObjectCtor:
		return "ObjectCtor"
	case ClassFunctionProto:
		return "FunctionProto"
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// Property binds a property name to the address holding its value. Definer
// is the id of the syntax node that introduced the property.
type Property struct {
	Definer int
	Name    string
	Addr    lattice.Address
}

// Internal holds the internal properties of an object. It is either Plain
// or Function.
type Internal interface {
	Prototype() lattice.Addresses
	Class() Class
	isInternal()
}

// Plain is the internal state of ordinary objects.
type Plain struct {
	Proto lattice.Addresses
	Kind  Class
}

// Function is the internal state of callable objects.
type Function struct {
	Proto   lattice.Addresses
	Closure Closure
}

func (p Plain) Prototype() lattice.Addresses    { return p.Proto }
func (f Function) Prototype() lattice.Addresses { return f.Proto }
func (p Plain) Class() Class                    { return p.Kind }
func (Function) Class() Class                   { return ClassFunction }
func (Plain) isInternal()                       {}
func (Function) isInternal()                    {}

// conflict records that two joined objects bound the same property to
// different addresses. The value at dropped must be joined into kept.
type conflict struct {
	kept, dropped lattice.Address
}

// Obj is an abstract object. Objects are immutable; updates return copies.
type Obj struct {
	props    tree.Tree[string, Property]
	Internal Internal
}

func NewObj(internal Internal) *Obj {
	return &Obj{props: newNameTree[Property](), Internal: internal}
}

// Lookup finds an own property.
func (o *Obj) Lookup(name string) (Property, bool) {
	return o.props.Lookup(name)
}

// With returns a copy of o with the property added or replaced.
func (o *Obj) With(p Property) *Obj {
	return &Obj{props: o.props.Insert(p.Name, p), Internal: o.Internal}
}

// ForEach iterates over the own properties.
func (o *Obj) ForEach(do func(Property)) {
	o.props.ForEach(func(_ string, p Property) { do(p) })
}

func (o *Obj) Size() int {
	return o.props.Size()
}

// Closure returns the closure of a function object.
func (o *Obj) Closure() (Closure, bool) {
	if f, ok := o.Internal.(Function); ok {
		return f.Closure, true
	}
	return nil, false
}

func (o *Obj) Equal(p *Obj) bool {
	if o == p {
		return true
	}
	return o.props.Equal(p.props, func(a, b Property) bool { return a == b }) &&
		internalEqual(o.Internal, p.Internal)
}

func internalEqual(a, b Internal) bool {
	switch a := a.(type) {
	case Plain:
		b, ok := b.(Plain)
		return ok && a.Kind == b.Kind && a.Proto.Eq(b.Proto)
	case Function:
		b, ok := b.(Function)
		return ok && a.Proto.Eq(b.Proto) && closureEqual(a.Closure, b.Closure)
	}
	return false
}

// join merges two objects bound to the same address. Properties bound to
// different addresses keep the lower one and are reported as conflicts.
func (o *Obj) join(p *Obj) (*Obj, []conflict) {
	var conflicts []conflict
	props := o.props.Merge(p.props, func(a, b Property) (Property, bool) {
		if a == b {
			return a, true
		}
		res := a
		if b.Addr.Less(a.Addr) {
			res = b
		}
		if !a.Addr.Equal(b.Addr) {
			lo, hi := a.Addr, b.Addr
			if hi.Less(lo) {
				lo, hi = hi, lo
			}
			conflicts = append(conflicts, conflict{kept: lo, dropped: hi})
		}
		res.Definer = min(a.Definer, b.Definer)
		return res, false
	})
	return &Obj{props: props, Internal: joinInternal(o.Internal, p.Internal)}, conflicts
}

func joinInternal(a, b Internal) Internal {
	switch a := a.(type) {
	case Plain:
		if b, ok := b.(Plain); ok {
			return Plain{Proto: a.Proto.Join(b.Proto), Kind: min(a.Kind, b.Kind)}
		}
	case Function:
		if b, ok := b.(Function); ok {
			return Function{Proto: a.Proto.Join(b.Proto), Closure: joinClosure(a.Closure, b.Closure)}
		}
	}
	panic(fmt.Errorf("%w: cannot join %s object with %s object", ErrStructure, a.Class(), b.Class()))
}

func (o *Obj) String() string {
	names := []string{}
	o.ForEach(func(p Property) {
		names = append(names, p.Name+"↦"+p.Addr.String())
	})
	return fmt.Sprintf("%s{%s} proto %s", o.Internal.Class(), strings.Join(names, ", "), o.Internal.Prototype())
}
