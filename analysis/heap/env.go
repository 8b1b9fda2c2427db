package heap

import (
	"fmt"
	"sort"

	"github.com/cs-au-dk/semdiff/analysis/lattice"
	i "github.com/cs-au-dk/semdiff/utils/indenter"
	"github.com/cs-au-dk/semdiff/utils/tree"
)

// Variable is the binding of a name. Definer is the id of the declaring
// syntax node. The change and dependencies describe the binding itself,
// not the value stored at its addresses.
type Variable struct {
	Name    string
	Definer int
	Change  lattice.Change
	Deps    lattice.Dependencies
	Addrs   lattice.Addresses
}

func (v Variable) Join(o Variable) Variable {
	return Variable{
		Name:    v.Name,
		Definer: min(v.Definer, o.Definer),
		Change:  v.Change.Join(o.Change),
		Deps:    v.Deps.Join(o.Deps),
		Addrs:   v.Addrs.Join(o.Addrs),
	}
}

func (v Variable) Equal(o Variable) bool {
	return v.Name == o.Name &&
		v.Definer == o.Definer &&
		v.Change == o.Change &&
		v.Deps.Eq(o.Deps) &&
		v.Addrs.Eq(o.Addrs)
}

func (v Variable) String() string {
	return fmt.Sprintf("%s@%d ↦ %s %s %s", v.Name, v.Definer, v.Addrs, v.Change, v.Deps)
}

// Environment maps names to variables.
type Environment struct {
	vars tree.Tree[string, Variable]
}

func NewEnvironment() Environment {
	return Environment{vars: newNameTree[Variable]()}
}

func (e Environment) Apply(name string) (Variable, bool) {
	return e.vars.Lookup(name)
}

// StrongUpdate replaces the binding of v.Name.
func (e Environment) StrongUpdate(v Variable) Environment {
	e.vars = e.vars.Insert(v.Name, v)
	return e
}

// WeakUpdate joins v into the current binding.
func (e Environment) WeakUpdate(v Variable) Environment {
	e.vars = e.vars.InsertOrMerge(v.Name, v, joinVariables)
	return e
}

func joinVariables(a, b Variable) (Variable, bool) {
	if a.Equal(b) {
		return a, true
	}
	return a.Join(b), false
}

func (e Environment) Join(o Environment) Environment {
	e.vars = e.vars.Merge(o.vars, joinVariables)
	return e
}

func (e Environment) Equal(o Environment) bool {
	return e.vars.Equal(o.vars, Variable.Equal)
}

// Mismatches lists the names bound by different declarations in e and o,
// in lexicographic order.
func (e Environment) Mismatches(o Environment) (names []string) {
	e.vars.ForEach(func(name string, v Variable) {
		if w, ok := o.vars.Lookup(name); ok && w.Definer != v.Definer {
			names = append(names, name)
		}
	})
	sort.Strings(names)
	return
}

func (e Environment) ForEach(do func(Variable)) {
	e.vars.ForEach(func(_ string, v Variable) { do(v) })
}

func (e Environment) Size() int {
	return e.vars.Size()
}

func (e Environment) String() string {
	vars := []string{}
	e.ForEach(func(v Variable) {
		vars = append(vars, v.String())
	})
	sort.Strings(vars)
	return i.Indenter().Start("Env: {").NestStrings(vars...).End("}")
}

// FreshEnvironment is an environment under construction at function entry.
// Names are bound into it while hoisting; once every name is bound it is
// frozen, and closures created afterwards capture the frozen result. Binding
// into a frozen environment panics.
type FreshEnvironment struct {
	env    Environment
	frozen bool
}

// Fresh starts a new scope extending e.
func (e Environment) Fresh() *FreshEnvironment {
	return &FreshEnvironment{env: e}
}

func (f *FreshEnvironment) Bind(v Variable) {
	if f.frozen {
		panic(fmt.Errorf("heap: binding %s in frozen environment", v.Name))
	}
	f.env = f.env.StrongUpdate(v)
}

func (f *FreshEnvironment) Lookup(name string) (Variable, bool) {
	return f.env.Apply(name)
}

// Freeze ends construction and returns the environment.
func (f *FreshEnvironment) Freeze() Environment {
	f.frozen = true
	return f.env
}
