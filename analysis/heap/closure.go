package heap

import (
	"errors"
	"fmt"

	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

// ErrStructure is raised when two heap structures that must agree in shape
// are joined.
var ErrStructure = errors.New("heap: structural mismatch")

// Closure is the code of a function object: either a user function closing
// over an environment, or a builtin with a constant summary.
type Closure interface {
	fmt.Stringer
	isClosure()
}

type UserFunction struct {
	CFG *cfg.CFG
	Env Environment
}

// BuiltinCall is the input of a builtin summary.
type BuiltinCall struct {
	Self   lattice.Address
	Store  Store
	Args   []lattice.BValue
	Change lattice.Change
	Deps   lattice.Dependencies
}

// Summary computes the post store and return value of a builtin.
type Summary func(BuiltinCall) (Store, lattice.BValue)

type Builtin struct {
	Name    string
	Summary Summary
}

func (UserFunction) isClosure() {}
func (Builtin) isClosure()      {}

func (u UserFunction) String() string { return "closure " + u.CFG.String() }
func (b Builtin) String() string      { return "builtin " + b.Name }

// Const returns a builtin that leaves the store untouched and returns ret
// carrying the change of the call.
func Const(name string, ret lattice.BValue) Builtin {
	return Builtin{
		Name: name,
		Summary: func(call BuiltinCall) (Store, lattice.BValue) {
			return call.Store, ret.WithChange(call.Change).WithDeps(ret.Deps.Join(call.Deps))
		},
	}
}

func closureEqual(a, b Closure) bool {
	switch a := a.(type) {
	case UserFunction:
		b, ok := b.(UserFunction)
		return ok && a.CFG == b.CFG && a.Env.Equal(b.Env)
	case Builtin:
		b, ok := b.(Builtin)
		return ok && a.Name == b.Name
	}
	return false
}

func joinClosure(a, b Closure) Closure {
	switch a := a.(type) {
	case UserFunction:
		if b, ok := b.(UserFunction); ok && a.CFG == b.CFG {
			return UserFunction{CFG: a.CFG, Env: a.Env.Join(b.Env)}
		}
	case Builtin:
		if b, ok := b.(Builtin); ok && a.Name == b.Name {
			return a
		}
	}
	panic(fmt.Errorf("%w: cannot join %s with %s", ErrStructure, a, b))
}
