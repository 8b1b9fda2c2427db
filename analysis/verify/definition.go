// Package verify retracts false positive change impacts. It slices both
// versions of a program backward from a pair of corresponding statements
// and asks an SMT solver whether the value they define is the same.
package verify

import (
	"github.com/cs-au-dk/semdiff/analysis/absint"
	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

// Retval is the name of the value of return statements in slices.
const Retval = "retval"

type DefKind uint8

const (
	NoDef DefKind = iota
	ReturnDef
	AssignDef
)

func (k DefKind) String() string {
	switch k {
	case ReturnDef:
		return "RETURN"
	case AssignDef:
		return "ASSIGN"
	}
	return "UNKNOWN"
}

// Definition is the variable a statement defines, together with the
// variables its value is computed from.
type Definition struct {
	Kind DefKind
	// Name is the defined variable, or Retval.
	Name string
	// Value is the value of the definition after the statement.
	Value lattice.BValue
	// Addrs are the addresses holding the value.
	Addrs lattice.Addresses
	// Expr computes the value. Compound assignments are expanded.
	Expr *ast.Node
	// Deps maps every variable read by Expr to the change of its value.
	Deps map[string]lattice.Change
}

func (d Definition) HasDef() bool {
	return d.Kind != NoDef
}

// Change is the change of the defined value.
func (d Definition) Change() lattice.Change {
	return d.Value.Change
}

// Define extracts the definition of stmt in the state after it. Only
// return statements and assignments to plain variables define anything.
func Define(s absint.State, stmt *ast.Node) (def Definition) {
	if stmt == nil {
		return
	}

	switch stmt.Kind {
	case ast.KReturn:
		if stmt.Child(0) == nil {
			return
		}
		def = Definition{Kind: ReturnDef, Name: Retval, Expr: stmt.Child(0)}
		// Every return statement binds its own address to the pseudo variable.
		if v, ok := s.Env.Apply(absint.RetvalName); ok {
			addr := s.Trace.MakeAddr(stmt.ID, "")
			if v.Addrs.Contains(addr) {
				def.Addrs = lattice.AddrsOf(addr)
			}
		}
		def.Value, _ = s.Scratch.Return()

	case ast.KExprStmt:
		e := stmt.Child(0).Unparen()
		if e.Kind != ast.KAssign {
			return
		}
		lhs := e.Child(0).Unparen()
		if lhs.Kind != ast.KName {
			return
		}
		expr, ok := expand(e)
		if !ok {
			return
		}
		def = Definition{Kind: AssignDef, Name: lhs.Name, Expr: expr}

	case ast.KVar:
		// Only single declarations with an initializer are definitions.
		if len(stmt.Children) != 1 {
			return
		}
		d := stmt.Child(0)
		if d.Child(1) == nil {
			return
		}
		def = Definition{Kind: AssignDef, Name: d.Child(0).Name, Expr: d.Child(1)}

	default:
		return
	}

	if def.Kind == AssignDef {
		v, val, ok := s.Lookup(def.Name)
		if ok {
			def.Addrs, def.Value = v.Addrs, val
		}
	}
	def.Deps = dependencies(s, def.Expr)
	return
}

// expand rewrites a compound assignment x op= e into the expression x op e.
func expand(assign *ast.Node) (*ast.Node, bool) {
	switch assign.Op {
	case "=":
		return assign.Child(1), true
	case "+=", "-=", "*=":
		return &ast.Node{
			ID:       assign.ID,
			Kind:     ast.KBinary,
			Op:       assign.Op[:1],
			Children: []*ast.Node{assign.Child(0), assign.Child(1)},
			Span:     assign.Span,
		}, true
	}
	return nil, false
}

// dependencies collects the variables read by e. Callees are not
// dependencies, only the arguments of calls are. The change of a variable
// is the change of its value; renaming a variable does not change it.
// Unbound variables are assumed changed.
func dependencies(s absint.State, e *ast.Node) map[string]lattice.Change {
	deps := map[string]lattice.Change{}

	var visit func(*ast.Node)
	visit = func(n *ast.Node) {
		if n == nil {
			return
		}
		switch n.Kind {
		case ast.KFunction:
			return
		case ast.KCall, ast.KNew:
			for _, a := range n.Args() {
				visit(a)
			}
			return
		case ast.KMember:
			visit(n.Child(0))
			return
		case ast.KName:
			if _, v, ok := s.Lookup(n.Name); ok {
				deps[n.Name] = v.Change
			} else {
				deps[n.Name] = lattice.ChangeTop
			}
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(e)
	return deps
}
