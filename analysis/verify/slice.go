package verify

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/cs-au-dk/semdiff/analysis/absint"
	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

// States retrieves the state after a node, if the node was reached.
type States func(*cfg.Node) (absint.State, bool)

// Step is a statement of a slice, normalized to an assignment.
type Step struct {
	Target string
	Expr   *ast.Node
	Stmt   *ast.Node
}

func (s Step) String() string {
	return s.Target + " = " + ast.Print(s.Expr) + ";"
}

// Slice is a backward slice of one version of a program.
type Slice struct {
	Kind DefKind
	// Query is the variable whose value is compared.
	Query string
	// Steps are ordered as in the program.
	Steps []Step
	// Vars are every variable occurring in the slice, sorted.
	Vars []string
	// Free are the variables read but not defined by the slice, with the
	// change of their values.
	Free map[string]lattice.Change
}

// Program renders the statements of the slice.
func (s Slice) Program() string {
	var b strings.Builder
	for _, st := range s.Steps {
		b.WriteString(st.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Backward slices the program backward from criterion, whose post state is
// given. Nodes are visited along unvisited incoming edges. A node is
// included if it defines a variable the slice still depends on, until
// maxDepth statements are included.
func Backward(criterion *cfg.Node, post absint.State, states States, maxDepth int) Slice {
	def := Define(post, criterion.Stmt)
	res := Slice{Kind: def.Kind, Query: def.Name}
	if !def.HasDef() {
		return res
	}

	vars := map[string]bool{def.Name: true}
	deps := map[string]lattice.Change{def.Name: def.Change()}
	visited := map[*cfg.Edge]bool{}
	stack := []*cfg.Node{criterion}

	for depth := 0; len(stack) > 0; {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		d := def
		if n != criterion {
			s, ok := states(n)
			if ok {
				d = Define(s, n.Stmt)
			} else {
				d = Definition{}
			}
		}

		if _, live := deps[d.Name]; d.HasDef() && live {
			vars[d.Name] = true
			delete(deps, d.Name)
			for name, c := range d.Deps {
				deps[name] = deps[name].Join(c)
			}
			res.Steps = append([]Step{{Target: d.Name, Expr: d.Expr, Stmt: n.Stmt}}, res.Steps...)

			depth++
			if depth >= maxDepth {
				break
			}
		}

		for _, e := range n.In {
			if !visited[e] && e.From.IncomingEdgeCount() > 0 {
				visited[e] = true
				stack = append(stack, e.From)
			}
		}
	}

	for name := range deps {
		vars[name] = true
	}
	res.Free = deps
	res.Vars = maps.Keys(vars)
	slices.Sort(res.Vars)
	return res
}
