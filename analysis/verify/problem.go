package verify

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var errKindMismatch = errors.New("the statements define different kinds of values")

type Operator uint8

const (
	EQ Operator = iota
	NEQ
)

func (o Operator) String() string {
	if o == NEQ {
		return "NEQ"
	}
	return "EQ"
}

// Constraint relates a free variable of the old slice to a free variable of
// the new slice.
type Constraint struct {
	Old, New string
	Op       Operator
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s %s %s", c.Old, c.Op, c.New)
}

// Problem asks whether the query variables of two slices are equal, given
// constraints on their inputs.
type Problem struct {
	Kind     DefKind
	Old, New Slice
	// Vars are the variables of both slices. Both programs declare all of
	// them, so that constraints can refer to any.
	Vars        []string
	Constraints []Constraint
}

// NewProblem combines the slices of both versions. Every free variable is
// related to its counterpart: EQ if neither side considers it changed, NEQ
// otherwise. Renderers decide which relations to assert.
func NewProblem(old, new Slice, renames *Renames) (Problem, error) {
	if old.Kind != new.Kind {
		return Problem{}, fmt.Errorf("%w: %s and %s", errKindMismatch, old.Kind, new.Kind)
	}
	if new.Kind == NoDef {
		return Problem{}, fmt.Errorf("%w: no definition", errKindMismatch)
	}
	if renames == nil {
		renames = NewRenames(nil, nil)
	}

	vars := map[string]bool{}
	for _, v := range old.Vars {
		vars[v] = true
	}
	for _, v := range new.Vars {
		vars[v] = true
	}

	// A pair is equal only if neither side considers its input changed.
	ops := map[Constraint]Operator{}
	relate := func(o, n string, changed bool) {
		k := Constraint{Old: o, New: n}
		if changed {
			ops[k] = NEQ
		} else if _, ok := ops[k]; !ok {
			ops[k] = EQ
		}
		vars[o], vars[n] = true, true
	}
	for name, c := range old.Free {
		relate(name, renames.New(name), c.IsChanged())
	}
	for name, c := range new.Free {
		relate(renames.Old(name), name, c.IsChanged())
	}

	p := Problem{Kind: new.Kind, Old: old, New: new, Vars: maps.Keys(vars)}
	slices.Sort(p.Vars)
	for k, op := range ops {
		k.Op = op
		p.Constraints = append(p.Constraints, k)
	}
	sort.Slice(p.Constraints, func(i, j int) bool {
		a, b := p.Constraints[i], p.Constraints[j]
		if a.Old != b.Old {
			return a.Old < b.Old
		}
		return a.New < b.New
	})
	return p, nil
}

func (p Problem) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s = %s\n", p.Kind, p.Old.Query, p.New.Query)
	b.WriteString("-- old\n")
	b.WriteString(p.Old.Program())
	b.WriteString("-- new\n")
	b.WriteString(p.New.Program())
	b.WriteString("-- constraints\n")
	for _, c := range p.Constraints {
		b.WriteString(c.String())
		b.WriteString("\n")
	}
	return b.String()
}
