package absint

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

// idSet is an immutable sorted set of syntax node ids.
type idSet []int

func (s idSet) contains(id int) bool {
	_, found := slices.BinarySearch(s, id)
	return found
}

func (s idSet) add(id int) idSet {
	i, found := slices.BinarySearch(s, id)
	if found {
		return s
	}
	res := make(idSet, 0, len(s)+1)
	res = append(res, s[:i]...)
	res = append(res, id)
	return append(res, s[i:]...)
}

func (s idSet) union(o idSet) idSet {
	for _, id := range o {
		s = s.add(id)
	}
	return s
}

func (s idSet) minus(o idSet) (res idSet) {
	for _, id := range s {
		if !o.contains(id) {
			res = append(res, id)
		}
	}
	return
}

func (s idSet) equal(o idSet) bool {
	return slices.Equal(s, o)
}

// Control records why execution reached the current point: through a call
// site whose target was changed, or under branch conditions that were
// changed.
//
// Conditions are tracked together with the conditions of the sibling
// branches. Once both sides of a branch are joined, each condition meets
// its own negation and is dropped.
type Control struct {
	calls      idSet
	conditions idSet
	negated    idSet
}

// Enter computes the control of a function entered at call site fc. The
// conditions of the caller do not carry over.
func (c Control) Enter(fc *ast.Node) Control {
	if lattice.ConvU(fc) == lattice.Changed {
		return Control{calls: idSet{fc.ID}}
	}
	return Control{}
}

// Branch extends the control with the condition of edge e.
func (c Control) Branch(e *cfg.Edge) Control {
	res := Control{calls: c.calls, conditions: c.conditions, negated: c.negated}
	if cond := e.Condition; cond != nil && lattice.ConvU(cond) == lattice.Changed {
		res.conditions = res.conditions.add(cond.ID)
	}
	for _, sib := range e.From.Out {
		if sib != e && sib.Condition != nil && lattice.ConvU(sib.Condition) == lattice.Changed {
			res.negated = res.negated.add(sib.Condition.ID)
		}
	}
	return res
}

func (c Control) Join(o Control) Control {
	negated := c.negated.union(o.negated)
	return Control{
		calls:      c.calls.union(o.calls),
		conditions: c.conditions.union(o.conditions).minus(negated),
		negated:    negated,
	}
}

func (c Control) Equal(o Control) bool {
	return c.calls.equal(o.calls) &&
		c.conditions.equal(o.conditions) &&
		c.negated.equal(o.negated)
}

// IsChanged holds when execution depends on a changed call target or
// condition.
func (c Control) IsChanged() bool {
	return len(c.calls) > 0 || len(c.conditions) > 0
}

// Calls returns the changed call sites the current function was entered
// through.
func (c Control) Calls() []int {
	return c.calls
}

// Conditions returns the ids of the source conditions that are live. Negated
// conditions are reported by the id of the test they negate.
func (c Control) Conditions() (ids []int) {
	var res idSet
	for _, id := range c.conditions {
		if id < 0 {
			id = -id
		}
		res = res.add(id)
	}
	return res
}

func (c Control) String() string {
	strs := []string{}
	for _, id := range c.calls {
		strs = append(strs, fmt.Sprintf("call %d", id))
	}
	for _, id := range c.conditions {
		strs = append(strs, fmt.Sprintf("cond %d", id))
	}
	return "{" + strings.Join(strs, ", ") + "}"
}
