package absint

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/semdiff/analysis/lattice"
	"github.com/cs-au-dk/semdiff/utils"
	"github.com/cs-au-dk/semdiff/utils/tree"
)

// Scratchpad is the call-local part of the state: the return value of the
// function, its arguments and the results of the calls evaluated by the
// statement under interpretation, keyed by call node id.
type Scratchpad struct {
	ret      lattice.BValue
	returned bool
	args     []lattice.BValue
	calls    tree.Tree[int, lattice.BValue]
}

func NewScratchpad(args ...lattice.BValue) Scratchpad {
	return Scratchpad{
		args:  args,
		calls: tree.NewTree[int, lattice.BValue](utils.IntHasher{}),
	}
}

// Return retrieves the return value. The flag is false if no return
// statement was interpreted on any path.
func (s Scratchpad) Return() (lattice.BValue, bool) {
	return s.ret, s.returned
}

// WithReturn replaces the return value.
func (s Scratchpad) WithReturn(v lattice.BValue) Scratchpad {
	s.ret, s.returned = v, true
	return s
}

func (s Scratchpad) Args() []lattice.BValue {
	return s.args
}

// Call retrieves the memoized result of call site id.
func (s Scratchpad) Call(id int) (lattice.BValue, bool) {
	return s.calls.Lookup(id)
}

// WithCall joins v into the memoized result of call site id.
func (s Scratchpad) WithCall(id int, v lattice.BValue) Scratchpad {
	s.calls = s.calls.InsertOrMerge(id, v, joinValues)
	return s
}

// ClearCalls forgets every memoized call result.
func (s Scratchpad) ClearCalls() Scratchpad {
	if !s.calls.Empty() {
		s.calls = tree.NewTree[int, lattice.BValue](utils.IntHasher{})
	}
	return s
}

func joinValues(a, b lattice.BValue) (lattice.BValue, bool) {
	if a.Eq(b) {
		return a, true
	}
	return a.Join(b), false
}

func (s Scratchpad) Join(o Scratchpad) Scratchpad {
	res := Scratchpad{
		ret:      s.ret.Join(o.ret),
		returned: s.returned || o.returned,
		calls:    s.calls.Merge(o.calls, joinValues),
	}

	n := utils.Max(len(s.args), len(o.args))
	res.args = make([]lattice.BValue, n)
	for i := range res.args {
		switch {
		case i >= len(s.args):
			res.args[i] = o.args[i]
		case i >= len(o.args):
			res.args[i] = s.args[i]
		default:
			res.args[i] = s.args[i].Join(o.args[i])
		}
	}
	return res
}

func (s Scratchpad) Equal(o Scratchpad) bool {
	if s.returned != o.returned || !s.ret.Eq(o.ret) || len(s.args) != len(o.args) {
		return false
	}
	for i, a := range s.args {
		if !a.Eq(o.args[i]) {
			return false
		}
	}
	return s.calls.Equal(o.calls, lattice.BValue.Eq)
}

func (s Scratchpad) String() string {
	strs := []string{}
	if s.returned {
		strs = append(strs, "return "+s.ret.String())
	}
	for i, a := range s.args {
		strs = append(strs, fmt.Sprintf("arg%d %s", i, a))
	}
	s.calls.ForEach(func(id int, v lattice.BValue) {
		strs = append(strs, fmt.Sprintf("call%d %s", id, v))
	})
	return "[" + strings.Join(strs, "; ") + "]"
}
