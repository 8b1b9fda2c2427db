package absint

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cs-au-dk/semdiff/analysis/heap"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
	i "github.com/cs-au-dk/semdiff/utils/indenter"
)

// State is the unit of abstract execution. States are values: every
// transfer function returns a new state and leaves its input untouched.
type State struct {
	Store   heap.Store
	Env     heap.Environment
	Scratch Scratchpad
	Trace   Trace
	Control Control
	// Self is the address of the value bound to `this`.
	Self lattice.Address
}

// Join joins the heap, environment, scratchpad and control of both states.
// The trace and self address of the receiver are kept.
func (s State) Join(o State) State {
	return State{
		Store:   s.Store.Join(o.Store),
		Env:     s.Env.Join(o.Env),
		Scratch: s.Scratch.Join(o.Scratch),
		Trace:   s.Trace,
		Control: s.Control.Join(o.Control),
		Self:    s.Self,
	}
}

// joinAt joins two states meeting at node or function entry at. Bindings
// and properties declared by different nodes are joined anyway, keeping the
// lower definer.
func joinAt(log *zap.Logger, at fmt.Stringer, s, o State) State {
	if !log.Core().Enabled(zapcore.DebugLevel) {
		return s.Join(o)
	}
	for _, name := range s.Env.Mismatches(o.Env) {
		log.Debug("joining variables of different declarations",
			zap.String("name", name), zap.Stringer("at", at))
	}
	for _, prop := range s.Store.Mismatches(o.Store) {
		log.Debug("joining properties of different declarations",
			zap.String("property", prop), zap.Stringer("at", at))
	}
	return s.Join(o)
}

func (s State) Equal(o State) bool {
	return s.Self == o.Self &&
		s.Control.Equal(o.Control) &&
		s.Env.Equal(o.Env) &&
		s.Scratch.Equal(o.Scratch) &&
		s.Store.Equal(o.Store)
}

// Lookup reads the variable bound to name and the join of the values at its
// addresses.
func (s State) Lookup(name string) (heap.Variable, lattice.BValue, bool) {
	v, ok := s.Env.Apply(name)
	if !ok {
		return v, lattice.BValue{}, false
	}
	val, found := s.Store.ApplyAll(v.Addrs)
	return v, val, found
}

// Overwrite replaces the value at every address. Unlike the interpreter,
// which only strongly updates singleton address sets, Overwrite always
// replaces.
func (s State) Overwrite(addrs lattice.Addresses, v lattice.BValue) State {
	addrs.ForEach(func(a lattice.Address) {
		s.Store = s.Store.StrongUpdate(a, v)
	})
	return s
}

func (s State) String() string {
	return i.Indenter().Start("State " + s.Trace.String() + ": ").NestStrings(
		"Self: "+s.Self.String(),
		"Control: "+s.Control.String(),
		"Scratch: "+s.Scratch.String(),
		s.Env.String(),
		s.Store.String(),
	).End("")
}
