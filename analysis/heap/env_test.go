package heap

import (
	"testing"

	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

func TestEnvironmentJoin(t *testing.T) {
	x1 := Variable{Name: "x", Definer: 3, Change: lattice.Unchanged, Addrs: lattice.AddrsOf(addr(1, ""))}
	x2 := Variable{Name: "x", Definer: 7, Change: lattice.Changed, Addrs: lattice.AddrsOf(addr(2, ""))}
	y := Variable{Name: "y", Definer: 4, Addrs: lattice.AddrsOf(addr(3, ""))}

	e1 := NewEnvironment().StrongUpdate(x1).StrongUpdate(y)
	e2 := NewEnvironment().StrongUpdate(x2)

	if got := e1.Mismatches(e2); len(got) != 1 || got[0] != "x" {
		t.Errorf("Mismatches = %v", got)
	}

	j := e1.Join(e2)
	x, _ := j.Apply("x")
	if x.Addrs.Size() != 2 || x.Change != lattice.ChangeTop || x.Definer != 3 {
		t.Errorf("unexpected joined binding %v", x)
	}
	if _, ok := j.Apply("y"); !ok {
		t.Errorf("join dropped y")
	}
	if !j.Equal(e2.Join(e1)) {
		t.Errorf("join is not commutative")
	}

	w := e1.WeakUpdate(x2)
	if wx, _ := w.Apply("x"); !wx.Equal(x) {
		t.Errorf("WeakUpdate = %v, want %v", wx, x)
	}
}

func TestFreshEnvironment(t *testing.T) {
	base := NewEnvironment().StrongUpdate(Variable{Name: "g", Definer: 1})
	f := base.Fresh()
	f.Bind(Variable{Name: "f", Definer: 2})
	if _, ok := f.Lookup("g"); !ok {
		t.Errorf("fresh scope does not see the enclosing scope")
	}
	env := f.Freeze()
	if env.Size() != 2 {
		t.Errorf("frozen environment has %d bindings", env.Size())
	}
	if base.Size() != 1 {
		t.Errorf("binding leaked into the enclosing environment")
	}

	defer func() {
		if recover() == nil {
			t.Errorf("binding after Freeze should panic")
		}
	}()
	f.Bind(Variable{Name: "h"})
}
