package cfg

import (
	"testing"

	"github.com/cs-au-dk/semdiff/testutil"
)

func TestMap(t *testing.T) {
	res := testutil.LoadPairFromSource(t,
		"a(); if (x) b(); function f() { return 1; }",
		"a(); if (x) c(); function f() { return 2; }")
	src, dst := Build(res.Src), Build(res.Dst)
	Map(src, dst)

	if src.Script().Mapped != dst.Script() || dst.Script().Mapped != src.Script() {
		t.Errorf("scripts are not mapped")
	}
	if f := src.All()[1]; f.Mapped != dst.All()[1] {
		t.Errorf("function graphs are not mapped")
	}

	a := find(t, src.Script(), "a();")
	if a.Mapped == nil || a.Mapped.String() != "a();" || a.Mapped.Mapped != a {
		t.Errorf("a() mapped to %v", a.Mapped)
	}

	br := find(t, src.Script(), "If (x)")
	if br.Mapped == nil {
		t.Fatalf("branch is not mapped")
	}
	for _, e := range br.Out {
		if e.Mapped == nil {
			t.Errorf("edge %v is not mapped", e)
			continue
		}
		if e.Mapped.Condition.Synthetic != e.Condition.Synthetic {
			t.Errorf("edge %v mapped to opposite branch %v", e, e.Mapped)
		}
	}

	// The updated call is mapped, its callee was replaced.
	b := find(t, src.Script(), "b();")
	if b.Mapped == nil || b.Mapped.String() != "c();" {
		t.Errorf("b() mapped to %v", b.Mapped)
	}
}
