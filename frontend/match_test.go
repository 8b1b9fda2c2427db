package frontend

import (
	"testing"

	"github.com/cs-au-dk/semdiff/analysis/ast"
)

func matched(t *testing.T, src, dst string) (*ast.Program, *ast.Program) {
	t.Helper()
	p := NewParser(nil)
	a, b := parse(t, p, src), parse(t, p, dst)
	Match(a, b)
	return a, b
}

// stmt finds the top-level statement printed as s.
func stmt(t *testing.T, prog *ast.Program, s string) *ast.Node {
	t.Helper()
	for _, c := range prog.Root.Children {
		if ast.Print(c) == s {
			return c
		}
	}
	t.Fatalf("no statement %q in %s", s, ast.Print(prog.Root))
	return nil
}

func TestMatchUpdate(t *testing.T) {
	a, b := matched(t, "var x = 1;", "var x = 2;")

	va, vb := stmt(t, a, "var x = 1;"), stmt(t, b, "var x = 2;")
	if va.Mapped != vb || vb.Mapped != va {
		t.Errorf("declarations are not mapped to each other")
	}
	if va.Change != ast.Unchanged {
		t.Errorf("declaration classified %v", va.Change)
	}
	num := vb.Child(0).Child(1)
	if num.Change != ast.Updated || num.Mapped == nil || num.Mapped.Value != "1" {
		t.Errorf("literal classified %v, mapped to %v", num.Change, num.Mapped)
	}
}

func TestMatchInsertRemove(t *testing.T) {
	a, b := matched(t, "a(); b(); d();", "a(); c(); b();")

	if c := stmt(t, b, "c();"); c.Change != ast.Inserted || c.Mapped != nil {
		t.Errorf("c() classified %v", c.Change)
	}
	if d := stmt(t, a, "d();"); d.Change != ast.Removed {
		t.Errorf("d() classified %v", d.Change)
	}
	// Descendants of inserted statements are inserted too.
	if callee := stmt(t, b, "c();").Child(0).Callee(); callee.Change != ast.Inserted {
		t.Errorf("callee of c() classified %v", callee.Change)
	}
	for _, s := range []string{"a();", "b();"} {
		if n := stmt(t, b, s); n.Change != ast.Unchanged || n.Mapped == nil {
			t.Errorf("%s classified %v", s, n.Change)
		}
	}
}

func TestMatchMove(t *testing.T) {
	a, b := matched(t, "a(); b();", "b(); a();")

	moved := 0
	for _, n := range b.Root.Children {
		if n.Mapped == nil {
			t.Errorf("%s is unmapped", ast.Print(n))
		}
		if n.Change == ast.Moved {
			moved++
			if n.Mapped.Change != ast.Moved {
				t.Errorf("move is not symmetric")
			}
		}
	}
	if moved != 1 {
		t.Errorf("expected one moved statement, got %d", moved)
	}
	_ = a
}

func TestMatchNestedUpdate(t *testing.T) {
	_, b := matched(t,
		"function f(x) { if (x > 0) return x; return 0; }",
		"function f(x) { if (x >= 0) return x; return 0; }")

	fn := b.Functions()[0]
	if fn.Change != ast.Unchanged || fn.Mapped == nil {
		t.Errorf("function classified %v", fn.Change)
	}
	test := fn.Body().Child(0).Child(0)
	if test.Change != ast.Updated {
		t.Errorf("condition classified %v", test.Change)
	}
	if ret := fn.Body().Child(1); ret.Change != ast.Unchanged {
		t.Errorf("final return classified %v", ret.Change)
	}
}
