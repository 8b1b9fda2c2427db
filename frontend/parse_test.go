package frontend

import (
	"context"
	"testing"

	"github.com/cs-au-dk/semdiff/analysis/ast"
)

func parse(t *testing.T, p *Parser, src string) *ast.Program {
	t.Helper()
	prog, err := p.Parse(context.Background(), "test.js", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return prog
}

func TestParseStatements(t *testing.T) {
	for _, tc := range []struct {
		src, want string
	}{
		{"var x = 1;", "var x = 1;"},
		{"let a, b = 2;", "let a, b = 2;"},
		{"function f(a) { return a + x; }", "function f(a) {...}"},
		{"if (x) { f(x); } else x = 2;", "if (x) { f(x); } else x = 2;"},
		{"while (i < 3) i++;", "while (i < 3) i++;"},
		{"do { --i; } while (i);", "do { --i; } while (i);"},
		{"for (var i = 0; i < n; i++) s += i;", "for (var i = 0; i < n; i++) s += i;"},
		{"for (;;) break;", "for (; ; ) break;"},
		{"var g = (y) => y * 2;", "var g = function(y) {...};"},
		{"o.p = {a: 1, 'b': [1, 2]};", `o.p = {a: 1, "b": [1, 2]};`},
		{"o[k] = new F(1, typeof z);", "o[k] = new F(1, typeof z);"},
		{"x = c ? this : null;", "x = c ? this : null;"},
		{"throw e;", "throw e;"},
		{"a = (1, 2);", "a = (1, 2);"},
		{"class C {}", "class C {}"},
	} {
		p := NewParser(nil)
		prog := parse(t, p, tc.src)
		if len(prog.Root.Children) != 1 {
			t.Errorf("%q: expected one statement, got %d", tc.src, len(prog.Root.Children))
			continue
		}
		if got := ast.Print(prog.Root.Children[0]); got != tc.want {
			t.Errorf("%q: printed as %q, want %q", tc.src, got, tc.want)
		}
	}
}

func TestParseFunctions(t *testing.T) {
	p := NewParser(nil)
	prog := parse(t, p, `
function outer(a, b) {
	var inner = function () { return a; };
	return inner;
}
var arrow = x => x;`)

	fns := prog.Functions()
	if len(fns) != 3 {
		t.Fatalf("expected 3 functions, got %d", len(fns))
	}
	if fns[0].Name != "outer" || !fns[0].Decl || len(fns[0].Params) != 2 {
		t.Errorf("unexpected declaration %v", fns[0])
	}
	if fns[1].Decl {
		t.Errorf("function expression marked as declaration")
	}
	// Expression bodies are wrapped in a return.
	if ret := fns[2].Body().Child(0); ret == nil || ret.Kind != ast.KReturn {
		t.Errorf("arrow body lowered to %v", ret)
	}
	if fns[0].Span.Line != 2 {
		t.Errorf("outer starts on line %d", fns[0].Span.Line)
	}
}

func TestParseSharedIDs(t *testing.T) {
	p := NewParser(nil)
	a := parse(t, p, "x = 1;")
	b := parse(t, p, "x = 1;")

	seen := make(map[int]bool)
	for _, prog := range []*ast.Program{a, b} {
		for _, n := range prog.Nodes() {
			if seen[n.ID] {
				t.Errorf("id %d used twice", n.ID)
			}
			seen[n.ID] = true
		}
	}
}

func TestParseSpans(t *testing.T) {
	src := "var x = 1;\nx = 2;"
	prog := parse(t, NewParser(nil), src)
	assign := prog.Root.Child(1).Child(0)
	if got := src[assign.Span.Offset : assign.Span.Offset+assign.Span.Length]; got != "x = 2" {
		t.Errorf("span covers %q", got)
	}
	if assign.Span.Line != 2 {
		t.Errorf("assignment on line %d", assign.Span.Line)
	}
}
