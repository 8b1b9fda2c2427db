package cfg

import (
	"slices"
	"testing"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/testutil"
)

func build(t *testing.T, src string) *Set {
	t.Helper()
	return Build(testutil.LoadPairFromSource(t, src, src).Dst)
}

func find(t *testing.T, c *CFG, s string) *Node {
	t.Helper()
	for _, n := range c.Nodes {
		if n.String() == s {
			return n
		}
	}
	t.Fatalf("no node %q in\n%s", s, c.Dump())
	return nil
}

func succs(n *Node) (res []string) {
	for _, e := range n.Out {
		res = append(res, e.To.String())
	}
	return
}

func TestStraightLine(t *testing.T) {
	c := build(t, "a(); b();").Script()
	if len(c.Nodes) != 4 || len(c.Edges) != 3 {
		t.Errorf("expected 4 nodes and 3 edges:\n%s", c.Dump())
	}
	a := find(t, c, "a();")
	if s := succs(a); len(s) != 1 || s[0] != "b();" {
		t.Errorf("a() flows to %v", s)
	}
	if c.Entry.Out[0].To != a {
		t.Errorf("entry does not flow to a()")
	}
}

func TestIfElse(t *testing.T) {
	c := build(t, "if (x) f(); else g(); h();").Script()
	br := find(t, c, "If (x)")
	if br.Kind != BranchNode || len(br.Out) != 2 {
		t.Fatalf("unexpected branch node:\n%s", c.Dump())
	}

	var pos, neg *Edge
	for _, e := range br.Out {
		if e.Condition.Synthetic {
			neg = e
		} else {
			pos = e
		}
	}
	if pos == nil || neg == nil {
		t.Fatalf("branch edges lack conditions")
	}
	if pos.To.String() != "f();" || neg.To.String() != "g();" {
		t.Errorf("true edge to %v, false edge to %v", pos.To, neg.To)
	}
	if neg.Condition.Underlying() != pos.Condition {
		t.Errorf("false condition is not the negated test")
	}
	if h := find(t, c, "h();"); h.IncomingEdgeCount() != 2 {
		t.Errorf("h() has %d predecessors", h.IncomingEdgeCount())
	}
}

func TestLoops(t *testing.T) {
	for _, tc := range []struct {
		src, head, body string
	}{
		{"while (i) i--; done();", "While (i)", "i--;"},
		{"for (var i = 0; i < 3; i++) f(i); done();", "For (i < 3)", "f(i);"},
		{"do { i--; } while (i); done();", "[ DoWhile head ]", "i--;"},
	} {
		c := build(t, tc.src).Script()
		head := find(t, c, tc.head)

		loops := 0
		for _, e := range c.Edges {
			if e.Loop {
				loops++
				if e.From != head || e.To.String() != tc.body {
					t.Errorf("%s: loop edge %v", tc.src, e)
				}
			}
		}
		if loops != 1 {
			t.Errorf("%s: expected one loop edge, got %d", tc.src, loops)
		}
		if head.IncomingEdgeCount() != 2 {
			t.Errorf("%s: loop head has %d predecessors", tc.src, head.IncomingEdgeCount())
		}
		done := find(t, c, "done();")

		cycles := c.Loops()
		if len(cycles) != 1 || cycles[0].Head != head {
			t.Fatalf("%s: unexpected cycles:\n%s", tc.src, c.Dump())
		}
		body := find(t, c, tc.body)
		if !slices.Contains(cycles[0].Body, body) || slices.Contains(cycles[0].Body, done) {
			t.Errorf("%s: unexpected loop body:\n%s", tc.src, c.Dump())
		}
		if !c.Reachable(body, head) || c.Reachable(done, head) {
			t.Errorf("%s: back edge does not close the loop", tc.src)
		}
	}
}

func TestBreakContinue(t *testing.T) {
	c := build(t, "while (a) { if (b) break; if (c) continue; f(); } g();").Script()
	head := find(t, c, "While (a)")
	g := find(t, c, "g();")

	// Break and continue do not occupy nodes. The loop exits through the
	// false edge and the break.
	if g.IncomingEdgeCount() != 2 {
		t.Errorf("g() has %d predecessors:\n%s", g.IncomingEdgeCount(), c.Dump())
	}
	// The body end and the continue return to the head.
	if head.IncomingEdgeCount() != 3 {
		t.Errorf("loop head has %d predecessors:\n%s", head.IncomingEdgeCount(), c.Dump())
	}
}

func TestDeadCode(t *testing.T) {
	s := build(t, "function f() { return 1; x(); }")
	fn := s.All()[1]
	for _, n := range fn.Nodes {
		if n.Kind == StatementNode && n.String() == "x();" {
			t.Errorf("dead statement materialized")
		}
		if !fn.Reachable(fn.Entry, n) {
			t.Errorf("%v is unreachable", n)
		}
	}
	ret := find(t, fn, "return 1;")
	if s := succs(ret); len(s) != 1 || ret.Out[0].To != fn.Exit {
		t.Errorf("return flows to %v", s)
	}
}

func TestFunctionsGetGraphs(t *testing.T) {
	s := build(t, "function f(a) { return a; } var g = function () {};")
	if len(s.All()) != 3 {
		t.Fatalf("expected 3 graphs, got %d", len(s.All()))
	}
	if !s.Script().IsScript() || s.Script().Name() != "<script>" {
		t.Errorf("first graph is not the script")
	}
	for _, fn := range s.Program.Functions() {
		c, ok := s.Of(fn)
		if !ok || c.Function != fn {
			t.Errorf("no graph for %v", fn)
		}
	}
	// Function declarations are hoisted and do not occupy a node.
	for _, n := range s.Script().Nodes {
		if n.Stmt != nil && n.Stmt.Kind == ast.KFunction && n.Kind == StatementNode {
			t.Errorf("declaration occupies node %v", n)
		}
	}
}
