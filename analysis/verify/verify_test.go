package verify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cs-au-dk/semdiff/analysis/absint"
	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
	"github.com/cs-au-dk/semdiff/testutil"
)

type pair struct {
	lr       testutil.LoadResult
	src, dst *absint.Analysis
}

func analyze(t *testing.T, src, dst string) pair {
	t.Helper()
	lr := testutil.LoadPairFromSource(t, src, dst)
	s, d := cfg.Build(lr.Src), cfg.Build(lr.Dst)
	cfg.Map(s, d)

	p := pair{lr, absint.New(s, absint.Config{}), absint.New(d, absint.Config{})}
	p.src.Run()
	p.dst.Run()
	return p
}

// stmtNode finds the node whose statement prints as text.
func stmtNode(t *testing.T, a *absint.Analysis, text string) *cfg.Node {
	t.Helper()
	for _, c := range a.CFGs().All() {
		for _, n := range c.Nodes {
			if n.Stmt != nil && ast.Print(n.Stmt) == text {
				return n
			}
		}
	}
	t.Fatalf("no statement %q", text)
	return nil
}

func post(t *testing.T, a *absint.Analysis, n *cfg.Node) absint.State {
	t.Helper()
	s, ok := a.Post(n)
	if !ok {
		t.Fatalf("%v was not reached", n)
	}
	return s
}

func TestDefine(t *testing.T) {
	const src = `var y = 1;
var w = 2;
var o = {};
function f(a) {
  return a;
}
var x = y + 1;
x += 2;
f(x);
o.p = 1;
var z = w * 2;
x = f(y) - w;
`
	p := analyze(t, src, src)

	for _, tc := range []struct {
		stmt string
		kind DefKind
		name string
		expr string
		deps []string
	}{
		{"var x = y + 1;", AssignDef, "x", "y + 1", []string{"y"}},
		{"x += 2;", AssignDef, "x", "x + 2", []string{"x"}},
		{"f(x);", NoDef, "", "", nil},
		{"o.p = 1;", NoDef, "", "", nil},
		{"var z = w * 2;", AssignDef, "z", "w * 2", []string{"w"}},
		{"x = f(y) - w;", AssignDef, "x", "f(y) - w", []string{"w", "y"}},
		{"return a;", ReturnDef, Retval, "a", []string{"a"}},
	} {
		n := stmtNode(t, p.dst, tc.stmt)
		def := Define(post(t, p.dst, n), n.Stmt)

		if def.Kind != tc.kind {
			t.Errorf("%s: expected %s, got %s", tc.stmt, tc.kind, def.Kind)
			continue
		}
		if !def.HasDef() {
			continue
		}
		if def.Name != tc.name || ast.Print(def.Expr) != tc.expr {
			t.Errorf("%s: expected %s = %s, got %s = %s", tc.stmt, tc.name, tc.expr, def.Name, ast.Print(def.Expr))
		}

		var deps []string
		for name, c := range def.Deps {
			deps = append(deps, name)
			if c.IsChanged() {
				t.Errorf("%s: %s is %v in an unchanged program", tc.stmt, name, c)
			}
		}
		sort.Strings(deps)
		if diff := cmp.Diff(tc.deps, deps); diff != "" {
			t.Errorf("%s: dependencies (-want +got):\n%s", tc.stmt, diff)
		}
		if def.Addrs.IsBot() {
			t.Errorf("%s: definition has no address", tc.stmt)
		}
	}
}

func TestBackwardDepth(t *testing.T) {
	const src = `function f(a) {
  var b = a + 1;
  var c = b * 2;
  var d = c - 3;
  return d;
}
f(1);
`
	p := analyze(t, src, src)
	ret := stmtNode(t, p.dst, "return d;")
	s := post(t, p.dst, ret)

	for _, tc := range []struct {
		depth   int
		program string
		free    []string
	}{
		{1, "retval = d;\n", []string{"d"}},
		{2, "d = c - 3;\nretval = d;\n", []string{"c"}},
		{3, "c = b * 2;\nd = c - 3;\nretval = d;\n", []string{"b"}},
		{10, "b = a + 1;\nc = b * 2;\nd = c - 3;\nretval = d;\n", []string{"a"}},
	} {
		sl := Backward(ret, s, p.dst.Post, tc.depth)
		if len(sl.Steps) > tc.depth {
			t.Errorf("depth %d: %d statements in slice", tc.depth, len(sl.Steps))
		}
		if got := sl.Program(); got != tc.program {
			t.Errorf("depth %d: expected\n%s\ngot\n%s", tc.depth, tc.program, got)
		}

		var free []string
		for name := range sl.Free {
			free = append(free, name)
		}
		if diff := cmp.Diff(tc.free, free); diff != "" {
			t.Errorf("depth %d: free variables (-want +got):\n%s", tc.depth, diff)
		}
		if sl.Query != Retval || sl.Kind != ReturnDef {
			t.Errorf("depth %d: unexpected query %s of kind %s", tc.depth, sl.Query, sl.Kind)
		}
	}
}

func TestRenames(t *testing.T) {
	lr := testutil.LoadPairFromSource(t,
		"function f(a) { return a; }",
		"function f(b) { return b; }")
	r := NewRenames(lr.Src, lr.Dst)

	for _, tc := range []struct {
		got, want string
	}{
		{r.Old("b"), "a"},
		{r.New("a"), "b"},
		{r.Old("f"), "f"},
		{r.New("x"), "x"},
	} {
		if tc.got != tc.want {
			t.Errorf("expected %s, got %s", tc.want, tc.got)
		}
	}
}

func problem(t *testing.T, p pair, stmt string, depth int) Problem {
	t.Helper()
	dst := stmtNode(t, p.dst, stmt)
	if dst.Mapped == nil {
		t.Fatalf("%v has no counterpart", dst)
	}
	src := dst.Mapped

	prob, err := NewProblem(
		Backward(src, post(t, p.src, src), p.src.Post, depth),
		Backward(dst, post(t, p.dst, dst), p.dst.Post, depth),
		NewRenames(p.lr.Src, p.lr.Dst))
	if err != nil {
		t.Fatal(err)
	}
	return prob
}

func TestProblemConstraints(t *testing.T) {
	p := analyze(t,
		"function f(a) {\n  return a + 0;\n}\nf(1);\n",
		"function f(a) {\n  return a + 1;\n}\nf(1);\n")
	prob := problem(t, p, "return a + 1;", DefaultMaxDepth)

	want := []Constraint{{Old: "a", New: "a", Op: EQ}}
	if diff := cmp.Diff(want, prob.Constraints); diff != "" {
		t.Errorf("constraints (-want +got):\n%s", diff)
	}
	if prob.New.Program() != "retval = a + 1;\n" || prob.Old.Program() != "retval = a + 0;\n" {
		t.Errorf("unexpected slices:\n%s", prob)
	}
}

func TestProblemChangedInput(t *testing.T) {
	p := analyze(t,
		"function f(a) {\n  return a;\n}\nf(1);\n",
		"function f(a) {\n  return a;\n}\nf(2);\n")
	prob := problem(t, p, "return a;", DefaultMaxDepth)

	want := []Constraint{{Old: "a", New: "a", Op: NEQ}}
	if diff := cmp.Diff(want, prob.Constraints); diff != "" {
		t.Errorf("constraints (-want +got):\n%s", diff)
	}
}

func TestCVC4(t *testing.T) {
	for _, tc := range []struct {
		name     string
		src, dst string
		stmt     string
	}{
		{"plus",
			"function f(a) {\n  return a + 0;\n}\nf(1);\n",
			"function f(a) {\n  return a + 1;\n}\nf(1);\n",
			"return a + 1;"},
		{"rename",
			"function f(a) {\n  return a;\n}\nf(1);\n",
			"function f(b) {\n  return b;\n}\nf(1);\n",
			"return b;"},
		{"ssa",
			"function f(x) {\n  var y = x * 2;\n  y = y + 1;\n  return y;\n}\nf(3);\n",
			"function f(x) {\n  var y = x + x;\n  y = y + 1;\n  return y;\n}\nf(3);\n",
			"return y;"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := analyze(t, tc.src, tc.dst)
			script, err := CVC4(problem(t, p, tc.stmt, DefaultMaxDepth))
			if err != nil {
				t.Fatal(err)
			}
			goldie.New(t).Assert(t, "cvc4-"+tc.name, []byte(script))
		})
	}
}

func TestCVC4Untranslatable(t *testing.T) {
	p := analyze(t,
		"function f(a) {\n  return a / 2;\n}\nf(1);\n",
		"function f(a) {\n  return a / 3;\n}\nf(1);\n")
	_, err := CVC4(problem(t, p, "return a / 3;", 1))
	if !errors.Is(err, errUntranslatable) {
		t.Errorf("expected an untranslatable problem, got %v", err)
	}
}

func fakeSolver(t *testing.T, output string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cvc4")
	script := "#!/bin/sh\necho " + output + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestSolver(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	for _, tc := range []struct {
		output string
		valid  bool
	}{
		{"valid", true},
		{"VALID", true},
		{"invalid", false},
		{"unknown", false},
	} {
		s := NewSolver(fakeSolver(t, tc.output), []string{"--incremental"}, t.TempDir(), 0, nil)
		valid, err := s.Run(ctx, "QUERY (x_o0 = x_n0);\n")
		require.NoError(t, err)
		if valid != tc.valid {
			t.Errorf("%s: expected %v, got %v", tc.output, tc.valid, valid)
		}
	}
}

func TestSolverMissing(t *testing.T) {
	defer goleak.VerifyNone(t)

	for _, path := range []string{"", filepath.Join(t.TempDir(), "no-such-solver")} {
		_, err := NewSolver(path, nil, "", 0, nil).Run(context.Background(), "")
		if !errors.Is(err, ErrNoSolver) {
			t.Errorf("%q: expected ErrNoSolver, got %v", path, err)
		}
	}
}

func simpleProblem() Problem {
	x := &ast.Node{Kind: ast.KName, Name: "x"}
	s := Slice{
		Kind:  ReturnDef,
		Query: Retval,
		Steps: []Step{{Target: Retval, Expr: x}},
		Vars:  []string{"retval", "x"},
		Free:  map[string]lattice.Change{"x": lattice.Unchanged},
	}
	return Problem{
		Kind:        ReturnDef,
		Old:         s,
		New:         s,
		Vars:        s.Vars,
		Constraints: []Constraint{{Old: "x", New: "x", Op: EQ}},
	}
}

func TestCachedVerifier(t *testing.T) {
	db, err := OpenCache("")
	require.NoError(t, err)
	defer db.Close()

	calls := 0
	inner := VerifierFunc(func(context.Context, Problem) (bool, error) {
		calls++
		return true, nil
	})
	c := NewCachedVerifier(inner, db, nil)

	for i := 0; i < 3; i++ {
		valid, err := c.Verify(context.Background(), simpleProblem())
		require.NoError(t, err)
		require.True(t, valid)
	}
	require.Equal(t, 1, calls)
	require.Equal(t, 2, c.Hits)
	require.Equal(t, 1, c.Misses)
}

func TestCachedVerifierErrors(t *testing.T) {
	db, err := OpenCache("")
	require.NoError(t, err)
	defer db.Close()

	calls := 0
	inner := VerifierFunc(func(context.Context, Problem) (bool, error) {
		calls++
		return false, ErrNoSolver
	})
	c := NewCachedVerifier(inner, db, nil)

	for i := 0; i < 2; i++ {
		_, err := c.Verify(context.Background(), simpleProblem())
		require.ErrorIs(t, err, ErrNoSolver)
	}
	require.Equal(t, 2, calls, "failures must not be cached")
}

func TestTaskOutcomes(t *testing.T) {
	p := analyze(t,
		"function f(a) {\n  return a;\n}\nf(1);\n",
		"function f(b) {\n  return b;\n}\nf(1);\n")
	dst := stmtNode(t, p.dst, "return b;")
	s := post(t, p.dst, dst)

	if ret, _ := s.Scratch.Return(); !ret.Change.IsChanged() {
		t.Fatalf("renamed return value should be changed before verification: %v", ret)
	}

	for _, tc := range []struct {
		name    string
		verdict bool
		err     error
		want    Outcome
		changed bool
	}{
		{"verified", true, nil, Verified, false},
		{"refuted", false, nil, Refuted, true},
		{"no solver", false, ErrNoSolver, Failed, true},
		{"crash", false, errors.New("segmentation fault"), Failed, true},
	} {
		task := NewTask(VerifierFunc(func(context.Context, Problem) (bool, error) {
			return tc.verdict, tc.err
		}), DefaultMaxDepth, NewRenames(p.lr.Src, p.lr.Dst), nil)

		res, outcome := task.Check(context.Background(), dst.Mapped, p.src.Post, dst, s, p.dst.Post)
		if outcome != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, outcome)
		}
		ret, _ := res.Scratch.Return()
		if ret.Change.IsChanged() != tc.changed {
			t.Errorf("%s: return value is %v", tc.name, ret)
		}
		if tc.changed {
			continue
		}

		def := Define(res, dst.Stmt)
		if def.Change() != lattice.Unchanged {
			t.Errorf("%s: stored return value is %v", tc.name, def.Value)
		}
	}
}

func TestTaskNotNeeded(t *testing.T) {
	const src = "function f(a) {\n  return a;\n}\nf(1);\n"
	p := analyze(t, src, src)
	dst := stmtNode(t, p.dst, "return a;")

	called := false
	task := NewTask(VerifierFunc(func(context.Context, Problem) (bool, error) {
		called = true
		return true, nil
	}), 0, nil, nil)

	_, outcome := task.Check(context.Background(), dst.Mapped, p.src.Post, dst, post(t, p.dst, dst), p.dst.Post)
	if outcome != NotNeeded || called {
		t.Errorf("unchanged definitions need no verification, got %s", outcome)
	}
	if task.Stats.Candidates != 0 {
		t.Errorf("expected no candidates, got %d", task.Stats.Candidates)
	}
}
