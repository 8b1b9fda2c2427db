package diff

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cs-au-dk/semdiff/analysis/absint"
	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/verify"
	"github.com/cs-au-dk/semdiff/testutil"
)

func driver(t *testing.T, src, dst string, v verify.Verifier) *Driver {
	t.Helper()
	lr := testutil.LoadPairFromSource(t, src, dst)
	s, d := cfg.Build(lr.Src), cfg.Build(lr.Dst)
	cfg.Map(s, d)

	drv := New(s, d, Options{
		Verifier: v,
		Renames:  verify.NewRenames(lr.Src, lr.Dst),
	})
	require.NoError(t, drv.Run(context.Background()))
	return drv
}

func constant(valid bool, calls *int) verify.Verifier {
	return verify.VerifierFunc(func(context.Context, verify.Problem) (bool, error) {
		*calls++
		return valid, nil
	})
}

func find(t *testing.T, a *absint.Analysis, text string) *cfg.Node {
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

// changed reports whether a global variable is changed when the script
// exits.
func changed(t *testing.T, a *absint.Analysis, name string) bool {
	t.Helper()
	exit, ok := a.Exit(a.CFGs().Script())
	require.True(t, ok, "script exit was not reached")
	_, v, ok := exit.Lookup(name)
	require.True(t, ok, "%s is not bound", name)
	return v.Change.IsChanged()
}

const (
	plusZero = "function f(a) {\n  return a + 0;\n}\nvar r = f(1);\n"
	plusOne  = "function f(a) {\n  return a + 1;\n}\nvar r = f(1);\n"
)

func TestUnchangedProgram(t *testing.T) {
	calls := 0
	d := driver(t, plusZero, plusZero, constant(true, &calls))

	if st := d.Stats(); st.Candidates != 0 || st.SolverCalls != 0 {
		t.Errorf("unexpected verification in an unchanged program: %+v", st)
	}
	if calls != 0 {
		t.Errorf("verifier was called %d times", calls)
	}
	if changed(t, d.Dst(), "r") {
		t.Error("r is changed in an unchanged program")
	}
}

func TestRefutedChange(t *testing.T) {
	calls := 0
	d := driver(t, plusZero, plusOne, constant(false, &calls))

	ret := find(t, d.Dst(), "return a + 1;")
	if o := d.Outcome(ret); o != verify.Refuted {
		t.Errorf("expected %v, got %v", verify.Refuted, o)
	}
	if st := d.Stats(); st.Refuted != 1 || st.Verified != 0 {
		t.Errorf("unexpected statistics: %+v", st)
	}
	if calls != 1 {
		t.Errorf("expected a single solver call, got %d", calls)
	}

	post, ok := d.Dst().Post(ret)
	require.True(t, ok)
	v, _ := post.Scratch.Return()
	if !v.Change.IsChanged() {
		t.Errorf("refuted return value is %v", v.Change)
	}
	if !changed(t, d.Dst(), "r") {
		t.Error("r is unchanged after a refuted change")
	}
}

func TestRetractedChange(t *testing.T) {
	calls := 0
	d := driver(t,
		"function f(a) {\n  return a + a;\n}\nvar r = f(1);\n",
		"function f(a) {\n  return a * 2;\n}\nvar r = f(1);\n",
		constant(true, &calls))

	ret := find(t, d.Dst(), "return a * 2;")
	if o := d.Outcome(ret); o != verify.Verified {
		t.Errorf("expected %v, got %v", verify.Verified, o)
	}

	post, ok := d.Dst().Post(ret)
	require.True(t, ok)
	v, _ := post.Scratch.Return()
	if v.Change.IsChanged() {
		t.Errorf("verified return value is %v", v.Change)
	}
	if changed(t, d.Dst(), "r") {
		t.Error("r is changed after its change impact was retracted")
	}
	if st := d.Stats(); st.Verified != 1 || st.SolverCalls != calls {
		t.Errorf("unexpected statistics: %+v with %d calls", st, calls)
	}
}

func TestNoVerifier(t *testing.T) {
	d := driver(t, plusZero, plusOne, nil)

	if st := d.Stats(); st != (verify.Stats{}) {
		t.Errorf("statistics without a verifier: %+v", st)
	}
	if !changed(t, d.Dst(), "r") {
		t.Error("r is unchanged")
	}
}

func TestVerifierFailure(t *testing.T) {
	d := driver(t, plusZero, plusOne, verify.VerifierFunc(
		func(context.Context, verify.Problem) (bool, error) {
			return false, errors.New("solver crashed")
		}))

	ret := find(t, d.Dst(), "return a + 1;")
	if o := d.Outcome(ret); o != verify.Failed {
		t.Errorf("expected %v, got %v", verify.Failed, o)
	}
	if !changed(t, d.Dst(), "r") {
		t.Error("r is unchanged after a failed verification")
	}
}

func TestCancelled(t *testing.T) {
	lr := testutil.LoadPairFromSource(t, plusZero, plusOne)
	s, d := cfg.Build(lr.Src), cfg.Build(lr.Dst)
	cfg.Map(s, d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(s, d, Options{}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}
