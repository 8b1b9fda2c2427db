package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cs-au-dk/semdiff/facts"
)

const (
	srcText = "var a = 1;\nvar b = a + 1;\nvar c = 5;\n"
	dstText = "var a = 2;\nvar b = a + 1;\nvar c = 5;\n"
	patch   = `--- a/f.js
+++ b/f.js
@@ -1,3 +1,3 @@
-var a = 1;
+var a = 2;
 var b = a + 1;
 var c = 5;
`
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
	}
	return dir
}

// execute runs the command line and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--no-colorize"))
	err := root.ExecuteContext(context.Background())
	t.Log(stderr.String())
	return stdout.String(), err
}

func labels(fb *facts.FactBase) map[string]bool {
	res := map[string]bool{}
	for _, fc := range fb.Changes() {
		for _, a := range fb.Annotations(fc.ID) {
			res[a.Label] = true
		}
	}
	return res
}

func TestAnalyze(t *testing.T) {
	dir := writeFiles(t, map[string]string{"f.js": srcText, "g.js": dstText, "f.patch": patch})
	src := filepath.Join(dir, "f.js")

	for _, tc := range []struct {
		name string
		args []string
	}{
		{"files", []string{"--dst", filepath.Join(dir, "g.js")}},
		{"patch", []string{"--patch", filepath.Join(dir, "f.patch")}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"analyze", "--src", src, "--json"}, tc.args...)...)
			require.NoError(t, err)

			fb, err := facts.ReadJSON(strings.NewReader(out))
			require.NoError(t, err)
			require.Equal(t, 1, fb.Len())
			require.Equal(t, src, fb.Changes()[0].Src)

			got := labels(fb)
			require.True(t, got["VALUE_CHANGE_CRIT"], "labels: %v", got)
			require.True(t, got["VALUE_CHANGE_DEP"], "labels: %v", got)
		})
	}
}

func TestAnalyzeText(t *testing.T) {
	dir := writeFiles(t, map[string]string{"f.js": srcText, "g.js": dstText})
	out, err := execute(t, "analyze", "--src", filepath.Join(dir, "f.js"), "--dst", filepath.Join(dir, "g.js"))
	require.NoError(t, err)
	require.Contains(t, out, "-> "+filepath.Join(dir, "g.js"))
	require.Contains(t, out, "1:8+1 VALUE_CHANGE_CRIT")
}

func TestAnalyzeErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"f.js":      srcText,
		"bad.patch": "--- a/f.js\n+++ b/f.js\n@@ -1,1 +1,1 @@\n-var q = 1;\n+var q = 2;\n",
	})
	src := filepath.Join(dir, "f.js")

	for _, args := range [][]string{
		{"analyze", "--src", src},
		{"analyze", "--src", filepath.Join(dir, "missing.js"), "--dst", src},
		{"analyze", "--src", src, "--patch", filepath.Join(dir, "bad.patch")},
		{"analyze", "--src", src, "--dst", src, "--patch", filepath.Join(dir, "bad.patch")},
		{"batch", "--dir", dir},
	} {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestBatch(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.old.js": srcText,
		"a.new.js": dstText,
		"b.old.js": "function f() {\n  return 1;\n}\nvar x = f();\n",
		"b.new.js": "function f() {\n  return 1;\n}\nvar x = f();\n",
		"c.old.js": srcText,
		"d.new.js": dstText,
	})

	out, err := execute(t, "batch", "--dir", dir, "--workers", "2", "--json", "--metrics")
	require.NoError(t, err)

	fb, err := facts.ReadJSON(strings.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 2, fb.Len())

	for _, fc := range fb.Changes() {
		anns := fb.Annotations(fc.ID)
		switch filepath.Base(fc.Src) {
		case "a.old.js":
			require.NotEmpty(t, anns)
		case "b.old.js":
			for _, a := range anns {
				require.NotContains(t, a.Label, "CHANGE", "unchanged program has %v", a)
			}
		default:
			t.Errorf("unexpected change %v", fc)
		}
	}
}

func TestPairsIn(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"x.old.js": "", "x.new.js": "",
		"y.old.js": "",
		"z.new.js": "",
		"w.old.js": "", "w.new.js": "",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "v.old.js"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v.new.js"), nil, 0o644))

	pairs, err := pairsIn(dir)
	require.NoError(t, err)
	require.Equal(t, [][2]string{
		{filepath.Join(dir, "w.old.js"), filepath.Join(dir, "w.new.js")},
		{filepath.Join(dir, "x.old.js"), filepath.Join(dir, "x.new.js")},
	}, pairs)

	_, err = pairsIn(t.TempDir())
	if !errors.Is(err, errNoPairs) {
		t.Errorf("expected no pairs, got %v", err)
	}
}

func TestSecondaryTasks(t *testing.T) {
	dir := writeFiles(t, map[string]string{"f.js": srcText, "g.js": dstText})
	src, dst := filepath.Join(dir, "f.js"), filepath.Join(dir, "g.js")

	out, err := execute(t, "parse", "--src", src, "--dst", dst)
	require.NoError(t, err)
	require.Contains(t, out, "Program")
	require.Equal(t, 2, strings.Count(out, "Program"))

	out, err = execute(t, "match", "--src", src, "--dst", dst)
	require.NoError(t, err)
	require.Contains(t, out, "UPDATED 2")
	require.NotContains(t, out, "var c = 5;")
}

func TestLoadConfig(t *testing.T) {
	dir := writeFiles(t, map[string]string{"c.yaml": "analysis:\n  statement_budget: 5\n  max_addresses: 4\n"})

	cmd, _, err := newRootCmd().Find([]string{"analyze"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(dir, "c.yaml"), "--max-depth", "7"}))

	conf, err := loadConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, 5, conf.Analysis.StatementBudget)
	require.Equal(t, 7, conf.Analysis.MaxSliceDepth)
	require.Equal(t, 4, opts.MaxAddresses())
	require.Empty(t, conf.Solver.Path)
}
