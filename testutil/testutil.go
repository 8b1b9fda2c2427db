// Package testutil loads pairs of JavaScript programs for tests. A pair is
// given either as two source strings or as a txtar archive under
// examples/src holding the files src.js and dst.js.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/frontend"
)

const (
	SrcFile = "src.js"
	DstFile = "dst.js"
)

// LoadResult holds both versions of a matched program pair.
type LoadResult struct {
	Name string
	Src  *ast.Program
	Dst  *ast.Program
	// Notes are the expectations written in the destination file.
	Notes NotesManager
}

// LoadPairFromSource parses and matches two versions of a program.
func LoadPairFromSource(t testing.TB, src, dst string) LoadResult {
	t.Helper()
	p := frontend.NewParser(nil)
	ctx := context.Background()

	s, err := p.Parse(ctx, SrcFile, []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	d, err := p.Parse(ctx, DstFile, []byte(dst))
	if err != nil {
		t.Fatal(err)
	}
	frontend.Match(s, d)

	return LoadResult{
		Name:  t.Name(),
		Src:   s,
		Dst:   d,
		Notes: MakeNotesManager(t, d),
	}
}

// LoadExample loads examples/src/<name>.txtar relative to pathToRoot.
func LoadExample(t testing.TB, pathToRoot, name string) LoadResult {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join(pathToRoot, "examples", "src", name+".txtar"))
	if err != nil {
		t.Fatal(err)
	}

	files := make(map[string]string)
	for _, f := range ar.Files {
		files[f.Name] = string(f.Data)
	}
	src, ok1 := files[SrcFile]
	dst, ok2 := files[DstFile]
	if !ok1 || !ok2 {
		t.Fatalf("%s: archive must contain %s and %s", name, SrcFile, DstFile)
	}

	res := LoadPairFromSource(t, src, dst)
	res.Name = name
	return res
}

// ListExamples returns the names of every example archive.
func ListExamples(t testing.TB, pathToRoot string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(pathToRoot, "examples", "src"))
	if err != nil {
		t.Fatal(err)
	}

	names := []string{}
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".txtar"); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
