package facts

import (
	"bytes"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/cs-au-dk/semdiff/analysis/absint"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/testutil"
	"github.com/cs-au-dk/semdiff/utils"
)

func sample() *FactBase {
	fb := New()
	fb.Add(FileChange{
		ID:  uuid.MustParse("00000000-0000-0000-0000-000000000002"),
		Src: "b.old.js",
		Dst: "b.new.js",
	}, []Annotation{
		{Label: "CALL_CHANGE_CRIT", Deps: []int{5}, Line: 4, Offset: 30, Length: 4},
	})
	fb.Add(FileChange{
		ID:  uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		Src: "a.old.js",
		Dst: "a.new.js",
	}, []Annotation{
		{Label: "VALUE_CHANGE_DEP", Deps: []int{3}, Line: 2, Offset: 19, Length: 1},
		{Label: "VALUE_CHANGE_CRIT", Deps: []int{3}, Line: 1, Offset: 8, Length: 1},
		{Label: "VARIABLE_DEP", Deps: []int{1}, Line: 2, Offset: 15, Length: 9},
		{Label: "VALUE_DEP", Deps: []int{3, 7}, Line: 2, Offset: 15, Length: 9},
		{Label: "VALUE_DEP", Deps: []int{7}, Line: 2, Offset: 15, Length: 14},
	})
	return fb
}

func TestSortAnnotations(t *testing.T) {
	anns := sample().Annotations(uuid.MustParse("00000000-0000-0000-0000-000000000001"))

	var got []string
	for _, a := range anns {
		got = append(got, a.Label)
	}
	want := []string{"VALUE_CHANGE_CRIT", "VALUE_DEP", "VALUE_DEP", "VARIABLE_DEP", "VALUE_CHANGE_DEP"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if anns[1].Length != 14 {
		t.Errorf("longer span is not first: %+v", anns[1])
	}
}

func TestExport(t *testing.T) {
	defer utils.Opts().SetNoColorize(utils.Opts().NoColorize())
	utils.Opts().SetNoColorize(true)

	fb := sample()
	g := goldie.New(t)

	var js bytes.Buffer
	require.NoError(t, fb.WriteJSON(&js))
	g.Assert(t, "factbase-json", js.Bytes())

	var text bytes.Buffer
	require.NoError(t, fb.WriteText(&text))
	g.Assert(t, "factbase-text", text.Bytes())

	back, err := ReadJSON(&js)
	require.NoError(t, err)
	if diff := cmp.Diff(fb.Changes(), back.Changes()); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
	for _, fc := range fb.Changes() {
		if diff := cmp.Diff(fb.Annotations(fc.ID), back.Annotations(fc.ID)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", fc.Src, diff)
		}
	}
}

func TestConcurrentAdd(t *testing.T) {
	fb := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fb.Add(NewFileChange("old.js", "new.js"), []Annotation{{Label: "VALUE_DEP"}})
		}()
	}
	wg.Wait()

	if fb.Len() != 8 {
		t.Errorf("expected 8 file changes, got %d", fb.Len())
	}
}

func TestExtract(t *testing.T) {
	lr := testutil.LoadExample(t, "..", "literal")
	src, dst := cfg.Build(lr.Src), cfg.Build(lr.Dst)
	cfg.Map(src, dst)
	a := absint.New(dst, absint.Config{})
	a.Run()

	anns := Extract(a)
	require.NotEmpty(t, anns)

	found := false
	for i, ann := range anns {
		text := string(lr.Dst.Source[ann.Offset : ann.Offset+ann.Length])
		if ann.Label == "VALUE_CHANGE_CRIT" {
			found = true
			if text != "2" || ann.Line != 1 {
				t.Errorf("criterion at line %d spans %q", ann.Line, text)
			}
		}
		if len(ann.Deps) == 0 {
			t.Errorf("%+v has no dependencies", ann)
		}
		if i > 0 && anns[i-1].Offset > ann.Offset {
			t.Errorf("annotations are not sorted at %d", i)
		}
	}
	if !found {
		t.Error("no value change criterion was extracted")
	}
}
