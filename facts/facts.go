// Package facts collects the annotations of analyzed file changes into a
// fact base that can be printed or exported as JSON.
package facts

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cs-au-dk/semdiff/analysis/absint"
)

// FileChange identifies a pair of file versions.
type FileChange struct {
	ID  uuid.UUID `json:"id"`
	Src string    `json:"src"`
	Dst string    `json:"dst"`
}

func NewFileChange(src, dst string) FileChange {
	return FileChange{ID: uuid.New(), Src: src, Dst: dst}
}

// Annotation is a label attached to a span of the destination file.
type Annotation struct {
	Label  string `json:"label"`
	Deps   []int  `json:"deps"`
	Line   int    `json:"line"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// Extract turns the labels recorded by an analysis into annotations of
// the analyzed file. Labels of synthetic nodes are dropped.
func Extract(a *absint.Analysis) []Annotation {
	prog := a.Program()
	res := []Annotation{}
	for _, l := range a.Annotations().Labels() {
		n, ok := prog.Node(l.Node)
		if !ok || n.Synthetic {
			continue
		}
		res = append(res, Annotation{
			Label:  l.Name,
			Deps:   append([]int{}, l.IDs...),
			Line:   n.Span.Line,
			Offset: n.Span.Offset,
			Length: n.Span.Length,
		})
	}
	Sort(res)
	return res
}

// Sort orders annotations by offset, longer spans first, then by label.
func Sort(anns []Annotation) {
	sort.SliceStable(anns, func(i, j int) bool {
		a, b := anns[i], anns[j]
		switch {
		case a.Offset != b.Offset:
			return a.Offset < b.Offset
		case a.Length != b.Length:
			return a.Length > b.Length
		}
		return a.Label < b.Label
	})
}

// FactBase maps file changes to their annotations. It is safe for
// concurrent use.
type FactBase struct {
	mu      sync.Mutex
	changes []FileChange
	facts   map[uuid.UUID][]Annotation
}

func New() *FactBase {
	return &FactBase{facts: make(map[uuid.UUID][]Annotation)}
}

// Add records the annotations of a file change. Annotations added for the
// same change before are replaced.
func (fb *FactBase) Add(fc FileChange, anns []Annotation) {
	anns = append([]Annotation{}, anns...)
	Sort(anns)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if _, ok := fb.facts[fc.ID]; !ok {
		fb.changes = append(fb.changes, fc)
	}
	fb.facts[fc.ID] = anns
}

// Changes returns the recorded file changes ordered by source and
// destination name.
func (fb *FactBase) Changes() []FileChange {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	res := append([]FileChange{}, fb.changes...)
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Src != res[j].Src {
			return res[i].Src < res[j].Src
		}
		return res[i].Dst < res[j].Dst
	})
	return res
}

func (fb *FactBase) Annotations(id uuid.UUID) []Annotation {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.facts[id]
}

func (fb *FactBase) Len() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.changes)
}
