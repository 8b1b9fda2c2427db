package facts

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"

	"github.com/cs-au-dk/semdiff/utils"
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary
	bold = color.New(color.Bold).SprintFunc()
)

type changeFacts struct {
	FileChange
	Annotations []Annotation `json:"annotations"`
}

type export struct {
	Changes []changeFacts `json:"changes"`
}

func (fb *FactBase) export() export {
	res := export{Changes: []changeFacts{}}
	for _, fc := range fb.Changes() {
		anns := fb.Annotations(fc.ID)
		if anns == nil {
			anns = []Annotation{}
		}
		res.Changes = append(res.Changes, changeFacts{fc, anns})
	}
	return res
}

// WriteJSON writes the fact base as indented JSON.
func (fb *FactBase) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(fb.export(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode fact base: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write fact base: %w", err)
	}
	return nil
}

// ReadJSON reads a fact base written by WriteJSON.
func ReadJSON(r io.Reader) (*FactBase, error) {
	var e export
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("decode fact base: %w", err)
	}
	fb := New()
	for _, c := range e.Changes {
		fb.Add(c.FileChange, c.Annotations)
	}
	return fb, nil
}

// WriteText prints one line per annotation, grouped by file change.
func (fb *FactBase) WriteText(w io.Writer) error {
	var sb strings.Builder
	for _, fc := range fb.Changes() {
		fmt.Fprintf(&sb, "%s %s -> %s\n", utils.CanColorize(bold)(fc.ID), fc.Src, fc.Dst)
		for _, a := range fb.Annotations(fc.ID) {
			deps := make([]string, len(a.Deps))
			for i, d := range a.Deps {
				deps[i] = fmt.Sprint(d)
			}
			fmt.Fprintf(&sb, "  %d:%d+%d %s [%s]\n", a.Line, a.Offset, a.Length, a.Label, strings.Join(deps, " "))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
