package testutil

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/cs-au-dk/semdiff/analysis/ast"
)

// Note is an expectation written as a trailing comment in a test program:
//
//	x = f(y); //@ VALUE_CHANGE_CRIT, CALL_CHANGE_DEP
//
// Every listed label must be reported for some node on the line. The
// special label `none` demands that no change-related label is reported.
type Note struct {
	Line   int
	Labels []string
}

func (n Note) None() bool {
	return len(n.Labels) == 1 && n.Labels[0] == "none"
}

func (n Note) String() string {
	return fmt.Sprintf("//@ %s at line %d", strings.Join(n.Labels, ", "), n.Line)
}

type NotesManager struct {
	notes []Note
}

// MakeNotesManager extracts the notes of a program.
func MakeNotesManager(t testing.TB, prog *ast.Program) (m NotesManager) {
	sc := bufio.NewScanner(bytes.NewReader(prog.Source))
	for line := 1; sc.Scan(); line++ {
		_, text, found := strings.Cut(sc.Text(), "//@")
		if !found {
			continue
		}
		note := Note{Line: line}
		for _, l := range strings.Split(text, ",") {
			if l = strings.TrimSpace(l); l != "" {
				note.Labels = append(note.Labels, l)
			}
		}
		if len(note.Labels) == 0 {
			t.Errorf("empty note at line %d", line)
			continue
		}
		m.notes = append(m.notes, note)
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	return
}

func (m NotesManager) ForEachNote(do func(Note)) {
	for _, n := range m.notes {
		do(n)
	}
}

func (m NotesManager) Len() int {
	return len(m.notes)
}
