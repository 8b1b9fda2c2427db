package lattice

import (
	"fmt"
	"sort"
	"strings"
)

// CriterionKind classifies why a node is the origin of a dependency.
type CriterionKind uint8

const (
	VARIABLE CriterionKind = iota
	VALUE
	VALUE_CHANGE
	VARIABLE_CHANGE
	CALL_CHANGE
	CONDITION_CHANGE
)

var criterionNames = [...]string{
	VARIABLE:         "VARIABLE",
	VALUE:            "VALUE",
	VALUE_CHANGE:     "VALUE_CHANGE",
	VARIABLE_CHANGE:  "VARIABLE_CHANGE",
	CALL_CHANGE:      "CALL_CHANGE",
	CONDITION_CHANGE: "CONDITION_CHANGE",
}

func (k CriterionKind) String() string {
	if int(k) < len(criterionNames) {
		return criterionNames[k]
	}
	return fmt.Sprintf("CriterionKind(%d)", k)
}

// Criterion is identified by its kind and the id of the originating node.
type Criterion struct {
	Kind CriterionKind
	ID   int
}

func (c Criterion) Less(o Criterion) bool {
	if c.ID != o.ID {
		return c.ID < o.ID
	}
	return c.Kind < o.Kind
}

func (c Criterion) String() string {
	return fmt.Sprintf("%s_%d", c.Kind, c.ID)
}

// Dependencies is an immutable set of criteria. The zero value is the empty
// set, which is also the bottom element.
type Dependencies struct {
	crits []Criterion
}

func DepsOf(cs ...Criterion) Dependencies {
	return Dependencies{}.Add(cs...)
}

// Add returns the set extended with the given criteria.
func (d Dependencies) Add(cs ...Criterion) Dependencies {
	if len(cs) == 0 {
		return d
	}
	merged := make([]Criterion, 0, len(d.crits)+len(cs))
	merged = append(merged, d.crits...)
	merged = append(merged, cs...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Less(merged[j]) })

	res := merged[:0]
	for i, c := range merged {
		if i == 0 || c != merged[i-1] {
			res = append(res, c)
		}
	}
	return Dependencies{res}
}

func (d Dependencies) Join(o Dependencies) Dependencies {
	switch {
	case len(o.crits) == 0:
		return d
	case len(d.crits) == 0:
		return o
	}
	return d.Add(o.crits...)
}

func (d Dependencies) Eq(o Dependencies) bool {
	if len(d.crits) != len(o.crits) {
		return false
	}
	for i, c := range d.crits {
		if c != o.crits[i] {
			return false
		}
	}
	return true
}

func (d Dependencies) Leq(o Dependencies) bool {
	return d.Join(o).Eq(o)
}

func (d Dependencies) IsEmpty() bool { return len(d.crits) == 0 }
func (d Dependencies) Size() int     { return len(d.crits) }

// Entries returns the criteria ordered by node id, then kind.
func (d Dependencies) Entries() []Criterion { return d.crits }

// IDs returns the distinct node ids of the criteria.
func (d Dependencies) IDs() (ids []int) {
	for i, c := range d.crits {
		if i == 0 || c.ID != d.crits[i-1].ID {
			ids = append(ids, c.ID)
		}
	}
	return
}

func (d Dependencies) String() string {
	strs := make([]string, 0, len(d.crits))
	for _, c := range d.crits {
		strs = append(strs, c.String())
	}
	return "{" + strings.Join(strs, ", ") + "}"
}
