package absint

import (
	"sort"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
	"github.com/cs-au-dk/semdiff/utils"
)

// Annotations collects, per syntax node, the criteria originating at the
// node and the criteria the node depends on. A node reading or writing a
// value depends on the criteria in the provenance of the value.
type Annotations struct {
	crits map[int]map[lattice.CriterionKind]bool
	deps  map[int]map[lattice.CriterionKind]map[int]bool
}

func NewAnnotations() *Annotations {
	return &Annotations{
		crits: make(map[int]map[lattice.CriterionKind]bool),
		deps:  make(map[int]map[lattice.CriterionKind]map[int]bool),
	}
}

// Criterion marks n as the origin of a criterion of the given kind and
// returns the provenance holding it.
func (r *Annotations) Criterion(n *ast.Node, kind lattice.CriterionKind) lattice.Dependencies {
	n = n.Underlying()
	if r.crits[n.ID] == nil {
		r.crits[n.ID] = make(map[lattice.CriterionKind]bool)
	}
	r.crits[n.ID][kind] = true
	return lattice.DepsOf(lattice.Criterion{Kind: kind, ID: n.ID})
}

// Depend records that n depends on every criterion in d.
func (r *Annotations) Depend(n *ast.Node, d lattice.Dependencies) {
	if d.IsEmpty() || n == nil {
		return
	}
	n = n.Underlying()
	byKind := r.deps[n.ID]
	if byKind == nil {
		byKind = make(map[lattice.CriterionKind]map[int]bool)
		r.deps[n.ID] = byKind
	}
	for _, c := range d.Entries() {
		if byKind[c.Kind] == nil {
			byKind[c.Kind] = make(map[int]bool)
		}
		byKind[c.Kind][c.ID] = true
	}
}

// Label is a single annotation of a node. Labels are named after the kind
// of criterion, suffixed with _CRIT for origins and _DEP for dependencies.
type Label struct {
	Node int
	Name string
	IDs  []int
}

// Labels returns every label, ordered by node id and name.
func (r *Annotations) Labels() (res []Label) {
	for id, kinds := range r.crits {
		for kind := range kinds {
			res = append(res, Label{Node: id, Name: kind.String() + "_CRIT", IDs: []int{id}})
		}
	}
	for id, byKind := range r.deps {
		for kind, ids := range byKind {
			res = append(res, Label{Node: id, Name: kind.String() + "_DEP", IDs: utils.SortedKeys(ids)})
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Node != res[j].Node {
			return res[i].Node < res[j].Node
		}
		return res[i].Name < res[j].Name
	})
	return
}

// Of returns the labels of a single node.
func (r *Annotations) Of(n *ast.Node) (res []Label) {
	for _, l := range r.Labels() {
		if l.Node == n.ID {
			res = append(res, l)
		}
	}
	return
}
