package verify

import (
	uf "github.com/spakin/disjoint"

	"github.com/cs-au-dk/semdiff/analysis/ast"
)

type side uint8

const (
	oldSide side = iota
	newSide
)

type versioned struct {
	side side
	name string
}

// Renames relates the identifiers of two versions of a program. Identifiers
// whose syntax nodes are mapped onto each other are in the same class, so a
// renamed variable is compared with its old name.
type Renames struct {
	elems map[versioned]*uf.Element
}

// NewRenames builds the rename classes from the node mapping between src
// and dst. Either program may be nil.
func NewRenames(src, dst *ast.Program) *Renames {
	r := &Renames{elems: make(map[versioned]*uf.Element)}
	if dst == nil || dst.Root == nil {
		return r
	}

	ast.Inspect(dst.Root, func(n *ast.Node) bool {
		if n.Kind != ast.KName || n.Mapped == nil || n.Mapped.Kind != ast.KName {
			return true
		}
		if n.Mapped.Name != n.Name {
			uf.Union(r.elem(oldSide, n.Mapped.Name), r.elem(newSide, n.Name))
		}
		return true
	})
	return r
}

func (r *Renames) elem(s side, name string) *uf.Element {
	k := versioned{s, name}
	if e, ok := r.elems[k]; ok {
		return e
	}
	e := uf.NewElement()
	e.Data = k
	r.elems[k] = e
	return e
}

// counterpart finds the name in the other version of a variable. Names
// without a rename stand for themselves. If several names qualify, the
// least one is chosen.
func (r *Renames) counterpart(s side, name string) string {
	e, ok := r.elems[versioned{s, name}]
	if !ok {
		return name
	}

	res := ""
	root := e.Find()
	for k, o := range r.elems {
		if k.side != s && o.Find() == root && (res == "" || k.name < res) {
			res = k.name
		}
	}
	if res == "" {
		return name
	}
	return res
}

// Old returns the old name of a variable of the new version.
func (r *Renames) Old(name string) string {
	return r.counterpart(newSide, name)
}

// New returns the new name of a variable of the old version.
func (r *Renames) New(name string) string {
	return r.counterpart(oldSide, name)
}
