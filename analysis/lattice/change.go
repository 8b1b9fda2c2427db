package lattice

import "github.com/cs-au-dk/semdiff/analysis/ast"

// Change is the four-point change taint lattice:
//
//	     ⊤
//	    / \
//	Unch   Ch
//	    \ /
//	     ⊥
type Change uint8

const (
	ChangeBot Change = iota
	Unchanged
	Changed
	ChangeTop
)

func (c Change) Join(o Change) Change {
	switch {
	case c == o:
		return c
	case c == ChangeBot:
		return o
	case o == ChangeBot:
		return c
	}
	return ChangeTop
}

func (c Change) Leq(o Change) bool {
	return c.Join(o) == o
}

// IsChanged holds for Changed and ⊤.
func (c Change) IsChanged() bool {
	return c == Changed || c == ChangeTop
}

func (c Change) String() string {
	switch c {
	case ChangeBot:
		return colorize.Element(botSym)
	case Unchanged:
		return colorize.Element("U")
	case Changed:
		return colorize.Attr("C")
	}
	return colorize.Attr(topSym)
}

// Conv is Changed for inserted and removed nodes.
func Conv(n *ast.Node) Change {
	if n == nil {
		return Unchanged
	}
	switch n.Underlying().Change {
	case ast.Inserted, ast.Removed:
		return Changed
	}
	return Unchanged
}

// ConvU additionally treats updated nodes as Changed.
func ConvU(n *ast.Node) Change {
	if n == nil {
		return Unchanged
	}
	switch n.Underlying().Change {
	case ast.Inserted, ast.Removed, ast.Updated:
		return Changed
	}
	return Unchanged
}
