// Package ast is the syntax tree the analysis runs on. It models the subset
// of JavaScript the interpreter understands and records, per node, the
// change classification assigned by the tree matcher.
package ast

import (
	"fmt"
	"sort"
)

type ChangeType uint8

const (
	Unchanged ChangeType = iota
	Inserted
	Removed
	Updated
	Moved
)

func (c ChangeType) String() string {
	switch c {
	case Inserted:
		return "INSERTED"
	case Removed:
		return "REMOVED"
	case Updated:
		return "UPDATED"
	case Moved:
		return "MOVED"
	}
	return "UNCHANGED"
}

type Kind uint8

// Child layout per kind:
//
//	Program      Children: statements
//	Block        Children: statements
//	Empty        -
//	ExprStmt     Children[0]: expression
//	Var          Op: var/let/const; Children: Declarator
//	Declarator   Children[0]: Name, Children[1]: optional initializer
//	Return       Children[0]: optional value
//	If           Children: test, consequent, optional alternate
//	While        Children: test, body
//	DoWhile      Children: body, test
//	For          Children: init, test, update, body (missing parts are Empty)
//	Break        -
//	Continue     -
//	Throw        Children[0]: value
//	Try          Children: block, optional handler (Block), optional finalizer (Block)
//	Function     Name: optional name; Params: Name nodes; Children[0]: body Block
//	Assign       Op: =, +=, ...; Children: target, value
//	Update       Op: ++/--; Value: "prefix" or "postfix"; Children[0]: target
//	Unary        Op; Children[0]: operand
//	Binary       Op; Children: left, right (also logical operators)
//	Conditional  Children: test, consequent, alternate
//	Call, New    Children[0]: callee, Children[1:]: arguments
//	Member       Children: object, Name (property)
//	Index        Children: object, index expression
//	Name         Name
//	Number       Value: literal text
//	String       Value: unquoted contents
//	Keyword      Op: this/null/true/false
//	Object       Children: Property
//	Property     Children: key (Name/String/Number), value
//	Array        Children: elements
//	Paren        Children[0]: expression
//	Sequence     Children: expressions
//	Unsupported  Value: source text
const (
	KProgram Kind = iota
	KBlock
	KEmpty
	KExprStmt
	KVar
	KDeclarator
	KReturn
	KIf
	KWhile
	KDoWhile
	KFor
	KBreak
	KContinue
	KThrow
	KTry
	KFunction
	KAssign
	KUpdate
	KUnary
	KBinary
	KConditional
	KCall
	KNew
	KMember
	KIndex
	KName
	KNumber
	KString
	KKeyword
	KObject
	KProperty
	KArray
	KParen
	KSequence
	KUnsupported
)

var kindNames = [...]string{
	KProgram:     "Program",
	KBlock:       "Block",
	KEmpty:       "Empty",
	KExprStmt:    "ExprStmt",
	KVar:         "Var",
	KDeclarator:  "Declarator",
	KReturn:      "Return",
	KIf:          "If",
	KWhile:       "While",
	KDoWhile:     "DoWhile",
	KFor:         "For",
	KBreak:       "Break",
	KContinue:    "Continue",
	KThrow:       "Throw",
	KTry:         "Try",
	KFunction:    "Function",
	KAssign:      "Assign",
	KUpdate:      "Update",
	KUnary:       "Unary",
	KBinary:      "Binary",
	KConditional: "Conditional",
	KCall:        "Call",
	KNew:         "New",
	KMember:      "Member",
	KIndex:       "Index",
	KName:        "Name",
	KNumber:      "Number",
	KString:      "String",
	KKeyword:     "Keyword",
	KObject:      "Object",
	KProperty:    "Property",
	KArray:       "Array",
	KParen:       "Paren",
	KSequence:    "Sequence",
	KUnsupported: "Unsupported",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Span locates a node in its file. Line is 1-based; Offset and Length are in bytes.
type Span struct {
	Line   int
	Offset int
	Length int
}

type Node struct {
	ID       int
	Kind     Kind
	Op       string
	Name     string
	Value    string
	Children []*Node
	Params   []*Node
	Span     Span

	// Decl marks function declarations (as opposed to function expressions).
	Decl bool
	// Synthetic nodes are created by the CFG builder (negated branch conditions)
	// and do not occur in the source.
	Synthetic bool

	Change ChangeType
	// Mapped is the corresponding node in the other version of the file.
	Mapped *Node
	Parent *Node
}

// Child returns the i'th child, or nil if there is none.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

func (n *Node) IsFunction() bool {
	return n != nil && n.Kind == KFunction
}

// Body returns the body block of a function.
func (n *Node) Body() *Node {
	if !n.IsFunction() {
		return nil
	}
	return n.Child(0)
}

// Callee returns the target of a call or new expression.
func (n *Node) Callee() *Node {
	return n.Child(0)
}

// Args returns the arguments of a call or new expression.
func (n *Node) Args() []*Node {
	if len(n.Children) < 2 {
		return nil
	}
	return n.Children[1:]
}

// Unparen strips any enclosing parentheses.
func (n *Node) Unparen() *Node {
	for n != nil && n.Kind == KParen {
		n = n.Child(0)
	}
	return n
}

// Underlying returns the condition a synthetic negation was built from.
func (n *Node) Underlying() *Node {
	if n != nil && n.Synthetic && n.Kind == KUnary && n.Op == "!" {
		return n.Child(0)
	}
	return n
}

// EnclosingFunction returns the nearest enclosing function or program node.
func (n *Node) EnclosingFunction() *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == KFunction || p.Kind == KProgram {
			return p
		}
	}
	return nil
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s#%d(%s)", n.Kind, n.ID, Print(n))
}

// Program is a parsed file.
type Program struct {
	Name   string
	Source []byte
	Root   *Node

	nodes map[int]*Node
}

func NewProgram(name string, src []byte, root *Node) *Program {
	p := &Program{Name: name, Source: src, Root: root}
	p.Reindex()
	return p
}

// Reindex rebuilds the id index and parent links. It must be called after
// nodes are added to the tree.
func (p *Program) Reindex() {
	p.nodes = make(map[int]*Node)
	Inspect(p.Root, func(n *Node) bool {
		p.nodes[n.ID] = n
		for _, c := range n.Children {
			c.Parent = n
		}
		for _, c := range n.Params {
			c.Parent = n
		}
		return true
	})
}

// Node retrieves a node by id.
func (p *Program) Node(id int) (*Node, bool) {
	n, ok := p.nodes[id]
	return n, ok
}

// Nodes returns every node in ascending id order.
func (p *Program) Nodes() []*Node {
	res := make([]*Node, 0, len(p.nodes))
	for _, n := range p.nodes {
		res = append(res, n)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Functions returns every function node in source order.
func (p *Program) Functions() (fns []*Node) {
	Inspect(p.Root, func(n *Node) bool {
		if n.Kind == KFunction {
			fns = append(fns, n)
		}
		return true
	})
	return
}
