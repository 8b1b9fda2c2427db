// Package cfg builds the control flow graphs the abstract interpreter runs on:
// one graph per function plus one for the top-level script.
package cfg

import (
	"fmt"
	"sort"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/utils"
)

var opts = utils.Opts()

type NodeKind uint8

const (
	// EntryNode and ExitNode carry the function (or program) node.
	EntryNode NodeKind = iota
	ExitNode
	// StatementNode carries a simple statement or a loop init/update expression.
	StatementNode
	// BranchNode carries the tested expression; its outgoing edges carry the
	// condition under which they are taken.
	BranchNode
	// JoinNode has no payload. It heads do-while loops.
	JoinNode
)

func (k NodeKind) String() string {
	switch k {
	case EntryNode:
		return "entry"
	case ExitNode:
		return "exit"
	case StatementNode:
		return "stmt"
	case BranchNode:
		return "branch"
	}
	return "join"
}

// Node is a control location.
type Node struct {
	ID   int
	Kind NodeKind
	// Stmt is the payload. It is nil for join nodes.
	Stmt *ast.Node
	// Origin is the statement the node was built for, e.g. the loop owning
	// a branch node.
	Origin *ast.Node

	In  []*Edge
	Out []*Edge

	CFG *CFG
	// Mapped is the corresponding node in the other version.
	Mapped *Node
}

// IncomingEdgeCount is the number of predecessors a node waits for before
// all of its successors are scheduled.
func (n *Node) IncomingEdgeCount() int {
	return len(n.In)
}

// key identifies a node by its syntax independently of the version.
func (n *Node) key() nodeKey {
	if n.Stmt != nil {
		return nodeKey{n.Kind, n.Stmt.ID}
	}
	return nodeKey{n.Kind, n.Origin.ID}
}

type nodeKey struct {
	kind NodeKind
	id   int
}

// Edge is a control flow edge.
type Edge struct {
	ID       int
	From, To *Node
	// Condition holds when the edge is taken. It is nil for unconditional
	// edges. False branches carry a synthetic negation of the test.
	Condition *ast.Node
	// Loop marks the edge entering a loop body. The scheduler follows it
	// before the loop head has seen all of its predecessors.
	Loop bool

	Mapped *Edge
}

func (e *Edge) String() string {
	s := fmt.Sprintf("%d -> %d", e.From.ID, e.To.ID)
	if e.Condition != nil {
		s += " [" + ast.Print(e.Condition) + "]"
	}
	if e.Loop {
		s += " (loop)"
	}
	return s
}

// CFG is the control flow graph of a single function or script.
type CFG struct {
	ID int
	// Function is the function node, or the program root for the script.
	Function *ast.Node

	Entry *Node
	Exit  *Node
	Nodes []*Node
	Edges []*Edge

	// Mapped is the graph of the same function in the other version.
	Mapped *CFG
}

// IsScript holds for the top-level graph.
func (c *CFG) IsScript() bool {
	return c.Function.Kind == ast.KProgram
}

// Name renders the function name, or a placeholder for anonymous functions.
func (c *CFG) Name() string {
	switch {
	case c.IsScript():
		return "<script>"
	case c.Function.Name != "":
		return c.Function.Name
	}
	return fmt.Sprintf("<anon@%d>", c.Function.Span.Line)
}

func (c *CFG) String() string {
	return utils.FunString(c.Name(), c.Function.Span.Line)
}

// ForEach executes the given procedure for every node in depth-first order
// from the entry.
func (c *CFG) ForEach(do func(*Node)) {
	visited := make(map[*Node]bool)

	var visit func(*Node)
	visit = func(n *Node) {
		if visited[n] {
			return
		}
		visited[n] = true
		do(n)
		for _, e := range n.Out {
			visit(e.To)
		}
	}
	visit(c.Entry)
}

// Set is the collection of graphs built for one program.
type Set struct {
	Program *ast.Program
	script  *CFG
	cfgs    []*CFG
	byFun   map[*ast.Node]*CFG
}

// Script returns the graph of the top-level code.
func (s *Set) Script() *CFG {
	return s.script
}

// Of returns the graph of a function node.
func (s *Set) Of(fn *ast.Node) (*CFG, bool) {
	c, ok := s.byFun[fn]
	return c, ok
}

// All returns every graph ordered by id. The script comes first.
func (s *Set) All() []*CFG {
	return s.cfgs
}

// NodeFor finds the node with the given payload.
func (s *Set) NodeFor(stmt *ast.Node) (*Node, bool) {
	for _, c := range s.cfgs {
		for _, n := range c.Nodes {
			if n.Stmt == stmt {
				return n, true
			}
		}
	}
	return nil, false
}

func (s *Set) add(c *CFG) {
	s.cfgs = append(s.cfgs, c)
	s.byFun[c.Function] = c
	sort.SliceStable(s.cfgs, func(i, j int) bool { return s.cfgs[i].ID < s.cfgs[j].ID })
}
