package cfg

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/utils"
)

func (n *Node) String() string {
	switch n.Kind {
	case EntryNode:
		return fmt.Sprintf("[ entry %s ]", n.CFG.Name())
	case ExitNode:
		return fmt.Sprintf("[ exit %s ]", n.CFG.Name())
	case JoinNode:
		return fmt.Sprintf("[ %s head ]", n.Origin.Kind)
	case BranchNode:
		return fmt.Sprintf("%s (%s)", n.Origin.Kind, ast.Print(n.Stmt))
	}
	return ast.Print(n.Stmt)
}

// Line is the source line of the node.
func (n *Node) Line() int {
	if n.Stmt != nil {
		return n.Stmt.Span.Line
	}
	return n.Origin.Span.Line
}

// Dump renders the nodes of the graph with their successors.
func (c *CFG) Dump() string {
	var b strings.Builder
	fmt.Fprintln(&b, c)
	c.ForEach(func(n *Node) {
		fmt.Fprintf(&b, "  %d: %s\n", n.ID, utils.StmtString(n.String()))
		for _, e := range n.Out {
			fmt.Fprintf(&b, "    -> %s\n", e)
		}
	})
	for _, l := range c.Loops() {
		ids := make([]string, len(l.Body))
		for i, n := range l.Body {
			ids[i] = fmt.Sprint(n.ID)
		}
		fmt.Fprintf(&b, "  loop at %d: {%s}\n", l.Head.ID, strings.Join(ids, ", "))
	}
	return b.String()
}
