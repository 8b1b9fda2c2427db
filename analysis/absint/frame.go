package absint

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
	"github.com/cs-au-dk/semdiff/utils/worklist"
)

// instruction is a pending unit of work of a stack frame: the transfer of
// a node or of an edge.
type instruction interface {
	fmt.Stringer
	isInstruction()
}

// nodeInstruction accumulates the states delivered to a node. The
// semaphore counts the deliveries still missing before every outgoing edge
// may be followed.
type nodeInstruction struct {
	node      *cfg.Node
	pre       State
	hasPre    bool
	semaphore int
}

type edgeInstruction struct {
	edge *cfg.Edge
	pre  State
}

func (*nodeInstruction) isInstruction() {}
func (*edgeInstruction) isInstruction() {}

func (i *nodeInstruction) String() string {
	return fmt.Sprintf("node %d (%s, waiting for %d)", i.node.ID, i.node.Kind, i.semaphore)
}

func (i *edgeInstruction) String() string {
	return "edge " + i.edge.String()
}

// callSite links a frame to the suspended instruction of its caller.
type callSite struct {
	frame *StackFrame
	instr *nodeInstruction
	call  *ast.Node
	// change and deps taint the returned value.
	change lattice.Change
	deps   lattice.Dependencies
}

// StackFrame is the analysis of one activation of a function.
type StackFrame struct {
	cfg   *cfg.CFG
	queue worklist.Queue[instruction]
	nodes map[*cfg.Node]*nodeInstruction
	// visited edges are never followed again in this frame, so every loop
	// body is analyzed once.
	visited map[*cfg.Edge]bool
	// site is nil for the top-level script and for swept functions.
	site *callSite

	exit    State
	reached bool
	log     *zap.Logger
}

func newStackFrame(c *cfg.CFG, entry State, site *callSite, log *zap.Logger) *StackFrame {
	f := &StackFrame{
		cfg:     c,
		queue:   worklist.Queue[instruction]{},
		nodes:   make(map[*cfg.Node]*nodeInstruction),
		visited: make(map[*cfg.Edge]bool),
		site:    site,
		log:     log,
	}
	f.deliver(c.Entry, entry)
	return f
}

// CFG is the graph the frame executes.
func (f *StackFrame) CFG() *cfg.CFG {
	return f.cfg
}

// deliver joins s into the state of node n and schedules the node.
func (f *StackFrame) deliver(n *cfg.Node, s State) {
	instr, ok := f.nodes[n]
	if !ok {
		instr = &nodeInstruction{node: n, semaphore: max(n.IncomingEdgeCount(), 1)}
		f.nodes[n] = instr
	}
	if instr.hasPre {
		instr.pre = joinAt(f.log, n, instr.pre, s)
	} else {
		instr.pre, instr.hasPre = s, true
	}
	f.queue.Push(instr)
}

// follow schedules the outgoing edges of n that may be taken with state
// post.
func (f *StackFrame) follow(instr *nodeInstruction, post State) {
	instr.semaphore--
	for _, e := range instr.node.Out {
		if f.visited[e] || (instr.semaphore > 0 && !e.Loop) {
			continue
		}
		f.visited[e] = true
		f.queue.Push(&edgeInstruction{edge: e, pre: post})
	}
}

func (f *StackFrame) String() string {
	return fmt.Sprintf("frame %s (%d pending)", f.cfg, f.queue.Len())
}
