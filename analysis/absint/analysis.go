// Package absint implements the abstract interpreter: a call stack of
// frames, each working through the CFG of one function, evaluating
// statements over the value and heap lattices while tracking the change
// taint of every value.
package absint

import (
	"go.uber.org/zap"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/heap"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
	"github.com/cs-au-dk/semdiff/utils/worklist"
)

// event is a function found by the reachable-function sweep, waiting to
// be analyzed once the call stack is empty.
type event struct {
	fn    heap.UserFunction
	store heap.Store
}

// Analysis interprets one version of a program.
type Analysis struct {
	cfgs     *cfg.Set
	alloc    *heap.Allocator
	builtins *heap.Builtins
	ann      *Annotations
	log      *zap.Logger
	conf     Config
	metrics  *Metrics

	stack  []*StackFrame
	events worklist.Queue[event]
	queued map[*cfg.CFG]bool

	entries map[*cfg.CFG]State
	exits   map[*cfg.CFG]State
	posts   map[*cfg.Node]State

	started   bool
	steps     int
	exhausted bool
}

// New prepares the analysis of the given graphs. Nothing is interpreted
// before the first step.
func New(cfgs *cfg.Set, conf Config) *Analysis {
	log := conf.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Analysis{
		cfgs:    cfgs,
		alloc:   heap.NewAllocator(),
		ann:     NewAnnotations(),
		log:     log.Named("absint"),
		conf:    conf,
		metrics: conf.Metrics,
		events:  worklist.Queue[event]{},
		queued:  make(map[*cfg.CFG]bool),
		entries: make(map[*cfg.CFG]State),
		exits:   make(map[*cfg.CFG]State),
		posts:   make(map[*cfg.Node]State),
	}
}

func (a *Analysis) start() {
	a.started = true
	a.metrics.TimerStart()

	var store heap.Store
	a.builtins, store = heap.NewBuiltins(a.alloc)

	script := a.cfgs.Script()
	a.push(script, a.scriptState(store, script), nil)
	a.log.Debug("analysis started", zap.String("program", a.cfgs.Program.Name))
}

// push adds a frame for c. A frame entering a function that was entered
// before starts from the join of both entry states.
func (a *Analysis) push(c *cfg.CFG, entry State, site *callSite) {
	if old, ok := a.entries[c]; ok {
		entry = joinAt(a.log, c.Entry, old, entry)
	}
	a.entries[c] = entry
	a.stack = append(a.stack, newStackFrame(c, entry, site, a.log))
	a.metrics.expandFunction(c)
}

func (a *Analysis) onStack(c *cfg.CFG) bool {
	for _, f := range a.stack {
		if f.cfg == c {
			return true
		}
	}
	return false
}

// Done holds when the call stack and the event queue are empty.
func (a *Analysis) Done() bool {
	return a.started && len(a.stack) == 0 && a.events.Empty()
}

// Step executes a single instruction of the frame at the top of the call
// stack. It returns false once the analysis is done.
func (a *Analysis) Step() bool {
	if !a.started {
		a.start()
		return true
	}

	if a.conf.Budget > 0 && a.steps >= a.conf.Budget && !a.exhausted {
		a.exhausted = true
		a.log.Info("instruction budget exhausted", zap.Int("budget", a.conf.Budget))
		a.stack, a.events = nil, worklist.Queue[event]{}
	}

	if len(a.stack) == 0 {
		ev, ok := a.events.Peek()
		if !ok {
			a.metrics.Done(a.exhausted)
			return false
		}
		a.events.Pop()
		if _, entered := a.entries[ev.fn.CFG]; !entered {
			a.metrics.sweep()
			a.push(ev.fn.CFG, a.sweptEntry(ev), nil)
		}
		return true
	}

	frame := a.stack[len(a.stack)-1]
	instr, ok := frame.queue.Peek()
	if !ok {
		a.complete(frame)
		return true
	}

	a.steps++
	a.metrics.instruction()
	if !a.execute(frame, instr) {
		frame.queue.Pop()
	}
	return true
}

// Run steps the analysis to completion.
func (a *Analysis) Run() {
	for a.Step() {
	}
}

// execute transfers a single instruction. It reports whether the
// instruction was suspended by a call.
func (a *Analysis) execute(frame *StackFrame, instr instruction) (suspended bool) {
	switch instr := instr.(type) {
	case *nodeInstruction:
		in := a.interpreter(instr.pre, frame, instr)
		in.transferNode(instr.node)
		if in.suspended {
			return true
		}

		post := in.state
		post.Scratch = post.Scratch.ClearCalls()
		instr.pre.Scratch = instr.pre.Scratch.ClearCalls()
		if a.conf.OnNode != nil {
			post = a.conf.OnNode(instr.node, post)
		}

		if old, ok := a.posts[instr.node]; ok {
			a.posts[instr.node] = old.Join(post)
		} else {
			a.posts[instr.node] = post
		}
		if instr.node.Kind == cfg.ExitNode {
			if frame.reached {
				frame.exit = frame.exit.Join(post)
			} else {
				frame.exit, frame.reached = post, true
			}
		}
		frame.follow(instr, post)

	case *edgeInstruction:
		frame.deliver(instr.edge.To, a.transferEdge(instr.edge, instr.pre))
	}
	return false
}

// complete pops a frame with no pending instructions, returns to its
// caller and sweeps it for functions that were never called.
func (a *Analysis) complete(frame *StackFrame) {
	a.stack = a.stack[:len(a.stack)-1]
	c := frame.cfg

	if frame.reached {
		if old, ok := a.exits[c]; ok {
			a.exits[c] = old.Join(frame.exit)
		} else {
			a.exits[c] = frame.exit
		}
	}

	if site := frame.site; site != nil {
		ret := lattice.BValueBot()
		if frame.reached {
			var ok bool
			if ret, ok = frame.exit.Scratch.Return(); !ok {
				ret = lattice.InjectUndefined(site.change, site.deps)
			}
		}
		ret = taint(ret, site.change, site.deps)

		pre := &site.instr.pre
		pre.Scratch = pre.Scratch.WithCall(site.call.ID, ret)
		if frame.reached {
			pre.Store = frame.exit.Store.Join(pre.Store)
		}
	}

	if frame.reached {
		a.sweep(c, frame.exit)
	}
}

// Annotations returns the criteria and dependencies recorded so far.
func (a *Analysis) Annotations() *Annotations {
	return a.ann
}

// Post returns the join of the states after node n.
func (a *Analysis) Post(n *cfg.Node) (State, bool) {
	s, ok := a.posts[n]
	return s, ok
}

// Entry returns the join of the entry states of c.
func (a *Analysis) Entry(c *cfg.CFG) (State, bool) {
	s, ok := a.entries[c]
	return s, ok
}

// Exit returns the join of the exit states of c.
func (a *Analysis) Exit(c *cfg.CFG) (State, bool) {
	s, ok := a.exits[c]
	return s, ok
}

// Program is the analyzed program.
func (a *Analysis) Program() *ast.Program {
	return a.cfgs.Program
}

// CFGs are the analyzed graphs.
func (a *Analysis) CFGs() *cfg.Set {
	return a.cfgs
}

// Stack returns the current call stack, outermost frame first.
func (a *Analysis) Stack() []*StackFrame {
	return a.stack
}

// Steps is the number of instructions executed so far.
func (a *Analysis) Steps() int {
	return a.steps
}

// Metrics returns the metrics collector, which may be nil.
func (a *Analysis) Metrics() *Metrics {
	return a.metrics
}
