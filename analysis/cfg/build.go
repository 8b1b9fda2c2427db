package cfg

import "github.com/cs-au-dk/semdiff/analysis/ast"

// pending is an edge whose target is not known yet.
type pending struct {
	from *Node
	cond *ast.Node
	loop bool
}

type loopCtx struct {
	breaks    []pending
	continues []pending
}

type counters struct {
	cfgs, nodes, edges int
}

type builder struct {
	cfg   *CFG
	ctr   *counters
	loops []*loopCtx
	// Negations are shared so that every false edge of a test carries the
	// same synthetic node.
	negations map[*ast.Node]*ast.Node
}

// Build constructs the graph of the script and of every function in p.
func Build(p *ast.Program) *Set {
	s := &Set{Program: p, byFun: make(map[*ast.Node]*CFG)}
	ctr := &counters{}
	negations := make(map[*ast.Node]*ast.Node)

	for _, fn := range append([]*ast.Node{p.Root}, p.Functions()...) {
		b := &builder{ctr: ctr, negations: negations}
		s.add(b.build(fn))
	}
	s.script = s.cfgs[0]
	return s
}

func (b *builder) build(fn *ast.Node) *CFG {
	c := &CFG{ID: b.ctr.cfgs, Function: fn}
	b.ctr.cfgs++
	b.cfg = c

	c.Entry = b.node(EntryNode, fn, fn)
	c.Exit = b.newNode(ExitNode, fn, fn)

	stmts := fn.Children
	if fn.Kind == ast.KFunction {
		stmts = fn.Body().Children
	}
	out := b.stmts(stmts, []pending{{from: c.Entry}})

	c.Nodes = append(c.Nodes, c.Exit)
	b.connect(out, c.Exit)
	return c
}

func (b *builder) newNode(kind NodeKind, stmt, origin *ast.Node) *Node {
	n := &Node{ID: b.ctr.nodes, Kind: kind, Stmt: stmt, Origin: origin, CFG: b.cfg}
	b.ctr.nodes++
	return n
}

func (b *builder) node(kind NodeKind, stmt, origin *ast.Node) *Node {
	n := b.newNode(kind, stmt, origin)
	b.cfg.Nodes = append(b.cfg.Nodes, n)
	return n
}

// connect links every pending edge to the target.
func (b *builder) connect(in []pending, to *Node) {
	for _, p := range in {
		e := &Edge{ID: b.ctr.edges, From: p.from, To: to, Condition: p.cond, Loop: p.loop}
		b.ctr.edges++
		p.from.Out = append(p.from.Out, e)
		to.In = append(to.In, e)
		b.cfg.Edges = append(b.cfg.Edges, e)
	}
}

func (b *builder) negate(test *ast.Node) *ast.Node {
	if neg, ok := b.negations[test]; ok {
		return neg
	}
	neg := &ast.Node{
		ID:        -test.ID,
		Kind:      ast.KUnary,
		Op:        "!",
		Children:  []*ast.Node{test},
		Span:      test.Span,
		Synthetic: true,
		Parent:    test.Parent,
	}
	b.negations[test] = neg
	return neg
}

func (b *builder) stmts(ss []*ast.Node, in []pending) []pending {
	for _, s := range ss {
		in = b.stmt(s, in)
	}
	return in
}

// simple adds a node for a statement without internal control flow.
func (b *builder) simple(stmt, origin *ast.Node, in []pending) *Node {
	n := b.node(StatementNode, stmt, origin)
	b.connect(in, n)
	return n
}

func (b *builder) branch(test, origin *ast.Node, in []pending) *Node {
	n := b.node(BranchNode, test, origin)
	b.connect(in, n)
	return n
}

func (b *builder) join(origin *ast.Node, in []pending) *Node {
	n := b.node(JoinNode, nil, origin)
	b.connect(in, n)
	return n
}

func (b *builder) pushLoop() *loopCtx {
	ctx := &loopCtx{}
	b.loops = append(b.loops, ctx)
	return ctx
}

func (b *builder) popLoop() {
	b.loops = b.loops[:len(b.loops)-1]
}

// stmt adds the nodes of s and returns the edges leaving it. Statements
// without incoming edges are unreachable and are not materialized.
func (b *builder) stmt(s *ast.Node, in []pending) []pending {
	if s == nil || len(in) == 0 {
		return nil
	}

	switch s.Kind {
	case ast.KBlock:
		return b.stmts(s.Children, in)

	case ast.KEmpty, ast.KFunction:
		// Function declarations are hoisted at function entry.
		return in

	case ast.KReturn, ast.KThrow:
		n := b.simple(s, s, in)
		b.connect([]pending{{from: n}}, b.cfg.Exit)
		return nil

	case ast.KIf:
		test := s.Child(0)
		br := b.branch(test, s, in)
		out := b.stmt(s.Child(1), []pending{{from: br, cond: test}})
		els := []pending{{from: br, cond: b.negate(test)}}
		if alt := s.Child(2); alt != nil {
			els = b.stmt(alt, els)
		}
		return append(out, els...)

	case ast.KWhile:
		test := s.Child(0)
		head := b.branch(test, s, in)
		ctx := b.pushLoop()
		body := b.stmt(s.Child(1), []pending{{from: head, cond: test, loop: true}})
		b.popLoop()
		b.connect(append(body, ctx.continues...), head)
		return append([]pending{{from: head, cond: b.negate(test)}}, ctx.breaks...)

	case ast.KDoWhile:
		head := b.join(s, in)
		ctx := b.pushLoop()
		body := b.stmt(s.Child(0), []pending{{from: head, loop: true}})
		b.popLoop()
		body = append(body, ctx.continues...)
		if len(body) == 0 {
			return ctx.breaks
		}
		test := s.Child(1)
		cond := b.branch(test, s, body)
		b.connect([]pending{{from: cond, cond: test}}, head)
		return append([]pending{{from: cond, cond: b.negate(test)}}, ctx.breaks...)

	case ast.KFor:
		if init := s.Child(0); init != nil && init.Kind != ast.KEmpty {
			in = []pending{{from: b.simple(init, s, in)}}
		}

		var head *Node
		enter := pending{loop: true}
		test := s.Child(1)
		if test != nil && test.Kind != ast.KEmpty {
			head = b.branch(test, s, in)
			enter.cond = test
		} else {
			test = nil
			head = b.join(s, in)
		}
		enter.from = head

		ctx := b.pushLoop()
		body := b.stmt(s.Child(3), []pending{enter})
		b.popLoop()
		body = append(body, ctx.continues...)
		if update := s.Child(2); update != nil && update.Kind != ast.KEmpty && len(body) > 0 {
			body = []pending{{from: b.simple(update, s, body)}}
		}
		b.connect(body, head)

		out := ctx.breaks
		if test != nil {
			out = append([]pending{{from: head, cond: b.negate(test)}}, out...)
		}
		return out

	case ast.KBreak, ast.KContinue:
		if len(b.loops) == 0 {
			return in
		}
		ctx := b.loops[len(b.loops)-1]
		if s.Kind == ast.KBreak {
			ctx.breaks = append(ctx.breaks, in...)
		} else {
			ctx.continues = append(ctx.continues, in...)
		}
		return nil

	case ast.KTry:
		// Control may leave the protected block at any point. The handler is
		// approximated as reachable from the start of the block.
		out := b.stmt(s.Child(0), in)
		if h := s.Child(1); h != nil && h.Kind != ast.KEmpty {
			out = append(out, b.stmt(h, in)...)
		}
		if f := s.Child(2); f != nil {
			out = b.stmt(f, out)
		}
		return out
	}

	return []pending{{from: b.simple(s, s, in)}}
}
