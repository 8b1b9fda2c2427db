// Package frontend turns JavaScript source text into the syntax trees the
// analysis runs on. It parses with tree-sitter, matches the two versions of
// a file to classify changed nodes, and applies unified patches.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"go.uber.org/zap"

	"github.com/cs-au-dk/semdiff/analysis/ast"
)

var ErrParse = errors.New("frontend: parse failed")

// Parser lowers tree-sitter JavaScript trees into ast nodes. Programs parsed
// by the same Parser draw node ids from one counter.
type Parser struct {
	ids ast.IDs
	log *zap.Logger
}

func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("frontend")}
}

// Parse parses one file. Syntax errors do not fail the parse; erroneous
// regions are lowered to Unsupported nodes.
func (p *Parser) Parse(ctx context.Context, name string, src []byte) (*ast.Program, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		p.log.Warn("syntax errors, affected regions are not analyzed", zap.String("file", name))
	}

	l := &lowerer{src: src, ids: &p.ids, log: p.log}
	prog := l.node(ast.KProgram, root)
	prog.Children = l.stmts(root)

	p.log.Debug("parsed", zap.String("file", name), zap.Int("bytes", len(src)))
	return ast.NewProgram(name, src, prog), nil
}

type lowerer struct {
	src []byte
	ids *ast.IDs
	log *zap.Logger
}

func (l *lowerer) node(kind ast.Kind, n *sitter.Node, children ...*ast.Node) *ast.Node {
	return &ast.Node{
		ID:   l.ids.Next(),
		Kind: kind,
		Span: ast.Span{
			Line:   int(n.StartPoint().Row) + 1,
			Offset: int(n.StartByte()),
			Length: int(n.EndByte() - n.StartByte()),
		},
		Children: children,
	}
}

func (l *lowerer) text(n *sitter.Node) string {
	return n.Content(l.src)
}

func (l *lowerer) unsupported(n *sitter.Node) *ast.Node {
	l.log.Debug("unsupported syntax", zap.String("type", n.Type()), zap.Uint32("line", n.StartPoint().Row+1))
	u := l.node(ast.KUnsupported, n)
	u.Value = l.text(n)
	return u
}

// named returns the named children of n, skipping comments.
func named(n *sitter.Node) (res []*sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() != "comment" {
			res = append(res, c)
		}
	}
	return
}

func (l *lowerer) stmts(n *sitter.Node) (res []*ast.Node) {
	for _, c := range named(n) {
		if s := l.stmt(c); s != nil {
			res = append(res, s)
		}
	}
	return
}

func (l *lowerer) block(n *sitter.Node) *ast.Node {
	b := l.node(ast.KBlock, n)
	b.Children = l.stmts(n)
	return b
}

func (l *lowerer) stmt(n *sitter.Node) *ast.Node {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "expression_statement":
		s := l.node(ast.KExprStmt, n)
		s.Children = []*ast.Node{l.expr(named(n)[0])}
		return s

	case "variable_declaration", "lexical_declaration":
		return l.declaration(n)

	case "function_declaration":
		return l.function(n, true)

	case "return_statement":
		s := l.node(ast.KReturn, n)
		if cs := named(n); len(cs) > 0 {
			s.Children = []*ast.Node{l.expr(cs[0])}
		}
		return s

	case "if_statement":
		s := l.node(ast.KIf, n)
		s.Children = []*ast.Node{
			l.condition(n.ChildByFieldName("condition")),
			l.stmtOrEmpty(n.ChildByFieldName("consequence")),
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			// else_clause wraps the statement.
			if cs := named(alt); len(cs) > 0 {
				alt = cs[0]
			}
			s.Children = append(s.Children, l.stmtOrEmpty(alt))
		}
		return s

	case "while_statement":
		s := l.node(ast.KWhile, n)
		s.Children = []*ast.Node{
			l.condition(n.ChildByFieldName("condition")),
			l.stmtOrEmpty(n.ChildByFieldName("body")),
		}
		return s

	case "do_statement":
		s := l.node(ast.KDoWhile, n)
		s.Children = []*ast.Node{
			l.stmtOrEmpty(n.ChildByFieldName("body")),
			l.condition(n.ChildByFieldName("condition")),
		}
		return s

	case "for_statement":
		return l.forStmt(n)

	case "break_statement":
		return l.node(ast.KBreak, n)

	case "continue_statement":
		return l.node(ast.KContinue, n)

	case "throw_statement":
		s := l.node(ast.KThrow, n)
		s.Children = []*ast.Node{l.expr(named(n)[0])}
		return s

	case "try_statement":
		s := l.node(ast.KTry, n)
		s.Children = []*ast.Node{l.block(n.ChildByFieldName("body"))}
		if h := n.ChildByFieldName("handler"); h != nil {
			s.Children = append(s.Children, l.block(h.ChildByFieldName("body")))
		} else {
			s.Children = append(s.Children, l.node(ast.KEmpty, n))
		}
		if f := n.ChildByFieldName("finalizer"); f != nil {
			s.Children = append(s.Children, l.block(f.ChildByFieldName("body")))
		}
		return s

	case "statement_block":
		return l.block(n)

	case "empty_statement":
		return l.node(ast.KEmpty, n)

	case "labeled_statement":
		return l.stmt(n.ChildByFieldName("body"))

	case "comment":
		return nil
	}

	return l.unsupported(n)
}

func (l *lowerer) stmtOrEmpty(n *sitter.Node) *ast.Node {
	if s := l.stmt(n); s != nil {
		return s
	}
	return &ast.Node{ID: l.ids.Next(), Kind: ast.KEmpty}
}

// condition lowers the parenthesized test of a statement. The parentheses
// belong to the statement syntax and are dropped.
func (l *lowerer) condition(n *sitter.Node) *ast.Node {
	if n.Type() == "parenthesized_expression" {
		if cs := named(n); len(cs) == 1 {
			return l.expr(cs[0])
		}
	}
	return l.expr(n)
}

func (l *lowerer) declaration(n *sitter.Node) *ast.Node {
	s := l.node(ast.KVar, n)
	s.Op = "var"
	if n.Type() == "lexical_declaration" {
		s.Op = l.text(n.Child(0))
	}
	for _, c := range named(n) {
		if c.Type() != "variable_declarator" {
			continue
		}
		name := c.ChildByFieldName("name")
		if name.Type() != "identifier" {
			return l.unsupported(n)
		}
		d := l.node(ast.KDeclarator, c, l.name(name))
		if v := c.ChildByFieldName("value"); v != nil {
			d.Children = append(d.Children, l.expr(v))
		}
		s.Children = append(s.Children, d)
	}
	return s
}

func (l *lowerer) forStmt(n *sitter.Node) *ast.Node {
	s := l.node(ast.KFor, n)

	var init *ast.Node
	switch i := n.ChildByFieldName("initializer"); {
	case i == nil || i.Type() == "empty_statement" || i.Type() == ";":
		init = l.node(ast.KEmpty, n)
	case i.Type() == "expression_statement":
		init = l.stmt(i)
	case i.Type() == "variable_declaration" || i.Type() == "lexical_declaration":
		init = l.declaration(i)
	default:
		// Newer grammars attach the bare expression.
		init = l.node(ast.KExprStmt, i, l.expr(i))
	}

	var test *ast.Node
	switch c := n.ChildByFieldName("condition"); {
	case c == nil || c.Type() == "empty_statement" || c.Type() == ";":
		test = l.node(ast.KEmpty, n)
	case c.Type() == "expression_statement":
		test = l.expr(named(c)[0])
	default:
		test = l.expr(c)
	}

	update := l.node(ast.KEmpty, n)
	if u := n.ChildByFieldName("increment"); u != nil {
		update = l.expr(u)
	}

	s.Children = []*ast.Node{init, test, update, l.stmtOrEmpty(n.ChildByFieldName("body"))}
	return s
}

func (l *lowerer) name(n *sitter.Node) *ast.Node {
	id := l.node(ast.KName, n)
	id.Name = l.text(n)
	return id
}

func (l *lowerer) function(n *sitter.Node, decl bool) *ast.Node {
	fn := l.node(ast.KFunction, n)
	fn.Decl = decl
	if name := n.ChildByFieldName("name"); name != nil {
		fn.Name = l.text(name)
	}

	if p := n.ChildByFieldName("parameter"); p != nil {
		// Arrow function with a single unparenthesized parameter.
		fn.Params = []*ast.Node{l.name(p)}
	} else if ps := n.ChildByFieldName("parameters"); ps != nil {
		for _, p := range named(ps) {
			switch p.Type() {
			case "identifier":
				fn.Params = append(fn.Params, l.name(p))
			case "assignment_pattern":
				if left := p.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
					fn.Params = append(fn.Params, l.name(left))
					continue
				}
				return l.unsupported(n)
			default:
				return l.unsupported(n)
			}
		}
	}

	body := n.ChildByFieldName("body")
	if body.Type() == "statement_block" {
		fn.Children = []*ast.Node{l.block(body)}
	} else {
		// Expression-bodied arrow functions return their body.
		ret := l.node(ast.KReturn, body, l.expr(body))
		fn.Children = []*ast.Node{l.node(ast.KBlock, body, ret)}
	}
	return fn
}

func (l *lowerer) binaryLike(kind ast.Kind, n *sitter.Node, left, right string) *ast.Node {
	e := l.node(kind, n)
	if op := n.ChildByFieldName("operator"); op != nil {
		e.Op = l.text(op)
	}
	e.Children = []*ast.Node{
		l.expr(n.ChildByFieldName(left)),
		l.expr(n.ChildByFieldName(right)),
	}
	return e
}

func (l *lowerer) expr(n *sitter.Node) *ast.Node {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "parenthesized_expression":
		cs := named(n)
		if len(cs) != 1 {
			return l.unsupported(n)
		}
		return l.node(ast.KParen, n, l.expr(cs[0]))

	case "identifier", "shorthand_property_identifier", "property_identifier":
		return l.name(n)

	case "number":
		e := l.node(ast.KNumber, n)
		e.Value = l.text(n)
		return e

	case "string":
		e := l.node(ast.KString, n)
		e.Value = unquote(l.text(n))
		return e

	case "template_string":
		for _, c := range named(n) {
			if c.Type() == "template_substitution" {
				return l.unsupported(n)
			}
		}
		e := l.node(ast.KString, n)
		e.Value = strings.Trim(l.text(n), "`")
		return e

	case "true", "false", "null", "this", "undefined":
		e := l.node(ast.KKeyword, n)
		e.Op = n.Type()
		return e

	case "assignment_expression":
		e := l.binaryLike(ast.KAssign, n, "left", "right")
		e.Op = "="
		return e

	case "augmented_assignment_expression":
		return l.binaryLike(ast.KAssign, n, "left", "right")

	case "binary_expression":
		return l.binaryLike(ast.KBinary, n, "left", "right")

	case "update_expression":
		e := l.node(ast.KUpdate, n)
		e.Op = l.text(n.ChildByFieldName("operator"))
		e.Value = "postfix"
		if first := n.Child(0); first.Type() == "++" || first.Type() == "--" {
			e.Value = "prefix"
		}
		e.Children = []*ast.Node{l.expr(n.ChildByFieldName("argument"))}
		return e

	case "unary_expression":
		e := l.node(ast.KUnary, n)
		e.Op = l.text(n.ChildByFieldName("operator"))
		e.Children = []*ast.Node{l.expr(n.ChildByFieldName("argument"))}
		return e

	case "ternary_expression":
		e := l.node(ast.KConditional, n)
		e.Children = []*ast.Node{
			l.expr(n.ChildByFieldName("condition")),
			l.expr(n.ChildByFieldName("consequence")),
			l.expr(n.ChildByFieldName("alternative")),
		}
		return e

	case "call_expression", "new_expression":
		kind, callee := ast.KCall, "function"
		if n.Type() == "new_expression" {
			kind, callee = ast.KNew, "constructor"
		}
		e := l.node(kind, n, l.expr(n.ChildByFieldName(callee)))
		if args := n.ChildByFieldName("arguments"); args != nil {
			if args.Type() != "arguments" {
				return l.unsupported(n)
			}
			for _, a := range named(args) {
				e.Children = append(e.Children, l.expr(a))
			}
		}
		return e

	case "member_expression":
		prop := n.ChildByFieldName("property")
		if prop.Type() != "property_identifier" {
			return l.unsupported(n)
		}
		return l.node(ast.KMember, n, l.expr(n.ChildByFieldName("object")), l.name(prop))

	case "subscript_expression":
		return l.node(ast.KIndex, n,
			l.expr(n.ChildByFieldName("object")),
			l.expr(n.ChildByFieldName("index")))

	case "object":
		return l.object(n)

	case "array":
		e := l.node(ast.KArray, n)
		for _, c := range named(n) {
			e.Children = append(e.Children, l.expr(c))
		}
		return e

	case "sequence_expression":
		e := l.node(ast.KSequence, n)
		var flatten func(*sitter.Node)
		flatten = func(s *sitter.Node) {
			for _, c := range named(s) {
				if c.Type() == "sequence_expression" {
					flatten(c)
				} else {
					e.Children = append(e.Children, l.expr(c))
				}
			}
		}
		flatten(n)
		return e

	case "function", "function_expression", "arrow_function":
		return l.function(n, false)
	}

	return l.unsupported(n)
}

func (l *lowerer) object(n *sitter.Node) *ast.Node {
	e := l.node(ast.KObject, n)
	for _, c := range named(n) {
		switch c.Type() {
		case "pair":
			key := c.ChildByFieldName("key")
			switch key.Type() {
			case "property_identifier", "string", "number":
			default:
				return l.unsupported(n)
			}
			e.Children = append(e.Children,
				l.node(ast.KProperty, c, l.expr(key), l.expr(c.ChildByFieldName("value"))))
		case "shorthand_property_identifier":
			e.Children = append(e.Children, l.node(ast.KProperty, c, l.name(c), l.name(c)))
		default:
			return l.unsupported(n)
		}
	}
	return e
}

func unquote(s string) string {
	if len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	return strings.NewReplacer(`\"`, `"`, `\'`, `'`, `\\`, `\`, `\n`, "\n", `\t`, "\t").Replace(s)
}
