package ast

import (
	"strconv"
	"strings"
)

// Print renders a node back to JavaScript-like source text. Nested function
// bodies are elided.
func Print(n *Node) string {
	var b strings.Builder
	printNode(&b, n)
	return b.String()
}

func printList(b *strings.Builder, ns []*Node, sep string) {
	for i, c := range ns {
		if i > 0 {
			b.WriteString(sep)
		}
		printNode(b, c)
	}
}

func printNode(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case KProgram, KBlock:
		b.WriteString("{ ")
		for _, c := range n.Children {
			printNode(b, c)
			b.WriteString(" ")
		}
		b.WriteString("}")
	case KEmpty:
		b.WriteString(";")
	case KExprStmt:
		printNode(b, n.Child(0))
		b.WriteString(";")
	case KVar:
		b.WriteString(n.Op + " ")
		printList(b, n.Children, ", ")
		b.WriteString(";")
	case KDeclarator:
		printNode(b, n.Child(0))
		if init := n.Child(1); init != nil {
			b.WriteString(" = ")
			printNode(b, init)
		}
	case KReturn:
		b.WriteString("return")
		if v := n.Child(0); v != nil {
			b.WriteString(" ")
			printNode(b, v)
		}
		b.WriteString(";")
	case KIf:
		b.WriteString("if (")
		printNode(b, n.Child(0))
		b.WriteString(") ")
		printNode(b, n.Child(1))
		if alt := n.Child(2); alt != nil {
			b.WriteString(" else ")
			printNode(b, alt)
		}
	case KWhile:
		b.WriteString("while (")
		printNode(b, n.Child(0))
		b.WriteString(") ")
		printNode(b, n.Child(1))
	case KDoWhile:
		b.WriteString("do ")
		printNode(b, n.Child(0))
		b.WriteString(" while (")
		printNode(b, n.Child(1))
		b.WriteString(");")
	case KFor:
		b.WriteString("for (")
		for i := 0; i < 3; i++ {
			if c := n.Child(i); c != nil && c.Kind != KEmpty {
				s := Print(c)
				b.WriteString(strings.TrimSuffix(s, ";"))
			}
			if i < 2 {
				b.WriteString("; ")
			}
		}
		b.WriteString(") ")
		printNode(b, n.Child(3))
	case KBreak:
		b.WriteString("break;")
	case KContinue:
		b.WriteString("continue;")
	case KThrow:
		b.WriteString("throw ")
		printNode(b, n.Child(0))
		b.WriteString(";")
	case KTry:
		b.WriteString("try ")
		printNode(b, n.Child(0))
		if h := n.Child(1); h != nil && h.Kind != KEmpty {
			b.WriteString(" catch ")
			printNode(b, h)
		}
		if f := n.Child(2); f != nil {
			b.WriteString(" finally ")
			printNode(b, f)
		}
	case KFunction:
		b.WriteString("function")
		if n.Name != "" {
			b.WriteString(" " + n.Name)
		}
		b.WriteString("(")
		printList(b, n.Params, ", ")
		b.WriteString(") {...}")
	case KAssign:
		printNode(b, n.Child(0))
		b.WriteString(" " + n.Op + " ")
		printNode(b, n.Child(1))
	case KUpdate:
		if n.Value == "prefix" {
			b.WriteString(n.Op)
			printNode(b, n.Child(0))
		} else {
			printNode(b, n.Child(0))
			b.WriteString(n.Op)
		}
	case KUnary:
		b.WriteString(n.Op)
		if len(n.Op) > 1 {
			b.WriteString(" ")
		}
		if n.Synthetic {
			b.WriteString("(")
			printNode(b, n.Child(0))
			b.WriteString(")")
		} else {
			printNode(b, n.Child(0))
		}
	case KBinary:
		printNode(b, n.Child(0))
		b.WriteString(" " + n.Op + " ")
		printNode(b, n.Child(1))
	case KConditional:
		printNode(b, n.Child(0))
		b.WriteString(" ? ")
		printNode(b, n.Child(1))
		b.WriteString(" : ")
		printNode(b, n.Child(2))
	case KCall, KNew:
		if n.Kind == KNew {
			b.WriteString("new ")
		}
		printNode(b, n.Callee())
		b.WriteString("(")
		printList(b, n.Args(), ", ")
		b.WriteString(")")
	case KMember:
		printNode(b, n.Child(0))
		b.WriteString(".")
		printNode(b, n.Child(1))
	case KIndex:
		printNode(b, n.Child(0))
		b.WriteString("[")
		printNode(b, n.Child(1))
		b.WriteString("]")
	case KName:
		b.WriteString(n.Name)
	case KNumber:
		b.WriteString(n.Value)
	case KString:
		b.WriteString(strconv.Quote(n.Value))
	case KKeyword:
		b.WriteString(n.Op)
	case KObject:
		b.WriteString("{")
		printList(b, n.Children, ", ")
		b.WriteString("}")
	case KProperty:
		printNode(b, n.Child(0))
		b.WriteString(": ")
		printNode(b, n.Child(1))
	case KArray:
		b.WriteString("[")
		printList(b, n.Children, ", ")
		b.WriteString("]")
	case KParen:
		b.WriteString("(")
		printNode(b, n.Child(0))
		b.WriteString(")")
	case KSequence:
		printList(b, n.Children, ", ")
	case KUnsupported:
		b.WriteString(n.Value)
	}
}
