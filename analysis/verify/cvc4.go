package verify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cs-au-dk/semdiff/analysis/ast"
)

var errUntranslatable = errors.New("expression cannot be translated")

const (
	oldSuffix = "o"
	newSuffix = "n"
)

// CVC4 renders the problem in the presentation language of CVC4. Both
// programs are translated to static single assignment form over integers:
// the i'th assignment to x in the old program defines x_o<i>. The query
// holds if the final values of the query variables are equal.
func CVC4(p Problem) (string, error) {
	var b strings.Builder

	for _, suffix := range [...]string{oldSuffix, newSuffix} {
		for _, v := range p.Vars {
			fmt.Fprintf(&b, "%s : INT;\n", ident(v, suffix, 0))
		}
	}

	for _, c := range p.Constraints {
		if c.Op == EQ {
			fmt.Fprintf(&b, "ASSERT (%s = %s);\n", ident(c.Old, oldSuffix, 0), ident(c.New, newSuffix, 0))
		}
	}

	oldQuery, err := translate(&b, p.Old, oldSuffix)
	if err != nil {
		return "", err
	}
	newQuery, err := translate(&b, p.New, newSuffix)
	if err != nil {
		return "", err
	}

	b.WriteString("PUSH;\n")
	fmt.Fprintf(&b, "QUERY (%s = %s);\n", oldQuery, newQuery)
	b.WriteString("POP;\n")
	return b.String(), nil
}

// translate writes the assignments of a slice and returns the identifier
// holding the final value of its query variable.
func translate(b *strings.Builder, s Slice, suffix string) (string, error) {
	counters := map[string]int{}
	for _, st := range s.Steps {
		rhs, err := expression(st.Expr, counters, suffix)
		if err != nil {
			return "", fmt.Errorf("%s: %w", st, err)
		}
		counters[st.Target]++
		fmt.Fprintf(b, "%s : INT = %s;\n", ident(st.Target, suffix, counters[st.Target]), rhs)
	}
	return ident(s.Query, suffix, counters[s.Query]), nil
}

func expression(n *ast.Node, counters map[string]int, suffix string) (string, error) {
	if n == nil {
		return "", errUntranslatable
	}

	switch n.Kind {
	case ast.KNumber:
		if _, err := strconv.ParseInt(n.Value, 10, 64); err != nil {
			return "", fmt.Errorf("%w: number %s", errUntranslatable, n.Value)
		}
		return n.Value, nil
	case ast.KName:
		return ident(n.Name, suffix, counters[n.Name]), nil
	case ast.KParen:
		return expression(n.Child(0), counters, suffix)
	case ast.KUnary:
		e, err := expression(n.Child(0), counters, suffix)
		if err != nil {
			return "", err
		}
		switch n.Op {
		case "-":
			return "(-" + e + ")", nil
		case "+":
			return e, nil
		}
	case ast.KBinary:
		switch n.Op {
		case "+", "-", "*":
			l, err := expression(n.Child(0), counters, suffix)
			if err != nil {
				return "", err
			}
			r, err := expression(n.Child(1), counters, suffix)
			if err != nil {
				return "", err
			}
			return "(" + l + " " + n.Op + " " + r + ")", nil
		}
	}
	return "", fmt.Errorf("%w: %s", errUntranslatable, ast.Print(n))
}

// ident names the version of a variable. Characters CVC4 does not accept
// in identifiers are replaced.
func ident(name, suffix string, version int) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String() + "_" + suffix + strconv.Itoa(version)
}
