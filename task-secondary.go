package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/utils"
	i "github.com/cs-au-dk/semdiff/utils/indenter"
)

// secondaryTask checks whether a task other than the differential analysis
// was selected, and executes it on the file pair.
func (p *pipeline) secondaryTask(w io.Writer, fp *filePair) (bool, error) {
	switch {
	// parse : prints the syntax trees of both versions.
	case task.IsParse():
		for _, prog := range []*ast.Program{fp.src, fp.dst} {
			fmt.Fprintln(w, utils.CanColorize(color.New(color.Bold).SprintFunc())(prog.Name))
			fmt.Fprintln(w, treeString(prog.Root))
		}
		return true, nil

	// match : prints every node the tree matcher classified as changed.
	case task.IsMatch():
		printChanges(w, fp.src, ast.Removed)
		printChanges(w, fp.dst, ast.Inserted, ast.Updated, ast.Moved)
		return true, nil

	// cfg-to-dot : renders the control-flow graphs of the source version.
	case task.IsCfgToDot():
		set := cfg.Build(fp.src)
		opts.OnVerbose(func() {
			for _, c := range set.All() {
				fmt.Fprintln(w, c.Dump())
			}
		})
		img, err := set.Visualize(strings.TrimSuffix(fp.src.Name, ".js") + "-cfg")
		if err != nil {
			return true, err
		}
		fmt.Fprintln(w, img)
		return true, nil

	case !task.IsAnalyze():
		return true, fmt.Errorf("unknown task %q", task.Name())
	}
	return false, nil
}

func treeString(n *ast.Node) string {
	head := n.Kind.String()
	switch {
	case n.Name != "":
		head += " " + n.Name
	case n.Value != "":
		head += " " + n.Value
	case n.Op != "":
		head += " " + n.Op
	}
	head += fmt.Sprintf(" #%d", n.ID)

	children := append(append([]*ast.Node{}, n.Params...), n.Children...)
	if len(children) == 0 {
		return head
	}

	thunks := make([]func() string, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		c := c
		thunks = append(thunks, func() string { return treeString(c) })
	}
	return i.Indenter().Start(head + " {").NestThunked(thunks...).End("}")
}

func printChanges(w io.Writer, prog *ast.Program, kinds ...ast.ChangeType) {
	colorize := map[ast.ChangeType]func(...interface{}) string{
		ast.Inserted: color.New(color.FgGreen).SprintFunc(),
		ast.Removed:  color.New(color.FgRed).SprintFunc(),
		ast.Updated:  color.New(color.FgYellow).SprintFunc(),
		ast.Moved:    color.New(color.FgCyan).SprintFunc(),
	}

	for _, n := range prog.Nodes() {
		for _, k := range kinds {
			if n.Change != k {
				continue
			}
			fmt.Fprintf(w, "%s:%d %s %s\n",
				prog.Name, n.Span.Line, utils.CanColorize(colorize[k])(k), utils.StmtString(ast.Print(n)))
		}
	}
}
