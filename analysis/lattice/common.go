// Package lattice holds the abstract domains of the change-impact analysis:
// the primitive value lattices, addresses, the change taint, provenance
// criteria and the BValue tuple combining them.
package lattice

import (
	"fmt"

	"github.com/cs-au-dk/semdiff/utils"

	"github.com/fatih/color"
)

var opts = utils.Opts()

var colorize = struct {
	Element func(...interface{}) string
	Const   func(...interface{}) string
	Key     func(...interface{}) string
	Attr    func(...interface{}) string
	Field   func(...interface{}) string
}{
	Element: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgCyan).SprintFunc())(is...)
	},
	Const: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiWhite).SprintFunc())(is...)
	},
	Key: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgYellow).SprintFunc())(is...)
	},
	Attr: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiRed).SprintFunc())(is...)
	},
	Field: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgGreen).SprintFunc())(is...)
	},
}

var errPatternMatch = func(v interface{}) error {
	return fmt.Errorf("invalid pattern match: %v %T", v, v)
}

const (
	topSym = "⊤"
	botSym = "⊥"
)
