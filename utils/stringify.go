package utils

import (
	"fmt"

	"github.com/fatih/color"
)

var funColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiYellow).SprintFunc())(is...)
}
var insColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiWhite, color.Faint).SprintFunc())(is...)
}

// FunString renders a function name for pretty printers. Anonymous functions
// are identified by the line they start on.
func FunString(name string, line int) string {
	if name == "" {
		return funColor(fmt.Sprintf("<anonymous@%d>", line))
	}
	return funColor(name)
}

// StmtString renders a statement snippet, truncated to a single line.
func StmtString(src string) string {
	for i, c := range src {
		if c == '\n' {
			src = src[:i] + " ..."
			break
		}
	}
	return insColor(src)
}
