package utils

import (
	"flag"
	"fmt"
	"log"
	"strings"
)

type options struct {
	maxSliceDepth   uint
	maxAddresses    uint
	statementBudget uint
	outputFormat    string
	configPath      string
	solverPath      string
	task            string
	logai           bool
	metrics         bool
	noColorize      bool
	verbose         bool
	visualize       bool
	noVerify        bool
	json            bool
}

const (
	_ANALYZE = iota
	_CFG_TO_DOT
	_PARSE
	_MATCH
)

var task = []struct{ flag, explanation string }{{
	"analyze",
	"Run the differential change-impact analysis and print the annotation fact base",
}, {
	"cfg-to-dot",
	"Create a graph for the control-flow graphs of the source file",
}, {
	"parse",
	"Print the syntax tree produced by the frontend",
}, {
	"match",
	"Print the change classification produced by the tree matcher",
}}

func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%v", len(is)), is...)
		}
	}
	return col
}

var opts = &options{}

type optInterface struct{}

type taskInterface struct{}

func Opts() optInterface {
	return optInterface{}
}

func (optInterface) NoColorize() bool {
	return opts.noColorize
}

func (optInterface) SetNoColorize(b bool) {
	opts.noColorize = b
}

func (optInterface) MaxSliceDepth() int {
	return int(opts.maxSliceDepth)
}

func (optInterface) MaxAddresses() int {
	return int(opts.maxAddresses)
}

func (optInterface) StatementBudget() int {
	return int(opts.statementBudget)
}

// SetMaxAddresses changes the size at which address sets collapse.
func (optInterface) SetMaxAddresses(n int) {
	opts.maxAddresses = uint(max(n, 0))
}

func (optInterface) OutputFormat() string {
	return opts.outputFormat
}

func (optInterface) ConfigPath() string {
	return opts.configPath
}

func (optInterface) SolverPath() string {
	return opts.solverPath
}

func (optInterface) LogAI() bool {
	return opts.logai
}

func (optInterface) Metrics() bool {
	return opts.metrics
}

func (optInterface) Verbose() bool {
	return opts.verbose
}

func (optInterface) Visualize() bool {
	return opts.visualize
}

func (optInterface) NoVerify() bool {
	return opts.noVerify
}

func (optInterface) JSON() bool {
	return opts.json
}

func (optInterface) Task() taskInterface {
	return taskInterface{}
}

func (taskInterface) IsAnalyze() bool {
	return opts.task == task[_ANALYZE].flag
}

func (taskInterface) IsCfgToDot() bool {
	return opts.task == task[_CFG_TO_DOT].flag
}

func (taskInterface) IsParse() bool {
	return opts.task == task[_PARSE].flag
}

func (taskInterface) IsMatch() bool {
	return opts.task == task[_MATCH].flag
}

// Name is the flag name of the selected task.
func (taskInterface) Name() string {
	return opts.task
}

// Explanation describes a task for command help.
func (taskInterface) Explanation(name string) string {
	for _, t := range task {
		if t.flag == name {
			return t.explanation
		}
	}
	return ""
}

func (taskInterface) Set(name string) error {
	for _, t := range task {
		if t.flag == name {
			opts.task = name
			return nil
		}
	}
	return fmt.Errorf("value %q is not a valid task", name)
}

func (optInterface) OnVerbose(do func()) {
	if Opts().Verbose() {
		do()
	}
}

// RegisterFlags installs the analysis options on the given flag set.
// The task is chosen by the command instead of a flag.
func RegisterFlags(fs *flag.FlagSet) {
	fs.UintVar(&(opts.maxSliceDepth), "max-depth", 3, "Maximum number of statements in a verification slice.")
	fs.UintVar(&(opts.maxAddresses), "max-addresses", 10, "Size of an address set before it collapses to top.")
	fs.UintVar(&(opts.statementBudget), "budget", 0, "Maximum number of instructions per analysis (0 means unlimited).")
	fs.StringVar(&(opts.outputFormat), "format", "svg", "output file format [svg | png | jpg | ...]")
	fs.StringVar(&(opts.configPath), "config", "", "path to a YAML configuration file")
	fs.StringVar(&(opts.solverPath), "solver", "", "path to the CVC4 executable (overrides the configuration)")
	fs.BoolVar(&(opts.logai), "ai-logging", false, "Enable logging of specific events during abstract interpretation")
	fs.BoolVar(&(opts.metrics), "metrics", false, "Print analysis and solver metrics after the run")
	fs.BoolVar(&(opts.noColorize), "no-colorize", false, "Disable pretty printer colorization")
	fs.BoolVar(&(opts.verbose), "verbose", false, "enable verbose output")
	fs.BoolVar(&(opts.visualize), "visualize", false, "render control-flow graphs with graphviz")
	fs.BoolVar(&(opts.noVerify), "no-verify", false, "skip solver-backed verification of changed values")
	fs.BoolVar(&(opts.json), "json", false, "print the fact base as JSON")
}

func init() {
	opts.maxSliceDepth = 3
	opts.maxAddresses = 10
	opts.outputFormat = "svg"
	opts.task = task[_ANALYZE].flag

	// Set up logging
	log.SetFlags(log.Ltime | log.Lshortfile)
}
