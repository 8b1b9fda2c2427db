package absint

import (
	"fmt"
	"time"

	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
)

type (
	// Metrics encodes mechanisms for logging execution metrics. A nil
	// Metrics records nothing.
	Metrics struct {
		callsiteCallees   map[int]int
		expandedFunctions map[*cfg.CFG]int
		instructions      int
		framesPushed      int
		summariesUsed     int
		swept             int
		time              time.Duration
		timer             time.Time
		Outcome           string
		errorMsg          interface{}
	}
)

// Encoding of metric outcomes.
var (
	OUTCOME_DONE     = "Done"
	OUTCOME_BUDGET   = "Budget exhausted"
	OUTCOME_PANIC    = "Panicked"
	OUTCOME_UNSTATED = ""
)

// NewMetrics returns an empty Metrics object.
func NewMetrics() *Metrics {
	return &Metrics{
		callsiteCallees:   make(map[int]int),
		expandedFunctions: make(map[*cfg.CFG]int),
	}
}

// Enabled checks whether the Metrics object is available.
func (m *Metrics) Enabled() bool {
	return m != nil
}

// addCallees registers the number of callees resolved at a call site.
func (m *Metrics) addCallees(fc *ast.Node, n int) {
	if m == nil {
		return
	}
	m.callsiteCallees[fc.ID] = max(m.callsiteCallees[fc.ID], n)
}

// expandFunction registers that a frame was pushed for the function.
func (m *Metrics) expandFunction(c *cfg.CFG) {
	if m == nil {
		return
	}
	m.framesPushed++
	m.expandedFunctions[c]++
}

func (m *Metrics) instruction() {
	if m == nil {
		return
	}
	m.instructions++
}

func (m *Metrics) summaryUsed() {
	if m == nil {
		return
	}
	m.summariesUsed++
}

func (m *Metrics) sweep() {
	if m == nil {
		return
	}
	m.swept++
}

// TimerStart starts a timer before the analysis runs.
func (m *Metrics) TimerStart() {
	if m == nil {
		return
	}

	m.timer = time.Now()
}

// timerStop stops the timer and registers the duration of the analysis.
func (m *Metrics) timerStop() {
	if m == nil {
		return
	}

	m.time = time.Since(m.timer)
}

// Functions returns how often every function was expanded.
func (m *Metrics) Functions() map[*cfg.CFG]int {
	if m == nil {
		return nil
	}

	return m.expandedFunctions
}

// Instructions is the number of instructions executed.
func (m *Metrics) Instructions() int {
	if m == nil {
		return 0
	}
	return m.instructions
}

// FramesPushed is the number of stack frames pushed, including the frame
// of the script and of swept functions.
func (m *Metrics) FramesPushed() int {
	if m == nil {
		return 0
	}
	return m.framesPushed
}

// SummariesUsed is the number of calls answered without pushing a frame.
func (m *Metrics) SummariesUsed() int {
	if m == nil {
		return 0
	}
	return m.summariesUsed
}

// Swept is the number of functions analyzed by the reachable-function sweep.
func (m *Metrics) Swept() int {
	if m == nil {
		return 0
	}
	return m.swept
}

// MaxCallees is the largest number of callees resolved at any call site.
func (m *Metrics) MaxCallees() (res int) {
	if m == nil {
		return 0
	}
	for _, n := range m.callsiteCallees {
		res = max(res, n)
	}
	return
}

// Duration is the time the analysis took.
func (m *Metrics) Duration() time.Duration {
	if m == nil {
		return 0
	}
	return m.time
}

// Performance logs how fast the analysis ran.
func (m *Metrics) Performance() string {
	if m == nil {
		return "- no metrics gathered -"
	}

	return m.time.String()
}

// Panic instructs that an analysis threw an exception.
func (m *Metrics) Panic(err interface{}) {
	if m == nil || m.Outcome != OUTCOME_UNSTATED {
		return
	}

	m.Outcome = OUTCOME_PANIC
	m.timerStop()
	m.errorMsg = err
}

// Done instructs that the analysis is done, and whether it ran out of
// budget.
func (m *Metrics) Done(exhausted bool) {
	if m == nil || m.Outcome != OUTCOME_UNSTATED {
		return
	}

	m.timerStop()
	if exhausted {
		m.Outcome = OUTCOME_BUDGET
	} else {
		m.Outcome = OUTCOME_DONE
	}
}

// Error prints the error message resulting from running the analysis.
func (m *Metrics) Error() string {
	if m == nil {
		return ""
	}

	return fmt.Sprint(m.errorMsg)
}

func (m *Metrics) String() string {
	if m == nil {
		return "- no metrics gathered -"
	}
	return fmt.Sprintf("%s: %d instructions, %d frames, %d summaries, %d swept in %s",
		m.Outcome, m.instructions, m.framesPushed, m.summariesUsed, m.swept, m.time)
}
