package absint

import (
	"go.uber.org/zap"

	"github.com/cs-au-dk/semdiff/analysis/cfg"
)

// Config parameterizes an analysis. The zero value is usable.
type Config struct {
	Log *zap.Logger
	// Budget bounds the number of instructions executed. Zero means no bound.
	Budget int
	// OnNode, if set, may replace the post state of every node before it is
	// propagated.
	OnNode func(*cfg.Node, State) State
	// Metrics, if set, collects execution metrics.
	Metrics *Metrics
}
