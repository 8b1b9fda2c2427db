// Package diff runs the analyses of two versions of a program side by side
// and retracts change impacts the verifier proves spurious.
package diff

import (
	"context"

	"go.uber.org/zap"

	"github.com/cs-au-dk/semdiff/analysis/absint"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/verify"
)

type Options struct {
	Log *zap.Logger
	// Budget bounds the instructions of each analysis. Zero means no bound.
	Budget int
	// Verifier decides verification problems. Without one, no change
	// impact is retracted.
	Verifier verify.Verifier
	// MaxDepth bounds the slices given to the verifier.
	MaxDepth int
	// Renames relates identifiers across the versions.
	Renames *verify.Renames

	SrcMetrics, DstMetrics *absint.Metrics
}

// Driver owns the analyses of the source and destination version. The
// graphs of both versions must be correlated by cfg.Map.
type Driver struct {
	src, dst *absint.Analysis
	task     *verify.Task
	log      *zap.Logger

	ctx      context.Context
	outcomes map[*cfg.Node]verify.Outcome
}

func New(src, dst *cfg.Set, opts Options) *Driver {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	d := &Driver{
		log:      log.Named("diff"),
		ctx:      context.Background(),
		outcomes: make(map[*cfg.Node]verify.Outcome),
	}
	if opts.Verifier != nil {
		d.task = verify.NewTask(opts.Verifier, opts.MaxDepth, opts.Renames, log)
	}

	d.src = absint.New(src, absint.Config{
		Log:     log.With(zap.String("version", "src")),
		Budget:  opts.Budget,
		Metrics: opts.SrcMetrics,
	})
	d.dst = absint.New(dst, absint.Config{
		Log:     log.With(zap.String("version", "dst")),
		Budget:  opts.Budget,
		OnNode:  d.candidate,
		Metrics: opts.DstMetrics,
	})
	return d
}

// candidate verifies the definition of a destination statement that has a
// counterpart in the source.
func (d *Driver) candidate(n *cfg.Node, post absint.State) absint.State {
	if d.task == nil || n.Kind != cfg.StatementNode || n.Mapped == nil {
		return post
	}

	post, outcome := d.task.Check(d.ctx, n.Mapped, d.src.Post, n, post, d.dst.Post)
	if outcome != verify.NotNeeded {
		// A statement reached again keeps its best outcome.
		if old, ok := d.outcomes[n]; !ok || old != verify.Verified {
			d.outcomes[n] = outcome
		}
	}
	return post
}

// Run analyzes the source version to completion, then steps the
// destination version one instruction at a time, verifying candidates as
// their statements complete. It only fails if ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	d.ctx = ctx
	defer func() { d.ctx = context.Background() }()

	for d.src.Step() {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	d.log.Debug("source analysis done", zap.Int("steps", d.src.Steps()))

	for d.dst.Step() {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	d.log.Debug("destination analysis done", zap.Int("steps", d.dst.Steps()))
	return nil
}

func (d *Driver) Src() *absint.Analysis { return d.src }
func (d *Driver) Dst() *absint.Analysis { return d.dst }

// Stats returns the statistics of the verification task.
func (d *Driver) Stats() verify.Stats {
	if d.task == nil {
		return verify.Stats{}
	}
	return d.task.Stats
}

// Outcome reports the verification outcome of a destination node.
func (d *Driver) Outcome(n *cfg.Node) verify.Outcome {
	return d.outcomes[n]
}
