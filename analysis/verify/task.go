package verify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cs-au-dk/semdiff/analysis/absint"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/lattice"
)

// DefaultMaxDepth bounds the number of statements in a slice.
const DefaultMaxDepth = 3

type Outcome uint8

const (
	// NotNeeded: the statement defines nothing or nothing changed.
	NotNeeded Outcome = iota
	// Verified: both versions define the same value.
	Verified
	// Refuted: the solver could not prove equality at any depth.
	Refuted
	// Failed: no problem could be built or the solver failed.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Verified:
		return "verified"
	case Refuted:
		return "refuted"
	case Failed:
		return "failed"
	}
	return "not needed"
}

// Stats counts the outcomes of a task.
type Stats struct {
	Candidates  int
	Verified    int
	Refuted     int
	Failed      int
	SolverCalls int
	// Latency is the time spent in the verifier.
	Latency time.Duration
}

// Task verifies change impacts of pairs of corresponding statements.
type Task struct {
	verifier Verifier
	maxDepth int
	renames  *Renames
	log      *zap.Logger

	Stats Stats
}

func NewTask(v Verifier, maxDepth int, renames *Renames, log *zap.Logger) *Task {
	if log == nil {
		log = zap.NewNop()
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Task{verifier: v, maxDepth: maxDepth, renames: renames, log: log.Named("verify")}
}

// Check verifies the value defined by dst, given its post state, against
// the value defined by the corresponding node src. Slices are deepened one
// statement at a time until the values are proven equal. A verified
// definition is downgraded to unchanged in the returned state; otherwise
// post is returned as is. Solver failures are never propagated.
func (t *Task) Check(ctx context.Context, src *cfg.Node, srcStates States, dst *cfg.Node, post absint.State, dstStates States) (absint.State, Outcome) {
	def := Define(post, dst.Stmt)
	if !def.HasDef() || !def.Change().IsChanged() {
		return post, NotNeeded
	}
	srcPost, ok := srcStates(src)
	if !ok {
		return post, NotNeeded
	}
	t.Stats.Candidates++

	size := -1
	for depth := 1; depth <= t.maxDepth; depth++ {
		old := Backward(src, srcPost, srcStates, depth)
		new := Backward(dst, post, dstStates, depth)
		n := len(old.Steps) + len(new.Steps)
		if n == size {
			// Deeper slices would be the same.
			break
		}
		size = n

		p, err := NewProblem(old, new, t.renames)
		if err != nil {
			t.log.Debug("no verification problem", zap.Int("node", dst.Stmt.ID), zap.Error(err))
			return t.fail(post)
		}

		start := time.Now()
		valid, err := t.verifier.Verify(ctx, p)
		t.Stats.SolverCalls++
		t.Stats.Latency += time.Since(start)
		switch {
		case errors.Is(err, ErrNoSolver), errors.Is(err, errUntranslatable):
			t.log.Debug("verification skipped", zap.Int("node", dst.Stmt.ID), zap.Error(err))
			return t.fail(post)
		case err != nil:
			t.log.Warn("verification failed", zap.Int("node", dst.Stmt.ID), zap.Error(err))
			return t.fail(post)
		case valid:
			t.Stats.Verified++
			t.log.Debug("change impact retracted",
				zap.Int("node", dst.Stmt.ID), zap.Int("depth", depth), zap.String("definition", def.Name))
			return downgrade(post, def), Verified
		}
	}

	t.Stats.Refuted++
	return post, Refuted
}

func (t *Task) fail(post absint.State) (absint.State, Outcome) {
	t.Stats.Failed++
	return post, Failed
}

// downgrade marks the defined value unchanged wherever it is stored.
// Snapshots of the store taken earlier are stale afterwards.
func downgrade(s absint.State, def Definition) absint.State {
	v := def.Value.WithChange(lattice.Unchanged)
	s = s.Overwrite(def.Addrs, v)
	if def.Kind == ReturnDef {
		ret, _ := s.Scratch.Return()
		s.Scratch = s.Scratch.WithReturn(ret.WithChange(lattice.Unchanged))
	}
	return s
}
