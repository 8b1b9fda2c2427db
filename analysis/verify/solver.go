package verify

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoSolver is returned when no solver executable is configured or found.
var ErrNoSolver = errors.New("no SMT solver available")

var errEmptyResult = errors.New("solver produced no result")

// Verifier decides verification problems. It reports true only if the
// query variables are proven equal.
type Verifier interface {
	Verify(ctx context.Context, p Problem) (bool, error)
}

// VerifierFunc adapts a function to a Verifier.
type VerifierFunc func(context.Context, Problem) (bool, error)

func (f VerifierFunc) Verify(ctx context.Context, p Problem) (bool, error) {
	return f(ctx, p)
}

// Solver runs an external CVC4 executable on a script written to a working
// directory, and reads the verdict from the first line of its output.
type Solver struct {
	Path string
	Args []string
	// Workdir holds the generated scripts. The system temporary directory
	// is used if it is empty.
	Workdir string
	// Timeout bounds a single solver run. Zero means no bound.
	Timeout time.Duration

	log *zap.Logger
}

func NewSolver(path string, args []string, workdir string, timeout time.Duration, log *zap.Logger) *Solver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Solver{
		Path:    path,
		Args:    args,
		Workdir: workdir,
		Timeout: timeout,
		log:     log.Named("solver"),
	}
}

// Verify translates p and runs the solver on it.
func (s *Solver) Verify(ctx context.Context, p Problem) (bool, error) {
	script, err := CVC4(p)
	if err != nil {
		return false, err
	}
	return s.Run(ctx, script)
}

// Run runs the solver on a script and reports whether its answer is valid.
func (s *Solver) Run(ctx context.Context, script string) (bool, error) {
	if s.Path == "" {
		return false, ErrNoSolver
	}
	path, err := exec.LookPath(s.Path)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrNoSolver, err)
	}

	if s.Workdir != "" {
		if err := os.MkdirAll(s.Workdir, 0o750); err != nil {
			return false, fmt.Errorf("create solver working directory: %w", err)
		}
	}
	f, err := os.CreateTemp(s.Workdir, "compare_*.cvc4")
	if err != nil {
		return false, fmt.Errorf("create solver script: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(script); err != nil {
		f.Close()
		return false, fmt.Errorf("write solver script: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("write solver script: %w", err)
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, append(append([]string{}, s.Args...), f.Name())...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		return false, fmt.Errorf("run %s: %w: %s", s.Path, err, strings.TrimSpace(stderr.String()))
	}

	line, err := bufio.NewReader(&stdout).ReadString('\n')
	if err != nil && line == "" {
		return false, errEmptyResult
	}
	verdict := strings.TrimSpace(line)
	s.log.Debug("solver finished", zap.String("script", f.Name()), zap.String("verdict", verdict))
	return strings.EqualFold(verdict, "valid"), nil
}
