package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	ai "github.com/cs-au-dk/semdiff/analysis/absint"
	"github.com/cs-au-dk/semdiff/analysis/ast"
	"github.com/cs-au-dk/semdiff/analysis/cfg"
	"github.com/cs-au-dk/semdiff/analysis/diff"
	"github.com/cs-au-dk/semdiff/analysis/verify"
	"github.com/cs-au-dk/semdiff/config"
	"github.com/cs-au-dk/semdiff/facts"
	"github.com/cs-au-dk/semdiff/frontend"
)

const (
	oldSuffix = ".old.js"
	newSuffix = ".new.js"
)

var errNoPairs = errors.New("no file pairs found")

// pipeline carries the settings shared by every file pair of a run.
type pipeline struct {
	conf    *config.Config
	log     *zap.Logger
	metrics *runMetrics
	// verify is false if the solver is disabled or not configured.
	verify bool

	db *badger.DB
}

func newPipeline(conf *config.Config, log *zap.Logger, metrics *runMetrics) (*pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &pipeline{
		conf:    conf,
		log:     log.Named("pipeline"),
		metrics: metrics,
		verify:  conf.Solver.Path != "" && !opts.NoVerify(),
	}
	if !p.verify {
		p.log.Info("change impacts are not verified")
		return p, nil
	}

	db, err := verify.OpenCache(conf.Solver.Cache)
	if err != nil {
		return nil, err
	}
	p.db = db
	return p, nil
}

func (p *pipeline) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

// filePair is a parsed and matched pair of program versions.
type filePair struct {
	change   facts.FileChange
	src, dst *ast.Program
}

// load reads both versions of a file. If patchPath is given, the destination
// version is obtained by applying it to the source version.
func (p *pipeline) load(ctx context.Context, srcPath, dstPath, patchPath string) (*filePair, error) {
	srcText, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("read source version: %w", err)
	}

	var dstText []byte
	switch {
	case patchPath != "" && dstPath != "":
		return nil, errors.New("a destination file and a patch cannot both be given")
	case patchPath != "":
		patch, err := os.ReadFile(patchPath)
		if err != nil {
			return nil, fmt.Errorf("read patch: %w", err)
		}
		if dstText, err = frontend.ApplyPatch(srcText, patch); err != nil {
			return nil, fmt.Errorf("%s: %w", patchPath, err)
		}
		dstPath = patchPath
	case dstPath != "":
		if dstText, err = os.ReadFile(dstPath); err != nil {
			return nil, fmt.Errorf("read destination version: %w", err)
		}
	default:
		return nil, errors.New("no destination version given")
	}

	return p.parse(ctx, srcPath, srcText, dstPath, dstText)
}

func (p *pipeline) parse(ctx context.Context, srcPath string, srcText []byte, dstPath string, dstText []byte) (*filePair, error) {
	parser := frontend.NewParser(p.log)
	src, err := parser.Parse(ctx, srcPath, srcText)
	if err != nil {
		return nil, err
	}
	dst, err := parser.Parse(ctx, dstPath, dstText)
	if err != nil {
		return nil, err
	}
	frontend.Match(src, dst)

	return &filePair{
		change: facts.NewFileChange(srcPath, dstPath),
		src:    src,
		dst:    dst,
	}, nil
}

// analyze runs the differential analysis of a pair and adds the annotations
// of the destination version to fb.
func (p *pipeline) analyze(ctx context.Context, fp *filePair, fb *facts.FactBase) (*diff.Driver, error) {
	log := p.log.With(zap.String("src", fp.change.Src), zap.String("dst", fp.change.Dst))

	srcCFGs, dstCFGs := cfg.Build(fp.src), cfg.Build(fp.dst)
	cfg.Map(srcCFGs, dstCFGs)

	o := diff.Options{
		Log:      log,
		Budget:   p.conf.Analysis.StatementBudget,
		MaxDepth: p.conf.Analysis.MaxSliceDepth,
		Renames:  verify.NewRenames(fp.src, fp.dst),
	}
	if opts.LogAI() {
		o.Log = log.WithOptions(zap.IncreaseLevel(zap.DebugLevel))
	}
	if p.metrics != nil {
		o.SrcMetrics, o.DstMetrics = ai.NewMetrics(), ai.NewMetrics()
	}

	var cached *verify.CachedVerifier
	if p.verify {
		s := p.conf.Solver
		cached = verify.NewCachedVerifier(verify.NewSolver(s.Path, s.Args, s.Workdir, s.Timeout, log), p.db, log)
		o.Verifier = cached
	}

	d := diff.New(srcCFGs, dstCFGs, o)
	if err := d.Run(ctx); err != nil {
		return nil, fmt.Errorf("analysis of %s: %w", fp.change.Dst, err)
	}

	anns := facts.Extract(d.Dst())
	fb.Add(fp.change, anns)

	st := d.Stats()
	log.Info("analysis done",
		zap.Int("annotations", len(anns)),
		zap.Int("candidates", st.Candidates),
		zap.Int("verified", st.Verified),
		zap.Int("refuted", st.Refuted))

	p.metrics.observeAnalysis("src", o.SrcMetrics)
	p.metrics.observeAnalysis("dst", o.DstMetrics)
	p.metrics.observeVerification(st)
	p.metrics.observeCache(cached)
	return d, nil
}

// pairsIn finds the files of dir named <name>.old.js that have a
// <name>.new.js counterpart.
func pairsIn(dir string) ([][2]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read batch directory: %w", err)
	}

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = !e.IsDir()
	}

	pairs := [][2]string{}
	for name, isFile := range names {
		base, ok := strings.CutSuffix(name, oldSuffix)
		if !ok || !isFile || !names[base+newSuffix] {
			continue
		}
		pairs = append(pairs, [2]string{
			filepath.Join(dir, name),
			filepath.Join(dir, base+newSuffix),
		})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })

	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w in %s", errNoPairs, dir)
	}
	return pairs, nil
}

// batch analyzes every file pair of dir concurrently. The analyses share
// the fact base, the verdict cache and the metrics.
func (p *pipeline) batch(ctx context.Context, dir string, workers int) (*facts.FactBase, error) {
	pairs, err := pairsIn(dir)
	if err != nil {
		return nil, err
	}

	fb := facts.New()
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, pair := range pairs {
		pair := pair
		g.Go(func() error {
			fp, err := p.load(ctx, pair[0], pair[1], "")
			if err != nil {
				return err
			}
			_, err = p.analyze(ctx, fp, fb)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.log.Info("batch done", zap.Int("pairs", len(pairs)))
	return fb, nil
}
