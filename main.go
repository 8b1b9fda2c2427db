package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cs-au-dk/semdiff/config"
	"github.com/cs-au-dk/semdiff/facts"
	"github.com/cs-au-dk/semdiff/utils"
)

var (
	opts = utils.Opts()
	task = opts.Task()
)

type pairFlags struct {
	src, dst, patch string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "semdiff",
		Short:        "Change-impact analysis of JavaScript file changes",
		SilenceUsage: true,
	}

	fs := flag.NewFlagSet("semdiff", flag.ContinueOnError)
	utils.RegisterFlags(fs)
	root.PersistentFlags().AddGoFlagSet(fs)

	root.AddCommand(
		pairCmd("analyze"),
		pairCmd("parse"),
		pairCmd("match"),
		cfgCmd(),
		batchCmd(),
	)
	return root
}

// pairCmd runs a task on a source file and its changed version.
func pairCmd(name string) *cobra.Command {
	f := &pairFlags{}
	cmd := &cobra.Command{
		Use:   name,
		Short: task.Explanation(name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.dst == "" && f.patch == "" {
				return errors.New("either --dst or --patch is required")
			}
			return run(cmd, name, func(p *pipeline) error {
				return p.runPair(cmd, f)
			})
		},
	}
	cmd.Flags().StringVar(&f.src, "src", "", "source version of the file")
	cmd.Flags().StringVar(&f.dst, "dst", "", "destination version of the file")
	cmd.Flags().StringVar(&f.patch, "patch", "", "unified diff producing the destination version from the source version")
	_ = cmd.MarkFlagRequired("src")
	return cmd
}

func cfgCmd() *cobra.Command {
	f := &pairFlags{}
	cmd := &cobra.Command{
		Use:   "cfg",
		Short: task.Explanation("cfg-to-dot"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Only the source version is rendered.
			f.dst = f.src
			return run(cmd, "cfg-to-dot", func(p *pipeline) error {
				return p.runPair(cmd, f)
			})
		},
	}
	cmd.Flags().StringVar(&f.src, "src", "", "file to render")
	_ = cmd.MarkFlagRequired("src")
	return cmd
}

func batchCmd() *cobra.Command {
	var (
		dir     string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every <name>.old.js and <name>.new.js pair of a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, "analyze", func(p *pipeline) error {
				fb, err := p.batch(cmd.Context(), dir, workers)
				if err != nil {
					return err
				}
				return writeFacts(cmd, fb)
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory of file pairs")
	cmd.Flags().IntVar(&workers, "workers", 0, "maximum number of concurrent analyses (0 means unlimited)")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

// run selects the task, sets up the configuration, logging and metrics of
// the run, and executes do.
func run(cmd *cobra.Command, taskName string, do func(*pipeline) error) error {
	if err := task.Set(taskName); err != nil {
		return err
	}

	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := config.NewLogger(conf.Log)
	defer func() { _ = log.Sync() }()

	var metrics *runMetrics
	if opts.Metrics() {
		metrics = newRunMetrics()
	}

	p, err := newPipeline(conf, log, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Warn("closing verdict cache failed", zap.Error(err))
		}
	}()

	if err := do(p); err != nil {
		log.Error("run failed", zap.String("task", taskName), zap.Error(err))
		return err
	}
	if metrics != nil {
		return metrics.report(cmd.ErrOrStderr())
	}
	return nil
}

// loadConfig reads the configuration file, if any, and applies the flags
// given on the command line on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	conf := config.NewDefault()
	if path := opts.ConfigPath(); path != "" {
		var err error
		if conf, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("max-depth") {
		conf.Analysis.MaxSliceDepth = opts.MaxSliceDepth()
	}
	if flags.Changed("max-addresses") {
		conf.Analysis.MaxAddresses = opts.MaxAddresses()
	}
	if flags.Changed("budget") {
		conf.Analysis.StatementBudget = opts.StatementBudget()
	}
	if flags.Changed("solver") {
		conf.Solver.Path = opts.SolverPath()
	}
	if opts.Verbose() {
		conf.Log.Level = "debug"
	}

	opts.SetMaxAddresses(conf.Analysis.MaxAddresses)
	return conf, nil
}

func (p *pipeline) runPair(cmd *cobra.Command, f *pairFlags) error {
	ctx := cmd.Context()
	fp, err := p.load(ctx, f.src, f.dst, f.patch)
	if err != nil {
		return err
	}

	if done, err := p.secondaryTask(cmd.OutOrStdout(), fp); done || err != nil {
		return err
	}

	fb := facts.New()
	d, err := p.analyze(ctx, fp, fb)
	if err != nil {
		return err
	}
	opts.OnVerbose(func() {
		fmt.Fprintln(cmd.ErrOrStderr(), d.Src().Metrics())
		fmt.Fprintln(cmd.ErrOrStderr(), d.Dst().Metrics())
	})
	return writeFacts(cmd, fb)
}

func writeFacts(cmd *cobra.Command, fb *facts.FactBase) error {
	if opts.JSON() {
		return fb.WriteJSON(cmd.OutOrStdout())
	}
	return fb.WriteText(cmd.OutOrStdout())
}
