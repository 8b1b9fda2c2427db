// Package config holds the settings of an analysis run, read from a YAML
// file and overridden by command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxSliceDepth = 3
	DefaultMaxAddresses  = 10
	DefaultSolverTimeout = 10 * time.Second
)

var errInvalid = errors.New("invalid configuration")

type Solver struct {
	// Path of the CVC4 executable. A leading ~ is expanded. Verification
	// is skipped if it is empty.
	Path    string        `yaml:"path"`
	Args    []string      `yaml:"args"`
	Workdir string        `yaml:"workdir"`
	Timeout time.Duration `yaml:"timeout"`
	// Cache is the directory of the verdict cache. Verdicts are kept in
	// memory if it is empty.
	Cache string `yaml:"cache"`
}

type Analysis struct {
	MaxSliceDepth int `yaml:"max_slice_depth"`
	// MaxAddresses is the size at which address sets collapse to top.
	MaxAddresses int `yaml:"max_addresses"`
	// StatementBudget bounds the instructions of each analysis. Zero means
	// no bound.
	StatementBudget int `yaml:"statement_budget"`
}

type Log struct {
	Level string `yaml:"level"`
	// File receives JSON logs, rotated by size. No file is written if it is
	// empty.
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
}

type Config struct {
	Solver   Solver   `yaml:"solver"`
	Analysis Analysis `yaml:"analysis"`
	Log      Log      `yaml:"log"`

	sourceFile string
}

// NewDefault returns the configuration used when no file is given.
func NewDefault() *Config {
	return &Config{
		Solver: Solver{
			Args:    []string{"--lang=cvc4", "--incremental"},
			Timeout: DefaultSolverTimeout,
		},
		Analysis: Analysis{
			MaxSliceDepth: DefaultMaxSliceDepth,
			MaxAddresses:  DefaultMaxAddresses,
		},
		Log: Log{
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
		},
	}
}

// Load reads a configuration from a file. Settings missing from the file
// keep their defaults.
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	cfg.sourceFile = filename
	return cfg, nil
}

// Parse reads a configuration from YAML.
func Parse(b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	if c.Solver.Path != "" {
		path, err := homedir.Expand(c.Solver.Path)
		if err != nil {
			return fmt.Errorf("solver path: %w", err)
		}
		c.Solver.Path = path
	}
	if c.Solver.Cache != "" {
		path, err := homedir.Expand(c.Solver.Cache)
		if err != nil {
			return fmt.Errorf("solver cache: %w", err)
		}
		c.Solver.Cache = path
	}

	switch {
	case c.Analysis.MaxSliceDepth < 0:
		return fmt.Errorf("%w: negative max_slice_depth %d", errInvalid, c.Analysis.MaxSliceDepth)
	case c.Analysis.MaxAddresses < 0:
		return fmt.Errorf("%w: negative max_addresses %d", errInvalid, c.Analysis.MaxAddresses)
	case c.Analysis.StatementBudget < 0:
		return fmt.Errorf("%w: negative statement_budget %d", errInvalid, c.Analysis.StatementBudget)
	case c.Solver.Timeout < 0:
		return fmt.Errorf("%w: negative solver timeout %s", errInvalid, c.Solver.Timeout)
	}

	if c.Analysis.MaxSliceDepth == 0 {
		c.Analysis.MaxSliceDepth = DefaultMaxSliceDepth
	}
	if c.Analysis.MaxAddresses == 0 {
		c.Analysis.MaxAddresses = DefaultMaxAddresses
	}
	return nil
}

// SourceFile is the file the configuration was loaded from, if any.
func (c *Config) SourceFile() string {
	return c.sourceFile
}
