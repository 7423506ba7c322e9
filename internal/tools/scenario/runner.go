package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/louisbranch/ironfront/internal/rules"
)

// Config controls scenario execution.
type Config struct {
	// RulesDir optionally overrides the embedded rule tables.
	RulesDir   string
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Assertions: AssertionStrict,
	}
}

// Runner executes Lua scenarios against an in-process game session.
type Runner struct {
	tables     *rules.Tables
	assertions Assertions
	logger     *log.Logger
	verbose    bool
}

// NewRunner loads rule tables and prepares a scenario runner.
func NewRunner(cfg Config) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}

	var (
		tables *rules.Tables
		err    error
	)
	if cfg.RulesDir != "" {
		tables, err = rules.LoadDir(cfg.RulesDir)
	} else {
		tables, err = rules.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("load rule tables: %w", err)
	}

	return &Runner{
		tables:     tables,
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
	}, nil
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	runner, err := NewRunner(cfg)
	if err != nil {
		return err
	}
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	return runner.RunScenario(ctx, scenario)
}

// RunScenario executes the scenario steps in order against a fresh
// session.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	r.logf("scenario start: %s (%d steps)", scenario.Name, len(scenario.Steps))

	state := newRunState(r.tables)
	for index, step := range scenario.Steps {
		stepNumber := index + 1
		r.logf("step %d/%d: %s", stepNumber, len(scenario.Steps), step.Kind)
		if err := r.runStep(ctx, state, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
