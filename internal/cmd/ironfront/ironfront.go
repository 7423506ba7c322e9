// Package ironfront implements the campaign batch runner CLI: it loads a
// YAML batch of scripted campaigns, resolves each in its own session
// concurrently, and archives the after-action reports.
package ironfront

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/ironfront/internal/battle"
	"github.com/louisbranch/ironfront/internal/operation"
	platformotel "github.com/louisbranch/ironfront/internal/platform/otel"
	"github.com/louisbranch/ironfront/internal/rules"
	"github.com/louisbranch/ironfront/internal/session"
	"github.com/louisbranch/ironfront/internal/storage/sqlite"
	"github.com/louisbranch/ironfront/internal/telemetry"
)

var tracer = otel.Tracer("ironfront/batch")

// Config holds batch runner configuration.
type Config struct {
	Batch    string `env:"IRONFRONT_BATCH_FILE"`
	RulesDir string `env:"IRONFRONT_RULES_DIR"`
	Archive  string `env:"IRONFRONT_ARCHIVE_PATH"`
	Workers  int    `env:"IRONFRONT_WORKERS"  envDefault:"4"`
	Verbose  bool   `env:"IRONFRONT_VERBOSE"`
}

// ParseConfig parses flags into a Config, layered over environment
// variables.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Batch, "batch", cfg.Batch, "path to campaign batch yaml file")
	fs.StringVar(&cfg.RulesDir, "rules", cfg.RulesDir, "directory of rule table overrides")
	fs.StringVar(&cfg.Archive, "archive", cfg.Archive, "sqlite path for report archive (empty disables)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent campaign runs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the batch runner.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Batch == "" {
		return errors.New("batch file path is required")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	shutdown, err := platformotel.Setup(ctx, "ironfront")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	var tables *rules.Tables
	if cfg.RulesDir != "" {
		tables, err = rules.LoadDir(cfg.RulesDir)
	} else {
		tables, err = rules.Default()
	}
	if err != nil {
		return fmt.Errorf("load rule tables: %w", err)
	}

	batch, err := LoadBatch(cfg.Batch)
	if err != nil {
		return err
	}

	var store *sqlite.Store
	if cfg.Archive != "" {
		store, err = sqlite.Open(cfg.Archive)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer func() { _ = store.Close() }()
	}

	logger := log.New(out, "", 0)
	errLogger := log.New(errOut, "", 0)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.Workers)
	for _, entry := range batch.Campaigns {
		entry := entry
		group.Go(func() error {
			report, err := runCampaign(groupCtx, tables, store, entry)
			if err != nil {
				errLogger.Printf("campaign=%s error=%q", entry.Name, err)
				return fmt.Errorf("campaign %q: %w", entry.Name, err)
			}
			logger.Printf("campaign=%s operation=%s type=%s end_state=%s success=%t days=%d progress=%.2f losses=%d",
				entry.Name, report.OperationID, report.Type, report.EndState,
				report.Success, report.TotalDays, report.TotalProgress,
				report.AttackerLosses.Total())
			return nil
		})
	}
	return group.Wait()
}

// runCampaign resolves one batch entry start to finish in a fresh
// session.
func runCampaign(ctx context.Context, tables *rules.Tables, store *sqlite.Store, entry CampaignEntry) (_ *operation.Report, err error) {
	ctx, span := tracer.Start(ctx, "campaign.run", trace.WithAttributes(
		attribute.String("campaign.name", entry.Name),
		attribute.String("objective.id", entry.Objective.ID),
		attribute.String("operation.type", entry.Operation.Type),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	cfg := session.Config{
		Tables:     tables,
		Seed:       entry.Seed,
		Force:      entry.Force.toForce(),
		Stock:      battle.Stock(entry.Stock),
		Objectives: []operation.Objective{entry.Objective.toObjective()},
	}
	if store != nil {
		cfg.Reports = store
		cfg.Telemetry = telemetry.NewEmitter(store)
	}
	sess, err := session.New(cfg)
	if err != nil {
		return nil, err
	}

	intent := operation.Intent{ObjectiveID: entry.Objective.ID, Type: entry.Operation.Type}
	if err := sess.StartOperation(ctx, intent); err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap := sess.Snapshot()
		if !snap.OperationActive {
			return sess.Report()
		}
		switch {
		case snap.AwaitingDecision:
			err = step(ctx, "operation.decide", snap.DayInOperation, func(context.Context) error {
				return sess.SubmitPhaseDecisions(entry.Operation.decisionFor(snap.Phase))
			})
		case snap.PendingRecord != nil:
			err = step(ctx, "operation.acknowledge", snap.DayInOperation, func(ctx context.Context) error {
				_, err := sess.AcknowledgePhaseRecord(ctx)
				return err
			})
		default:
			err = step(ctx, "operation.advance_day", snap.DayInOperation, func(ctx context.Context) error {
				_, err := sess.AdvanceDay(ctx)
				return err
			})
		}
		if err != nil {
			return nil, err
		}
	}
}

// step traces one session action as a child span of the campaign span.
func step(ctx context.Context, name string, day int, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int("operation.day", day),
	))
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
