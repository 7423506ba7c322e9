// Package session hosts the simulation core for one game session: the
// contested objectives, the player force and front-line stock, and the
// at-most-one active operation. All mutations go through the session
// mutex, so callers get at-most-one in-flight action per session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/louisbranch/ironfront/internal/battle"
	"github.com/louisbranch/ironfront/internal/id"
	"github.com/louisbranch/ironfront/internal/operation"
	"github.com/louisbranch/ironfront/internal/raid"
	"github.com/louisbranch/ironfront/internal/rules"
	"github.com/louisbranch/ironfront/internal/storage"
	"github.com/louisbranch/ironfront/internal/telemetry"
)

var (
	// ErrOperationActive indicates a start while an operation is active.
	ErrOperationActive = errors.New("an operation is already active")
	// ErrNoOperation indicates an operation action with none active.
	ErrNoOperation = errors.New("no operation is active")
	// ErrUnknownObjective indicates a reference to an objective the
	// session does not hold.
	ErrUnknownObjective = errors.New("unknown objective")
	// ErrNoReport indicates a report request before any operation
	// finished.
	ErrNoReport = errors.New("no after-action report is available")
)

// Config assembles a session. Tables, a seed, and at least one objective
// are required; stores, telemetry, clock, and id generation are optional
// and default to sensible values.
type Config struct {
	ID         string
	Tables     *rules.Tables
	Seed       int64
	Force      battle.Force
	Stock      battle.Stock
	Objectives []operation.Objective

	Reports   storage.ReportStore
	Telemetry *telemetry.Emitter

	Now   func() time.Time
	NewID func() (string, error)
}

// Session owns one player's campaign state exclusively. No state is
// shared across sessions.
type Session struct {
	mu sync.Mutex

	id    string
	seed  int64
	seq   uint64
	force battle.Force
	stock battle.Stock

	tables     *rules.Tables
	objectives map[string]*operation.Objective

	op         *operation.Operation
	lastReport *operation.Report

	reports storage.ReportStore
	emitter *telemetry.Emitter
	now     func() time.Time
	newID   func() (string, error)
}

// New creates a session from its config.
func New(cfg Config) (*Session, error) {
	if cfg.Tables == nil {
		return nil, errors.New("rule tables are required")
	}
	if len(cfg.Objectives) == 0 {
		return nil, errors.New("at least one objective is required")
	}
	if err := cfg.Force.Validate(); err != nil {
		return nil, fmt.Errorf("player force: %w", err)
	}

	s := &Session{
		id:         cfg.ID,
		seed:       cfg.Seed,
		force:      cfg.Force,
		stock:      cfg.Stock,
		tables:     cfg.Tables,
		objectives: make(map[string]*operation.Objective, len(cfg.Objectives)),
		reports:    cfg.Reports,
		emitter:    cfg.Telemetry,
		now:        cfg.Now,
		newID:      cfg.NewID,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = id.NewID
	}
	if s.id == "" {
		sessionID, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("generate session id: %w", err)
		}
		s.id = sessionID
	}
	for i := range cfg.Objectives {
		obj := cfg.Objectives[i]
		if err := obj.Validate(); err != nil {
			return nil, fmt.Errorf("objective %q: %w", obj.ID, err)
		}
		if _, dup := s.objectives[obj.ID]; dup {
			return nil, fmt.Errorf("objective %q: duplicate id", obj.ID)
		}
		s.objectives[obj.ID] = &obj
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// StartOperation opens an operation against one of the session's
// objectives. At most one operation may be active at a time.
func (s *Session) StartOperation(ctx context.Context, intent operation.Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.op != nil {
		return ErrOperationActive
	}
	obj, ok := s.objectives[intent.ObjectiveID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownObjective, intent.ObjectiveID)
	}
	opID, err := s.newID()
	if err != nil {
		return fmt.Errorf("generate operation id: %w", err)
	}

	s.seq++
	op, err := operation.Start(operation.StartInput{
		Tables:    s.tables,
		ID:        opID,
		Intent:    intent,
		Objective: obj,
		Attacker:  s.force,
		Seed:      s.seed,
		Seq:       s.seq,
	})
	if err != nil {
		s.seq--
		return err
	}
	s.op = op

	s.emit(ctx, "operation.started", map[string]string{
		"operation_id":   op.ID,
		"objective_id":   intent.ObjectiveID,
		"operation_type": intent.Type,
		"estimated_days": strconv.Itoa(op.EstimatedDays),
	})
	return nil
}

// SubmitPhaseDecisions stores the active phase's decision.
func (s *Session) SubmitPhaseDecisions(d operation.Decisions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.op == nil {
		return ErrNoOperation
	}
	return s.op.SubmitDecisions(s.tables, d)
}

// AdvanceDay resolves one combat day of the active operation, or reports
// why nothing could progress. Blocked advances mutate no state and do not
// consume an action sequence number.
func (s *Session) AdvanceDay(ctx context.Context) (operation.AdvanceStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.op == nil {
		return operation.AdvanceUnspecified, ErrNoOperation
	}
	obj, ok := s.objectives[s.op.Intent.ObjectiveID]
	if !ok {
		return operation.AdvanceUnspecified, fmt.Errorf("%w: %q", ErrUnknownObjective, s.op.Intent.ObjectiveID)
	}

	status, err := s.op.AdvanceDay(s.tables, obj, &s.stock, s.seq+1)
	if err != nil {
		return status, err
	}
	if !status.Blocked() {
		s.seq++
		s.force = s.op.Attacker
	}
	if status == operation.AdvancePhaseComplete {
		s.emit(ctx, "phase.completed", map[string]string{
			"operation_id": s.op.ID,
			"phase":        s.op.CurrentPhase.String(),
			"day":          strconv.Itoa(s.op.DayInOperation),
		})
	}
	return status, nil
}

// AcknowledgePhaseRecord clears the pending phase record, returning it.
// When acknowledgement completes the operation, the finalizer runs, the
// after-action report is archived, and the operation slot is freed.
func (s *Session) AcknowledgePhaseRecord(ctx context.Context) (*operation.PhaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.op == nil {
		return nil, ErrNoOperation
	}
	record := s.op.AcknowledgePhaseRecord()
	if record == nil {
		return nil, nil
	}
	if s.op.CurrentPhase != operation.PhaseComplete {
		return record, nil
	}

	obj := s.objectives[s.op.Intent.ObjectiveID]
	report, err := s.op.Finalize(s.tables, obj)
	if err != nil {
		return record, fmt.Errorf("finalize operation: %w", err)
	}
	s.lastReport = report
	s.op = nil
	s.archive(ctx, report)
	s.emit(ctx, "operation.finalized", map[string]string{
		"operation_id": report.OperationID,
		"objective_id": report.ObjectiveID,
		"end_state":    report.EndState,
		"success":      strconv.FormatBool(report.Success),
	})
	return record, nil
}

// StartRaid runs a short-form raid of the session force against an
// objective's garrison. Raids resolve synchronously and cannot run while
// an operation is active.
func (s *Session) StartRaid(ctx context.Context, objectiveID string) (*raid.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.op != nil {
		return nil, ErrOperationActive
	}
	obj, ok := s.objectives[objectiveID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownObjective, objectiveID)
	}

	s.seq++
	report, err := raid.Run(raid.Input{
		Tables:   s.tables,
		Raider:   s.force,
		Garrison: obj.Garrison,
		Seed:     s.seed,
		Seq:      s.seq,
	})
	if err != nil {
		s.seq--
		return nil, err
	}
	s.force = report.Raider
	obj.Garrison = report.Garrison

	s.emit(ctx, "raid.completed", map[string]string{
		"objective_id": objectiveID,
		"success":      strconv.FormatBool(report.Success),
		"ticks":        strconv.Itoa(len(report.Ticks)),
	})
	return report, nil
}

// Snapshot is a read-only view of the session's current state.
type Snapshot struct {
	SessionID string
	Force     battle.Force
	Stock     battle.Stock

	OperationActive  bool
	OperationID      string
	Phase            operation.Phase
	DayInOperation   int
	DayInPhase       int
	AwaitingDecision bool
	PendingRecord    *operation.PhaseRecord
	EstimatedDays    int
	TotalProgress    float64
}

// Snapshot returns the session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID: s.id,
		Force:     s.force,
		Stock:     s.stock,
	}
	if s.op != nil {
		snap.OperationActive = true
		snap.OperationID = s.op.ID
		snap.Phase = s.op.CurrentPhase
		snap.DayInOperation = s.op.DayInOperation
		snap.DayInPhase = s.op.DayInPhase
		snap.AwaitingDecision = s.op.AwaitingDecision
		snap.PendingRecord = s.op.Pending
		snap.EstimatedDays = s.op.EstimatedDays
		snap.TotalProgress = s.op.TotalProgress
	}
	return snap
}

// Objective returns a copy of one objective's current state.
func (s *Session) Objective(objectiveID string) (operation.Objective, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objectives[objectiveID]
	if !ok {
		return operation.Objective{}, fmt.Errorf("%w: %q", ErrUnknownObjective, objectiveID)
	}
	return *obj, nil
}

// Report returns the most recent after-action report.
func (s *Session) Report() (*operation.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastReport == nil {
		return nil, ErrNoReport
	}
	return s.lastReport, nil
}

// archive persists a finalized report when a store is attached. Archival
// failures are reported through telemetry rather than failing the
// acknowledgement: the simulation outcome stands either way.
func (s *Session) archive(ctx context.Context, report *operation.Report) {
	if s.reports == nil {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		s.emit(ctx, "report.archive_failed", map[string]string{
			"operation_id": report.OperationID,
			"error":        err.Error(),
		})
		return
	}
	err = s.reports.AppendReport(ctx, storage.ReportRecord{
		ID:          report.OperationID,
		SessionID:   s.id,
		ObjectiveID: report.ObjectiveID,
		Type:        report.Type,
		EndState:    report.EndState,
		Success:     report.Success,
		TotalDays:   report.TotalDays,
		Progress:    report.TotalProgress,
		Payload:     payload,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		s.emit(ctx, "report.archive_failed", map[string]string{
			"operation_id": report.OperationID,
			"error":        err.Error(),
		})
	}
}

func (s *Session) emit(ctx context.Context, name string, attrs map[string]string) {
	_ = s.emitter.Emit(ctx, storage.TelemetryEvent{
		Name:       name,
		Severity:   telemetry.SeverityInfo,
		SessionID:  s.id,
		Attributes: attrs,
	})
}
