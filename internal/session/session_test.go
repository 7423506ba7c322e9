package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/louisbranch/ironfront/internal/battle"
	"github.com/louisbranch/ironfront/internal/operation"
	"github.com/louisbranch/ironfront/internal/rules"
	"github.com/louisbranch/ironfront/internal/storage"
)

type fakeReportStore struct {
	records []storage.ReportRecord
}

func (s *fakeReportStore) AppendReport(_ context.Context, record storage.ReportRecord) error {
	s.records = append(s.records, record)
	return nil
}

func (s *fakeReportStore) GetReport(_ context.Context, id string) (storage.ReportRecord, error) {
	for _, record := range s.records {
		if record.ID == id {
			return record, nil
		}
	}
	return storage.ReportRecord{}, storage.ErrNotFound
}

func (s *fakeReportStore) ListReports(_ context.Context, sessionID string) ([]storage.ReportRecord, error) {
	var out []storage.ReportRecord
	for _, record := range s.records {
		if record.SessionID == sessionID {
			out = append(out, record)
		}
	}
	return out, nil
}

func testTables(t *testing.T) *rules.Tables {
	t.Helper()
	tables, err := rules.Default()
	if err != nil {
		t.Fatalf("load default tables: %v", err)
	}
	return tables
}

func testConfig(t *testing.T, seed int64) Config {
	counter := 0
	return Config{
		ID:     "sess-1",
		Tables: testTables(t),
		Seed:   seed,
		Force:  battle.Force{Infantry: 180, Walkers: 3, Support: 4, Readiness: 0.85, Cohesion: 0.8},
		Stock:  battle.Stock{Ammo: 800, Fuel: 400, Med: 200},
		Objectives: []operation.Objective{{
			ID:              "obj-ridge",
			Name:            "Kessel Ridge",
			Terrain:         "plains",
			Infrastructure:  2,
			BaseDifficulty:  0.3,
			Control:         0.1,
			Fortification:   1.2,
			Reinforcement:   0.4,
			IntelConfidence: 0.5,
			Status:          operation.StatusEnemy,
			Garrison:        battle.Force{Infantry: 180, Walkers: 3, Support: 3, Readiness: 0.8, Cohesion: 0.75},
		}},
		Now:   func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
		NewID: func() (string, error) { counter++; return fmt.Sprintf("id-%d", counter), nil },
	}
}

func decisionFor(phase operation.Phase) operation.Decisions {
	switch phase {
	case operation.PhaseContactShaping:
		return operation.ShapingDecisions{Axis: "direct_pressure", FireSupport: "preparatory_fire"}
	case operation.PhaseEngagement:
		return operation.EngagementDecisions{Posture: "deliberate", Risk: "balanced"}
	case operation.PhaseExploitConsolidate:
		return operation.ExploitDecisions{Focus: "exploit", EndState: "seize"}
	default:
		return nil
	}
}

// driveOperation runs a started operation to its report through the
// session API.
func driveOperation(t *testing.T, s *Session) *operation.Report {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		snap := s.Snapshot()
		if !snap.OperationActive {
			report, err := s.Report()
			if err != nil {
				t.Fatalf("report: %v", err)
			}
			return report
		}
		switch {
		case snap.AwaitingDecision:
			if err := s.SubmitPhaseDecisions(decisionFor(snap.Phase)); err != nil {
				t.Fatalf("submit decisions for %s: %v", snap.Phase, err)
			}
		case snap.PendingRecord != nil:
			if _, err := s.AcknowledgePhaseRecord(ctx); err != nil {
				t.Fatalf("acknowledge: %v", err)
			}
		default:
			if _, err := s.AdvanceDay(ctx); err != nil {
				t.Fatalf("advance day: %v", err)
			}
		}
	}
	t.Fatal("operation failed to terminate")
	return nil
}

func TestOperationLifecycle(t *testing.T) {
	store := &fakeReportStore{}
	cfg := testConfig(t, 17)
	cfg.Reports = store
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	ctx := context.Background()

	if err := s.StartOperation(ctx, operation.Intent{ObjectiveID: "obj-ridge", Type: "campaign"}); err != nil {
		t.Fatalf("start operation: %v", err)
	}
	if err := s.StartOperation(ctx, operation.Intent{ObjectiveID: "obj-ridge", Type: "raid"}); !errors.Is(err, ErrOperationActive) {
		t.Fatalf("second start err = %v, want ErrOperationActive", err)
	}
	if _, err := s.StartRaid(ctx, "obj-ridge"); !errors.Is(err, ErrOperationActive) {
		t.Fatalf("raid during operation err = %v, want ErrOperationActive", err)
	}

	report := driveOperation(t, s)
	if report.TotalDays == 0 || len(report.Phases) != 3 {
		t.Fatalf("report days %d phases %d", report.TotalDays, len(report.Phases))
	}

	if len(store.records) != 1 {
		t.Fatalf("archived %d reports, want 1", len(store.records))
	}
	record := store.records[0]
	if record.SessionID != "sess-1" || record.ObjectiveID != "obj-ridge" || len(record.Payload) == 0 {
		t.Fatalf("archived record %+v", record)
	}

	// The slot is free again after finalization.
	if err := s.StartOperation(ctx, operation.Intent{ObjectiveID: "obj-ridge", Type: "raid"}); err != nil {
		t.Fatalf("start after finalize: %v", err)
	}
}

func TestSessionDeterminism(t *testing.T) {
	run := func() (*operation.Report, Snapshot) {
		s, err := New(testConfig(t, 17))
		if err != nil {
			t.Fatalf("new session: %v", err)
		}
		if err := s.StartOperation(context.Background(), operation.Intent{ObjectiveID: "obj-ridge", Type: "campaign"}); err != nil {
			t.Fatalf("start operation: %v", err)
		}
		return driveOperation(t, s), s.Snapshot()
	}

	reportA, snapA := run()
	reportB, snapB := run()
	if !reflect.DeepEqual(reportA, reportB) {
		t.Fatal("identical sessions produced different reports")
	}
	if !reflect.DeepEqual(snapA, snapB) {
		t.Fatal("identical sessions produced different final snapshots")
	}
}

func TestActionsRequireOperation(t *testing.T) {
	s, err := New(testConfig(t, 3))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	ctx := context.Background()

	if err := s.SubmitPhaseDecisions(decisionFor(operation.PhaseContactShaping)); !errors.Is(err, ErrNoOperation) {
		t.Fatalf("submit err = %v, want ErrNoOperation", err)
	}
	if _, err := s.AdvanceDay(ctx); !errors.Is(err, ErrNoOperation) {
		t.Fatalf("advance err = %v, want ErrNoOperation", err)
	}
	if _, err := s.AcknowledgePhaseRecord(ctx); !errors.Is(err, ErrNoOperation) {
		t.Fatalf("acknowledge err = %v, want ErrNoOperation", err)
	}
	if _, err := s.Report(); !errors.Is(err, ErrNoReport) {
		t.Fatalf("report err = %v, want ErrNoReport", err)
	}
}

func TestUnknownObjective(t *testing.T) {
	s, err := New(testConfig(t, 3))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	ctx := context.Background()

	if err := s.StartOperation(ctx, operation.Intent{ObjectiveID: "obj-missing", Type: "campaign"}); !errors.Is(err, ErrUnknownObjective) {
		t.Fatalf("start err = %v, want ErrUnknownObjective", err)
	}
	if _, err := s.StartRaid(ctx, "obj-missing"); !errors.Is(err, ErrUnknownObjective) {
		t.Fatalf("raid err = %v, want ErrUnknownObjective", err)
	}
	if _, err := s.Objective("obj-missing"); !errors.Is(err, ErrUnknownObjective) {
		t.Fatalf("objective err = %v, want ErrUnknownObjective", err)
	}
}

func TestRaidMutatesForces(t *testing.T) {
	s, err := New(testConfig(t, 9))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	ctx := context.Background()
	before := s.Snapshot()
	objBefore, _ := s.Objective("obj-ridge")

	report, err := s.StartRaid(ctx, "obj-ridge")
	if err != nil {
		t.Fatalf("start raid: %v", err)
	}
	after := s.Snapshot()
	objAfter, _ := s.Objective("obj-ridge")

	if after.Force.Headcount() != before.Force.Headcount()-report.RaiderLosses.Total() {
		t.Fatalf("force headcount %d, want %d minus %d losses",
			after.Force.Headcount(), before.Force.Headcount(), report.RaiderLosses.Total())
	}
	if objAfter.Garrison.Headcount() != objBefore.Garrison.Headcount()-report.GarrisonLosses.Total() {
		t.Fatalf("garrison headcount %d, want %d minus %d losses",
			objAfter.Garrison.Headcount(), objBefore.Garrison.Headcount(), report.GarrisonLosses.Total())
	}
}

func TestBlockedAdvanceKeepsSequence(t *testing.T) {
	s, err := New(testConfig(t, 17))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	ctx := context.Background()
	if err := s.StartOperation(ctx, operation.Intent{ObjectiveID: "obj-ridge", Type: "campaign"}); err != nil {
		t.Fatalf("start operation: %v", err)
	}

	// Blocked advances in between must not perturb the random streams of
	// the days that eventually resolve.
	for i := 0; i < 3; i++ {
		status, err := s.AdvanceDay(ctx)
		if err != nil {
			t.Fatalf("blocked advance: %v", err)
		}
		if status != operation.AdvanceBlockedDecision {
			t.Fatalf("status = %s, want %s", status, operation.AdvanceBlockedDecision)
		}
	}
	reportA := driveOperation(t, s)

	s2, err := New(testConfig(t, 17))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s2.StartOperation(ctx, operation.Intent{ObjectiveID: "obj-ridge", Type: "campaign"}); err != nil {
		t.Fatalf("start operation: %v", err)
	}
	reportB := driveOperation(t, s2)

	if !reflect.DeepEqual(reportA, reportB) {
		t.Fatal("blocked advances changed the resolved outcome")
	}
}
