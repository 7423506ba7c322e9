package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/ironfront/internal/battle"
	"github.com/louisbranch/ironfront/internal/operation"
	"github.com/louisbranch/ironfront/internal/raid"
	"github.com/louisbranch/ironfront/internal/rules"
	"github.com/louisbranch/ironfront/internal/session"
)

// maxAdvanceDays bounds the advance_phase loop so a scenario that can
// never finish a phase fails instead of spinning.
const maxAdvanceDays = 500

type runState struct {
	tables *rules.Tables

	seed       int64
	force      battle.Force
	stock      battle.Stock
	objectives []operation.Objective

	sess       *session.Session
	lastRaid   *raid.Report
	lastReport lossesReport
}

type lossesReport interface {
	attackerLossTotal() int
}

type operationLosses struct{ report *operation.Report }

func (l operationLosses) attackerLossTotal() int { return l.report.AttackerLosses.Total() }

type raidLosses struct{ report *raid.Report }

func (l raidLosses) attackerLossTotal() int { return l.report.RaiderLosses.Total() }

func newRunState(tables *rules.Tables) *runState {
	return &runState{
		tables: tables,
		seed:   1,
		force:  battle.Force{Infantry: 100, Readiness: 0.8, Cohesion: 0.8},
		stock:  battle.Stock{Ammo: 500, Fuel: 250, Med: 120},
	}
}

func (s *runState) ensureSession() (*session.Session, error) {
	if s.sess != nil {
		return s.sess, nil
	}
	sess, err := session.New(session.Config{
		Tables:     s.tables,
		Seed:       s.seed,
		Force:      s.force,
		Stock:      s.stock,
		Objectives: s.objectives,
	})
	if err != nil {
		return nil, fmt.Errorf("build session: %w", err)
	}
	s.sess = sess
	return sess, nil
}

func (s *runState) requireSetupPhase(kind string) error {
	if s.sess != nil {
		return fmt.Errorf("%s must come before the first action step", kind)
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, state *runState, step Step) error {
	switch step.Kind {
	case "objective":
		return r.stepObjective(state, step.Args)
	case "force":
		return r.stepForce(state, step.Args)
	case "stock":
		return r.stepStock(state, step.Args)
	case "seed":
		return r.stepSeed(state, step.Args)
	case "start_operation":
		return r.stepStartOperation(ctx, state, step.Args)
	case "decide":
		return r.stepDecide(state, step.Args)
	case "advance":
		return r.stepAdvance(ctx, state, step.Args)
	case "advance_phase":
		return r.stepAdvancePhase(ctx, state)
	case "acknowledge":
		return r.stepAcknowledge(ctx, state)
	case "start_raid":
		return r.stepStartRaid(ctx, state, step.Args)
	case "expect_phase":
		return r.stepExpectPhase(state, step.Args)
	case "expect_complete":
		return r.stepExpectComplete(state)
	case "expect_losses_at_most":
		return r.stepExpectLossesAtMost(state, step.Args)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) stepObjective(state *runState, args map[string]any) error {
	if err := state.requireSetupPhase("objective"); err != nil {
		return err
	}
	objectiveID, err := argString(args, "id")
	if err != nil {
		return err
	}
	garrison, err := parseForce(optMap(args, "garrison"))
	if err != nil {
		return fmt.Errorf("garrison: %w", err)
	}
	state.objectives = append(state.objectives, operation.Objective{
		ID:              objectiveID,
		Name:            optString(args, "name", objectiveID),
		Terrain:         optString(args, "terrain", "plains"),
		Infrastructure:  optInt(args, "infrastructure", 2),
		BaseDifficulty:  optFloat(args, "difficulty", 0.3),
		Control:         optFloat(args, "control", 0),
		Fortification:   optFloat(args, "fortification", 1),
		Reinforcement:   optFloat(args, "reinforcement", 0.5),
		IntelConfidence: optFloat(args, "intel", 0.5),
		Status:          operation.StatusEnemy,
		Garrison:        garrison,
	})
	return nil
}

func (r *Runner) stepForce(state *runState, args map[string]any) error {
	if err := state.requireSetupPhase("force"); err != nil {
		return err
	}
	force, err := parseForce(args)
	if err != nil {
		return err
	}
	state.force = force
	return nil
}

func (r *Runner) stepStock(state *runState, args map[string]any) error {
	if err := state.requireSetupPhase("stock"); err != nil {
		return err
	}
	state.stock = battle.Stock{
		Ammo: optFloat(args, "ammo", 0),
		Fuel: optFloat(args, "fuel", 0),
		Med:  optFloat(args, "med", 0),
	}
	return nil
}

func (r *Runner) stepSeed(state *runState, args map[string]any) error {
	if err := state.requireSetupPhase("seed"); err != nil {
		return err
	}
	state.seed = int64(optInt(args, "value", 1))
	return nil
}

func (r *Runner) stepStartOperation(ctx context.Context, state *runState, args map[string]any) error {
	objectiveID, err := argString(args, "objective")
	if err != nil {
		return err
	}
	opType, err := argString(args, "type")
	if err != nil {
		return err
	}
	sess, err := state.ensureSession()
	if err != nil {
		return err
	}
	return sess.StartOperation(ctx, operation.Intent{ObjectiveID: objectiveID, Type: opType})
}

// stepDecide infers the decision shape from the keys the script passed:
// axis/fire_support for shaping, posture/risk for engagement,
// focus/end_state for exploit.
func (r *Runner) stepDecide(state *runState, args map[string]any) error {
	if state.sess == nil {
		return errors.New("decide requires a started operation")
	}
	var decision operation.Decisions
	switch {
	case hasKey(args, "axis"):
		decision = operation.ShapingDecisions{
			Axis:        optString(args, "axis", ""),
			FireSupport: optString(args, "fire_support", ""),
		}
	case hasKey(args, "posture"):
		decision = operation.EngagementDecisions{
			Posture: optString(args, "posture", ""),
			Risk:    optString(args, "risk", ""),
		}
	case hasKey(args, "focus"):
		decision = operation.ExploitDecisions{
			Focus:    optString(args, "focus", ""),
			EndState: optString(args, "end_state", ""),
		}
	default:
		return errors.New("decide needs axis, posture, or focus")
	}
	return state.sess.SubmitPhaseDecisions(decision)
}

func (r *Runner) stepAdvance(ctx context.Context, state *runState, args map[string]any) error {
	if state.sess == nil {
		return errors.New("advance requires a started operation")
	}
	days := optInt(args, "days", 1)
	for i := 0; i < days; i++ {
		status, err := state.sess.AdvanceDay(ctx)
		if err != nil {
			return err
		}
		if status.Blocked() {
			return fmt.Errorf("advance blocked: %s", status)
		}
		if status == operation.AdvancePhaseComplete {
			return nil
		}
	}
	return nil
}

func (r *Runner) stepAdvancePhase(ctx context.Context, state *runState) error {
	if state.sess == nil {
		return errors.New("advance_phase requires a started operation")
	}
	for i := 0; i < maxAdvanceDays; i++ {
		status, err := state.sess.AdvanceDay(ctx)
		if err != nil {
			return err
		}
		if status.Blocked() {
			return fmt.Errorf("advance blocked: %s", status)
		}
		if status == operation.AdvancePhaseComplete {
			return nil
		}
	}
	return errors.New("phase did not complete")
}

func (r *Runner) stepAcknowledge(ctx context.Context, state *runState) error {
	if state.sess == nil {
		return errors.New("acknowledge requires a started operation")
	}
	if _, err := state.sess.AcknowledgePhaseRecord(ctx); err != nil {
		return err
	}
	if report, err := state.sess.Report(); err == nil {
		state.lastReport = operationLosses{report: report}
	}
	return nil
}

func (r *Runner) stepStartRaid(ctx context.Context, state *runState, args map[string]any) error {
	objectiveID, err := argString(args, "objective")
	if err != nil {
		return err
	}
	sess, err := state.ensureSession()
	if err != nil {
		return err
	}
	report, err := sess.StartRaid(ctx, objectiveID)
	if err != nil {
		return err
	}
	state.lastRaid = report
	state.lastReport = raidLosses{report: report}
	return nil
}

func (r *Runner) stepExpectPhase(state *runState, args map[string]any) error {
	want, err := argString(args, "phase")
	if err != nil {
		return err
	}
	if state.sess == nil {
		return errors.New("expect_phase requires a started session")
	}
	snap := state.sess.Snapshot()
	got := "COMPLETE"
	if snap.OperationActive {
		got = snap.Phase.String()
	}
	return r.assertions.Checkf(got == want, "phase is %s, expected %s", got, want)
}

func (r *Runner) stepExpectComplete(state *runState) error {
	if state.sess == nil {
		return errors.New("expect_complete requires a started session")
	}
	snap := state.sess.Snapshot()
	if err := r.assertions.Checkf(!snap.OperationActive, "operation still active in phase %s", snap.Phase); err != nil {
		return err
	}
	_, err := state.sess.Report()
	return r.assertions.Checkf(err == nil, "no after-action report available")
}

func (r *Runner) stepExpectLossesAtMost(state *runState, args map[string]any) error {
	limit := optInt(args, "limit", 0)
	if state.lastReport == nil {
		return errors.New("expect_losses_at_most requires a finished operation or raid")
	}
	got := state.lastReport.attackerLossTotal()
	return r.assertions.Checkf(got <= limit, "losses %d exceed limit %d", got, limit)
}

func parseForce(args map[string]any) (battle.Force, error) {
	force := battle.Force{
		Infantry:  optInt(args, "infantry", 0),
		Walkers:   optInt(args, "walkers", 0),
		Support:   optInt(args, "support", 0),
		Readiness: optFloat(args, "readiness", 0.8),
		Cohesion:  optFloat(args, "cohesion", 0.8),
	}
	if err := force.Validate(); err != nil {
		return battle.Force{}, err
	}
	return force, nil
}

func argString(args map[string]any, key string) (string, error) {
	value, ok := args[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%q is required", key)
	}
	return value, nil
}

func optString(args map[string]any, key, fallback string) string {
	if value, ok := args[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

func optInt(args map[string]any, key string, fallback int) int {
	switch value := args[key].(type) {
	case int:
		return value
	case float64:
		return int(value)
	default:
		return fallback
	}
}

func optFloat(args map[string]any, key string, fallback float64) float64 {
	switch value := args[key].(type) {
	case int:
		return float64(value)
	case float64:
		return value
	default:
		return fallback
	}
}

func optMap(args map[string]any, key string) map[string]any {
	if value, ok := args[key].(map[string]any); ok {
		return value
	}
	return map[string]any{}
}

func hasKey(args map[string]any, key string) bool {
	_, ok := args[key]
	return ok
}
