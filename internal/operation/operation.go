package operation

import (
	"errors"
	"fmt"
	"math"

	"github.com/louisbranch/ironfront/internal/battle"
	"github.com/louisbranch/ironfront/internal/core/clamp"
	"github.com/louisbranch/ironfront/internal/core/rng"
	"github.com/louisbranch/ironfront/internal/rules"
)

var (
	// ErrNotAwaitingDecision indicates a decision submitted when none is due.
	ErrNotAwaitingDecision = errors.New("operation is not awaiting a decision")
	// ErrWrongPhaseDecision indicates a decision tagged for another phase.
	ErrWrongPhaseDecision = errors.New("decision does not match the active phase")
	// ErrOperationComplete indicates a day advance on a finished operation.
	ErrOperationComplete = errors.New("operation is complete")
	// ErrNotComplete indicates finalization before the operation finished.
	ErrNotComplete = errors.New("operation has not reached completion")
	// ErrAlreadyFinalized indicates a second finalization attempt.
	ErrAlreadyFinalized = errors.New("operation was already finalized")
)

// AdvanceStatus reports what a day advance did. Blocked statuses are not
// errors: callers resolve the block and try again.
type AdvanceStatus int

const (
	// AdvanceUnspecified represents an invalid advance status.
	AdvanceUnspecified AdvanceStatus = iota
	// AdvanceResolved means one combat day was resolved.
	AdvanceResolved
	// AdvancePhaseComplete means the day was resolved and the phase ended;
	// a phase record is now pending acknowledgement.
	AdvancePhaseComplete
	// AdvanceBlockedPending means a phase record awaits acknowledgement.
	AdvanceBlockedPending
	// AdvanceBlockedDecision means the active phase awaits its decision.
	AdvanceBlockedDecision
)

func (s AdvanceStatus) String() string {
	switch s {
	case AdvanceResolved:
		return "RESOLVED"
	case AdvancePhaseComplete:
		return "PHASE_COMPLETE"
	case AdvanceBlockedPending:
		return "BLOCKED_PENDING_RECORD"
	case AdvanceBlockedDecision:
		return "BLOCKED_AWAITING_DECISION"
	default:
		return "UNSPECIFIED"
	}
}

// Blocked reports whether the status indicates no day was resolved.
func (s AdvanceStatus) Blocked() bool {
	return s == AdvanceBlockedPending || s == AdvanceBlockedDecision
}

// Intent names what an operation is trying to do and where.
type Intent struct {
	ObjectiveID string
	Type        string
}

// Operation is the aggregate root of one multi-day operation. Sub-state
// that is only meaningful in certain lifecycle states is explicit: the
// pending record is a pointer that is nil outside the acknowledgement
// window, and the awaiting flag gates day advancement.
type Operation struct {
	ID     string
	Intent Intent

	typeSpec rules.OperationType
	field    battle.Battlefield

	Attacker             battle.Force
	Defender             battle.Force
	attackerStartWalkers int
	defenderStartWalkers int

	EstimatedDays  int
	PhaseDays      map[Phase]int
	CurrentPhase   Phase
	DayInPhase     int
	DayInOperation int

	AwaitingDecision bool
	decisions        map[Phase]Decisions

	History []PhaseRecord
	Pending *PhaseRecord

	// EnemyEstimate is the strength sample drawn once at start: the
	// operation's fixed fog-of-war picture of the defender.
	EnemyEstimate float64
	actualRatio   float64
	planningBias  float64

	TotalProgress float64
	totalSpent    battle.Stock

	acc *phaseAccumulator

	seed      int64
	finalized bool
}

// StartInput carries everything needed to open an operation.
type StartInput struct {
	Tables    *rules.Tables
	ID        string
	Intent    Intent
	Objective *Objective
	Attacker  battle.Force
	Seed      int64
	Seq       uint64
}

// Start opens an operation against an objective. It computes the duration
// estimate from the operation type adjusted by fortification and control,
// splits it into per-phase day budgets summing exactly to the estimate,
// and draws the one enemy-strength sample the operation will plan against.
func Start(in StartInput) (*Operation, error) {
	if in.Tables == nil {
		return nil, errors.New("rule tables are required")
	}
	if in.Objective == nil {
		return nil, errors.New("objective is required")
	}
	if err := in.Attacker.Validate(); err != nil {
		return nil, fmt.Errorf("attacker force: %w", err)
	}
	if err := in.Objective.Validate(); err != nil {
		return nil, fmt.Errorf("objective: %w", err)
	}

	spec, err := in.Tables.Operation(in.Intent.Type)
	if err != nil {
		return nil, err
	}
	field, err := battle.NewBattlefield(in.Tables, in.Objective.Terrain, in.Objective.Infrastructure)
	if err != nil {
		return nil, err
	}

	estimate := estimateDays(spec, in.Objective)
	phaseDays := splitPhaseDays(spec, estimate)

	roles := in.Tables.Roles
	attackerPower := battle.SidePower(battle.FullAllocation(in.Attacker, roles), roles, 1)
	defenderPower := battle.SidePower(battle.FullAllocation(in.Objective.Garrison, roles), roles, 1)
	actual := clamp.Ratio(defenderPower, attackerPower)

	// Intel-driven uncertainty: low confidence widens the sample band.
	amp := 0.6 * (1 - in.Objective.IntelConfidence)
	rEstimate := rng.New(in.Seed, 0, in.Seq, "operation", "enemy.estimate")
	estimateSample := actual * (1 + rng.Jitter(rEstimate, amp))
	bias := clamp.Range(estimateSample/clamp.FloorDenom(actual, 0.01), 0.85, 1.15)

	op := &Operation{
		ID:                   in.ID,
		Intent:               in.Intent,
		typeSpec:             spec,
		field:                field,
		Attacker:             in.Attacker,
		Defender:             in.Objective.Garrison,
		attackerStartWalkers: in.Attacker.Walkers,
		defenderStartWalkers: in.Objective.Garrison.Walkers,
		EstimatedDays:        estimate,
		PhaseDays:            phaseDays,
		CurrentPhase:         PhaseContactShaping,
		AwaitingDecision:     true,
		decisions:            make(map[Phase]Decisions),
		EnemyEstimate:        estimateSample,
		actualRatio:          actual,
		planningBias:         bias,
		seed:                 in.Seed,
	}
	op.acc = newAccumulator(1, in.Attacker, in.Objective.Fortification)
	return op, nil
}

// estimateDays adjusts the type's base duration for fortification and
// objective control, clamped to the type's allowed range.
func estimateDays(spec rules.OperationType, obj *Objective) int {
	adjusted := float64(spec.BaseDays) * (1 + 0.2*obj.Fortification) * (1 - 0.3*obj.Control)
	days := int(math.Round(adjusted))
	if days < spec.MinDays {
		days = spec.MinDays
	}
	if days > spec.MaxDays {
		days = spec.MaxDays
	}
	return days
}

// splitPhaseDays divides the estimate across phases by the type's fixed
// proportions. The engagement phase absorbs rounding drift so the phase
// budgets always sum exactly to the estimate.
func splitPhaseDays(spec rules.OperationType, estimate int) map[Phase]int {
	shaping := int(math.Round(float64(estimate) * spec.PhaseSplit[0]))
	exploit := 0
	if spec.PhaseSplit[2] > 0 {
		exploit = int(math.Round(float64(estimate) * spec.PhaseSplit[2]))
		if exploit < 1 {
			exploit = 1
		}
	}
	if shaping < 1 {
		shaping = 1
	}
	engagement := estimate - shaping - exploit
	for engagement < 1 && shaping > 1 {
		shaping--
		engagement++
	}
	return map[Phase]int{
		PhaseContactShaping:     shaping,
		PhaseEngagement:         engagement,
		PhaseExploitConsolidate: exploit,
	}
}

func (o *Operation) hasExploit() bool {
	return o.PhaseDays[PhaseExploitConsolidate] > 0
}

// SubmitDecisions stores the decision for the active phase. It fails
// unless the operation is awaiting a decision for exactly that phase.
func (o *Operation) SubmitDecisions(tables *rules.Tables, d Decisions) error {
	if d == nil {
		return fmt.Errorf("%w: nil decision", ErrInvalidDecision)
	}
	if !o.AwaitingDecision {
		return ErrNotAwaitingDecision
	}
	if d.Phase() != o.CurrentPhase {
		return fmt.Errorf("%w: got %s while in %s", ErrWrongPhaseDecision, d.Phase(), o.CurrentPhase)
	}
	if err := d.validate(tables); err != nil {
		return err
	}
	o.decisions[o.CurrentPhase] = d
	o.AwaitingDecision = false
	return nil
}

// AdvanceDay resolves exactly one combat day, or reports a blocked status
// without touching any state. Blocked is not an error: callers are
// expected to acknowledge the pending record or submit the missing
// decision first.
func (o *Operation) AdvanceDay(tables *rules.Tables, obj *Objective, stock *battle.Stock, seq uint64) (AdvanceStatus, error) {
	if o.CurrentPhase == PhaseComplete {
		return AdvanceUnspecified, ErrOperationComplete
	}
	if o.Pending != nil {
		return AdvanceBlockedPending, nil
	}
	if o.AwaitingDecision {
		return AdvanceBlockedDecision, nil
	}

	decision, ok := o.decisions[o.CurrentPhase]
	if !ok {
		// The awaiting flag guards this path; reaching it is a bug.
		panic(fmt.Sprintf("operation: phase %s has no decision but is not awaiting one", o.CurrentPhase))
	}
	mods, err := modifiers(decision, tables)
	if err != nil {
		return AdvanceUnspecified, err
	}
	// Planning against an inflated enemy picture slows the push.
	mods.Progress *= clamp.Range(1/o.planningBias, 0.85, 1.15)

	day := o.DayInOperation + 1
	out := battle.ResolveDay(battle.DayInput{
		Tables:               tables,
		Field:                o.field,
		Attacker:             o.Attacker,
		Defender:             o.Defender,
		AttackerStartWalkers: o.attackerStartWalkers,
		DefenderStartWalkers: o.defenderStartWalkers,
		Stock:                *stock,
		Mods:                 mods,
		Fortification:        obj.Fortification,
		BaseDifficulty:       obj.BaseDifficulty,
		IntelConfidence:      obj.IntelConfidence,
		EstimatedDays:        o.EstimatedDays,
		SupplyUse:            o.typeSpec.SupplyUse,
		Seed:                 o.seed,
		Day:                  day,
		Seq:                  seq,
	})

	spent := battle.Stock{
		Ammo: stock.Ammo - out.Stock.Ammo,
		Fuel: stock.Fuel - out.Stock.Fuel,
		Med:  stock.Med - out.Stock.Med,
	}
	o.Attacker = out.Attacker
	o.Defender = out.Defender
	obj.Garrison = out.Defender
	obj.Fortification = out.Fortification
	*stock = out.Stock

	o.DayInPhase++
	o.DayInOperation++
	o.TotalProgress += out.Tick.ProgressDelta
	o.totalSpent.Ammo += spent.Ammo
	o.totalSpent.Fuel += spent.Fuel
	o.totalSpent.Med += spent.Med
	o.acc.add(out.Tick, spent)

	if o.DayInPhase >= o.PhaseDays[o.CurrentPhase] {
		record := o.acc.freeze(freezeInput{
			Phase:         o.CurrentPhase,
			Decisions:     decision,
			EndDay:        o.DayInOperation,
			Attacker:      o.Attacker,
			Tables:        tables,
			Terrain:       o.field,
			Fortification: obj.Fortification,
		})
		o.Pending = &record
		return AdvancePhaseComplete, nil
	}
	return AdvanceResolved, nil
}

// AcknowledgePhaseRecord clears the pending record and transitions to the
// next phase, re-arming the decision gate unless the operation is done.
// It returns nil when no record is pending.
func (o *Operation) AcknowledgePhaseRecord() *PhaseRecord {
	if o.Pending == nil {
		return nil
	}
	record := o.Pending
	o.History = append(o.History, *record)
	o.Pending = nil
	o.CurrentPhase = o.CurrentPhase.next(o.hasExploit())
	o.DayInPhase = 0
	if o.CurrentPhase != PhaseComplete {
		o.AwaitingDecision = true
		o.acc = newAccumulator(o.DayInOperation+1, o.Attacker, record.Ticks[len(record.Ticks)-1].FortificationAfter)
	}
	return record
}
