package operation

import (
	"math"
	"sort"

	"github.com/louisbranch/ironfront/internal/core/clamp"
	"github.com/louisbranch/ironfront/internal/rules"
)

// raidEndState is the implicit end state for operation types that skip
// the exploit phase and therefore never choose one.
const raidEndState = "hold"

// Finalize closes a completed operation: it judges the chosen end state
// against cumulative progress, applies the objective consequences, grants
// the intel gain, and assembles the after-action report. Finalization is
// one-shot; a second call fails.
func (o *Operation) Finalize(tables *rules.Tables, obj *Objective) (*Report, error) {
	if o.CurrentPhase != PhaseComplete {
		return nil, ErrNotComplete
	}
	if o.finalized {
		return nil, ErrAlreadyFinalized
	}

	endName := raidEndState
	for _, record := range o.History {
		if d, ok := record.Decisions.(ExploitDecisions); ok {
			endName = d.EndState
		}
	}
	end, err := tables.End(endName)
	if err != nil {
		return nil, err
	}
	c := tables.Constants

	success := !end.AlwaysFails && o.TotalProgress >= end.RequiredProgress
	switch {
	case success:
		obj.Control = clamp.Unit(obj.Control + end.ControlGain)
		obj.Fortification *= end.FortificationFactor
		obj.Reinforcement *= end.ReinforcementFactor
		if o.typeSpec.SecuresDirectly {
			obj.Status = StatusSecured
		} else if obj.Status == StatusEnemy {
			obj.Status = StatusContested
		}
	case end.AlwaysFails:
		// Withdrawing fails by definition but concedes nothing.
	default:
		obj.Control = clamp.Unit(obj.Control - c.FailureControlLoss)
		obj.Fortification += c.FailureFortificationGain
	}

	// Contact always teaches something; support assets teach more, and a
	// won operation leaves the ground open for thorough battle damage
	// assessment.
	intelGain := c.IntelBaseGain + float64(o.Attacker.Support)*c.IntelSupportFactor
	if success {
		intelGain += c.IntelSuccessBonus
	}
	obj.IntelConfidence = clamp.Unit(obj.IntelConfidence + intelGain)

	report := &Report{
		OperationID:      o.ID,
		ObjectiveID:      o.Intent.ObjectiveID,
		Type:             o.Intent.Type,
		EndState:         endName,
		Success:          success,
		TotalProgress:    o.TotalProgress,
		RequiredProgress: end.RequiredProgress,
		TotalDays:        o.DayInOperation,
		SuppliesSpent:    o.totalSpent,
		EnemyEstimate:    o.EnemyEstimate,
		ActualRatio:      o.actualRatio,
		IntelAfter:       obj.IntelConfidence,
		ObjectiveAfter: ObjectiveOutcome{
			Status:        obj.Status,
			Control:       obj.Control,
			Fortification: obj.Fortification,
			Reinforcement: obj.Reinforcement,
		},
		Phases: o.History,
	}
	for _, record := range o.History {
		report.AttackerLosses.Infantry += record.AttackerLosses.Infantry
		report.AttackerLosses.Walkers += record.AttackerLosses.Walkers
		report.AttackerLosses.Support += record.AttackerLosses.Support
		report.DefenderLosses.Infantry += record.DefenderLosses.Infantry
		report.DefenderLosses.Walkers += record.DefenderLosses.Walkers
		report.DefenderLosses.Support += record.DefenderLosses.Support
	}
	report.TopFactors = topFactors(o.History, o.EnemyEstimate, o.actualRatio)

	o.finalized = true
	return report, nil
}

// topFactors ranks every factor event by absolute value and keeps the
// five heaviest. The intel misestimate joins the ranking so a badly read
// enemy shows up in the report alongside combat factors.
func topFactors(history []PhaseRecord, estimate, actual float64) []FactorEvent {
	var events []FactorEvent
	for _, record := range history {
		events = append(events, record.Factors...)
	}
	if miss := estimate - actual; math.Abs(miss) > 0.05 {
		events = append(events, FactorEvent{
			Name:      "intel_estimate",
			Value:     -math.Abs(miss),
			Direction: DirectionHurt,
			Rationale: "enemy strength was misjudged at planning time",
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return math.Abs(events[i].Value) > math.Abs(events[j].Value)
	})
	if len(events) > 5 {
		events = events[:5]
	}
	return events
}
