package operation

import "github.com/louisbranch/ironfront/internal/battle"

// FactorEvent is one append-only "what mattered" entry. Events are never
// mutated after creation; the finalizer ranks them by absolute value.
type FactorEvent struct {
	Name      string
	Value     float64
	Direction string
	Rationale string
	Phase     Phase
}

// Factor directions.
const (
	DirectionHelped = "helped"
	DirectionHurt   = "hurt"
)

// PhaseRecord is the immutable summary of one completed phase.
type PhaseRecord struct {
	Phase    Phase
	StartDay int
	EndDay   int

	Decisions Decisions

	Progress       float64
	AttackerLosses battle.Losses
	DefenderLosses battle.Losses
	SuppliesSpent  battle.Stock
	InitiativeDays int
	ReadinessDelta float64
	CohesionDelta  float64

	Ticks   []battle.DayTick
	Factors []FactorEvent
}

// Report is the after-action report assembled by the finalizer.
type Report struct {
	OperationID string
	ObjectiveID string
	Type        string
	EndState    string

	Success          bool
	TotalProgress    float64
	RequiredProgress float64
	TotalDays        int

	AttackerLosses battle.Losses
	DefenderLosses battle.Losses
	SuppliesSpent  battle.Stock

	EnemyEstimate  float64
	ActualRatio    float64
	IntelAfter     float64
	ObjectiveAfter ObjectiveOutcome

	Phases     []PhaseRecord
	TopFactors []FactorEvent
}

// ObjectiveOutcome captures the objective's state after finalization.
type ObjectiveOutcome struct {
	Status        ObjectiveStatus
	Control       float64
	Fortification float64
	Reinforcement float64
}
