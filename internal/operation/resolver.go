package operation

import (
	"fmt"
	"sort"

	"github.com/louisbranch/ironfront/internal/battle"
	"github.com/louisbranch/ironfront/internal/rules"
)

// phaseAccumulator collects the per-day ticks of one phase so the phase
// record can be frozen in a single pass when the phase ends.
type phaseAccumulator struct {
	startDay       int
	readinessStart float64
	cohesionStart  float64
	fortStart      float64

	progress       float64
	attackerLosses battle.Losses
	defenderLosses battle.Losses
	spent          battle.Stock
	initiativeDays int
	advantageSum   float64
	shortDays      map[string]int
	ticks          []battle.DayTick
}

func newAccumulator(startDay int, attacker battle.Force, fortification float64) *phaseAccumulator {
	return &phaseAccumulator{
		startDay:       startDay,
		readinessStart: attacker.Readiness,
		cohesionStart:  attacker.Cohesion,
		fortStart:      fortification,
		shortDays:      make(map[string]int),
	}
}

func (a *phaseAccumulator) add(tick battle.DayTick, spent battle.Stock) {
	a.ticks = append(a.ticks, tick)
	a.progress += tick.ProgressDelta
	a.attackerLosses.Infantry += tick.Attacker.Casualties.Infantry
	a.attackerLosses.Walkers += tick.Attacker.Casualties.Walkers
	a.attackerLosses.Support += tick.Attacker.Casualties.Support
	a.defenderLosses.Infantry += tick.Defender.Casualties.Infantry
	a.defenderLosses.Walkers += tick.Defender.Casualties.Walkers
	a.defenderLosses.Support += tick.Defender.Casualties.Support
	a.spent.Ammo += spent.Ammo
	a.spent.Fuel += spent.Fuel
	a.spent.Med += spent.Med
	if tick.AttackerInitiative {
		a.initiativeDays++
	}
	a.advantageSum += tick.Advantage
	for _, class := range tick.Supplies.ShortClasses() {
		a.shortDays[class]++
	}
}

type freezeInput struct {
	Phase         Phase
	Decisions     Decisions
	EndDay        int
	Attacker      battle.Force
	Tables        *rules.Tables
	Terrain       battle.Battlefield
	Fortification float64
}

// freeze produces the immutable phase record: aggregate numbers plus the
// factor events that explain them, each tagged with the direction it
// pushed the outcome.
func (a *phaseAccumulator) freeze(in freezeInput) PhaseRecord {
	days := len(a.ticks)
	record := PhaseRecord{
		Phase:          in.Phase,
		StartDay:       a.startDay,
		EndDay:         in.EndDay,
		Decisions:      in.Decisions,
		Progress:       a.progress,
		AttackerLosses: a.attackerLosses,
		DefenderLosses: a.defenderLosses,
		SuppliesSpent:  a.spent,
		InitiativeDays: a.initiativeDays,
		ReadinessDelta: in.Attacker.Readiness - a.readinessStart,
		CohesionDelta:  in.Attacker.Cohesion - a.cohesionStart,
		Ticks:          a.ticks,
	}
	if days == 0 {
		return record
	}

	avgAdvantage := a.advantageSum / float64(days)
	record.Factors = append(record.Factors, FactorEvent{
		Name:      "numeric_advantage",
		Value:     avgAdvantage - 1,
		Direction: direction(avgAdvantage - 1),
		Rationale: fmt.Sprintf("average power advantage %.2f over %d days", avgAdvantage, days),
		Phase:     in.Phase,
	})

	initiativeRate := float64(a.initiativeDays) / float64(days)
	record.Factors = append(record.Factors, FactorEvent{
		Name:      "initiative",
		Value:     initiativeRate - 0.5,
		Direction: direction(initiativeRate - 0.5),
		Rationale: fmt.Sprintf("held initiative %d of %d days", a.initiativeDays, days),
		Phase:     in.Phase,
	})

	for _, class := range orderedShortClasses(a.shortDays) {
		short := a.shortDays[class]
		weight := 0.25
		if spec, ok := in.Tables.SupplyClasses[class]; ok {
			weight = spec.ProgressPenalty
		}
		record.Factors = append(record.Factors, FactorEvent{
			Name:      "supply_shortage_" + class,
			Value:     -float64(short) / float64(days) * weight,
			Direction: DirectionHurt,
			Rationale: fmt.Sprintf("%s ran short %d of %d days", class, short, days),
			Phase:     in.Phase,
		})
	}

	for _, name := range in.Decisions.options() {
		opt, err := in.Tables.Decision(name)
		if err != nil {
			continue
		}
		record.Factors = append(record.Factors, FactorEvent{
			Name:      "decision_" + name,
			Value:     opt.Progress - 1,
			Direction: direction(opt.Progress - 1),
			Rationale: fmt.Sprintf("%s shifted daily progress by %+.0f%%", name, (opt.Progress-1)*100),
			Phase:     in.Phase,
		})
	}

	record.Factors = append(record.Factors, FactorEvent{
		Name:      "terrain_" + in.Terrain.TerrainName,
		Value:     in.Terrain.Terrain.Progress - 1,
		Direction: direction(in.Terrain.Terrain.Progress - 1),
		Rationale: fmt.Sprintf("%s terrain scales progress by %.2f", in.Terrain.TerrainName, in.Terrain.Terrain.Progress),
		Phase:     in.Phase,
	})

	erosion := a.fortStart - in.Fortification
	if erosion > 0.005 {
		record.Factors = append(record.Factors, FactorEvent{
			Name:      "fortification_erosion",
			Value:     erosion,
			Direction: DirectionHelped,
			Rationale: fmt.Sprintf("defenses eroded from %.2f to %.2f", a.fortStart, in.Fortification),
			Phase:     in.Phase,
		})
	}
	return record
}

func direction(v float64) string {
	if v < 0 {
		return DirectionHurt
	}
	return DirectionHelped
}

func orderedShortClasses(shortDays map[string]int) []string {
	classes := make([]string, 0, len(shortDays))
	for class := range shortDays {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}
