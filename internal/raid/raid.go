// Package raid implements the short-form skirmish engine: twelve fixed
// ticks of force-on-force attrition with no terrain, no manpower
// allocation, and no walker screen. It shares only the base power formula
// with the multi-day battle simulator; the two engines are deliberately
// independent.
package raid

import (
	"errors"
	"fmt"
	"math"

	"github.com/louisbranch/ironfront/internal/battle"
	"github.com/louisbranch/ironfront/internal/core/clamp"
	"github.com/louisbranch/ironfront/internal/core/rng"
	"github.com/louisbranch/ironfront/internal/rules"
)

// Ticks is the fixed length of every raid.
const Ticks = 12

// breakCohesion is the cohesion level at which a side routs and the raid
// ends early.
const breakCohesion = 0.3

// ErrNoForce indicates a raid started with an empty side.
var ErrNoForce = errors.New("raid requires units on both sides")

// Input is everything one raid depends on. Run never mutates it.
type Input struct {
	Tables   *rules.Tables
	Raider   battle.Force
	Garrison battle.Force

	// Stream identity for every random draw the raid makes.
	Seed int64
	Seq  uint64
}

// Tick is the immutable snapshot of one resolved raid tick.
type Tick struct {
	Tick int

	RaiderPower   float64
	GarrisonPower float64
	Advantage     float64

	RaiderCasualties   battle.Losses
	GarrisonCasualties battle.Losses
}

// Report summarizes a finished raid.
type Report struct {
	Success bool
	// BrokeAt is the tick on which a side routed, or 0 when the raid ran
	// its full length.
	BrokeAt int

	Raider   battle.Force
	Garrison battle.Force

	RaiderLosses   battle.Losses
	GarrisonLosses battle.Losses

	Ticks []Tick
}

const raidStream = "raid"

// Run resolves a full raid deterministically. Ticks run until the fixed
// count is exhausted or a side's cohesion breaks; a raid succeeds when the
// garrison breaks first, or when it ends with the raider holding the power
// advantage.
func Run(in Input) (*Report, error) {
	if in.Tables == nil {
		panic("raid: nil rule tables")
	}
	if err := in.Raider.Validate(); err != nil {
		return nil, fmt.Errorf("raider force: %w", err)
	}
	if err := in.Garrison.Validate(); err != nil {
		return nil, fmt.Errorf("garrison force: %w", err)
	}
	if in.Raider.Headcount() == 0 || in.Garrison.Headcount() == 0 {
		return nil, ErrNoForce
	}

	c := in.Tables.Constants
	roles := in.Tables.Roles
	raider, garrison := in.Raider, in.Garrison
	report := &Report{}

	for tick := 1; tick <= Ticks; tick++ {
		raiderPower := battle.SidePower(battle.FullAllocation(raider, roles), roles, 1) * raider.Morale()
		garrisonPower := battle.SidePower(battle.FullAllocation(garrison, roles), roles, 1) * garrison.Morale()
		advantage := clamp.Ratio(raiderPower, garrisonPower)

		// Both draws happen every tick so the streams stay aligned
		// across inputs that differ only in force figures.
		rRaider := rng.New(in.Seed, tick, in.Seq, raidStream, "casualty.raider")
		rGarrison := rng.New(in.Seed, tick, in.Seq, raidStream, "casualty.garrison")
		bandRaider := rng.Normal(rRaider, 1, c.CasualtySpread, 1-2.5*c.CasualtySpread, 1+2.5*c.CasualtySpread)
		bandGarrison := rng.Normal(rGarrison, 1, c.CasualtySpread, 1-2.5*c.CasualtySpread, 1+2.5*c.CasualtySpread)

		rate := c.BaseCasualtyRate / Ticks
		raiderMean := rate * float64(raider.Headcount()) * pressure(1/clamp.FloorDenom(advantage, 0.2))
		garrisonMean := rate * float64(garrison.Headcount()) * pressure(advantage)

		raiderLosses := splitByHeadcount(raider, raiderMean*bandRaider)
		garrisonLosses := splitByHeadcount(garrison, garrisonMean*bandGarrison)

		raider = wear(raider.Apply(raiderLosses), raiderLosses, c)
		garrison = wear(garrison.Apply(garrisonLosses), garrisonLosses, c)

		report.Ticks = append(report.Ticks, Tick{
			Tick:               tick,
			RaiderPower:        raiderPower,
			GarrisonPower:      garrisonPower,
			Advantage:          advantage,
			RaiderCasualties:   raiderLosses,
			GarrisonCasualties: garrisonLosses,
		})
		report.RaiderLosses.Infantry += raiderLosses.Infantry
		report.RaiderLosses.Walkers += raiderLosses.Walkers
		report.RaiderLosses.Support += raiderLosses.Support
		report.GarrisonLosses.Infantry += garrisonLosses.Infantry
		report.GarrisonLosses.Walkers += garrisonLosses.Walkers
		report.GarrisonLosses.Support += garrisonLosses.Support

		if broke(garrison) {
			report.BrokeAt = tick
			report.Success = true
			break
		}
		if broke(raider) {
			report.BrokeAt = tick
			report.Success = false
			break
		}
	}

	report.Raider = raider
	report.Garrison = garrison
	if report.BrokeAt == 0 {
		last := report.Ticks[len(report.Ticks)-1]
		report.Success = last.Advantage > 1
	}
	return report, nil
}

// pressure converts a power advantage into a casualty scale: a side under
// a 2:1 disadvantage suffers roughly twice the base attrition, capped so a
// hopeless matchup does not annihilate a side in one tick.
func pressure(advantage float64) float64 {
	return clamp.Range(advantage, 0.25, 3)
}

// splitByHeadcount distributes a casualty total across roles proportional
// to headcount. This is the raid engine's simplification: no fixed role
// split and no walker screen.
func splitByHeadcount(f battle.Force, total float64) battle.Losses {
	count := int(math.Round(clamp.NonNegative(total)))
	head := f.Headcount()
	if count <= 0 || head == 0 {
		return battle.Losses{}
	}
	if count > head {
		count = head
	}
	losses := battle.Losses{
		Infantry: count * f.Infantry / head,
		Walkers:  count * f.Walkers / head,
		Support:  count * f.Support / head,
	}
	for remainder := count - losses.Total(); remainder > 0; remainder-- {
		switch {
		case losses.Infantry < f.Infantry:
			losses.Infantry++
		case losses.Support < f.Support:
			losses.Support++
		default:
			losses.Walkers++
		}
	}
	return losses
}

// wear decays readiness and cohesion in proportion to the fraction of the
// force just lost.
func wear(f battle.Force, l battle.Losses, c rules.Constants) battle.Force {
	head := f.Headcount() + l.Total()
	if head == 0 {
		return f
	}
	fraction := float64(l.Total()) / float64(head)
	f.Readiness = clamp.Unit(f.Readiness - c.ReadinessWearRate/2 - fraction*0.2)
	f.Cohesion = clamp.Unit(f.Cohesion - fraction*0.5)
	return f
}

func broke(f battle.Force) bool {
	return f.Headcount() == 0 || f.Cohesion < breakCohesion
}
