package battle

import (
	"math"

	"github.com/louisbranch/ironfront/internal/rules"
)

// SidePower is the base power formula shared by the multi-day battle
// simulator and the raid tick engine: engaged manpower per role times the
// role's base power, with walkers further scaled by the walker power
// multiplier of the ground being fought over (1 for the raid engine, which
// models no terrain).
func SidePower(engaged Allocation, roles map[string]rules.UnitRole, walkerMult float64) float64 {
	return engaged.Infantry*roles["infantry"].BasePower +
		engaged.Walker*roles["walker"].BasePower*walkerMult +
		engaged.Support*roles["support"].BasePower
}

// reconCoverage sums the per-role recon bonuses of a force, scaled per 100
// units, capped at cap. With the default tables only support units carry a
// recon bonus.
func reconCoverage(f Force, roles map[string]rules.UnitRole, cap float64) float64 {
	total := float64(f.Infantry)*roles["infantry"].ReconBonus +
		float64(f.Walkers)*roles["walker"].ReconBonus +
		float64(f.Support)*roles["support"].ReconBonus
	return math.Min(cap, total/100)
}

// FullAllocation converts a force's entire headcount into an engaged
// allocation, for engines that commit everything every tick.
func FullAllocation(f Force, roles map[string]rules.UnitRole) Allocation {
	return Allocation{
		Infantry: float64(f.Infantry) * roles["infantry"].ManpowerWeight,
		Walker:   float64(f.Walkers) * roles["walker"].ManpowerWeight,
		Support:  float64(f.Support) * roles["support"].ManpowerWeight,
	}
}
