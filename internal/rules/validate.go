package rules

import (
	"fmt"
	"math"
)

// Required table keys. A table missing any of these is a configuration
// error: the engines look them up unconditionally.
var (
	requiredRoles      = []string{"infantry", "walker", "support"}
	requiredSupplies   = []string{"ammo", "fuel", "med"}
	requiredOperations = []string{"raid", "siege", "campaign"}
	requiredEndStates  = []string{"seize", "hold", "withdraw"}
)

// validate checks structural completeness and numeric sanity of the loaded
// tables.
func (t *Tables) validate() error {
	if err := t.validateConstants(); err != nil {
		return err
	}

	for _, name := range requiredRoles {
		role, ok := t.Roles[name]
		if !ok {
			return fmt.Errorf("roles table is missing %q", name)
		}
		if role.ManpowerWeight <= 0 || role.BasePower <= 0 || role.Participation <= 0 {
			return fmt.Errorf("role %q has non-positive weight, power, or participation", name)
		}
		if role.AmmoUse < 0 || role.FuelUse < 0 || role.ReconBonus < 0 {
			return fmt.Errorf("role %q has negative sustainment or recon values", name)
		}
	}

	for _, name := range requiredSupplies {
		class, ok := t.SupplyClasses[name]
		if !ok {
			return fmt.Errorf("supply classes table is missing %q", name)
		}
		if class.ProgressPenalty < 0 || class.ProgressPenalty > 1 {
			return fmt.Errorf("supply class %q progress penalty %v outside [0, 1]", name, class.ProgressPenalty)
		}
		if class.CasualtyMultiplier < 1 {
			return fmt.Errorf("supply class %q casualty multiplier %v below 1", name, class.CasualtyMultiplier)
		}
	}

	for _, name := range requiredOperations {
		op, ok := t.OperationTypes[name]
		if !ok {
			return fmt.Errorf("operation types table is missing %q", name)
		}
		if op.MinDays <= 0 || op.MinDays > op.BaseDays || op.BaseDays > op.MaxDays {
			return fmt.Errorf("operation type %q duration range %d..%d..%d is not ordered",
				name, op.MinDays, op.BaseDays, op.MaxDays)
		}
		split := op.PhaseSplit[0] + op.PhaseSplit[1] + op.PhaseSplit[2]
		if math.Abs(split-1) > 0.01 {
			return fmt.Errorf("operation type %q phase split sums to %v, want 1", name, split)
		}
		if op.SupplyUse <= 0 {
			return fmt.Errorf("operation type %q has non-positive supply use", name)
		}
	}

	for _, name := range requiredEndStates {
		if _, ok := t.EndStates[name]; !ok {
			return fmt.Errorf("end states table is missing %q", name)
		}
	}
	for name, end := range t.EndStates {
		if end.RequiredProgress < 0 {
			return fmt.Errorf("end state %q has negative required progress", name)
		}
		if end.FortificationFactor < 0 || end.FortificationFactor > 1 {
			return fmt.Errorf("end state %q fortification factor %v outside [0, 1]", name, end.FortificationFactor)
		}
	}

	if len(t.Terrain) == 0 {
		return fmt.Errorf("terrain table is empty")
	}
	for name, terrain := range t.Terrain {
		if terrain.CombatWidth <= 0 || terrain.AttackPower <= 0 || terrain.DefendPower <= 0 {
			return fmt.Errorf("terrain %q has non-positive width or power multipliers", name)
		}
		if terrain.Progress <= 0 || terrain.Loss <= 0 || terrain.WalkerPower <= 0 {
			return fmt.Errorf("terrain %q has non-positive progress, loss, or walker multipliers", name)
		}
	}

	if len(t.Decisions) == 0 {
		return fmt.Errorf("decisions table is empty")
	}
	for name, opt := range t.Decisions {
		if opt.Progress <= 0 || opt.Loss <= 0 || opt.Variance <= 0 || opt.Intensity <= 0 || opt.FortErosion <= 0 {
			return fmt.Errorf("decision %q has non-positive multipliers", name)
		}
	}

	return nil
}

func (t *Tables) validateConstants() error {
	c := t.Constants
	positives := map[string]float64{
		"manpower_per_battalion": c.ManpowerPerBattalion,
		"base_damage_rate":       c.BaseDamageRate,
		"max_cohesion_damage":    c.MaxCohesionDamage,
		"base_casualty_rate":     c.BaseCasualtyRate,
		"initiative_boost":       c.InitiativeBoost,
	}
	for name, v := range positives {
		if v <= 0 {
			return fmt.Errorf("constant %s must be positive, got %v", name, v)
		}
	}

	units := map[string]float64{
		"morale_floor":          c.MoraleFloor,
		"infantry_split":        c.InfantrySplit,
		"walker_split":          c.WalkerSplit,
		"support_split":         c.SupportSplit,
		"walker_screen_max":     c.WalkerScreenMax,
		"walker_floor_fraction": c.WalkerFloorFraction,
		"recon_cap":             c.ReconCap,
	}
	for name, v := range units {
		if v < 0 || v > 1 {
			return fmt.Errorf("constant %s must be in [0, 1], got %v", name, v)
		}
	}

	if split := c.InfantrySplit + c.WalkerSplit + c.SupportSplit; math.Abs(split-1) > 0.001 {
		return fmt.Errorf("casualty split sums to %v, want 1", split)
	}
	return nil
}
