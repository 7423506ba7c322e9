// Package rules holds the read-only numeric tuning tables consumed by the
// battle and raid engines. Tables are loaded once, validated, and never
// mutated afterwards; a table that fails validation is a configuration
// error surfaced before any simulation runs.
package rules

// DecisionOption captures the combat modifiers attached to one player
// decision string.
type DecisionOption struct {
	// Progress multiplies the attacker's daily progress delta.
	Progress float64 `json:"progress"`
	// Loss multiplies casualty intensity for the side that chose it.
	Loss float64 `json:"loss"`
	// Variance widens or narrows the random band on damage rolls.
	Variance float64 `json:"variance"`
	// Initiative is an additive bonus on the daily initiative score.
	Initiative float64 `json:"initiative"`
	// Intensity scales engagement tempo, and with it supply burn.
	Intensity float64 `json:"intensity"`
	// FortErosion multiplies fortification erosion while in effect.
	FortErosion float64 `json:"fort_erosion"`
}

// OperationType describes a class of operation and its duration envelope.
type OperationType struct {
	// BaseDays is the unadjusted duration estimate.
	BaseDays int `json:"base_days"`
	// MinDays and MaxDays clamp the adjusted estimate.
	MinDays int `json:"min_days"`
	MaxDays int `json:"max_days"`
	// PhaseSplit holds the proportional day allocation for the shaping,
	// engagement, and exploit phases, in that order. A zero third entry
	// means the type has no exploit phase.
	PhaseSplit [3]float64 `json:"phase_split"`
	// SupplyUse scales daily supply consumption.
	SupplyUse float64 `json:"supply_use"`
	// SecuresDirectly marks types whose success secures the objective
	// outright instead of merely contesting it.
	SecuresDirectly bool `json:"secures_directly"`
}

// SupplyClass describes the combat effect of running short on one class.
type SupplyClass struct {
	// ProgressPenalty is subtracted (proportionally) from daily progress
	// while the class is short.
	ProgressPenalty float64 `json:"progress_penalty"`
	// CasualtyMultiplier inflates the attacker's casualty mean while the
	// class is short.
	CasualtyMultiplier float64 `json:"casualty_multiplier"`
}

// UnitRole describes one unit role's combat characteristics.
type UnitRole struct {
	// ManpowerWeight converts a headcount of this role into manpower.
	ManpowerWeight float64 `json:"manpower_weight"`
	// BasePower is the power contributed per engaged manpower.
	BasePower float64 `json:"base_power"`
	// Participation weights how eagerly the role commits to the line.
	Participation float64 `json:"participation"`
	// ReconBonus is the per-unit initiative recon contribution.
	ReconBonus float64 `json:"recon_bonus"`
	// AmmoUse and FuelUse are daily draw per 100 engaged manpower at
	// intensity 1.
	AmmoUse float64 `json:"ammo_use"`
	FuelUse float64 `json:"fuel_use"`
}

// Terrain describes one battlefield terrain class.
type Terrain struct {
	// CombatWidth multiplies the terrain force limit.
	CombatWidth float64 `json:"combat_width"`
	// AttackPower and DefendPower multiply each side's power.
	AttackPower float64 `json:"attack_power"`
	DefendPower float64 `json:"defend_power"`
	// Progress multiplies the attacker's progress delta.
	Progress float64 `json:"progress"`
	// Loss multiplies casualties for both sides.
	Loss float64 `json:"loss"`
	// WalkerPower multiplies walker power contributions.
	WalkerPower float64 `json:"walker_power"`
}

// EndState describes a phase-three end state and its success contract.
type EndState struct {
	// RequiredProgress is the cumulative progress needed for success.
	RequiredProgress float64 `json:"required_progress"`
	// ControlGain is added to objective control on success.
	ControlGain float64 `json:"control_gain"`
	// FortificationFactor scales remaining fortification on success.
	FortificationFactor float64 `json:"fortification_factor"`
	// ReinforcementFactor scales enemy reinforcement on success.
	ReinforcementFactor float64 `json:"reinforcement_factor"`
	// AlwaysFails marks end states that can never succeed (withdraw).
	AlwaysFails bool `json:"always_fails"`
}

// Constants holds the global tuning values shared by every engine.
type Constants struct {
	ManpowerPerBattalion float64 `json:"manpower_per_battalion"`
	MoraleFloor          float64 `json:"morale_floor"`
	ManpowerFloor        float64 `json:"manpower_floor"`

	BaseDamageRate    float64 `json:"base_damage_rate"`
	MaxCohesionDamage float64 `json:"max_cohesion_damage"`
	DamageBand        float64 `json:"damage_band"`
	InitiativeBoost   float64 `json:"initiative_boost"`

	BaseCasualtyRate float64 `json:"base_casualty_rate"`
	CasualtySpread   float64 `json:"casualty_spread"`
	InfantrySplit    float64 `json:"infantry_split"`
	WalkerSplit      float64 `json:"walker_split"`
	SupportSplit     float64 `json:"support_split"`

	WalkerScreenRate     float64 `json:"walker_screen_rate"`
	WalkerScreenMax      float64 `json:"walker_screen_max"`
	WalkerScreenCoverage float64 `json:"walker_screen_coverage"`
	WalkerFloorFraction  float64 `json:"walker_floor_fraction"`

	InitiativeBase  float64 `json:"initiative_base"`
	ReconCap        float64 `json:"recon_cap"`
	InitiativeNoise float64 `json:"initiative_noise"`

	AdvantageExpansionCap float64 `json:"advantage_expansion_cap"`
	AdvantageJitter       float64 `json:"advantage_jitter"`

	MedBasePer100   float64 `json:"med_base_per_100"`
	MedPerCasualty  float64 `json:"med_per_casualty"`
	SupplyAmmoPower float64 `json:"supply_ammo_power"`
	SupplyFuelPower float64 `json:"supply_fuel_power"`
	SupplyMedPower  float64 `json:"supply_med_power"`

	FortErosionRate    float64 `json:"fort_erosion_rate"`
	FortRecoveryRate   float64 `json:"fort_recovery_rate"`
	ReadinessWearRate  float64 `json:"readiness_wear_rate"`
	SecureRecoveryRate float64 `json:"secure_recovery_rate"`

	FailureControlLoss       float64 `json:"failure_control_loss"`
	FailureFortificationGain float64 `json:"failure_fortification_gain"`
	IntelBaseGain            float64 `json:"intel_base_gain"`
	IntelSuccessBonus        float64 `json:"intel_success_bonus"`
	IntelSupportFactor       float64 `json:"intel_support_factor"`
}

// Tables aggregates every rule table the engines consume.
type Tables struct {
	Constants      Constants                 `json:"constants"`
	Decisions      map[string]DecisionOption `json:"decisions"`
	OperationTypes map[string]OperationType  `json:"operation_types"`
	SupplyClasses  map[string]SupplyClass    `json:"supply_classes"`
	Roles          map[string]UnitRole       `json:"roles"`
	Terrain        map[string]Terrain        `json:"terrain"`
	EndStates      map[string]EndState       `json:"end_states"`
}
