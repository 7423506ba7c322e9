package battle

// SideTick is the per-side portion of a day tick.
type SideTick struct {
	EligibleManpower float64
	EngagedManpower  float64
	EngagementCap    float64
	Power            float64
	Casualties       Losses
	Remaining        Force
}

// DayTick is the immutable snapshot of one resolved combat day. Ticks are
// produced once per simulated day and never retroactively altered.
type DayTick struct {
	Day int

	TerrainName    string
	ForceLimit     float64
	BattalionLimit int

	Attacker SideTick
	Defender SideTick

	Advantage          float64
	AttackerInitiative bool
	InitiativeScore    float64

	ProgressDelta      float64
	FortificationAfter float64

	Supplies SupplySnapshot
	Tags     []string
}
