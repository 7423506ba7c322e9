package battle

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/louisbranch/ironfront/internal/core/clamp"
	"github.com/louisbranch/ironfront/internal/core/rng"
	"github.com/louisbranch/ironfront/internal/rules"
)

// Modifiers are the decision-derived combat modifiers in effect for one
// day, composed by the operation layer from the active phase's decisions.
type Modifiers struct {
	Progress    float64
	Loss        float64
	Variance    float64
	Initiative  float64
	Intensity   float64
	FortErosion float64
	// SecureFocus marks the exploit-phase secure posture, which lets the
	// attacker recover readiness instead of grinding forward.
	SecureFocus bool
}

// NeutralModifiers returns modifiers that change nothing.
func NeutralModifiers() Modifiers {
	return Modifiers{Progress: 1, Loss: 1, Variance: 1, Intensity: 1, FortErosion: 1}
}

// DayInput is everything one combat day depends on. ResolveDay never
// mutates it.
type DayInput struct {
	Tables *rules.Tables
	Field  Battlefield

	Attacker Force
	Defender Force
	// Start walker counts anchor the walker screen floor.
	AttackerStartWalkers int
	DefenderStartWalkers int

	Stock Stock
	Mods  Modifiers

	Fortification   float64
	BaseDifficulty  float64
	IntelConfidence float64
	EstimatedDays   int
	SupplyUse       float64

	// Stream identity for every random draw this day makes.
	Seed int64
	Day  int
	Seq  uint64
}

// DayResult is one resolved combat day: the immutable tick plus the
// updated side states, front-line stock, and fortification.
type DayResult struct {
	Tick          DayTick
	Attacker      Force
	Defender      Force
	Stock         Stock
	Fortification float64
}

const battleStream = "battle"

// ResolveDay computes one day of combat as a pure transformation. A
// malformed precondition is a programming error and panics; numeric edge
// cases (zero eligible manpower, zero force) degrade to a no-contact day
// instead.
//
// # Determinism
//
// Every random draw comes from a stream named by (Seed, Day, Seq, purpose)
// and the draws happen unconditionally in a fixed order, so two inputs that
// differ only in force or supply figures still consume identical random
// values at every site.
func ResolveDay(in DayInput) DayResult {
	if in.Tables == nil {
		panic("battle: day input has no rule tables")
	}
	if in.EstimatedDays < 1 {
		panic(fmt.Sprintf("battle: estimated days %d is not positive", in.EstimatedDays))
	}
	if err := in.Attacker.Validate(); err != nil {
		panic(fmt.Sprintf("battle: attacker force invalid: %v", err))
	}
	if err := in.Defender.Validate(); err != nil {
		panic(fmt.Sprintf("battle: defender force invalid: %v", err))
	}

	c := in.Tables.Constants
	roles := in.Tables.Roles
	terrain := in.Field.Terrain

	rExpandA := rng.New(in.Seed, in.Day, in.Seq, battleStream, "expand.attacker")
	rExpandB := rng.New(in.Seed, in.Day, in.Seq, battleStream, "expand.defender")
	rInit := rng.New(in.Seed, in.Day, in.Seq, battleStream, "initiative")
	rDamageA := rng.New(in.Seed, in.Day, in.Seq, battleStream, "damage.attacker")
	rDamageB := rng.New(in.Seed, in.Day, in.Seq, battleStream, "damage.defender")
	rCasA := rng.New(in.Seed, in.Day, in.Seq, battleStream, "casualties.attacker")
	rCasB := rng.New(in.Seed, in.Day, in.Seq, battleStream, "casualties.defender")

	// 1. Terrain force limit shared by both sides.
	battalions := int(math.Ceil((5 + float64(in.Field.Infrastructure)/2) * terrain.CombatWidth))
	baseCap := float64(battalions) * c.ManpowerPerBattalion

	// 2. Manpower conversion and eligibility.
	manpowerA := in.Attacker.Manpower(roles)
	manpowerB := in.Defender.Manpower(roles)
	eligibleA := eligibleManpower(manpowerA, in.Attacker.Morale(), c)
	eligibleB := eligibleManpower(manpowerB, in.Defender.Morale(), c)

	// 3. Numeric-advantage cap expansion. Both jitters are drawn even when
	// neither side has an edge so the streams stay aligned.
	jitterA := rng.Jitter(rExpandA, c.AdvantageJitter)
	jitterB := rng.Jitter(rExpandB, c.AdvantageJitter)
	capA := expandCap(baseCap, eligibleA, eligibleB, jitterA, c)
	capB := expandCap(baseCap, eligibleB, eligibleA, jitterB, c)

	// 4. Role participation and engagement allocation.
	engagedA := allocate(in.Attacker, in.Attacker.Morale(), roles, capA, eligibleA)
	engagedB := allocate(in.Defender, in.Defender.Morale(), roles, capB, eligibleB)
	contact := engagedA.Total() > 0 && engagedB.Total() > 0

	// Supply requirements are computed up front: the sufficiency ratios
	// feed the attacker's power before stock is actually drawn down.
	intensity := in.Mods.Intensity
	ammoReq := roleDraw(engagedA, roles, ammoUse) * intensity * in.SupplyUse
	fuelReq := roleDraw(engagedA, roles, fuelUse) * intensity * in.SupplyUse
	medReqBase := float64(in.Attacker.Headcount()) / 100 * c.MedBasePer100 * in.SupplyUse
	ammoRatio := sufficiency(in.Stock.Ammo, ammoReq)
	fuelRatio := sufficiency(in.Stock.Fuel, fuelReq)
	medRatio := sufficiency(in.Stock.Med, medReqBase)

	// 5. Power.
	supplyMult := math.Pow(ammoRatio, c.SupplyAmmoPower) *
		math.Pow(fuelRatio, c.SupplyFuelPower) *
		math.Pow(medRatio, c.SupplyMedPower)
	powerA := SidePower(engagedA, roles, terrain.WalkerPower) * terrain.AttackPower * supplyMult * in.Mods.Progress
	defenseMult := 1 + 0.25*in.Fortification + 0.2*in.BaseDifficulty
	powerB := SidePower(engagedB, roles, terrain.WalkerPower) * terrain.DefendPower * defenseMult

	// 6. Initiative roll. Noise amplitude shrinks as intel confidence and
	// recon coverage grow.
	recon := reconCoverage(in.Attacker, roles, c.ReconCap)
	amp := c.InitiativeNoise * clamp.Range(1-(0.6*in.IntelConfidence+2*recon), 0.1, 1)
	initScore := c.InitiativeBase + in.Mods.Initiative + recon + rng.Jitter(rInit, amp)
	attackerInitiative := initScore > 0.5

	// 7. Damage and casualties.
	advantage := clamp.Ratio(powerA, powerB)
	damageA := c.BaseDamageRate * intensity / clamp.FloorDenom(advantage, 0.2)
	damageB := c.BaseDamageRate * intensity * advantage
	if attackerInitiative {
		damageB *= c.InitiativeBoost
	} else {
		damageA *= c.InitiativeBoost
	}
	band := c.DamageBand * in.Mods.Variance
	damageA = clamp.Range(damageA*(1+rng.Jitter(rDamageA, band)), 0, c.MaxCohesionDamage)
	damageB = clamp.Range(damageB*(1+rng.Jitter(rDamageB, band)), 0, c.MaxCohesionDamage)
	if !contact {
		damageA, damageB = 0, 0
	}

	headA := in.Attacker.Headcount()
	headB := in.Defender.Headcount()
	meanA := c.BaseCasualtyRate * intensity * damageA * float64(headA) *
		clamp.Ratio(engagedA.Total(), manpowerA) * terrain.Loss * in.Mods.Loss
	meanB := c.BaseCasualtyRate * intensity * damageB * float64(headB) *
		clamp.Ratio(engagedB.Total(), manpowerB) * terrain.Loss

	var tags []string
	if !contact {
		tags = append(tags, "no_contact")
	}
	if ammoRatio < 1 {
		meanA *= in.Tables.SupplyClasses["ammo"].CasualtyMultiplier
		tags = append(tags, "ammo_short")
	}
	if fuelRatio < 1 {
		meanA *= in.Tables.SupplyClasses["fuel"].CasualtyMultiplier
		tags = append(tags, "fuel_short")
	}
	if medRatio < 1 {
		meanA *= in.Tables.SupplyClasses["med"].CasualtyMultiplier
		tags = append(tags, "med_short")
	}

	casualtiesA := sampleCasualties(rCasA, meanA, c.CasualtySpread, headA)
	casualtiesB := sampleCasualties(rCasB, meanB, c.CasualtySpread, headB)

	// 8. Casualty split and walker screen.
	lossesA := splitLosses(casualtiesA, in.Attacker, c)
	lossesB := splitLosses(casualtiesB, in.Defender, c)
	lossesA = walkerScreen(lossesA, in.Attacker, in.AttackerStartWalkers, c)
	lossesB = walkerScreen(lossesB, in.Defender, in.DefenderStartWalkers, c)

	// 9. Supply consumption, capped at stock.
	medReq := medReqBase + float64(lossesA.Total())*c.MedPerCasualty
	supplies := SupplySnapshot{
		Ammo: consume(in.Stock.Ammo, ammoReq),
		Fuel: consume(in.Stock.Fuel, fuelReq),
		Med:  consume(in.Stock.Med, medReq),
	}
	stock := Stock{
		Ammo: in.Stock.Ammo - supplies.Ammo.Spent,
		Fuel: in.Stock.Fuel - supplies.Fuel.Spent,
		Med:  in.Stock.Med - supplies.Med.Spent,
	}

	// 10. Progress, fortification, and readiness updates.
	progress := 0.0
	if contact {
		logistic := 2 / (1 + math.Exp(-1.5*(advantage-1)))
		shortageFactor := 1.0
		if ammoRatio < 1 {
			shortageFactor *= 1 - in.Tables.SupplyClasses["ammo"].ProgressPenalty
		}
		if fuelRatio < 1 {
			shortageFactor *= 1 - in.Tables.SupplyClasses["fuel"].ProgressPenalty
		}
		if medRatio < 1 {
			shortageFactor *= 1 - in.Tables.SupplyClasses["med"].ProgressPenalty
		}
		progress = logistic / float64(in.EstimatedDays) * in.Mods.Progress * terrain.Progress * shortageFactor
	}

	fortification := in.Fortification
	switch {
	case contact && attackerInitiative && advantage >= 1:
		fortification -= c.FortErosionRate * in.Mods.FortErosion * intensity
	case contact && attackerInitiative:
		fortification -= c.FortErosionRate * in.Mods.FortErosion * intensity * 0.35
	case contact:
		fortification += c.FortRecoveryRate
	}
	fortification = clamp.NonNegative(fortification)

	attacker := in.Attacker.Apply(lossesA)
	defender := in.Defender.Apply(lossesB)
	attacker.Cohesion = clamp.Unit(attacker.Cohesion - damageA)
	defender.Cohesion = clamp.Unit(defender.Cohesion - damageB)
	attacker.Readiness = clamp.Unit(attacker.Readiness - readinessWear(c, intensity, lossesA.Total(), headA) + secureRecovery(c, in.Mods))
	defender.Readiness = clamp.Unit(defender.Readiness - readinessWear(c, intensity, lossesB.Total(), headB))

	if attackerInitiative && contact {
		tags = append(tags, "attacker_initiative")
	}

	tick := DayTick{
		Day:            in.Day,
		TerrainName:    in.Field.TerrainName,
		ForceLimit:     baseCap,
		BattalionLimit: battalions,
		Attacker: SideTick{
			EligibleManpower: eligibleA,
			EngagedManpower:  engagedA.Total(),
			EngagementCap:    capA,
			Power:            powerA,
			Casualties:       lossesA,
			Remaining:        attacker,
		},
		Defender: SideTick{
			EligibleManpower: eligibleB,
			EngagedManpower:  engagedB.Total(),
			EngagementCap:    capB,
			Power:            powerB,
			Casualties:       lossesB,
			Remaining:        defender,
		},
		Advantage:          advantage,
		AttackerInitiative: attackerInitiative,
		InitiativeScore:    initScore,
		ProgressDelta:      progress,
		FortificationAfter: fortification,
		Supplies:           supplies,
		Tags:               tags,
	}

	return DayResult{
		Tick:          tick,
		Attacker:      attacker,
		Defender:      defender,
		Stock:         stock,
		Fortification: fortification,
	}
}

// eligibleManpower zeroes out a side below the morale or manpower floors.
func eligibleManpower(manpower, morale float64, c rules.Constants) float64 {
	if morale < c.MoraleFloor || manpower < c.ManpowerFloor {
		return 0
	}
	return manpower
}

// expandCap widens a side's engagement cap when it holds a manpower edge.
// The expansion is a bounded function of the ratio plus capped jitter.
func expandCap(baseCap, own, enemy, jitter float64, c rules.Constants) float64 {
	if own <= enemy || own <= 0 {
		return baseCap
	}
	ratio := clamp.Ratio(own, enemy)
	expansion := clamp.Range((ratio-1)*0.25+jitter, 0, c.AdvantageExpansionCap)
	return baseCap * (1 + expansion)
}

// allocate distributes a side's engagement cap across roles proportionally
// to participation weight, then reallocates leftover capacity iteratively
// among roles still under their manpower totals.
func allocate(f Force, morale float64, roles map[string]rules.UnitRole, limit, eligible float64) Allocation {
	if eligible <= 0 || limit <= 0 {
		return Allocation{}
	}

	manpower := [3]float64{
		float64(f.Infantry) * roles["infantry"].ManpowerWeight,
		float64(f.Walkers) * roles["walker"].ManpowerWeight,
		float64(f.Support) * roles["support"].ManpowerWeight,
	}
	participation := [3]float64{
		roles["infantry"].Participation,
		roles["walker"].Participation,
		roles["support"].Participation,
	}

	var engaged [3]float64
	capLeft := limit
	for iter := 0; iter < 8 && capLeft > 1e-9; iter++ {
		totalWeight := 0.0
		for i := range manpower {
			if engaged[i] < manpower[i] {
				totalWeight += manpower[i] * morale * participation[i]
			}
		}
		if totalWeight <= 0 {
			break
		}
		allocated := 0.0
		for i := range manpower {
			if engaged[i] >= manpower[i] {
				continue
			}
			weight := manpower[i] * morale * participation[i]
			add := math.Min(manpower[i]-engaged[i], capLeft*weight/totalWeight)
			engaged[i] += add
			allocated += add
		}
		capLeft -= allocated
		if allocated <= 1e-9 {
			break
		}
	}

	return Allocation{Infantry: engaged[0], Walker: engaged[1], Support: engaged[2]}
}

type sustainment int

const (
	ammoUse sustainment = iota
	fuelUse
)

// roleDraw sums a supply draw across engaged roles, per 100 manpower.
func roleDraw(engaged Allocation, roles map[string]rules.UnitRole, kind sustainment) float64 {
	use := func(role rules.UnitRole) float64 {
		if kind == ammoUse {
			return role.AmmoUse
		}
		return role.FuelUse
	}
	return engaged.Infantry/100*use(roles["infantry"]) +
		engaged.Walker/100*use(roles["walker"]) +
		engaged.Support/100*use(roles["support"])
}

// sufficiency is the available-over-required ratio capped at 1. A zero
// requirement counts as fully sufficient.
func sufficiency(available, required float64) float64 {
	if required <= 0 {
		return 1
	}
	return clamp.Range(available/required, 0, 1)
}

// sampleCasualties draws a casualty count from a normal band around mean,
// clamped to the pre-battle force size. The draw happens even for a zero
// mean so the stream advances at a fixed rate.
func sampleCasualties(r *rand.Rand, mean, spread float64, head int) int {
	band := rng.Normal(r, 1, spread, 1-2.5*spread, 1+2.5*spread)
	count := int(math.Round(mean * band))
	return clamp.CountAtMost(count, head)
}

// consume caps a requirement at available stock and records the usage.
func consume(available, required float64) SupplyUsage {
	spent := math.Min(available, required)
	ratio := sufficiency(available, required)
	return SupplyUsage{
		Before:   available,
		Required: required,
		Spent:    spent,
		Ratio:    ratio,
		Short:    ratio < 1,
	}
}

// splitLosses distributes raw casualties infantry-majority across roles,
// clamped per role, with the remainder pushed to roles with spare strength.
func splitLosses(total int, f Force, c rules.Constants) Losses {
	if total <= 0 {
		return Losses{}
	}

	l := Losses{
		Infantry: clamp.CountAtMost(int(math.Round(float64(total)*c.InfantrySplit)), f.Infantry),
		Walkers:  clamp.CountAtMost(int(math.Round(float64(total)*c.WalkerSplit)), f.Walkers),
		Support:  clamp.CountAtMost(int(math.Round(float64(total)*c.SupportSplit)), f.Support),
	}

	remainder := total - l.Total()
	if remainder > 0 {
		take := clamp.CountAtMost(remainder, f.Infantry-l.Infantry)
		l.Infantry += take
		remainder -= take
	}
	if remainder > 0 {
		take := clamp.CountAtMost(remainder, f.Support-l.Support)
		l.Support += take
		remainder -= take
	}
	if remainder > 0 {
		take := clamp.CountAtMost(remainder, f.Walkers-l.Walkers)
		l.Walkers += take
	}
	return l
}

// walkerScreen transfers a bounded fraction of infantry losses onto
// walkers, proportional to walker coverage of the infantry line, without
// letting walkers drop below their floor fraction of the operation-start
// count.
func walkerScreen(l Losses, f Force, startWalkers int, c rules.Constants) Losses {
	if f.Walkers == 0 || l.Infantry == 0 {
		return l
	}

	coverage := clamp.Range(
		float64(f.Walkers)*c.WalkerScreenCoverage/clamp.FloorDenom(float64(f.Infantry), 1),
		0, 1,
	)
	fraction := math.Min(c.WalkerScreenMax, coverage*c.WalkerScreenRate)
	transfer := int(math.Floor(float64(l.Infantry) * fraction))

	floorCount := int(math.Ceil(float64(startWalkers) * c.WalkerFloorFraction))
	spare := f.Walkers - l.Walkers - floorCount
	if spare < 0 {
		spare = 0
	}
	if transfer > spare {
		transfer = spare
	}

	l.Infantry -= transfer
	l.Walkers += transfer
	return l
}

func readinessWear(c rules.Constants, intensity float64, losses, head int) float64 {
	casualtyRatio := clamp.Ratio(float64(losses), float64(head))
	return c.ReadinessWearRate * intensity * (0.5 + casualtyRatio)
}

func secureRecovery(c rules.Constants, mods Modifiers) float64 {
	if !mods.SecureFocus {
		return 0
	}
	return c.SecureRecoveryRate
}
