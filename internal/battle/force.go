// Package battle implements the battle day simulator: a pure transformation
// of two force sides, a battlefield, supplies, and a named random stream
// into one immutable day tick plus the mutated side states.
package battle

import (
	"errors"
	"math"

	"github.com/louisbranch/ironfront/internal/core/clamp"
	"github.com/louisbranch/ironfront/internal/rules"
)

var (
	// ErrNegativeCount indicates a force with a negative unit count.
	ErrNegativeCount = errors.New("force counts must be non-negative")
	// ErrStateOutOfRange indicates readiness or cohesion outside [0, 1].
	ErrStateOutOfRange = errors.New("readiness and cohesion must be in [0, 1]")
)

// Force is one side's combat strength and condition. Counts never go
// negative; readiness and cohesion are always clamped to [0, 1].
type Force struct {
	Infantry int
	Walkers  int
	Support  int

	Readiness float64
	Cohesion  float64
}

// Validate checks the force invariants.
func (f Force) Validate() error {
	if f.Infantry < 0 || f.Walkers < 0 || f.Support < 0 {
		return ErrNegativeCount
	}
	if f.Readiness < 0 || f.Readiness > 1 || f.Cohesion < 0 || f.Cohesion > 1 {
		return ErrStateOutOfRange
	}
	return nil
}

// Headcount returns the total number of units in the force.
func (f Force) Headcount() int {
	return f.Infantry + f.Walkers + f.Support
}

// Morale is the geometric mean of readiness and cohesion.
func (f Force) Morale() float64 {
	return math.Sqrt(f.Readiness * f.Cohesion)
}

// Manpower converts the force's counts into uniform manpower using the
// per-role weights from the rule tables.
func (f Force) Manpower(roles map[string]rules.UnitRole) float64 {
	return float64(f.Infantry)*roles["infantry"].ManpowerWeight +
		float64(f.Walkers)*roles["walker"].ManpowerWeight +
		float64(f.Support)*roles["support"].ManpowerWeight
}

// Losses is a per-role casualty count.
type Losses struct {
	Infantry int
	Walkers  int
	Support  int
}

// Total returns the summed losses across roles.
func (l Losses) Total() int {
	return l.Infantry + l.Walkers + l.Support
}

// Apply subtracts losses from the force, clamping each count at zero.
func (f Force) Apply(l Losses) Force {
	f.Infantry = clamp.CountAtMost(f.Infantry-l.Infantry, f.Infantry)
	f.Walkers = clamp.CountAtMost(f.Walkers-l.Walkers, f.Walkers)
	f.Support = clamp.CountAtMost(f.Support-l.Support, f.Support)
	return f
}

// Allocation is engaged manpower split by role.
type Allocation struct {
	Infantry float64
	Walker   float64
	Support  float64
}

// Total returns the summed engaged manpower.
func (a Allocation) Total() float64 {
	return a.Infantry + a.Walker + a.Support
}
