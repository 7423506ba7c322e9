// Package clamp provides the numeric bounding helpers shared by the combat
// engines. Every denominator in the battle math is floored through this
// package so a zero-strength side degrades to zero output instead of
// dividing by zero.
package clamp

// Unit clamps v to the [0, 1] interval.
func Unit(v float64) float64 {
	return Range(v, 0, 1)
}

// Range clamps v to the [lo, hi] interval.
func Range(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FloorDenom returns v, or min when v is smaller. It is used for every
// divisor in the combat math; min must be positive.
func FloorDenom(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}

// Ratio divides num by denom with the denominator floored to 1.
func Ratio(num, denom float64) float64 {
	return num / FloorDenom(denom, 1)
}

// NonNegative clamps v to zero when negative.
func NonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// CountAtMost clamps a count to the [0, limit] interval.
func CountAtMost(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
