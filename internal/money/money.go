// Package money holds the cents-first arithmetic the rest of the system is
// built on. Every total is computed in integer cents; dollars exist only at
// the display boundary.
package money

import "math"

// epsilon counters binary float representation error before rounding, so
// amounts like 4.15 (stored as 4.1499999...) land on 415 and not 414.
const epsilon = 1e-9

// DollarsToCents converts a dollar amount to integer cents, rounding half
// away from zero. Non-finite input is treated as zero.
func DollarsToCents(amount float64) int64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	if amount < 0 {
		return -int64(math.Round((-amount + epsilon) * 100))
	}
	return int64(math.Round((amount + epsilon) * 100))
}

// CentsToDollars converts integer cents to a display dollar value.
func CentsToDollars(cents int64) float64 {
	return float64(cents) / 100
}
