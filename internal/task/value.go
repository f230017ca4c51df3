package task

import (
	"math"

	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/money"
)

// ValueCents computes a task's value in integer cents from its baseline
// duration and an hourly rate in cents. A task with no usable time value
// (zero or negative duration or rate) still pays its flat bonus; that is the
// defined fallback, not an error. The multiplier scales only the time value,
// never the bonus.
func ValueCents(minutes int, hourlyRateCents int64, multiplier float64, bonusCents int64) int64 {
	if minutes <= 0 || hourlyRateCents <= 0 {
		return bonusCents
	}
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier <= 0 {
		multiplier = 1.0
	}
	base := float64(hourlyRateCents) * float64(minutes) / 60.0
	return int64(math.Round(base*multiplier)) + bonusCents
}

// Value is the dollars-denominated wrapper around ValueCents.
func Value(minutes int, hourlyRate, multiplier, bonus float64) float64 {
	cents := ValueCents(minutes, money.DollarsToCents(hourlyRate), multiplier, money.DollarsToCents(bonus))
	return money.CentsToDollars(cents)
}

// EffectiveValueCents resolves what a task actually pays: an explicit flat
// value wins, otherwise the rate-based computation.
func EffectiveValueCents(t model.Task, hourlyRateCents int64) int64 {
	if t.ValueCents != nil {
		return *t.ValueCents
	}
	mult := t.Multiplier
	if mult == 0 {
		mult = 1.0
	}
	return ValueCents(t.BaselineMinutes, hourlyRateCents, mult, t.BonusCents)
}
