// Package payscale turns letter grades into hourly rates. A payscale maps
// each grade to a cents-per-hour contribution; a profile's hourly rate is the
// sum of its subjects' contributions.
package payscale

import (
	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/money"
)

// DefaultRates returns the stock grade→dollars-per-hour payscale used when a
// household has not configured its own. A fresh map is returned per call so
// callers can mutate their copy freely; there is no shared global.
func DefaultRates() map[model.Grade]float64 {
	return map[model.Grade]float64{
		model.GradeAPlus:  7.00,
		model.GradeA:      6.00,
		model.GradeAMinus: 5.50,
		model.GradeBPlus:  5.00,
		model.GradeB:      4.50,
		model.GradeBMinus: 4.00,
		model.GradeCPlus:  3.50,
		model.GradeC:      3.00,
		model.GradeCMinus: 2.50,
		model.GradeDPlus:  2.00,
		model.GradeD:      1.50,
		model.GradeDMinus: 1.00,
		model.GradeF:      0,
	}
}

// HourlyRate computes a profile's hourly rate in dollars from its subjects
// and a grade→dollars rate table. Summation happens in integer cents so float
// error cannot compound across subjects. A grade missing from the table
// contributes zero. No subjects means no rate.
func HourlyRate(subjects []model.Subject, rates map[model.Grade]float64) float64 {
	if len(subjects) == 0 {
		return 0
	}
	var totalCents int64
	for _, s := range subjects {
		totalCents += money.DollarsToCents(rates[s.Grade])
	}
	return money.CentsToDollars(totalCents)
}

// ResolveRates builds a complete grade→dollars map covering every grade,
// preferring an explicit config entry over the fallback. Values pass through
// cents so configured and fallback rates carry identical precision.
func ResolveRates(configs []model.GradeConfig, fallback map[model.Grade]float64) map[model.Grade]float64 {
	byGrade := make(map[model.Grade]int64, len(configs))
	for _, c := range configs {
		byGrade[c.Grade] = c.ValueCents
	}

	resolved := make(map[model.Grade]float64, 13)
	for _, g := range model.Grades() {
		if cents, ok := byGrade[g]; ok {
			resolved[g] = money.CentsToDollars(cents)
			continue
		}
		resolved[g] = money.CentsToDollars(money.DollarsToCents(fallback[g]))
	}
	return resolved
}
