package payscale

import (
	"math/rand"
	"testing"

	"github.com/mora090410/homework/internal/model"
)

func subjects(grades ...model.Grade) []model.Subject {
	var subs []model.Subject
	for i, g := range grades {
		subs = append(subs, model.Subject{ID: int64(i + 1), Name: "Subject", Grade: g})
	}
	return subs
}

func TestHourlyRateEmptySubjects(t *testing.T) {
	if got := HourlyRate(nil, DefaultRates()); got != 0 {
		t.Errorf("HourlyRate(nil) = %v, want 0", got)
	}
	if got := HourlyRate([]model.Subject{}, DefaultRates()); got != 0 {
		t.Errorf("HourlyRate(empty) = %v, want 0", got)
	}
}

func TestHourlyRateSumsInCents(t *testing.T) {
	rates := map[model.Grade]float64{
		model.GradeA: 5.00,
		model.GradeB: 4.15,
	}
	got := HourlyRate(subjects(model.GradeA, model.GradeA), rates)
	if got != 10.00 {
		t.Errorf("two A subjects = %v, want 10.00", got)
	}

	// 3 x 4.15 accumulated as floats drifts; cents summation must not.
	got = HourlyRate(subjects(model.GradeB, model.GradeB, model.GradeB), rates)
	if got != 12.45 {
		t.Errorf("three B subjects = %v, want 12.45", got)
	}
}

func TestHourlyRateUnmappedGrade(t *testing.T) {
	rates := map[model.Grade]float64{model.GradeA: 5.00}
	got := HourlyRate(subjects(model.GradeA, model.GradeF), rates)
	if got != 5.00 {
		t.Errorf("A plus unmapped F = %v, want 5.00", got)
	}
}

func TestHourlyRateOrderIndependent(t *testing.T) {
	rates := DefaultRates()
	subs := subjects(model.GradeAPlus, model.GradeB, model.GradeCMinus, model.GradeF, model.GradeDPlus)
	want := HourlyRate(subs, rates)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		r.Shuffle(len(subs), func(a, b int) { subs[a], subs[b] = subs[b], subs[a] })
		if got := HourlyRate(subs, rates); got != want {
			t.Fatalf("permutation changed rate: got %v, want %v", got, want)
		}
	}
}

func TestResolveRatesPrefersConfigs(t *testing.T) {
	configs := []model.GradeConfig{
		{Grade: model.GradeA, ValueCents: 800},
		{Grade: model.GradeF, ValueCents: 50},
	}
	resolved := ResolveRates(configs, DefaultRates())

	if len(resolved) != 13 {
		t.Fatalf("resolved map covers %d grades, want 13", len(resolved))
	}
	if resolved[model.GradeA] != 8.00 {
		t.Errorf("A = %v, want 8.00 (config)", resolved[model.GradeA])
	}
	if resolved[model.GradeF] != 0.50 {
		t.Errorf("F = %v, want 0.50 (config)", resolved[model.GradeF])
	}
	if resolved[model.GradeB] != 4.50 {
		t.Errorf("B = %v, want 4.50 (fallback)", resolved[model.GradeB])
	}
}

func TestResolveRatesEmptyConfigs(t *testing.T) {
	fallback := DefaultRates()
	resolved := ResolveRates(nil, fallback)
	for _, g := range model.Grades() {
		if resolved[g] != fallback[g] {
			t.Errorf("grade %s = %v, want fallback %v", g, resolved[g], fallback[g])
		}
	}
}
