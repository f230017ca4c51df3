package store

import (
	"database/sql"
	"testing"

	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/payscale"
)

func TestHouseholdSeedsPayscale(t *testing.T) {
	hs, _, _, _ := setupTestDB(t)
	h := mustHousehold(t, hs)

	gcs := NewGradeConfigStore(hsDB(hs))
	configs, err := gcs.ListHousehold(h.ID)
	if err != nil {
		t.Fatalf("list configs: %v", err)
	}
	if len(configs) != 13 {
		t.Fatalf("config count = %d, want 13 (one per grade)", len(configs))
	}

	byGrade := make(map[model.Grade]int64)
	for _, c := range configs {
		if c.ProfileID != nil {
			t.Errorf("household config has profile_id %d", *c.ProfileID)
		}
		byGrade[c.Grade] = c.ValueCents
	}
	if byGrade[model.GradeA] != 600 {
		t.Errorf("A = %d cents, want 600", byGrade[model.GradeA])
	}
	if byGrade[model.GradeF] != 0 {
		t.Errorf("F = %d cents, want 0", byGrade[model.GradeF])
	}
}

func TestProfileSubjectsAndResolvedRate(t *testing.T) {
	hs, ps, _, _ := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")

	if _, err := ps.AddSubject(child.ID, "Math", model.GradeA); err != nil {
		t.Fatalf("add subject: %v", err)
	}
	sub, err := ps.AddSubject(child.ID, "Reading", model.GradeB)
	if err != nil {
		t.Fatalf("add subject: %v", err)
	}

	p, err := ps.GetByID(child.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if len(p.Subjects) != 2 {
		t.Fatalf("subject count = %d, want 2", len(p.Subjects))
	}

	// A ($6.00) + B ($4.50) on the stock payscale.
	rate := payscale.HourlyRate(p.Subjects, payscale.DefaultRates())
	if rate != 10.50 {
		t.Errorf("hourly rate = %v, want 10.50", rate)
	}

	// Grade update is reflected on the next read.
	if _, err := ps.UpdateSubjectGrade(sub.ID, model.GradeAPlus); err != nil {
		t.Fatalf("update grade: %v", err)
	}
	p, _ = ps.GetByID(child.ID)
	rate = payscale.HourlyRate(p.Subjects, payscale.DefaultRates())
	if rate != 13.00 {
		t.Errorf("hourly rate after regrade = %v, want 13.00", rate)
	}

	if err := ps.DeleteSubject(sub.ID); err != nil {
		t.Fatalf("delete subject: %v", err)
	}
	p, _ = ps.GetByID(child.ID)
	if len(p.Subjects) != 1 {
		t.Errorf("subject count after delete = %d, want 1", len(p.Subjects))
	}
}

func TestProfileGradeConfigOverrides(t *testing.T) {
	hs, ps, _, _ := setupTestDB(t)
	h := mustHousehold(t, hs)
	child := mustChild(t, ps, h.ID, "Max")
	gcs := NewGradeConfigStore(hsDB(hs))

	if err := gcs.SetProfile(h.ID, child.ID, model.GradeA, 900); err != nil {
		t.Fatalf("set profile config: %v", err)
	}
	// Upsert replaces, not duplicates.
	if err := gcs.SetProfile(h.ID, child.ID, model.GradeA, 800); err != nil {
		t.Fatalf("re-set profile config: %v", err)
	}

	configs, err := gcs.ListProfile(child.ID)
	if err != nil {
		t.Fatalf("list profile configs: %v", err)
	}
	if len(configs) != 1 {
		t.Fatalf("profile config count = %d, want 1", len(configs))
	}
	if configs[0].ValueCents != 800 {
		t.Errorf("A override = %d, want 800", configs[0].ValueCents)
	}

	// Resolution: profile override beats household value for A only.
	household, _ := gcs.ListHousehold(h.ID)
	base := payscale.ResolveRates(household, payscale.DefaultRates())
	resolved := payscale.ResolveRates(configs, base)
	if resolved[model.GradeA] != 8.00 {
		t.Errorf("resolved A = %v, want 8.00", resolved[model.GradeA])
	}
	if resolved[model.GradeB] != 4.50 {
		t.Errorf("resolved B = %v, want 4.50 (household)", resolved[model.GradeB])
	}

	if err := gcs.ClearProfile(child.ID); err != nil {
		t.Fatalf("clear profile configs: %v", err)
	}
	configs, _ = gcs.ListProfile(child.ID)
	if len(configs) != 0 {
		t.Errorf("config count after clear = %d, want 0", len(configs))
	}
}

// hsDB exposes the underlying handle for sibling stores in tests.
func hsDB(hs *HouseholdStore) *sql.DB {
	return hs.db
}
