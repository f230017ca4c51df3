package store

import (
	"database/sql"
	"fmt"

	"github.com/mora090410/homework/internal/model"
)

type GradeConfigStore struct {
	db *sql.DB
}

func NewGradeConfigStore(db *sql.DB) *GradeConfigStore {
	return &GradeConfigStore{db: db}
}

const gradeConfigCols = `id, household_id, profile_id, grade, value_cents`

func scanGradeConfig(scanner interface{ Scan(...any) error }) (*model.GradeConfig, error) {
	var c model.GradeConfig
	var profileID sql.NullInt64
	err := scanner.Scan(&c.ID, &c.HouseholdID, &profileID, &c.Grade, &c.ValueCents)
	if err != nil {
		return nil, err
	}
	if profileID.Valid {
		c.ProfileID = &profileID.Int64
	}
	return &c, nil
}

// ListHousehold returns the household-global payscale configs.
func (s *GradeConfigStore) ListHousehold(householdID int64) ([]model.GradeConfig, error) {
	rows, err := s.db.Query(
		`SELECT `+gradeConfigCols+` FROM grade_configs WHERE household_id = ? AND profile_id IS NULL`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list grade configs: %w", err)
	}
	return collectGradeConfigs(rows)
}

// ListProfile returns the profile-specific overrides, which may be empty.
func (s *GradeConfigStore) ListProfile(profileID int64) ([]model.GradeConfig, error) {
	rows, err := s.db.Query(
		`SELECT `+gradeConfigCols+` FROM grade_configs WHERE profile_id = ?`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list profile grade configs: %w", err)
	}
	return collectGradeConfigs(rows)
}

func collectGradeConfigs(rows *sql.Rows) ([]model.GradeConfig, error) {
	defer rows.Close()
	var configs []model.GradeConfig
	for rows.Next() {
		c, err := scanGradeConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grade config: %w", err)
		}
		configs = append(configs, *c)
	}
	return configs, rows.Err()
}

// SetHousehold upserts one household-global grade config.
func (s *GradeConfigStore) SetHousehold(householdID int64, grade model.Grade, valueCents int64) error {
	_, err := s.db.Exec(
		`INSERT INTO grade_configs (household_id, grade, value_cents) VALUES (?, ?, ?)
		 ON CONFLICT(household_id, grade) WHERE profile_id IS NULL
		 DO UPDATE SET value_cents = excluded.value_cents`,
		householdID, grade, valueCents,
	)
	if err != nil {
		return fmt.Errorf("set grade config: %w", err)
	}
	return nil
}

// SetProfile upserts one profile-specific grade config override.
func (s *GradeConfigStore) SetProfile(householdID, profileID int64, grade model.Grade, valueCents int64) error {
	_, err := s.db.Exec(
		`INSERT INTO grade_configs (household_id, profile_id, grade, value_cents) VALUES (?, ?, ?, ?)
		 ON CONFLICT(profile_id, grade) WHERE profile_id IS NOT NULL
		 DO UPDATE SET value_cents = excluded.value_cents`,
		householdID, profileID, grade, valueCents,
	)
	if err != nil {
		return fmt.Errorf("set profile grade config: %w", err)
	}
	return nil
}

// ClearProfile removes all of a profile's overrides, reverting it to the
// household payscale.
func (s *GradeConfigStore) ClearProfile(profileID int64) error {
	_, err := s.db.Exec(`DELETE FROM grade_configs WHERE profile_id = ?`, profileID)
	if err != nil {
		return fmt.Errorf("clear profile grade configs: %w", err)
	}
	return nil
}
