package store

import (
	"database/sql"
	"fmt"

	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/money"
)

type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

const profileCols = `id, household_id, name, role, balance_cents, created_at, updated_at`

func scanProfile(scanner interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	err := scanner.Scan(&p.ID, &p.HouseholdID, &p.Name, &p.Role, &p.BalanceCents, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	// The dollars view is derived here and nowhere else.
	p.Balance = money.CentsToDollars(p.BalanceCents)
	return &p, nil
}

func (s *ProfileStore) Create(householdID int64, name string, role model.Role) (*model.Profile, error) {
	result, err := s.db.Exec(
		`INSERT INTO profiles (household_id, name, role) VALUES (?, ?, ?)`,
		householdID, name, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProfileStore) GetByID(id int64) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	subjects, err := s.ListSubjects(id)
	if err != nil {
		return nil, err
	}
	p.Subjects = subjects
	return p, nil
}

func (s *ProfileStore) List(householdID int64) ([]model.Profile, error) {
	rows, err := s.db.Query(
		`SELECT `+profileCols+` FROM profiles WHERE household_id = ? ORDER BY name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *ProfileStore) Update(id int64, name string, role model.Role) (*model.Profile, error) {
	_, err := s.db.Exec(
		`UPDATE profiles SET name = ?, role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, role, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProfileStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// --- Subject methods ---

const subjectCols = `id, profile_id, name, grade, created_at, updated_at`

func scanSubject(scanner interface{ Scan(...any) error }) (*model.Subject, error) {
	var sub model.Subject
	err := scanner.Scan(&sub.ID, &sub.ProfileID, &sub.Name, &sub.Grade, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *ProfileStore) AddSubject(profileID int64, name string, grade model.Grade) (*model.Subject, error) {
	result, err := s.db.Exec(
		`INSERT INTO subjects (profile_id, name, grade) VALUES (?, ?, ?)`,
		profileID, name, grade,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subject: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+subjectCols+` FROM subjects WHERE id = ?`, id)
	return scanSubject(row)
}

func (s *ProfileStore) ListSubjects(profileID int64) ([]model.Subject, error) {
	rows, err := s.db.Query(
		`SELECT `+subjectCols+` FROM subjects WHERE profile_id = ? ORDER BY name ASC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		sub, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, *sub)
	}
	return subjects, rows.Err()
}

// UpdateSubjectGrade records a new grade for a subject.
func (s *ProfileStore) UpdateSubjectGrade(subjectID int64, grade model.Grade) (*model.Subject, error) {
	_, err := s.db.Exec(
		`UPDATE subjects SET grade = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		grade, subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("update subject grade: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+subjectCols+` FROM subjects WHERE id = ?`, subjectID)
	sub, err := scanSubject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return sub, nil
}

func (s *ProfileStore) DeleteSubject(subjectID int64) error {
	_, err := s.db.Exec(`DELETE FROM subjects WHERE id = ?`, subjectID)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}
