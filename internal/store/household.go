package store

import (
	"database/sql"
	"fmt"

	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/money"
	"github.com/mora090410/homework/internal/payscale"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

// Create inserts a household and seeds its payscale from the given
// grade→dollars rate map, one grade_configs row per grade.
func (s *HouseholdStore) Create(name string, rates map[model.Grade]float64) (*model.Household, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`INSERT INTO households (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for _, g := range model.Grades() {
		_, err := tx.Exec(
			`INSERT INTO grade_configs (household_id, grade, value_cents) VALUES (?, ?, ?)`,
			id, g, money.DollarsToCents(rates[g]),
		)
		if err != nil {
			return nil, fmt.Errorf("seed grade config %s: %w", g, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// CreateDefault creates a household with the stock payscale.
func (s *HouseholdStore) CreateDefault(name string) (*model.Household, error) {
	return s.Create(name, payscale.DefaultRates())
}

func (s *HouseholdStore) GetByID(id int64) (*model.Household, error) {
	var h model.Household
	err := s.db.QueryRow(
		`SELECT id, name, created_at, updated_at FROM households WHERE id = ?`, id,
	).Scan(&h.ID, &h.Name, &h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return &h, nil
}

func (s *HouseholdStore) List() ([]model.Household, error) {
	rows, err := s.db.Query(`SELECT id, name, created_at, updated_at FROM households ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		var h model.Household
		if err := rows.Scan(&h.ID, &h.Name, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, h)
	}
	return households, rows.Err()
}
