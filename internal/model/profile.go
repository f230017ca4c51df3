package model

import "time"

// Role determines what a household member can do. Children earn; admins
// assign, approve, and pay.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleChild  Role = "CHILD"
	RoleMember Role = "MEMBER"
)

// Profile is the earning entity. BalanceCents is the authoritative store of
// net worth; the dollars view is derived at the JSON boundary and must never
// feed back into arithmetic.
type Profile struct {
	ID           int64     `json:"id"`
	HouseholdID  int64     `json:"household_id"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	BalanceCents int64     `json:"balance_cents"`
	Balance      float64   `json:"balance"`
	Subjects     []Subject `json:"subjects,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Subject is one graded school subject belonging to a profile.
type Subject struct {
	ID        int64     `json:"id"`
	ProfileID int64     `json:"profile_id"`
	Name      string    `json:"name"`
	Grade     Grade     `json:"grade"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
