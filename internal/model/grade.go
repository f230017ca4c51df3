package model

// Grade is a letter grade used as a payscale lookup key.
type Grade string

const (
	GradeAPlus  Grade = "A+"
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeBMinus Grade = "B-"
	GradeCPlus  Grade = "C+"
	GradeC      Grade = "C"
	GradeCMinus Grade = "C-"
	GradeDPlus  Grade = "D+"
	GradeD      Grade = "D"
	GradeDMinus Grade = "D-"
	GradeF      Grade = "F"
)

// Grades lists every grade in descending order. The slice is freshly
// allocated on each call so callers can't corrupt the enumeration.
func Grades() []Grade {
	return []Grade{
		GradeAPlus, GradeA, GradeAMinus,
		GradeBPlus, GradeB, GradeBMinus,
		GradeCPlus, GradeC, GradeCMinus,
		GradeDPlus, GradeD, GradeDMinus,
		GradeF,
	}
}

// GradeConfig pairs a grade with its cents-per-hour contribution. A household
// carries one config per grade; a profile may carry its own overriding set.
type GradeConfig struct {
	ID          int64  `json:"id"`
	HouseholdID int64  `json:"household_id"`
	ProfileID   *int64 `json:"profile_id,omitempty"`
	Grade       Grade  `json:"grade"`
	ValueCents  int64  `json:"value_cents"`
}
