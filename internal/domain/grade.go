package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Grade Types ────────────────────────────────────────────────────────────

var (
	MinGrade  = decimal.NewFromInt(1)
	MaxGrade  = decimal.NewFromInt(10)
	GradeStep = decimal.RequireFromString("0.25")

	four = decimal.NewFromInt(4)
)

// Grade is a single recorded evaluation. CreditsEarned is fixed at creation
// so that deleting the grade reverses exactly what it granted.
type Grade struct {
	ID            int64           `json:"id"`
	SubjectID     string          `json:"subject_id"`
	Value         decimal.Decimal `json:"value"`
	CreditsEarned decimal.Decimal `json:"credits_earned"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// NewGrade validates subject and value and stamps the credit award.
func NewGrade(id int64, subjectID string, value decimal.Decimal, at time.Time) (Grade, error) {
	if _, err := FindSubject(subjectID); err != nil {
		return Grade{}, err
	}
	if err := ValidateGradeValue(value); err != nil {
		return Grade{}, err
	}
	return Grade{
		ID:            id,
		SubjectID:     subjectID,
		Value:         value,
		CreditsEarned: CreditsForGrade(value),
		RecordedAt:    at,
	}, nil
}

// Validate checks a stored grade: known subject, valid value and a
// non-negative award.
func (g Grade) Validate() error {
	if _, err := FindSubject(g.SubjectID); err != nil {
		return err
	}
	if err := ValidateGradeValue(g.Value); err != nil {
		return err
	}
	if g.CreditsEarned.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// ValidateGradeValue accepts multiples of 0.25 in [1.00, 10.00].
func ValidateGradeValue(v decimal.Decimal) error {
	if v.LessThan(MinGrade) || v.GreaterThan(MaxGrade) {
		return ErrInvalidGrade
	}
	if !v.Mul(four).IsInteger() {
		return ErrInvalidGrade
	}
	return nil
}

// ─── Credit Step Table ──────────────────────────────────────────────────────
// The one award policy for every deployment:
//
//	10.00             → 10 credits
//	9.50 ≤ v < 10.00  →  5
//	9.00 ≤ v <  9.50  →  3
//	8.00 ≤ v <  9.00  →  2
//	v < 8.00          →  0

type creditStep struct {
	min     decimal.Decimal
	credits decimal.Decimal
}

var creditSteps = []creditStep{
	{min: decimal.NewFromInt(10), credits: decimal.NewFromInt(10)},
	{min: decimal.RequireFromString("9.5"), credits: decimal.NewFromInt(5)},
	{min: decimal.NewFromInt(9), credits: decimal.NewFromInt(3)},
	{min: decimal.NewFromInt(8), credits: decimal.NewFromInt(2)},
}

// CreditsForGrade maps a grade value to the credits it earns.
// Monotonic non-decreasing in v.
func CreditsForGrade(v decimal.Decimal) decimal.Decimal {
	for _, s := range creditSteps {
		if v.GreaterThanOrEqual(s.min) {
			return s.credits
		}
	}
	return decimal.Zero
}

// GradeOptions lists every selectable grade, 10.00 down to 1.00.
func GradeOptions() []decimal.Decimal {
	var out []decimal.Decimal
	for v := MaxGrade; v.GreaterThanOrEqual(MinGrade); v = v.Sub(GradeStep) {
		out = append(out, v)
	}
	return out
}

// ─── Grade Ledger Queries ───────────────────────────────────────────────────
// Derived values are always recomputed from the raw list.

// Grades is the ledger in insertion order.
type Grades []Grade

// For returns the grades of one subject, most recent first.
func (gs Grades) For(subjectID string) []Grade {
	var out []Grade
	for i := len(gs) - 1; i >= 0; i-- {
		if gs[i].SubjectID == subjectID {
			out = append(out, gs[i])
		}
	}
	return out
}

// Find returns the index of the grade with id, or -1.
func (gs Grades) Find(id int64) int {
	for i, g := range gs {
		if g.ID == id {
			return i
		}
	}
	return -1
}

// AverageFor is the mean grade of a subject rounded to 2 places,
// or zero when the subject has no grades.
func (gs Grades) AverageFor(subjectID string) decimal.Decimal {
	sum, n := decimal.Zero, int64(0)
	for _, g := range gs {
		if g.SubjectID == subjectID {
			sum = sum.Add(g.Value)
			n++
		}
	}
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(n)).Round(2)
}

// OverallAverage is the mean of the per-subject averages of every subject
// with at least one grade, so each subject weighs the same regardless of
// how many grades it holds. Zero when nothing is recorded.
func (gs Grades) OverallAverage() decimal.Decimal {
	sum, n := decimal.Zero, int64(0)
	for _, s := range subjects {
		if !gs.has(s.ID) {
			continue
		}
		sum = sum.Add(gs.AverageFor(s.ID))
		n++
	}
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(n)).Round(2)
}

func (gs Grades) has(subjectID string) bool {
	for _, g := range gs {
		if g.SubjectID == subjectID {
			return true
		}
	}
	return false
}
