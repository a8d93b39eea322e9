package models

import (
	"sort"
	"time"

	"github.com/lib/pq"
)

// Term models an academic scheduling period with fixed dates and working days.
type Term struct {
	ID           string        `db:"id" json:"id"`
	Name         string        `db:"name" json:"name"`
	AcademicYear string        `db:"academic_year" json:"academic_year"`
	StartDate    time.Time     `db:"start_date" json:"start_date"`
	EndDate      time.Time     `db:"end_date" json:"end_date"`
	IsActive     bool          `db:"is_active" json:"is_active"`
	WorkingDays  pq.Int64Array `db:"working_days" json:"working_days"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// WorkingDaySet returns the working days as ordered ints (1=Monday..7=Sunday).
func (t *Term) WorkingDaySet() []int {
	days := make([]int, 0, len(t.WorkingDays))
	seen := make(map[int]bool, len(t.WorkingDays))
	for _, raw := range t.WorkingDays {
		day := int(raw)
		if day < 1 || day > 7 || seen[day] {
			continue
		}
		days = append(days, day)
		seen[day] = true
	}
	sort.Ints(days)
	return days
}

// TermFilter defines filters supported by list endpoints.
type TermFilter struct {
	AcademicYear string
	IsActive     *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
