package models

import "time"

// Room is a schedulable resource holding at most one session per day/period.
type Room struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	Department *string   `db:"department" json:"department,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// AllowsDepartment reports whether the room may host a class from department.
// Rooms without an affinity accept any department.
func (r *Room) AllowsDepartment(department string) bool {
	if r.Department == nil || *r.Department == "" {
		return true
	}
	return *r.Department == department
}

// LessonPeriod defines one ordered time-of-day slot on the weekly grid.
type LessonPeriod struct {
	ID              string    `db:"id" json:"id"`
	Position        int       `db:"position" json:"position"`
	StartTime       string    `db:"start_time" json:"start_time"`
	EndTime         string    `db:"end_time" json:"end_time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
