package models

import "time"

// TimetableSlot is one scheduled occurrence of a teaching assignment.
type TimetableSlot struct {
	ID             string    `db:"id" json:"id"`
	TermID         string    `db:"term_id" json:"term_id"`
	DayOfWeek      int       `db:"day_of_week" json:"day_of_week"`
	LessonPeriodID string    `db:"lesson_period_id" json:"lesson_period_id"`
	RoomID         string    `db:"room_id" json:"room_id"`
	ClassID        string    `db:"class_id" json:"class_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	TrainerID      string    `db:"trainer_id" json:"trainer_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableSlotDetail enriches slots with registry names for views and exports.
type TimetableSlotDetail struct {
	TimetableSlot
	PeriodPosition int    `db:"period_position" json:"period_position"`
	PeriodStart    string `db:"period_start" json:"period_start"`
	PeriodEnd      string `db:"period_end" json:"period_end"`
	RoomName       string `db:"room_name" json:"room_name"`
	ClassCode      string `db:"class_code" json:"class_code"`
	SubjectName    string `db:"subject_name" json:"subject_name"`
	TrainerName    string `db:"trainer_name" json:"trainer_name"`
}

// TimetableFilter describes query params for listing slots.
type TimetableFilter struct {
	TermID    string
	ClassID   string
	TrainerID string
	RoomID    string
	DayOfWeek int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

var dayNames = map[int]string{
	1: "MONDAY",
	2: "TUESDAY",
	3: "WEDNESDAY",
	4: "THURSDAY",
	5: "FRIDAY",
	6: "SATURDAY",
	7: "SUNDAY",
}

// DayName maps a 1-based day index to its uppercase English name.
func DayName(day int) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return "UNKNOWN"
}
