package models

import "time"

// TeachingAssignment binds a trainer to teach a subject to a class within a term.
// TrainerID is nullable: an assignment without a trainer blocks generation.
type TeachingAssignment struct {
	ID        string    `db:"id" json:"id"`
	TermID    string    `db:"term_id" json:"term_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TrainerID *string   `db:"trainer_id" json:"trainer_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HasTrainer reports whether the assignment can be scheduled.
func (a *TeachingAssignment) HasTrainer() bool {
	return a.TrainerID != nil && *a.TrainerID != ""
}

// TeachingAssignmentDetail enriches assignments with descriptive fields.
type TeachingAssignmentDetail struct {
	TeachingAssignment
	ClassCode       string  `db:"class_code" json:"class_code"`
	ClassDepartment string  `db:"class_department" json:"class_department"`
	SubjectName     string  `db:"subject_name" json:"subject_name"`
	TrainerName     *string `db:"trainer_name" json:"trainer_name,omitempty"`
}
