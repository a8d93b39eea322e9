package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vti-ops/timetable-api/internal/models"
)

// TeachingAssignmentRepository persists class/subject/trainer assignments.
type TeachingAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeachingAssignmentRepository constructs the repository.
func NewTeachingAssignmentRepository(db *sqlx.DB) *TeachingAssignmentRepository {
	return &TeachingAssignmentRepository{db: db}
}

// ListByTerm returns the full assignment set for a term with registry names.
func (r *TeachingAssignmentRepository) ListByTerm(ctx context.Context, termID string) ([]models.TeachingAssignmentDetail, error) {
	const query = `
SELECT ta.id, ta.term_id, ta.class_id, ta.subject_id, ta.trainer_id, ta.created_at,
       c.code AS class_code, c.department AS class_department,
       s.name AS subject_name, tr.full_name AS trainer_name
FROM teaching_assignments ta
JOIN classes c ON c.id = ta.class_id
JOIN subjects s ON s.id = ta.subject_id
LEFT JOIN trainers tr ON tr.id = ta.trainer_id
WHERE ta.term_id = $1
ORDER BY c.code ASC, s.name ASC`
	var assignments []models.TeachingAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, termID); err != nil {
		return nil, fmt.Errorf("list teaching assignments: %w", err)
	}
	return assignments, nil
}

// CountDistinctClasses returns the number of classes with assignments in a term.
func (r *TeachingAssignmentRepository) CountDistinctClasses(ctx context.Context, termID string) (int, error) {
	const query = `SELECT COUNT(DISTINCT class_id) FROM teaching_assignments WHERE term_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, termID); err != nil {
		return 0, fmt.Errorf("count assignment classes: %w", err)
	}
	return count, nil
}

// CountDistinctTrainers returns the number of trainers assigned in a term.
func (r *TeachingAssignmentRepository) CountDistinctTrainers(ctx context.Context, termID string) (int, error) {
	const query = `SELECT COUNT(DISTINCT trainer_id) FROM teaching_assignments WHERE term_id = $1 AND trainer_id IS NOT NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, termID); err != nil {
		return 0, fmt.Errorf("count assignment trainers: %w", err)
	}
	return count, nil
}

// CountByTrainerAndTerm returns the assignment count for one trainer in a term.
func (r *TeachingAssignmentRepository) CountByTrainerAndTerm(ctx context.Context, trainerID, termID string) (int, error) {
	const query = `SELECT COUNT(*) FROM teaching_assignments WHERE trainer_id = $1 AND term_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, trainerID, termID); err != nil {
		return 0, fmt.Errorf("count trainer assignments: %w", err)
	}
	return count, nil
}

// Exists checks if the class-subject-term tuple already exists.
func (r *TeachingAssignmentRepository) Exists(ctx context.Context, classID, subjectID, termID string) (bool, error) {
	const query = `SELECT 1 FROM teaching_assignments WHERE class_id = $1 AND subject_id = $2 AND term_id = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, classID, subjectID, termID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teaching assignment: %w", err)
	}
	return true, nil
}

// Create inserts a new assignment.
func (r *TeachingAssignmentRepository) Create(ctx context.Context, assignment *models.TeachingAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teaching_assignments (id, term_id, class_id, subject_id, trainer_id, created_at)
		VALUES (:id, :term_id, :class_id, :subject_id, :trainer_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create teaching assignment: %w", err)
	}
	return nil
}

// SetTrainer assigns or clears the trainer on an existing assignment.
func (r *TeachingAssignmentRepository) SetTrainer(ctx context.Context, assignmentID string, trainerID *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teaching_assignments SET trainer_id = $1 WHERE id = $2`, trainerID, assignmentID)
	if err != nil {
		return fmt.Errorf("set assignment trainer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an assignment.
func (r *TeachingAssignmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teaching_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete teaching assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
