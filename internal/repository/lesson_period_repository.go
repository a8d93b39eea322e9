package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vti-ops/timetable-api/internal/models"
)

// LessonPeriodRepository provides persistence for lesson periods.
type LessonPeriodRepository struct {
	db *sqlx.DB
}

// NewLessonPeriodRepository creates a new lesson period repository.
func NewLessonPeriodRepository(db *sqlx.DB) *LessonPeriodRepository {
	return &LessonPeriodRepository{db: db}
}

const lessonPeriodColumns = `id, position, start_time, end_time, duration_minutes, is_active, created_at, updated_at`

// ListActive returns active periods ordered by position.
func (r *LessonPeriodRepository) ListActive(ctx context.Context) ([]models.LessonPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_periods WHERE is_active = TRUE ORDER BY position ASC`, lessonPeriodColumns)
	var periods []models.LessonPeriod
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list active lesson periods: %w", err)
	}
	return periods, nil
}

// List returns all periods ordered by position.
func (r *LessonPeriodRepository) List(ctx context.Context) ([]models.LessonPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_periods ORDER BY position ASC`, lessonPeriodColumns)
	var periods []models.LessonPeriod
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list lesson periods: %w", err)
	}
	return periods, nil
}

// FindByID loads a lesson period by id.
func (r *LessonPeriodRepository) FindByID(ctx context.Context, id string) (*models.LessonPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_periods WHERE id = $1`, lessonPeriodColumns)
	var period models.LessonPeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// Create stores a new lesson period.
func (r *LessonPeriodRepository) Create(ctx context.Context, period *models.LessonPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = now
	}
	period.UpdatedAt = now
	const query = `INSERT INTO lesson_periods (id, position, start_time, end_time, duration_minutes, is_active, created_at, updated_at)
		VALUES (:id, :position, :start_time, :end_time, :duration_minutes, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create lesson period: %w", err)
	}
	return nil
}

// Update modifies a lesson period.
func (r *LessonPeriodRepository) Update(ctx context.Context, period *models.LessonPeriod) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lesson_periods SET position = :position, start_time = :start_time, end_time = :end_time,
		duration_minutes = :duration_minutes, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("update lesson period: %w", err)
	}
	return nil
}
