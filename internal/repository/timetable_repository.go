package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vti-ops/timetable-api/internal/models"
)

// TimetableRepository provides persistence for timetable slots.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const slotColumns = `id, term_id, day_of_week, lesson_period_id, room_id, class_id, subject_id, trainer_id, created_at, updated_at`

// List returns slots with optional filtering and pagination.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableSlot, int, error) {
	base := "FROM timetable_slots WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TrainerID != "" {
		conditions = append(conditions, fmt.Sprintf("trainer_id = $%d", len(args)+1))
		args = append(args, filter.TrainerID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.DayOfWeek > 0 {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"day_of_week": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", slotColumns, base, sortBy, order, size, offset)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetable slots: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetable slots: %w", err)
	}

	return slots, total, nil
}

// ListByTerm returns all slots for a term ordered by day and period position.
func (r *TimetableRepository) ListByTerm(ctx context.Context, termID string) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots WHERE term_id = $1 ORDER BY day_of_week ASC, lesson_period_id ASC`, slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, termID); err != nil {
		return nil, fmt.Errorf("list timetable slots by term: %w", err)
	}
	return slots, nil
}

// ListDetailsByTerm returns term slots joined with registry names.
func (r *TimetableRepository) ListDetailsByTerm(ctx context.Context, termID string) ([]models.TimetableSlotDetail, error) {
	const query = `
SELECT ts.id, ts.term_id, ts.day_of_week, ts.lesson_period_id, ts.room_id, ts.class_id, ts.subject_id, ts.trainer_id,
       ts.created_at, ts.updated_at,
       lp.position AS period_position, lp.start_time AS period_start, lp.end_time AS period_end,
       rm.name AS room_name, c.code AS class_code, s.name AS subject_name, tr.full_name AS trainer_name
FROM timetable_slots ts
JOIN lesson_periods lp ON lp.id = ts.lesson_period_id
JOIN rooms rm ON rm.id = ts.room_id
JOIN classes c ON c.id = ts.class_id
JOIN subjects s ON s.id = ts.subject_id
JOIN trainers tr ON tr.id = ts.trainer_id
WHERE ts.term_id = $1
ORDER BY ts.day_of_week ASC, lp.position ASC, c.code ASC`
	var slots []models.TimetableSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, termID); err != nil {
		return nil, fmt.Errorf("list timetable slot details: %w", err)
	}
	return slots, nil
}

// CountByTerm returns the committed slot count for a term.
func (r *TimetableRepository) CountByTerm(ctx context.Context, termID string) (int, error) {
	const query = `SELECT COUNT(*) FROM timetable_slots WHERE term_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, termID); err != nil {
		return 0, fmt.Errorf("count timetable slots: %w", err)
	}
	return count, nil
}

// FindConflicts returns slots that occupy the same term/day/period key.
func (r *TimetableRepository) FindConflicts(ctx context.Context, termID string, dayOfWeek int, lessonPeriodID string) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots WHERE term_id = $1 AND day_of_week = $2 AND lesson_period_id = $3`, slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, termID, dayOfWeek, lessonPeriodID); err != nil {
		return nil, fmt.Errorf("find timetable conflicts: %w", err)
	}
	return slots, nil
}

// FindByID loads a slot by id.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots WHERE id = $1`, slotColumns)
	var slot models.TimetableSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// DeleteByTermTx removes every slot for a term inside an existing transaction.
func (r *TimetableRepository) DeleteByTermTx(ctx context.Context, exec sqlx.ExtContext, termID string) (int64, error) {
	result, err := exec.ExecContext(ctx, `DELETE FROM timetable_slots WHERE term_id = $1`, termID)
	if err != nil {
		return 0, fmt.Errorf("delete timetable slots by term: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted slot rows: %w", err)
	}
	return affected, nil
}

// BulkInsertTx inserts slots using an existing transaction.
func (r *TimetableRepository) BulkInsertTx(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error {
	now := time.Now().UTC()
	for i := range slots {
		payload := slots[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO timetable_slots (id, term_id, day_of_week, lesson_period_id, room_id, class_id, subject_id, trainer_id, created_at, updated_at)
			VALUES (:id, :term_id, :day_of_week, :lesson_period_id, :room_id, :class_id, :subject_id, :trainer_id, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert timetable slot: %w", err)
		}
		slots[i] = payload
	}
	return nil
}

// Create stores a single slot, used by manual editing outside generation.
func (r *TimetableRepository) Create(ctx context.Context, slot *models.TimetableSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now
	const query = `INSERT INTO timetable_slots (id, term_id, day_of_week, lesson_period_id, room_id, class_id, subject_id, trainer_id, created_at, updated_at)
		VALUES (:id, :term_id, :day_of_week, :lesson_period_id, :room_id, :class_id, :subject_id, :trainer_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create timetable slot: %w", err)
	}
	return nil
}

// Update modifies a single slot.
func (r *TimetableRepository) Update(ctx context.Context, slot *models.TimetableSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_slots SET term_id = :term_id, day_of_week = :day_of_week, lesson_period_id = :lesson_period_id,
		room_id = :room_id, class_id = :class_id, subject_id = :subject_id, trainer_id = :trainer_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update timetable slot: %w", err)
	}
	return nil
}

// Delete removes a slot by id.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable slot: %w", err)
	}
	return nil
}
