package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vti-ops/timetable-api/internal/models"
)

// TrainerRepository provides read access to teaching staff.
type TrainerRepository struct {
	db *sqlx.DB
}

// NewTrainerRepository creates a new trainer repository.
func NewTrainerRepository(db *sqlx.DB) *TrainerRepository {
	return &TrainerRepository{db: db}
}

const trainerColumns = `id, full_name, email, is_active, created_at, updated_at`

// List returns trainers in name order, optionally only active ones.
func (r *TrainerRepository) List(ctx context.Context, activeOnly bool) ([]models.Trainer, error) {
	query := fmt.Sprintf(`SELECT %s FROM trainers`, trainerColumns)
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY full_name ASC`
	var trainers []models.Trainer
	if err := r.db.SelectContext(ctx, &trainers, query); err != nil {
		return nil, fmt.Errorf("list trainers: %w", err)
	}
	return trainers, nil
}

// FindByID loads a trainer by id.
func (r *TrainerRepository) FindByID(ctx context.Context, id string) (*models.Trainer, error) {
	query := fmt.Sprintf(`SELECT %s FROM trainers WHERE id = $1`, trainerColumns)
	var trainer models.Trainer
	if err := r.db.GetContext(ctx, &trainer, query, id); err != nil {
		return nil, err
	}
	return &trainer, nil
}
