package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/vti-ops/timetable-api/internal/models"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
)

type trainerRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Trainer, error)
	FindByID(ctx context.Context, id string) (*models.Trainer, error)
}

// TrainerService serves the teaching-staff registry.
type TrainerService struct {
	repo   trainerRepository
	logger *zap.Logger
}

// NewTrainerService constructs TrainerService.
func NewTrainerService(repo trainerRepository, logger *zap.Logger) *TrainerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainerService{repo: repo, logger: logger}
}

// List returns trainers, optionally filtered to active staff.
func (s *TrainerService) List(ctx context.Context, activeOnly bool) ([]models.Trainer, error) {
	trainers, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trainers")
	}
	if trainers == nil {
		trainers = []models.Trainer{}
	}
	return trainers, nil
}

// Get fetches one trainer.
func (s *TrainerService) Get(ctx context.Context, id string) (*models.Trainer, error) {
	trainer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trainer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer")
	}
	return trainer, nil
}
