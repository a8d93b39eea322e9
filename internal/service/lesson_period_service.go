package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vti-ops/timetable-api/internal/models"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
)

type lessonPeriodRepository interface {
	List(ctx context.Context) ([]models.LessonPeriod, error)
	ListActive(ctx context.Context) ([]models.LessonPeriod, error)
	FindByID(ctx context.Context, id string) (*models.LessonPeriod, error)
	Create(ctx context.Context, period *models.LessonPeriod) error
	Update(ctx context.Context, period *models.LessonPeriod) error
}

// LessonPeriodRequest captures the period create/update payload.
type LessonPeriodRequest struct {
	Position  int    `json:"position" validate:"required,min=1,max=16"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
	IsActive  bool   `json:"is_active"`
}

// LessonPeriodService coordinates the daily period grid.
type LessonPeriodService struct {
	repo      lessonPeriodRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonPeriodService constructs LessonPeriodService.
func NewLessonPeriodService(repo lessonPeriodRepository, logger *zap.Logger) *LessonPeriodService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonPeriodService{repo: repo, validator: validator.New(), logger: logger}
}

// List returns periods ordered by position.
func (s *LessonPeriodService) List(ctx context.Context, activeOnly bool) ([]models.LessonPeriod, error) {
	var (
		periods []models.LessonPeriod
		err     error
	)
	if activeOnly {
		periods, err = s.repo.ListActive(ctx)
	} else {
		periods, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lesson periods")
	}
	return periods, nil
}

// Create validates and stores a new period.
func (s *LessonPeriodService) Create(ctx context.Context, req *LessonPeriodRequest) (*models.LessonPeriod, error) {
	period, err := s.buildPeriod(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson period")
	}
	return period, nil
}

// Update replaces a period's fields.
func (s *LessonPeriodService) Update(ctx context.Context, id string, req *LessonPeriodRequest) (*models.LessonPeriod, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson period")
	}
	period, err := s.buildPeriod(req)
	if err != nil {
		return nil, err
	}
	period.ID = existing.ID
	period.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson period")
	}
	return period, nil
}

func (s *LessonPeriodService) buildPeriod(req *LessonPeriodRequest) (*models.LessonPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson period payload")
	}
	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be HH:MM")
	}
	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be HH:MM")
	}
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	return &models.LessonPeriod{
		Position:        req.Position,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: int(end.Sub(start).Minutes()),
		IsActive:        req.IsActive,
	}, nil
}
