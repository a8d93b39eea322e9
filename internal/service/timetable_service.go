package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vti-ops/timetable-api/internal/dto"
	"github.com/vti-ops/timetable-api/internal/models"
	"github.com/vti-ops/timetable-api/pkg/config"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
	"github.com/vti-ops/timetable-api/pkg/export"
)

type timetableSlotStore interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableSlot, int, error)
	ListDetailsByTerm(ctx context.Context, termID string) ([]models.TimetableSlotDetail, error)
	FindConflicts(ctx context.Context, termID string, dayOfWeek int, lessonPeriodID string) ([]models.TimetableSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimetableSlot, error)
	Create(ctx context.Context, slot *models.TimetableSlot) error
	Update(ctx context.Context, slot *models.TimetableSlot) error
	Delete(ctx context.Context, id string) error
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// TimetableService serves committed timetables and manual slot edits. Manual
// edits run through the same conflict key as generation: one trainer, class
// and room per (day, period).
type TimetableService struct {
	slots    timetableSlotStore
	cache    timetableCache
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	validate *validator.Validate
	cfg      config.TimetableConfig
	logger   *zap.Logger
}

// NewTimetableService wires the timetable read/edit surface.
func NewTimetableService(slots timetableSlotStore, cache timetableCache, cfg config.TimetableConfig, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		slots:    slots,
		cache:    cache,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		validate: validator.New(),
		cfg:      cfg,
		logger:   logger,
	}
}

// List returns slots matching the filter with pagination metadata.
func (s *TimetableService) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableSlot, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 50
	}
	slots, total, err := s.slots.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable slots")
	}
	return slots, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// WeeklyView returns the full joined timetable for a term, cached briefly
// because the weekly grid is the hottest read in the system.
func (s *TimetableService) WeeklyView(ctx context.Context, termID string) ([]models.TimetableSlotDetail, error) {
	key := fmt.Sprintf("timetable:term:%s:weekly", termID)
	if s.cache != nil {
		var cached []models.TimetableSlotDetail
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("timetable cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	details, err := s.slots.ListDetailsByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly timetable")
	}
	if details == nil {
		details = []models.TimetableSlotDetail{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, details, s.cfg.ViewCacheTTL); err != nil {
			s.logger.Warn("timetable cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return details, nil
}

// CreateSlot inserts a manually edited slot after conflict checks.
func (s *TimetableService) CreateSlot(ctx context.Context, req *dto.ManualSlotRequest) (*models.TimetableSlot, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot request")
	}
	if err := s.checkConflicts(ctx, req, ""); err != nil {
		return nil, err
	}

	slot := &models.TimetableSlot{
		TermID:         req.TermID,
		DayOfWeek:      req.DayOfWeek,
		LessonPeriodID: req.LessonPeriodID,
		RoomID:         req.RoomID,
		ClassID:        req.ClassID,
		SubjectID:      req.SubjectID,
		TrainerID:      req.TrainerID,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create slot")
	}
	s.invalidate(ctx, req.TermID)
	return slot, nil
}

// UpdateSlot moves an existing slot, re-running conflict checks against the
// new position.
func (s *TimetableService) UpdateSlot(ctx context.Context, id string, req *dto.ManualSlotRequest) (*models.TimetableSlot, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot request")
	}
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	if err := s.checkConflicts(ctx, req, slot.ID); err != nil {
		return nil, err
	}

	slot.TermID = req.TermID
	slot.DayOfWeek = req.DayOfWeek
	slot.LessonPeriodID = req.LessonPeriodID
	slot.RoomID = req.RoomID
	slot.ClassID = req.ClassID
	slot.SubjectID = req.SubjectID
	slot.TrainerID = req.TrainerID
	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update slot")
	}
	s.invalidate(ctx, req.TermID)
	return slot, nil
}

// DeleteSlot removes a single slot.
func (s *TimetableService) DeleteSlot(ctx context.Context, id string) error {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	if err := s.slots.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete slot")
	}
	s.invalidate(ctx, slot.TermID)
	return nil
}

// ExportCSV renders the weekly timetable as CSV.
func (s *TimetableService) ExportCSV(ctx context.Context, termID string) ([]byte, error) {
	data, err := s.exportDataset(ctx, termID)
	if err != nil {
		return nil, err
	}
	out, err := s.csv.Render(*data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return out, nil
}

// ExportPDF renders the weekly timetable as a landscape PDF.
func (s *TimetableService) ExportPDF(ctx context.Context, termID string) ([]byte, error) {
	data, err := s.exportDataset(ctx, termID)
	if err != nil {
		return nil, err
	}
	out, err := s.pdf.Render(*data, fmt.Sprintf("Weekly Timetable %s", termID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return out, nil
}

func (s *TimetableService) exportDataset(ctx context.Context, termID string) (*export.Dataset, error) {
	details, err := s.WeeklyView(ctx, termID)
	if err != nil {
		return nil, err
	}
	data := &export.Dataset{
		Headers: []string{"Day", "Period", "Start", "End", "Class", "Subject", "Trainer", "Room"},
	}
	for _, d := range details {
		data.Rows = append(data.Rows, map[string]string{
			"Day":     models.DayName(d.DayOfWeek),
			"Period":  fmt.Sprintf("%d", d.PeriodPosition),
			"Start":   d.PeriodStart,
			"End":     d.PeriodEnd,
			"Class":   d.ClassCode,
			"Subject": d.SubjectName,
			"Trainer": d.TrainerName,
			"Room":    d.RoomName,
		})
	}
	return data, nil
}

// checkConflicts rejects a manual edit that would double-book the trainer,
// class or room at the requested (day, period).
func (s *TimetableService) checkConflicts(ctx context.Context, req *dto.ManualSlotRequest, excludeID string) error {
	existing, err := s.slots.FindConflicts(ctx, req.TermID, req.DayOfWeek, req.LessonPeriodID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot conflicts")
	}
	for _, other := range existing {
		if other.ID == excludeID {
			continue
		}
		switch {
		case other.TrainerID == req.TrainerID:
			return appErrors.Clone(appErrors.ErrSlotConflict,
				fmt.Sprintf("trainer already teaches at %s period %s", models.DayName(req.DayOfWeek), req.LessonPeriodID))
		case other.ClassID == req.ClassID:
			return appErrors.Clone(appErrors.ErrSlotConflict,
				fmt.Sprintf("class already has a lesson at %s period %s", models.DayName(req.DayOfWeek), req.LessonPeriodID))
		case other.RoomID == req.RoomID:
			return appErrors.Clone(appErrors.ErrSlotConflict,
				fmt.Sprintf("room is already occupied at %s period %s", models.DayName(req.DayOfWeek), req.LessonPeriodID))
		}
	}
	return nil
}

func (s *TimetableService) invalidate(ctx context.Context, termID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("timetable:term:%s:*", termID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("pattern", pattern), zap.Error(err))
	}
}
