package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/vti-ops/timetable-api/internal/dto"
	"github.com/vti-ops/timetable-api/internal/models"
	"github.com/vti-ops/timetable-api/pkg/config"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
)

type preflightRunner interface {
	Run(ctx context.Context, termID string) (*dto.PreflightReport, error)
}

type slotWriter interface {
	CountByTerm(ctx context.Context, termID string) (int, error)
	DeleteByTermTx(ctx context.Context, exec sqlx.ExtContext, termID string) (int64, error)
	BulkInsertTx(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type generationObserver interface {
	ObserveGeneration(duration time.Duration, slotsCreated, shortfalls int)
}

type txBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// termRunRegistry serialises generation per term within this process. A
// second request for the same term while a run is in flight is rejected
// instead of queued.
type termRunRegistry struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newTermRunRegistry() *termRunRegistry {
	return &termRunRegistry{running: make(map[string]struct{})}
}

func (r *termRunRegistry) TryAcquire(termID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.running[termID]; busy {
		return false
	}
	r.running[termID] = struct{}{}
	return true
}

func (r *termRunRegistry) Release(termID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, termID)
}

// TimetableGeneratorService orchestrates a full generation run: gates, input
// loading, allocation and the atomic write. Either all slots of a run commit
// or none do.
type TimetableGeneratorService struct {
	db          txBeginner
	terms       preflightTermReader
	assignments preflightAssignmentReader
	rooms       preflightRoomReader
	periods     preflightPeriodReader
	slots       slotWriter
	preflight   preflightRunner
	lockout     lockoutChecker
	allocator   *SlotAllocator
	cache       cacheInvalidator
	metrics     generationObserver
	runs        *termRunRegistry
	validate    *validator.Validate
	clock       func() time.Time
	cfg         config.TimetableConfig
	logger      *zap.Logger
}

// NewTimetableGeneratorService wires the generation pipeline.
func NewTimetableGeneratorService(
	db txBeginner,
	terms preflightTermReader,
	assignments preflightAssignmentReader,
	rooms preflightRoomReader,
	periods preflightPeriodReader,
	slots slotWriter,
	preflight preflightRunner,
	lockout lockoutChecker,
	allocator *SlotAllocator,
	cache cacheInvalidator,
	metrics generationObserver,
	cfg config.TimetableConfig,
	logger *zap.Logger,
) *TimetableGeneratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableGeneratorService{
		db:          db,
		terms:       terms,
		assignments: assignments,
		rooms:       rooms,
		periods:     periods,
		slots:       slots,
		preflight:   preflight,
		lockout:     lockout,
		allocator:   allocator,
		cache:       cache,
		metrics:     metrics,
		runs:        newTermRunRegistry(),
		validate:    validator.New(),
		clock:       time.Now,
		cfg:         cfg,
		logger:      logger,
	}
}

// Generate builds and commits the timetable for a term.
func (s *TimetableGeneratorService) Generate(ctx context.Context, termID string, req *dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if req == nil {
		req = &dto.GenerateTimetableRequest{}
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}
	sessionsPerWeek := req.SessionsPerWeek
	if sessionsPerWeek == 0 {
		sessionsPerWeek = s.cfg.SessionsPerWeek
	}
	minClassesPerDay := req.MinClassesPerDay
	if minClassesPerDay == 0 {
		minClassesPerDay = s.cfg.MinClassesPerDay
	}

	if !s.runs.TryAcquire(termID) {
		return nil, appErrors.ErrGenerationInProgress
	}
	defer s.runs.Release(termID)

	started := s.clock()

	lockState, err := s.lockout.Check(ctx)
	if err != nil {
		return nil, err
	}
	if lockState.Locked {
		return nil, appErrors.Clone(appErrors.ErrGenerationLocked, lockState.Message)
	}

	report, err := s.preflight.Run(ctx, termID)
	if err != nil {
		return nil, err
	}
	if !report.Passed {
		return nil, appErrors.Clone(appErrors.ErrPreflightFailed,
			fmt.Sprintf("preflight reported %d blocking errors", len(report.Errors)))
	}

	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	existing, err := s.slots.CountByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count existing slots")
	}
	if existing > 0 {
		if !req.Regenerate {
			return nil, appErrors.Clone(appErrors.ErrTimetableExists,
				fmt.Sprintf("term already has %d committed slots; pass regenerate to rebuild", existing))
		}
		decision := EvaluateRegeneration(term.StartDate, s.clock().UTC(), existing, s.cfg.RegenWindowDays)
		if !decision.CanGenerate {
			return nil, appErrors.Clone(appErrors.ErrRegenerationWindow,
				fmt.Sprintf("term started %d days ago; regeneration is only allowed within %d days of term start", decision.DaysSinceStart, s.cfg.RegenWindowDays))
		}
	}

	input, err := s.loadInput(ctx, term, sessionsPerWeek, minClassesPerDay)
	if err != nil {
		return nil, err
	}

	result, err := s.allocator.Allocate(*input)
	if err != nil {
		return nil, err
	}

	regenerated := existing > 0 && req.Regenerate
	if err := s.persist(ctx, termID, result.Slots, regenerated); err != nil {
		return nil, err
	}

	s.invalidateViews(ctx, termID)

	elapsed := s.clock().Sub(started)
	if s.metrics != nil {
		s.metrics.ObserveGeneration(elapsed, len(result.Slots), len(result.Shortfalls))
	}
	s.logger.Info("timetable generated",
		zap.String("term_id", termID),
		zap.Int("slots", len(result.Slots)),
		zap.Int("shortfalls", len(result.Shortfalls)),
		zap.Bool("regenerated", regenerated),
		zap.Duration("elapsed", elapsed))

	return s.buildResponse(termID, input, result, regenerated), nil
}

// loadInput aggregates the registry rows one run needs into a snapshot.
func (s *TimetableGeneratorService) loadInput(ctx context.Context, term *models.Term, sessionsPerWeek, minClassesPerDay int) (*allocationInput, error) {
	assignments, err := s.assignments.ListByTerm(ctx, term.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teaching assignments")
	}
	rooms, err := s.rooms.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	periods, err := s.periods.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson periods")
	}
	return &allocationInput{
		TermID:           term.ID,
		Assignments:      assignments,
		Rooms:            rooms,
		Periods:          periods,
		WorkingDays:      term.WorkingDaySet(),
		SessionsPerWeek:  sessionsPerWeek,
		MinClassesPerDay: minClassesPerDay,
	}, nil
}

// persist writes the run inside one transaction. On regeneration the old
// slots are deleted in the same transaction, so readers never observe a
// half-replaced timetable.
func (s *TimetableGeneratorService) persist(ctx context.Context, termID string, slots []models.TimetableSlot, regenerated bool) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if regenerated {
		deleted, delErr := s.slots.DeleteByTermTx(ctx, tx, termID)
		if delErr != nil {
			err = appErrors.Wrap(delErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear existing slots")
			return err
		}
		s.logger.Info("cleared existing timetable", zap.String("term_id", termID), zap.Int64("deleted", deleted))
	}

	if insErr := s.slots.BulkInsertTx(ctx, tx, slots); insErr != nil {
		err = appErrors.Wrap(insErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert slots")
		return err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = appErrors.Wrap(commitErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
		return err
	}
	return nil
}

func (s *TimetableGeneratorService) invalidateViews(ctx context.Context, termID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("timetable:term:%s:*", termID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("pattern", pattern), zap.Error(err))
	}
}

func (s *TimetableGeneratorService) buildResponse(termID string, input *allocationInput, result *allocationResult, regenerated bool) *dto.GenerateTimetableResponse {
	subjects := make(map[string]struct{})
	for _, slot := range result.Slots {
		subjects[slot.SubjectID] = struct{}{}
	}

	var loads []dto.TrainerDayLoad
	for trainerID, byDay := range result.DailyLoad {
		for day, sessions := range byDay {
			if sessions == 0 {
				continue
			}
			loads = append(loads, dto.TrainerDayLoad{TrainerID: trainerID, DayOfWeek: day, Sessions: sessions})
		}
	}
	sort.Slice(loads, func(i, j int) bool {
		if loads[i].TrainerID != loads[j].TrainerID {
			return loads[i].TrainerID < loads[j].TrainerID
		}
		return loads[i].DayOfWeek < loads[j].DayOfWeek
	})

	shortfalls := result.Shortfalls
	if shortfalls == nil {
		shortfalls = []dto.AssignmentShortfall{}
	}

	return &dto.GenerateTimetableResponse{
		TermID:            termID,
		SlotsCreated:      len(result.Slots),
		AssignmentsTotal:  len(input.Assignments),
		SubjectsScheduled: len(subjects),
		Shortfalls:        shortfalls,
		TrainerDailyLoad:  loads,
		Regenerated:       regenerated,
	}
}
