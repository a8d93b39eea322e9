package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vti-ops/timetable-api/internal/dto"
	"github.com/vti-ops/timetable-api/internal/models"
	"github.com/vti-ops/timetable-api/pkg/config"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
)

type preflightTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type preflightAssignmentReader interface {
	ListByTerm(ctx context.Context, termID string) ([]models.TeachingAssignmentDetail, error)
}

type preflightRoomReader interface {
	ListActive(ctx context.Context) ([]models.Room, error)
}

type preflightPeriodReader interface {
	ListActive(ctx context.Context) ([]models.LessonPeriod, error)
}

type preflightSlotCounter interface {
	CountByTerm(ctx context.Context, termID string) (int, error)
}

type lockoutChecker interface {
	Check(ctx context.Context) (dto.LockoutState, error)
}

// PreflightService decides whether timetable generation can proceed for a
// term and reports blocking errors and non-blocking warnings. Runs are
// read-only and idempotent: the UI re-runs preflight after fixing data.
type PreflightService struct {
	terms       preflightTermReader
	assignments preflightAssignmentReader
	rooms       preflightRoomReader
	periods     preflightPeriodReader
	slots       preflightSlotCounter
	lockout     lockoutChecker
	clock       func() time.Time
	cfg         config.TimetableConfig
	logger      *zap.Logger
}

// NewPreflightService wires preflight dependencies.
func NewPreflightService(
	terms preflightTermReader,
	assignments preflightAssignmentReader,
	rooms preflightRoomReader,
	periods preflightPeriodReader,
	slots preflightSlotCounter,
	lockout lockoutChecker,
	cfg config.TimetableConfig,
	logger *zap.Logger,
) *PreflightService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreflightService{
		terms:       terms,
		assignments: assignments,
		rooms:       rooms,
		periods:     periods,
		slots:       slots,
		lockout:     lockout,
		clock:       time.Now,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run builds the schedulability report for a term.
func (s *PreflightService) Run(ctx context.Context, termID string) (*dto.PreflightReport, error) {
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	assignments, err := s.assignments.ListByTerm(ctx, termID)
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
	slotCount, err := s.slots.CountByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count existing slots")
	}

	report := &dto.PreflightReport{
		TermID:   termID,
		Errors:   []dto.PreflightIssue{},
		Warnings: []dto.PreflightIssue{},
	}

	workingDays := term.WorkingDaySet()
	report.Counts = buildCounts(assignments, rooms, periods, workingDays)
	report.UnassignedSubjects = collectUnassigned(assignments)

	decision := EvaluateRegeneration(term.StartDate, s.clock().UTC(), slotCount, s.cfg.RegenWindowDays)
	deadline := decision.Deadline
	report.Existing = dto.ExistingTimetableState{
		HasSlots:             decision.HasExisting,
		SlotCount:            decision.SlotCount,
		RegenerationAllowed:  decision.CanGenerate,
		RegenerationDeadline: &deadline,
		DaysSinceTermStart:   decision.DaysSinceStart,
	}

	s.collectErrors(report, workingDays)
	s.collectWarnings(ctx, report, assignments)

	report.Passed = len(report.Errors) == 0
	return report, nil
}

func buildCounts(assignments []models.TeachingAssignmentDetail, rooms []models.Room, periods []models.LessonPeriod, workingDays []int) dto.PreflightCounts {
	classes := make(map[string]struct{})
	trainers := make(map[string]struct{})
	withTrainer := 0
	for _, asg := range assignments {
		classes[asg.ClassID] = struct{}{}
		if asg.HasTrainer() {
			trainers[*asg.TrainerID] = struct{}{}
			withTrainer++
		}
	}
	return dto.PreflightCounts{
		Classes:                   len(classes),
		Assignments:               len(assignments),
		AssignmentsWithTrainer:    withTrainer,
		AssignmentsWithoutTrainer: len(assignments) - withTrainer,
		Trainers:                  len(trainers),
		ActiveRooms:               len(rooms),
		ActiveLessonPeriods:       len(periods),
		WorkingDays:               len(workingDays),
	}
}

func collectUnassigned(assignments []models.TeachingAssignmentDetail) []dto.UnassignedSubject {
	var unassigned []dto.UnassignedSubject
	for _, asg := range assignments {
		if asg.HasTrainer() {
			continue
		}
		unassigned = append(unassigned, dto.UnassignedSubject{
			AssignmentID: asg.ID,
			ClassID:      asg.ClassID,
			ClassCode:    asg.ClassCode,
			SubjectID:    asg.SubjectID,
			SubjectName:  asg.SubjectName,
		})
	}
	sort.Slice(unassigned, func(i, j int) bool {
		if unassigned[i].ClassCode != unassigned[j].ClassCode {
			return unassigned[i].ClassCode < unassigned[j].ClassCode
		}
		return unassigned[i].SubjectName < unassigned[j].SubjectName
	})
	return unassigned
}

func (s *PreflightService) collectErrors(report *dto.PreflightReport, workingDays []int) {
	counts := report.Counts
	if counts.Classes == 0 {
		report.Errors = append(report.Errors, dto.PreflightIssue{
			Code:    "NO_CLASSES",
			Message: "no classes have teaching assignments in this term",
		})
	}
	if len(report.UnassignedSubjects) > 0 {
		report.Errors = append(report.Errors, dto.PreflightIssue{
			Code:    "SUBJECTS_WITHOUT_TRAINER",
			Message: fmt.Sprintf("%d subject-class pairs have no assigned trainer", len(report.UnassignedSubjects)),
			Meta:    map[string]any{"count": len(report.UnassignedSubjects)},
		})
	}
	if counts.ActiveRooms == 0 {
		report.Errors = append(report.Errors, dto.PreflightIssue{
			Code:    "NO_ACTIVE_ROOMS",
			Message: "no active rooms are available",
		})
	}
	if counts.ActiveLessonPeriods == 0 {
		report.Errors = append(report.Errors, dto.PreflightIssue{
			Code:    "NO_ACTIVE_PERIODS",
			Message: "no active lesson periods are defined",
		})
	}
	if len(workingDays) == 0 {
		report.Errors = append(report.Errors, dto.PreflightIssue{
			Code:    "NO_WORKING_DAYS",
			Message: "term has no working days configured",
		})
	}
}

func (s *PreflightService) collectWarnings(ctx context.Context, report *dto.PreflightReport, assignments []models.TeachingAssignmentDetail) {
	counts := report.Counts
	if counts.ActiveRooms > 0 && counts.Classes > counts.ActiveRooms {
		report.Warnings = append(report.Warnings, dto.PreflightIssue{
			Code:    "ROOM_PRESSURE",
			Message: fmt.Sprintf("%d classes share %d active rooms; expect shortfalls at peak periods", counts.Classes, counts.ActiveRooms),
			Meta:    map[string]any{"classes": counts.Classes, "rooms": counts.ActiveRooms},
		})
	}

	capacity := counts.ActiveRooms * counts.ActiveLessonPeriods * counts.WorkingDays
	demand := counts.AssignmentsWithTrainer * s.cfg.SessionsPerWeek
	if capacity > 0 && demand > capacity {
		report.Warnings = append(report.Warnings, dto.PreflightIssue{
			Code:    "CAPACITY_PRESSURE",
			Message: fmt.Sprintf("weekly demand of %d sessions exceeds grid capacity of %d", demand, capacity),
			Meta:    map[string]any{"demand": demand, "capacity": capacity},
		})
	}

	if s.cfg.MaxAssignmentsWarn > 0 {
		perTrainer := make(map[string]int)
		for _, asg := range assignments {
			if asg.HasTrainer() {
				perTrainer[*asg.TrainerID]++
			}
		}
		trainerIDs := make([]string, 0, len(perTrainer))
		for trainerID := range perTrainer {
			trainerIDs = append(trainerIDs, trainerID)
		}
		sort.Strings(trainerIDs)
		for _, trainerID := range trainerIDs {
			if perTrainer[trainerID] > s.cfg.MaxAssignmentsWarn {
				report.Warnings = append(report.Warnings, dto.PreflightIssue{
					Code:    "TRAINER_OVERLOADED",
					Message: fmt.Sprintf("trainer %s carries %d assignments", trainerID, perTrainer[trainerID]),
					Meta:    map[string]any{"trainerId": trainerID, "assignments": perTrainer[trainerID]},
				})
			}
		}
	}

	if s.lockout != nil {
		state, err := s.lockout.Check(ctx)
		if err != nil {
			s.logger.Warn("preflight lockout check failed", zap.Error(err))
		} else if state.Locked {
			report.Warnings = append(report.Warnings, dto.PreflightIssue{
				Code:    "GENERATION_LOCKED",
				Message: state.Message,
				Meta:    map[string]any{"lockedUntil": state.LockedUntil},
			})
		}
	}

	if report.Existing.HasSlots && !report.Existing.RegenerationAllowed {
		report.Warnings = append(report.Warnings, dto.PreflightIssue{
			Code:    "REGENERATION_WINDOW_CLOSED",
			Message: fmt.Sprintf("timetable exists and the term started %d days ago; regeneration window has closed", report.Existing.DaysSinceTermStart),
			Meta:    map[string]any{"daysSinceTermStart": report.Existing.DaysSinceTermStart},
		})
	}
}
