package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vti-ops/timetable-api/internal/dto"
	"github.com/vti-ops/timetable-api/internal/models"
	"github.com/vti-ops/timetable-api/pkg/config"
)

type preflightFixture struct {
	term        *models.Term
	termErr     error
	assignments []models.TeachingAssignmentDetail
	rooms       []models.Room
	periods     []models.LessonPeriod
	slotCount   int
	lockout     dto.LockoutState
}

func (f *preflightFixture) FindByID(_ context.Context, _ string) (*models.Term, error) {
	return f.term, f.termErr
}

func (f *preflightFixture) ListByTerm(_ context.Context, _ string) ([]models.TeachingAssignmentDetail, error) {
	return f.assignments, nil
}

func (f *preflightFixture) ListActive(_ context.Context) ([]models.Room, error) {
	return f.rooms, nil
}

func (f *preflightFixture) ListActivePeriods(_ context.Context) ([]models.LessonPeriod, error) {
	return f.periods, nil
}

func (f *preflightFixture) CountByTerm(_ context.Context, _ string) (int, error) {
	return f.slotCount, nil
}

func (f *preflightFixture) Check(_ context.Context) (dto.LockoutState, error) {
	return f.lockout, nil
}

type periodReaderAdapter struct{ f *preflightFixture }

func (a periodReaderAdapter) ListActive(ctx context.Context) ([]models.LessonPeriod, error) {
	return a.f.ListActivePeriods(ctx)
}

func testTimetableConfig() config.TimetableConfig {
	return config.TimetableConfig{
		Enabled:            true,
		SessionsPerWeek:    2,
		MinClassesPerDay:   1,
		RegenWindowDays:    14,
		MaxAssignmentsWarn: 12,
	}
}

func newPreflightFixture() *preflightFixture {
	return &preflightFixture{
		term: &models.Term{
			ID:          "term-1",
			Name:        "Spring 2026",
			StartDate:   time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2026, 6, 26, 0, 0, 0, 0, time.UTC),
			WorkingDays: pq.Int64Array{1, 2, 3, 4, 5},
		},
		assignments: []models.TeachingAssignmentDetail{
			testAssignment("a1", "c1", "C1", "math", "Mathematics", "t1"),
			testAssignment("a2", "c2", "C2", "eng", "English", "t2"),
		},
		rooms:   testRooms(3),
		periods: testPeriods(5),
	}
}

func newPreflightService(f *preflightFixture) *PreflightService {
	svc := NewPreflightService(f, f, f, periodReaderAdapter{f}, f, f, testTimetableConfig(), zap.NewNop())
	svc.clock = func() time.Time { return time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestPreflightPasses(t *testing.T) {
	f := newPreflightFixture()
	svc := newPreflightService(f)

	report, err := svc.Run(context.Background(), "term-1")
	require.NoError(t, err)

	assert.True(t, report.Passed)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 2, report.Counts.Classes)
	assert.Equal(t, 2, report.Counts.Trainers)
	assert.Equal(t, 3, report.Counts.ActiveRooms)
	assert.Equal(t, 5, report.Counts.ActiveLessonPeriods)
	assert.False(t, report.Existing.HasSlots)
	assert.True(t, report.Existing.RegenerationAllowed)
}

func TestPreflightBlocksUnassignedSubjects(t *testing.T) {
	f := newPreflightFixture()
	f.assignments = append(f.assignments, models.TeachingAssignmentDetail{
		TeachingAssignment: models.TeachingAssignment{ID: "a3", TermID: "term-1", ClassID: "c1", SubjectID: "weld"},
		ClassCode:          "C1",
		SubjectName:        "Welding",
	})
	svc := newPreflightService(f)

	report, err := svc.Run(context.Background(), "term-1")
	require.NoError(t, err)

	assert.False(t, report.Passed)
	require.Len(t, report.UnassignedSubjects, 1)
	assert.Equal(t, "Welding", report.UnassignedSubjects[0].SubjectName)
	assert.Equal(t, "C1", report.UnassignedSubjects[0].ClassCode)

	codes := issueCodes(report.Errors)
	assert.Contains(t, codes, "SUBJECTS_WITHOUT_TRAINER")
}

func TestPreflightBlocksMissingResources(t *testing.T) {
	f := newPreflightFixture()
	f.assignments = nil
	f.rooms = nil
	f.periods = nil
	f.term.WorkingDays = pq.Int64Array{}
	svc := newPreflightService(f)

	report, err := svc.Run(context.Background(), "term-1")
	require.NoError(t, err)

	assert.False(t, report.Passed)
	codes := issueCodes(report.Errors)
	assert.Contains(t, codes, "NO_CLASSES")
	assert.Contains(t, codes, "NO_ACTIVE_ROOMS")
	assert.Contains(t, codes, "NO_ACTIVE_PERIODS")
	assert.Contains(t, codes, "NO_WORKING_DAYS")
}

func TestPreflightWarnsOnRoomPressure(t *testing.T) {
	f := newPreflightFixture()
	f.rooms = testRooms(1)
	svc := newPreflightService(f)

	report, err := svc.Run(context.Background(), "term-1")
	require.NoError(t, err)

	assert.True(t, report.Passed, "pressure warnings do not block")
	codes := issueCodes(report.Warnings)
	assert.Contains(t, codes, "ROOM_PRESSURE")
}

func TestPreflightWarnsOnOverloadedTrainer(t *testing.T) {
	f := newPreflightFixture()
	for i := 0; i < 13; i++ {
		f.assignments = append(f.assignments, testAssignment(
			"x"+string(rune('a'+i)), "c1", "C1", "s"+string(rune('a'+i)), "Subject", "t-busy"))
	}
	svc := newPreflightService(f)

	report, err := svc.Run(context.Background(), "term-1")
	require.NoError(t, err)

	codes := issueCodes(report.Warnings)
	assert.Contains(t, codes, "TRAINER_OVERLOADED")
}

func TestPreflightReportsClosedWindowWithoutBlocking(t *testing.T) {
	f := newPreflightFixture()
	f.slotCount = 60
	svc := newPreflightService(f)
	svc.clock = func() time.Time { return f.term.StartDate.AddDate(0, 0, 30) }

	report, err := svc.Run(context.Background(), "term-1")
	require.NoError(t, err)

	assert.True(t, report.Passed, "window state is advisory in preflight")
	assert.True(t, report.Existing.HasSlots)
	assert.False(t, report.Existing.RegenerationAllowed)
	assert.Equal(t, 30, report.Existing.DaysSinceTermStart)
	codes := issueCodes(report.Warnings)
	assert.Contains(t, codes, "REGENERATION_WINDOW_CLOSED")
}

func TestPreflightSurfacesLockoutMessage(t *testing.T) {
	f := newPreflightFixture()
	f.lockout = dto.LockoutState{Locked: true, LockedUntil: "2026-03-01", Message: "Frozen for spring intake audit"}
	svc := newPreflightService(f)

	report, err := svc.Run(context.Background(), "term-1")
	require.NoError(t, err)

	var found bool
	for _, warning := range report.Warnings {
		if warning.Code == "GENERATION_LOCKED" {
			found = true
			assert.Equal(t, "Frozen for spring intake audit", warning.Message)
		}
	}
	assert.True(t, found)
}

func TestPreflightIdempotent(t *testing.T) {
	f := newPreflightFixture()
	svc := newPreflightService(f)

	first, err := svc.Run(context.Background(), "term-1")
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), "term-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func issueCodes(issues []dto.PreflightIssue) []string {
	codes := make([]string, 0, len(issues))
	for _, issue := range issues {
		codes = append(codes, issue.Code)
	}
	return codes
}
