package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vti-ops/timetable-api/internal/models"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func testAssignment(id, classID, classCode, subjectID, subjectName, trainerID string) models.TeachingAssignmentDetail {
	return models.TeachingAssignmentDetail{
		TeachingAssignment: models.TeachingAssignment{
			ID:        id,
			TermID:    "term-1",
			ClassID:   classID,
			SubjectID: subjectID,
			TrainerID: strPtr(trainerID),
		},
		ClassCode:   classCode,
		SubjectName: subjectName,
	}
}

func testPeriods(n int) []models.LessonPeriod {
	periods := make([]models.LessonPeriod, 0, n)
	for i := 1; i <= n; i++ {
		periods = append(periods, models.LessonPeriod{
			ID:       fmt.Sprintf("p%d", i),
			Position: i,
			IsActive: true,
		})
	}
	return periods
}

func testRooms(n int) []models.Room {
	rooms := make([]models.Room, 0, n)
	for i := 1; i <= n; i++ {
		rooms = append(rooms, models.Room{ID: fmt.Sprintf("r%d", i), Name: fmt.Sprintf("Room %d", i), IsActive: true})
	}
	return rooms
}

func smallGridInput() allocationInput {
	return allocationInput{
		TermID: "term-1",
		Assignments: []models.TeachingAssignmentDetail{
			testAssignment("a1", "c1", "C1", "math", "Mathematics", "t1"),
			testAssignment("a2", "c1", "C1", "eng", "English", "t2"),
			testAssignment("a3", "c1", "C1", "weld", "Welding", "t3"),
			testAssignment("a4", "c2", "C2", "math", "Mathematics", "t1"),
			testAssignment("a5", "c2", "C2", "eng", "English", "t2"),
			testAssignment("a6", "c2", "C2", "weld", "Welding", "t3"),
		},
		Rooms:           testRooms(2),
		Periods:         testPeriods(5),
		WorkingDays:     []int{1, 2, 3, 4, 5},
		SessionsPerWeek: 2,
	}
}

func TestAllocateFullPlacement(t *testing.T) {
	allocator := NewSlotAllocator(zap.NewNop())

	result, err := allocator.Allocate(smallGridInput())
	require.NoError(t, err)

	assert.Len(t, result.Slots, 12, "2 classes x 3 subjects x 2 sessions")
	assert.Empty(t, result.Shortfalls)
	assert.Equal(t, 6, result.FullyPlaced)
}

func TestAllocateNoConflicts(t *testing.T) {
	allocator := NewSlotAllocator(zap.NewNop())

	result, err := allocator.Allocate(smallGridInput())
	require.NoError(t, err)

	type cell struct {
		day    int
		period string
	}
	seen := make(map[string]bool)
	for _, slot := range result.Slots {
		key := cell{slot.DayOfWeek, slot.LessonPeriodID}
		for _, occupant := range []string{
			fmt.Sprintf("trainer/%d/%s/%s", key.day, key.period, slot.TrainerID),
			fmt.Sprintf("class/%d/%s/%s", key.day, key.period, slot.ClassID),
			fmt.Sprintf("room/%d/%s/%s", key.day, key.period, slot.RoomID),
		} {
			assert.False(t, seen[occupant], "double booking: %s", occupant)
			seen[occupant] = true
		}
	}
}

func TestAllocateSpreadsSessionsAcrossDays(t *testing.T) {
	allocator := NewSlotAllocator(zap.NewNop())

	result, err := allocator.Allocate(smallGridInput())
	require.NoError(t, err)

	// With five working days and two sessions, every subject lands on two
	// distinct days.
	days := make(map[string]map[int]bool)
	for _, slot := range result.Slots {
		key := slot.ClassID + "/" + slot.SubjectID
		if days[key] == nil {
			days[key] = make(map[int]bool)
		}
		days[key][slot.DayOfWeek] = true
	}
	for key, d := range days {
		assert.Len(t, d, 2, "subject %s should occupy two distinct days", key)
	}
}

func TestAllocateReportsShortfalls(t *testing.T) {
	allocator := NewSlotAllocator(zap.NewNop())

	// One room, one period, two days: capacity 2, demand 4.
	input := allocationInput{
		TermID: "term-1",
		Assignments: []models.TeachingAssignmentDetail{
			testAssignment("a1", "c1", "C1", "math", "Mathematics", "t1"),
			testAssignment("a2", "c2", "C2", "eng", "English", "t2"),
		},
		Rooms:           testRooms(1),
		Periods:         testPeriods(1),
		WorkingDays:     []int{1, 2},
		SessionsPerWeek: 2,
	}

	result, err := allocator.Allocate(input)
	require.NoError(t, err, "infeasibility is reported as data, not an error")

	assert.Len(t, result.Slots, 2)
	require.Len(t, result.Shortfalls, 1)
	shortfall := result.Shortfalls[0]
	assert.Equal(t, 2, shortfall.Requested)
	assert.Equal(t, 0, shortfall.Placed)
	assert.Equal(t, 2, shortfall.Shortfall)
	assert.NotEmpty(t, shortfall.SubjectName)
	assert.NotEmpty(t, shortfall.ClassCode)
}

func TestAllocateRepeatsDayWhenNoAlternative(t *testing.T) {
	allocator := NewSlotAllocator(zap.NewNop())

	// Single working day: both sessions must land on it.
	input := allocationInput{
		TermID: "term-1",
		Assignments: []models.TeachingAssignmentDetail{
			testAssignment("a1", "c1", "C1", "math", "Mathematics", "t1"),
		},
		Rooms:           testRooms(1),
		Periods:         testPeriods(4),
		WorkingDays:     []int{3},
		SessionsPerWeek: 2,
	}

	result, err := allocator.Allocate(input)
	require.NoError(t, err)
	assert.Len(t, result.Slots, 2)
	assert.Empty(t, result.Shortfalls)
	for _, slot := range result.Slots {
		assert.Equal(t, 3, slot.DayOfWeek)
	}
}

func TestAllocateRespectsRoomDepartmentAffinity(t *testing.T) {
	allocator := NewSlotAllocator(zap.NewNop())

	weldShop := "WELDING"
	asg := testAssignment("a1", "c1", "C1", "weld", "Welding", "t1")
	asg.ClassDepartment = "WELDING"

	input := allocationInput{
		TermID:      "term-1",
		Assignments: []models.TeachingAssignmentDetail{asg},
		Rooms: []models.Room{
			{ID: "r-elec", Name: "Electronics Lab", IsActive: true, Department: strPtr("ELECTRONICS")},
			{ID: "r-weld", Name: "Welding Shop", IsActive: true, Department: &weldShop},
		},
		Periods:         testPeriods(2),
		WorkingDays:     []int{1, 2},
		SessionsPerWeek: 2,
	}

	result, err := allocator.Allocate(input)
	require.NoError(t, err)
	require.Len(t, result.Slots, 2)
	for _, slot := range result.Slots {
		assert.Equal(t, "r-weld", slot.RoomID)
	}
}

func TestAllocateDeterministic(t *testing.T) {
	allocator := NewSlotAllocator(zap.NewNop())

	first, err := allocator.Allocate(smallGridInput())
	require.NoError(t, err)
	second, err := allocator.Allocate(smallGridInput())
	require.NoError(t, err)

	assert.Equal(t, first.Slots, second.Slots, "identical input yields an identical timetable")
	assert.Equal(t, first.Shortfalls, second.Shortfalls)
}

func TestAllocateSkipsAssignmentsWithoutTrainer(t *testing.T) {
	allocator := NewSlotAllocator(zap.NewNop())

	orphan := models.TeachingAssignmentDetail{
		TeachingAssignment: models.TeachingAssignment{ID: "a9", TermID: "term-1", ClassID: "c1", SubjectID: "art"},
		ClassCode:          "C1",
		SubjectName:        "Art",
	}
	input := smallGridInput()
	input.Assignments = append(input.Assignments, orphan)

	result, err := allocator.Allocate(input)
	require.NoError(t, err)
	for _, slot := range result.Slots {
		assert.NotEqual(t, "art", slot.SubjectID)
	}
}

func TestAllocateValidatesInput(t *testing.T) {
	allocator := NewSlotAllocator(zap.NewNop())

	input := smallGridInput()
	input.SessionsPerWeek = 0
	_, err := allocator.Allocate(input)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	input = smallGridInput()
	input.Rooms = nil
	_, err = allocator.Allocate(input)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoSchedulableResources.Code, appErrors.FromError(err).Code)

	input = smallGridInput()
	input.WorkingDays = nil
	_, err = allocator.Allocate(input)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoSchedulableResources.Code, appErrors.FromError(err).Code)
}

func TestAllocateBalancesTrainerDays(t *testing.T) {
	allocator := NewSlotAllocator(zap.NewNop())

	input := smallGridInput()
	input.MinClassesPerDay = 1

	result, err := allocator.Allocate(input)
	require.NoError(t, err)
	assert.Empty(t, result.Shortfalls)

	// Day-spread greedy ordering keeps any single trainer-day at or below
	// the trainer's session total minus the days already used.
	for trainerID, byDay := range result.DailyLoad {
		total := 0
		for _, sessions := range byDay {
			total += sessions
			assert.LessOrEqual(t, sessions, 2, "trainer %s overloaded on one day", trainerID)
		}
		assert.Equal(t, 4, total, "trainer %s should keep all sessions through balancing", trainerID)
	}
}
