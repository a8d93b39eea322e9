package service

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/vti-ops/timetable-api/internal/dto"
	"github.com/vti-ops/timetable-api/internal/models"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
)

// allocationInput carries everything one generation run needs in memory.
type allocationInput struct {
	TermID           string
	Assignments      []models.TeachingAssignmentDetail
	Rooms            []models.Room
	Periods          []models.LessonPeriod
	WorkingDays      []int
	SessionsPerWeek  int
	MinClassesPerDay int
}

// allocationResult is the pure outcome of a run before persistence.
type allocationResult struct {
	Slots       []models.TimetableSlot
	Shortfalls  []dto.AssignmentShortfall
	DailyLoad   map[string]map[int]int
	FullyPlaced int
}

// session is one placed occurrence tracked during allocation so the
// balancing pass can relocate it.
type session struct {
	assignment *models.TeachingAssignmentDetail
	day        int
	periodID   string
	roomID     string
}

// SlotAllocator places teaching assignments onto the weekly grid using a
// greedy pass ordered by constraint pressure, followed by a single bounded
// balancing pass. Infeasibility is reported as shortfall data, never as an
// error; errors are reserved for malformed input.
type SlotAllocator struct {
	logger *zap.Logger
}

// NewSlotAllocator constructs an allocator.
func NewSlotAllocator(logger *zap.Logger) *SlotAllocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotAllocator{logger: logger}
}

type allocatorState struct {
	input          allocationInput
	index          *ConflictIndex
	sessions       []*session
	trainerDayLoad map[string]map[int]int
	assignmentDays map[string]map[int]int
}

// Allocate runs the full placement and balancing pipeline.
func (a *SlotAllocator) Allocate(input allocationInput) (*allocationResult, error) {
	if input.SessionsPerWeek < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessionsPerWeek must be at least 1")
	}
	if len(input.Periods) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoSchedulableResources, "no active lesson periods to schedule into")
	}
	if len(input.Rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoSchedulableResources, "no active rooms to schedule into")
	}
	if len(input.WorkingDays) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoSchedulableResources, "term has no working days")
	}

	st := &allocatorState{
		input:          input,
		index:          NewConflictIndex(),
		trainerDayLoad: make(map[string]map[int]int),
		assignmentDays: make(map[string]map[int]int),
	}

	ordered := orderByScarcity(input.Assignments, input.SessionsPerWeek)

	var shortfalls []dto.AssignmentShortfall
	fullyPlaced := 0
	for i := range ordered {
		asg := &ordered[i]
		if !asg.HasTrainer() {
			// Unassigned subjects never reach placement.
			continue
		}
		placed := 0
		for s := 0; s < input.SessionsPerWeek; s++ {
			if st.placeSession(asg, true) || st.placeSession(asg, false) {
				placed++
				continue
			}
			break
		}
		if placed < input.SessionsPerWeek {
			shortfalls = append(shortfalls, dto.AssignmentShortfall{
				AssignmentID: asg.ID,
				ClassID:      asg.ClassID,
				ClassCode:    asg.ClassCode,
				SubjectID:    asg.SubjectID,
				SubjectName:  asg.SubjectName,
				TrainerID:    *asg.TrainerID,
				Requested:    input.SessionsPerWeek,
				Placed:       placed,
				Shortfall:    input.SessionsPerWeek - placed,
			})
			a.logger.Debug("assignment partially scheduled",
				zap.String("assignment_id", asg.ID),
				zap.Int("placed", placed),
				zap.Int("requested", input.SessionsPerWeek))
			continue
		}
		fullyPlaced++
	}

	if input.MinClassesPerDay > 0 {
		st.balanceDailyLoad(input.MinClassesPerDay)
	}

	return &allocationResult{
		Slots:       st.exportSlots(),
		Shortfalls:  shortfalls,
		DailyLoad:   st.trainerDayLoad,
		FullyPlaced: fullyPlaced,
	}, nil
}

// orderByScarcity sorts assignments so the most constrained are placed first:
// trainers carrying the largest weekly demand, then a stable registry order.
func orderByScarcity(assignments []models.TeachingAssignmentDetail, sessionsPerWeek int) []models.TeachingAssignmentDetail {
	demand := make(map[string]int)
	for _, asg := range assignments {
		if asg.HasTrainer() {
			demand[*asg.TrainerID] += sessionsPerWeek
		}
	}

	ordered := make([]models.TeachingAssignmentDetail, len(assignments))
	copy(ordered, assignments)
	sort.SliceStable(ordered, func(i, j int) bool {
		var di, dj int
		if ordered[i].HasTrainer() {
			di = demand[*ordered[i].TrainerID]
		}
		if ordered[j].HasTrainer() {
			dj = demand[*ordered[j].TrainerID]
		}
		if di != dj {
			return di > dj
		}
		if ordered[i].ClassCode != ordered[j].ClassCode {
			return ordered[i].ClassCode < ordered[j].ClassCode
		}
		if ordered[i].SubjectName != ordered[j].SubjectName {
			return ordered[i].SubjectName < ordered[j].SubjectName
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

// placeSession scans (day, period, room) combinations in a deterministic
// order and commits the first free cell. When distinctDays is set, days the
// assignment already occupies are skipped so sessions spread across the week.
func (st *allocatorState) placeSession(asg *models.TeachingAssignmentDetail, distinctDays bool) bool {
	trainerID := *asg.TrainerID
	for _, day := range st.dayOrder(trainerID) {
		if distinctDays && st.assignmentDays[asg.ID][day] > 0 {
			continue
		}
		for _, period := range st.input.Periods {
			for _, room := range st.input.Rooms {
				if !room.AllowsDepartment(asg.ClassDepartment) {
					continue
				}
				if !st.index.IsFree(day, period.ID, trainerID, asg.ClassID, room.ID) {
					continue
				}
				st.commit(&session{assignment: asg, day: day, periodID: period.ID, roomID: room.ID})
				return true
			}
		}
	}
	return false
}

// dayOrder returns working days sorted by the trainer's current load so the
// greedy pass spreads sessions before the balancing pass runs. Ties resolve
// by day number to keep the scan deterministic.
func (st *allocatorState) dayOrder(trainerID string) []int {
	days := make([]int, len(st.input.WorkingDays))
	copy(days, st.input.WorkingDays)
	load := st.trainerDayLoad[trainerID]
	sort.SliceStable(days, func(i, j int) bool {
		if load[days[i]] != load[days[j]] {
			return load[days[i]] < load[days[j]]
		}
		return days[i] < days[j]
	})
	return days
}

func (st *allocatorState) commit(sess *session) {
	st.index.Commit(sess.day, sess.periodID, *sess.assignment.TrainerID, sess.assignment.ClassID, sess.roomID)
	st.sessions = append(st.sessions, sess)
	trainerID := *sess.assignment.TrainerID
	if st.trainerDayLoad[trainerID] == nil {
		st.trainerDayLoad[trainerID] = make(map[int]int)
	}
	st.trainerDayLoad[trainerID][sess.day]++
	if st.assignmentDays[sess.assignment.ID] == nil {
		st.assignmentDays[sess.assignment.ID] = make(map[int]int)
	}
	st.assignmentDays[sess.assignment.ID][sess.day]++
}

// balanceDailyLoad performs one pass moving sessions from a trainer's most
// loaded day to days below the configured minimum. Moves are re-validated
// through the index and never break the distinct-day spread.
func (st *allocatorState) balanceDailyLoad(minPerDay int) {
	trainers := make([]string, 0, len(st.trainerDayLoad))
	for trainerID := range st.trainerDayLoad {
		trainers = append(trainers, trainerID)
	}
	sort.Strings(trainers)

	for _, trainerID := range trainers {
		for _, day := range st.input.WorkingDays {
			if st.trainerDayLoad[trainerID][day] >= minPerDay {
				continue
			}
			donor, ok := st.donorDay(trainerID, day, minPerDay)
			if !ok {
				continue
			}
			st.moveOneSession(trainerID, donor, day)
		}
	}
}

// donorDay picks the trainer's most loaded day that can spare a session
// without itself dropping below the minimum.
func (st *allocatorState) donorDay(trainerID string, target, minPerDay int) (int, bool) {
	best := 0
	bestLoad := 0
	for _, day := range st.input.WorkingDays {
		if day == target {
			continue
		}
		load := st.trainerDayLoad[trainerID][day]
		if load <= minPerDay {
			continue
		}
		if load > bestLoad {
			best = day
			bestLoad = load
		}
	}
	return best, bestLoad > 0
}

func (st *allocatorState) moveOneSession(trainerID string, donor, target int) {
	for _, sess := range st.sessions {
		if *sess.assignment.TrainerID != trainerID || sess.day != donor {
			continue
		}
		if st.assignmentDays[sess.assignment.ID][target] > 0 {
			continue
		}
		for _, period := range st.input.Periods {
			for _, room := range st.input.Rooms {
				if !room.AllowsDepartment(sess.assignment.ClassDepartment) {
					continue
				}
				if !st.index.IsFree(target, period.ID, trainerID, sess.assignment.ClassID, room.ID) {
					continue
				}
				st.index.Release(sess.day, sess.periodID, trainerID, sess.assignment.ClassID, sess.roomID)
				st.trainerDayLoad[trainerID][sess.day]--
				st.assignmentDays[sess.assignment.ID][sess.day]--

				sess.day = target
				sess.periodID = period.ID
				sess.roomID = room.ID

				st.index.Commit(target, period.ID, trainerID, sess.assignment.ClassID, room.ID)
				st.trainerDayLoad[trainerID][target]++
				st.assignmentDays[sess.assignment.ID][target]++
				return
			}
		}
	}
}

// exportSlots materialises sessions as slot rows in stable order.
func (st *allocatorState) exportSlots() []models.TimetableSlot {
	position := make(map[string]int, len(st.input.Periods))
	for _, period := range st.input.Periods {
		position[period.ID] = period.Position
	}

	slots := make([]models.TimetableSlot, 0, len(st.sessions))
	for _, sess := range st.sessions {
		slots = append(slots, models.TimetableSlot{
			TermID:         st.input.TermID,
			DayOfWeek:      sess.day,
			LessonPeriodID: sess.periodID,
			RoomID:         sess.roomID,
			ClassID:        sess.assignment.ClassID,
			SubjectID:      sess.assignment.SubjectID,
			TrainerID:      *sess.assignment.TrainerID,
		})
	}
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		if position[slots[i].LessonPeriodID] != position[slots[j].LessonPeriodID] {
			return position[slots[i].LessonPeriodID] < position[slots[j].LessonPeriodID]
		}
		return fmt.Sprintf("%s/%s", slots[i].ClassID, slots[i].SubjectID) < fmt.Sprintf("%s/%s", slots[j].ClassID, slots[j].SubjectID)
	})
	return slots
}
