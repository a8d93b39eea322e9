package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vti-ops/timetable-api/internal/dto"
	"github.com/vti-ops/timetable-api/internal/models"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
)

type slotStoreStub struct {
	slots     []models.TimetableSlot
	details   []models.TimetableSlotDetail
	conflicts []models.TimetableSlot
	created   *models.TimetableSlot
	updated   *models.TimetableSlot
	deleted   []string
	findErr   error
}

func (s *slotStoreStub) List(_ context.Context, _ models.TimetableFilter) ([]models.TimetableSlot, int, error) {
	return s.slots, len(s.slots), nil
}

func (s *slotStoreStub) ListDetailsByTerm(_ context.Context, _ string) ([]models.TimetableSlotDetail, error) {
	return s.details, nil
}

func (s *slotStoreStub) FindConflicts(_ context.Context, _ string, _ int, _ string) ([]models.TimetableSlot, error) {
	return s.conflicts, nil
}

func (s *slotStoreStub) FindByID(_ context.Context, id string) (*models.TimetableSlot, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	for i := range s.slots {
		if s.slots[i].ID == id {
			return &s.slots[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *slotStoreStub) Create(_ context.Context, slot *models.TimetableSlot) error {
	slot.ID = "slot-new"
	s.created = slot
	return nil
}

func (s *slotStoreStub) Update(_ context.Context, slot *models.TimetableSlot) error {
	s.updated = slot
	return nil
}

func (s *slotStoreStub) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type viewCacheStub struct {
	entries  map[string][]models.TimetableSlotDetail
	patterns []string
	hits     int
	misses   int
}

func newViewCacheStub() *viewCacheStub {
	return &viewCacheStub{entries: map[string][]models.TimetableSlotDetail{}}
}

func (c *viewCacheStub) Get(_ context.Context, key string, dest interface{}) error {
	details, ok := c.entries[key]
	if !ok {
		c.misses++
		return appErrors.ErrCacheMiss
	}
	c.hits++
	*dest.(*[]models.TimetableSlotDetail) = details
	return nil
}

func (c *viewCacheStub) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.entries[key] = value.([]models.TimetableSlotDetail)
	return nil
}

func (c *viewCacheStub) DeleteByPattern(_ context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	c.entries = map[string][]models.TimetableSlotDetail{}
	return nil
}

func slotRequest() *dto.ManualSlotRequest {
	return &dto.ManualSlotRequest{
		TermID:         "term-1",
		DayOfWeek:      2,
		LessonPeriodID: "p1",
		RoomID:         "r1",
		ClassID:        "c1",
		SubjectID:      "s1",
		TrainerID:      "t1",
	}
}

func TestWeeklyViewCachesResult(t *testing.T) {
	store := &slotStoreStub{details: []models.TimetableSlotDetail{
		{
			TimetableSlot:  models.TimetableSlot{TermID: "term-1", DayOfWeek: 1},
			PeriodPosition: 1,
			ClassCode:      "TKJ-1A",
		},
	}}
	cache := newViewCacheStub()
	svc := NewTimetableService(store, cache, testTimetableConfig(), nil)

	first, err := svc.WeeklyView(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, cache.misses)

	second, err := svc.WeeklyView(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.hits)
}

func TestWeeklyViewEmptyTermReturnsEmptySlice(t *testing.T) {
	svc := NewTimetableService(&slotStoreStub{}, nil, testTimetableConfig(), nil)

	details, err := svc.WeeklyView(context.Background(), "term-1")
	require.NoError(t, err)
	assert.NotNil(t, details)
	assert.Empty(t, details)
}

func TestCreateSlotRejectsTrainerConflict(t *testing.T) {
	store := &slotStoreStub{conflicts: []models.TimetableSlot{
		{ID: "slot-1", TrainerID: "t1", ClassID: "other", RoomID: "other"},
	}}
	svc := NewTimetableService(store, nil, testTimetableConfig(), nil)

	_, err := svc.CreateSlot(context.Background(), slotRequest())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrSlotConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "trainer")
	assert.Nil(t, store.created)
}

func TestCreateSlotRejectsRoomConflict(t *testing.T) {
	store := &slotStoreStub{conflicts: []models.TimetableSlot{
		{ID: "slot-1", TrainerID: "other", ClassID: "other", RoomID: "r1"},
	}}
	svc := NewTimetableService(store, nil, testTimetableConfig(), nil)

	_, err := svc.CreateSlot(context.Background(), slotRequest())
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "room")
}

func TestCreateSlotInvalidatesCache(t *testing.T) {
	store := &slotStoreStub{}
	cache := newViewCacheStub()
	svc := NewTimetableService(store, cache, testTimetableConfig(), nil)

	slot, err := svc.CreateSlot(context.Background(), slotRequest())
	require.NoError(t, err)
	assert.Equal(t, "slot-new", slot.ID)
	require.Len(t, cache.patterns, 1)
	assert.Equal(t, "timetable:term:term-1:*", cache.patterns[0])
}

func TestCreateSlotValidatesRequest(t *testing.T) {
	svc := NewTimetableService(&slotStoreStub{}, nil, testTimetableConfig(), nil)

	req := slotRequest()
	req.DayOfWeek = 9
	_, err := svc.CreateSlot(context.Background(), req)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUpdateSlotIgnoresOwnPosition(t *testing.T) {
	existing := models.TimetableSlot{
		ID: "slot-1", TermID: "term-1", DayOfWeek: 2, LessonPeriodID: "p1",
		RoomID: "r1", ClassID: "c1", SubjectID: "s1", TrainerID: "t1",
	}
	store := &slotStoreStub{
		slots:     []models.TimetableSlot{existing},
		conflicts: []models.TimetableSlot{existing},
	}
	svc := NewTimetableService(store, nil, testTimetableConfig(), nil)

	updated, err := svc.UpdateSlot(context.Background(), "slot-1", slotRequest())
	require.NoError(t, err)
	assert.Equal(t, "slot-1", updated.ID)
	require.NotNil(t, store.updated)
}

func TestUpdateSlotNotFound(t *testing.T) {
	svc := NewTimetableService(&slotStoreStub{}, nil, testTimetableConfig(), nil)

	_, err := svc.UpdateSlot(context.Background(), "missing", slotRequest())
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestDeleteSlotInvalidatesCache(t *testing.T) {
	store := &slotStoreStub{slots: []models.TimetableSlot{{ID: "slot-1", TermID: "term-1"}}}
	cache := newViewCacheStub()
	svc := NewTimetableService(store, cache, testTimetableConfig(), nil)

	require.NoError(t, svc.DeleteSlot(context.Background(), "slot-1"))
	assert.Equal(t, []string{"slot-1"}, store.deleted)
	require.Len(t, cache.patterns, 1)
}

func TestExportCSVRendersRows(t *testing.T) {
	store := &slotStoreStub{details: []models.TimetableSlotDetail{
		{
			TimetableSlot:  models.TimetableSlot{TermID: "term-1", DayOfWeek: 1},
			PeriodPosition: 1,
			PeriodStart:    "07:30", PeriodEnd: "08:15",
			ClassCode: "TKJ-1A", SubjectName: "Networking", TrainerName: "A. Rahman", RoomName: "Lab 1",
		},
	}}
	svc := NewTimetableService(store, nil, testTimetableConfig(), nil)

	out, err := svc.ExportCSV(context.Background(), "term-1")
	require.NoError(t, err)
	body := string(out)
	assert.Contains(t, body, "Day,Period,Start,End,Class,Subject,Trainer,Room")
	assert.Contains(t, body, "MONDAY,1,07:30,08:15,TKJ-1A,Networking,A. Rahman,Lab 1")
}

func TestExportPDFProducesDocument(t *testing.T) {
	store := &slotStoreStub{details: []models.TimetableSlotDetail{
		{
			TimetableSlot:  models.TimetableSlot{TermID: "term-1", DayOfWeek: 1},
			PeriodPosition: 1,
			ClassCode:      "TKJ-1A", SubjectName: "Networking",
		},
	}}
	svc := NewTimetableService(store, nil, testTimetableConfig(), nil)

	out, err := svc.ExportPDF(context.Background(), "term-1")
	require.NoError(t, err)
	assert.True(t, len(out) > 4)
	assert.Equal(t, "%PDF", string(out[:4]))
}
