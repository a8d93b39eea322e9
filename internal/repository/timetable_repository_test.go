package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vti-ops/timetable-api/internal/models"
)

func newTimetableRepoMock(t *testing.T) (*TimetableRepository, *sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rawDB.Close() })
	db := sqlx.NewDb(rawDB, "sqlmock")
	return NewTimetableRepository(db), db, mock
}

func slotRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "term_id", "day_of_week", "lesson_period_id", "room_id", "class_id", "subject_id", "trainer_id", "created_at", "updated_at",
	}).AddRow("slot-1", "term-1", 1, "p1", "r1", "c1", "math", "t1", now, now)
}

func TestTimetableRepositoryListFilters(t *testing.T) {
	repo, _, mock := newTimetableRepoMock(t)

	mock.ExpectQuery(`SELECT .* FROM timetable_slots WHERE 1=1 AND term_id = \$1 AND trainer_id = \$2 ORDER BY day_of_week ASC`).
		WithArgs("term-1", "t1").
		WillReturnRows(slotRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM timetable_slots WHERE 1=1 AND term_id = \$1 AND trainer_id = \$2`).
		WithArgs("term-1", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	slots, total, err := repo.List(context.Background(), models.TimetableFilter{TermID: "term-1", TrainerID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, slots, 1)
	assert.Equal(t, "slot-1", slots[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryCountByTerm(t *testing.T) {
	repo, _, mock := newTimetableRepoMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM timetable_slots WHERE term_id = \$1`).
		WithArgs("term-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryFindConflicts(t *testing.T) {
	repo, _, mock := newTimetableRepoMock(t)

	mock.ExpectQuery(`SELECT .* FROM timetable_slots WHERE term_id = \$1 AND day_of_week = \$2 AND lesson_period_id = \$3`).
		WithArgs("term-1", 1, "p1").
		WillReturnRows(slotRows())

	slots, err := repo.FindConflicts(context.Background(), "term-1", 1, "p1")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "t1", slots[0].TrainerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDeleteByTermTx(t *testing.T) {
	repo, db, mock := newTimetableRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM timetable_slots WHERE term_id = \$1`).
		WithArgs("term-1").
		WillReturnResult(sqlmock.NewResult(0, 40))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	deleted, err := repo.DeleteByTermTx(context.Background(), tx, "term-1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), deleted)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryBulkInsertTxAssignsIDs(t *testing.T) {
	repo, db, mock := newTimetableRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO timetable_slots`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO timetable_slots`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	slots := []models.TimetableSlot{
		{TermID: "term-1", DayOfWeek: 1, LessonPeriodID: "p1", RoomID: "r1", ClassID: "c1", SubjectID: "math", TrainerID: "t1"},
		{TermID: "term-1", DayOfWeek: 2, LessonPeriodID: "p1", RoomID: "r1", ClassID: "c1", SubjectID: "math", TrainerID: "t1"},
	}
	require.NoError(t, repo.BulkInsertTx(context.Background(), tx, slots))
	require.NoError(t, tx.Commit())

	for _, slot := range slots {
		assert.NotEmpty(t, slot.ID, "ids are assigned during insert")
		assert.False(t, slot.CreatedAt.IsZero())
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryBulkInsertTxPropagatesError(t *testing.T) {
	repo, db, mock := newTimetableRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO timetable_slots`).
		WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	insertErr := repo.BulkInsertTx(context.Background(), tx, []models.TimetableSlot{
		{TermID: "term-1", DayOfWeek: 1, LessonPeriodID: "p1", RoomID: "r1", ClassID: "c1", SubjectID: "math", TrainerID: "t1"},
	})
	require.Error(t, insertErr)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
