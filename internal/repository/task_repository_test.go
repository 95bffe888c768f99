package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aroschi/gestimmo/internal/model"
)

func taskRows(id, ownerID, statusID uint64, messageID any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "title", "content", "start_date", "end_date", "status_id", "message_id", "created_at", "updated_at",
	}).AddRow(id, ownerID, "Fuite salle de bain", "", now, now.Add(48*time.Hour), statusID, messageID, now, now)
}

func TestTaskCreateFromMessageFlipsMessageStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepo(db)
	msgID := uint64(12)
	start := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM statuses").
		WithArgs(uint64(4), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(4)))
	mock.ExpectQuery("SELECT id FROM messages").
		WithArgs(uint64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(12)))
	mock.ExpectExec("INSERT INTO tasks").
		WillReturnResult(sqlmock.NewResult(20, 1))
	mock.ExpectExec("INSERT INTO task_status_history").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE messages SET status = ?").
		WithArgs(model.MessageTaskCreated, uint64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, owner_id, title, content").
		WithArgs(int64(20)).
		WillReturnRows(taskRows(20, 1, 4, int64(12)))

	task, err := repo.Create(context.Background(), 1, TaskInput{
		Title: "Fuite salle de bain", StartDate: start, EndDate: start.Add(48 * time.Hour),
		StatusID: 4, MessageID: &msgID,
	})
	require.NoError(t, err)
	require.NotNil(t, task.MessageID)
	assert.Equal(t, uint64(12), *task.MessageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskCreateUnknownMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepo(db)
	msgID := uint64(99)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM statuses").
		WithArgs(uint64(4), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(4)))
	mock.ExpectQuery("SELECT id FROM messages").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err = repo.Create(context.Background(), 1, TaskInput{
		Title: "x", StartDate: time.Now(), EndDate: time.Now(), StatusID: 4, MessageID: &msgID,
	})
	assert.ErrorIs(t, err, ErrMessageNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskUpdateAppendsLedgerSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepo(db)
	start := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM tasks").
		WithArgs(uint64(20), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(20)))
	mock.ExpectQuery("SELECT id FROM statuses").
		WithArgs(uint64(5), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(5)))
	mock.ExpectExec("UPDATE tasks SET title").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO task_status_history").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, owner_id, title, content").
		WithArgs(uint64(20)).
		WillReturnRows(taskRows(20, 1, 5, nil))

	task, err := repo.UpdateByIDAndOwner(context.Background(), 20, 1, TaskInput{
		Title: "Fuite salle de bain", StartDate: start, EndDate: start.Add(24 * time.Hour), StatusID: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), task.StatusID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskDeleteBlockedByRepair(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM tasks").
		WithArgs(uint64(20), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(20)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM repairs`).
		WithArgs(uint64(20)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err = repo.DeleteByIDAndOwner(context.Background(), 20, 1)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "repair")
	assert.NoError(t, mock.ExpectationsWereMet())
}
