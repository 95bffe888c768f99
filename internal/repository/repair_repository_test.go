package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repairRows(id, ownerID, taskID, statusID uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "task_id", "status_id", "amount_cents", "reason", "created_at", "updated_at",
	}).AddRow(id, ownerID, taskID, statusID, 12500, "Fuite d'eau", now, now)
}

func TestRepairCreateWritesFirstLedgerRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepairRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM tasks").
		WithArgs(uint64(20), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(20)))
	mock.ExpectQuery("SELECT id FROM statuses").
		WithArgs(uint64(4), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(4)))
	mock.ExpectExec("INSERT INTO repairs").
		WillReturnResult(sqlmock.NewResult(50, 1))
	mock.ExpectExec("INSERT INTO repair_status_history").
		WithArgs(uint64(1), uint64(50), uint64(4), uint32(12500), "Fuite d'eau").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, owner_id, task_id").
		WithArgs(int64(50)).
		WillReturnRows(repairRows(50, 1, 20, 4))

	p, err := repo.Create(context.Background(), 1, RepairInput{
		TaskID: 20, StatusID: 4, AmountCents: 12500, Reason: "Fuite d'eau",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(50), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepairUpdateAppendsLedgerRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepairRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM repairs").
		WithArgs(uint64(50), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(50)))
	mock.ExpectQuery("SELECT id FROM tasks").
		WithArgs(uint64(20), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(20)))
	mock.ExpectQuery("SELECT id FROM statuses").
		WithArgs(uint64(5), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(5)))
	mock.ExpectExec("UPDATE repairs SET task_id").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO repair_status_history").
		WithArgs(uint64(1), uint64(50), uint64(5), uint32(14000), "Fuite d'eau, devis revu").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, owner_id, task_id").
		WithArgs(uint64(50)).
		WillReturnRows(repairRows(50, 1, 20, 5))

	p, err := repo.UpdateByIDAndOwner(context.Background(), 50, 1, RepairInput{
		TaskID: 20, StatusID: 5, AmountCents: 14000, Reason: "Fuite d'eau, devis revu",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), p.StatusID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepairCreateUnknownTask(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepairRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM tasks").
		WithArgs(uint64(99), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err = repo.Create(context.Background(), 1, RepairInput{TaskID: 99, StatusID: 4})
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepairDeleteRemovesLedger(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepairRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM repairs").
		WithArgs(uint64(50), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(50)))
	mock.ExpectExec("DELETE FROM repair_status_history").
		WithArgs(uint64(50)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM files WHERE entity_kind = 'repair'").
		WithArgs(uint64(50), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM repairs").
		WithArgs(uint64(50), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteByIDAndOwner(context.Background(), 50, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}
