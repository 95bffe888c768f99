package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusRows(id, ownerID uint64, name string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "owner_id", "name", "created_at", "updated_at"}).
		AddRow(id, ownerID, name, now, now)
}

func TestStatusDeleteBlockedByReference(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewStatusRepo(db)

	mock.ExpectQuery("SELECT id, owner_id, name").
		WithArgs(uint64(4), uint64(1)).
		WillReturnRows(statusRows(4, 1, "Payée"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bills`).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	err = repo.DeleteByIDAndOwner(context.Background(), 4, 1)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "bills")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusDeleteBlockedByHistoryLedger(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewStatusRepo(db)

	mock.ExpectQuery("SELECT id, owner_id, name").
		WithArgs(uint64(4), uint64(1)).
		WillReturnRows(statusRows(4, 1, "Payée"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bills`).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// Live bills are gone, but the ledger still remembers the label.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bill_status_history`).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	err = repo.DeleteByIDAndOwner(context.Background(), 4, 1)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "bill history")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusDeleteUnreferenced(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewStatusRepo(db)

	mock.ExpectQuery("SELECT id, owner_id, name").
		WithArgs(uint64(4), uint64(1)).
		WillReturnRows(statusRows(4, 1, "Brouillon"))
	for _, table := range []string{"bills", "bill_status_history", "tasks", "task_status_history", "repairs", "repair_status_history"} {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ` + table).
			WithArgs(uint64(4)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	}
	mock.ExpectExec("DELETE FROM statuses").
		WithArgs(uint64(4), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteByIDAndOwner(context.Background(), 4, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}
