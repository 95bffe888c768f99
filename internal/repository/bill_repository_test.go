package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func billRows(id, ownerID, renterID, statusID uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "renter_id", "status_id", "reference", "end_date", "amount_cents", "reason", "created_at", "updated_at",
	}).AddRow(id, ownerID, renterID, statusID, nil, now, 45000, "Loyer août", now, now)
}

func TestBillCreateWritesFirstLedgerRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBillRepo(db)
	end := time.Now().AddDate(0, 1, 0)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM renters").
		WithArgs(uint64(2), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(2)))
	mock.ExpectQuery("SELECT id FROM statuses").
		WithArgs(uint64(4), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(4)))
	mock.ExpectExec("INSERT INTO bills").
		WillReturnResult(sqlmock.NewResult(30, 1))
	mock.ExpectExec("INSERT INTO bill_status_history").
		WithArgs(uint64(1), uint64(30), uint64(4), end).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, owner_id, renter_id, status_id").
		WithArgs(int64(30)).
		WillReturnRows(billRows(30, 1, 2, 4))

	b, err := repo.Create(context.Background(), 1, BillInput{
		RenterID: 2, StatusID: 4, EndDate: end, AmountCents: 45000, Reason: "Loyer août",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(30), b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillUpdateAppendsLedgerRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBillRepo(db)
	end := time.Now().AddDate(0, 1, 0)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bills").
		WithArgs(uint64(30), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(30)))
	mock.ExpectQuery("SELECT id FROM renters").
		WithArgs(uint64(2), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(2)))
	mock.ExpectQuery("SELECT id FROM statuses").
		WithArgs(uint64(5), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(5)))
	mock.ExpectExec("UPDATE bills SET renter_id").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bill_status_history").
		WithArgs(uint64(1), uint64(30), uint64(5), end).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, owner_id, renter_id, status_id").
		WithArgs(uint64(30)).
		WillReturnRows(billRows(30, 1, 2, 5))

	b, err := repo.UpdateByIDAndOwner(context.Background(), 30, 1, BillInput{
		RenterID: 2, StatusID: 5, EndDate: end, AmountCents: 45000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), b.StatusID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillCreateUnknownStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBillRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM renters").
		WithArgs(uint64(2), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(2)))
	mock.ExpectQuery("SELECT id FROM statuses").
		WithArgs(uint64(99), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err = repo.Create(context.Background(), 1, BillInput{RenterID: 2, StatusID: 99, EndDate: time.Now()})
	assert.ErrorIs(t, err, ErrStatusNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillDeleteRemovesLedger(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBillRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bills").
		WithArgs(uint64(30), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(30)))
	mock.ExpectExec("DELETE FROM bill_status_history").
		WithArgs(uint64(30)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM files WHERE entity_kind = 'bill'").
		WithArgs(uint64(30), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM bills").
		WithArgs(uint64(30), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteByIDAndOwner(context.Background(), 30, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}
