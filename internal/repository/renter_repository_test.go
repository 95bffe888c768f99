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

func renterRows(id, ownerID uint64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "name", "lastname", "email", "password_hash", "date_of_birth", "status", "created_at", "updated_at",
	}).AddRow(id, ownerID, "Marie", "Durand", "marie@example.com", "$2a$10$hash", nil, status, now, now)
}

func TestRenterDeactivateBlockedByActiveContract(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRenterRepo(db)

	mock.ExpectQuery("SELECT id, owner_id, name, lastname").
		WithArgs(uint64(2), uint64(1)).
		WillReturnRows(renterRows(2, 1, model.RenterActive))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM contracts`).
		WithArgs(uint64(2), model.ContractActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err = repo.UpdateByIDAndOwner(context.Background(), 2, 1, RenterInput{
		Name: "Marie", Lastname: "Durand", Email: "marie@example.com", Status: model.RenterInactive,
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "active contract")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenterDeactivateSucceedsWithoutContracts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRenterRepo(db)

	mock.ExpectQuery("SELECT id, owner_id, name, lastname").
		WithArgs(uint64(2), uint64(1)).
		WillReturnRows(renterRows(2, 1, model.RenterActive))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM contracts`).
		WithArgs(uint64(2), model.ContractActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("UPDATE renters SET name").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, owner_id, name, lastname").
		WithArgs(uint64(2), uint64(1)).
		WillReturnRows(renterRows(2, 1, model.RenterInactive))

	got, err := repo.UpdateByIDAndOwner(context.Background(), 2, 1, RenterInput{
		Name: "Marie", Lastname: "Durand", Email: "marie@example.com", Status: model.RenterInactive,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RenterInactive, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenterUpdateRejectsUnknownStatus(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRenterRepo(db)

	_, err = repo.UpdateByIDAndOwner(context.Background(), 2, 1, RenterInput{
		Name: "Marie", Email: "marie@example.com", Status: "Suspendu",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRenterDeleteCascadesAndFreesApartments(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRenterRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM renters").
		WithArgs(uint64(2), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(2)))
	mock.ExpectExec("DELETE FROM bill_status_history").
		WithArgs(uint64(2), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM files WHERE entity_kind = 'bill'").
		WithArgs(uint64(2), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM bills").
		WithArgs(uint64(2), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// One live lease on apartment 5.
	mock.ExpectQuery("SELECT apartment_id FROM contracts").
		WithArgs(uint64(2), uint64(1), model.ContractActive).
		WillReturnRows(sqlmock.NewRows([]string{"apartment_id"}).AddRow(uint64(5)))
	mock.ExpectQuery("SELECT building_id FROM apartments").
		WithArgs(uint64(5), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"building_id"}).AddRow(int64(3)))
	mock.ExpectExec("UPDATE apartments SET status = ?").
		WithArgs(model.ApartmentFree, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE buildings SET occupied_counter = GREATEST").
		WithArgs(uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM files WHERE entity_kind = 'contract'").
		WithArgs(uint64(2), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM contracts").
		WithArgs(uint64(2), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM files WHERE entity_kind = 'renter'").
		WithArgs(uint64(2), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs(uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM renters").
		WithArgs(uint64(2), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteByIDAndOwner(context.Background(), 2, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenterDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRenterRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM renters").
		WithArgs(uint64(99), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err = repo.DeleteByIDAndOwner(context.Background(), 99, 1)
	assert.ErrorIs(t, err, ErrRenterNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
