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

func contractRows(id, ownerID, renterID, apartmentID uint64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "renter_id", "apartment_id", "rent_cents", "charge_cents", "other", "status", "created_at", "updated_at",
	}).AddRow(id, ownerID, renterID, apartmentID, 85000, 12000, "", status, now, now)
}

func TestContractCreateRejectsOccupiedApartment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContractRepo(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM renters").
		WithArgs(uint64(2), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RenterActive))
	mock.ExpectQuery("SELECT building_id, status FROM apartments").
		WithArgs(uint64(5), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"building_id", "status"}).AddRow(int64(3), model.ApartmentOccupied))
	mock.ExpectRollback()

	_, err = repo.Create(context.Background(), 1, ContractInput{RenterID: 2, ApartmentID: 5, RentCents: 85000})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractCreateAllowsSecondOccupantWhenPolicyEnabled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContractRepo(db, true)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM renters").
		WithArgs(uint64(2), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RenterActive))
	mock.ExpectQuery("SELECT building_id, status FROM apartments").
		WithArgs(uint64(5), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"building_id", "status"}).AddRow(int64(3), model.ApartmentOccupied))
	mock.ExpectExec("INSERT INTO contracts").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("UPDATE apartments SET status = ?").
		WithArgs(model.ApartmentOccupied, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Apartment was already Occupé, so the occupied counter must not move.
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, owner_id, renter_id, apartment_id").
		WithArgs(int64(10)).
		WillReturnRows(contractRows(10, 1, 2, 5, model.ContractActive))

	ct, err := repo.Create(context.Background(), 1, ContractInput{RenterID: 2, ApartmentID: 5, RentCents: 85000, ChargeCents: 12000})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), ct.ID)
	assert.Equal(t, model.ContractActive, ct.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractCreateBumpsCounterForFirstOccupant(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContractRepo(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM renters").
		WithArgs(uint64(2), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RenterActive))
	mock.ExpectQuery("SELECT building_id, status FROM apartments").
		WithArgs(uint64(5), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"building_id", "status"}).AddRow(int64(3), model.ApartmentFree))
	mock.ExpectExec("INSERT INTO contracts").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("UPDATE apartments SET status = ?").
		WithArgs(model.ApartmentOccupied, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE buildings SET occupied_counter = occupied_counter \\+ 1").
		WithArgs(uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, owner_id, renter_id, apartment_id").
		WithArgs(int64(11)).
		WillReturnRows(contractRows(11, 1, 2, 5, model.ContractActive))

	_, err = repo.Create(context.Background(), 1, ContractInput{RenterID: 2, ApartmentID: 5})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractCreateRejectsInactiveRenter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContractRepo(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM renters").
		WithArgs(uint64(2), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RenterInactive))
	mock.ExpectRollback()

	_, err = repo.Create(context.Background(), 1, ContractInput{RenterID: 2, ApartmentID: 5})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "disabled")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractArchiveReleasesApartmentOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContractRepo(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT apartment_id, status FROM contracts").
		WithArgs(uint64(10), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"apartment_id", "status"}).AddRow(uint64(5), model.ContractActive))
	mock.ExpectExec("UPDATE contracts SET status = ?").
		WithArgs(model.ContractArchived, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT building_id FROM apartments").
		WithArgs(uint64(5), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"building_id"}).AddRow(int64(3)))
	mock.ExpectExec("UPDATE apartments SET status = ?").
		WithArgs(model.ApartmentFree, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE buildings SET occupied_counter = GREATEST").
		WithArgs(uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, owner_id, renter_id, apartment_id").
		WithArgs(uint64(10)).
		WillReturnRows(contractRows(10, 1, 2, 5, model.ContractArchived))

	ct, err := repo.ArchiveByIDAndOwner(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ContractArchived, ct.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractArchiveTwiceIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContractRepo(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT apartment_id, status FROM contracts").
		WithArgs(uint64(10), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"apartment_id", "status"}).AddRow(uint64(5), model.ContractArchived))
	mock.ExpectRollback()

	_, err = repo.ArchiveByIDAndOwner(context.Background(), 10, 1)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "already archived")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractUpdateCannotMoveApartment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContractRepo(db, false)

	mock.ExpectQuery("SELECT apartment_id FROM contracts").
		WithArgs(uint64(10), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"apartment_id"}).AddRow(uint64(5)))

	_, err = repo.UpdateByIDAndOwner(context.Background(), 10, 1, ContractInput{RenterID: 2, ApartmentID: 6})
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractDeleteOfArchivedSkipsRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContractRepo(db, false)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT apartment_id, status FROM contracts").
		WithArgs(uint64(10), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"apartment_id", "status"}).AddRow(uint64(5), model.ContractArchived))
	mock.ExpectExec("DELETE FROM files WHERE entity_kind = 'contract'").
		WithArgs(uint64(10), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM contracts").
		WithArgs(uint64(10), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteByIDAndOwner(context.Background(), 10, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContractRepo(db, false)

	mock.ExpectQuery("SELECT id, owner_id, renter_id, apartment_id").
		WithArgs(uint64(99), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetByIDAndOwner(context.Background(), 99, 1)
	assert.ErrorIs(t, err, ErrContractNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
