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

func buildingRows(id, ownerID uint64, total, occupied int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "adress", "postalcode", "city", "number_of_apartments", "occupied_counter", "created_at", "updated_at",
	}).AddRow(id, ownerID, "12 rue de la Paix", 75002, "Paris", total, occupied, now, now)
}

func TestBuildingDeleteCascades(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBuildingRepo(db)

	// The order matters: contract files before contracts, apartment
	// files before apartments, the building row last.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM buildings").
		WithArgs(uint64(3), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(3)))
	mock.ExpectExec("DELETE FROM files WHERE entity_kind = 'contract'").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM contracts WHERE apartment_id IN").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM files WHERE entity_kind = 'apartment'").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM apartments WHERE building_id").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM buildings").
		WithArgs(uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteByIDAndOwner(context.Background(), 3, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildingDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBuildingRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM buildings").
		WithArgs(uint64(99), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err = repo.DeleteByIDAndOwner(context.Background(), 99, 1)
	assert.ErrorIs(t, err, ErrBuildingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildingListRentersSkipsArchivedContracts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBuildingRepo(db)
	now := time.Now()

	mock.ExpectQuery("SELECT id, owner_id, adress").
		WithArgs(uint64(3), uint64(1)).
		WillReturnRows(buildingRows(3, 1, 4, 2))
	mock.ExpectQuery("SELECT DISTINCT r.id").
		WithArgs(model.ContractArchived, uint64(3), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "name", "lastname", "email", "status", "created_at", "updated_at",
		}).AddRow(uint64(2), uint64(1), "Marie", "Durand", "marie@example.com", model.RenterActive, now, now))

	renters, err := repo.ListRenters(context.Background(), 3, 1)
	require.NoError(t, err)
	require.Len(t, renters, 1)
	assert.Equal(t, uint64(2), renters[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildingListRentersUnknownBuilding(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBuildingRepo(db)

	mock.ExpectQuery("SELECT id, owner_id, adress").
		WithArgs(uint64(99), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "adress", "postalcode", "city", "number_of_apartments", "occupied_counter", "created_at", "updated_at",
		}))

	_, err = repo.ListRenters(context.Background(), 99, 1)
	assert.ErrorIs(t, err, ErrBuildingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
