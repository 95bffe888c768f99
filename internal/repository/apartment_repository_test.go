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

func apartmentRows(id, ownerID uint64, buildingID any, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "size", "adress", "postalcode", "city", "building_id", "status", "created_at", "updated_at",
	}).AddRow(id, ownerID, 62, "", 0, "", buildingID, status, now, now)
}

func TestValidatePlacement(t *testing.T) {
	bid := uint64(3)

	assert.NoError(t, validatePlacement(&bid, ""))
	assert.NoError(t, validatePlacement(nil, "12 rue des Lilas"))
	assert.ErrorIs(t, validatePlacement(&bid, "12 rue des Lilas"), ErrValidation)
	assert.ErrorIs(t, validatePlacement(nil, ""), ErrValidation)
}

func TestSameBuilding(t *testing.T) {
	a, b := uint64(1), uint64(2)

	assert.True(t, sameBuilding(nil, nil))
	assert.True(t, sameBuilding(&a, &a))
	assert.False(t, sameBuilding(&a, &b))
	assert.False(t, sameBuilding(&a, nil))
	assert.False(t, sameBuilding(nil, &b))
}

func TestApartmentCreateLinkedCountsTowardsBuilding(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewApartmentRepo(db)
	bid := uint64(3)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM buildings").
		WithArgs(uint64(3), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(3)))
	mock.ExpectExec("INSERT INTO apartments").
		WithArgs(uint64(1), uint32(62), uint64(3)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	// New apartments are Libre, so only number_of_apartments moves.
	mock.ExpectExec("UPDATE buildings SET number_of_apartments = number_of_apartments \\+ 1").
		WithArgs(0, uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, owner_id, size, adress").
		WithArgs(int64(7)).
		WillReturnRows(apartmentRows(7, 1, int64(3), model.ApartmentFree))

	a, err := repo.Create(context.Background(), 1, ApartmentInput{Size: 62, BuildingID: &bid})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), a.ID)
	assert.Equal(t, model.ApartmentFree, a.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApartmentCreateUnknownBuilding(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewApartmentRepo(db)
	bid := uint64(99)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM buildings").
		WithArgs(uint64(99), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err = repo.Create(context.Background(), 1, ApartmentInput{Size: 40, BuildingID: &bid})
	assert.ErrorIs(t, err, ErrBuildingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApartmentRelinkMovesOccupiedContribution(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewApartmentRepo(db)
	newBID := uint64(4)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT building_id, status FROM apartments").
		WithArgs(uint64(7), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"building_id", "status"}).AddRow(int64(3), model.ApartmentOccupied))
	mock.ExpectQuery("SELECT id FROM buildings").
		WithArgs(uint64(4), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint64(4)))
	// Occupied apartment: both counters leave the old building...
	mock.ExpectExec("UPDATE buildings SET number_of_apartments = GREATEST").
		WithArgs(1, uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// ...and both arrive at the new one.
	mock.ExpectExec("UPDATE buildings SET number_of_apartments = number_of_apartments \\+ 1").
		WithArgs(1, uint64(4), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE apartments SET size = \\?, adress = ''").
		WithArgs(uint32(62), uint64(4), uint64(7), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, owner_id, size, adress").
		WithArgs(uint64(7)).
		WillReturnRows(apartmentRows(7, 1, int64(4), model.ApartmentOccupied))

	a, err := repo.UpdateByIDAndOwner(context.Background(), 7, 1, ApartmentInput{Size: 62, BuildingID: &newBID})
	require.NoError(t, err)
	require.NotNil(t, a.BuildingID)
	assert.Equal(t, uint64(4), *a.BuildingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApartmentUpdateUnknownBuildingNeedsAddress(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewApartmentRepo(db)
	ghost := uint64(99)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT building_id, status FROM apartments").
		WithArgs(uint64(7), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"building_id", "status"}).AddRow(int64(3), model.ApartmentFree))
	mock.ExpectQuery("SELECT id FROM buildings").
		WithArgs(uint64(99), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	// Unknown building degrades to nil, and with no address the
	// placement rule fires.
	_, err = repo.UpdateByIDAndOwner(context.Background(), 7, 1, ApartmentInput{Size: 62, BuildingID: &ghost})
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApartmentDeleteReleasesContribution(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewApartmentRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT building_id, status FROM apartments").
		WithArgs(uint64(7), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"building_id", "status"}).AddRow(int64(3), model.ApartmentOccupied))
	mock.ExpectExec("UPDATE buildings SET number_of_apartments = GREATEST").
		WithArgs(1, uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM files WHERE entity_kind = 'contract'").
		WithArgs(uint64(7), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM contracts WHERE apartment_id").
		WithArgs(uint64(7), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM files WHERE entity_kind = 'apartment'").
		WithArgs(uint64(7), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM apartments WHERE id").
		WithArgs(uint64(7), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteByIDAndOwner(context.Background(), 7, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}
