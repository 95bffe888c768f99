// Package repository contains data access logic for the domain
// entities. This file covers buildings and their occupancy
// counters. The counters are derived data: number_of_apartments
// tracks how many apartments are linked to the building and
// occupied_counter how many of those are Occupé. Both are only
// mutated through the helpers below, always inside the same
// transaction as the apartment or contract write that justifies
// the change.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aroschi/gestimmo/internal/model"
)

// ErrBuildingNotFound indicates that a building was not located in the DB
// or does not belong to the calling owner.
var ErrBuildingNotFound = errors.New("building not found")

// BuildingRepo manages persistence for buildings.
type BuildingRepo struct {
	db *sql.DB
}

// NewBuildingRepo constructs a BuildingRepo with the given DB handle.
func NewBuildingRepo(db *sql.DB) *BuildingRepo {
	return &BuildingRepo{db: db}
}

// DB exposes the underlying sql.DB. It allows callers to begin
// transactions spanning multiple repositories.
func (r *BuildingRepo) DB() *sql.DB {
	return r.db
}

const selectBuilding = `SELECT id, owner_id, adress, postalcode, city, number_of_apartments, occupied_counter, created_at, updated_at
FROM buildings`

func scanBuilding(row *sql.Row) (*model.Building, error) {
	var b model.Building
	err := row.Scan(&b.ID, &b.OwnerID, &b.Adress, &b.Postalcode, &b.City,
		&b.NumberOfApartments, &b.OccupiedCounter, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a new building for the owner. Counters start at
// zero via column defaults. On success the generated ID and
// DB-default fields are populated by re-reading the row.
func (r *BuildingRepo) Create(ctx context.Context, ownerID uint64, adress string, postalcode int, city string) (*model.Building, error) {
	const q = `INSERT INTO buildings (owner_id, adress, postalcode, city) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, ownerID, adress, postalcode, city)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return scanBuilding(r.db.QueryRowContext(ctx, selectBuilding+` WHERE id = ?`, id))
}

// GetByIDAndOwner returns a building owned by the given owner.
func (r *BuildingRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Building, error) {
	b, err := scanBuilding(r.db.QueryRowContext(ctx, selectBuilding+` WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBuildingNotFound
	}
	return b, err
}

// ListByOwner returns all buildings of an owner ordered by id.
func (r *BuildingRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Building, error) {
	rows, err := r.db.QueryContext(ctx, selectBuilding+` WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Building
	for rows.Next() {
		var b model.Building
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Adress, &b.Postalcode, &b.City,
			&b.NumberOfApartments, &b.OccupiedCounter, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateByIDAndOwner updates the address fields of a building. The
// counters are never writable through this method.
func (r *BuildingRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, adress string, postalcode int, city string) (*model.Building, error) {
	const q = `UPDATE buildings SET adress = ?, postalcode = ?, city = ? WHERE id = ? AND owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, adress, postalcode, city, id, ownerID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either missing or unchanged; distinguish by probing the row.
		if _, err := r.GetByIDAndOwner(ctx, id, ownerID); err != nil {
			return nil, err
		}
	}
	return r.GetByIDAndOwner(ctx, id, ownerID)
}

// DeleteByIDAndOwner removes a building and everything under it in
// one transaction: contracts referencing its apartments, the file
// references of those contracts and apartments, the apartments
// themselves, and finally the building row. Active contracts do
// not block the deletion.
func (r *BuildingRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var found uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM buildings WHERE id = ? AND owner_id = ? FOR UPDATE`, id, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBuildingNotFound
	}
	if err != nil {
		return err
	}

	const delContractFiles = `DELETE FROM files WHERE entity_kind = 'contract' AND entity_id IN
		(SELECT c.id FROM contracts c JOIN apartments a ON a.id = c.apartment_id WHERE a.building_id = ?)`
	if _, err := tx.ExecContext(ctx, delContractFiles, id); err != nil {
		return err
	}
	const delContracts = `DELETE FROM contracts WHERE apartment_id IN
		(SELECT id FROM apartments WHERE building_id = ?)`
	if _, err := tx.ExecContext(ctx, delContracts, id); err != nil {
		return err
	}
	const delApartmentFiles = `DELETE FROM files WHERE entity_kind = 'apartment' AND entity_id IN
		(SELECT id FROM apartments WHERE building_id = ?)`
	if _, err := tx.ExecContext(ctx, delApartmentFiles, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM apartments WHERE building_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM buildings WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListRenters returns the renters currently holding a non-archived
// contract in one of the building's apartments.
func (r *BuildingRepo) ListRenters(ctx context.Context, id, ownerID uint64) ([]model.Renter, error) {
	if _, err := r.GetByIDAndOwner(ctx, id, ownerID); err != nil {
		return nil, err
	}
	const q = `SELECT DISTINCT r.id, r.owner_id, r.name, r.lastname, r.email, r.status, r.created_at, r.updated_at
		FROM renters r
		JOIN contracts c ON c.renter_id = r.id AND c.status <> ?
		JOIN apartments a ON a.id = c.apartment_id
		WHERE a.building_id = ? AND a.owner_id = ?
		ORDER BY r.id`
	rows, err := r.db.QueryContext(ctx, q, model.ContractArchived, id, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Renter
	for rows.Next() {
		var t model.Renter
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Lastname, &t.Email, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// addContributionTx registers one more apartment on a building and,
// when the apartment is Occupé, one more occupied unit. Used when
// an apartment is created in or relinked to a building.
func addContributionTx(ctx context.Context, tx *sql.Tx, buildingID, ownerID uint64, occupied bool) error {
	occ := 0
	if occupied {
		occ = 1
	}
	const q = `UPDATE buildings SET number_of_apartments = number_of_apartments + 1,
		occupied_counter = occupied_counter + ? WHERE id = ? AND owner_id = ?`
	_, err := tx.ExecContext(ctx, q, occ, buildingID, ownerID)
	return err
}

// removeContributionTx is the inverse of addContributionTx. Both
// counters clamp at zero so a stray double removal can never drive
// them negative.
func removeContributionTx(ctx context.Context, tx *sql.Tx, buildingID, ownerID uint64, occupied bool) error {
	occ := 0
	if occupied {
		occ = 1
	}
	const q = `UPDATE buildings SET number_of_apartments = GREATEST(number_of_apartments - 1, 0),
		occupied_counter = GREATEST(occupied_counter - ?, 0) WHERE id = ? AND owner_id = ?`
	_, err := tx.ExecContext(ctx, q, occ, buildingID, ownerID)
	return err
}

// incOccupiedTx bumps only the occupied counter. Used when a
// contract is signed on an apartment already linked to a building.
func incOccupiedTx(ctx context.Context, tx *sql.Tx, buildingID, ownerID uint64) error {
	const q = `UPDATE buildings SET occupied_counter = occupied_counter + 1 WHERE id = ? AND owner_id = ?`
	_, err := tx.ExecContext(ctx, q, buildingID, ownerID)
	return err
}

// decOccupiedTx releases one occupied unit, clamping at zero.
func decOccupiedTx(ctx context.Context, tx *sql.Tx, buildingID, ownerID uint64) error {
	const q = `UPDATE buildings SET occupied_counter = GREATEST(occupied_counter - 1, 0) WHERE id = ? AND owner_id = ?`
	_, err := tx.ExecContext(ctx, q, buildingID, ownerID)
	return err
}
