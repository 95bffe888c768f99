// This file covers apartments and the building linkage rules. An
// apartment is either linked to a building or carries its own
// address, never both. Linking and unlinking move the apartment's
// contribution between building counters inside the same
// transaction as the apartment write, and the contribution is
// always computed from the status persisted in the DB, not from
// anything the caller sent.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aroschi/gestimmo/internal/model"
)

// ErrApartmentNotFound indicates that an apartment was not located
// in the DB or does not belong to the calling owner.
var ErrApartmentNotFound = errors.New("apartment not found")

// ApartmentInput carries the writable fields of an apartment.
// BuildingID and the address triple are mutually exclusive.
type ApartmentInput struct {
	Size       uint32
	Adress     string
	Postalcode int
	City       string
	BuildingID *uint64
}

// ApartmentRepo manages persistence for apartments.
type ApartmentRepo struct {
	db *sql.DB
}

// NewApartmentRepo constructs an ApartmentRepo with the given DB handle.
func NewApartmentRepo(db *sql.DB) *ApartmentRepo {
	return &ApartmentRepo{db: db}
}

const selectApartment = `SELECT id, owner_id, size, adress, postalcode, city, building_id, status, created_at, updated_at
FROM apartments`

func scanApartment(row *sql.Row) (*model.Apartment, error) {
	var a model.Apartment
	err := row.Scan(&a.ID, &a.OwnerID, &a.Size, &a.Adress, &a.Postalcode, &a.City,
		&a.BuildingID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// validatePlacement enforces the building-or-address rule shared by
// create and update.
func validatePlacement(buildingID *uint64, adress string) error {
	if buildingID != nil && adress != "" {
		return fmt.Errorf("%w: apartment cannot have both a building and its own address", ErrValidation)
	}
	if buildingID == nil && adress == "" {
		return fmt.Errorf("%w: apartment needs either a building or an address", ErrValidation)
	}
	return nil
}

// Create inserts a new apartment. With a building reference the
// building must exist and belong to the owner, and its apartment
// count is incremented in the same transaction. New apartments are
// Libre via the column default, so the occupied counter is never
// touched here.
func (r *ApartmentRepo) Create(ctx context.Context, ownerID uint64, in ApartmentInput) (*model.Apartment, error) {
	if err := validatePlacement(in.BuildingID, in.Adress); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var id int64
	if in.BuildingID != nil {
		var found uint64
		err := tx.QueryRowContext(ctx, `SELECT id FROM buildings WHERE id = ? AND owner_id = ? FOR UPDATE`,
			*in.BuildingID, ownerID).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBuildingNotFound
		}
		if err != nil {
			return nil, err
		}
		const q = `INSERT INTO apartments (owner_id, size, building_id) VALUES (?, ?, ?)`
		res, err := tx.ExecContext(ctx, q, ownerID, in.Size, *in.BuildingID)
		if err != nil {
			return nil, err
		}
		if id, err = res.LastInsertId(); err != nil {
			return nil, err
		}
		if err := addContributionTx(ctx, tx, *in.BuildingID, ownerID, false); err != nil {
			return nil, err
		}
	} else {
		const q = `INSERT INTO apartments (owner_id, size, adress, postalcode, city) VALUES (?, ?, ?, ?, ?)`
		res, err := tx.ExecContext(ctx, q, ownerID, in.Size, in.Adress, in.Postalcode, in.City)
		if err != nil {
			return nil, err
		}
		if id, err = res.LastInsertId(); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return scanApartment(r.db.QueryRowContext(ctx, selectApartment+` WHERE id = ?`, id))
}

// GetByIDAndOwner returns an apartment owned by the given owner.
func (r *ApartmentRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Apartment, error) {
	a, err := scanApartment(r.db.QueryRowContext(ctx, selectApartment+` WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrApartmentNotFound
	}
	return a, err
}

// ListByOwner returns all apartments of an owner ordered by id.
func (r *ApartmentRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Apartment, error) {
	return r.list(ctx, selectApartment+` WHERE owner_id = ? ORDER BY id`, ownerID)
}

// ListFree returns every Libre apartment across all owners. Used by
// the public browse endpoints.
func (r *ApartmentRepo) ListFree(ctx context.Context) ([]model.Apartment, error) {
	return r.list(ctx, selectApartment+` WHERE status = ? ORDER BY id`, model.ApartmentFree)
}

// GetFree returns a Libre apartment by id, for the public detail
// endpoint. Occupied apartments are reported as missing so the
// public surface never leaks tenancy information.
func (r *ApartmentRepo) GetFree(ctx context.Context, id uint64) (*model.Apartment, error) {
	a, err := scanApartment(r.db.QueryRowContext(ctx, selectApartment+` WHERE id = ? AND status = ?`, id, model.ApartmentFree))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrApartmentNotFound
	}
	return a, err
}

func (r *ApartmentRepo) list(ctx context.Context, q string, args ...any) ([]model.Apartment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Apartment
	for rows.Next() {
		var a model.Apartment
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Size, &a.Adress, &a.Postalcode, &a.City,
			&a.BuildingID, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateByIDAndOwner rewrites the apartment's size and placement.
// When the building link changes, the apartment's contribution is
// moved from the old building to the new one based on the status
// currently persisted: an Occupé apartment moves its occupied unit
// along with it. A building id that does not resolve to one of the
// owner's buildings is treated as no building, so the caller must
// then supply an address.
func (r *ApartmentRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, in ApartmentInput) (*model.Apartment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		oldBuilding sql.NullInt64
		status      string
	)
	err = tx.QueryRowContext(ctx, `SELECT building_id, status FROM apartments WHERE id = ? AND owner_id = ? FOR UPDATE`,
		id, ownerID).Scan(&oldBuilding, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrApartmentNotFound
	}
	if err != nil {
		return nil, err
	}

	// Resolve the requested building; ids that do not belong to the
	// owner degrade to "no building".
	var newBuilding *uint64
	if in.BuildingID != nil {
		var found uint64
		err := tx.QueryRowContext(ctx, `SELECT id FROM buildings WHERE id = ? AND owner_id = ? FOR UPDATE`,
			*in.BuildingID, ownerID).Scan(&found)
		switch {
		case err == nil:
			newBuilding = &found
		case errors.Is(err, sql.ErrNoRows):
			// fall through with newBuilding nil
		default:
			return nil, err
		}
	}
	if err := validatePlacement(newBuilding, in.Adress); err != nil {
		return nil, err
	}

	occupied := status == model.ApartmentOccupied
	var oldID *uint64
	if oldBuilding.Valid {
		v := uint64(oldBuilding.Int64)
		oldID = &v
	}
	if !sameBuilding(oldID, newBuilding) {
		if oldID != nil {
			if err := removeContributionTx(ctx, tx, *oldID, ownerID, occupied); err != nil {
				return nil, err
			}
		}
		if newBuilding != nil {
			if err := addContributionTx(ctx, tx, *newBuilding, ownerID, occupied); err != nil {
				return nil, err
			}
		}
	}

	if newBuilding != nil {
		const q = `UPDATE apartments SET size = ?, adress = '', postalcode = 0, city = '', building_id = ?
			WHERE id = ? AND owner_id = ?`
		if _, err := tx.ExecContext(ctx, q, in.Size, *newBuilding, id, ownerID); err != nil {
			return nil, err
		}
	} else {
		const q = `UPDATE apartments SET size = ?, adress = ?, postalcode = ?, city = ?, building_id = NULL
			WHERE id = ? AND owner_id = ?`
		if _, err := tx.ExecContext(ctx, q, in.Size, in.Adress, in.Postalcode, in.City, id, ownerID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return scanApartment(r.db.QueryRowContext(ctx, selectApartment+` WHERE id = ?`, id))
}

func sameBuilding(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// DeleteByIDAndOwner removes an apartment in one transaction:
// the building loses the apartment's contribution, contracts
// referencing the apartment are deleted along with their file
// references, then the apartment's own file references and row.
func (r *ApartmentRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
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

	var (
		building sql.NullInt64
		status   string
	)
	err = tx.QueryRowContext(ctx, `SELECT building_id, status FROM apartments WHERE id = ? AND owner_id = ? FOR UPDATE`,
		id, ownerID).Scan(&building, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrApartmentNotFound
	}
	if err != nil {
		return err
	}

	if building.Valid {
		occupied := status == model.ApartmentOccupied
		if err := removeContributionTx(ctx, tx, uint64(building.Int64), ownerID, occupied); err != nil {
			return err
		}
	}

	const delContractFiles = `DELETE FROM files WHERE entity_kind = 'contract' AND entity_id IN
		(SELECT id FROM contracts WHERE apartment_id = ? AND owner_id = ?)`
	if _, err := tx.ExecContext(ctx, delContractFiles, id, ownerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM contracts WHERE apartment_id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE entity_kind = 'apartment' AND entity_id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM apartments WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
