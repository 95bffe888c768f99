// This file covers the contract lifecycle, the workflow that keeps
// apartment statuses and building counters consistent. Actif is the
// only live state; Archivé is terminal. Every transition runs in a
// single transaction and every release of an apartment goes
// through releaseApartmentTx so the side effects can never be
// applied twice for the same contract.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aroschi/gestimmo/internal/model"
)

// ErrContractNotFound indicates that a contract was not located in
// the DB or does not belong to the calling owner.
var ErrContractNotFound = errors.New("contract not found")

// ContractInput carries the writable fields of a contract.
type ContractInput struct {
	RenterID    uint64
	ApartmentID uint64
	RentCents   uint32
	ChargeCents uint32
	Other       string
}

// ContractRepo manages persistence for contracts.
// AllowDoubleOccupancy mirrors the CONTRACT_ALLOW_DOUBLE_OCCUPANCY
// policy toggle: when false (the default), signing a contract on an
// Occupé apartment is rejected.
type ContractRepo struct {
	db                   *sql.DB
	AllowDoubleOccupancy bool
}

// NewContractRepo constructs a ContractRepo with the given DB handle.
func NewContractRepo(db *sql.DB, allowDoubleOccupancy bool) *ContractRepo {
	return &ContractRepo{db: db, AllowDoubleOccupancy: allowDoubleOccupancy}
}

const selectContract = `SELECT id, owner_id, renter_id, apartment_id, rent_cents, charge_cents, COALESCE(other, ''), status, created_at, updated_at
FROM contracts`

func scanContract(row *sql.Row) (*model.Contract, error) {
	var c model.Contract
	err := row.Scan(&c.ID, &c.OwnerID, &c.RenterID, &c.ApartmentID, &c.RentCents,
		&c.ChargeCents, &c.Other, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create signs a new contract. Inside one transaction it verifies
// that the renter exists and is not Inactif, locks the apartment
// row, rejects an already Occupé apartment unless the double
// occupancy policy allows it, inserts the contract, marks the
// apartment Occupé and bumps the building occupied counter.
func (r *ContractRepo) Create(ctx context.Context, ownerID uint64, in ContractInput) (*model.Contract, error) {
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

	var renterStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM renters WHERE id = ? AND owner_id = ?`,
		in.RenterID, ownerID).Scan(&renterStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRenterNotFound
	}
	if err != nil {
		return nil, err
	}
	if renterStatus == model.RenterInactive {
		return nil, fmt.Errorf("%w: renter account is disabled", ErrConflict)
	}

	var (
		building  sql.NullInt64
		aptStatus string
	)
	err = tx.QueryRowContext(ctx, `SELECT building_id, status FROM apartments WHERE id = ? AND owner_id = ? FOR UPDATE`,
		in.ApartmentID, ownerID).Scan(&building, &aptStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrApartmentNotFound
	}
	if err != nil {
		return nil, err
	}
	if aptStatus == model.ApartmentOccupied && !r.AllowDoubleOccupancy {
		return nil, fmt.Errorf("%w: apartment already has an active contract", ErrConflict)
	}

	const q = `INSERT INTO contracts (owner_id, renter_id, apartment_id, rent_cents, charge_cents, other)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, ownerID, in.RenterID, in.ApartmentID, in.RentCents, in.ChargeCents, in.Other)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE apartments SET status = ? WHERE id = ?`,
		model.ApartmentOccupied, in.ApartmentID); err != nil {
		return nil, err
	}
	// Only count the first occupant of the apartment.
	if building.Valid && aptStatus != model.ApartmentOccupied {
		if err := incOccupiedTx(ctx, tx, uint64(building.Int64), ownerID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return scanContract(r.db.QueryRowContext(ctx, selectContract+` WHERE id = ?`, id))
}

// GetByIDAndOwner returns a contract owned by the given owner.
func (r *ContractRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Contract, error) {
	c, err := scanContract(r.db.QueryRowContext(ctx, selectContract+` WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContractNotFound
	}
	return c, err
}

// ListByOwner returns all contracts of an owner ordered by id.
func (r *ContractRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Contract, error) {
	return r.list(ctx, selectContract+` WHERE owner_id = ? ORDER BY id`, ownerID)
}

// ListByRenter returns all contracts held by a renter, for the
// tenant portal.
func (r *ContractRepo) ListByRenter(ctx context.Context, renterID uint64) ([]model.Contract, error) {
	return r.list(ctx, selectContract+` WHERE renter_id = ? ORDER BY id`, renterID)
}

func (r *ContractRepo) list(ctx context.Context, q string, args ...any) ([]model.Contract, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Contract
	for rows.Next() {
		var c model.Contract
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.RenterID, &c.ApartmentID, &c.RentCents,
			&c.ChargeCents, &c.Other, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateByIDAndOwner rewrites the financial terms and the renter of
// a contract. The apartment is immutable: moving a tenancy means
// archiving the contract and signing a new one, otherwise the
// occupancy side effects would detach from their origin.
func (r *ContractRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, in ContractInput) (*model.Contract, error) {
	var currentApartment uint64
	err := r.db.QueryRowContext(ctx, `SELECT apartment_id FROM contracts WHERE id = ? AND owner_id = ?`,
		id, ownerID).Scan(&currentApartment)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContractNotFound
	}
	if err != nil {
		return nil, err
	}
	if in.ApartmentID != 0 && in.ApartmentID != currentApartment {
		return nil, fmt.Errorf("%w: apartment cannot be changed, create a new contract", ErrValidation)
	}
	var exists uint64
	err = r.db.QueryRowContext(ctx, `SELECT id FROM renters WHERE id = ? AND owner_id = ?`,
		in.RenterID, ownerID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRenterNotFound
	}
	if err != nil {
		return nil, err
	}

	const q = `UPDATE contracts SET renter_id = ?, rent_cents = ?, charge_cents = ?, other = ?
		WHERE id = ? AND owner_id = ?`
	if _, err := r.db.ExecContext(ctx, q, in.RenterID, in.RentCents, in.ChargeCents, in.Other, id, ownerID); err != nil {
		return nil, err
	}
	return r.GetByIDAndOwner(ctx, id, ownerID)
}

// ArchiveByIDAndOwner moves a contract to its terminal Archivé
// state and releases the apartment. Archiving twice is a conflict,
// which also guarantees the building counter is decremented exactly
// once per contract.
func (r *ContractRepo) ArchiveByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Contract, error) {
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
		apartmentID uint64
		status      string
	)
	err = tx.QueryRowContext(ctx, `SELECT apartment_id, status FROM contracts WHERE id = ? AND owner_id = ? FOR UPDATE`,
		id, ownerID).Scan(&apartmentID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContractNotFound
	}
	if err != nil {
		return nil, err
	}
	if status == model.ContractArchived {
		return nil, fmt.Errorf("%w: contract is already archived", ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE contracts SET status = ? WHERE id = ?`,
		model.ContractArchived, id); err != nil {
		return nil, err
	}
	if err := releaseApartmentTx(ctx, tx, apartmentID, ownerID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return scanContract(r.db.QueryRowContext(ctx, selectContract+` WHERE id = ?`, id))
}

// DeleteByIDAndOwner removes a contract. A contract that is still
// Actif gets the archive side effects applied first so the
// apartment and counters do not stay stuck on a deleted lease.
func (r *ContractRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
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
		apartmentID uint64
		status      string
	)
	err = tx.QueryRowContext(ctx, `SELECT apartment_id, status FROM contracts WHERE id = ? AND owner_id = ? FOR UPDATE`,
		id, ownerID).Scan(&apartmentID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrContractNotFound
	}
	if err != nil {
		return err
	}

	if status != model.ContractArchived {
		if err := releaseApartmentTx(ctx, tx, apartmentID, ownerID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE entity_kind = 'contract' AND entity_id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM contracts WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// releaseApartmentTx is the single place where an apartment is
// freed after a contract ends: status back to Libre and, when the
// apartment sits in a building, one occupied unit released. Every
// archive, delete and cascade path funnels through here.
func releaseApartmentTx(ctx context.Context, tx *sql.Tx, apartmentID, ownerID uint64) error {
	var building sql.NullInt64
	err := tx.QueryRowContext(ctx, `SELECT building_id FROM apartments WHERE id = ? AND owner_id = ? FOR UPDATE`,
		apartmentID, ownerID).Scan(&building)
	if errors.Is(err, sql.ErrNoRows) {
		// Apartment already gone; nothing to release.
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE apartments SET status = ? WHERE id = ?`,
		model.ApartmentFree, apartmentID); err != nil {
		return err
	}
	if building.Valid {
		return decOccupiedTx(ctx, tx, uint64(building.Int64), ownerID)
	}
	return nil
}
