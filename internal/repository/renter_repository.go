// This file covers renters (tenants). A renter is created by an
// owner, may log in to the tenant portal, and can only be
// deactivated once no active contract references them. Deleting a
// renter is the widest cascade in the system and runs as a single
// transaction.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aroschi/gestimmo/internal/model"
)

// ErrRenterNotFound indicates that a renter was not located in the
// DB or does not belong to the calling owner.
var ErrRenterNotFound = errors.New("renter not found")

// RenterInput carries the writable profile fields of a renter.
type RenterInput struct {
	Name        string
	Lastname    string
	Email       string
	DateOfBirth *time.Time
	Status      string
}

// RenterRepo manages persistence for renters.
type RenterRepo struct {
	db *sql.DB
}

// NewRenterRepo constructs a RenterRepo with the given DB handle.
func NewRenterRepo(db *sql.DB) *RenterRepo {
	return &RenterRepo{db: db}
}

const selectRenter = `SELECT id, owner_id, name, lastname, email, password_hash, date_of_birth, status, created_at, updated_at
FROM renters`

func scanRenter(row *sql.Row) (*model.Renter, error) {
	var t model.Renter
	err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Lastname, &t.Email, &t.PasswordHash,
		&t.DateOfBirth, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new renter with an already hashed password. The
// account starts Actif via the column default. Duplicate emails
// surface as ErrEmailExists.
func (r *RenterRepo) Create(ctx context.Context, ownerID uint64, in RenterInput, passwordHash string) (*model.Renter, error) {
	const q = `INSERT INTO renters (owner_id, name, lastname, email, password_hash, date_of_birth) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, ownerID, in.Name, in.Lastname, in.Email, passwordHash, in.DateOfBirth)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return scanRenter(r.db.QueryRowContext(ctx, selectRenter+` WHERE id = ?`, id))
}

// GetByIDAndOwner returns a renter owned by the given owner.
func (r *RenterRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Renter, error) {
	t, err := scanRenter(r.db.QueryRowContext(ctx, selectRenter+` WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRenterNotFound
	}
	return t, err
}

// GetByID returns a renter by id, used for renter sessions where no
// owner scope applies.
func (r *RenterRepo) GetByID(ctx context.Context, id uint64) (*model.Renter, error) {
	t, err := scanRenter(r.db.QueryRowContext(ctx, selectRenter+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRenterNotFound
	}
	return t, err
}

// GetByEmail returns a renter by login email.
func (r *RenterRepo) GetByEmail(ctx context.Context, email string) (*model.Renter, error) {
	t, err := scanRenter(r.db.QueryRowContext(ctx, selectRenter+` WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRenterNotFound
	}
	return t, err
}

// ListByOwner returns all renters of an owner ordered by id.
func (r *RenterRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Renter, error) {
	rows, err := r.db.QueryContext(ctx, selectRenter+` WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Renter
	for rows.Next() {
		var t model.Renter
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Lastname, &t.Email, &t.PasswordHash,
			&t.DateOfBirth, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateByIDAndOwner rewrites a renter's profile. Deactivating the
// account (status Inactif) is refused while any Actif contract
// still references the renter, otherwise the tenancy bookkeeping
// would point at a dead account.
func (r *RenterRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, in RenterInput) (*model.Renter, error) {
	if in.Status != model.RenterActive && in.Status != model.RenterInactive {
		return nil, fmt.Errorf("%w: status must be %s or %s", ErrValidation, model.RenterActive, model.RenterInactive)
	}
	if _, err := r.GetByIDAndOwner(ctx, id, ownerID); err != nil {
		return nil, err
	}
	if in.Status == model.RenterInactive {
		var active int
		err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts WHERE renter_id = ? AND status = ?`,
			id, model.ContractActive).Scan(&active)
		if err != nil {
			return nil, err
		}
		if active > 0 {
			return nil, fmt.Errorf("%w: renter still has %d active contract(s)", ErrConflict, active)
		}
	}

	const q = `UPDATE renters SET name = ?, lastname = ?, email = ?, date_of_birth = ?, status = ? WHERE id = ? AND owner_id = ?`
	if _, err := r.db.ExecContext(ctx, q, in.Name, in.Lastname, in.Email, in.DateOfBirth, in.Status, id, ownerID); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return r.GetByIDAndOwner(ctx, id, ownerID)
}

// UpdatePassword replaces the stored password hash.
func (r *RenterRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE renters SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRenterNotFound
	}
	return nil
}

// DeleteByIDAndOwner removes a renter and everything hanging off
// them in one transaction, in dependency order: bill history rows,
// bill file references, bills, then for every still-active contract
// the apartment is freed and its building counter released, then
// contract file references, contracts, the renter's own file
// references, their refresh tokens, and finally the renter row.
func (r *RenterRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
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
	err = tx.QueryRowContext(ctx, `SELECT id FROM renters WHERE id = ? AND owner_id = ? FOR UPDATE`, id, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRenterNotFound
	}
	if err != nil {
		return err
	}

	const delBillHistory = `DELETE FROM bill_status_history WHERE bill_id IN
		(SELECT id FROM bills WHERE renter_id = ? AND owner_id = ?)`
	if _, err := tx.ExecContext(ctx, delBillHistory, id, ownerID); err != nil {
		return err
	}
	const delBillFiles = `DELETE FROM files WHERE entity_kind = 'bill' AND entity_id IN
		(SELECT id FROM bills WHERE renter_id = ? AND owner_id = ?)`
	if _, err := tx.ExecContext(ctx, delBillFiles, id, ownerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bills WHERE renter_id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}

	// Free the apartments under the renter's live leases. Archived
	// contracts already released theirs.
	rows, err := tx.QueryContext(ctx, `SELECT apartment_id FROM contracts WHERE renter_id = ? AND owner_id = ? AND status = ?`,
		id, ownerID, model.ContractActive)
	if err != nil {
		return err
	}
	var apartmentIDs []uint64
	for rows.Next() {
		var aid uint64
		if err := rows.Scan(&aid); err != nil {
			rows.Close()
			return err
		}
		apartmentIDs = append(apartmentIDs, aid)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()
	for _, aid := range apartmentIDs {
		if err := releaseApartmentTx(ctx, tx, aid, ownerID); err != nil {
			return err
		}
	}

	const delContractFiles = `DELETE FROM files WHERE entity_kind = 'contract' AND entity_id IN
		(SELECT id FROM contracts WHERE renter_id = ? AND owner_id = ?)`
	if _, err := tx.ExecContext(ctx, delContractFiles, id, ownerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM contracts WHERE renter_id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE entity_kind = 'renter' AND entity_id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_kind = 'renter' AND user_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM renters WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
