// This file covers bills and their append-only status ledger.
// Every create and update of a bill writes one
// bill_status_history row in the same transaction, so the ledger
// is a faithful record of every status the bill ever carried.
// Ledger rows are never updated and leave the database only
// together with their bill.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aroschi/gestimmo/internal/model"
)

// ErrBillNotFound indicates that a bill was not located in the DB
// or does not belong to the calling owner.
var ErrBillNotFound = errors.New("bill not found")

// BillInput carries the writable fields of a bill.
type BillInput struct {
	RenterID    uint64
	StatusID    uint64
	Reference   *string
	EndDate     time.Time
	AmountCents uint32
	Reason      string
}

// BillRepo manages persistence for bills.
type BillRepo struct {
	db *sql.DB
}

// NewBillRepo constructs a BillRepo with the given DB handle.
func NewBillRepo(db *sql.DB) *BillRepo {
	return &BillRepo{db: db}
}

const selectBill = `SELECT id, owner_id, renter_id, status_id, reference, end_date, amount_cents, reason, created_at, updated_at
FROM bills`

func scanBill(row *sql.Row) (*model.Bill, error) {
	var b model.Bill
	err := row.Scan(&b.ID, &b.OwnerID, &b.RenterID, &b.StatusID, &b.Reference,
		&b.EndDate, &b.AmountCents, &b.Reason, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// checkBillRefsTx verifies that the renter and status referenced by
// a bill write exist and belong to the owner.
func checkBillRefsTx(ctx context.Context, tx *sql.Tx, ownerID, renterID, statusID uint64) error {
	var found uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM renters WHERE id = ? AND owner_id = ?`, renterID, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRenterNotFound
	}
	if err != nil {
		return err
	}
	err = tx.QueryRowContext(ctx, `SELECT id FROM statuses WHERE id = ? AND owner_id = ?`, statusID, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStatusNotFound
	}
	return err
}

// appendBillHistoryTx writes one ledger row for a bill.
func appendBillHistoryTx(ctx context.Context, tx *sql.Tx, ownerID, billID, statusID uint64, endDate time.Time) error {
	const q = `INSERT INTO bill_status_history (owner_id, bill_id, status_id, end_date) VALUES (?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, ownerID, billID, statusID, endDate)
	return err
}

// Create inserts a bill and its first ledger row in one transaction.
func (r *BillRepo) Create(ctx context.Context, ownerID uint64, in BillInput) (*model.Bill, error) {
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

	if err := checkBillRefsTx(ctx, tx, ownerID, in.RenterID, in.StatusID); err != nil {
		return nil, err
	}
	const q = `INSERT INTO bills (owner_id, renter_id, status_id, reference, end_date, amount_cents, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, ownerID, in.RenterID, in.StatusID, in.Reference, in.EndDate, in.AmountCents, in.Reason)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := appendBillHistoryTx(ctx, tx, ownerID, uint64(id), in.StatusID, in.EndDate); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return scanBill(r.db.QueryRowContext(ctx, selectBill+` WHERE id = ?`, id))
}

// GetByIDAndOwner returns a bill owned by the given owner.
func (r *BillRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Bill, error) {
	b, err := scanBill(r.db.QueryRowContext(ctx, selectBill+` WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBillNotFound
	}
	return b, err
}

// ListByOwner returns all bills of an owner ordered by id.
func (r *BillRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Bill, error) {
	return r.list(ctx, selectBill+` WHERE owner_id = ? ORDER BY id`, ownerID)
}

// ListByRenter returns all bills addressed to a renter, for the
// tenant portal.
func (r *BillRepo) ListByRenter(ctx context.Context, renterID uint64) ([]model.Bill, error) {
	return r.list(ctx, selectBill+` WHERE renter_id = ? ORDER BY id`, renterID)
}

func (r *BillRepo) list(ctx context.Context, q string, args ...any) ([]model.Bill, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Bill
	for rows.Next() {
		var b model.Bill
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.RenterID, &b.StatusID, &b.Reference,
			&b.EndDate, &b.AmountCents, &b.Reason, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// History returns the ledger of a bill, oldest first.
func (r *BillRepo) History(ctx context.Context, billID, ownerID uint64) ([]model.BillStatusHistory, error) {
	if _, err := r.GetByIDAndOwner(ctx, billID, ownerID); err != nil {
		return nil, err
	}
	const q = `SELECT id, owner_id, bill_id, status_id, end_date, created_at
		FROM bill_status_history WHERE bill_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BillStatusHistory
	for rows.Next() {
		var h model.BillStatusHistory
		if err := rows.Scan(&h.ID, &h.OwnerID, &h.BillID, &h.StatusID, &h.EndDate, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// UpdateByIDAndOwner rewrites a bill and appends a ledger row with
// the new values, both in one transaction.
func (r *BillRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, in BillInput) (*model.Bill, error) {
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

	var found uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM bills WHERE id = ? AND owner_id = ? FOR UPDATE`, id, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := checkBillRefsTx(ctx, tx, ownerID, in.RenterID, in.StatusID); err != nil {
		return nil, err
	}

	const q = `UPDATE bills SET renter_id = ?, status_id = ?, reference = ?, end_date = ?, amount_cents = ?, reason = ?
		WHERE id = ? AND owner_id = ?`
	if _, err := tx.ExecContext(ctx, q, in.RenterID, in.StatusID, in.Reference, in.EndDate, in.AmountCents, in.Reason, id, ownerID); err != nil {
		return nil, err
	}
	if err := appendBillHistoryTx(ctx, tx, ownerID, id, in.StatusID, in.EndDate); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return scanBill(r.db.QueryRowContext(ctx, selectBill+` WHERE id = ?`, id))
}

// DeleteByIDAndOwner removes a bill, its ledger rows and its file
// references in one transaction.
func (r *BillRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
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
	err = tx.QueryRowContext(ctx, `SELECT id FROM bills WHERE id = ? AND owner_id = ? FOR UPDATE`, id, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBillNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bill_status_history WHERE bill_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE entity_kind = 'bill' AND entity_id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bills WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
