// This file covers repairs and their append-only status ledger.
// The task link is mandatory and validated on every write.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aroschi/gestimmo/internal/model"
)

// ErrRepairNotFound indicates that a repair was not located in the
// DB or does not belong to the calling owner.
var ErrRepairNotFound = errors.New("repair not found")

// RepairInput carries the writable fields of a repair.
type RepairInput struct {
	TaskID      uint64
	StatusID    uint64
	AmountCents uint32
	Reason      string
}

// RepairRepo manages persistence for repairs.
type RepairRepo struct {
	db *sql.DB
}

// NewRepairRepo constructs a RepairRepo with the given DB handle.
func NewRepairRepo(db *sql.DB) *RepairRepo {
	return &RepairRepo{db: db}
}

const selectRepair = `SELECT id, owner_id, task_id, status_id, amount_cents, reason, created_at, updated_at
FROM repairs`

func scanRepair(row *sql.Row) (*model.Repair, error) {
	var p model.Repair
	err := row.Scan(&p.ID, &p.OwnerID, &p.TaskID, &p.StatusID, &p.AmountCents, &p.Reason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func checkRepairRefsTx(ctx context.Context, tx *sql.Tx, ownerID, taskID, statusID uint64) error {
	var found uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM tasks WHERE id = ? AND owner_id = ?`, taskID, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTaskNotFound
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

func appendRepairHistoryTx(ctx context.Context, tx *sql.Tx, ownerID, repairID uint64, in RepairInput) error {
	const q = `INSERT INTO repair_status_history (owner_id, repair_id, status_id, amount_cents, reason) VALUES (?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, ownerID, repairID, in.StatusID, in.AmountCents, in.Reason)
	return err
}

// Create inserts a repair and its first ledger row in one transaction.
func (r *RepairRepo) Create(ctx context.Context, ownerID uint64, in RepairInput) (*model.Repair, error) {
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

	if err := checkRepairRefsTx(ctx, tx, ownerID, in.TaskID, in.StatusID); err != nil {
		return nil, err
	}
	const q = `INSERT INTO repairs (owner_id, task_id, status_id, amount_cents, reason) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, ownerID, in.TaskID, in.StatusID, in.AmountCents, in.Reason)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := appendRepairHistoryTx(ctx, tx, ownerID, uint64(id), in); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return scanRepair(r.db.QueryRowContext(ctx, selectRepair+` WHERE id = ?`, id))
}

// GetByIDAndOwner returns a repair owned by the given owner.
func (r *RepairRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Repair, error) {
	p, err := scanRepair(r.db.QueryRowContext(ctx, selectRepair+` WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRepairNotFound
	}
	return p, err
}

// ListByOwner returns all repairs of an owner ordered by id.
func (r *RepairRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Repair, error) {
	rows, err := r.db.QueryContext(ctx, selectRepair+` WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Repair
	for rows.Next() {
		var p model.Repair
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.TaskID, &p.StatusID, &p.AmountCents, &p.Reason, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// History returns the ledger of a repair, oldest first.
func (r *RepairRepo) History(ctx context.Context, repairID, ownerID uint64) ([]model.RepairStatusHistory, error) {
	if _, err := r.GetByIDAndOwner(ctx, repairID, ownerID); err != nil {
		return nil, err
	}
	const q = `SELECT id, owner_id, repair_id, status_id, amount_cents, reason, created_at
		FROM repair_status_history WHERE repair_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, repairID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RepairStatusHistory
	for rows.Next() {
		var h model.RepairStatusHistory
		if err := rows.Scan(&h.ID, &h.OwnerID, &h.RepairID, &h.StatusID, &h.AmountCents, &h.Reason, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// UpdateByIDAndOwner rewrites a repair and appends a ledger row
// with the new values, both in one transaction.
func (r *RepairRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, in RepairInput) (*model.Repair, error) {
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
	err = tx.QueryRowContext(ctx, `SELECT id FROM repairs WHERE id = ? AND owner_id = ? FOR UPDATE`, id, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRepairNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := checkRepairRefsTx(ctx, tx, ownerID, in.TaskID, in.StatusID); err != nil {
		return nil, err
	}

	const q = `UPDATE repairs SET task_id = ?, status_id = ?, amount_cents = ?, reason = ? WHERE id = ? AND owner_id = ?`
	if _, err := tx.ExecContext(ctx, q, in.TaskID, in.StatusID, in.AmountCents, in.Reason, id, ownerID); err != nil {
		return nil, err
	}
	if err := appendRepairHistoryTx(ctx, tx, ownerID, id, in); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return scanRepair(r.db.QueryRowContext(ctx, selectRepair+` WHERE id = ?`, id))
}

// DeleteByIDAndOwner removes a repair, its ledger rows and its
// file references in one transaction.
func (r *RepairRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
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
	err = tx.QueryRowContext(ctx, `SELECT id FROM repairs WHERE id = ? AND owner_id = ? FOR UPDATE`, id, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRepairNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM repair_status_history WHERE repair_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE entity_kind = 'repair' AND entity_id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM repairs WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
