// This file covers the owner-defined status labels shared by
// bills, tasks and repairs. Labels are cheap rows, but deleting
// one is guarded: six tables may reference a status (the three
// entity tables plus their history ledgers) and the delete is
// refused while any of them still does, naming the blocking
// family in the error.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aroschi/gestimmo/internal/model"
)

// ErrStatusNotFound indicates that a status label was not located
// in the DB or does not belong to the calling owner.
var ErrStatusNotFound = errors.New("status not found")

// StatusRepo manages persistence for status labels.
type StatusRepo struct {
	db *sql.DB
}

// NewStatusRepo constructs a StatusRepo with the given DB handle.
func NewStatusRepo(db *sql.DB) *StatusRepo {
	return &StatusRepo{db: db}
}

const selectStatus = `SELECT id, owner_id, name, created_at, updated_at FROM statuses`

func scanStatus(row *sql.Row) (*model.Status, error) {
	var s model.Status
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new status label for the owner.
func (r *StatusRepo) Create(ctx context.Context, ownerID uint64, name string) (*model.Status, error) {
	const q = `INSERT INTO statuses (owner_id, name) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, ownerID, name)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return scanStatus(r.db.QueryRowContext(ctx, selectStatus+` WHERE id = ?`, id))
}

// GetByIDAndOwner returns a status label owned by the given owner.
func (r *StatusRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Status, error) {
	s, err := scanStatus(r.db.QueryRowContext(ctx, selectStatus+` WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusNotFound
	}
	return s, err
}

// ListByOwner returns all status labels of an owner ordered by id.
func (r *StatusRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Status, error) {
	rows, err := r.db.QueryContext(ctx, selectStatus+` WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Status
	for rows.Next() {
		var s model.Status
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateByIDAndOwner renames a status label.
func (r *StatusRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, name string) (*model.Status, error) {
	if _, err := r.GetByIDAndOwner(ctx, id, ownerID); err != nil {
		return nil, err
	}
	const q = `UPDATE statuses SET name = ? WHERE id = ? AND owner_id = ?`
	if _, err := r.db.ExecContext(ctx, q, name, id, ownerID); err != nil {
		return nil, err
	}
	return r.GetByIDAndOwner(ctx, id, ownerID)
}

// statusRefQueries maps each referencing family to its count query,
// checked in a fixed order so the error message is deterministic.
var statusRefQueries = []struct {
	family string
	query  string
}{
	{"bills", `SELECT COUNT(*) FROM bills WHERE status_id = ?`},
	{"bill history", `SELECT COUNT(*) FROM bill_status_history WHERE status_id = ?`},
	{"tasks", `SELECT COUNT(*) FROM tasks WHERE status_id = ?`},
	{"task history", `SELECT COUNT(*) FROM task_status_history WHERE status_id = ?`},
	{"repairs", `SELECT COUNT(*) FROM repairs WHERE status_id = ?`},
	{"repair history", `SELECT COUNT(*) FROM repair_status_history WHERE status_id = ?`},
}

// DeleteByIDAndOwner removes a status label if nothing references
// it. The first referencing family found blocks the delete with a
// conflict naming it; history ledgers block just like live rows
// because a ledger entry pointing at a vanished label would be
// unreadable.
func (r *StatusRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	if _, err := r.GetByIDAndOwner(ctx, id, ownerID); err != nil {
		return err
	}
	for _, ref := range statusRefQueries {
		var n int
		if err := r.db.QueryRowContext(ctx, ref.query, id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: status is still referenced by %s", ErrConflict, ref.family)
		}
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM statuses WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStatusNotFound
	}
	return nil
}
