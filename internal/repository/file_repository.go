// This file covers file references. Only the reference rows live
// here; the binaries are stored outside the system under the
// storage key. Attaching validates that the target entity exists
// and belongs to the owner, so a reference can never point into
// another owner's data.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aroschi/gestimmo/internal/model"
)

// ErrFileNotFound indicates that a file reference was not located
// in the DB or does not belong to the calling owner.
var ErrFileNotFound = errors.New("file not found")

// fileEntityTables maps the entity kinds that accept attachments to
// their backing tables. Every listed table carries an owner_id
// column so the existence probe doubles as the ownership check.
var fileEntityTables = map[string]string{
	"apartment": "apartments",
	"contract":  "contracts",
	"renter":    "renters",
	"bill":      "bills",
	"repair":    "repairs",
}

// FileRepo manages persistence for file references.
type FileRepo struct {
	db *sql.DB
}

// NewFileRepo constructs a FileRepo with the given DB handle.
func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

// Attach records a file reference on an entity.
func (r *FileRepo) Attach(ctx context.Context, ownerID uint64, entityKind string, entityID uint64, name, contentType, storageKey string) (*model.File, error) {
	table, ok := fileEntityTables[entityKind]
	if !ok {
		return nil, fmt.Errorf("%w: files cannot be attached to %q", ErrValidation, entityKind)
	}
	var found uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE id = ? AND owner_id = ?`, entityID, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %d does not exist", ErrValidation, entityKind, entityID)
	}
	if err != nil {
		return nil, err
	}

	const q = `INSERT INTO files (owner_id, entity_kind, entity_id, name, content_type, storage_key) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, ownerID, entityKind, entityID, name, contentType, storageKey)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	var f model.File
	err = r.db.QueryRowContext(ctx, `SELECT id, owner_id, entity_kind, entity_id, name, content_type, storage_key, created_at FROM files WHERE id = ?`, id).
		Scan(&f.ID, &f.OwnerID, &f.EntityKind, &f.EntityID, &f.Name, &f.ContentType, &f.StorageKey, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Detach removes a file reference by id.
func (r *FileRepo) Detach(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFileNotFound
	}
	return nil
}

// ListByEntity returns the file references attached to one entity.
func (r *FileRepo) ListByEntity(ctx context.Context, ownerID uint64, entityKind string, entityID uint64) ([]model.File, error) {
	if _, ok := fileEntityTables[entityKind]; !ok {
		return nil, fmt.Errorf("%w: files cannot be attached to %q", ErrValidation, entityKind)
	}
	const q = `SELECT id, owner_id, entity_kind, entity_id, name, content_type, storage_key, created_at
		FROM files WHERE owner_id = ? AND entity_kind = ? AND entity_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, ownerID, entityKind, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.File
	for rows.Next() {
		var f model.File
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.EntityKind, &f.EntityID, &f.Name, &f.ContentType, &f.StorageKey, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
