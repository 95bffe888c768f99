// This file covers owner accounts, the landlord side of the API.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/aroschi/gestimmo/internal/model"
)

// ErrOwnerNotFound indicates that an owner was not located in the DB.
var ErrOwnerNotFound = errors.New("owner not found")

// ErrEmailExists is returned when registering or updating an
// account with an email that is already taken. Detected through
// the MySQL duplicate-key error (1062) on the unique email index.
var ErrEmailExists = errors.New("email already exists")

// OwnerRepo manages persistence for owner accounts.
type OwnerRepo struct {
	db *sql.DB
}

// NewOwnerRepo constructs an OwnerRepo with the given DB handle.
func NewOwnerRepo(db *sql.DB) *OwnerRepo {
	return &OwnerRepo{db: db}
}

const selectOwner = `SELECT id, name, lastname, email, password_hash, created_at, updated_at FROM owners`

func scanOwner(row *sql.Row) (*model.Owner, error) {
	var o model.Owner
	err := row.Scan(&o.ID, &o.Name, &o.Lastname, &o.Email, &o.PasswordHash, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts a new owner with an already hashed password.
func (r *OwnerRepo) Create(ctx context.Context, name, lastname, email, passwordHash string) (*model.Owner, error) {
	const q = `INSERT INTO owners (name, lastname, email, password_hash) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, name, lastname, email, passwordHash)
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
	return scanOwner(r.db.QueryRowContext(ctx, selectOwner+` WHERE id = ?`, id))
}

// GetByEmail returns an owner by login email.
func (r *OwnerRepo) GetByEmail(ctx context.Context, email string) (*model.Owner, error) {
	o, err := scanOwner(r.db.QueryRowContext(ctx, selectOwner+` WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOwnerNotFound
	}
	return o, err
}

// GetByID returns an owner by id.
func (r *OwnerRepo) GetByID(ctx context.Context, id uint64) (*model.Owner, error) {
	o, err := scanOwner(r.db.QueryRowContext(ctx, selectOwner+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOwnerNotFound
	}
	return o, err
}
