// This file covers refresh tokens. Only the SHA-256 hash of a
// token is ever stored; the raw value exists client side only.
// user_kind distinguishes owner sessions from renter sessions
// since both populations live in separate tables.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrTokenNotFound indicates that no live refresh token matches the
// presented hash. Expired and revoked tokens are reported the same
// way so callers cannot probe token state.
var ErrTokenNotFound = errors.New("refresh token not found")

// User kinds stored alongside refresh tokens.
const (
	TokenUserOwner  = "owner"
	TokenUserRenter = "renter"
)

// TokenRepo manages persistence for refresh tokens.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo constructs a TokenRepo with the given DB handle.
func NewTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// Store saves the hash of a freshly issued refresh token.
func (r *TokenRepo) Store(ctx context.Context, userKind string, userID uint64, tokenHash string, expiresAt time.Time) error {
	const q = `INSERT INTO refresh_tokens (user_kind, user_id, token_hash, expires_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, userKind, userID, tokenHash, expiresAt)
	return err
}

// FindValid returns the user behind a token hash if the token is
// neither revoked nor expired.
func (r *TokenRepo) FindValid(ctx context.Context, tokenHash string) (userKind string, userID uint64, err error) {
	const q = `SELECT user_kind, user_id FROM refresh_tokens
		WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()`
	err = r.db.QueryRowContext(ctx, q, tokenHash).Scan(&userKind, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, ErrTokenNotFound
	}
	return userKind, userID, err
}

// Revoke marks one token as revoked. Revoking an unknown or
// already revoked token reports ErrTokenNotFound.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	const q = `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE token_hash = ? AND revoked_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, tokenHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// RevokeAllForUser invalidates every live session of one user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userKind string, userID uint64) error {
	const q = `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE user_kind = ? AND user_id = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, userKind, userID)
	return err
}
