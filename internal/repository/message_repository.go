// This file covers messages and their comments. Sender and
// recipient are tagged (kind, id) pairs so one table serves both
// directions between owners and renters. Access checks are
// participant based rather than owner based: only the sender or
// the recipient of a message may read or touch it.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aroschi/gestimmo/internal/model"
)

// ErrMessageNotFound indicates that a message was not located in the DB.
var ErrMessageNotFound = errors.New("message not found")

// Party identifies one side of a message, either an owner or a
// renter.
type Party struct {
	Kind string // model.PartyOwner or model.PartyRenter
	ID   uint64
}

// MessageRepo manages persistence for messages and comments.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo constructs a MessageRepo with the given DB handle.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const selectMessage = `SELECT id, title, content, status, sender_kind, sender_id, recipient_kind, recipient_id, created_at, updated_at
FROM messages`

func scanMessage(row *sql.Row) (*model.Message, error) {
	var m model.Message
	err := row.Scan(&m.ID, &m.Title, &m.Content, &m.Status, &m.SenderKind, &m.SenderID,
		&m.RecipientKind, &m.RecipientID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// partyTable resolves the table backing a party kind.
func partyTable(kind string) (string, error) {
	switch kind {
	case model.PartyOwner:
		return "owners", nil
	case model.PartyRenter:
		return "renters", nil
	}
	return "", fmt.Errorf("%w: unknown party kind %q", ErrValidation, kind)
}

// Create inserts a message after checking that the recipient
// actually exists in the table its kind points at.
func (r *MessageRepo) Create(ctx context.Context, sender Party, recipient Party, title, content string) (*model.Message, error) {
	table, err := partyTable(recipient.Kind)
	if err != nil {
		return nil, err
	}
	var found uint64
	err = r.db.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE id = ?`, recipient.ID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: recipient does not exist", ErrValidation)
	}
	if err != nil {
		return nil, err
	}

	const q = `INSERT INTO messages (title, content, sender_kind, sender_id, recipient_kind, recipient_id)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, title, content, sender.Kind, sender.ID, recipient.Kind, recipient.ID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return scanMessage(r.db.QueryRowContext(ctx, selectMessage+` WHERE id = ?`, id))
}

// GetForParty returns a message the party takes part in. A message
// that exists but does not involve the party comes back as
// ErrForbidden.
func (r *MessageRepo) GetForParty(ctx context.Context, id uint64, p Party) (*model.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, selectMessage+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	if !isParticipant(m, p) {
		return nil, ErrForbidden
	}
	return m, nil
}

func isParticipant(m *model.Message, p Party) bool {
	if m.SenderKind == p.Kind && m.SenderID == p.ID {
		return true
	}
	return m.RecipientKind == p.Kind && m.RecipientID == p.ID
}

// ListSent returns messages the party sent, newest first, skipping
// archived ones.
func (r *MessageRepo) ListSent(ctx context.Context, p Party) ([]model.Message, error) {
	const q = selectMessage + ` WHERE sender_kind = ? AND sender_id = ? AND status <> ? ORDER BY id DESC`
	return r.list(ctx, q, p.Kind, p.ID, model.MessageArchived)
}

// ListReceived returns messages addressed to the party, newest
// first, skipping archived ones.
func (r *MessageRepo) ListReceived(ctx context.Context, p Party) ([]model.Message, error) {
	const q = selectMessage + ` WHERE recipient_kind = ? AND recipient_id = ? AND status <> ? ORDER BY id DESC`
	return r.list(ctx, q, p.Kind, p.ID, model.MessageArchived)
}

// ListArchived returns the party's archived messages, either
// direction, newest first.
func (r *MessageRepo) ListArchived(ctx context.Context, p Party) ([]model.Message, error) {
	const q = selectMessage + ` WHERE status = ? AND
		((sender_kind = ? AND sender_id = ?) OR (recipient_kind = ? AND recipient_id = ?))
		ORDER BY id DESC`
	return r.list(ctx, q, model.MessageArchived, p.Kind, p.ID, p.Kind, p.ID)
}

func (r *MessageRepo) list(ctx context.Context, q string, args ...any) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.Title, &m.Content, &m.Status, &m.SenderKind, &m.SenderID,
			&m.RecipientKind, &m.RecipientID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SetStatus updates the free-text status of a message on behalf of
// a participant. Archiving and unarchiving go through here too.
func (r *MessageRepo) SetStatus(ctx context.Context, id uint64, p Party, status string) (*model.Message, error) {
	if _, err := r.GetForParty(ctx, id, p); err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE messages SET status = ? WHERE id = ?`, status, id); err != nil {
		return nil, err
	}
	return scanMessage(r.db.QueryRowContext(ctx, selectMessage+` WHERE id = ?`, id))
}

// Delete removes a message and its comments in one transaction. A
// message that spawned a task is kept, the task would otherwise
// lose its origin.
func (r *MessageRepo) Delete(ctx context.Context, id uint64, p Party) error {
	if _, err := r.GetForParty(ctx, id, p); err != nil {
		return err
	}

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

	var tasks int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE message_id = ?`, id).Scan(&tasks); err != nil {
		return err
	}
	if tasks > 0 {
		return fmt.Errorf("%w: a task was created from this message", ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE message_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AddComment appends a comment to a message on behalf of a
// participant.
func (r *MessageRepo) AddComment(ctx context.Context, messageID uint64, author Party, content string) (*model.Comment, error) {
	if _, err := r.GetForParty(ctx, messageID, author); err != nil {
		return nil, err
	}
	const q = `INSERT INTO comments (message_id, author_kind, author_id, content) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, messageID, author.Kind, author.ID, content)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	var c model.Comment
	err = r.db.QueryRowContext(ctx, `SELECT id, message_id, author_kind, author_id, content, created_at FROM comments WHERE id = ?`, id).
		Scan(&c.ID, &c.MessageID, &c.AuthorKind, &c.AuthorID, &c.Content, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListComments returns the comments of a message, oldest first.
func (r *MessageRepo) ListComments(ctx context.Context, messageID uint64, p Party) ([]model.Comment, error) {
	if _, err := r.GetForParty(ctx, messageID, p); err != nil {
		return nil, err
	}
	const q = `SELECT id, message_id, author_kind, author_id, content, created_at FROM comments WHERE message_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.MessageID, &c.AuthorKind, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
