// This file covers tasks and their append-only status ledger. A
// task optionally links back to the message it was created from;
// creating such a task flips the message status in the same
// transaction. Deleting a task is blocked while a repair still
// references it.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aroschi/gestimmo/internal/model"
)

// ErrTaskNotFound indicates that a task was not located in the DB
// or does not belong to the calling owner.
var ErrTaskNotFound = errors.New("task not found")

// TaskInput carries the writable fields of a task.
type TaskInput struct {
	Title     string
	Content   string
	StartDate time.Time
	EndDate   time.Time
	StatusID  uint64
	MessageID *uint64
}

// TaskRepo manages persistence for tasks.
type TaskRepo struct {
	db *sql.DB
}

// NewTaskRepo constructs a TaskRepo with the given DB handle.
func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

const selectTask = `SELECT id, owner_id, title, content, start_date, end_date, status_id, message_id, created_at, updated_at
FROM tasks`

func scanTask(row *sql.Row) (*model.Task, error) {
	var t model.Task
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Content, &t.StartDate, &t.EndDate,
		&t.StatusID, &t.MessageID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// appendTaskHistoryTx writes one ledger row carrying a snapshot of
// the task fields.
func appendTaskHistoryTx(ctx context.Context, tx *sql.Tx, ownerID, taskID uint64, in TaskInput) error {
	const q = `INSERT INTO task_status_history (owner_id, task_id, status_id, title, content, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, ownerID, taskID, in.StatusID, in.Title, in.Content, in.StartDate, in.EndDate)
	return err
}

func checkTaskStatusTx(ctx context.Context, tx *sql.Tx, ownerID, statusID uint64) error {
	var found uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM statuses WHERE id = ? AND owner_id = ?`, statusID, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStatusNotFound
	}
	return err
}

// Create inserts a task and its first ledger row in one
// transaction. When the task is spawned from a message, the
// message must exist and its status flips to "Tâche créé" so the
// inbox shows the message has been taken care of.
func (r *TaskRepo) Create(ctx context.Context, ownerID uint64, in TaskInput) (*model.Task, error) {
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

	if err := checkTaskStatusTx(ctx, tx, ownerID, in.StatusID); err != nil {
		return nil, err
	}
	if in.MessageID != nil {
		var found uint64
		err := tx.QueryRowContext(ctx, `SELECT id FROM messages WHERE id = ?`, *in.MessageID).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		if err != nil {
			return nil, err
		}
	}

	const q = `INSERT INTO tasks (owner_id, title, content, start_date, end_date, status_id, message_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, ownerID, in.Title, in.Content, in.StartDate, in.EndDate, in.StatusID, in.MessageID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := appendTaskHistoryTx(ctx, tx, ownerID, uint64(id), in); err != nil {
		return nil, err
	}
	if in.MessageID != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE messages SET status = ? WHERE id = ?`,
			model.MessageTaskCreated, *in.MessageID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return scanTask(r.db.QueryRowContext(ctx, selectTask+` WHERE id = ?`, id))
}

// GetByIDAndOwner returns a task owned by the given owner.
func (r *TaskRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, selectTask+` WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	return t, err
}

// ListByOwner returns all tasks of an owner ordered by id.
func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Task, error) {
	return r.list(ctx, selectTask+` WHERE owner_id = ? ORDER BY id`, ownerID)
}

// ListForRenter returns the tasks spawned from messages the renter
// took part in, for the tenant portal.
func (r *TaskRepo) ListForRenter(ctx context.Context, renterID uint64) ([]model.Task, error) {
	const q = selectTask + ` WHERE message_id IN (
		SELECT id FROM messages
		WHERE (sender_kind = ? AND sender_id = ?) OR (recipient_kind = ? AND recipient_id = ?)
	) ORDER BY id`
	return r.list(ctx, q, model.PartyRenter, renterID, model.PartyRenter, renterID)
}

func (r *TaskRepo) list(ctx context.Context, q string, args ...any) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Content, &t.StartDate, &t.EndDate,
			&t.StatusID, &t.MessageID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// History returns the ledger of a task, oldest first.
func (r *TaskRepo) History(ctx context.Context, taskID, ownerID uint64) ([]model.TaskStatusHistory, error) {
	if _, err := r.GetByIDAndOwner(ctx, taskID, ownerID); err != nil {
		return nil, err
	}
	const q = `SELECT id, owner_id, task_id, status_id, title, content, start_date, end_date, created_at
		FROM task_status_history WHERE task_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TaskStatusHistory
	for rows.Next() {
		var h model.TaskStatusHistory
		if err := rows.Scan(&h.ID, &h.OwnerID, &h.TaskID, &h.StatusID, &h.Title, &h.Content,
			&h.StartDate, &h.EndDate, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// UpdateByIDAndOwner rewrites a task and appends a ledger snapshot
// with the new values, both in one transaction. The message link
// is left as it was set at creation.
func (r *TaskRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, in TaskInput) (*model.Task, error) {
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
	err = tx.QueryRowContext(ctx, `SELECT id FROM tasks WHERE id = ? AND owner_id = ? FOR UPDATE`, id, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := checkTaskStatusTx(ctx, tx, ownerID, in.StatusID); err != nil {
		return nil, err
	}

	const q = `UPDATE tasks SET title = ?, content = ?, start_date = ?, end_date = ?, status_id = ?
		WHERE id = ? AND owner_id = ?`
	if _, err := tx.ExecContext(ctx, q, in.Title, in.Content, in.StartDate, in.EndDate, in.StatusID, id, ownerID); err != nil {
		return nil, err
	}
	if err := appendTaskHistoryTx(ctx, tx, ownerID, id, in); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return scanTask(r.db.QueryRowContext(ctx, selectTask+` WHERE id = ?`, id))
}

// DeleteByIDAndOwner removes a task and its ledger rows in one
// transaction. A task referenced by a repair cannot go away, the
// repair would lose its anchor.
func (r *TaskRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
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
	err = tx.QueryRowContext(ctx, `SELECT id FROM tasks WHERE id = ? AND owner_id = ? FOR UPDATE`, id, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTaskNotFound
	}
	if err != nil {
		return err
	}

	var repairs int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM repairs WHERE task_id = ?`, id).Scan(&repairs); err != nil {
		return err
	}
	if repairs > 0 {
		return fmt.Errorf("%w: task is still referenced by %d repair(s)", ErrConflict, repairs)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_status_history WHERE task_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
