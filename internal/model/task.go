package model

import "time"

// Task represents a unit of work for the owner as stored in the
// `tasks` table. A task may have been spawned from a renter
// message, in which case MessageID links back to it and the
// message status is flipped on creation.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – owner who created the task.
//  Title     – short title.
//  Content   – description of the work.
//  StartDate – planned start.
//  EndDate   – planned end.
//  StatusID  – current status label.
//  MessageID – message the task was created from (nullable).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Task struct {
	ID        uint64    // tasks.id
	OwnerID   uint64    // tasks.owner_id
	Title     string    // tasks.title
	Content   string    // tasks.content
	StartDate time.Time // tasks.start_date
	EndDate   time.Time // tasks.end_date
	StatusID  uint64    // tasks.status_id
	MessageID *uint64   // tasks.message_id (nullable)
	CreatedAt time.Time // tasks.created_at
	UpdatedAt time.Time // tasks.updated_at
}

// TaskStatusHistory is one append-only ledger row carrying a full
// snapshot of the task fields at the time of a status-affecting
// write.
type TaskStatusHistory struct {
	ID        uint64    // task_status_history.id
	OwnerID   uint64    // task_status_history.owner_id
	TaskID    uint64    // task_status_history.task_id
	StatusID  uint64    // task_status_history.status_id
	Title     string    // task_status_history.title
	Content   string    // task_status_history.content
	StartDate time.Time // task_status_history.start_date
	EndDate   time.Time // task_status_history.end_date
	CreatedAt time.Time // task_status_history.created_at
}
