package model

import "time"

// Repair represents an intervention bound to a task as stored in
// the `repairs` table. The task link is mandatory; a task cannot
// be deleted while a repair still references it.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – owner who created the repair.
//  TaskID      – task the repair belongs to.
//  StatusID    – current status label.
//  AmountCents – cost in cents.
//  Reason      – what was repaired.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Repair struct {
	ID          uint64    // repairs.id
	OwnerID     uint64    // repairs.owner_id
	TaskID      uint64    // repairs.task_id
	StatusID    uint64    // repairs.status_id
	AmountCents uint32    // repairs.amount_cents
	Reason      string    // repairs.reason
	CreatedAt   time.Time // repairs.created_at
	UpdatedAt   time.Time // repairs.updated_at
}

// RepairStatusHistory is one append-only ledger row recording the
// status and cost a repair carried after a status-affecting write.
type RepairStatusHistory struct {
	ID          uint64    // repair_status_history.id
	OwnerID     uint64    // repair_status_history.owner_id
	RepairID    uint64    // repair_status_history.repair_id
	StatusID    uint64    // repair_status_history.status_id
	AmountCents uint32    // repair_status_history.amount_cents
	Reason      string    // repair_status_history.reason
	CreatedAt   time.Time // repair_status_history.created_at
}
