package model

import "time"

// Status is an owner-defined label applied to bills, tasks and
// repairs (e.g. "Payée", "En cours"). A status row can only be
// deleted while nothing references it, including the history
// ledgers.
type Status struct {
	ID        uint64    // statuses.id
	OwnerID   uint64    // statuses.owner_id
	Name      string    // statuses.name
	CreatedAt time.Time // statuses.created_at
	UpdatedAt time.Time // statuses.updated_at
}
