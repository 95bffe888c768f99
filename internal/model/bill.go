package model

import "time"

// Bill represents an invoice addressed to a renter as stored in
// the `bills` table. Every create or update of a bill appends a
// snapshot row to the bill_status_history ledger in the same
// transaction.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – owner who created the bill.
//  RenterID    – renter the bill is addressed to.
//  StatusID    – current status label.
//  Reference   – external reference (e.g. QR bill number), optional.
//  EndDate     – due date of the bill.
//  AmountCents – amount in cents.
//  Reason      – what the bill is for.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Bill struct {
	ID          uint64    // bills.id
	OwnerID     uint64    // bills.owner_id
	RenterID    uint64    // bills.renter_id
	StatusID    uint64    // bills.status_id
	Reference   *string   // bills.reference (nullable)
	EndDate     time.Time // bills.end_date
	AmountCents uint32    // bills.amount_cents
	Reason      string    // bills.reason
	CreatedAt   time.Time // bills.created_at
	UpdatedAt   time.Time // bills.updated_at
}

// BillStatusHistory is one append-only ledger row recording the
// status a bill carried after a status-affecting write. Rows are
// never updated and are only removed together with their bill.
type BillStatusHistory struct {
	ID        uint64    // bill_status_history.id
	OwnerID   uint64    // bill_status_history.owner_id
	BillID    uint64    // bill_status_history.bill_id
	StatusID  uint64    // bill_status_history.status_id
	EndDate   time.Time // bill_status_history.end_date
	CreatedAt time.Time // bill_status_history.created_at
}
