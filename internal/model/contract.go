package model

import "time"

// Contract status values. Actif is the only live state; Archivé is
// terminal and a contract never leaves it.
const (
	ContractActive   = "Actif"
	ContractArchived = "Archivé"
)

// Contract represents a lease between a renter and an apartment as
// stored in the `contracts` table. Creating a contract marks the
// apartment Occupé and bumps the building occupancy counter;
// archiving reverses both effects exactly once.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – owner who created the contract.
//  RenterID    – renter holding the lease.
//  ApartmentID – leased apartment. Immutable after creation.
//  RentCents   – monthly rent in cents.
//  ChargeCents – monthly charges in cents.
//  Other       – free-form notes.
//  Status      – Actif or Archivé.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Contract struct {
	ID          uint64    // contracts.id
	OwnerID     uint64    // contracts.owner_id
	RenterID    uint64    // contracts.renter_id
	ApartmentID uint64    // contracts.apartment_id
	RentCents   uint32    // contracts.rent_cents
	ChargeCents uint32    // contracts.charge_cents
	Other       string    // contracts.other
	Status      string    // contracts.status
	CreatedAt   time.Time // contracts.created_at
	UpdatedAt   time.Time // contracts.updated_at
}
