// Package queue defines message payloads exchanged over the message broker.
package queue

// Lifecycle actions carried in ContractLifecycleEvent.Action.
const (
	ContractSigned     = "signed"
	ContractArchived   = "archived"
	ContractTerminated = "terminated"
)

// ContractLifecycleEvent is published whenever a contract is signed,
// archived or deleted. It carries enough information for downstream
// consumers to log, notify, or feed accounting without querying the
// primary database.
type ContractLifecycleEvent struct {
	Action      string `json:"action"`
	ContractID  uint64 `json:"contract_id"`
	OwnerID     uint64 `json:"owner_id"`
	RenterID    uint64 `json:"renter_id"`
	ApartmentID uint64 `json:"apartment_id"`
	RentCents   uint32 `json:"rent_cents"`
	ChargeCents uint32 `json:"charge_cents"`
	OccurredAt  string `json:"occurred_at"`
}
