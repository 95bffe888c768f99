package model

import "time"

// Renter status values. A renter starts Actif; setting Inactif is
// refused while any active contract still references the renter.
const (
	RenterActive   = "Actif"
	RenterInactive = "Inactif"
)

// Renter represents a tenant account as stored in the `renters`
// table. Renters are created by their owner and may log in to a
// restricted portal to view their own contracts, bills and tasks.
//
// Fields:
//  ID           – primary key identifier of the renter.
//  OwnerID      – owner who created the renter.
//  Name         – first name.
//  Lastname     – family name.
//  Email        – unique email address used for login.
//  PasswordHash – bcrypt hashed password.
//  DateOfBirth  – optional date of birth.
//  Status       – Actif or Inactif.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Renter struct {
	ID           uint64     // renters.id
	OwnerID      uint64     // renters.owner_id
	Name         string     // renters.name
	Lastname     string     // renters.lastname
	Email        string     // renters.email
	PasswordHash string     // renters.password_hash
	DateOfBirth  *time.Time // renters.date_of_birth (nullable)
	Status       string     // renters.status
	CreatedAt    time.Time  // renters.created_at
	UpdatedAt    time.Time  // renters.updated_at
}
