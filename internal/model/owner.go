package model

import "time"

// Owner represents a landlord account as stored in the `owners`
// table. Owners authenticate against the API and every resource
// they create (buildings, apartments, renters, contracts, ...)
// carries their id as the tenancy boundary. The json tags are
// omitted because these structs are used internally by the
// repository layer; handlers build their own response shapes.
//
// Fields:
//  ID           – primary key identifier of the owner.
//  Name         – first name.
//  Lastname     – family name.
//  Email        – unique email address used for login.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Owner struct {
	ID           uint64    // owners.id
	Name         string    // owners.name
	Lastname     string    // owners.lastname
	Email        string    // owners.email
	PasswordHash string    // owners.password_hash
	CreatedAt    time.Time // owners.created_at
	UpdatedAt    time.Time // owners.updated_at
}

// Roles carried in the JWT "role" claim. OWNER maps to the owners
// table, RENTER to the renters table.
const (
	RoleOwner  = "OWNER"
	RoleRenter = "RENTER"
)
