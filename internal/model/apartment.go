package model

import "time"

// Apartment status values. New apartments start Libre; the contract
// lifecycle is the only thing that flips them to Occupé and back.
const (
	ApartmentFree     = "Libre"
	ApartmentOccupied = "Occupé"
)

// Apartment represents a row in the `apartments` table. An
// apartment either belongs to a building (BuildingID set, address
// fields empty) or stands alone with its own address; exactly one
// of the two forms is valid.
//
// Fields:
//  ID         – primary key identifier.
//  OwnerID    – owner who created the apartment.
//  Size       – surface in square meters.
//  Adress     – street address (standalone apartments only).
//  Postalcode – postal code (standalone apartments only).
//  City       – city name (standalone apartments only).
//  BuildingID – building the apartment belongs to (nullable).
//  Status     – Libre or Occupé.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Apartment struct {
	ID         uint64    // apartments.id
	OwnerID    uint64    // apartments.owner_id
	Size       uint32    // apartments.size
	Adress     string    // apartments.adress
	Postalcode int       // apartments.postalcode
	City       string    // apartments.city
	BuildingID *uint64   // apartments.building_id (nullable)
	Status     string    // apartments.status
	CreatedAt  time.Time // apartments.created_at
	UpdatedAt  time.Time // apartments.updated_at
}
