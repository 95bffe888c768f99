package model

import "time"

// Building represents a row in the `buildings` table. A building
// groups apartments under a shared address and carries two derived
// counters: how many apartments are linked to it and how many of
// those are currently occupied. The counters are only ever touched
// inside the same transaction as the apartment or contract write
// that justifies the change, so 0 <= OccupiedCounter <=
// NumberOfApartments holds at all times.
//
// Fields:
//  ID                 – primary key identifier.
//  OwnerID            – owner who created the building.
//  Adress             – street address.
//  Postalcode         – postal code.
//  City               – city name.
//  NumberOfApartments – count of apartments linked to the building.
//  OccupiedCounter    – count of linked apartments with status Occupé.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Building struct {
	ID                 uint64    // buildings.id
	OwnerID            uint64    // buildings.owner_id
	Adress             string    // buildings.adress
	Postalcode         int       // buildings.postalcode
	City               string    // buildings.city
	NumberOfApartments int       // buildings.number_of_apartments
	OccupiedCounter    int       // buildings.occupied_counter
	CreatedAt          time.Time // buildings.created_at
	UpdatedAt          time.Time // buildings.updated_at
}
