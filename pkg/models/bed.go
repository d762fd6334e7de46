// Package models defines the canonical domain types shared by the store,
// services, call sessions, and API layer. Status enumerations are closed:
// every component uses these constants, and values serialize lowercase at
// the wire boundary.
package models

import "time"

// TotalBeds is the fixed size of the shelter's bed inventory.
// The registry enforces this at startup; it never grows or shrinks.
const TotalBeds = 108

// BedStatus represents the state of a single bed. Exactly three states.
type BedStatus string

const (
	BedAvailable BedStatus = "available"
	BedHeld      BedStatus = "held"
	BedOccupied  BedStatus = "occupied"
)

// Valid reports whether s is one of the three known bed states.
func (s BedStatus) Valid() bool {
	switch s {
	case BedAvailable, BedHeld, BedOccupied:
		return true
	}
	return false
}

// Bed is one of the 108 physical sleeping slots, identified by a number
// in [1, TotalBeds].
type Bed struct {
	ID        int       `json:"bed_id"`
	Status    BedStatus `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BedSummary is the aggregate view returned by GET /api/beds/.
// The three counts always sum to Total.
type BedSummary struct {
	Available int `json:"available"`
	Held      int `json:"held"`
	Occupied  int `json:"occupied"`
	Total     int `json:"total"`
}
