package models

import "time"

// ReservationStatus is the lifecycle state of a reservation.
// active is the only non-terminal state; terminal states are never
// resurrected.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCheckedIn ReservationStatus = "checked_in"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationExpired   ReservationStatus = "expired"
)

// Terminal reports whether the status is one of the three terminal states.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCheckedIn || s == ReservationCancelled || s == ReservationExpired
}

// Valid reports whether s is a known reservation status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationActive, ReservationCheckedIn, ReservationCancelled, ReservationExpired:
		return true
	}
	return false
}

// Reservation is a time-bounded claim on one bed. The confirmation code is
// the caller's sole handle for follow-up; phone numbers are stored only as
// a hash.
type Reservation struct {
	ID         string `json:"reservation_id"`
	Code       string `json:"confirmation_code"`
	BedID      int    `json:"bed_id"`
	CallerHash string `json:"-"`

	CallerName string `json:"caller_name"`
	Situation  string `json:"situation"`
	Needs      string `json:"needs"`
	Language   string `json:"preferred_language"`

	// GuestID links the stay to the guest directory once staff assign
	// the bed. Nil until then.
	GuestID *int `json:"guest_id,omitempty"`

	Status     ReservationStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`
}

// RemainingMinutes returns whole minutes until expiry at time now,
// clamped at zero. Computed at read time, never stored.
func (r *Reservation) RemainingMinutes(now time.Time) int {
	if !now.Before(r.ExpiresAt) {
		return 0
	}
	return int(r.ExpiresAt.Sub(now).Minutes())
}
