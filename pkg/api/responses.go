package api

import (
	"github.com/bethesda-mission/shelterline/pkg/database"
	"github.com/bethesda-mission/shelterline/pkg/models"
)

// ActiveReservation is one row of the reservation list, with the time
// left on the hold computed at read time.
type ActiveReservation struct {
	*models.Reservation
	RemainingMinutes int `json:"remaining_minutes"`
}

// ListReservationsResponse is returned by GET /api/reservations/.
type ListReservationsResponse struct {
	Reservations []ActiveReservation `json:"reservations"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string                 `json:"status"`
	Version  string                 `json:"version"`
	Database *database.HealthStatus `json:"database,omitempty"`
}

// ExpireResponse is returned by POST /api/reservations/expire.
type ExpireResponse struct {
	Expired int `json:"expired"`
}
