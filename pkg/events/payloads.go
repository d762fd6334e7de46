package events

import (
	"time"

	"github.com/bethesda-mission/shelterline/pkg/models"
)

// BedStatusChangedPayload is the payload for bed.status_changed events.
type BedStatusChangedPayload struct {
	Type      string           `json:"type"` // always EventTypeBedStatusChanged
	BedID     int              `json:"bed_id"`
	From      models.BedStatus `json:"from"`
	To        models.BedStatus `json:"to"`
	Timestamp string           `json:"timestamp"` // RFC3339Nano
}

// ReservationPayload is the payload for all reservation.* events.
// The confirmation code identifies the reservation; the caller hash is
// never published.
type ReservationPayload struct {
	Type      string                   `json:"type"` // one of the reservation.* event types
	Code      string                   `json:"confirmation_code"`
	BedID     int                      `json:"bed_id"`
	Status    models.ReservationStatus `json:"status"`
	ExpiresAt string                   `json:"expires_at"` // RFC3339Nano
	Timestamp string                   `json:"timestamp"`  // RFC3339Nano
}

// NewBedStatusChanged builds a bed.status_changed event for the beds channel.
func NewBedStatusChanged(bedID int, from, to models.BedStatus) Event {
	return Event{
		Channel: BedsChannel,
		Payload: BedStatusChangedPayload{
			Type:      EventTypeBedStatusChanged,
			BedID:     bedID,
			From:      from,
			To:        to,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		},
	}
}

// NewReservationEvent builds a reservation.* event for the reservations channel.
func NewReservationEvent(eventType string, r *models.Reservation) Event {
	return Event{
		Channel: ReservationsChannel,
		Payload: ReservationPayload{
			Type:      eventType,
			Code:      r.Code,
			BedID:     r.BedID,
			Status:    r.Status,
			ExpiresAt: r.ExpiresAt.UTC().Format(time.RFC3339Nano),
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		},
	}
}
