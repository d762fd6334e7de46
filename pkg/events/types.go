// Package events provides real-time state-change delivery to dashboard
// clients. Services publish typed events to an in-process Notifier after
// their transaction commits; the Notifier fans out to per-subscriber
// bounded queues, and the ConnectionManager bridges subscribers to
// WebSocket connections. Delivery is best-effort: a subscriber that falls
// behind loses events and reconciles with a snapshot.
package events

// Event types published by the reservation service and the sweeper.
const (
	EventTypeBedStatusChanged     = "bed.status_changed"
	EventTypeReservationCreated   = "reservation.created"
	EventTypeReservationCancelled = "reservation.cancelled"
	EventTypeReservationCheckedIn = "reservation.checked_in"
	EventTypeReservationExpired   = "reservation.expired"
)

// Channels a dashboard connection can subscribe to.
const (
	BedsChannel         = "beds"
	ReservationsChannel = "reservations"
)

// Event is one state change routed to a channel. Payload is one of the
// typed structs in payloads.go and marshals with a "type" discriminator.
type Event struct {
	Channel string
	Payload any
}

// Publisher is the narrow interface the service layer publishes through.
// Implemented by Notifier; NopPublisher discards everything.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards all events. Used where no dashboard is wired up.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

// ClientMessage is the JSON structure for client → server WebSocket messages.
type ClientMessage struct {
	Action  string `json:"action"` // "subscribe", "unsubscribe", "snapshot", "ping"
	Channel string `json:"channel,omitempty"`
}
