package models

import "time"

// ChapelStatus is the lifecycle state of a scheduled chapel service.
type ChapelStatus string

const (
	ChapelPending   ChapelStatus = "pending"
	ChapelConfirmed ChapelStatus = "confirmed"
	ChapelCompleted ChapelStatus = "completed"
	ChapelCancelled ChapelStatus = "cancelled"
)

// Valid reports whether s is a known chapel status.
func (s ChapelStatus) Valid() bool {
	switch s {
	case ChapelPending, ChapelConfirmed, ChapelCompleted, ChapelCancelled:
		return true
	}
	return false
}

// ChapelService is a weekday service led by a visiting group.
// Date is YYYY-MM-DD and Time is one of the configured start slots;
// durations are not stored.
type ChapelService struct {
	ID           int          `json:"id"`
	Date         string       `json:"date"`
	Time         string       `json:"time"`
	GroupName    string       `json:"group_name"`
	ContactName  string       `json:"contact_name"`
	ContactPhone string       `json:"contact_phone"`
	ContactEmail string       `json:"contact_email,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	Status       ChapelStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
