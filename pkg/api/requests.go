package api

// CreateReservationRequest is the body for POST /api/reservations/.
type CreateReservationRequest struct {
	CallerName string `json:"caller_name"`
	Situation  string `json:"situation,omitempty"`
	Needs      string `json:"needs,omitempty"`
	Language   string `json:"language,omitempty"`
	CallerHash string `json:"caller_hash,omitempty"`
}

// CheckInRequest is the body for POST /api/beds/:id/checkin. With a
// confirmation code the check-in completes that reservation; without one
// it records a walk-in stay under guest_name.
type CheckInRequest struct {
	ConfirmationCode string `json:"confirmation_code,omitempty"`
	GuestName        string `json:"guest_name,omitempty"`
}

// AssignGuestRequest is the body for POST /api/beds/:id/assign.
type AssignGuestRequest struct {
	GuestID int `json:"guest_id"`
}

// ScheduleChapelRequest is the body for POST /api/chapel-services/.
type ScheduleChapelRequest struct {
	Date         string `json:"date"`
	Time         string `json:"time"`
	GroupName    string `json:"group_name"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	ContactEmail string `json:"contact_email,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// RegisterVolunteerRequest is the body for POST /api/volunteers/.
type RegisterVolunteerRequest struct {
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email,omitempty"`
	Availability []string `json:"availability,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// UpdateStatusRequest is the body for the chapel and volunteer status
// endpoints.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}
