// Package store defines the transactional boundary over the bed registry
// and the reservation, chapel, and volunteer tables. Every multi-step
// mutation in the service layer happens inside one WithinTx call: either
// a serializable database transaction (postgres) or the process-wide
// mutex (memory). No partial effect is ever visible.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/bethesda-mission/shelterline/pkg/models"
)

var (
	// ErrNotFound is returned when an identifier has no record.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a compare-and-set loses: the current
	// status did not match the expected one, or the backing store
	// aborted the transaction for serialization. Callers retry or
	// surface it; the winner's effect stays in place.
	ErrConflict = errors.New("conflict")

	// ErrDuplicateCode is returned when inserting a reservation whose
	// confirmation code already exists.
	ErrDuplicateCode = errors.New("duplicate confirmation code")
)

// Tx is the set of operations available inside one atomic unit.
// The bed registry operations are the only writers of bed status;
// higher layers compose them with reservation updates.
type Tx interface {
	// InitBeds idempotently ensures beds 1..total exist as available.
	// Existing rows are never overwritten.
	InitBeds(ctx context.Context, total int) error

	// SnapshotBeds returns a consistent (bed_id, status) listing in id order.
	SnapshotBeds(ctx context.Context) ([]models.Bed, error)

	// BedStatus returns the current status of one bed, or ErrNotFound.
	BedStatus(ctx context.Context, bedID int) (models.BedStatus, error)

	// FirstAvailableBed returns the lowest-numbered available bed id.
	// ok is false when every bed is held or occupied.
	FirstAvailableBed(ctx context.Context) (bedID int, ok bool, err error)

	// TransitionBed compare-and-sets one bed's status. Returns
	// ErrConflict if the current status is not from, ErrNotFound if the
	// bed does not exist.
	TransitionBed(ctx context.Context, bedID int, from, to models.BedStatus) error

	// CountBeds returns the status counts. They always sum to the total.
	CountBeds(ctx context.Context) (models.BedSummary, error)

	// InsertReservation stores a new reservation, failing with
	// ErrDuplicateCode on a confirmation-code collision.
	InsertReservation(ctx context.Context, r *models.Reservation) error

	// ReservationByCode returns the reservation with the given
	// confirmation code, or ErrNotFound.
	ReservationByCode(ctx context.Context, code string) (*models.Reservation, error)

	// ActiveReservationByBed returns the single active reservation
	// holding bedID, or ErrNotFound.
	ActiveReservationByBed(ctx context.Context, bedID int) (*models.Reservation, error)

	// CheckedInReservationByBed returns the single checked_in
	// reservation occupying bedID, or ErrNotFound.
	CheckedInReservationByBed(ctx context.Context, bedID int) (*models.Reservation, error)

	// ActiveReservationByCaller returns the caller's active
	// reservation, or ErrNotFound. Used to refuse double bookings.
	ActiveReservationByCaller(ctx context.Context, callerHash string) (*models.Reservation, error)

	// ListActiveReservations returns active reservations ordered by
	// creation time, confirmation code as tiebreaker.
	ListActiveReservations(ctx context.Context) ([]*models.Reservation, error)

	// ListExpiringBefore returns active reservations with
	// expires_at < t, in the same order as ListActiveReservations.
	ListExpiringBefore(ctx context.Context, t time.Time) ([]*models.Reservation, error)

	// UpdateReservationStatus compare-and-sets a reservation's status
	// and records the terminal timestamp. ErrConflict when the current
	// status is not from.
	UpdateReservationStatus(ctx context.Context, code string, from, to models.ReservationStatus, resolvedAt *time.Time) error

	// SetReservationGuest attaches a guest directory id to a
	// reservation, or ErrNotFound.
	SetReservationGuest(ctx context.Context, code string, guestID int) error

	// InsertChapelService stores a new chapel booking and fills its ID.
	InsertChapelService(ctx context.Context, s *models.ChapelService) error

	// ChapelServiceByID returns one chapel booking, or ErrNotFound.
	ChapelServiceByID(ctx context.Context, id int) (*models.ChapelService, error)

	// ListChapelServices returns all bookings ordered by date then time.
	ListChapelServices(ctx context.Context) ([]*models.ChapelService, error)

	// ChapelSlotTaken reports whether a non-cancelled booking already
	// occupies the given date and start time.
	ChapelSlotTaken(ctx context.Context, date, startTime string) (bool, error)

	// UpdateChapelService overwrites an existing booking by ID.
	UpdateChapelService(ctx context.Context, s *models.ChapelService) error

	// InsertVolunteer stores a new volunteer and fills its ID.
	InsertVolunteer(ctx context.Context, v *models.Volunteer) error

	// VolunteerByID returns one volunteer, or ErrNotFound.
	VolunteerByID(ctx context.Context, id int) (*models.Volunteer, error)

	// ListVolunteers returns all volunteers ordered by name.
	ListVolunteers(ctx context.Context) ([]*models.Volunteer, error)

	// UpdateVolunteer overwrites an existing volunteer by ID.
	UpdateVolunteer(ctx context.Context, v *models.Volunteer) error
}

// Store opens atomic units of work. Implementations guarantee that fn's
// effects become visible all at once on success and not at all on error.
type Store interface {
	// WithinTx runs fn inside one atomic unit. A returned error rolls
	// everything back and is propagated unchanged.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Close releases the store's resources.
	Close() error
}
