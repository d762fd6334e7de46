// Package services implements the public operations over the bed registry
// and reservation store. Every operation composes its registry and store
// mutations inside one transaction; dashboard events are published only
// after the transaction commits.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bethesda-mission/shelterline/pkg/config"
	"github.com/bethesda-mission/shelterline/pkg/events"
	"github.com/bethesda-mission/shelterline/pkg/models"
	"github.com/bethesda-mission/shelterline/pkg/store"
)

// frontDeskCaller names the shadow reservation a staff hold creates, so
// every held bed has exactly one active reservation behind it.
const frontDeskCaller = "Front Desk Hold"

// CreateReservationInput contains the domain-level data needed to reserve
// a bed. Transformed from the HTTP request or voice tool call.
type CreateReservationInput struct {
	CallerName string
	Situation  string
	Needs      string
	Language   string
	CallerHash string // hashed caller number; empty when unknown
}

// ReservationService owns the reservation lifecycle: allocation, cancel,
// check-in, check-out, and the read paths the dashboard snapshots from.
type ReservationService struct {
	store        store.Store
	publisher    events.Publisher
	totalBeds    int
	holdDuration time.Duration
	retryMax     int

	// now is replaceable in tests
	now func() time.Time
}

// NewReservationService creates a new ReservationService.
func NewReservationService(st store.Store, cfg *config.ShelterConfig, publisher events.Publisher) *ReservationService {
	if st == nil {
		panic("NewReservationService: store must not be nil")
	}
	if cfg == nil {
		panic("NewReservationService: cfg must not be nil")
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ReservationService{
		store:        st,
		publisher:    publisher,
		totalBeds:    cfg.TotalBeds,
		holdDuration: cfg.HoldDuration,
		retryMax:     cfg.AllocationRetryMax,
		now:          time.Now,
	}
}

// EnsureBeds idempotently seeds beds 1..total and verifies the count.
// Called once at startup; a count mismatch is fatal there.
func (s *ReservationService) EnsureBeds(ctx context.Context) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InitBeds(ctx, s.totalBeds)
	})
}

// Summary returns the aggregate bed counts.
func (s *ReservationService) Summary(ctx context.Context) (models.BedSummary, error) {
	var sum models.BedSummary
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		sum, err = tx.CountBeds(ctx)
		return err
	})
	return sum, err
}

// BedSnapshot returns a consistent (bed_id, status) listing.
func (s *ReservationService) BedSnapshot(ctx context.Context) ([]models.Bed, error) {
	var beds []models.Bed
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		beds, err = tx.SnapshotBeds(ctx)
		return err
	})
	return beds, err
}

// ActiveReservations returns the active reservations in creation order.
func (s *ReservationService) ActiveReservations(ctx context.Context) ([]*models.Reservation, error) {
	var out []*models.Reservation
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.ListActiveReservations(ctx)
		return err
	})
	return out, err
}

// GetByCode returns one reservation by confirmation code.
func (s *ReservationService) GetByCode(ctx context.Context, code string) (*models.Reservation, error) {
	var r *models.Reservation
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		r, err = tx.ReservationByCode(ctx, code)
		return mapStoreError(err)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Create allocates the lowest-numbered available bed and installs an
// active reservation on it. A lost race retries up to the configured cap
// with small jitter before surfacing conflict.
func (s *ReservationService) Create(ctx context.Context, input CreateReservationInput) (*models.Reservation, error) {
	if strings.TrimSpace(input.CallerName) == "" {
		return nil, NewValidationError("caller_name", "caller name is required")
	}
	language := input.Language
	if language == "" {
		language = "en"
	}

	var created *models.Reservation
	for attempt := 1; ; attempt++ {
		err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			if input.CallerHash != "" {
				_, err := tx.ActiveReservationByCaller(ctx, input.CallerHash)
				if err == nil {
					return ErrAlreadyReserved
				}
				if !errors.Is(err, store.ErrNotFound) {
					return err
				}
			}

			bedID, ok, err := tx.FirstAvailableBed(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNoCapacity
			}
			if err := tx.TransitionBed(ctx, bedID, models.BedAvailable, models.BedHeld); err != nil {
				return err
			}

			now := s.now().UTC()
			r := &models.Reservation{
				ID:         uuid.New().String(),
				Code:       newConfirmationCode(),
				BedID:      bedID,
				CallerHash: input.CallerHash,
				CallerName: strings.TrimSpace(input.CallerName),
				Situation:  input.Situation,
				Needs:      input.Needs,
				Language:   language,
				Status:     models.ReservationActive,
				CreatedAt:  now,
				ExpiresAt:  now.Add(s.holdDuration),
			}
			if err := tx.InsertReservation(ctx, r); err != nil {
				return err
			}
			created = r
			return nil
		})
		switch {
		case err == nil:
			s.publish(
				events.NewBedStatusChanged(created.BedID, models.BedAvailable, models.BedHeld),
				events.NewReservationEvent(events.EventTypeReservationCreated, created),
			)
			slog.Info("Reservation created",
				"confirmation_code", created.Code, "bed_id", created.BedID,
				"language", created.Language, "expires_at", created.ExpiresAt)
			return created, nil
		case errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrDuplicateCode):
			if attempt > s.retryMax {
				return nil, fmt.Errorf("allocation lost %d races: %w", attempt, ErrConflict)
			}
			s.backoff(ctx)
		default:
			return nil, err
		}
	}
}

// Cancel moves an active reservation to cancelled and releases its bed.
// Cancelling an already-cancelled reservation is a no-op. An active
// reservation that is past its expiry but not yet swept is expired here
// instead of cancelled: the hold was already gone.
func (s *ReservationService) Cancel(ctx context.Context, code string) (*models.Reservation, error) {
	var (
		r       *models.Reservation
		changed bool
		expired bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		changed, expired = false, false
		r, err = tx.ReservationByCode(ctx, code)
		if err != nil {
			return mapStoreError(err)
		}
		switch r.Status {
		case models.ReservationCancelled:
			return nil
		case models.ReservationExpired:
			return ErrReservationExpired
		case models.ReservationCheckedIn:
			return fmt.Errorf("reservation %s already checked in: %w", code, ErrConflict)
		}

		now := s.now().UTC()
		to := models.ReservationCancelled
		if !now.Before(r.ExpiresAt) {
			to = models.ReservationExpired
			expired = true
		}
		if err := tx.UpdateReservationStatus(ctx, code, models.ReservationActive, to, &now); err != nil {
			return mapStoreError(err)
		}
		if err := tx.TransitionBed(ctx, r.BedID, models.BedHeld, models.BedAvailable); err != nil {
			return mapStoreError(err)
		}
		r.Status = to
		r.ResolvedAt = &now
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		s.publish(
			events.NewReservationEvent(events.EventTypeReservationExpired, r),
			events.NewBedStatusChanged(r.BedID, models.BedHeld, models.BedAvailable),
		)
		slog.Info("Overdue reservation expired on cancel", "confirmation_code", code, "bed_id", r.BedID)
		return nil, ErrReservationExpired
	}
	if changed {
		s.publish(
			events.NewReservationEvent(events.EventTypeReservationCancelled, r),
			events.NewBedStatusChanged(r.BedID, models.BedHeld, models.BedAvailable),
		)
		slog.Info("Reservation cancelled", "confirmation_code", code, "bed_id", r.BedID)
	}
	return r, nil
}

// CheckIn moves an active reservation to checked_in and occupies its bed.
// Checking in twice is a no-op; a wrong bed number is rejected before any
// state change.
func (s *ReservationService) CheckIn(ctx context.Context, code string, bedID int) (*models.Reservation, error) {
	var (
		r       *models.Reservation
		changed bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		changed = false
		r, err = tx.ReservationByCode(ctx, code)
		if err != nil {
			return mapStoreError(err)
		}
		if r.BedID != bedID {
			return fmt.Errorf("reservation %s holds bed %d: %w", code, r.BedID, ErrBedMismatch)
		}
		switch r.Status {
		case models.ReservationCheckedIn:
			return nil
		case models.ReservationExpired:
			return ErrReservationExpired
		case models.ReservationCancelled:
			return fmt.Errorf("reservation %s already cancelled: %w", code, ErrConflict)
		}

		now := s.now().UTC()
		if err := tx.UpdateReservationStatus(ctx, code, models.ReservationActive, models.ReservationCheckedIn, &now); err != nil {
			return mapStoreError(err)
		}
		if err := tx.TransitionBed(ctx, r.BedID, models.BedHeld, models.BedOccupied); err != nil {
			return mapStoreError(err)
		}
		r.Status = models.ReservationCheckedIn
		r.ResolvedAt = &now
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.publish(
			events.NewReservationEvent(events.EventTypeReservationCheckedIn, r),
			events.NewBedStatusChanged(r.BedID, models.BedHeld, models.BedOccupied),
		)
		slog.Info("Reservation checked in", "confirmation_code", code, "bed_id", bedID)
	}
	return r, nil
}

// CheckOut releases an occupied bed. The checked_in reservation keeps its
// status; only its terminal timestamp is stamped. Checking out an already
// available bed is a no-op.
func (s *ReservationService) CheckOut(ctx context.Context, bedID int) error {
	var changed bool
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		changed = false
		status, err := tx.BedStatus(ctx, bedID)
		if err != nil {
			return mapStoreError(err)
		}
		switch status {
		case models.BedAvailable:
			return nil
		case models.BedHeld:
			return fmt.Errorf("bed %d is held, not occupied: %w", bedID, ErrConflict)
		}

		r, err := tx.CheckedInReservationByBed(ctx, bedID)
		switch {
		case err == nil:
			if r.ResolvedAt == nil {
				now := s.now().UTC()
				if err := tx.UpdateReservationStatus(ctx, r.Code, models.ReservationCheckedIn, models.ReservationCheckedIn, &now); err != nil {
					return mapStoreError(err)
				}
			}
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		if err := tx.TransitionBed(ctx, bedID, models.BedOccupied, models.BedAvailable); err != nil {
			return mapStoreError(err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		s.publish(events.NewBedStatusChanged(bedID, models.BedOccupied, models.BedAvailable))
		slog.Info("Bed checked out", "bed_id", bedID)
	}
	return nil
}

// HoldBed places a manual front-desk hold on a specific bed. The hold is
// backed by a shadow reservation so held beds always carry exactly one
// active reservation.
func (s *ReservationService) HoldBed(ctx context.Context, bedID int) (*models.Reservation, error) {
	var created *models.Reservation
	for attempt := 1; ; attempt++ {
		err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			if err := tx.TransitionBed(ctx, bedID, models.BedAvailable, models.BedHeld); err != nil {
				return mapStoreError(err)
			}
			now := s.now().UTC()
			r := &models.Reservation{
				ID:         uuid.New().String(),
				Code:       newConfirmationCode(),
				BedID:      bedID,
				CallerName: frontDeskCaller,
				Situation:  "manual hold via staff API",
				Language:   "en",
				Status:     models.ReservationActive,
				CreatedAt:  now,
				ExpiresAt:  now.Add(s.holdDuration),
			}
			if err := tx.InsertReservation(ctx, r); err != nil {
				return err
			}
			created = r
			return nil
		})
		switch {
		case err == nil:
			s.publish(
				events.NewBedStatusChanged(bedID, models.BedAvailable, models.BedHeld),
				events.NewReservationEvent(events.EventTypeReservationCreated, created),
			)
			slog.Info("Manual hold placed", "bed_id", bedID, "confirmation_code", created.Code)
			return created, nil
		case errors.Is(err, store.ErrDuplicateCode):
			if attempt > s.retryMax {
				return nil, fmt.Errorf("confirmation code collisions exhausted retries: %w", ErrConflict)
			}
		default:
			return nil, err
		}
	}
}

// WalkInCheckIn occupies a specific bed for a guest with no phone
// reservation, recording the stay as a checked_in reservation.
func (s *ReservationService) WalkInCheckIn(ctx context.Context, bedID int, guestName string) (*models.Reservation, error) {
	if strings.TrimSpace(guestName) == "" {
		return nil, NewValidationError("guest_name", "guest name is required")
	}

	var created *models.Reservation
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.TransitionBed(ctx, bedID, models.BedAvailable, models.BedOccupied); err != nil {
			return mapStoreError(err)
		}
		now := s.now().UTC()
		r := &models.Reservation{
			ID:         uuid.New().String(),
			Code:       newConfirmationCode(),
			BedID:      bedID,
			CallerName: strings.TrimSpace(guestName),
			Situation:  "walk-in",
			Language:   "en",
			Status:     models.ReservationCheckedIn,
			CreatedAt:  now,
			ExpiresAt:  now.Add(s.holdDuration),
			ResolvedAt: &now,
		}
		if err := tx.InsertReservation(ctx, r); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(
		events.NewBedStatusChanged(bedID, models.BedAvailable, models.BedOccupied),
		events.NewReservationEvent(events.EventTypeReservationCheckedIn, created),
	)
	slog.Info("Walk-in checked in", "bed_id", bedID, "confirmation_code", created.Code)
	return created, nil
}

// AssignGuest links a guest directory record to the stay occupying
// bedID. The bed must have a checked-in guest; the link goes on that
// reservation.
func (s *ReservationService) AssignGuest(ctx context.Context, bedID, guestID int) (*models.Reservation, error) {
	if guestID < 1 {
		return nil, NewValidationError("guest_id", "guest id must be a positive integer")
	}

	var r *models.Reservation
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.BedStatus(ctx, bedID); err != nil {
			return mapStoreError(err)
		}
		var err error
		r, err = tx.CheckedInReservationByBed(ctx, bedID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("bed %d has no checked-in guest: %w", bedID, ErrConflict)
		}
		if err != nil {
			return err
		}
		if err := tx.SetReservationGuest(ctx, r.Code, guestID); err != nil {
			return mapStoreError(err)
		}
		r.GuestID = &guestID
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Guest assigned to bed", "bed_id", bedID, "guest_id", guestID)
	return r, nil
}

// RemainingMinutes reports whole minutes before r expires, on the
// service clock.
func (s *ReservationService) RemainingMinutes(r *models.Reservation) int {
	return r.RemainingMinutes(s.now().UTC())
}

// ExpireDue transitions every overdue active reservation to expired and
// releases its bed. Each reservation is its own transaction; a racing
// check-in or cancel wins and is left in place. Returns how many
// reservations this pass expired.
func (s *ReservationService) ExpireDue(ctx context.Context) (int, error) {
	now := s.now().UTC()

	var due []*models.Reservation
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		due, err = tx.ListExpiringBefore(ctx, now)
		return err
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, r := range due {
		err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			ts := now
			if err := tx.UpdateReservationStatus(ctx, r.Code, models.ReservationActive, models.ReservationExpired, &ts); err != nil {
				return err
			}
			return tx.TransitionBed(ctx, r.BedID, models.BedHeld, models.BedAvailable)
		})
		switch {
		case err == nil:
			count++
			r.Status = models.ReservationExpired
			r.ResolvedAt = &now
			s.publish(
				events.NewReservationEvent(events.EventTypeReservationExpired, r),
				events.NewBedStatusChanged(r.BedID, models.BedHeld, models.BedAvailable),
			)
			slog.Info("Reservation expired", "confirmation_code", r.Code, "bed_id", r.BedID)
		case errors.Is(err, store.ErrConflict):
			// A check-in or cancel won the race; the winner's effect stays.
		default:
			return count, err
		}
	}
	return count, nil
}

// SetNowFunc replaces the clock. Test hook.
func (s *ReservationService) SetNowFunc(now func() time.Time) {
	s.now = now
}

func (s *ReservationService) publish(evs ...events.Event) {
	for _, e := range evs {
		s.publisher.Publish(e)
	}
}

// backoff sleeps a few milliseconds of jitter between allocation retries.
func (s *ReservationService) backoff(ctx context.Context) {
	t := time.NewTimer(time.Duration(1+rand.IntN(20)) * time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// newConfirmationCode returns a short human-readable token like BM-4821.
// Uniqueness is enforced by the store; collisions retry with a new code.
func newConfirmationCode() string {
	return fmt.Sprintf("BM-%04d", rand.IntN(10000))
}

// mapStoreError translates store sentinels into service sentinels.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return errors.Join(err, ErrConflict)
	default:
		return err
	}
}
