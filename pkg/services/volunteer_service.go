package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bethesda-mission/shelterline/pkg/models"
	"github.com/bethesda-mission/shelterline/pkg/store"
)

// RegisterVolunteerInput contains the data needed to register a volunteer.
type RegisterVolunteerInput struct {
	Name         string
	Phone        string
	Email        string
	Availability []string
	Interests    []string
	Notes        string
}

// VolunteerService manages volunteer registrations.
type VolunteerService struct {
	store store.Store

	now func() time.Time
}

// NewVolunteerService creates a new VolunteerService.
func NewVolunteerService(st store.Store) *VolunteerService {
	if st == nil {
		panic("NewVolunteerService: store must not be nil")
	}
	return &VolunteerService{store: st, now: time.Now}
}

// Register stores a new volunteer in pending status for staff follow-up.
func (s *VolunteerService) Register(ctx context.Context, input RegisterVolunteerInput) (*models.Volunteer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, NewValidationError("name", "name is required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return nil, NewValidationError("phone", "phone is required")
	}

	now := s.now().UTC()
	v := &models.Volunteer{
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		Email:        input.Email,
		Availability: input.Availability,
		Interests:    input.Interests,
		Notes:        input.Notes,
		Status:       models.VolunteerPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if v.Availability == nil {
		v.Availability = []string{}
	}
	if v.Interests == nil {
		v.Interests = []string{}
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertVolunteer(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Volunteer registered", "id", v.ID, "name", v.Name)
	return v, nil
}

// Get returns one volunteer.
func (s *VolunteerService) Get(ctx context.Context, id int) (*models.Volunteer, error) {
	var v *models.Volunteer
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		v, err = tx.VolunteerByID(ctx, id)
		return mapStoreError(err)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// List returns all volunteers ordered by name.
func (s *VolunteerService) List(ctx context.Context) ([]*models.Volunteer, error) {
	var out []*models.Volunteer
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.ListVolunteers(ctx)
		return err
	})
	return out, err
}

// UpdateStatus moves a volunteer between pending, active, and inactive.
func (s *VolunteerService) UpdateStatus(ctx context.Context, id int, status models.VolunteerStatus) (*models.Volunteer, error) {
	switch status {
	case models.VolunteerPending, models.VolunteerActive, models.VolunteerInactive:
	default:
		return nil, NewValidationError("status", "unknown status")
	}

	var v *models.Volunteer
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		v, err = tx.VolunteerByID(ctx, id)
		if err != nil {
			return mapStoreError(err)
		}
		v.Status = status
		v.UpdatedAt = s.now().UTC()
		return mapStoreError(tx.UpdateVolunteer(ctx, v))
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
