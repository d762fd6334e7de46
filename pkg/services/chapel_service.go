package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bethesda-mission/shelterline/pkg/config"
	"github.com/bethesda-mission/shelterline/pkg/models"
	"github.com/bethesda-mission/shelterline/pkg/store"
)

// ScheduleChapelInput contains the data needed to book a chapel service.
type ScheduleChapelInput struct {
	Date         string // YYYY-MM-DD
	Time         string // HH:MM, one of the configured slots
	GroupName    string
	ContactName  string
	ContactPhone string
	ContactEmail string
	Notes        string
}

// ChapelService schedules weekday chapel services led by visiting groups.
// Slots are a closed set; a slot takes at most one non-cancelled booking.
type ChapelService struct {
	store store.Store
	cfg   *config.ChapelConfig

	now func() time.Time
}

// NewChapelService creates a new ChapelService.
func NewChapelService(st store.Store, cfg *config.ChapelConfig) *ChapelService {
	if st == nil {
		panic("NewChapelService: store must not be nil")
	}
	if cfg == nil {
		panic("NewChapelService: cfg must not be nil")
	}
	return &ChapelService{
		store: st,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Schedule validates and books one chapel slot. Weekend dates and
// off-slot times are rejected before any state change; a taken slot
// surfaces as ErrSlotTaken.
func (s *ChapelService) Schedule(ctx context.Context, input ScheduleChapelInput) (*models.ChapelService, error) {
	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		return nil, NewValidationError("date", "date must be YYYY-MM-DD")
	}
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return nil, ErrWeekendDisallowed
	}
	if !s.cfg.SlotAllowed(input.Time) {
		return nil, NewValidationError("time",
			fmt.Sprintf("time must be one of %s", strings.Join(s.cfg.TimeSlots, ", ")))
	}
	if strings.TrimSpace(input.GroupName) == "" {
		return nil, NewValidationError("group_name", "group name is required")
	}

	now := s.now().UTC()
	svc := &models.ChapelService{
		Date:         input.Date,
		Time:         input.Time,
		GroupName:    strings.TrimSpace(input.GroupName),
		ContactName:  input.ContactName,
		ContactPhone: input.ContactPhone,
		ContactEmail: input.ContactEmail,
		Notes:        input.Notes,
		Status:       models.ChapelConfirmed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		taken, err := tx.ChapelSlotTaken(ctx, input.Date, input.Time)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotTaken
		}
		return tx.InsertChapelService(ctx, svc)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Chapel service scheduled",
		"id", svc.ID, "date", svc.Date, "time", svc.Time, "group", svc.GroupName)
	return svc, nil
}

// Get returns one chapel booking.
func (s *ChapelService) Get(ctx context.Context, id int) (*models.ChapelService, error) {
	var svc *models.ChapelService
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		svc, err = tx.ChapelServiceByID(ctx, id)
		return mapStoreError(err)
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// List returns all bookings ordered by date then time.
func (s *ChapelService) List(ctx context.Context) ([]*models.ChapelService, error) {
	var out []*models.ChapelService
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.ListChapelServices(ctx)
		return err
	})
	return out, err
}

// UpdateStatus moves a booking to a new status. Cancelling frees its slot.
func (s *ChapelService) UpdateStatus(ctx context.Context, id int, status models.ChapelStatus) (*models.ChapelService, error) {
	switch status {
	case models.ChapelPending, models.ChapelConfirmed, models.ChapelCompleted, models.ChapelCancelled:
	default:
		return nil, NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	var svc *models.ChapelService
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		svc, err = tx.ChapelServiceByID(ctx, id)
		if err != nil {
			return mapStoreError(err)
		}
		svc.Status = status
		svc.UpdatedAt = s.now().UTC()
		return mapStoreError(tx.UpdateChapelService(ctx, svc))
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Chapel service updated", "id", id, "status", status)
	return svc, nil
}
