package call

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bethesda-mission/shelterline/pkg/config"
	"github.com/bethesda-mission/shelterline/pkg/models"
	"github.com/bethesda-mission/shelterline/pkg/services"
)

// ErrToolTimeout is returned when a tool invocation times out on every
// attempt. Session logic degrades gracefully instead of surfacing it to
// the caller.
var ErrToolTimeout = errors.New("tool call timed out")

// Tool names as they appear in logs.
const (
	toolCheckAvailability = "check_availability"
	toolReserveBed        = "reserve_bed"
	toolScheduleChapel    = "schedule_chapel_service"
	toolRegisterVolunteer = "register_volunteer"
	toolEndCall           = "end_call"
)

// ToolRouter invokes the backing services on behalf of call sessions.
// Every tool runs under the same per-call deadline, and a call that hits
// the deadline is retried at most ToolRetryMax times. Domain errors
// (validation, no capacity, slot taken) pass through untouched so the
// session can phrase them for the caller.
type ToolRouter struct {
	reservations *services.ReservationService
	chapel       *services.ChapelService
	volunteers   *services.VolunteerService
	deadline     time.Duration
	retryMax     int
}

// NewToolRouter creates a router over the three domain services.
func NewToolRouter(
	reservations *services.ReservationService,
	chapel *services.ChapelService,
	volunteers *services.VolunteerService,
	cfg *config.CallConfig,
) *ToolRouter {
	if reservations == nil || chapel == nil || volunteers == nil {
		panic("NewToolRouter: services must not be nil")
	}
	if cfg == nil {
		panic("NewToolRouter: cfg must not be nil")
	}
	return &ToolRouter{
		reservations: reservations,
		chapel:       chapel,
		volunteers:   volunteers,
		deadline:     cfg.ToolCallDeadline,
		retryMax:     cfg.ToolRetryMax,
	}
}

// CheckAvailability returns the current bed counts.
func (r *ToolRouter) CheckAvailability(ctx context.Context) (models.BedSummary, error) {
	var summary models.BedSummary
	err := r.invoke(ctx, toolCheckAvailability, func(ctx context.Context) error {
		var err error
		summary, err = r.reservations.Summary(ctx)
		return err
	})
	return summary, err
}

// ReserveBed places a three-hour hold for the caller.
func (r *ToolRouter) ReserveBed(ctx context.Context, input services.CreateReservationInput) (*models.Reservation, error) {
	var reservation *models.Reservation
	err := r.invoke(ctx, toolReserveBed, func(ctx context.Context) error {
		var err error
		reservation, err = r.reservations.Create(ctx, input)
		return err
	})
	return reservation, err
}

// ScheduleChapel books a chapel slot for a visiting group.
func (r *ToolRouter) ScheduleChapel(ctx context.Context, input services.ScheduleChapelInput) (*models.ChapelService, error) {
	var service *models.ChapelService
	err := r.invoke(ctx, toolScheduleChapel, func(ctx context.Context) error {
		var err error
		service, err = r.chapel.Schedule(ctx, input)
		return err
	})
	return service, err
}

// RegisterVolunteer records a volunteer signup.
func (r *ToolRouter) RegisterVolunteer(ctx context.Context, input services.RegisterVolunteerInput) (*models.Volunteer, error) {
	var volunteer *models.Volunteer
	err := r.invoke(ctx, toolRegisterVolunteer, func(ctx context.Context) error {
		var err error
		volunteer, err = r.volunteers.Register(ctx, input)
		return err
	})
	return volunteer, err
}

// invoke runs fn under the router deadline, retrying timeouts. Any other
// error, including domain errors, returns immediately.
func (r *ToolRouter) invoke(ctx context.Context, tool string, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= r.retryMax+1; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, r.deadline)
		err = fn(callCtx)
		cancel()
		if err == nil || !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		// The parent context expiring means the call is gone; stop retrying.
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", tool, ErrToolTimeout)
		}
		slog.Warn("Tool call timed out",
			"tool", tool,
			"attempt", attempt,
			"deadline", r.deadline)
	}
	return fmt.Errorf("%s: %w", tool, ErrToolTimeout)
}
