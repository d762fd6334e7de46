// Package expire provides the reservation expiration sweeper.
package expire

import (
	"context"
	"log/slog"
	"time"

	"github.com/bethesda-mission/shelterline/pkg/services"
)

// Sweeper periodically reclaims beds from overdue active reservations.
// One pull-based sweep loop instead of per-reservation timers: it survives
// restarts without state and tolerates clock adjustments, with worst-case
// lateness of one tick. It sweeps once immediately on start to clear any
// backlog from downtime.
type Sweeper struct {
	reservations *services.ReservationService
	tick         time.Duration

	cancel context.CancelFunc
	done   chan struct{}

	// now is replaceable in tests
	now func() time.Time

	lastSummaryDay string
}

// NewSweeper creates a new Sweeper. tick must be positive and at most a
// minute; config validation enforces that before this is reached.
func NewSweeper(reservations *services.ReservationService, tick time.Duration) *Sweeper {
	if reservations == nil {
		panic("NewSweeper: reservations must not be nil")
	}
	return &Sweeper{
		reservations: reservations,
		tick:         tick,
		now:          time.Now,
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Expiration sweeper started", "tick", s.tick)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Expiration sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	s.Sweep(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			started := s.now()
			s.Sweep(ctx)
			// If a sweep overran the tick, drain the pending fire so
			// slow passes do not pile up.
			if s.now().Sub(started) > s.tick {
				select {
				case <-ticker.C:
				default:
				}
			}
		}
	}
}

// Sweep runs one expiration pass. Safe to call concurrently with the
// loop: every transition is a compare-and-set, so a duplicate pass is a
// no-op. Also exposed through the admin expire endpoint.
func (s *Sweeper) Sweep(ctx context.Context) {
	count, err := s.reservations.ExpireDue(ctx)
	if err != nil {
		slog.Error("Expiration sweep failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Expiration sweep reclaimed beds", "count", count)
	}
	s.maybeLogDailySummary(ctx)
}

// maybeLogDailySummary emits one occupancy summary line per calendar day,
// on the first sweep after midnight UTC.
func (s *Sweeper) maybeLogDailySummary(ctx context.Context) {
	day := s.now().UTC().Format("2006-01-02")
	if day == s.lastSummaryDay {
		return
	}
	sum, err := s.reservations.Summary(ctx)
	if err != nil {
		slog.Error("Daily summary failed", "error", err)
		return
	}
	s.lastSummaryDay = day
	slog.Info("Daily occupancy summary",
		"date", day,
		"available", sum.Available,
		"held", sum.Held,
		"occupied", sum.Occupied,
		"total", sum.Total)
}
