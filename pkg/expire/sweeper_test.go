package expire

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethesda-mission/shelterline/pkg/config"
	"github.com/bethesda-mission/shelterline/pkg/events"
	"github.com/bethesda-mission/shelterline/pkg/models"
	"github.com/bethesda-mission/shelterline/pkg/services"
	"github.com/bethesda-mission/shelterline/pkg/store"
)

func newTestSetup(t *testing.T) (*services.ReservationService, *Sweeper) {
	t.Helper()
	st := store.NewMemoryStore()
	cfg := &config.ShelterConfig{
		TotalBeds:          4,
		HoldDuration:       3 * time.Hour,
		ExpirationTick:     30 * time.Second,
		AllocationRetryMax: 8,
	}
	svc := services.NewReservationService(st, cfg, events.NopPublisher{})
	require.NoError(t, svc.EnsureBeds(context.Background()))
	return svc, NewSweeper(svc, cfg.ExpirationTick)
}

func TestSweeper_SweepReclaimsOverdueHolds(t *testing.T) {
	svc, sweeper := newTestSetup(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	svc.SetNowFunc(func() time.Time { return start })
	sweeper.now = func() time.Time { return start }

	r, err := svc.Create(ctx, services.CreateReservationInput{CallerName: "John"})
	require.NoError(t, err)

	// Not yet due.
	sweeper.Sweep(ctx)
	got, err := svc.GetByCode(ctx, r.Code)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationActive, got.Status)

	// Past the deadline the hold is reclaimed within one sweep.
	later := start.Add(3*time.Hour + 30*time.Second)
	svc.SetNowFunc(func() time.Time { return later })
	sweeper.now = func() time.Time { return later }
	sweeper.Sweep(ctx)

	got, err = svc.GetByCode(ctx, r.Code)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationExpired, got.Status)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Available)
}

func TestSweeper_SweepIsIdempotent(t *testing.T) {
	svc, sweeper := newTestSetup(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	svc.SetNowFunc(func() time.Time { return start })
	_, err := svc.Create(ctx, services.CreateReservationInput{CallerName: "John"})
	require.NoError(t, err)

	svc.SetNowFunc(func() time.Time { return start.Add(4 * time.Hour) })
	sweeper.Sweep(ctx)
	sweeper.Sweep(ctx)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Available)
	assert.Equal(t, 0, sum.Held)
}

func TestSweeper_StartSweepsImmediately(t *testing.T) {
	svc, sweeper := newTestSetup(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	svc.SetNowFunc(func() time.Time { return start })
	r, err := svc.Create(ctx, services.CreateReservationInput{CallerName: "John"})
	require.NoError(t, err)

	// Simulate a restart after the hold lapsed: the startup sweep clears
	// the backlog without waiting for the first tick.
	svc.SetNowFunc(func() time.Time { return start.Add(4 * time.Hour) })
	sweeper.tick = time.Hour
	sweeper.Start(ctx)
	defer sweeper.Stop()

	require.Eventually(t, func() bool {
		got, err := svc.GetByCode(ctx, r.Code)
		return err == nil && got.Status == models.ReservationExpired
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweeper_StartStopTwice(t *testing.T) {
	_, sweeper := newTestSetup(t)

	sweeper.Start(context.Background())
	sweeper.Start(context.Background())
	sweeper.Stop()
	sweeper.Stop()
}
