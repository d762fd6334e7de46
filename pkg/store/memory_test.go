package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethesda-mission/shelterline/pkg/models"
)

func newTestStore(t *testing.T, totalBeds int) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.InitBeds(ctx, totalBeds)
	})
	require.NoError(t, err)
	return s
}

func TestMemoryStore_InitBeds(t *testing.T) {
	s := newTestStore(t, models.TotalBeds)

	err := s.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		beds, err := tx.SnapshotBeds(ctx)
		require.NoError(t, err)
		require.Len(t, beds, models.TotalBeds)
		assert.Equal(t, 1, beds[0].ID)
		assert.Equal(t, models.TotalBeds, beds[len(beds)-1].ID)
		for _, b := range beds {
			assert.Equal(t, models.BedAvailable, b.Status)
		}

		sum, err := tx.CountBeds(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.TotalBeds, sum.Total)
		assert.Equal(t, models.TotalBeds, sum.Available)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_InitBedsIdempotent(t *testing.T) {
	s := newTestStore(t, 4)

	// Occupy a bed, then re-run init: the occupied bed must survive.
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.TransitionBed(ctx, 2, models.BedAvailable, models.BedOccupied)
	})
	require.NoError(t, err)

	err = s.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.InitBeds(ctx, 4)
	})
	require.NoError(t, err)

	err = s.WithinTx(context.Background(), func(ctx context.Context, tx Tx) error {
		status, err := tx.BedStatus(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, models.BedOccupied, status)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_TransitionBedCAS(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.TransitionBed(ctx, 1, models.BedAvailable, models.BedHeld)
	})
	require.NoError(t, err)

	// Second transition from the same expected status loses.
	err = s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.TransitionBed(ctx, 1, models.BedAvailable, models.BedHeld)
	})
	assert.ErrorIs(t, err, ErrConflict)

	// Unknown bed id.
	err = s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.TransitionBed(ctx, 99, models.BedAvailable, models.BedHeld)
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_FirstAvailableBed(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.TransitionBed(ctx, 1, models.BedAvailable, models.BedOccupied))

		bedID, ok, err := tx.FirstAvailableBed(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 2, bedID)

		require.NoError(t, tx.TransitionBed(ctx, 2, models.BedAvailable, models.BedHeld))
		require.NoError(t, tx.TransitionBed(ctx, 3, models.BedAvailable, models.BedHeld))

		_, ok, err = tx.FirstAvailableBed(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_RollbackOnError(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.TransitionBed(ctx, 1, models.BedAvailable, models.BedHeld))
		require.NoError(t, tx.InsertReservation(ctx, &models.Reservation{
			ID:     "r-1",
			Code:   "BM-0001",
			BedID:  1,
			Status: models.ReservationActive,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Neither the bed transition nor the insert is visible.
	err = s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		status, err := tx.BedStatus(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.BedAvailable, status)

		_, err = tx.ReservationByCode(ctx, "BM-0001")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_ReservationLifecycle(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	res := &models.Reservation{
		ID:         "r-1",
		Code:       "BM-4821",
		BedID:      1,
		CallerHash: "hash-a",
		CallerName: "John",
		Status:     models.ReservationActive,
		CreatedAt:  created,
		ExpiresAt:  created.Add(3 * time.Hour),
	}

	err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.TransitionBed(ctx, 1, models.BedAvailable, models.BedHeld))
		return tx.InsertReservation(ctx, res)
	})
	require.NoError(t, err)

	// Duplicate confirmation code is rejected.
	err = s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertReservation(ctx, &models.Reservation{ID: "r-2", Code: "BM-4821", BedID: 2})
	})
	assert.ErrorIs(t, err, ErrDuplicateCode)

	err = s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		got, err := tx.ReservationByCode(ctx, "BM-4821")
		require.NoError(t, err)
		assert.Equal(t, "John", got.CallerName)

		byBed, err := tx.ActiveReservationByBed(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "BM-4821", byBed.Code)

		byCaller, err := tx.ActiveReservationByCaller(ctx, "hash-a")
		require.NoError(t, err)
		assert.Equal(t, "BM-4821", byCaller.Code)

		_, err = tx.ActiveReservationByCaller(ctx, "")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	// Cancel, then verify the CAS refuses a second terminal transition.
	resolved := created.Add(time.Hour)
	err = s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.UpdateReservationStatus(ctx, "BM-4821", models.ReservationActive, models.ReservationCancelled, &resolved)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.UpdateReservationStatus(ctx, "BM-4821", models.ReservationActive, models.ReservationExpired, &resolved)
	})
	assert.ErrorIs(t, err, ErrConflict)

	err = s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		got, err := tx.ReservationByCode(ctx, "BM-4821")
		require.NoError(t, err)
		assert.Equal(t, models.ReservationCancelled, got.Status)
		require.NotNil(t, got.ResolvedAt)
		assert.Equal(t, resolved, *got.ResolvedAt)

		_, err = tx.ActiveReservationByBed(ctx, 1)
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_ListOrdering(t *testing.T) {
	s := newTestStore(t, 4)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	insert := func(code string, bedID int, createdAt, expiresAt time.Time) {
		err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			return tx.InsertReservation(ctx, &models.Reservation{
				ID:        "id-" + code,
				Code:      code,
				BedID:     bedID,
				Status:    models.ReservationActive,
				CreatedAt: createdAt,
				ExpiresAt: expiresAt,
			})
		})
		require.NoError(t, err)
	}

	// Two share a creation instant; the code breaks the tie.
	insert("BM-0300", 3, base.Add(2*time.Minute), base.Add(3*time.Hour))
	insert("BM-0200", 2, base.Add(time.Minute), base.Add(time.Hour))
	insert("BM-0100", 1, base.Add(time.Minute), base.Add(2*time.Hour))

	err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		active, err := tx.ListActiveReservations(ctx)
		require.NoError(t, err)
		require.Len(t, active, 3)
		assert.Equal(t, "BM-0100", active[0].Code)
		assert.Equal(t, "BM-0200", active[1].Code)
		assert.Equal(t, "BM-0300", active[2].Code)

		expiring, err := tx.ListExpiringBefore(ctx, base.Add(90*time.Minute))
		require.NoError(t, err)
		require.Len(t, expiring, 1)
		assert.Equal(t, "BM-0200", expiring[0].Code)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_ChapelServices(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	svc := &models.ChapelService{
		Date:      "2026-03-04",
		Time:      "19:00",
		GroupName: "Grace Fellowship",
		Status:    models.ChapelConfirmed,
	}
	err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertChapelService(ctx, svc)
	})
	require.NoError(t, err)
	require.NotZero(t, svc.ID)

	err = s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		taken, err := tx.ChapelSlotTaken(ctx, "2026-03-04", "19:00")
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = tx.ChapelSlotTaken(ctx, "2026-03-04", "10:00")
		require.NoError(t, err)
		assert.False(t, taken)
		return nil
	})
	require.NoError(t, err)

	// A cancelled booking frees its slot.
	svc.Status = models.ChapelCancelled
	err = s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.UpdateChapelService(ctx, svc)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		taken, err := tx.ChapelSlotTaken(ctx, "2026-03-04", "19:00")
		require.NoError(t, err)
		assert.False(t, taken)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_Volunteers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	v := &models.Volunteer{
		Name:         "Maria Lopez",
		Phone:        "555-0102",
		Availability: []string{"weekends"},
		Interests:    []string{"meals"},
		Status:       models.VolunteerPending,
	}
	err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertVolunteer(ctx, v)
	})
	require.NoError(t, err)
	require.NotZero(t, v.ID)

	// Mutating the caller's slices after insert must not leak into the store.
	v.Interests[0] = "mutated"

	err = s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		got, err := tx.VolunteerByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"meals"}, got.Interests)

		_, err = tx.VolunteerByID(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_ConcurrentTransitions(t *testing.T) {
	s := newTestStore(t, 1)
	ctx := context.Background()

	// Many goroutines race to hold the single bed; exactly one wins.
	const racers = 16
	var wins, conflicts int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
				return tx.TransitionBed(ctx, 1, models.BedAvailable, models.BedHeld)
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)
}

func TestMemoryStore_ContextCancellation(t *testing.T) {
	s := newTestStore(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A context cancelled before the call must never reach the
	// transaction body, even when the store is otherwise idle.
	for i := 0; i < 50; i++ {
		ran := false
		err := s.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			ran = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ran)
	}
}
