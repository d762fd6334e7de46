package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bethesda-mission/shelterline/pkg/models"
)

// MemoryStore is the in-process Store implementation. One mutex guards
// the whole state, which makes each WithinTx call the single critical
// section the allocation protocol needs. Transactions run against a copy
// of the state and commit by swapping it in, so a failed fn leaves no
// partial effect.
type MemoryStore struct {
	mu    chan struct{} // 1-slot semaphore: mutex that respects ctx cancellation
	state *memState
}

type memState struct {
	beds         map[int]models.Bed
	reservations map[string]*models.Reservation // keyed by confirmation code
	chapel       map[int]*models.ChapelService
	volunteers   map[int]*models.Volunteer
	nextChapelID int
	nextVolID    int
}

// NewMemoryStore creates an empty in-memory store. Callers still run
// InitBeds inside a transaction, same as with postgres.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		mu: make(chan struct{}, 1),
		state: &memState{
			beds:         make(map[int]models.Bed),
			reservations: make(map[string]*models.Reservation),
			chapel:       make(map[int]*models.ChapelService),
			volunteers:   make(map[int]*models.Volunteer),
			nextChapelID: 1,
			nextVolID:    1,
		},
	}
	return s
}

// WithinTx runs fn against a deep copy of the state and publishes the
// copy on success. Serialized by the store-wide lock; there is never a
// concurrent writer to lose a CAS against mid-transaction, so ErrConflict
// here only means a stale expected status.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	// A select with both channels ready picks at random; an already
	// cancelled context must never start a transaction.
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.mu <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.mu }()

	working := s.state.clone()
	if err := fn(ctx, &memTx{state: working}); err != nil {
		return err
	}
	s.state = working
	return nil
}

// Close implements Store. Nothing to release.
func (s *MemoryStore) Close() error { return nil }

func (st *memState) clone() *memState {
	c := &memState{
		beds:         make(map[int]models.Bed, len(st.beds)),
		reservations: make(map[string]*models.Reservation, len(st.reservations)),
		chapel:       make(map[int]*models.ChapelService, len(st.chapel)),
		volunteers:   make(map[int]*models.Volunteer, len(st.volunteers)),
		nextChapelID: st.nextChapelID,
		nextVolID:    st.nextVolID,
	}
	for id, b := range st.beds {
		c.beds[id] = b
	}
	for code, r := range st.reservations {
		cp := *r
		c.reservations[code] = &cp
	}
	for id, ch := range st.chapel {
		cp := *ch
		c.chapel[id] = &cp
	}
	for id, v := range st.volunteers {
		cp := *v
		cp.Availability = append([]string(nil), v.Availability...)
		cp.Interests = append([]string(nil), v.Interests...)
		c.volunteers[id] = &cp
	}
	return c
}

// memTx applies Tx operations to the working copy.
type memTx struct {
	state *memState
}

func (t *memTx) InitBeds(_ context.Context, total int) error {
	now := time.Now().UTC()
	for id := 1; id <= total; id++ {
		if _, exists := t.state.beds[id]; !exists {
			t.state.beds[id] = models.Bed{ID: id, Status: models.BedAvailable, UpdatedAt: now}
		}
	}
	if len(t.state.beds) != total {
		return fmt.Errorf("bed table holds %d rows, want %d", len(t.state.beds), total)
	}
	return nil
}

func (t *memTx) SnapshotBeds(_ context.Context) ([]models.Bed, error) {
	beds := make([]models.Bed, 0, len(t.state.beds))
	for _, b := range t.state.beds {
		beds = append(beds, b)
	}
	sort.Slice(beds, func(i, j int) bool { return beds[i].ID < beds[j].ID })
	return beds, nil
}

func (t *memTx) BedStatus(_ context.Context, bedID int) (models.BedStatus, error) {
	b, ok := t.state.beds[bedID]
	if !ok {
		return "", ErrNotFound
	}
	return b.Status, nil
}

func (t *memTx) FirstAvailableBed(_ context.Context) (int, bool, error) {
	best := 0
	for id, b := range t.state.beds {
		if b.Status != models.BedAvailable {
			continue
		}
		if best == 0 || id < best {
			best = id
		}
	}
	return best, best != 0, nil
}

func (t *memTx) TransitionBed(_ context.Context, bedID int, from, to models.BedStatus) error {
	b, ok := t.state.beds[bedID]
	if !ok {
		return ErrNotFound
	}
	if b.Status != from {
		return fmt.Errorf("bed %d is %s, not %s: %w", bedID, b.Status, from, ErrConflict)
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	t.state.beds[bedID] = b
	return nil
}

func (t *memTx) CountBeds(_ context.Context) (models.BedSummary, error) {
	sum := models.BedSummary{Total: len(t.state.beds)}
	for _, b := range t.state.beds {
		switch b.Status {
		case models.BedAvailable:
			sum.Available++
		case models.BedHeld:
			sum.Held++
		case models.BedOccupied:
			sum.Occupied++
		}
	}
	return sum, nil
}

func (t *memTx) InsertReservation(_ context.Context, r *models.Reservation) error {
	if _, exists := t.state.reservations[r.Code]; exists {
		return ErrDuplicateCode
	}
	cp := *r
	t.state.reservations[r.Code] = &cp
	return nil
}

func (t *memTx) ReservationByCode(_ context.Context, code string) (*models.Reservation, error) {
	r, ok := t.state.reservations[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (t *memTx) ActiveReservationByBed(_ context.Context, bedID int) (*models.Reservation, error) {
	for _, r := range t.state.reservations {
		if r.BedID == bedID && r.Status == models.ReservationActive {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) CheckedInReservationByBed(_ context.Context, bedID int) (*models.Reservation, error) {
	for _, r := range t.state.reservations {
		if r.BedID == bedID && r.Status == models.ReservationCheckedIn {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) ActiveReservationByCaller(_ context.Context, callerHash string) (*models.Reservation, error) {
	if callerHash == "" {
		return nil, ErrNotFound
	}
	for _, r := range t.state.reservations {
		if r.CallerHash == callerHash && r.Status == models.ReservationActive {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) ListActiveReservations(_ context.Context) ([]*models.Reservation, error) {
	return t.listActive(func(*models.Reservation) bool { return true }), nil
}

func (t *memTx) ListExpiringBefore(_ context.Context, cutoff time.Time) ([]*models.Reservation, error) {
	return t.listActive(func(r *models.Reservation) bool {
		return r.ExpiresAt.Before(cutoff)
	}), nil
}

func (t *memTx) listActive(keep func(*models.Reservation) bool) []*models.Reservation {
	var out []*models.Reservation
	for _, r := range t.state.reservations {
		if r.Status == models.ReservationActive && keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func (t *memTx) UpdateReservationStatus(_ context.Context, code string, from, to models.ReservationStatus, resolvedAt *time.Time) error {
	r, ok := t.state.reservations[code]
	if !ok {
		return ErrNotFound
	}
	if r.Status != from {
		return fmt.Errorf("reservation %s is %s, not %s: %w", code, r.Status, from, ErrConflict)
	}
	r.Status = to
	r.ResolvedAt = resolvedAt
	return nil
}

func (t *memTx) SetReservationGuest(_ context.Context, code string, guestID int) error {
	r, ok := t.state.reservations[code]
	if !ok {
		return ErrNotFound
	}
	r.GuestID = &guestID
	return nil
}

func (t *memTx) InsertChapelService(_ context.Context, s *models.ChapelService) error {
	s.ID = t.state.nextChapelID
	t.state.nextChapelID++
	cp := *s
	t.state.chapel[s.ID] = &cp
	return nil
}

func (t *memTx) ChapelServiceByID(_ context.Context, id int) (*models.ChapelService, error) {
	s, ok := t.state.chapel[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (t *memTx) ListChapelServices(_ context.Context) ([]*models.ChapelService, error) {
	out := make([]*models.ChapelService, 0, len(t.state.chapel))
	for _, s := range t.state.chapel {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (t *memTx) ChapelSlotTaken(_ context.Context, date, startTime string) (bool, error) {
	for _, s := range t.state.chapel {
		if s.Date == date && s.Time == startTime && s.Status != models.ChapelCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) UpdateChapelService(_ context.Context, s *models.ChapelService) error {
	if _, ok := t.state.chapel[s.ID]; !ok {
		return ErrNotFound
	}
	cp := *s
	t.state.chapel[s.ID] = &cp
	return nil
}

func (t *memTx) InsertVolunteer(_ context.Context, v *models.Volunteer) error {
	v.ID = t.state.nextVolID
	t.state.nextVolID++
	cp := *v
	cp.Availability = append([]string(nil), v.Availability...)
	cp.Interests = append([]string(nil), v.Interests...)
	t.state.volunteers[v.ID] = &cp
	return nil
}

func (t *memTx) VolunteerByID(_ context.Context, id int) (*models.Volunteer, error) {
	v, ok := t.state.volunteers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (t *memTx) ListVolunteers(_ context.Context) ([]*models.Volunteer, error) {
	out := make([]*models.Volunteer, 0, len(t.state.volunteers))
	for _, v := range t.state.volunteers {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (t *memTx) UpdateVolunteer(_ context.Context, v *models.Volunteer) error {
	if _, ok := t.state.volunteers[v.ID]; !ok {
		return ErrNotFound
	}
	cp := *v
	cp.Availability = append([]string(nil), v.Availability...)
	cp.Interests = append([]string(nil), v.Interests...)
	t.state.volunteers[v.ID] = &cp
	return nil
}
