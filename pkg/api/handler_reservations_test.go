package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethesda-mission/shelterline/pkg/models"
)

func TestCreateReservation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/reservations/",
		`{"caller_name":"James Carter","situation":"lost housing","needs":"shower"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var r models.Reservation
	decodeBody(t, rec, &r)
	assert.Equal(t, 1, r.BedID)
	assert.Regexp(t, `^BM-\d{4}$`, r.Code)
	assert.Equal(t, models.ReservationActive, r.Status)
}

func TestCreateReservation_Validation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/reservations/", `{"situation":"no name"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorDetail(t, rec), "caller_name")
}

func TestCreateReservation_DoubleBookConflict(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"caller_name":"Sam","caller_hash":"h-123"}`
	rec := doRequest(t, s, http.MethodPost, "/api/reservations/", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/reservations/", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, errorDetail(t, rec), "active reservation")
}

func TestGetReservation_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/reservations/BM-9999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "resource not found", errorDetail(t, rec))
}

func TestCancelReservation_Idempotent(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/reservations/", `{"caller_name":"Ann"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var r models.Reservation
	decodeBody(t, rec, &r)

	rec = doRequest(t, s, http.MethodPost, "/api/reservations/"+r.Code+"/cancel", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Cancelling again is a no-op, not an error.
	rec = doRequest(t, s, http.MethodPost, "/api/reservations/"+r.Code+"/cancel", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCancelReservation_ExpiredIsGone(t *testing.T) {
	s, reservations := newTestServer(t)

	base := time.Now()
	reservations.SetNowFunc(func() time.Time { return base })
	rec := doRequest(t, s, http.MethodPost, "/api/reservations/", `{"caller_name":"Lee"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var r models.Reservation
	decodeBody(t, rec, &r)

	reservations.SetNowFunc(func() time.Time { return base.Add(4 * time.Hour) })
	rec = doRequest(t, s, http.MethodPost, "/api/reservations/"+r.Code+"/cancel", "")
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Contains(t, errorDetail(t, rec), "expired")
}

func TestCreateReservation_NoCapacity(t *testing.T) {
	s, reservations := newTestServer(t)

	for bed := 1; bed <= 108; bed++ {
		rec := doRequest(t, s, http.MethodPost, "/api/beds/"+itoa(bed)+"/hold", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	summary := getSummary(t, s)
	require.Equal(t, 0, summary.Available)

	rec := doRequest(t, s, http.MethodPost, "/api/reservations/", `{"caller_name":"Late Caller"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "no beds available", errorDetail(t, rec))
	_ = reservations
}

func TestExpireReservations(t *testing.T) {
	s, reservations := newTestServer(t)

	base := time.Now()
	reservations.SetNowFunc(func() time.Time { return base })
	rec := doRequest(t, s, http.MethodPost, "/api/reservations/", `{"caller_name":"Nick"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	reservations.SetNowFunc(func() time.Time { return base.Add(3*time.Hour + time.Minute) })
	rec = doRequest(t, s, http.MethodPost, "/api/reservations/expire", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ExpireResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, 1, resp.Expired)

	summary := getSummary(t, s)
	assert.Equal(t, 108, summary.Available)
}

func TestListReservations(t *testing.T) {
	s, reservations := newTestServer(t)

	base := time.Now()
	reservations.SetNowFunc(func() time.Time { return base })
	doRequest(t, s, http.MethodPost, "/api/reservations/", `{"caller_name":"A"}`)
	doRequest(t, s, http.MethodPost, "/api/reservations/", `{"caller_name":"B"}`)

	rec := doRequest(t, s, http.MethodGet, "/api/reservations/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListReservationsResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Reservations, 2)
	assert.Equal(t, 180, resp.Reservations[0].RemainingMinutes)

	// An hour in, the countdown reflects the read-time clock.
	reservations.SetNowFunc(func() time.Time { return base.Add(time.Hour) })
	rec = doRequest(t, s, http.MethodGet, "/api/reservations/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, 120, resp.Reservations[0].RemainingMinutes)
}
