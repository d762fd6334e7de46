package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethesda-mission/shelterline/pkg/models"
)

func TestRegisterVolunteer(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/volunteers/",
		`{"name":"Dana","phone":"555-0177","availability":["weekends"],"interests":["meals"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var v models.Volunteer
	decodeBody(t, rec, &v)
	assert.Equal(t, "Dana", v.Name)
	assert.Equal(t, models.VolunteerPending, v.Status)
	assert.Equal(t, []string{"weekends"}, v.Availability)
}

func TestRegisterVolunteer_Validation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/volunteers/", `{"name":"No Phone"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVolunteerStatusUpdate(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/volunteers/",
		`{"name":"Mike","phone":"555-0110"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var v models.Volunteer
	decodeBody(t, rec, &v)

	rec = doRequest(t, s, http.MethodPut, "/api/volunteers/"+itoa(v.ID)+"/status",
		`{"status":"active"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Volunteer
	decodeBody(t, rec, &updated)
	assert.Equal(t, models.VolunteerActive, updated.Status)

	rec = doRequest(t, s, http.MethodPut, "/api/volunteers/"+itoa(v.ID)+"/status",
		`{"status":"retired"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetVolunteer_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/volunteers/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
