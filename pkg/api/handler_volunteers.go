package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/bethesda-mission/shelterline/pkg/models"
	"github.com/bethesda-mission/shelterline/pkg/services"
)

// listVolunteersHandler handles GET /api/volunteers/.
func (s *Server) listVolunteersHandler(c *echo.Context) error {
	list, err := s.volunteers.List(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// registerVolunteerHandler handles POST /api/volunteers/.
func (s *Server) registerVolunteerHandler(c *echo.Context) error {
	var req RegisterVolunteerRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	volunteer, err := s.volunteers.Register(c.Request().Context(), services.RegisterVolunteerInput{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		Availability: req.Availability,
		Interests:    req.Interests,
		Notes:        req.Notes,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, volunteer)
}

// getVolunteerHandler handles GET /api/volunteers/:id.
func (s *Server) getVolunteerHandler(c *echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "volunteer id must be an integer")
	}

	volunteer, err := s.volunteers.Get(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, volunteer)
}

// updateVolunteerStatusHandler handles PUT /api/volunteers/:id/status.
func (s *Server) updateVolunteerStatusHandler(c *echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "volunteer id must be an integer")
	}

	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	status := models.VolunteerStatus(req.Status)
	if !status.Valid() {
		return jsonError(c, http.StatusBadRequest, "invalid volunteer status: "+req.Status)
	}

	volunteer, err := s.volunteers.UpdateStatus(c.Request().Context(), id, status)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, volunteer)
}
