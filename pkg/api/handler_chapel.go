package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/bethesda-mission/shelterline/pkg/models"
	"github.com/bethesda-mission/shelterline/pkg/services"
)

// listChapelHandler handles GET /api/chapel-services/.
func (s *Server) listChapelHandler(c *echo.Context) error {
	list, err := s.chapel.List(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// scheduleChapelHandler handles POST /api/chapel-services/.
func (s *Server) scheduleChapelHandler(c *echo.Context) error {
	var req ScheduleChapelRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	service, err := s.chapel.Schedule(c.Request().Context(), services.ScheduleChapelInput{
		Date:         req.Date,
		Time:         req.Time,
		GroupName:    req.GroupName,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Notes:        req.Notes,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, service)
}

// getChapelHandler handles GET /api/chapel-services/:id.
func (s *Server) getChapelHandler(c *echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "chapel service id must be an integer")
	}

	service, err := s.chapel.Get(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, service)
}

// updateChapelStatusHandler handles PUT /api/chapel-services/:id/status.
func (s *Server) updateChapelStatusHandler(c *echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "chapel service id must be an integer")
	}

	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	status := models.ChapelStatus(req.Status)
	if !status.Valid() {
		return jsonError(c, http.StatusBadRequest, "invalid chapel service status: "+req.Status)
	}

	service, err := s.chapel.UpdateStatus(c.Request().Context(), id, status)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, service)
}
