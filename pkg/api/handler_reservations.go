package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/bethesda-mission/shelterline/pkg/services"
)

// listReservationsHandler handles GET /api/reservations/.
func (s *Server) listReservationsHandler(c *echo.Context) error {
	reservations, err := s.reservations.ActiveReservations(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	resp := ListReservationsResponse{Reservations: make([]ActiveReservation, 0, len(reservations))}
	for _, r := range reservations {
		resp.Reservations = append(resp.Reservations, ActiveReservation{
			Reservation:      r,
			RemainingMinutes: s.reservations.RemainingMinutes(r),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// createReservationHandler handles POST /api/reservations/.
func (s *Server) createReservationHandler(c *echo.Context) error {
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	reservation, err := s.reservations.Create(c.Request().Context(), services.CreateReservationInput{
		CallerName: req.CallerName,
		Situation:  req.Situation,
		Needs:      req.Needs,
		Language:   req.Language,
		CallerHash: req.CallerHash,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, reservation)
}

// getReservationHandler handles GET /api/reservations/:code.
func (s *Server) getReservationHandler(c *echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return jsonError(c, http.StatusBadRequest, "confirmation code is required")
	}

	reservation, err := s.reservations.GetByCode(c.Request().Context(), code)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, reservation)
}

// cancelReservationHandler handles POST /api/reservations/:code/cancel.
func (s *Server) cancelReservationHandler(c *echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return jsonError(c, http.StatusBadRequest, "confirmation code is required")
	}

	reservation, err := s.reservations.Cancel(c.Request().Context(), code)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, reservation)
}

// expireReservationsHandler handles POST /api/reservations/expire. It
// runs one sweep immediately, the same sweep the background ticker runs.
func (s *Server) expireReservationsHandler(c *echo.Context) error {
	expired, err := s.reservations.ExpireDue(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ExpireResponse{Expired: expired})
}
