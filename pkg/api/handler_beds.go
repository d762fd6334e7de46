package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"
)

// bedSummaryHandler handles GET /api/beds/.
func (s *Server) bedSummaryHandler(c *echo.Context) error {
	summary, err := s.reservations.Summary(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// listBedsHandler handles GET /api/beds/list.
func (s *Server) listBedsHandler(c *echo.Context) error {
	beds, err := s.reservations.BedSnapshot(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, beds)
}

// holdBedHandler handles POST /api/beds/:id/hold. Front desk staff hold
// a specific bed; the hold is a reservation like any other and expires
// on the same clock.
func (s *Server) holdBedHandler(c *echo.Context) error {
	bedID, ok := bedParam(c)
	if !ok {
		return jsonError(c, http.StatusBadRequest, "bed id must be a positive integer")
	}
	reservation, err := s.reservations.HoldBed(c.Request().Context(), bedID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, reservation)
}

// checkInHandler handles POST /api/beds/:id/checkin. The confirmation
// code comes from the reservation_id query parameter or the body; with
// one the guest's phone reservation is completed, without one a walk-in
// stay is recorded.
func (s *Server) checkInHandler(c *echo.Context) error {
	bedID, ok := bedParam(c)
	if !ok {
		return jsonError(c, http.StatusBadRequest, "bed id must be a positive integer")
	}

	var req CheckInRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	code := c.QueryParam("reservation_id")
	if code == "" {
		code = req.ConfirmationCode
	}

	if code != "" {
		reservation, err := s.reservations.CheckIn(c.Request().Context(), code, bedID)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(http.StatusOK, reservation)
	}

	reservation, err := s.reservations.WalkInCheckIn(c.Request().Context(), bedID, req.GuestName)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, reservation)
}

// assignGuestHandler handles POST /api/beds/:id/assign. Links a guest
// directory record to the stay occupying the bed.
func (s *Server) assignGuestHandler(c *echo.Context) error {
	bedID, ok := bedParam(c)
	if !ok {
		return jsonError(c, http.StatusBadRequest, "bed id must be a positive integer")
	}
	var req AssignGuestRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	reservation, err := s.reservations.AssignGuest(c.Request().Context(), bedID, req.GuestID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, reservation)
}

// checkOutHandler handles POST /api/beds/:id/checkout.
func (s *Server) checkOutHandler(c *echo.Context) error {
	bedID, ok := bedParam(c)
	if !ok {
		return jsonError(c, http.StatusBadRequest, "bed id must be a positive integer")
	}
	if err := s.reservations.CheckOut(c.Request().Context(), bedID); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "available"})
}

func bedParam(c *echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
