package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/bethesda-mission/shelterline/pkg/services"
)

// ErrorResponse is the error envelope every endpoint uses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// jsonError writes the error envelope with the given status.
func jsonError(c *echo.Context, status int, detail string) error {
	return c.JSON(status, ErrorResponse{Detail: detail})
}

// mapServiceError maps service-layer errors to HTTP error responses.
func mapServiceError(c *echo.Context, err error) error {
	var validErr *services.ValidationError
	switch {
	case errors.As(err, &validErr):
		return jsonError(c, http.StatusBadRequest, validErr.Error())
	case errors.Is(err, services.ErrWeekendDisallowed):
		return jsonError(c, http.StatusBadRequest, "chapel services run on weekdays only")
	case errors.Is(err, services.ErrNotFound):
		return jsonError(c, http.StatusNotFound, "resource not found")
	case errors.Is(err, services.ErrReservationExpired):
		return jsonError(c, http.StatusGone, "reservation has expired")
	case errors.Is(err, services.ErrSlotTaken):
		return jsonError(c, http.StatusConflict, "chapel slot is already booked")
	case errors.Is(err, services.ErrAlreadyReserved):
		return jsonError(c, http.StatusConflict, "caller already has an active reservation")
	case errors.Is(err, services.ErrBedMismatch):
		return jsonError(c, http.StatusConflict, "confirmation code does not match this bed")
	case errors.Is(err, services.ErrNoCapacity):
		return jsonError(c, http.StatusServiceUnavailable, "no beds available")
	case errors.Is(err, services.ErrConflict):
		return jsonError(c, http.StatusConflict, "conflicting concurrent update, please retry")
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return jsonError(c, http.StatusInternalServerError, "internal server error")
}
