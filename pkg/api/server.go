// Package api exposes the staff-facing HTTP API: bed registry views and
// manual overrides, reservation management, chapel and volunteer
// endpoints, health probes, and the dashboard WebSocket.
package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/bethesda-mission/shelterline/pkg/config"
	"github.com/bethesda-mission/shelterline/pkg/database"
	"github.com/bethesda-mission/shelterline/pkg/events"
	"github.com/bethesda-mission/shelterline/pkg/services"
)

// Server is the HTTP API server.
type Server struct {
	cfg          *config.Config
	dbClient     *database.Client
	reservations *services.ReservationService
	chapel       *services.ChapelService
	volunteers   *services.VolunteerService
	connManager  *events.ConnectionManager

	echo       *echo.Echo
	httpServer *http.Server
}

// NewServer creates the API server and registers all routes. dbClient
// and connManager may be nil (memory-store mode, WebSocket disabled);
// the services must not be.
func NewServer(
	cfg *config.Config,
	dbClient *database.Client,
	reservations *services.ReservationService,
	chapel *services.ChapelService,
	volunteers *services.VolunteerService,
	connManager *events.ConnectionManager,
) *Server {
	if reservations == nil || chapel == nil || volunteers == nil {
		panic("NewServer: services must not be nil")
	}
	s := &Server{
		cfg:          cfg,
		dbClient:     dbClient,
		reservations: reservations,
		chapel:       chapel,
		volunteers:   volunteers,
		connManager:  connManager,
	}

	e := echo.New()
	e.Use(securityHeaders())

	e.GET("/health", s.healthHandler)
	e.GET("/ready", s.readyHandler)

	api := e.Group("/api")

	api.GET("/beds/", s.bedSummaryHandler)
	api.GET("/beds/list", s.listBedsHandler)
	api.POST("/beds/:id/hold", s.holdBedHandler)
	api.POST("/beds/:id/checkin", s.checkInHandler)
	api.POST("/beds/:id/checkout", s.checkOutHandler)
	api.POST("/beds/:id/assign", s.assignGuestHandler)

	api.GET("/reservations/", s.listReservationsHandler)
	api.POST("/reservations/", s.createReservationHandler)
	api.GET("/reservations/:code", s.getReservationHandler)
	api.POST("/reservations/:code/cancel", s.cancelReservationHandler)
	api.POST("/reservations/expire", s.expireReservationsHandler)

	api.GET("/chapel-services/", s.listChapelHandler)
	api.POST("/chapel-services/", s.scheduleChapelHandler)
	api.GET("/chapel-services/:id", s.getChapelHandler)
	api.PUT("/chapel-services/:id/status", s.updateChapelStatusHandler)

	api.GET("/volunteers/", s.listVolunteersHandler)
	api.POST("/volunteers/", s.registerVolunteerHandler)
	api.GET("/volunteers/:id", s.getVolunteerHandler)
	api.PUT("/volunteers/:id/status", s.updateVolunteerStatusHandler)

	api.GET("/ws", s.wsHandler)

	s.echo = e
	return s
}

// Start runs the HTTP server on addr. It blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP makes the server usable directly with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
