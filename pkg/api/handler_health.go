package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/bethesda-mission/shelterline/pkg/database"
	"github.com/bethesda-mission/shelterline/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health. A liveness probe: it never touches
// the database, so a slow or down Postgres does not get the process
// restarted.
func (s *Server) healthHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, &HealthResponse{
		Status:  healthStatusHealthy,
		Version: version.GitCommit,
	})
}

// readyHandler handles GET /ready. Readiness includes the database when
// one is configured; in memory-store mode the store is always ready.
func (s *Server) readyHandler(c *echo.Context) error {
	resp := &HealthResponse{
		Status:  healthStatusHealthy,
		Version: version.GitCommit,
	}
	if s.dbClient == nil {
		return c.JSON(http.StatusOK, resp)
	}

	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(reqCtx, s.dbClient.DB())
	resp.Database = dbHealth
	if err != nil {
		resp.Status = healthStatusUnhealthy
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
