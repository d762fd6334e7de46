// Shelterline server: bed reservation coordination for the mission.
// Runs the HTTP API for front desk staff, the voice call session
// manager, the expiration sweeper, and the dashboard event stream.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bethesda-mission/shelterline/pkg/api"
	"github.com/bethesda-mission/shelterline/pkg/call"
	"github.com/bethesda-mission/shelterline/pkg/config"
	"github.com/bethesda-mission/shelterline/pkg/database"
	"github.com/bethesda-mission/shelterline/pkg/events"
	"github.com/bethesda-mission/shelterline/pkg/expire"
	"github.com/bethesda-mission/shelterline/pkg/intent"
	"github.com/bethesda-mission/shelterline/pkg/services"
	"github.com/bethesda-mission/shelterline/pkg/store"
	"github.com/bethesda-mission/shelterline/pkg/store/postgres"
	"github.com/bethesda-mission/shelterline/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	storeBackend := getEnv("STORE_BACKEND", "postgres")

	slog.Info("Starting shelterline",
		"version", version.Full(),
		"http_port", httpPort,
		"store", storeBackend,
		"config_dir", *configDir)

	ctx := context.Background()

	// 1. Initialize configuration
	cfg, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize the store
	var (
		st       store.Store
		dbClient *database.Client
	)
	switch storeBackend {
	case "memory":
		st = store.NewMemoryStore()
		slog.Info("Using in-memory store")
	case "postgres":
		dbConfig, err := database.LoadConfigFromEnv()
		if err != nil {
			slog.Error("Failed to load database config", "error", err)
			os.Exit(1)
		}
		dbClient, err = database.NewClient(ctx, dbConfig)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				slog.Error("Error closing database client", "error", err)
			}
		}()
		st = postgres.NewStore(dbClient.DB())
		slog.Info("Connected to PostgreSQL database")
	default:
		slog.Error("Unknown store backend", "store", storeBackend)
		os.Exit(1)
	}

	// 3. Event notifier for the dashboard stream
	notifier := events.NewNotifier(cfg.Notifier.SubscriberQueueSize)

	// 4. Domain services
	reservations := services.NewReservationService(st, cfg.Shelter, notifier)
	chapel := services.NewChapelService(st, cfg.Chapel)
	volunteers := services.NewVolunteerService(st)

	// The bed registry must exist before anything can allocate. A failure
	// here is fatal: a server without beds serves nothing.
	if err := reservations.EnsureBeds(ctx); err != nil {
		slog.Error("Failed to initialize bed registry", "error", err)
		os.Exit(1)
	}
	slog.Info("Bed registry ready", "total_beds", cfg.Shelter.TotalBeds)

	// 5. WebSocket connection manager with snapshot catch-up
	connManager := events.NewConnectionManager(notifier, reservations, cfg.Notifier.WriteTimeout)

	// 6. Expiration sweeper: immediate sweep on start, then the ticker
	sweeper := expire.NewSweeper(reservations, cfg.Shelter.ExpirationTick)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// 7. Voice call sessions
	toolRouter := call.NewToolRouter(reservations, chapel, volunteers, cfg.Call)
	classifier := intent.NewClassifier(cfg.Keywords)
	callManager := call.NewManager(toolRouter, classifier, cfg.Call)
	callManager.Start(ctx)
	defer callManager.Stop()

	// 8. HTTP server
	httpServer := api.NewServer(cfg, dbClient, reservations, chapel, volunteers, connManager)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + httpPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("Shelterline started successfully")

	// 9. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 10. Graceful shutdown: stop taking requests first, then the
	// background loops via the deferred Stops.
	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
