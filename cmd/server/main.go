/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the timesheet server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, then flags)
  2. Initialize SQLite store
  3. Load the catalog and seed its holidays into an empty calendar
  4. Create API handler, router and session janitor
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -addr     Listen address, overrides APP_ADDR
  -db       SQLite database path, overrides DB_PATH
            Use ":memory:" for in-memory database
  -catalog  Catalog JSON path, overrides CATALOG_PATH

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (APP_SHUTDOWN_TIMEOUT)
  3. Close open sessions and the database connection
  4. Exit

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/warp/timesheet-engine/api"
	"github.com/warp/timesheet-engine/config"
	"github.com/warp/timesheet-engine/factory"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/store/sqlite"
	"github.com/warp/timesheet-engine/timesheet"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags
	flag.StringVar(&cfg.AppAddr, "addr", cfg.AppAddr, "HTTP listen address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "Catalog JSON path")
	flag.Parse()

	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	catalog, err := loadCatalog(context.Background(), cfg.CatalogPath, store, logger)
	if err != nil {
		return err
	}

	handler := api.NewHandler(store, catalog, logger)
	defer handler.Sessions.CloseAll()

	janitor := api.NewSessionJanitor(handler.Sessions, logger)
	janitor.Start()
	defer janitor.Stop()

	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", cfg.AppAddr), slog.String("db", cfg.DBPath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.AppShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

// loadCatalog parses the configured catalog, falling back to the default.
// Its holidays seed the calendar only when no holiday is stored yet.
func loadCatalog(ctx context.Context, path string, store generic.HolidayStore, logger *slog.Logger) (*timesheet.Catalog, error) {
	if path == "" {
		return timesheet.DefaultCatalog(), nil
	}
	cfg, err := factory.NewCatalogFactory().LoadCatalog(path)
	if err != nil {
		return nil, err
	}

	existing, err := store.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		for _, h := range cfg.Holidays {
			if _, err := store.SaveHoliday(ctx, h); err != nil {
				return nil, err
			}
		}
		logger.Info("seeded holidays from catalog", slog.Int("count", len(cfg.Holidays)))
	}
	logger.Info("catalog loaded", slog.String("path", path), slog.Int("hour_types", len(cfg.Catalog.HourTypes())))
	return cfg.Catalog, nil
}
