// Package main is the entry point for the busmon server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carris-monitor/busmon/internal/api"
	"github.com/carris-monitor/busmon/internal/cache"
	"github.com/carris-monitor/busmon/internal/config"
	"github.com/carris-monitor/busmon/internal/direction"
	"github.com/carris-monitor/busmon/internal/logging"
	"github.com/carris-monitor/busmon/internal/metrics"
	"github.com/carris-monitor/busmon/internal/telemetry"
	"github.com/carris-monitor/busmon/internal/tracker"
	"github.com/carris-monitor/busmon/internal/transit"
	"github.com/carris-monitor/busmon/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Configuration error: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration error: ", err)
	}

	logging.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	shutdownTracing, err := telemetry.InitTracing(ctx)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownTracing(flushCtx)
	}()

	stopProfiling := telemetry.InitProfiling()
	defer stopProfiling()

	directions, err := loadDirections(cfg.DirectionsFile)
	if err != nil {
		return fmt.Errorf("loading directions: %w", err)
	}

	if samples := directions.Samples(); len(samples) > 0 {
		slog.Warn("Directions use sample patterns or timetables; set DIRECTIONS_FILE to published data",
			"directions", samples)
	}

	collector := metrics.NewCollector()
	carris := transit.NewCarrisClient(cfg.CarrisBaseURL, cfg.HTTPTimeout, collector)

	var vehicles transit.VehicleSource = carris
	if cfg.FeedFormat == config.FeedGTFSRT {
		vehicles = transit.NewGTFSRealtimeSource(cfg.GTFSRTURL, cfg.HTTPTimeout, collector)
	}

	svc := tracker.NewService(vehicles, transit.NewPatternResolver(carris), collector)

	snapshots := cache.New[tracker.Snapshot](cfg.CacheTTL)
	defer snapshots.Close()

	router := api.NewRouter(cfg, svc, directions, snapshots, collector, web.FS())

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3*cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("busmon server starting",
			"addr", cfg.Addr(),
			"env", cfg.Env,
			"feed", cfg.FeedFormat,
			"trusted_proxy", cfg.TrustedProxy,
			"directions", directions.IDs(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down gracefully", "timeout", shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

func loadDirections(path string) (*direction.Set, error) {
	if path == "" {
		return direction.Default()
	}
	slog.Info("Loading directions", "file", path)
	return direction.LoadFile(path)
}
