package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/api"
	"github.com/UnknownOlympus/waypoint/internal/config"
	"github.com/UnknownOlympus/waypoint/internal/fetch"
	"github.com/UnknownOlympus/waypoint/internal/geosource"
	"github.com/UnknownOlympus/waypoint/internal/grounding"
	"github.com/UnknownOlympus/waypoint/internal/ipinfo"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"googlemaps.github.io/maps"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Shared timeout-bounded fetcher for all outbound lookups.
	fetcher := fetch.New(logger)

	// Build the IP info cascade: richest data first, then availability,
	// then the minimal IP-only last resort.
	resolver := ipinfo.NewDefaultCascade(ipinfo.CascadeConfig{
		Fetcher:          fetcher,
		PrimaryTimeout:   cfg.Providers.Primary,
		SecondaryTimeout: cfg.Providers.Secondary,
		MinimalTimeout:   cfg.Providers.Minimal,
		Metrics:          appMetrics,
		Logger:           logger,
	})

	// Initialize the grounding provider on the Google Maps API.
	mapsClient, err := maps.NewClient(maps.WithAPIKey(cfg.Grounding.APIKey))
	if err != nil {
		log.Fatalf("Failed to create Google Maps client: %v", err)
	}
	grounder := grounding.NewGoogleProvider(mapsClient, cfg.Grounding.Language, cfg.Grounding.RateLimit, logger)

	// The positioning agent is optional; without one the service reports the
	// geolocation capability as unavailable.
	var source service.GeoSource
	if cfg.AgentURL != "" {
		source = geosource.NewAgentSource(fetcher, cfg.AgentURL, logger)
		logger.InfoContext(ctx, "Positioning agent configured", "url", cfg.AgentURL)
	} else {
		logger.WarnContext(ctx, "No positioning agent configured, geolocation disabled")
	}

	locationService := service.NewLocationService(logger, source, resolver, grounder, appMetrics, cfg.FixTimeout)
	defer locationService.Close()

	handler := api.NewHandler(locationService, logger)
	router := api.NewRouter(handler, appMetrics, logger)

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the monitoring server in a goroutine to allow main to listen for signals.
	go startMonitoringServer(ctx, logger, reg, cfg.HealthPort)

	go startAPIServer(ctx, logger, router, cfg.Port)

	// Run the first load cycle on startup.
	if err = locationService.Refresh(ctx); err != nil {
		logger.ErrorContext(ctx, "Initial refresh failed", "error", err)
	}

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// startAPIServer starts the public API server.
func startAPIServer(ctx context.Context, log *slog.Logger, handler http.Handler, port int) {
	log.InfoContext(ctx, "Starting API server", "port", port)
	readTimeout := 5
	writeTimeout := 30
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "API server failed", "error", err)
	}
}

// startMonitoringServer starts an HTTP server that provides health check and
// metrics endpoints on the given port.
func startMonitoringServer(ctx context.Context, log *slog.Logger, reg *prometheus.Registry, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		if _, err := writer.Write([]byte("OK")); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envLocal:
		logger = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelWarn,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelError,
			}),
		)

		logger.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return logger
}
