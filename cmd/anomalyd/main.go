package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/climate-anomaly-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/climate-anomaly-service/internal/adapter/kafka"
	"github.com/couchcryptid/climate-anomaly-service/internal/adapter/mapbox"
	"github.com/couchcryptid/climate-anomaly-service/internal/config"
	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
	"github.com/couchcryptid/climate-anomaly-service/internal/observability"
	"github.com/couchcryptid/climate-anomaly-service/internal/pipeline"
	"github.com/couchcryptid/climate-anomaly-service/internal/store/sqlite"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	detector := pipeline.NewDetector(store, store, clockwork.NewRealClock(), logger, metrics)
	api := httpadapter.NewAPI(detector, store, store, cfg.MovingAverageWindow, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, store, api, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, newGeocoder(cfg, metrics, logger), logger)
		svc := pipeline.NewService(reader, detector, writer, logger, metrics)

		// Start detection request consumer.
		go func() {
			if err := svc.Run(ctx); err != nil {
				logger.Error("detection service error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka disabled, serving HTTP API only")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// newGeocoder returns a cached Mapbox geocoder, or nil when geocoding is
// disabled (via MAPBOX_ENABLED / MAPBOX_TOKEN).
func newGeocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.Geocoder {
	if !cfg.MapboxEnabled {
		logger.Info("mapbox geocoding disabled")
		return nil
	}
	client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
	cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
	if err != nil {
		logger.Warn("mapbox cache unavailable, geocoding uncached", "error", err)
		return client
	}
	logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	return cached
}
