// Command server runs the groundwater insight service: it seeds the store
// from a CSV file and/or consumes raw readings from Kafka, scores every
// observation, and serves the dashboard API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/hydrowatch/groundwater-insight/internal/adapter/http"
	kafkaadapter "github.com/hydrowatch/groundwater-insight/internal/adapter/kafka"
	"github.com/hydrowatch/groundwater-insight/internal/adapter/mapbox"
	"github.com/hydrowatch/groundwater-insight/internal/cache"
	"github.com/hydrowatch/groundwater-insight/internal/config"
	"github.com/hydrowatch/groundwater-insight/internal/domain"
	"github.com/hydrowatch/groundwater-insight/internal/ingest"
	"github.com/hydrowatch/groundwater-insight/internal/observability"
	"github.com/hydrowatch/groundwater-insight/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Geocoder is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN; without
	// it, sites keep their deterministic fallback coordinates.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	dataStore := store.New()
	memo := cache.New(cfg.CacheTTL)
	dataStore.OnMutate(memo.InvalidateAll)

	transformer := ingest.NewTransformer(geocoder, logger)
	storeLoader := ingest.NewStoreLoader(dataStore, cfg.SeriesYears, logger, metrics)

	var loader ingest.BatchLoader = storeLoader
	var extractor ingest.BatchExtractor
	var writer *kafkaadapter.Writer
	var reader *kafkaadapter.Reader
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		extractor = reader
		loader = ingest.MultiLoader{storeLoader, writer}
	}

	p := ingest.New(extractor, transformer, loader, logger, metrics, cfg.BatchSize)

	if cfg.SeedPath != "" {
		if err := seedFromFile(cfg.SeedPath, transformer, loader, cfg.BatchSize, logger); err != nil {
			logger.Error("seed failed", "path", cfg.SeedPath, "error", err)
			os.Exit(1)
		}
		p.MarkReady()
	}
	if !cfg.KafkaEnabled {
		// Nothing will ever stream in; the service is as ready as it gets.
		p.MarkReady()
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, dataStore, memo,
		transformer, loader, cfg.BatchSize, cfg.ForecastYears, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if cfg.KafkaEnabled {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
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

func seedFromFile(path string, t ingest.RecordTransformer, l ingest.BatchLoader, batchSize int, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = ingest.Seed(context.Background(), f, t, l, batchSize, logger)
	return err
}
