package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/sundaydrive/sundaydrive/internal/adapters/gemini"
	"github.com/sundaydrive/sundaydrive/internal/adapters/googlemaps"
	"github.com/sundaydrive/sundaydrive/internal/adapters/postgres"
	"github.com/sundaydrive/sundaydrive/internal/adapters/valkey"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
	"github.com/sundaydrive/sundaydrive/internal/core/usecases"
	"github.com/sundaydrive/sundaydrive/internal/pkg/config"
	"github.com/sundaydrive/sundaydrive/internal/pkg/logging"
	"github.com/sundaydrive/sundaydrive/internal/workflows"
)

// The worker runs discovery activities for API instances configured with
// discovery.engine=temporal.
func main() {
	cfg, err := config.Load("sundaydrive-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	completer, err := gemini.New(ctx, gemini.Config{
		APIKey:      cfg.Gemini.APIKey,
		Model:       cfg.Gemini.Model,
		Temperature: cfg.Gemini.Temperature,
		Timeout:     cfg.Gemini.Timeout,
	})
	if err != nil {
		log.Fatalf("gemini: %v", err)
	}
	defer completer.Close()

	var (
		geocoders []ports.Geocoder
		cache     ports.CacheService
	)
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		geocoders = append(geocoders, postgres.NewPlaceRepo(db, cfg.Database.MinSimilarity))
	}
	if cfg.Maps.APIKey != "" {
		gm, err := googlemaps.New(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps: %v", err)
		}
		geocoders = append(geocoders, gm)
	}
	if len(geocoders) == 0 {
		slog.Warn("no geocoder configured; every discovered name will be dropped")
	}
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache = c
		}
	}

	geocoder := usecases.NewGeocodingService(cache, cfg.Valkey.GeocodeTTL, geocoders...)
	finder := usecases.NewPlaceFinder(completer, geocoder, cfg.Discovery.GeocodeConcurrency)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.DiscoveryWorkflow)
	w.RegisterActivity(&workflows.DiscoveryActivities{Finder: finder})

	slog.Info("discovery worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
