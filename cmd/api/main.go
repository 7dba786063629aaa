package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/sundaydrive/sundaydrive/internal/adapters/gemini"
	"github.com/sundaydrive/sundaydrive/internal/adapters/googlemaps"
	"github.com/sundaydrive/sundaydrive/internal/adapters/http"
	"github.com/sundaydrive/sundaydrive/internal/adapters/memory"
	natsadapter "github.com/sundaydrive/sundaydrive/internal/adapters/nats"
	"github.com/sundaydrive/sundaydrive/internal/adapters/postgres"
	"github.com/sundaydrive/sundaydrive/internal/adapters/speech"
	"github.com/sundaydrive/sundaydrive/internal/adapters/valkey"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
	"github.com/sundaydrive/sundaydrive/internal/core/usecases"
	"github.com/sundaydrive/sundaydrive/internal/pkg/config"
	"github.com/sundaydrive/sundaydrive/internal/pkg/logging"
	"github.com/sundaydrive/sundaydrive/internal/pkg/telemetry"
	"github.com/sundaydrive/sundaydrive/internal/workflows"
)

func main() {
	cfg, err := config.Load("sundaydrive-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		RateLimit:      cfg.Server.RateLimit,
	}

	// Language model
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

	// Interfaces stay nil unless a provider is configured; typed nil
	// pointers would defeat the services' nil checks.
	var (
		geocoders  []ports.Geocoder
		directions ports.DirectionsProvider
		places     ports.PlacesProvider
		synth      ports.SpeechSynthesizer
		cache      ports.CacheService
	)

	// Gazetteer first: local lookups are free.
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		gazetteer := postgres.NewPlaceRepo(db, cfg.Database.MinSimilarity)
		geocoders = append(geocoders, gazetteer)
		deps.DB = db
		deps.Gazetteer = gazetteer
		go db.ReportPoolStats(ctx, 15*time.Second)
	}

	if cfg.Maps.APIKey != "" {
		gm, err := googlemaps.New(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps: %v", err)
		}
		geocoders = append(geocoders, gm)
		directions = gm
		places = gm
	} else {
		slog.Warn("maps.api_key not set; autocomplete and directions disabled")
	}

	if cfg.Speech.Enabled {
		s, err := speech.New(ctx, speech.Config{
			CredentialsFile: cfg.Speech.CredentialsFile,
			LanguageCode:    cfg.Speech.LanguageCode,
			Voice:           cfg.Speech.Voice,
			SpeakingRate:    cfg.Speech.SpeakingRate,
		})
		if err != nil {
			slog.Warn("speech unavailable, narration will be text only", "error", err)
		} else {
			defer s.Close()
			synth = s
		}
	}

	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache = c
			deps.Cache = c
		}
	}

	// Session events: NATS when available, otherwise in-process.
	var publisher ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL, cfg.NATS.Retention)
		if err != nil {
			slog.Warn("nats unavailable, using in-process events", "error", err)
		} else {
			defer pub.Close()
			// Separate connection for the WebSocket relay
			relayConn, err := natsadapter.RawConn(cfg.NATS.URL)
			if err != nil {
				slog.Warn("nats relay conn unavailable, using in-process events", "error", err)
			} else {
				defer relayConn.Close()
				publisher = pub
				deps.Events = natsadapter.NewSubscriber(relayConn)
				deps.NATS = relayConn
			}
		}
	}
	if publisher == nil {
		bus := memory.NewEventBus()
		publisher = bus
		deps.Events = bus
	}

	// Use cases
	store := memory.NewSessionStore(cfg.Session.IdleTTL)
	notifier := usecases.NewNotifier(publisher)
	geocoder := usecases.NewGeocodingService(cache, cfg.Valkey.GeocodeTTL, geocoders...)
	voice := usecases.NewVoiceService(synth, notifier, cfg.Speech.Timeout)
	placeSvc := usecases.NewPlaceService(places)

	var finder ports.POIFinder = usecases.NewPlaceFinder(completer, geocoder, cfg.Discovery.GeocodeConcurrency)
	if cfg.Discovery.Engine == config.EngineTemporal {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			log.Fatalf("temporal client: %v", err)
		}
		defer tc.Close()
		finder = workflows.NewFinder(tc, cfg.Temporal.TaskQueue, cfg.Temporal.WorkflowTimeout)
	}

	deps.Sessions = usecases.NewSessionService(store, placeSvc, usecases.NewRouteService(directions), voice, notifier)
	deps.Discovery = usecases.NewDiscoveryService(store, finder, notifier)
	deps.Narration = usecases.NewNarrationService(completer, store, voice, notifier)
	deps.Places = placeSvc
	deps.Assistant = usecases.NewAssistantService(completer)
	deps.SessionCount = store.Len

	go store.RunJanitor(ctx, cfg.Session.JanitorInterval, func(id string) {
		voice.Stop(ctx, id)
	})

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "SundayDrive API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "discovery_engine", cfg.Discovery.Engine)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	cancel()
	voice.Wait()

	slog.Info("server stopped")
}
