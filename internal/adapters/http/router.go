package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/sundaydrive/sundaydrive/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	rateLimit := deps.RateLimit
	if rateLimit <= 0 {
		rateLimit = 120
	}
	app.Use(limiter.New(limiter.Config{
		Max:        rateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Model calls are slow, so the timeout is configurable.
	to := deps.requestTimeout()
	wrap := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, to)
	}

	v1 := app.Group("/v1")
	v1.Post("/sessions", wrap(CreateSessionHandler(deps)))
	v1.Post("/sessions/demo", wrap(CreateDemoSessionHandler(deps)))
	v1.Get("/sessions/:id", wrap(GetSessionHandler(deps)))
	v1.Delete("/sessions/:id", wrap(DeleteSessionHandler(deps)))
	v1.Put("/sessions/:id/endpoints/:which", wrap(SetEndpointHandler(deps)))
	v1.Put("/sessions/:id/detour", wrap(SetDetourHandler(deps)))
	v1.Post("/sessions/:id/discover", wrap(DiscoverHandler(deps)))
	v1.Post("/sessions/:id/tour/start", wrap(StartTourHandler(deps)))
	v1.Post("/sessions/:id/tour/stop", wrap(StopTourHandler(deps)))
	v1.Post("/sessions/:id/pois/:index/narrate", wrap(NarratePOIHandler(deps)))

	v1.Get("/places/autocomplete", wrap(AutocompleteHandler(deps)))
	v1.Get("/places/:id", wrap(PlaceDetailsHandler(deps)))
	v1.Get("/gazetteer", wrap(GazetteerSearchHandler(deps)))

	v1.Post("/narrations", wrap(NarrationHandler(deps)))
	v1.Post("/ask", wrap(AskHandler(deps)))

	app.Post("/graphql", wrap(GraphQLHandler(deps)))

	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		id := c.Query("session")
		if id == "" {
			return errBadRequest(c, "session query parameter is required")
		}
		if _, err := deps.Sessions.Get(c.UserContext(), id); err != nil {
			return errFromDomain(c, err)
		}
		return c.Next()
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.Events)))
}
