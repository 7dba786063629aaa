package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// HealthHandler reports liveness and how many drive sessions are open.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": Version,
		}
		if deps.SessionCount != nil {
			body["active_sessions"] = deps.SessionCount()
		}
		return c.JSON(body)
	}
}

// depCheck is one readiness check. A nil check means the dependency is not configured.
type depCheck struct {
	name  string
	check func(ctx context.Context) string
}

// ReadyHandler checks the optional infrastructure. Sessions live in memory,
// so an unconfigured dependency is reported without failing readiness.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	list := []depCheck{
		{name: "database"},
		{name: "nats"},
		{name: "cache"},
	}
	if deps.DB != nil {
		list[0].check = func(ctx context.Context) string {
			return errStatus(deps.DB.Ping(ctx))
		}
	}
	if deps.NATS != nil {
		list[1].check = func(ctx context.Context) string {
			if !deps.NATS.IsConnected() {
				return "disconnected"
			}
			return "ok"
		}
	}
	if deps.Cache != nil {
		list[2].check = func(ctx context.Context) string {
			return errStatus(deps.Cache.Ping(ctx))
		}
	}

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string, len(list))
		allOK := true
		for _, p := range list {
			if p.check == nil {
				checks[p.name] = "not configured"
				continue
			}
			status := p.check(ctx)
			checks[p.name] = status
			if status != "ok" {
				allOK = false
			}
		}

		status, code := "ready", fiber.StatusOK
		if !allOK {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}

func errStatus(err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
