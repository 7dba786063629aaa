package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sundaydrive/sundaydrive/internal/adapters/postgres"
	"github.com/sundaydrive/sundaydrive/internal/adapters/valkey"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
	"github.com/sundaydrive/sundaydrive/internal/core/usecases"
)

// SessionEvents lets the WebSocket relay follow one session's events.
type SessionEvents interface {
	SubscribeSession(sessionID string, fn func(data []byte)) (cancel func(), err error)
}

// Dependencies holds all services needed by HTTP handlers.
// Infrastructure fields are optional; nil means not configured.
type Dependencies struct {
	Sessions  *usecases.SessionService
	Discovery *usecases.DiscoveryService
	Narration *usecases.NarrationService
	Places    *usecases.PlaceService
	Assistant *usecases.AssistantService
	Gazetteer ports.PlaceRepository
	Events    SessionEvents

	// SessionCount reports open sessions for the health endpoint.
	SessionCount func() int

	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache

	RequestTimeout time.Duration
	RateLimit      int
}

func (d *Dependencies) requestTimeout() time.Duration {
	if d.RequestTimeout <= 0 {
		return 60 * time.Second
	}
	return d.RequestTimeout
}
