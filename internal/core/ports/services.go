package ports

import (
	"context"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
)

// TextCompleter sends a plain-text prompt to a generative language model.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Geocoder resolves a place name to its single best coordinate.
// It returns domain.ErrNotFound when nothing matches.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, name string) (*domain.GeoPoint, error)
}

// DirectionsProvider returns a driving path between two coordinates.
type DirectionsProvider interface {
	Driving(ctx context.Context, from, to domain.GeoPoint) ([]domain.GeoPoint, error)
}

// PlacesProvider backs endpoint autocomplete.
type PlacesProvider interface {
	Autocomplete(ctx context.Context, input, sessionToken string) ([]domain.PlaceSuggestion, error)
	Details(ctx context.Context, placeID, sessionToken string) (*domain.Place, error)
}

// SpeechSynthesizer turns text into audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (audio []byte, format string, err error)
}

// POIFinder runs the suggest-then-geocode part of discovery.
type POIFinder interface {
	FindPOIs(ctx context.Context, req DiscoveryRequest) (*DiscoveryResult, error)
}

// DiscoveryRequest is the input of a POIFinder.
type DiscoveryRequest struct {
	Prompt string `json:"prompt"`
}

// DiscoveryResult holds the raw completion and the names that geocoded, in model order.
type DiscoveryResult struct {
	RawText string       `json:"raw_text"`
	Names   []string     `json:"names"`
	POIs    []domain.POI `json:"pois"`
}

// EventPublisher publishes session events to a message broker.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, event *domain.SessionEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
