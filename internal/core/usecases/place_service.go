package usecases

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
	"github.com/sundaydrive/sundaydrive/internal/pkg/telemetry"
)

// MinAutocompleteRunes is the shortest query sent to the places provider.
const MinAutocompleteRunes = 3

// PlaceService backs endpoint search.
type PlaceService struct {
	places ports.PlacesProvider
}

// NewPlaceService creates a new PlaceService.
func NewPlaceService(places ports.PlacesProvider) *PlaceService {
	return &PlaceService{places: places}
}

// NewSessionToken returns a token grouping autocomplete requests with the
// detail fetch that ends them.
func (s *PlaceService) NewSessionToken() string {
	return uuid.NewString()
}

// Autocomplete returns predictions for input. Short queries and provider
// failures yield an empty list.
func (s *PlaceService) Autocomplete(ctx context.Context, input, token string) []domain.PlaceSuggestion {
	input = strings.TrimSpace(input)
	if utf8.RuneCountInString(input) < MinAutocompleteRunes || s.places == nil {
		return []domain.PlaceSuggestion{}
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanAutocomplete)
	defer span.End()

	out, err := s.places.Autocomplete(ctx, input, token)
	if err != nil {
		span.RecordError(err)
		slog.Warn("place autocomplete failed", "input", input, "error", err)
		return []domain.PlaceSuggestion{}
	}
	if out == nil {
		out = []domain.PlaceSuggestion{}
	}
	return out
}

// Details resolves a place id to its name and coordinate.
func (s *PlaceService) Details(ctx context.Context, placeID, token string) (*domain.Place, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" || s.places == nil {
		return nil, domain.ErrNotFound
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPlaceDetails)
	defer span.End()
	span.SetAttributes(attribute.String("place.id", placeID))

	p, err := s.places.Details(ctx, placeID, token)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return p, nil
}
