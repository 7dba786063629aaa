package usecases

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
	"github.com/sundaydrive/sundaydrive/internal/pkg/metrics"
	"github.com/sundaydrive/sundaydrive/internal/pkg/telemetry"
)

const defaultGeocodeConcurrency = 4

// PlaceFinder is the in-process POIFinder: one completion, a split, and one
// geocode per suggested name.
type PlaceFinder struct {
	completer   ports.TextCompleter
	geocoder    ports.Geocoder
	concurrency int
}

// NewPlaceFinder creates a PlaceFinder. concurrency bounds parallel geocoding.
func NewPlaceFinder(completer ports.TextCompleter, geocoder ports.Geocoder, concurrency int) *PlaceFinder {
	if concurrency <= 0 {
		concurrency = defaultGeocodeConcurrency
	}
	return &PlaceFinder{completer: completer, geocoder: geocoder, concurrency: concurrency}
}

// FindPOIs suggests names for the prompt and geocodes them. Only the completion can fail.
func (f *PlaceFinder) FindPOIs(ctx context.Context, req ports.DiscoveryRequest) (*ports.DiscoveryResult, error) {
	raw, err := f.Suggest(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}

	names := SplitPlaceNames(raw)
	return &ports.DiscoveryResult{
		RawText: raw,
		Names:   names,
		POIs:    f.GeocodeAll(ctx, names),
	}, nil
}

// Suggest submits the discovery prompt. An empty completion is an error.
func (f *PlaceFinder) Suggest(ctx context.Context, prompt string) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSuggest)
	defer span.End()

	start := time.Now()
	text, err := f.completer.Complete(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = domain.ErrEmptyCompletion
	}
	metrics.ObserveCompletion("discovery", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String(telemetry.AttrSuggestedName, text))
	return text, nil
}

// GeocodeAll resolves names concurrently and returns the ones that resolved,
// in input order. Failures are logged and skipped.
func (f *PlaceFinder) GeocodeAll(ctx context.Context, names []string) []domain.POI {
	resolved := make([]*domain.POI, len(names))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, name := range names {
		g.Go(func() error {
			if poi, ok := f.GeocodeOne(ctx, name); ok {
				resolved[i] = poi
			}
			return nil
		})
	}
	_ = g.Wait()

	pois := make([]domain.POI, 0, len(names))
	for _, p := range resolved {
		if p != nil {
			pois = append(pois, *p)
		}
	}
	return pois
}

// GeocodeOne resolves a single suggested name.
func (f *PlaceFinder) GeocodeOne(ctx context.Context, name string) (*domain.POI, bool) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanGeocode)
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrPlaceName, name),
		attribute.String(telemetry.AttrGeocoder, f.geocoder.Name()),
	)

	pt, err := f.geocoder.Geocode(ctx, name)
	if err != nil || pt == nil {
		if err != nil {
			span.RecordError(err)
		}
		slog.Warn("geocoding error, skipping place", "name", name, "error", err)
		return nil, false
	}
	return &domain.POI{Name: name, Location: *pt}, true
}
