package usecases

import (
	"context"

	"go.opentelemetry.io/otel/codes"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
	"github.com/sundaydrive/sundaydrive/internal/pkg/telemetry"
)

// RouteService fetches driving directions for a route.
type RouteService struct {
	directions ports.DirectionsProvider
}

// NewRouteService creates a new RouteService. A nil provider disables
// directions and every route is drawn as a straight line.
func NewRouteService(directions ports.DirectionsProvider) *RouteService {
	return &RouteService{directions: directions}
}

// Plan returns the driving polyline for r.
func (s *RouteService) Plan(ctx context.Context, r *domain.Route) ([]domain.GeoPoint, error) {
	if r == nil || !r.Start.Resolved() || !r.End.Resolved() {
		return nil, domain.ErrRouteIncomplete
	}
	if s.directions == nil {
		return nil, nil
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanDirections)
	defer span.End()

	path, err := s.directions.Driving(ctx, *r.Start.Location, *r.End.Location)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return path, nil
}
