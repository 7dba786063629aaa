package usecases

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
	"github.com/sundaydrive/sundaydrive/internal/pkg/geospatial"
	"github.com/sundaydrive/sundaydrive/internal/pkg/metrics"
	"github.com/sundaydrive/sundaydrive/internal/pkg/telemetry"
)

// DiscoveryService finds points of interest along a session's route.
type DiscoveryService struct {
	sessions ports.SessionStore
	finder   ports.POIFinder
	notifier *Notifier
}

// NewDiscoveryService creates a new DiscoveryService.
func NewDiscoveryService(sessions ports.SessionStore, finder ports.POIFinder, notifier *Notifier) *DiscoveryService {
	return &DiscoveryService{sessions: sessions, finder: finder, notifier: notifier}
}

// Discover replaces the session's POIs with a fresh set suggested for its route.
// The session is busy for the whole run. A model failure keeps the old POIs;
// a result computed for a route that has since changed is dropped.
func (s *DiscoveryService) Discover(ctx context.Context, sessionID string) (*domain.Session, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanDiscover)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrSessionID, sessionID))

	sess, err := s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		if _, ok := sess.Route(); !ok {
			return domain.ErrRouteIncomplete
		}
		if sess.TourActive {
			return domain.ErrTourActive
		}
		if sess.Busy {
			return domain.ErrBusy
		}
		sess.Busy = true
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRouteIncomplete):
			s.notifier.Toast(ctx, sessionID, domain.MsgSelectEndpoints)
			metrics.DiscoveryRuns.WithLabelValues("incomplete").Inc()
		case errors.Is(err, domain.ErrBusy):
			metrics.DiscoveryRuns.WithLabelValues("busy").Inc()
		case errors.Is(err, domain.ErrTourActive):
			metrics.DiscoveryRuns.WithLabelValues("tour_active").Inc()
		}
		return nil, err
	}
	defer s.clearBusy(ctx, sessionID)
	s.notifier.Publish(ctx, sessionID, domain.EventBusy, "", true)

	revision := sess.RouteRevision
	prompt := sess.Prompt
	if prompt == "" {
		prompt = DetourPrompt(sess.Start.Name, sess.End.Name, sess.MaxDetourMiles)
	}

	res, err := s.finder.FindPOIs(ctx, ports.DiscoveryRequest{Prompt: prompt})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("discovery failed", "session_id", sessionID, "error", err)
		s.notifier.Toast(ctx, sessionID, domain.MsgAIError(err))
		metrics.DiscoveryRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	s.notifier.Toast(ctx, sessionID, domain.MsgSuggests(res.RawText))

	pois := annotateOffRoute(res.POIs, sess.RouteLine())
	span.SetAttributes(attribute.Int(telemetry.AttrPOICount, len(pois)))

	updated, err := s.sessions.Update(ctx, sessionID, func(cur *domain.Session) error {
		if cur.RouteRevision != revision {
			return domain.ErrStaleResult
		}
		cur.POIs = pois
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStaleResult) {
			slog.Info("discarding discovery result for superseded route", "session_id", sessionID)
			metrics.DiscoveryRuns.WithLabelValues("stale").Inc()
		}
		return nil, err
	}

	metrics.DiscoveredPOIs.Observe(float64(len(pois)))
	s.notifier.Publish(ctx, sessionID, domain.EventPOIs, "", updated.POIs)
	if len(pois) == 0 {
		s.notifier.Toast(ctx, sessionID, domain.MsgNoCoordinates)
		metrics.DiscoveryRuns.WithLabelValues("empty").Inc()
	} else {
		metrics.DiscoveryRuns.WithLabelValues("ok").Inc()
	}

	updated.Busy = false
	return updated, nil
}

func (s *DiscoveryService) clearBusy(ctx context.Context, sessionID string) {
	ctx = context.WithoutCancel(ctx)
	_, err := s.sessions.Update(ctx, sessionID, func(sess *domain.Session) error {
		sess.Busy = false
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		slog.Warn("clearing busy flag failed", "session_id", sessionID, "error", err)
	}
	s.notifier.Publish(ctx, sessionID, domain.EventBusy, "", false)
}

// annotateOffRoute sets each POI's distance from line in miles.
func annotateOffRoute(pois []domain.POI, line []domain.GeoPoint) []domain.POI {
	out := make([]domain.POI, len(pois))
	if len(line) == 0 {
		copy(out, pois)
		return out
	}
	coords := make([][2]float64, len(line))
	for i, p := range line {
		coords[i] = [2]float64{p.Lat, p.Lon}
	}
	for i, p := range pois {
		miles := geospatial.MetersToMiles(geospatial.DistanceToLine(p.Location.Lat, p.Location.Lon, coords))
		miles = math.Round(miles*10) / 10
		p.OffRouteMiles = &miles
		out[i] = p
	}
	return out
}
