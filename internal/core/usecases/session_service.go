package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
)

// Endpoint names accepted by SetEndpoint.
const (
	EndpointStart = "start"
	EndpointEnd   = "end"
)

// EndpointInput selects an endpoint either by autocomplete place id or by an
// explicit name and coordinate.
type EndpointInput struct {
	PlaceID      string           `json:"place_id,omitempty"`
	SessionToken string           `json:"session_token,omitempty"`
	Name         string           `json:"name,omitempty"`
	Location     *domain.GeoPoint `json:"location,omitempty"`
}

// CreateSessionInput is the optional initial state of a session.
type CreateSessionInput struct {
	Start          *EndpointInput `json:"start,omitempty"`
	End            *EndpointInput `json:"end,omitempty"`
	MaxDetourMiles *float64       `json:"max_detour_miles,omitempty"`
}

// SessionService manages drive sessions.
type SessionService struct {
	store    ports.SessionStore
	places   *PlaceService
	routes   *RouteService
	voice    *VoiceService
	notifier *Notifier
}

// NewSessionService creates a new SessionService.
func NewSessionService(store ports.SessionStore, places *PlaceService, routes *RouteService, voice *VoiceService, notifier *Notifier) *SessionService {
	return &SessionService{store: store, places: places, routes: routes, voice: voice, notifier: notifier}
}

// Create starts a session, optionally with endpoints and a detour already chosen.
func (s *SessionService) Create(ctx context.Context, in CreateSessionInput) (*domain.Session, error) {
	sess := newSession()
	if in.MaxDetourMiles != nil {
		sess.MaxDetourMiles = domain.ClampDetourMiles(*in.MaxDetourMiles)
	}
	if in.Start != nil {
		ep, err := s.resolveEndpoint(ctx, *in.Start)
		if err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
		sess.Start = ep
	}
	if in.End != nil {
		ep, err := s.resolveEndpoint(ctx, *in.End)
		if err != nil {
			return nil, fmt.Errorf("end: %w", err)
		}
		sess.End = ep
	}
	if _, ok := sess.Route(); ok {
		sess.RouteRevision = 1
	}

	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if _, ok := sess.Route(); ok {
		return s.refreshRoute(ctx, sess)
	}
	return sess, nil
}

// CreateDemo starts a session on the fixed Los Angeles to San Diego route.
// It draws a straight line and discovers with a fixed prompt.
func (s *SessionService) CreateDemo(ctx context.Context) (*domain.Session, error) {
	sess := newSession()
	sess.Start, sess.End = domain.DemoStart, domain.DemoEnd
	sess = sess.Clone()
	sess.Polyline = []domain.GeoPoint{*sess.Start.Location, *sess.End.Location}
	sess.Prompt = domain.DemoPrompt
	sess.RouteRevision = 1

	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create demo session: %w", err)
	}
	return sess, nil
}

// Get returns a session by id.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.store.Get(ctx, id)
}

// Delete disposes a session and silences it.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.voice.Stop(ctx, id)
	return nil
}

// SetEndpoint replaces the start or end of the route. Existing POIs are
// cleared, and directions are fetched once both endpoints are known.
// The route cannot be edited during a tour.
func (s *SessionService) SetEndpoint(ctx context.Context, id, which string, in EndpointInput) (*domain.Session, error) {
	if which != EndpointStart && which != EndpointEnd {
		return nil, fmt.Errorf("%w: unknown endpoint %q", domain.ErrInvalidEndpoint, which)
	}
	ep, err := s.resolveEndpoint(ctx, in)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		if sess.TourActive {
			return domain.ErrTourActive
		}
		if which == EndpointStart {
			sess.Start = ep
		} else {
			sess.End = ep
		}
		sess.POIs = []domain.POI{}
		sess.Polyline = nil
		sess.RouteRevision++
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(ctx, id, domain.EventPOIs, "", sess.POIs)

	if _, ok := sess.Route(); !ok {
		s.notifier.Publish(ctx, id, domain.EventRoute, "", domain.GeoLineString{Coordinates: sess.RouteLine()})
		return sess, nil
	}
	return s.refreshRoute(ctx, sess)
}

// SetDetour sets the maximum detour, rounded and clamped to the slider range.
func (s *SessionService) SetDetour(ctx context.Context, id string, miles float64) (*domain.Session, error) {
	return s.store.Update(ctx, id, func(sess *domain.Session) error {
		sess.MaxDetourMiles = domain.ClampDetourMiles(miles)
		return nil
	})
}

// StartTour turns markers into narration triggers and announces the destination.
func (s *SessionService) StartTour(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		if _, ok := sess.Route(); !ok {
			return domain.ErrRouteIncomplete
		}
		if len(sess.POIs) == 0 {
			return domain.ErrNoPOIs
		}
		sess.TourActive = true
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrRouteIncomplete) || errors.Is(err, domain.ErrNoPOIs) {
			s.notifier.Toast(ctx, id, domain.UserMessage(err))
		}
		return nil, err
	}

	s.notifier.Publish(ctx, id, domain.EventTour, "", sess.Controls())
	s.voice.Speak(ctx, id, domain.MsgTourStarted(sess.End.Name))
	return sess, nil
}

// StopTour returns the session to planning mode and stops any speech.
func (s *SessionService) StopTour(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		sess.TourActive = false
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.voice.Stop(ctx, id)
	s.notifier.Publish(ctx, id, domain.EventTour, "", sess.Controls())
	return sess, nil
}

// refreshRoute fetches directions for sess and stores them if the route has not
// changed in the meantime. Failure leaves the straight-line fallback in place.
func (s *SessionService) refreshRoute(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
	r, _ := sess.Route()
	revision := sess.RouteRevision

	path, err := s.routes.Plan(ctx, r)
	if err != nil {
		slog.Warn("directions failed", "session_id", sess.ID, "error", err)
		s.notifier.Toast(ctx, sess.ID, domain.MsgRouteError(err))
		s.notifier.Publish(ctx, sess.ID, domain.EventRoute, "", domain.GeoLineString{Coordinates: sess.RouteLine()})
		return sess, nil
	}
	if len(path) == 0 {
		s.notifier.Publish(ctx, sess.ID, domain.EventRoute, "", domain.GeoLineString{Coordinates: sess.RouteLine()})
		return sess, nil
	}

	updated, err := s.store.Update(ctx, sess.ID, func(cur *domain.Session) error {
		if cur.RouteRevision != revision {
			return domain.ErrStaleResult
		}
		cur.Polyline = path
		return nil
	})
	if errors.Is(err, domain.ErrStaleResult) {
		slog.Info("discarding directions for superseded route", "session_id", sess.ID)
		return s.store.Get(ctx, sess.ID)
	}
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, sess.ID, domain.EventRoute, "", domain.GeoLineString{Coordinates: updated.RouteLine()})
	return updated, nil
}

func (s *SessionService) resolveEndpoint(ctx context.Context, in EndpointInput) (domain.Endpoint, error) {
	if in.PlaceID != "" {
		p, err := s.places.Details(ctx, in.PlaceID, in.SessionToken)
		if err != nil {
			return domain.Endpoint{}, fmt.Errorf("place details: %w", err)
		}
		loc := p.Location
		return domain.Endpoint{Name: p.Name, Location: &loc}, nil
	}

	name := strings.TrimSpace(in.Name)
	if name == "" || in.Location == nil || !in.Location.Valid() {
		return domain.Endpoint{}, domain.ErrInvalidEndpoint
	}
	loc := *in.Location
	return domain.Endpoint{Name: name, Location: &loc}, nil
}

func newSession() *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID:             uuid.NewString(),
		MaxDetourMiles: domain.DefaultDetourMiles,
		POIs:           []domain.POI{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
