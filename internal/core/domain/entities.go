package domain

import (
	"math"
	"time"
)

// Detour slider range, in whole miles.
const (
	MinDetourMiles     = 5
	MaxDetourMiles     = 30
	DefaultDetourMiles = 5
)

// Camera defaults for a session with nothing to show yet (centre of the US).
var (
	DefaultCameraTarget = GeoPoint{Lat: 39.8283, Lon: -98.5795}
)

const (
	DefaultCameraZoom = 3
	FocusCameraZoom   = 8
)

// ClampDetourMiles rounds miles to the nearest whole mile and clamps it to the slider range.
func ClampDetourMiles(miles float64) int {
	m := int(math.Round(miles))
	if m < MinDetourMiles {
		return MinDetourMiles
	}
	if m > MaxDetourMiles {
		return MaxDetourMiles
	}
	return m
}

// Endpoint is one end of a route: an address string plus an optional resolved coordinate.
type Endpoint struct {
	Name     string    `json:"name"`
	Location *GeoPoint `json:"location,omitempty"`
}

// Resolved reports whether the endpoint has a coordinate.
func (e Endpoint) Resolved() bool {
	return e.Location != nil
}

// Route is an ordered pair of resolved endpoints.
type Route struct {
	Start Endpoint `json:"start"`
	End   Endpoint `json:"end"`
}

// POI is a named place near a route, suggested by the language model and geocoded.
type POI struct {
	Name          string   `json:"name"`
	Location      GeoPoint `json:"location"`
	OffRouteMiles *float64 `json:"off_route_miles,omitempty"` // informational only
}

// Session is the state of one client planning screen. It lives in memory only.
type Session struct {
	ID             string     `json:"id"`
	Start          Endpoint   `json:"start"`
	End            Endpoint   `json:"end"`
	MaxDetourMiles int        `json:"max_detour_miles"`
	Polyline       []GeoPoint `json:"polyline,omitempty"`
	POIs           []POI      `json:"pois"`
	TourActive     bool       `json:"tour_active"`
	Busy           bool       `json:"busy"`
	RouteRevision  int        `json:"route_revision"`
	Prompt         string     `json:"-"` // fixed discovery prompt (demo sessions)
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Route returns the route once both endpoints are resolved.
func (s *Session) Route() (*Route, bool) {
	if !s.Start.Resolved() || !s.End.Resolved() {
		return nil, false
	}
	return &Route{Start: s.Start, End: s.End}, true
}

// RouteLine is the line clients should draw: the fetched polyline, or a straight
// segment between the endpoints when no directions are available.
func (s *Session) RouteLine() []GeoPoint {
	if len(s.Polyline) > 0 {
		return s.Polyline
	}
	if r, ok := s.Route(); ok {
		return []GeoPoint{*r.Start.Location, *r.End.Location}
	}
	return nil
}

// Controls is derived from the tour flag alone.
func (s *Session) Controls() Controls {
	if s.TourActive {
		return Controls{StopTour: true, NarrateOnTap: true}
	}
	return Controls{EditRoute: true, Search: true, StartTour: true}
}

// Viewport returns where a client camera should look.
func (s *Session) Viewport() Viewport {
	var pts []GeoPoint
	if s.Start.Location != nil {
		pts = append(pts, *s.Start.Location)
	}
	if s.End.Location != nil {
		pts = append(pts, *s.End.Location)
	}
	for _, p := range s.POIs {
		pts = append(pts, p.Location)
	}
	pts = append(pts, s.Polyline...)

	v := Viewport{Target: DefaultCameraTarget, Zoom: DefaultCameraZoom, Bounds: BoundsOf(pts...)}
	switch {
	case len(s.POIs) > 0:
		v.Target, v.Zoom = s.POIs[0].Location, FocusCameraZoom
	case s.Start.Location != nil:
		v.Target, v.Zoom = *s.Start.Location, FocusCameraZoom
	}
	return v
}

// Clone returns a deep copy safe to hand out of a store.
func (s *Session) Clone() *Session {
	c := *s
	c.Start = cloneEndpoint(s.Start)
	c.End = cloneEndpoint(s.End)
	if s.Polyline != nil {
		c.Polyline = append([]GeoPoint(nil), s.Polyline...)
	}
	c.POIs = append([]POI{}, s.POIs...)
	return &c
}

func cloneEndpoint(e Endpoint) Endpoint {
	if e.Location != nil {
		loc := *e.Location
		e.Location = &loc
	}
	return e
}

// Controls describes which screen controls are enabled.
type Controls struct {
	EditRoute    bool `json:"edit_route"`
	Search       bool `json:"search"`
	StartTour    bool `json:"start_tour"`
	StopTour     bool `json:"stop_tour"`
	NarrateOnTap bool `json:"narrate_on_tap"`
}

// Viewport is a camera suggestion for map clients.
type Viewport struct {
	Target GeoPoint `json:"target"`
	Zoom   int      `json:"zoom"`
	Bounds *Bounds  `json:"bounds,omitempty"`
}

// PlaceSuggestion is one autocomplete prediction.
type PlaceSuggestion struct {
	PlaceID     string `json:"place_id"`
	PrimaryText string `json:"primary_text"`
	Description string `json:"description"`
}

// Place is a resolved place detail.
type Place struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

// Narration is a spoken fact about a POI.
type Narration struct {
	Name     string `json:"name"`
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// Utterance is synthesized speech for one session.
type Utterance struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Audio     []byte `json:"audio,omitempty"`
	Format    string `json:"format,omitempty"`
}

// EventKind names a session event.
type EventKind string

const (
	EventToast      EventKind = "toast"
	EventBusy       EventKind = "busy"
	EventPOIs       EventKind = "pois"
	EventRoute      EventKind = "route"
	EventTour       EventKind = "tour"
	EventSpeech     EventKind = "speech"
	EventSpeechStop EventKind = "speech_stop"
)

// SessionEvent is pushed to clients watching a session.
type SessionEvent struct {
	SessionID string    `json:"session_id"`
	Kind      EventKind `json:"kind"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
	Time      time.Time `json:"time"`
}
