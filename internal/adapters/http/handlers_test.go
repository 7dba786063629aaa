package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/sundaydrive/sundaydrive/internal/adapters/http"
	"github.com/sundaydrive/sundaydrive/internal/adapters/memory"
	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/usecases"
)

// ---- Mock collaborators ----

type mockCompleter struct {
	completeFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, prompt)
	}
	return "", nil
}

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, name string) (*domain.GeoPoint, error)
}

func (m *mockGeocoder) Name() string { return "mock" }
func (m *mockGeocoder) Geocode(ctx context.Context, name string) (*domain.GeoPoint, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, name)
	}
	return nil, domain.ErrNotFound
}

type mockPlaces struct {
	autocompleteFn func(ctx context.Context, input, token string) ([]domain.PlaceSuggestion, error)
	detailsFn      func(ctx context.Context, placeID, token string) (*domain.Place, error)
}

func (m *mockPlaces) Autocomplete(ctx context.Context, input, token string) ([]domain.PlaceSuggestion, error) {
	if m.autocompleteFn != nil {
		return m.autocompleteFn(ctx, input, token)
	}
	return nil, nil
}
func (m *mockPlaces) Details(ctx context.Context, placeID, token string) (*domain.Place, error) {
	if m.detailsFn != nil {
		return m.detailsFn(ctx, placeID, token)
	}
	return nil, domain.ErrNotFound
}

type mockGazetteer struct {
	searchFn func(ctx context.Context, name string, limit int) ([]domain.Place, error)
}

func (m *mockGazetteer) UpsertBatch(ctx context.Context, places []domain.Place) error { return nil }
func (m *mockGazetteer) Search(ctx context.Context, name string, limit int) ([]domain.Place, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, name, limit)
	}
	return nil, nil
}

// ---- Helpers ----

type testEnv struct {
	completer *mockCompleter
	geocoder  *mockGeocoder
	places    *mockPlaces
	deps      *handler.Dependencies
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		completer: &mockCompleter{},
		geocoder:  &mockGeocoder{},
		places:    &mockPlaces{},
	}

	store := memory.NewSessionStore(0)
	bus := memory.NewEventBus()
	notifier := usecases.NewNotifier(bus)
	voice := usecases.NewVoiceService(nil, notifier, time.Second)
	t.Cleanup(voice.Wait)
	places := usecases.NewPlaceService(env.places)
	finder := usecases.NewPlaceFinder(env.completer, env.geocoder, 2)

	env.deps = &handler.Dependencies{
		Sessions:  usecases.NewSessionService(store, places, usecases.NewRouteService(nil), voice, notifier),
		Discovery: usecases.NewDiscoveryService(store, finder, notifier),
		Narration: usecases.NewNarrationService(env.completer, store, voice, notifier),
		Places:    places,
		Assistant: usecases.NewAssistantService(env.completer),
		Events:    bus,
	}
	return env
}

func (e *testEnv) app() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, e.deps)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

type sessionView struct {
	ID             string            `json:"id"`
	MaxDetourMiles int               `json:"max_detour_miles"`
	POIs           []domain.POI      `json:"pois"`
	RouteLine      []domain.GeoPoint `json:"route_line"`
	TourActive     bool              `json:"tour_active"`
	Busy           bool              `json:"busy"`
	RouteRevision  int               `json:"route_revision"`
	Controls       domain.Controls   `json:"controls"`
	Viewport       domain.Viewport   `json:"viewport"`
}

func decodeSession(t *testing.T, body []byte) sessionView {
	t.Helper()
	var v sessionView
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode session: %v (%s)", err, body)
	}
	return v
}

func decodeError(t *testing.T, body []byte) handler.APIError {
	t.Helper()
	var e handler.APIError
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("decode error: %v (%s)", err, body)
	}
	return e
}

func createDemo(t *testing.T, app *fiber.App) sessionView {
	t.Helper()
	code, body := doRequest(t, app, "POST", "/v1/sessions/demo", "")
	if code != 201 {
		t.Fatalf("create demo: expected 201, got %d: %s", code, body)
	}
	return decodeSession(t, body)
}

// ---- Tests ----

func TestHealthHandler(t *testing.T) {
	app := newTestEnv(t).app()

	code, body := doRequest(t, app, "GET", "/v1/health", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	var result map[string]interface{}
	json.Unmarshal(body, &result)
	if result["status"] != "healthy" {
		t.Errorf("expected status=healthy, got %v", result["status"])
	}
}

func TestReadyHandler_NothingConfigured(t *testing.T) {
	app := newTestEnv(t).app()

	code, body := doRequest(t, app, "GET", "/v1/ready", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	var result struct {
		Checks map[string]string `json:"checks"`
	}
	json.Unmarshal(body, &result)
	for _, name := range []string{"database", "nats", "cache"} {
		if result.Checks[name] != "not configured" {
			t.Errorf("%s: expected 'not configured', got %q", name, result.Checks[name])
		}
	}
}

func TestCreateSession_Empty(t *testing.T) {
	app := newTestEnv(t).app()

	code, body := doRequest(t, app, "POST", "/v1/sessions", "")
	if code != 201 {
		t.Fatalf("expected 201, got %d: %s", code, body)
	}
	s := decodeSession(t, body)
	if s.ID == "" {
		t.Error("expected an id")
	}
	if s.MaxDetourMiles != domain.DefaultDetourMiles {
		t.Errorf("expected default detour %d, got %d", domain.DefaultDetourMiles, s.MaxDetourMiles)
	}
	if s.POIs == nil || len(s.POIs) != 0 {
		t.Errorf("expected empty pois array, got %v", s.POIs)
	}
	if !s.Controls.Search || !s.Controls.EditRoute || s.Controls.StopTour {
		t.Errorf("unexpected planning controls: %+v", s.Controls)
	}
	if s.Viewport.Zoom != domain.DefaultCameraZoom {
		t.Errorf("expected default zoom, got %d", s.Viewport.Zoom)
	}
}

func TestCreateSession_WithEndpointsClampsDetour(t *testing.T) {
	app := newTestEnv(t).app()

	body := `{
		"start": {"name": "Los Angeles", "location": {"lat": 34.05, "lon": -118.24}},
		"end": {"name": "San Diego", "location": {"lat": 32.71, "lon": -117.16}},
		"max_detour_miles": 50
	}`
	code, resp := doRequest(t, app, "POST", "/v1/sessions", body)
	if code != 201 {
		t.Fatalf("expected 201, got %d: %s", code, resp)
	}
	s := decodeSession(t, resp)
	if s.MaxDetourMiles != domain.MaxDetourMiles {
		t.Errorf("expected detour clamped to %d, got %d", domain.MaxDetourMiles, s.MaxDetourMiles)
	}
	if s.RouteRevision != 1 {
		t.Errorf("expected route revision 1, got %d", s.RouteRevision)
	}
	if len(s.RouteLine) != 2 {
		t.Errorf("expected straight route line, got %v", s.RouteLine)
	}
}

func TestCreateSession_InvalidJSON(t *testing.T) {
	app := newTestEnv(t).app()

	code, body := doRequest(t, app, "POST", "/v1/sessions", "{bad")
	if code != 400 {
		t.Fatalf("expected 400, got %d: %s", code, body)
	}
	if e := decodeError(t, body); e.Code != "bad_request" {
		t.Errorf("expected code bad_request, got %q", e.Code)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	app := newTestEnv(t).app()

	code, body := doRequest(t, app, "GET", "/v1/sessions/missing", "")
	if code != 404 {
		t.Fatalf("expected 404, got %d", code)
	}
	e := decodeError(t, body)
	if e.Code != "not_found" || e.Status != 404 {
		t.Errorf("unexpected error body: %+v", e)
	}
	if e.RequestID == "" {
		t.Error("expected request_id in error body")
	}
}

func TestGetSession_NoStore(t *testing.T) {
	app := newTestEnv(t).app()
	s := createDemo(t, app)

	req := httptest.NewRequest("GET", "/v1/sessions/"+s.ID, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected Cache-Control no-store, got %q", cc)
	}
	if resp.Header.Get("ETag") != "" {
		t.Error("sessions must not carry an ETag")
	}
}

func TestDeleteSession(t *testing.T) {
	app := newTestEnv(t).app()
	s := createDemo(t, app)

	if code, _ := doRequest(t, app, "DELETE", "/v1/sessions/"+s.ID, ""); code != 204 {
		t.Fatalf("expected 204, got %d", code)
	}
	if code, _ := doRequest(t, app, "GET", "/v1/sessions/"+s.ID, ""); code != 404 {
		t.Errorf("expected 404 after delete, got %d", code)
	}
}

func TestSetEndpoint_Validation(t *testing.T) {
	app := newTestEnv(t).app()
	s := createDemo(t, app)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"unknown endpoint", "/v1/sessions/" + s.ID + "/endpoints/middle", `{"name":"x","location":{"lat":1,"lon":1}}`},
		{"latitude out of range", "/v1/sessions/" + s.ID + "/endpoints/start", `{"name":"x","location":{"lat":91,"lon":1}}`},
		{"no place id or coordinates", "/v1/sessions/" + s.ID + "/endpoints/start", `{"name":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doRequest(t, app, "PUT", tt.path, tt.body)
			if code != 400 {
				t.Errorf("expected 400, got %d: %s", code, body)
			}
		})
	}
}

func TestSetEndpoint_ByPlaceIDClearsPOIs(t *testing.T) {
	env := newTestEnv(t)
	env.places.detailsFn = func(ctx context.Context, placeID, token string) (*domain.Place, error) {
		if token != "tok" {
			t.Errorf("expected session token to be forwarded, got %q", token)
		}
		return &domain.Place{PlaceID: placeID, Name: "Irvine", Location: domain.GeoPoint{Lat: 33.68, Lon: -117.82}}, nil
	}
	env.completer.completeFn = func(ctx context.Context, prompt string) (string, error) {
		return "Mission San Juan Capistrano", nil
	}
	env.geocoder.geocodeFn = func(ctx context.Context, name string) (*domain.GeoPoint, error) {
		return &domain.GeoPoint{Lat: 33.50, Lon: -117.66}, nil
	}
	app := env.app()
	s := createDemo(t, app)

	code, body := doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/discover", "")
	if code != 200 || len(decodeSession(t, body).POIs) != 1 {
		t.Fatalf("discover: got %d: %s", code, body)
	}

	code, body = doRequest(t, app, "PUT", "/v1/sessions/"+s.ID+"/endpoints/end", `{"place_id":"p1","session_token":"tok"}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	got := decodeSession(t, body)
	if len(got.POIs) != 0 {
		t.Errorf("expected pois cleared, got %v", got.POIs)
	}
	if got.RouteRevision != s.RouteRevision+1 {
		t.Errorf("expected revision %d, got %d", s.RouteRevision+1, got.RouteRevision)
	}
}

func TestSetDetour(t *testing.T) {
	app := newTestEnv(t).app()
	s := createDemo(t, app)

	code, body := doRequest(t, app, "PUT", "/v1/sessions/"+s.ID+"/detour", `{"max_detour_miles": 12.4}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	if got := decodeSession(t, body).MaxDetourMiles; got != 12 {
		t.Errorf("expected 12, got %d", got)
	}

	if code, _ := doRequest(t, app, "PUT", "/v1/sessions/"+s.ID+"/detour", `{}`); code != 400 {
		t.Errorf("expected 400 for missing value, got %d", code)
	}
}

func TestDiscover_IncompleteRoute(t *testing.T) {
	app := newTestEnv(t).app()

	_, body := doRequest(t, app, "POST", "/v1/sessions", "")
	s := decodeSession(t, body)

	code, body := doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/discover", "")
	if code != 400 {
		t.Fatalf("expected 400, got %d: %s", code, body)
	}
	if e := decodeError(t, body); e.Message != domain.MsgSelectEndpoints {
		t.Errorf("expected %q, got %q", domain.MsgSelectEndpoints, e.Message)
	}
}

func TestDiscover_Success(t *testing.T) {
	env := newTestEnv(t)
	var gotPrompt string
	env.completer.completeFn = func(ctx context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "Huntington Beach Pier; Nowhere Special; Balboa Park", nil
	}
	env.geocoder.geocodeFn = func(ctx context.Context, name string) (*domain.GeoPoint, error) {
		switch name {
		case "Huntington Beach Pier":
			return &domain.GeoPoint{Lat: 33.655, Lon: -118.003}, nil
		case "Balboa Park":
			return &domain.GeoPoint{Lat: 32.731, Lon: -117.146}, nil
		}
		return nil, domain.ErrNotFound
	}
	app := env.app()
	s := createDemo(t, app)

	code, body := doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/discover", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	if gotPrompt != domain.DemoPrompt {
		t.Errorf("expected demo prompt, got %q", gotPrompt)
	}
	got := decodeSession(t, body)
	if len(got.POIs) != 2 {
		t.Fatalf("expected 2 pois, got %d", len(got.POIs))
	}
	if got.POIs[0].Name != "Huntington Beach Pier" || got.POIs[1].Name != "Balboa Park" {
		t.Errorf("unexpected order: %+v", got.POIs)
	}
	if got.Busy {
		t.Error("busy must be cleared")
	}
	if got.Viewport.Target != got.POIs[0].Location {
		t.Errorf("expected camera on first poi, got %+v", got.Viewport.Target)
	}
}

func TestDiscover_CompletionFailure(t *testing.T) {
	env := newTestEnv(t)
	env.completer.completeFn = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("quota exceeded")
	}
	app := env.app()
	s := createDemo(t, app)

	code, body := doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/discover", "")
	if code != 502 {
		t.Fatalf("expected 502, got %d: %s", code, body)
	}
	if e := decodeError(t, body); e.Message != "AI Error: quota exceeded" {
		t.Errorf("unexpected message %q", e.Message)
	}

	_, body = doRequest(t, app, "GET", "/v1/sessions/"+s.ID, "")
	if decodeSession(t, body).Busy {
		t.Error("busy must be cleared after failure")
	}
}

func TestTour_RequiresPOIs(t *testing.T) {
	app := newTestEnv(t).app()
	s := createDemo(t, app)

	code, body := doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/tour/start", "")
	if code != 400 {
		t.Fatalf("expected 400, got %d: %s", code, body)
	}
	if e := decodeError(t, body); e.Message != domain.MsgSearchFirst {
		t.Errorf("expected %q, got %q", domain.MsgSearchFirst, e.Message)
	}
}

func TestTour_StartNarrateStop(t *testing.T) {
	env := newTestEnv(t)
	env.completer.completeFn = func(ctx context.Context, prompt string) (string, error) {
		if prompt == domain.DemoPrompt {
			return "Balboa Park", nil
		}
		return "It has fifteen museums.", nil
	}
	env.geocoder.geocodeFn = func(ctx context.Context, name string) (*domain.GeoPoint, error) {
		return &domain.GeoPoint{Lat: 32.731, Lon: -117.146}, nil
	}
	app := env.app()
	s := createDemo(t, app)

	if code, body := doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/discover", ""); code != 200 {
		t.Fatalf("discover: %d %s", code, body)
	}

	code, body := doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/pois/0/narrate", "")
	if code != 409 {
		t.Fatalf("narrate outside tour: expected 409, got %d: %s", code, body)
	}

	code, body = doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/tour/start", "")
	if code != 200 {
		t.Fatalf("start tour: expected 200, got %d: %s", code, body)
	}
	started := decodeSession(t, body)
	if !started.TourActive || !started.Controls.StopTour || started.Controls.Search {
		t.Errorf("unexpected tour controls: %+v", started.Controls)
	}
	if len(started.POIs) != 1 {
		t.Error("starting a tour must not change pois")
	}

	code, body = doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/pois/0/narrate", "")
	if code != 200 {
		t.Fatalf("narrate: expected 200, got %d: %s", code, body)
	}
	var n domain.Narration
	json.Unmarshal(body, &n)
	if n.Text != "It has fifteen museums." || n.Fallback {
		t.Errorf("unexpected narration: %+v", n)
	}

	if code, _ := doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/pois/5/narrate", ""); code != 404 {
		t.Errorf("out of range index: expected 404, got %d", code)
	}
	if code, _ := doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/pois/x/narrate", ""); code != 400 {
		t.Errorf("non-numeric index: expected 400, got %d", code)
	}

	code, body = doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/tour/stop", "")
	if code != 200 {
		t.Fatalf("stop tour: expected 200, got %d: %s", code, body)
	}
	if decodeSession(t, body).TourActive {
		t.Error("tour must be inactive after stop")
	}
}

func TestTour_LocksRouteEditing(t *testing.T) {
	env := newTestEnv(t)
	env.completer.completeFn = func(ctx context.Context, prompt string) (string, error) {
		return "Balboa Park", nil
	}
	env.geocoder.geocodeFn = func(ctx context.Context, name string) (*domain.GeoPoint, error) {
		return &domain.GeoPoint{Lat: 32.731, Lon: -117.146}, nil
	}
	app := env.app()
	s := createDemo(t, app)

	if code, body := doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/discover", ""); code != 200 {
		t.Fatalf("discover: %d %s", code, body)
	}
	if code, body := doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/tour/start", ""); code != 200 {
		t.Fatalf("start tour: %d %s", code, body)
	}

	code, body := doRequest(t, app, "PUT", "/v1/sessions/"+s.ID+"/endpoints/end",
		`{"name":"Irvine","location":{"lat":33.68,"lon":-117.83}}`)
	if code != 409 {
		t.Errorf("endpoint edit during tour: expected 409, got %d: %s", code, body)
	}
	if code, body := doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/discover", ""); code != 409 {
		t.Errorf("discover during tour: expected 409, got %d: %s", code, body)
	}

	code, body = doRequest(t, app, "POST", "/v1/sessions/"+s.ID+"/pois/0/narrate", "")
	if code != 200 {
		t.Errorf("markers must stay narratable: %d %s", code, body)
	}
}

func TestAutocomplete(t *testing.T) {
	env := newTestEnv(t)
	calls := 0
	env.places.autocompleteFn = func(ctx context.Context, input, token string) ([]domain.PlaceSuggestion, error) {
		calls++
		if token != "tok-1" {
			t.Errorf("expected token tok-1, got %q", token)
		}
		return []domain.PlaceSuggestion{{PlaceID: "p1", PrimaryText: "San Diego", Description: "San Diego, CA, USA"}}, nil
	}
	app := env.app()

	code, body := doRequest(t, app, "GET", "/v1/places/autocomplete?q=San&token=tok-1", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	var resp handler.AutocompleteResponse
	json.Unmarshal(body, &resp)
	if resp.SessionToken != "tok-1" || len(resp.Suggestions) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}

	code, body = doRequest(t, app, "GET", "/v1/places/autocomplete?q=Sa", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	json.Unmarshal(body, &resp)
	if resp.SessionToken == "" {
		t.Error("expected a generated session token")
	}
	if resp.Suggestions == nil || len(resp.Suggestions) != 0 {
		t.Errorf("short query must return an empty list, got %v", resp.Suggestions)
	}
	if calls != 1 {
		t.Errorf("short query must not reach the provider, got %d calls", calls)
	}
}

func TestPlaceDetails(t *testing.T) {
	env := newTestEnv(t)
	env.places.detailsFn = func(ctx context.Context, placeID, token string) (*domain.Place, error) {
		if placeID == "known" {
			return &domain.Place{PlaceID: "known", Name: "Balboa Park", Location: domain.GeoPoint{Lat: 32.73, Lon: -117.14}}, nil
		}
		return nil, domain.ErrNotFound
	}
	app := env.app()

	code, body := doRequest(t, app, "GET", "/v1/places/known", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	var p domain.Place
	json.Unmarshal(body, &p)
	if p.Name != "Balboa Park" {
		t.Errorf("unexpected place %+v", p)
	}

	if code, _ := doRequest(t, app, "GET", "/v1/places/unknown", ""); code != 404 {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestNarrations_FallbackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	env.completer.completeFn = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("unavailable")
	}
	app := env.app()

	code, body := doRequest(t, app, "POST", "/v1/narrations", `{"name":"Balboa Park"}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	var n domain.Narration
	json.Unmarshal(body, &n)
	if n.Text != "This is Balboa Park" || !n.Fallback {
		t.Errorf("unexpected narration %+v", n)
	}

	if code, _ := doRequest(t, app, "POST", "/v1/narrations", `{"name":"  "}`); code != 400 {
		t.Errorf("blank name: expected 400, got %d", code)
	}
}

func TestAsk(t *testing.T) {
	env := newTestEnv(t)
	env.completer.completeFn = func(ctx context.Context, prompt string) (string, error) {
		return "Take the 5.", nil
	}
	app := env.app()

	code, body := doRequest(t, app, "POST", "/v1/ask", `{"prompt":"Fastest way south?"}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	var reply usecases.AssistantReply
	json.Unmarshal(body, &reply)
	if reply.Text != "Take the 5." || reply.Failed {
		t.Errorf("unexpected reply %+v", reply)
	}

	if code, _ := doRequest(t, app, "POST", "/v1/ask", `{"prompt":""}`); code != 400 {
		t.Errorf("empty prompt: expected 400, got %d", code)
	}
}

func TestGazetteer(t *testing.T) {
	env := newTestEnv(t)
	app := env.app()
	if code, _ := doRequest(t, app, "GET", "/v1/gazetteer?q=balboa", ""); code != 503 {
		t.Errorf("unconfigured: expected 503, got %d", code)
	}

	env.deps.Gazetteer = &mockGazetteer{
		searchFn: func(ctx context.Context, name string, limit int) ([]domain.Place, error) {
			if limit != 10 {
				t.Errorf("expected default limit 10, got %d", limit)
			}
			return []domain.Place{{PlaceID: "g1", Name: "Balboa Park"}}, nil
		},
	}
	app = env.app()

	code, body := doRequest(t, app, "GET", "/v1/gazetteer?q=balboa&limit=500", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	var places []domain.Place
	json.Unmarshal(body, &places)
	if len(places) != 1 {
		t.Errorf("expected 1 place, got %d", len(places))
	}

	if code, _ := doRequest(t, app, "GET", "/v1/gazetteer", ""); code != 400 {
		t.Errorf("missing q: expected 400, got %d", code)
	}
}

func TestGraphQL_DemoSession(t *testing.T) {
	app := newTestEnv(t).app()

	code, body := doRequest(t, app, "POST", "/graphql",
		`{"query":"mutation { createDemoSession { id max_detour_miles start { name } controls { search } } }"}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	var created struct {
		Data struct {
			CreateDemoSession struct {
				ID    string `json:"id"`
				Start struct {
					Name string `json:"name"`
				} `json:"start"`
				Controls struct {
					Search bool `json:"search"`
				} `json:"controls"`
			} `json:"createDemoSession"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}
	if len(created.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", created.Errors)
	}
	s := created.Data.CreateDemoSession
	if s.ID == "" || s.Start.Name != "Los Angeles" || !s.Controls.Search {
		t.Errorf("unexpected session %+v", s)
	}

	code, body = doRequest(t, app, "POST", "/graphql",
		`{"query":"query($id: String!) { session(id: $id) { id pois { name } } }","variables":{"id":"`+s.ID+`"}}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	if !strings.Contains(string(body), s.ID) {
		t.Errorf("expected session id in response: %s", body)
	}
}

func TestGraphQL_StartTourError(t *testing.T) {
	app := newTestEnv(t).app()
	s := createDemo(t, app)

	_, body := doRequest(t, app, "POST", "/graphql",
		`{"query":"mutation { startTour(id: \"`+s.ID+`\") { id } }"}`)
	if !strings.Contains(string(body), domain.MsgSearchFirst) {
		t.Errorf("expected user message in errors: %s", body)
	}
}

func TestGraphQL_DiscoverUpstreamError(t *testing.T) {
	env := newTestEnv(t)
	env.completer.completeFn = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("quota exceeded")
	}
	app := env.app()
	s := createDemo(t, app)

	_, body := doRequest(t, app, "POST", "/graphql",
		`{"query":"mutation { discover(id: \"`+s.ID+`\") { id } }"}`)
	if !strings.Contains(string(body), "AI Error: quota exceeded") {
		t.Errorf("expected discovery wording in errors: %s", body)
	}

	_, body = doRequest(t, app, "POST", "/graphql",
		`{"query":"mutation { discover(id: \"missing\") { id } }"}`)
	if strings.Contains(string(body), "AI Error") {
		t.Errorf("unknown session must not use the upstream wording: %s", body)
	}
}

func TestGraphQL_EmptyQuery(t *testing.T) {
	app := newTestEnv(t).app()

	if code, _ := doRequest(t, app, "POST", "/graphql", `{"query":""}`); code != 400 {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestWebSocket_RequiresUpgradeAndSession(t *testing.T) {
	app := newTestEnv(t).app()

	if code, _ := doRequest(t, app, "GET", "/ws?session=x", ""); code != fiber.StatusUpgradeRequired {
		t.Errorf("plain GET: expected 426, got %d", code)
	}

	req := httptest.NewRequest("GET", "/ws?session=missing", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("unknown session: expected 404, got %d", resp.StatusCode)
	}
}

func TestETag_NotModified(t *testing.T) {
	env := newTestEnv(t)
	env.places.detailsFn = func(ctx context.Context, placeID, token string) (*domain.Place, error) {
		return &domain.Place{PlaceID: placeID, Name: "Balboa Park"}, nil
	}
	app := env.app()

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/places/p1", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag")
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}

	for _, header := range []string{etag, `"other", ` + etag, "*"} {
		req := httptest.NewRequest("GET", "/v1/places/p1", nil)
		req.Header.Set("If-None-Match", header)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 304 {
			t.Errorf("If-None-Match %q: expected 304, got %d", header, resp.StatusCode)
		}
	}
}

func TestHealthHandler_SessionCount(t *testing.T) {
	env := newTestEnv(t)
	env.deps.SessionCount = func() int { return 3 }
	app := env.app()

	_, body := doRequest(t, app, "GET", "/v1/health", "")
	var result map[string]interface{}
	json.Unmarshal(body, &result)
	if result["active_sessions"] != float64(3) {
		t.Errorf("expected active_sessions=3, got %v", result["active_sessions"])
	}
}
