package usecases_test

import (
	"context"
	"sync"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
)

// --- Mock TextCompleter ---

type mockCompleter struct {
	completeFn func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.completeFn != nil {
		return m.completeFn(ctx, prompt)
	}
	return "", nil
}

func (m *mockCompleter) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	name      string
	geocodeFn func(ctx context.Context, name string) (*domain.GeoPoint, error)

	mu    sync.Mutex
	calls int
}

func (m *mockGeocoder) Name() string {
	if m.name == "" {
		return "mock"
	}
	return m.name
}

func (m *mockGeocoder) Geocode(ctx context.Context, name string) (*domain.GeoPoint, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, name)
	}
	return nil, domain.ErrNotFound
}

// --- Mock DirectionsProvider ---

type mockDirections struct {
	drivingFn func(ctx context.Context, from, to domain.GeoPoint) ([]domain.GeoPoint, error)
}

func (m *mockDirections) Driving(ctx context.Context, from, to domain.GeoPoint) ([]domain.GeoPoint, error) {
	if m.drivingFn != nil {
		return m.drivingFn(ctx, from, to)
	}
	return nil, nil
}

// --- Mock PlacesProvider ---

type mockPlaces struct {
	autocompleteFn func(ctx context.Context, input, token string) ([]domain.PlaceSuggestion, error)
	detailsFn      func(ctx context.Context, placeID, token string) (*domain.Place, error)
	autocompletes  int
}

func (m *mockPlaces) Autocomplete(ctx context.Context, input, token string) ([]domain.PlaceSuggestion, error) {
	m.autocompletes++
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

// --- Mock SpeechSynthesizer ---

type mockSynth struct {
	synthesizeFn func(ctx context.Context, text string) ([]byte, string, error)
}

func (m *mockSynth) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if m.synthesizeFn != nil {
		return m.synthesizeFn(ctx, text)
	}
	return []byte("audio"), "audio/mpeg", nil
}

// --- Mock POIFinder ---

type mockFinder struct {
	findFn func(ctx context.Context, req ports.DiscoveryRequest) (*ports.DiscoveryResult, error)
}

func (m *mockFinder) FindPOIs(ctx context.Context, req ports.DiscoveryRequest) (*ports.DiscoveryResult, error) {
	if m.findFn != nil {
		return m.findFn(ctx, req)
	}
	return &ports.DiscoveryResult{}, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (m *mockPublisher) PublishSessionEvent(ctx context.Context, ev *domain.SessionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return nil
}

func (m *mockPublisher) ofKind(kind domain.EventKind) []domain.SessionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SessionEvent
	for _, ev := range m.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (m *mockPublisher) toasts() []string {
	var out []string
	for _, ev := range m.ofKind(domain.EventToast) {
		out = append(out, ev.Message)
	}
	return out
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Fake SessionStore ---

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeStore(sessions ...*domain.Session) *fakeStore {
	s := &fakeStore{sessions: make(map[string]*domain.Session)}
	for _, sess := range sessions {
		s.sessions[sess.ID] = sess.Clone()
	}
	return s
}

func (s *fakeStore) Create(ctx context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *fakeStore) Update(ctx context.Context, id string, fn func(*domain.Session) error) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	work := sess.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	s.sessions[id] = work
	return work.Clone(), nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// routedSession returns a session with both endpoints resolved.
func routedSession(id string) *domain.Session {
	return &domain.Session{
		ID:             id,
		Start:          domain.Endpoint{Name: "Los Angeles", Location: &domain.GeoPoint{Lat: 34.05, Lon: -118.24}},
		End:            domain.Endpoint{Name: "San Diego", Location: &domain.GeoPoint{Lat: 32.72, Lon: -117.16}},
		MaxDetourMiles: 10,
		POIs:           []domain.POI{},
		RouteRevision:  1,
	}
}
