package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/pkg/metrics"
)

// SessionStore implements ports.SessionStore in process memory. Sessions that
// are not touched for the idle TTL are evicted by the janitor.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	idleTTL  time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store. A zero idleTTL disables eviction.
func NewSessionStore(idleTTL time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

func (s *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := sess.Clone()
	c.UpdatedAt = s.now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.UpdatedAt
	}
	s.sessions[c.ID] = c
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return nil
}

// Get returns a copy of the session. Reads count as activity, so a session
// that is only polled or narrated stays alive.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	sess.UpdatedAt = s.now().UTC()
	return sess.Clone(), nil
}

// Update runs fn on a copy and stores it only if fn succeeds.
func (s *SessionStore) Update(ctx context.Context, id string, fn func(*domain.Session) error) (*domain.Session, error) {
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
	work.UpdatedAt = s.now().UTC()
	s.sessions[id] = work
	return work.Clone(), nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Evict removes sessions idle for longer than the TTL and returns their ids.
// Busy sessions are kept.
func (s *SessionStore) Evict() []string {
	if s.idleTTL <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	var evicted []string
	for id, sess := range s.sessions {
		if !sess.Busy && sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return evicted
}

// RunJanitor evicts idle sessions every interval until ctx is cancelled.
// onEvict, if set, is called for each evicted session.
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration, onEvict func(id string)) {
	if s.idleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids := s.Evict()
			if len(ids) > 0 {
				slog.Info("evicted idle sessions", "count", len(ids))
			}
			if onEvict != nil {
				for _, id := range ids {
					onEvict(id)
				}
			}
		}
	}
}
