package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
)

// EventBus is an in-process stand-in for the NATS relay, used when no broker
// is configured. It implements ports.EventPublisher and the WebSocket relay's
// subscriber interface.
type EventBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func([]byte)
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[string]map[int]func([]byte))}
}

// PublishSessionEvent delivers ev to the session's subscribers synchronously.
func (b *EventBus) PublishSessionEvent(ctx context.Context, ev *domain.SessionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	b.mu.RLock()
	fns := make([]func([]byte), 0, len(b.subs[ev.SessionID]))
	for _, fn := range b.subs[ev.SessionID] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(data)
	}
	return nil
}

// SubscribeSession registers fn for sessionID until cancel is called.
func (b *EventBus) SubscribeSession(sessionID string, fn func(data []byte)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[int]func([]byte))
	}
	b.subs[sessionID][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[sessionID], id)
		if len(b.subs[sessionID]) == 0 {
			delete(b.subs, sessionID)
		}
	}, nil
}
