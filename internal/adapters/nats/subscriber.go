package natsadapter

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// Subscriber relays one session's events to a callback. Plain subscriptions
// are used since clients only need events from the moment they connect.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber creates a subscriber on an existing connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// SubscribeSession calls fn with the JSON of every event for sessionID until
// the returned cancel func is called.
func (s *Subscriber) SubscribeSession(sessionID string, fn func(data []byte)) (func(), error) {
	sub, err := s.conn.Subscribe(SessionWildcard(sessionID), func(msg *nats.Msg) {
		fn(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe session %s: %w", sessionID, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
