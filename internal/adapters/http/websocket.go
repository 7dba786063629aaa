package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/sundaydrive/sundaydrive/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// WebSocketHandler relays one session's events to a connected client.
// The session is chosen with ?session=<id> and checked before the upgrade.
// Clients only read; any message they send is answered with an error frame.
func WebSocketHandler(events SessionEvents) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sessionID := c.Query("session")
		log := slog.Default().With("session_id", sessionID, "remote_addr", c.RemoteAddr().String())

		if events == nil {
			_ = c.WriteJSON(map[string]string{"error": "events not configured"})
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Info("ws client connected")

		var mu sync.Mutex
		write := func(messageType int, data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(messageType, data)
		}
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			return write(websocket.TextMessage, data)
		}

		unsubscribe, err := events.SubscribeSession(sessionID, func(data []byte) {
			if err := write(websocket.TextMessage, data); err != nil {
				log.Debug("ws relay write failed", "error", err)
			}
		})
		if err != nil {
			log.Error("ws subscribe failed", "error", err)
			_ = writeJSON(map[string]string{"error": "subscribe failed"})
			return
		}
		defer unsubscribe()

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := write(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
			_ = writeJSON(map[string]string{"error": "this socket is receive-only"})
		}

		log.Info("ws client disconnected")
	}
}
