package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
)

// Notifier pushes session events to watching clients. Publishing is best-effort:
// a broker outage never fails the operation that produced the event.
type Notifier struct {
	publisher ports.EventPublisher
}

// NewNotifier creates a Notifier. A nil publisher makes every call a no-op.
func NewNotifier(publisher ports.EventPublisher) *Notifier {
	return &Notifier{publisher: publisher}
}

// Publish sends an event of the given kind.
func (n *Notifier) Publish(ctx context.Context, sessionID string, kind domain.EventKind, message string, data any) {
	if n == nil || n.publisher == nil || sessionID == "" {
		return
	}
	ev := &domain.SessionEvent{
		SessionID: sessionID,
		Kind:      kind,
		Message:   message,
		Data:      data,
		Time:      time.Now(),
	}
	if err := n.publisher.PublishSessionEvent(context.WithoutCancel(ctx), ev); err != nil {
		slog.Warn("publish session event failed", "session_id", sessionID, "kind", kind, "error", err)
	}
}

// Toast sends a short-lived user-facing message.
func (n *Notifier) Toast(ctx context.Context, sessionID, message string) {
	n.Publish(ctx, sessionID, domain.EventToast, message, nil)
}
