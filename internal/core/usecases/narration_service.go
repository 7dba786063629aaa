package usecases

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
	"github.com/sundaydrive/sundaydrive/internal/pkg/metrics"
	"github.com/sundaydrive/sundaydrive/internal/pkg/telemetry"
)

// NarrationService produces spoken facts about points of interest.
type NarrationService struct {
	completer ports.TextCompleter
	sessions  ports.SessionStore
	voice     *VoiceService
	notifier  *Notifier
}

// NewNarrationService creates a new NarrationService.
func NewNarrationService(completer ports.TextCompleter, sessions ports.SessionStore, voice *VoiceService, notifier *Notifier) *NarrationService {
	return &NarrationService{completer: completer, sessions: sessions, voice: voice, notifier: notifier}
}

// FunFact asks the model for a fact about name. It never fails on a model
// error; the narration falls back to naming the place instead.
func (s *NarrationService) FunFact(ctx context.Context, name string) (*domain.Narration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyPrompt
	}
	n, _ := s.funFact(ctx, name)
	return n, nil
}

// funFact reports whether the model answered at all.
func (s *NarrationService) funFact(ctx context.Context, name string) (*domain.Narration, bool) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanNarrate)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrPlaceName, name))

	start := time.Now()
	text, err := s.completer.Complete(ctx, FunFactPrompt(name))
	metrics.ObserveCompletion("narration", start, err)

	switch {
	case err != nil:
		span.RecordError(err)
		slog.Error("generating fact failed", "name", name, "error", err)
		metrics.Narrations.WithLabelValues("fallback").Inc()
		return &domain.Narration{Name: name, Text: "This is " + name, Fallback: true}, false
	case strings.TrimSpace(text) == "":
		metrics.Narrations.WithLabelValues("empty").Inc()
		return &domain.Narration{Name: name, Text: "This is " + name + ".", Fallback: true}, true
	default:
		metrics.Narrations.WithLabelValues("ok").Inc()
		return &domain.Narration{Name: name, Text: text}, true
	}
}

// NarrateTap speaks a fact about the session's POI at index. Markers only
// narrate while a tour is active.
func (s *NarrationService) NarrateTap(ctx context.Context, sessionID string, index int) (*domain.Narration, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.TourActive {
		return nil, domain.ErrTourInactive
	}
	if index < 0 || index >= len(sess.POIs) {
		return nil, domain.ErrPOIIndex
	}

	n, answered := s.funFact(ctx, sess.POIs[index].Name)
	s.voice.Speak(ctx, sessionID, n.Text)
	if answered {
		s.notifier.Toast(ctx, sessionID, domain.MsgPlayingAudio)
	}
	return n, nil
}
