package usecases

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
	"github.com/sundaydrive/sundaydrive/internal/pkg/metrics"
	"github.com/sundaydrive/sundaydrive/internal/pkg/telemetry"
)

// AssistantReply is what the assistant screen shows for one prompt.
type AssistantReply struct {
	Text   string `json:"text"`
	Failed bool   `json:"failed"`
}

// AssistantService answers free-form prompts.
type AssistantService struct {
	completer ports.TextCompleter
}

// NewAssistantService creates a new AssistantService.
func NewAssistantService(completer ports.TextCompleter) *AssistantService {
	return &AssistantService{completer: completer}
}

// Ask submits prompt as-is. Model failures are reported in the reply text.
func (s *AssistantService) Ask(ctx context.Context, prompt string) (*AssistantReply, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.ErrEmptyPrompt
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanAssistantAsk)
	defer span.End()

	start := time.Now()
	text, err := s.completer.Complete(ctx, prompt)
	metrics.ObserveCompletion("assistant", start, err)
	if err != nil {
		span.RecordError(err)
		slog.Warn("assistant completion failed", "error", err)
		return &AssistantReply{Text: domain.MsgAssistantError(err), Failed: true}, nil
	}
	if strings.TrimSpace(text) == "" {
		return &AssistantReply{Text: domain.MsgNoResponse}, nil
	}
	return &AssistantReply{Text: text}, nil
}
