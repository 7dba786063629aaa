package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
	"github.com/sundaydrive/sundaydrive/internal/pkg/metrics"
	"github.com/sundaydrive/sundaydrive/internal/pkg/telemetry"
)

const defaultSpeechTimeout = 20 * time.Second

type utterance struct {
	seq    uint64
	cancel context.CancelFunc
}

// VoiceService speaks text to a session's subscribers. Each session has at most
// one utterance in flight; a newer one flushes the older.
type VoiceService struct {
	synth    ports.SpeechSynthesizer
	notifier *Notifier
	timeout  time.Duration

	mu     sync.Mutex
	seq    uint64
	active map[string]utterance
	wg     sync.WaitGroup
}

// NewVoiceService creates a VoiceService. With a nil synthesizer the text is
// published without audio and clients speak it on-device.
func NewVoiceService(synth ports.SpeechSynthesizer, notifier *Notifier, timeout time.Duration) *VoiceService {
	if timeout <= 0 {
		timeout = defaultSpeechTimeout
	}
	return &VoiceService{
		synth:    synth,
		notifier: notifier,
		timeout:  timeout,
		active:   make(map[string]utterance),
	}
}

// Speak replaces whatever the session is saying with text. It returns immediately.
func (v *VoiceService) Speak(ctx context.Context, sessionID, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.timeout)

	v.mu.Lock()
	if prev, ok := v.active[sessionID]; ok {
		prev.cancel()
	}
	v.seq++
	seq := v.seq
	v.active[sessionID] = utterance{seq: seq, cancel: cancel}
	v.mu.Unlock()

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		defer v.finish(sessionID, seq)
		v.speak(ctx, sessionID, seq, text)
	}()
}

func (v *VoiceService) speak(ctx context.Context, sessionID string, seq uint64, text string) {
	u := &domain.Utterance{SessionID: sessionID, Text: text}

	if v.synth != nil {
		ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSynthesize)
		span.SetAttributes(attribute.String(telemetry.AttrSessionID, sessionID))
		audio, format, err := v.synth.Synthesize(ctx, text)
		span.End()
		if err != nil {
			if !v.current(sessionID, seq) {
				metrics.SpeechSyntheses.WithLabelValues("flushed").Inc()
				return
			}
			metrics.SpeechSyntheses.WithLabelValues("error").Inc()
			// Fall through with text only; the client can still speak it.
			slog.Warn("speech synthesis failed", "session_id", sessionID, "error", err)
		} else {
			metrics.SpeechSyntheses.WithLabelValues("ok").Inc()
			u.Audio, u.Format = audio, format
		}
	}

	if !v.current(sessionID, seq) {
		metrics.SpeechSyntheses.WithLabelValues("flushed").Inc()
		return
	}
	v.notifier.Publish(ctx, sessionID, domain.EventSpeech, text, u)
}

// Stop flushes any in-flight utterance and tells clients to stop playback.
func (v *VoiceService) Stop(ctx context.Context, sessionID string) {
	v.mu.Lock()
	if prev, ok := v.active[sessionID]; ok {
		prev.cancel()
		delete(v.active, sessionID)
	}
	v.mu.Unlock()

	v.notifier.Publish(ctx, sessionID, domain.EventSpeechStop, "", nil)
}

// Wait blocks until every in-flight utterance has finished.
func (v *VoiceService) Wait() {
	v.wg.Wait()
}

func (v *VoiceService) current(sessionID string, seq uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	u, ok := v.active[sessionID]
	return ok && u.seq == seq
}

func (v *VoiceService) finish(sessionID string, seq uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if u, ok := v.active[sessionID]; ok && u.seq == seq {
		u.cancel()
		delete(v.active, sessionID)
	}
}
