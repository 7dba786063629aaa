package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Config configures the Gemini client.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Completer implements ports.TextCompleter with a Gemini generative model.
type Completer struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// New creates a Completer.
func New(ctx context.Context, cfg Config) (*Completer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	if cfg.Temperature > 0 {
		model.SetTemperature(cfg.Temperature)
	}
	return &Completer{client: client, model: model, timeout: cfg.Timeout}, nil
}

// Complete sends prompt as a single user turn and returns the concatenated
// text parts of the first candidate.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", fmt.Errorf("response blocked: %w", err)
		}
		return "", fmt.Errorf("gemini: %w", err)
	}
	return ResponseText(resp), nil
}

// Close releases the client.
func (c *Completer) Close() error {
	return c.client.Close()
}

// ResponseText extracts the text of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
