package speech

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
)

// FormatMP3 is the MIME type of synthesized audio.
const FormatMP3 = "audio/mpeg"

// Config selects the voice.
type Config struct {
	CredentialsFile string
	LanguageCode    string
	Voice           string
	SpeakingRate    float64
}

// Synthesizer implements ports.SpeechSynthesizer with Google Cloud Text-to-Speech.
type Synthesizer struct {
	client *texttospeech.Client
	cfg    Config
}

// New creates a Synthesizer. Without a credentials file the client uses
// application default credentials.
func New(ctx context.Context, cfg Config) (*Synthesizer, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("texttospeech client: %w", err)
	}
	return &Synthesizer{client: client, cfg: cfg}, nil
}

// Synthesize renders text as MP3.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	resp, err := s.client.SynthesizeSpeech(ctx, BuildRequest(s.cfg, text))
	if err != nil {
		return nil, "", fmt.Errorf("synthesize speech: %w", err)
	}
	return resp.GetAudioContent(), FormatMP3, nil
}

// Close releases the client.
func (s *Synthesizer) Close() error {
	return s.client.Close()
}

// BuildRequest builds a plain-text MP3 request for cfg's voice.
func BuildRequest(cfg Config, text string) *texttospeechpb.SynthesizeSpeechRequest {
	lang := cfg.LanguageCode
	if lang == "" {
		lang = "en-US"
	}
	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: lang,
			Name:         cfg.Voice,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  cfg.SpeakingRate,
		},
	}
}
