package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sakif/execmind/internal/config"
)

// ErrNotConfigured is the cause of every failure when no API key is set.
var ErrNotConfigured = errors.New("generation provider API key is not configured")

// NewProviders builds the text and audio providers selected by cfg.
// The audio provider is nil for providers without audio support.
//
// Without an API key both are replaced by a stub that fails every call, so
// the server still starts and the non-AI endpoints keep working.
func NewProviders(cfg config.AIConfig) (Provider, AudioProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return unconfigured{}, unconfigured{}, nil
	}

	switch cfg.Provider {
	case "openai":
		p := NewOpenAIProvider(OpenAIOptions{
			APIKey:             cfg.APIKey,
			BaseURL:            cfg.BaseURL,
			Model:              cfg.Model,
			Temperature:        cfg.Temperature,
			MaxTokens:          cfg.MaxTokens,
			TranscriptionModel: cfg.TranscriptionModel,
			SpeechModel:        cfg.SpeechModel,
			SpeechVoice:        cfg.SpeechVoice,
		})
		return p, p, nil
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Temperature), nil, nil
	default:
		return nil, nil, fmt.Errorf("generation: unknown provider %q", cfg.Provider)
	}
}

type unconfigured struct{}

func (unconfigured) Complete(context.Context, string, string) (string, error) {
	return "", ErrNotConfigured
}

func (unconfigured) Transcribe(context.Context, io.Reader, string) (string, error) {
	return "", ErrNotConfigured
}

func (unconfigured) Speak(context.Context, string) (io.ReadCloser, error) {
	return nil, ErrNotConfigured
}
