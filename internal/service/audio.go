package service

import (
	"context"
	"io"
	"strings"

	"github.com/sakif/execmind/internal/apperror"
)

// MaxSpeechLength bounds the text sent for speech synthesis.
const MaxSpeechLength = 4096

// Speaker synthesises speech. The caller closes the returned stream.
type Speaker interface {
	Speak(ctx context.Context, text string) (io.ReadCloser, error)
}

type AudioService struct {
	speaker Speaker
}

func NewAudioService(speaker Speaker) *AudioService {
	return &AudioService{speaker: speaker}
}

// Speak returns an audio/mpeg stream reading text aloud.
func (s *AudioService) Speak(ctx context.Context, text string) (io.ReadCloser, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "Text is required.")
	}
	if len(text) > MaxSpeechLength {
		return nil, apperror.ValidationFailed("text", "Text is too long.")
	}

	stream, err := s.speaker.Speak(ctx, text)
	if err != nil {
		return nil, apperror.Upstream("Failed to generate audio.", err)
	}
	return stream, nil
}
