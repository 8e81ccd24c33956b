// Package generation is the only code that talks to the text-generation
// provider.
//
// SHAPE OF A CALL:
//
//	Generate(ctx, template, prompt, &result)
//	  1. check result is the type template produces
//	  2. bound the call with the configured timeout
//	  3. send template.Instruction() as the system message, prompt as the user message
//	  4. cut the JSON object out of the reply and decode it into result
//	  5. result.Validate()
//
// Any failure along the way comes back as a *Error matching
// ErrGenerationFailed. Nothing is retried and nothing is remembered between
// calls: every prompt carries all the context it needs.
package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Provider completes one system+user exchange and returns the raw text,
// which is expected to contain a JSON object.
type Provider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// AudioProvider offers speech-to-text and text-to-speech.
type AudioProvider interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
	Speak(ctx context.Context, text string) (io.ReadCloser, error)
}

// Generator is what the services depend on. *Gateway implements it; tests
// pass a fake that fills out from canned JSON.
type Generator interface {
	Generate(ctx context.Context, tmpl Template, prompt string, out Result) error
}

// DefaultTimeout bounds a call when none is configured.
const DefaultTimeout = 60 * time.Second

// Gateway wraps a Provider with the template contract, a timeout and error
// normalisation.
type Gateway struct {
	text    Provider
	audio   AudioProvider // nil when the provider has no audio support
	timeout time.Duration
	remove  func(path string) error
	logger  *slog.Logger
}

// NewGateway builds a gateway. audio may be nil.
func NewGateway(text Provider, audio AudioProvider, timeout time.Duration, logger *slog.Logger) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		text:    text,
		audio:   audio,
		timeout: timeout,
		remove:  os.Remove,
		logger:  logger,
	}
}

// SetRemover replaces the function Transcribe uses to delete staged uploads.
func (g *Gateway) SetRemover(fn func(path string) error) {
	if fn != nil {
		g.remove = fn
	}
}

// Generate runs tmpl against prompt and decodes the validated reply into out.
func (g *Gateway) Generate(ctx context.Context, tmpl Template, prompt string, out Result) error {
	if !tmpl.Valid() {
		return &Error{Op: "generate", Template: tmpl, Cause: fmt.Errorf("unknown template %q", tmpl)}
	}
	if out == nil || out.template() != tmpl {
		return &Error{Op: "generate", Template: tmpl, Cause: fmt.Errorf("%T is not the result of %s", out, tmpl)}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.text.Complete(ctx, tmpl.Instruction(), prompt)
	if err != nil {
		return g.fail(&Error{Op: "generate", Template: tmpl, Cause: err}, start)
	}

	body, err := extractJSON(raw)
	if err != nil {
		return g.fail(&Error{Op: "generate", Template: tmpl, Cause: err}, start)
	}
	if err := decode(body, out); err != nil {
		return g.fail(&Error{Op: "generate", Template: tmpl, Schema: !isSyntaxError(err), Cause: fmt.Errorf("decoding reply: %w", err)}, start)
	}
	if err := out.Validate(); err != nil {
		return g.fail(&Error{Op: "generate", Template: tmpl, Schema: true, Cause: err}, start)
	}

	g.logger.Debug("generation completed",
		slog.String("template", string(tmpl)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// Transcribe converts the staged audio file at path to text. The file is
// deleted afterwards whether transcription succeeded or not.
func (g *Gateway) Transcribe(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if rmErr := g.remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			g.logger.Warn("failed to delete staged audio",
				slog.String("path", path),
				slog.String("error", rmErr.Error()),
			)
		}
	}()

	if g.audio == nil {
		return "", &Error{Op: "transcribe", Cause: ErrUnsupported}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", &Error{Op: "transcribe", Cause: err}
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err = g.audio.Transcribe(ctx, f, filepath.Base(path))
	if err != nil {
		return "", g.fail(&Error{Op: "transcribe", Cause: err}, start)
	}
	return strings.TrimSpace(text), nil
}

// Speak returns an audio/mpeg stream for text. The timeout covers the whole
// stream and is released when the caller closes it.
func (g *Gateway) Speak(ctx context.Context, text string) (io.ReadCloser, error) {
	if g.audio == nil {
		return nil, &Error{Op: "speak", Cause: ErrUnsupported}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	start := time.Now()
	rc, err := g.audio.Speak(ctx, text)
	if err != nil {
		cancel()
		return nil, g.fail(&Error{Op: "speak", Cause: err}, start)
	}
	return &cancelOnClose{ReadCloser: rc, cancel: cancel}, nil
}

func (g *Gateway) fail(err *Error, start time.Time) error {
	g.logger.Error("generation failed",
		slog.String("op", err.Op),
		slog.String("template", string(err.Template)),
		slog.Bool("schema", err.Schema),
		slog.Duration("duration", time.Since(start)),
		slog.String("error", err.Cause.Error()),
	)
	return err
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

// extractJSON returns the text between the first "{" and the last "}".
// Providers that ignore JSON mode tend to wrap the object in prose or a
// markdown fence.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", errors.New("no JSON object found in reply")
	}
	return s[start : end+1], nil
}
