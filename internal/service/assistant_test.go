package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/generation"
	"github.com/sakif/execmind/internal/generation/generationtest"
	"github.com/sakif/execmind/internal/knowledge"
)

func loadKnowledge(t *testing.T) *knowledge.Base {
	t.Helper()
	kb, err := knowledge.Load("")
	if err != nil {
		t.Fatalf("knowledge.Load: %v", err)
	}
	return kb
}

func TestAnalystQuery(t *testing.T) {
	gen := generationtest.New().Reply(generation.AnalyzeDocument,
		`{"summary": "Proceed in two phases.", "keyFindings": ["demand is strong"], "risks": [], "recommendation": "Approve phase one."}`)
	svc := NewAnalystService(loadKnowledge(t), gen)

	out, err := svc.Query(context.Background(), "Should we approve the market expansion?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if out.Recommendation != "Approve phase one." {
		t.Errorf("recommendation = %q", out.Recommendation)
	}
	prompt, _ := gen.LastPrompt(generation.AnalyzeDocument)
	if !strings.HasPrefix(prompt, "Question: Should we approve the market expansion?") {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestAnalystQuery_Failures(t *testing.T) {
	gen := generationtest.New()
	svc := NewAnalystService(loadKnowledge(t), gen)
	ctx := context.Background()

	_, err := svc.Query(ctx, "")
	wantMessage(t, err, "A query is required.")

	_, err = svc.Query(ctx, "what is the weather")
	wantKind(t, err, apperror.ErrNotFound)
	wantMessage(t, err, "No relevant context found for this query.")

	gen.Fail(generation.AnalyzeDocument, errors.New("boom"))
	_, err = svc.Query(ctx, "engagement survey results")
	wantMessage(t, err, "Failed to analyze the document.")
}

type fakeSpeaker struct {
	err  error
	text string
}

func (f *fakeSpeaker) Speak(_ context.Context, text string) (io.ReadCloser, error) {
	f.text = text
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader("ID3-audio")), nil
}

func TestAudioSpeak(t *testing.T) {
	speaker := &fakeSpeaker{}
	svc := NewAudioService(speaker)

	stream, err := svc.Speak(context.Background(), "  Good morning  ")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	defer stream.Close()
	body, _ := io.ReadAll(stream)
	if string(body) != "ID3-audio" || speaker.text != "Good morning" {
		t.Errorf("body/text = %q/%q", body, speaker.text)
	}

	_, err = svc.Speak(context.Background(), "")
	wantMessage(t, err, "Text is required.")

	speaker.err = generation.ErrNotConfigured
	_, err = svc.Speak(context.Background(), "hello")
	wantKind(t, err, apperror.ErrUpstream)
	wantMessage(t, err, "Failed to generate audio.")
}

func TestDemoReply(t *testing.T) {
	kb := loadKnowledge(t)
	svc := NewDemoService(kb)

	if got := svc.Reply(0); got != kb.Demo[0] {
		t.Errorf("Reply(0) = %q", got)
	}
	if got := svc.Reply(len(kb.Demo)); got != knowledge.EndOfDemo {
		t.Errorf("Reply past the script = %q", got)
	}
}
