package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/generation"
	"github.com/sakif/execmind/internal/generation/generationtest"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository/sqlite"
)

// fakeTranscriber returns text or err and records the path it was given.
type fakeTranscriber struct {
	text string
	err  error
	path string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	f.path = path
	return f.text, f.err
}

type ideaFixture struct {
	db    *sqlite.DB
	gen   *generationtest.Fake
	audio *fakeTranscriber
	svc   *IdeaService
	owner string
}

func newIdeaFixture(t *testing.T) *ideaFixture {
	t.Helper()
	f := &ideaFixture{db: newTestDB(t), gen: generationtest.New(), audio: &fakeTranscriber{}}
	f.owner = createTestUser(t, f.db, "ideas@example.com").ID
	f.svc = NewIdeaService(f.db, newTestAssembler(f.db), f.gen, f.audio, quietLogger())
	return f
}

const classifyReply = `{
	"title": "Four-day week pilot",
	"category": "Culture",
	"tags": ["wellbeing", "Pilot"],
	"priority": "12",
	"aiAnalysis": {"sentiment": "Positive", "themes": ["retention"], "actionability": "high"}
}`

func TestCreateIdea_ClassifiesAndStores(t *testing.T) {
	f := newIdeaFixture(t)
	f.gen.Reply(generation.ClassifyIdea, classifyReply)

	idea, err := f.svc.Create(context.Background(), f.owner, CreateIdeaInput{Content: " Try a four-day week in Q4 "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if idea.Content != "Try a four-day week in Q4" || idea.Title != "Four-day week pilot" {
		t.Errorf("content/title = %q/%q", idea.Content, idea.Title)
	}
	if idea.Category != model.CategoryCulture || idea.Priority != model.MaxIdeaPriority {
		t.Errorf("category/priority = %s/%d", idea.Category, idea.Priority)
	}
	if idea.Source != model.SourceText || idea.SourceMetadata.Context != DefaultIdeaContext {
		t.Errorf("source = %s, metadata = %+v", idea.Source, idea.SourceMetadata)
	}
	if idea.Status != model.StatusCaptured || idea.Analysis.Actionability != model.LevelHigh {
		t.Errorf("status/actionability = %s/%s", idea.Status, idea.Analysis.Actionability)
	}

	list, err := f.svc.List(context.Background(), f.owner, nil)
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %d ideas, %v", len(list), err)
	}
}

func TestCreateIdea_Failures(t *testing.T) {
	f := newIdeaFixture(t)

	_, err := f.svc.Create(context.Background(), f.owner, CreateIdeaInput{Content: "  "})
	wantKind(t, err, apperror.ErrValidation)
	wantMessage(t, err, "Idea content is required.")

	f.gen.Fail(generation.ClassifyIdea, context.DeadlineExceeded)
	_, err = f.svc.Create(context.Background(), f.owner, CreateIdeaInput{Content: "something"})
	wantKind(t, err, context.DeadlineExceeded)
	wantMessage(t, err, "Failed to create idea")
}

func TestCreateFromVoice(t *testing.T) {
	f := newIdeaFixture(t)
	f.audio.text = "  hire a chief of staff  "
	f.gen.Reply(generation.ClassifyIdea, classifyReply)

	idea, err := f.svc.CreateFromVoice(context.Background(), f.owner, VoiceUpload{
		Path: "/tmp/uploads/audio/123-abc.webm", OriginalName: "memo.webm", Context: "car ride",
	})
	if err != nil {
		t.Fatalf("CreateFromVoice() error = %v", err)
	}
	if f.audio.path != "/tmp/uploads/audio/123-abc.webm" {
		t.Errorf("transcribed %q", f.audio.path)
	}
	if idea.Source != model.SourceVoice || idea.Content != "hire a chief of staff" {
		t.Errorf("idea = %+v", idea)
	}
	if idea.SourceMetadata.AudioFile != "memo.webm" || idea.SourceMetadata.Context != "car ride" {
		t.Errorf("metadata = %+v", idea.SourceMetadata)
	}
}

func TestCreateFromVoice_Failures(t *testing.T) {
	f := newIdeaFixture(t)

	f.audio.err = errors.New("unsupported format")
	_, err := f.svc.CreateFromVoice(context.Background(), f.owner, VoiceUpload{Path: "x"})
	wantKind(t, err, apperror.ErrUpstream)

	f.audio.err = nil
	f.audio.text = ""
	_, err = f.svc.CreateFromVoice(context.Background(), f.owner, VoiceUpload{Path: "x"})
	wantKind(t, err, apperror.ErrValidation)

	if len(f.gen.Calls()) != 0 {
		t.Error("classification attempted without a transcript")
	}
}

func TestListIdeas_Since(t *testing.T) {
	f := newIdeaFixture(t)
	createTestIdea(t, f.db, &model.Idea{UserID: f.owner, Content: "older"})

	future := time.Now().Add(time.Hour)
	list, err := f.svc.List(context.Background(), f.owner, &future)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List(since future) = %d ideas, want 0", len(list))
	}
}

func TestSynthesize(t *testing.T) {
	f := newIdeaFixture(t)
	ctx := context.Background()

	_, err := f.svc.Synthesize(ctx, f.owner, "onboarding")
	wantKind(t, err, apperror.ErrNotFound)

	for _, c := range []string{"buddy system for onboarding", "onboarding checklist", "quarterly offsite"} {
		createTestIdea(t, f.db, &model.Idea{UserID: f.owner, Content: c})
	}
	f.gen.Reply(generation.SynthesizeIdeas, `{"title": "Onboarding 2.0", "summary": "Pair buddies with a checklist.", "nextSteps": ["pilot"]}`)

	out, err := f.svc.Synthesize(ctx, f.owner, "onboarding")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if out.Title != "Onboarding 2.0" {
		t.Errorf("title = %q", out.Title)
	}
	prompt, _ := f.gen.LastPrompt(generation.SynthesizeIdeas)
	if want := "Topic: onboarding"; prompt[:len(want)] != want {
		t.Errorf("prompt = %q", prompt)
	}
}
