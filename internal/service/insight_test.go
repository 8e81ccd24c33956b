package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/generation"
	"github.com/sakif/execmind/internal/generation/generationtest"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository/sqlite"
)

type insightFixture struct {
	db    *sqlite.DB
	gen   *generationtest.Fake
	svc   *InsightService
	owner string
}

// Ideas are stamped with the wall clock on insert, so these tests use the
// real clock rather than a fixed one.
func newInsightFixture(t *testing.T) *insightFixture {
	t.Helper()
	f := &insightFixture{db: newTestDB(t), gen: generationtest.New()}
	f.owner = createTestUser(t, f.db, "insights@example.com").ID
	f.svc = NewInsightService(f.db, newTestAssembler(f.db), f.gen, sqlite.NewTxManager(f.db), time.Now, quietLogger())
	return f
}

const insightsReply = `{"insights": [
	{"title": "Hiring is the bottleneck", "summary": "Three meetings stalled on open roles.", "tags": ["Hiring"], "relevance": "high", "keyPoints": ["3 roles open", ""]},
	{"title": "Pricing momentum", "summary": "Customers accepted the change.", "relevance": "meh"}
]}`

func TestGenerateInsights_NoData(t *testing.T) {
	f := newInsightFixture(t)
	createTestMeeting(t, f.db, &model.Meeting{UserID: f.owner, Title: "old", Date: time.Now().AddDate(0, 0, -30)})

	_, err := f.svc.Generate(context.Background(), f.owner)
	wantKind(t, err, apperror.ErrValidation)
	wantMessage(t, err, "Not enough data from the past week to generate insights.")
	if len(f.gen.Calls()) != 0 {
		t.Error("provider called without data")
	}
}

func TestGenerateInsights_StoresBatch(t *testing.T) {
	f := newInsightFixture(t)
	createTestMeeting(t, f.db, &model.Meeting{UserID: f.owner, Title: "Hiring review", Date: time.Now().Add(-time.Hour), Summary: "roles"})
	createTestMeeting(t, f.db, &model.Meeting{UserID: f.owner, Title: "Pricing", Date: time.Now().Add(-2 * time.Hour), Summary: "prices"})
	createTestIdea(t, f.db, &model.Idea{UserID: f.owner, Content: "referral bonus"})
	f.gen.Reply(generation.WeeklyInsights, insightsReply)

	out, err := f.svc.Generate(context.Background(), f.owner)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d insights, want 2", len(out))
	}
	first := out[0]
	if first.Source != "Synthesized from 2 Meeting(s) & 1 Idea(s)" {
		t.Errorf("source = %q", first.Source)
	}
	if !first.AutoGenerated || first.GenerationBatchID == "" || first.GenerationBatchID != out[1].GenerationBatchID {
		t.Errorf("batch fields = %v/%q/%q", first.AutoGenerated, first.GenerationBatchID, out[1].GenerationBatchID)
	}
	if first.ReadTime != 1 || first.Relevance != model.LevelHigh || out[1].Relevance != model.LevelMedium {
		t.Errorf("readTime/relevance = %d/%s/%s", first.ReadTime, first.Relevance, out[1].Relevance)
	}
	if len(first.KeyPoints) != 1 {
		t.Errorf("key points = %v", first.KeyPoints)
	}

	prompt, _ := f.gen.LastPrompt(generation.WeeklyInsights)
	if !strings.Contains(prompt, "Hiring review") || !strings.Contains(prompt, "referral bonus") {
		t.Errorf("prompt misses context:\n%s", prompt)
	}
}

func TestGenerateInsights_ReplacesOnlyAutoGenerated(t *testing.T) {
	f := newInsightFixture(t)
	ctx := context.Background()
	createTestIdea(t, f.db, &model.Idea{UserID: f.owner, Content: "referral bonus"})

	manual := &model.Insight{UserID: f.owner, Title: "Hand-written", Summary: "kept", Source: "Synthesized from my notebook"}
	if err := f.db.CreateInsights(ctx, []*model.Insight{manual}); err != nil {
		t.Fatalf("CreateInsights() error = %v", err)
	}

	f.gen.Reply(generation.WeeklyInsights, insightsReply)
	if _, err := f.svc.Generate(ctx, f.owner); err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}
	second, err := f.svc.Generate(ctx, f.owner)
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}

	list, err := f.svc.List(ctx, f.owner, nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d insights, want the manual one plus one batch of 2", len(list))
	}
	for _, in := range list {
		if in.AutoGenerated && in.GenerationBatchID != second[0].GenerationBatchID {
			t.Errorf("insight %q from an old batch survived", in.Title)
		}
	}
}

func TestGenerateInsights_FailureKeepsPreviousBatch(t *testing.T) {
	f := newInsightFixture(t)
	ctx := context.Background()
	createTestIdea(t, f.db, &model.Idea{UserID: f.owner, Content: "referral bonus"})

	f.gen.Reply(generation.WeeklyInsights, insightsReply)
	if _, err := f.svc.Generate(ctx, f.owner); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	f.gen.Fail(generation.WeeklyInsights, errors.New("rate limited"))
	_, err := f.svc.Generate(ctx, f.owner)
	wantKind(t, err, generation.ErrGenerationFailed)

	list, _ := f.svc.List(ctx, f.owner, nil)
	if len(list) != 2 {
		t.Errorf("got %d insights after a failed run, want the previous 2", len(list))
	}
}

func TestSourceLine(t *testing.T) {
	cases := []struct {
		meetings, ideas int
		want            string
	}{
		{2, 1, "Synthesized from 2 Meeting(s) & 1 Idea(s)"},
		{3, 0, "Synthesized from 3 Meeting(s)"},
		{0, 4, "Synthesized from 4 Idea(s)"},
	}
	for _, c := range cases {
		if got := sourceLine(c.meetings, c.ideas); got != c.want {
			t.Errorf("sourceLine(%d, %d) = %q, want %q", c.meetings, c.ideas, got, c.want)
		}
	}
}
