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
	"github.com/sakif/execmind/internal/knowledge"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository/sqlite"
)

var testNow = time.Date(2024, 8, 16, 15, 0, 0, 0, time.UTC)

type meetingFixture struct {
	db   *sqlite.DB
	gen  *generationtest.Fake
	mail *fakeMailer
	svc  *MeetingService
	user *model.User
}

func newMeetingFixture(t *testing.T) *meetingFixture {
	t.Helper()
	kb, err := knowledge.Load("")
	if err != nil {
		t.Fatalf("knowledge.Load: %v", err)
	}
	f := &meetingFixture{db: newTestDB(t), gen: generationtest.New(), mail: &fakeMailer{}}
	f.user = createTestUser(t, f.db, "exec@example.com")
	f.svc = NewMeetingService(f.db, newTestAssembler(f.db), f.gen, f.mail, kb, fixedClock(testNow), quietLogger())
	return f
}

const summaryReply = `{
	"summary": "Agreed the Q3 pricing change.",
	"keyPoints": [{"point": "Raise prices 5%", "importance": "HIGH"}, {"point": "", "importance": "low"}],
	"actionItems": [{"description": "Draft customer letter", "assignedTo": "Sam", "priority": "high"},
	                {"description": "Update price list", "assignedTo": "", "priority": "whenever"}],
	"followUpNeeded": "true",
	"sentiment": "positive"
}`

func TestSummarize_StoresMeeting(t *testing.T) {
	f := newMeetingFixture(t)
	f.gen.Reply(generation.SummarizeMeeting, summaryReply)

	m, err := f.svc.Summarize(context.Background(), f.user, SummarizeInput{
		Title:        "Pricing sync",
		Participants: []model.Participant{{Name: " Sam "}, {Name: ""}},
		Notes:        "we talked about pricing",
	})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if m.ID == "" || !m.Date.Equal(testNow) {
		t.Errorf("id/date = %q/%v", m.ID, m.Date)
	}
	if len(m.Participants) != 1 || m.Participants[0].Name != "Sam" {
		t.Errorf("participants = %+v", m.Participants)
	}
	if len(m.KeyPoints) != 1 || m.KeyPoints[0].Importance != model.LevelHigh {
		t.Errorf("key points = %+v", m.KeyPoints)
	}
	if m.ActionItems[1].AssignedTo != "unassigned" || m.ActionItems[1].Priority != model.LevelMedium {
		t.Errorf("second action item = %+v", m.ActionItems[1])
	}
	if !m.FollowUpNeeded {
		t.Error("followUpNeeded lost")
	}

	stored, err := f.db.GetMeeting(context.Background(), f.user.ID, m.ID)
	if err != nil {
		t.Fatalf("GetMeeting() error = %v", err)
	}
	if stored.Summary != "Agreed the Q3 pricing change." {
		t.Errorf("stored summary = %q", stored.Summary)
	}
	if len(f.mail.messages()) != 0 {
		t.Error("mail sent although the user has no assistant")
	}
}

func TestSummarize_NotifiesAssistant(t *testing.T) {
	f := newMeetingFixture(t)
	f.user.EAEmail = "ea@example.com"
	f.gen.Reply(generation.SummarizeMeeting, summaryReply)

	m, err := f.svc.Summarize(context.Background(), f.user, SummarizeInput{Title: "Pricing sync", Notes: "notes"})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	sent := f.mail.messages()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want follow-up and action items", len(sent))
	}
	if !strings.Contains(sent[0].Subject, "Meeting Follow-up Scheduling Request: Pricing sync") {
		t.Errorf("first subject = %q", sent[0].Subject)
	}
	if !strings.Contains(sent[1].Text, "- Draft customer letter (Assigned to: Sam)") {
		t.Errorf("action items text = %q", sent[1].Text)
	}

	stored, _ := f.db.GetMeeting(context.Background(), f.user.ID, m.ID)
	if !stored.FollowUpScheduled || !m.FollowUpScheduled {
		t.Error("follow-up not marked scheduled")
	}
}

func TestSummarize_MailFailureDoesNotFailRequest(t *testing.T) {
	f := newMeetingFixture(t)
	f.user.EAEmail = "ea@example.com"
	f.mail.err = errors.New("smtp down")
	f.gen.Reply(generation.SummarizeMeeting, summaryReply)

	m, err := f.svc.Summarize(context.Background(), f.user, SummarizeInput{Title: "Pricing sync", Notes: "notes"})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if m.FollowUpScheduled {
		t.Error("follow-up marked scheduled although the request was never sent")
	}
}

func TestSummarize_Failures(t *testing.T) {
	f := newMeetingFixture(t)
	ctx := context.Background()

	_, err := f.svc.Summarize(ctx, f.user, SummarizeInput{Title: "x"})
	wantKind(t, err, apperror.ErrValidation)

	f.gen.Reply(generation.SummarizeMeeting, `{"summary": ""}`)
	_, err = f.svc.Summarize(ctx, f.user, SummarizeInput{Title: "x", Notes: "y"})
	wantKind(t, err, generation.ErrSchemaMismatch)
	wantMessage(t, err, "Failed to create meeting summary")

	list, _ := f.svc.List(ctx, f.user.ID)
	if len(list) != 0 {
		t.Errorf("a failed summary stored %d meetings", len(list))
	}
}

func TestPrep(t *testing.T) {
	f := newMeetingFixture(t)
	ctx := context.Background()

	res, err := f.svc.Prep(ctx, f.user.ID, "Priya")
	if err != nil {
		t.Fatalf("Prep() error = %v", err)
	}
	if res.Briefing != nil || res.Message != "No past meetings found with Priya." {
		t.Errorf("Prep() with no history = %+v", res)
	}
	if len(f.gen.Calls()) != 0 {
		t.Error("provider called without any history")
	}

	for i := 0; i < 7; i++ {
		createTestMeeting(t, f.db, &model.Meeting{
			UserID:       f.user.ID,
			Title:        "1:1",
			Participants: []model.Participant{{Name: "Priya Shah"}},
			Date:         testNow.AddDate(0, 0, -i),
			Summary:      "catch-up",
		})
	}
	f.gen.Reply(generation.BriefPerson, `{"summaryOfPastInteractions": "Weekly 1:1s.", "keyOpenTopics": ["hiring"]}`)

	res, err = f.svc.Prep(ctx, f.user.ID, "priya")
	if err != nil {
		t.Fatalf("Prep() error = %v", err)
	}
	if res.Briefing == nil || res.Briefing.PersonName != "priya" || res.Message != "Briefing prepared for priya." {
		t.Errorf("Prep() = %+v", res)
	}
	prompt, _ := f.gen.LastPrompt(generation.BriefPerson)
	if n := strings.Count(prompt, "catch-up"); n != 5 {
		t.Errorf("prompt includes %d meetings, want the last 5", n)
	}
}

func TestAsk(t *testing.T) {
	f := newMeetingFixture(t)
	ctx := context.Background()

	_, err := f.svc.Ask(ctx, f.user.ID, "what did we decide about pricing?")
	if !errors.Is(err, ErrNoMeetingMatch) {
		t.Fatalf("Ask() on an empty archive = %v, want ErrNoMeetingMatch", err)
	}
	wantKind(t, err, apperror.ErrNotFound)

	createTestMeeting(t, f.db, &model.Meeting{
		UserID: f.user.ID, Title: "Pricing sync", Date: testNow, Summary: "Prices go up 5% in Q3.",
		KeyPoints: []model.KeyPoint{{Point: "customer letter first", Importance: model.LevelHigh}},
	})
	f.gen.Reply(generation.AnswerQuestion, `{"answer": "A 5% increase in Q3."}`)

	ans, err := f.svc.Ask(ctx, f.user.ID, "what did we decide about pricing?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if ans.Answer != "A 5% increase in Q3." {
		t.Errorf("answer = %q", ans.Answer)
	}
	prompt, _ := f.gen.LastPrompt(generation.AnswerQuestion)
	if !strings.Contains(prompt, "customer letter first") {
		t.Errorf("prompt misses key points:\n%s", prompt)
	}
}

func TestQuickCapture(t *testing.T) {
	f := newMeetingFixture(t)
	f.gen.Reply(generation.StructureQuickCapture, `{
		"title": "Vendor call",
		"participants": [{"name": "Lee", "role": "Account manager"}],
		"summary": "Renewal terms discussed.",
		"actionItems": [],
		"followUpNeeded": false,
		"meetingType": "Client",
		"tags": ["Vendor", "renewal", "vendor"]
	}`)

	m, err := f.svc.QuickCapture(context.Background(), f.user.ID, "call w/ Lee re renewal")
	if err != nil {
		t.Fatalf("QuickCapture() error = %v", err)
	}
	if m.MeetingType != model.MeetingClient || m.Duration != model.DefaultMeetingDuration {
		t.Errorf("type/duration = %s/%d", m.MeetingType, m.Duration)
	}
	if strings.Join(m.Tags, ",") != "vendor,renewal" {
		t.Errorf("tags = %v", m.Tags)
	}
	if m.Participants[0].Role != "Account manager" {
		t.Errorf("participants = %+v", m.Participants)
	}

	_, err = f.svc.QuickCapture(context.Background(), f.user.ID, "   ")
	wantKind(t, err, apperror.ErrValidation)
}

func TestArchive(t *testing.T) {
	f := newMeetingFixture(t)
	if len(f.svc.Archive()) == 0 {
		t.Error("archive is empty")
	}
}
