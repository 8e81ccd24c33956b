package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository"
)

func createTestMeeting(t *testing.T, db *DB, ownerID, title string, date time.Time, participants ...string) *model.Meeting {
	t.Helper()
	m := &model.Meeting{
		UserID:  ownerID,
		Title:   title,
		Date:    date,
		Summary: "Summary of " + title,
		KeyPoints: []model.KeyPoint{
			{Point: "first point", Importance: model.LevelHigh},
			{Point: "second point", Importance: model.LevelLow},
		},
	}
	for _, p := range participants {
		m.Participants = append(m.Participants, model.Participant{Name: p})
	}
	if err := db.CreateMeeting(context.Background(), m); err != nil {
		t.Fatalf("failed to create test meeting: %v", err)
	}
	return m
}

func TestCreateMeeting_Defaults(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "m@example.com")

	m := createTestMeeting(t, db, owner.ID, "Standup", time.Now())

	if m.ID == "" {
		t.Fatal("CreateMeeting() did not set ID")
	}
	if m.Duration != model.DefaultMeetingDuration {
		t.Errorf("Duration = %d, want %d", m.Duration, model.DefaultMeetingDuration)
	}
	if m.MeetingType != model.MeetingOther {
		t.Errorf("MeetingType = %q, want other", m.MeetingType)
	}
}

func TestGetMeeting_PreservesOrderAndOwnership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")

	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	m := &model.Meeting{
		UserID:       owner.ID,
		Title:        "Board prep",
		Date:         time.Date(2025, 2, 20, 15, 0, 0, 0, time.UTC),
		Participants: []model.Participant{{Name: "Zoe"}, {Name: "Adam"}, {Name: "Mia"}},
		ActionItems: []model.ActionItem{
			{Description: "Draft deck", AssignedTo: "Zoe", DueDate: &due, Priority: model.LevelHigh},
			{Description: "Book room", AssignedTo: "Adam", Priority: model.LevelLow},
		},
		FollowUpNeeded: true,
	}
	if err := db.CreateMeeting(ctx, m); err != nil {
		t.Fatalf("CreateMeeting() error = %v", err)
	}

	got, err := db.GetMeeting(ctx, owner.ID, m.ID)
	if err != nil {
		t.Fatalf("GetMeeting() error = %v", err)
	}
	names := got.ParticipantNames()
	if len(names) != 3 || names[0] != "Zoe" || names[1] != "Adam" || names[2] != "Mia" {
		t.Errorf("participants order = %v", names)
	}
	if len(got.ActionItems) != 2 || got.ActionItems[0].DueDate == nil || !got.ActionItems[0].DueDate.Equal(due) {
		t.Errorf("action items = %+v", got.ActionItems)
	}
	if !got.FollowUpNeeded || got.FollowUpScheduled {
		t.Errorf("follow-up flags = %v/%v", got.FollowUpNeeded, got.FollowUpScheduled)
	}
	if !got.Date.Equal(m.Date) {
		t.Errorf("Date = %v, want %v", got.Date, m.Date)
	}

	if _, err := db.GetMeeting(ctx, other.ID, m.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetMeeting() by another user error = %v, want ErrNotFound", err)
	}
}

func TestListMeetings_NewestFirstAndSince(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "list@example.com")
	now := time.Now()

	createTestMeeting(t, db, owner.ID, "old", now.AddDate(0, 0, -20))
	createTestMeeting(t, db, owner.ID, "newest", now.Add(-time.Hour))
	createTestMeeting(t, db, owner.ID, "middle", now.AddDate(0, 0, -3))

	all, err := db.ListMeetings(ctx, owner.ID, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListMeetings() error = %v", err)
	}
	if len(all) != 3 || all[0].Title != "newest" || all[2].Title != "old" {
		t.Fatalf("ListMeetings() order = %v", titles(all))
	}

	since := now.AddDate(0, 0, -7)
	recent, err := db.ListMeetings(ctx, owner.ID, repository.ListOptions{Since: &since})
	if err != nil {
		t.Fatalf("ListMeetings(since) error = %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("ListMeetings(since) = %v, want 2 meetings", titles(recent))
	}
}

func TestMeetingsInWindow(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "window@example.com")
	now := time.Now()

	createTestMeeting(t, db, owner.ID, "in", now.AddDate(0, 0, -2))
	createTestMeeting(t, db, owner.ID, "out", now.AddDate(0, 0, -9))
	createTestMeeting(t, db, owner.ID, "future", now.Add(24*time.Hour))

	got, err := db.MeetingsInWindow(context.Background(), owner.ID, repository.LastDays(now, 7), 20)
	if err != nil {
		t.Fatalf("MeetingsInWindow() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "in" {
		t.Errorf("MeetingsInWindow() = %v, want [in]", titles(got))
	}
}

func TestMeetingsByIDs_DropsForeignIDs(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "a@example.com")
	other := createTestUser(t, db, "b@example.com")

	mine := createTestMeeting(t, db, owner.ID, "mine", time.Now())
	theirs := createTestMeeting(t, db, other.ID, "theirs", time.Now())

	got, err := db.MeetingsByIDs(context.Background(), owner.ID, []string{mine.ID, theirs.ID, "nope"})
	if err != nil {
		t.Fatalf("MeetingsByIDs() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Errorf("MeetingsByIDs() = %v, want only mine", titles(got))
	}

	empty, err := db.MeetingsByIDs(context.Background(), owner.ID, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("MeetingsByIDs(nil) = %v, %v", empty, err)
	}
}

func TestMeetingsWithParticipant(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "prep@example.com")
	now := time.Now()

	createTestMeeting(t, db, owner.ID, "older with sarah", now.AddDate(0, 0, -10), "Sarah Connor", "Kyle")
	createTestMeeting(t, db, owner.ID, "newer with sarah", now.AddDate(0, 0, -1), "sarah")
	createTestMeeting(t, db, owner.ID, "without", now, "John")

	got, err := db.MeetingsWithParticipant(context.Background(), owner.ID, "SARAH", 5)
	if err != nil {
		t.Fatalf("MeetingsWithParticipant() error = %v", err)
	}
	if len(got) != 2 || got[0].Title != "newer with sarah" {
		t.Errorf("MeetingsWithParticipant() = %v", titles(got))
	}
}

func TestMarkFollowUpScheduled(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "fu@example.com")
	m := createTestMeeting(t, db, owner.ID, "needs follow-up", time.Now())

	if err := db.MarkFollowUpScheduled(ctx, owner.ID, m.ID); err != nil {
		t.Fatalf("MarkFollowUpScheduled() error = %v", err)
	}
	got, _ := db.GetMeeting(ctx, owner.ID, m.ID)
	if !got.FollowUpScheduled {
		t.Error("FollowUpScheduled not persisted")
	}

	if err := db.MarkFollowUpScheduled(ctx, owner.ID, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("MarkFollowUpScheduled(missing) error = %v, want ErrNotFound", err)
	}
}

func titles(ms []model.Meeting) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Title
	}
	return out
}
