package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository"
)

func createTestNewsletter(t *testing.T, db *DB, ownerID, title string, weekOf time.Time) *model.Newsletter {
	t.Helper()
	n := &model.Newsletter{UserID: ownerID, Title: title, WeekOf: weekOf}
	n.SetSections([]model.NewsletterSection{
		{Title: "Closing", Content: "See you next week.", Order: 2, Type: model.SectionClosing},
		{Title: "Hello", Content: "This week we shipped the roadmap.", Order: 1, Type: model.SectionIntroduction},
	})
	if err := db.CreateNewsletter(context.Background(), n); err != nil {
		t.Fatalf("failed to create test newsletter: %v", err)
	}
	return n
}

func TestCreateNewsletter_AndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "nl@example.com")

	n := createTestNewsletter(t, db, owner.ID, "Friday Notes", time.Now())
	if n.Status != model.NewsletterDraft {
		t.Errorf("Status = %q, want draft", n.Status)
	}

	got, err := db.GetNewsletter(ctx, owner.ID, n.ID)
	if err != nil {
		t.Fatalf("GetNewsletter() error = %v", err)
	}
	if len(got.Sections) != 2 || got.Sections[0].Title != "Hello" {
		t.Errorf("Sections = %+v", got.Sections)
	}
	if got.Analytics.WordCount != model.WordCount(got.Content) {
		t.Errorf("WordCount = %d, content has %d words", got.Analytics.WordCount, model.WordCount(got.Content))
	}
	if got.PublishedAt != nil {
		t.Errorf("PublishedAt = %v, want nil", got.PublishedAt)
	}
}

func TestGetNewsletter_OtherOwner(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "a@example.com")
	other := createTestUser(t, db, "b@example.com")
	n := createTestNewsletter(t, db, owner.ID, "Private", time.Now())

	if _, err := db.GetNewsletter(context.Background(), other.ID, n.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetNewsletter() error = %v, want ErrNotFound", err)
	}
}

func TestListNewsletters_WeekDescending(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "weeks@example.com")
	now := time.Now()

	createTestNewsletter(t, db, owner.ID, "two weeks ago", now.AddDate(0, 0, -14))
	createTestNewsletter(t, db, owner.ID, "this week", now)
	createTestNewsletter(t, db, owner.ID, "last week", now.AddDate(0, 0, -7))

	got, err := db.ListNewsletters(context.Background(), owner.ID, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListNewsletters() error = %v", err)
	}
	if len(got) != 3 || got[0].Title != "this week" || got[2].Title != "two weeks ago" {
		t.Errorf("ListNewsletters() order wrong: %+v", got)
	}
}

func TestUpdateNewsletter_PublishAndReindex(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "pub@example.com")
	n := createTestNewsletter(t, db, owner.ID, "Draft", time.Now())

	published := time.Now().UTC()
	n.Status = model.NewsletterPublished
	n.PublishedAt = &published
	n.PublishedTo = []string{"team@example.com"}
	n.SetContent("Quarterly offsite announcement")
	if err := db.UpdateNewsletter(ctx, n); err != nil {
		t.Fatalf("UpdateNewsletter() error = %v", err)
	}

	got, err := db.GetNewsletter(ctx, owner.ID, n.ID)
	if err != nil {
		t.Fatalf("GetNewsletter() error = %v", err)
	}
	if got.Status != model.NewsletterPublished || got.PublishedAt == nil {
		t.Errorf("publish not persisted: %+v", got)
	}
	if len(got.PublishedTo) != 1 {
		t.Errorf("PublishedTo = %v", got.PublishedTo)
	}

	hits, err := db.SearchCollection(ctx, model.TypeNewsletter, owner.ID, "offsite", 10)
	if err != nil {
		t.Fatalf("SearchCollection() error = %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("updated content not searchable: %d hits", len(hits))
	}
	hits, _ = db.SearchCollection(ctx, model.TypeNewsletter, owner.ID, "roadmap", 10)
	if len(hits) != 0 {
		t.Errorf("old content still indexed: %d hits", len(hits))
	}
}

func TestUpdateNewsletter_NotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "nf@example.com")

	err := db.UpdateNewsletter(context.Background(), &model.Newsletter{ID: "nope", UserID: owner.ID})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("UpdateNewsletter() error = %v, want ErrNotFound", err)
	}
}

func TestNewsletterAnalytics_FollowStoredContent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "words@example.com")

	// content assigned directly, with stale analytics
	n := &model.Newsletter{UserID: owner.ID, Title: "Direct", WeekOf: time.Now(), Content: "one two three four"}
	n.Analytics.WordCount = 99
	n.Analytics.ReadingTime = 7
	if err := db.CreateNewsletter(ctx, n); err != nil {
		t.Fatalf("CreateNewsletter() error = %v", err)
	}

	got, err := db.GetNewsletter(ctx, owner.ID, n.ID)
	if err != nil {
		t.Fatalf("GetNewsletter() error = %v", err)
	}
	if got.Analytics.WordCount != 4 || got.Analytics.ReadingTime != model.ReadingMinutes(4) {
		t.Errorf("after create Analytics = %+v, want 4 words", got.Analytics)
	}

	words := strings.Repeat("word ", 450)
	got.Content = words
	if err := db.UpdateNewsletter(ctx, got); err != nil {
		t.Fatalf("UpdateNewsletter() error = %v", err)
	}

	got, err = db.GetNewsletter(ctx, owner.ID, n.ID)
	if err != nil {
		t.Fatalf("GetNewsletter() error = %v", err)
	}
	if got.Analytics.WordCount != 450 {
		t.Errorf("after update WordCount = %d, want 450", got.Analytics.WordCount)
	}
	if got.Analytics.ReadingTime != model.ReadingMinutes(450) {
		t.Errorf("after update ReadingTime = %d, want %d", got.Analytics.ReadingTime, model.ReadingMinutes(450))
	}
}
