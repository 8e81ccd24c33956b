// Package repository declares the storage interfaces the services depend on.
//
// Every method that touches owned data takes the owner's user ID and the
// implementation filters on it. A record that exists but belongs to someone
// else is indistinguishable from a record that does not exist.
package repository

import (
	"context"
	"time"

	"github.com/sakif/execmind/internal/model"
)

// ListOptions narrows a list query. Zero values mean "no bound".
type ListOptions struct {
	Since *time.Time // only records at or after this instant
	Limit int
}

// Window is a closed-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// LastDays returns the window of the d days ending at now.
func LastDays(now time.Time, d int) Window {
	return Window{Start: now.AddDate(0, 0, -d), End: now}
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

type MeetingRepository interface {
	CreateMeeting(ctx context.Context, m *model.Meeting) error
	GetMeeting(ctx context.Context, ownerID, id string) (*model.Meeting, error)
	ListMeetings(ctx context.Context, ownerID string, opts ListOptions) ([]model.Meeting, error)
	MeetingsByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Meeting, error)
	MeetingsInWindow(ctx context.Context, ownerID string, w Window, limit int) ([]model.Meeting, error)
	MeetingsWithParticipant(ctx context.Context, ownerID, name string, limit int) ([]model.Meeting, error)
	MarkFollowUpScheduled(ctx context.Context, ownerID, id string) error
}

type IdeaRepository interface {
	CreateIdea(ctx context.Context, idea *model.Idea) error
	ListIdeas(ctx context.Context, ownerID string, opts ListOptions) ([]model.Idea, error)
	IdeasByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Idea, error)
	IdeasInWindow(ctx context.Context, ownerID string, w Window, limit int) ([]model.Idea, error)
	UpdateIdeaUsage(ctx context.Context, idea *model.Idea) error
}

type InsightRepository interface {
	CreateInsights(ctx context.Context, insights []*model.Insight) error
	ListInsights(ctx context.Context, ownerID string, opts ListOptions) ([]model.Insight, error)
	DeleteAutoGeneratedInsights(ctx context.Context, ownerID string) (int64, error)
}

type NewsletterRepository interface {
	CreateNewsletter(ctx context.Context, n *model.Newsletter) error
	GetNewsletter(ctx context.Context, ownerID, id string) (*model.Newsletter, error)
	ListNewsletters(ctx context.Context, ownerID string, opts ListOptions) ([]model.Newsletter, error)
	UpdateNewsletter(ctx context.Context, n *model.Newsletter) error
}

// SearchRepository runs a free-text query against one collection, returning
// at most limit hits of that owner sorted by relevance, best first.
type SearchRepository interface {
	SearchCollection(ctx context.Context, t model.RecordType, ownerID, query string, limit int) ([]model.SearchHit, error)
}

// TxManager runs fn inside a transaction carried by the context. Repository
// calls made with that context join the transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
