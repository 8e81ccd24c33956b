// Package assembler selects the records a generation prompt is built from
// and renders them as plain text.
//
// TWO HALVES:
//
//	selection  Assembler methods  → read the store, always scoped to one owner
//	rendering  Render functions   → pure, no I/O, same input gives same text
//
// Keeping rendering pure means a prompt can be tested byte-for-byte without a
// database, and the services decide what goes into a prompt while this
// package decides how it looks.
package assembler

import (
	"context"
	"fmt"

	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository"
)

// Caps on how much context one prompt may carry.
const (
	MaxWindowMeetings = 20
	MaxWindowIdeas    = 20
	MaxBriefMeetings  = 5
)

// Assembler reads context records for one owner.
type Assembler struct {
	meetings repository.MeetingRepository
	ideas    repository.IdeaRepository
	search   repository.SearchRepository
}

func New(meetings repository.MeetingRepository, ideas repository.IdeaRepository, search repository.SearchRepository) *Assembler {
	return &Assembler{meetings: meetings, ideas: ideas, search: search}
}

// MeetingsByIDs returns the owner's meetings among ids. Unknown ids and ids
// owned by someone else are dropped without an error.
func (a *Assembler) MeetingsByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Meeting, error) {
	if len(ids) == 0 {
		return []model.Meeting{}, nil
	}
	return a.meetings.MeetingsByIDs(ctx, ownerID, ids)
}

// IdeasByIDs is MeetingsByIDs for ideas.
func (a *Assembler) IdeasByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Idea, error) {
	if len(ids) == 0 {
		return []model.Idea{}, nil
	}
	return a.ideas.IdeasByIDs(ctx, ownerID, ids)
}

// MeetingsInWindow returns at most MaxWindowMeetings meetings dated in w.
func (a *Assembler) MeetingsInWindow(ctx context.Context, ownerID string, w repository.Window) ([]model.Meeting, error) {
	return a.meetings.MeetingsInWindow(ctx, ownerID, w, MaxWindowMeetings)
}

// IdeasInWindow returns at most MaxWindowIdeas ideas created in w.
func (a *Assembler) IdeasInWindow(ctx context.Context, ownerID string, w repository.Window) ([]model.Idea, error) {
	return a.ideas.IdeasInWindow(ctx, ownerID, w, MaxWindowIdeas)
}

// MeetingsWithParticipant returns the latest MaxBriefMeetings meetings the
// named person attended.
func (a *Assembler) MeetingsWithParticipant(ctx context.Context, ownerID, name string) ([]model.Meeting, error) {
	return a.meetings.MeetingsWithParticipant(ctx, ownerID, name, MaxBriefMeetings)
}

// MeetingsMatching returns the owner's n meetings most relevant to text.
func (a *Assembler) MeetingsMatching(ctx context.Context, ownerID, text string, n int) ([]model.Meeting, error) {
	hits, err := a.search.SearchCollection(ctx, model.TypeMeeting, ownerID, text, n)
	if err != nil {
		return nil, fmt.Errorf("assembler: matching meetings: %w", err)
	}
	out := make([]model.Meeting, 0, len(hits))
	for _, h := range hits {
		if m, ok := h.Record.(model.Meeting); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// IdeasMatching returns the owner's n ideas most relevant to text.
func (a *Assembler) IdeasMatching(ctx context.Context, ownerID, text string, n int) ([]model.Idea, error) {
	hits, err := a.search.SearchCollection(ctx, model.TypeIdea, ownerID, text, n)
	if err != nil {
		return nil, fmt.Errorf("assembler: matching ideas: %w", err)
	}
	out := make([]model.Idea, 0, len(hits))
	for _, h := range hits {
		if i, ok := h.Record.(model.Idea); ok {
			out = append(out, i)
		}
	}
	return out, nil
}
