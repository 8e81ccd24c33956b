package model

import (
	"strings"
	"time"
)

// IdeaCategory is the closed set of categories an idea can be filed under.
type IdeaCategory string

const (
	CategoryLeadership IdeaCategory = "leadership"
	CategoryStrategy   IdeaCategory = "strategy"
	CategoryCulture    IdeaCategory = "culture"
	CategoryOperations IdeaCategory = "operations"
	CategoryInnovation IdeaCategory = "innovation"
	CategoryPeople     IdeaCategory = "people"
	CategoryGeneral    IdeaCategory = "general"
)

// ParseCategory returns the matching category or CategoryGeneral.
func ParseCategory(s string) IdeaCategory {
	switch IdeaCategory(s) {
	case CategoryLeadership, CategoryStrategy, CategoryCulture, CategoryOperations,
		CategoryInnovation, CategoryPeople:
		return IdeaCategory(s)
	}
	return CategoryGeneral
}

// IdeaSource records how an idea was captured.
type IdeaSource string

const (
	SourceVoice   IdeaSource = "voice"
	SourceText    IdeaSource = "text"
	SourceMeeting IdeaSource = "meeting"
	SourceEmail   IdeaSource = "email"
	SourceOther   IdeaSource = "other"
)

// ParseSource returns the matching source, SourceText for "", else SourceOther.
func ParseSource(s string) IdeaSource {
	switch IdeaSource(s) {
	case SourceVoice, SourceText, SourceMeeting, SourceEmail, SourceOther:
		return IdeaSource(s)
	case "":
		return SourceText
	}
	return SourceOther
}

// IdeaStatus is the lifecycle of an idea: captured → reviewed → used → archived.
type IdeaStatus string

const (
	StatusCaptured IdeaStatus = "captured"
	StatusReviewed IdeaStatus = "reviewed"
	StatusUsed     IdeaStatus = "used"
	StatusArchived IdeaStatus = "archived"
)

var ideaStatusRank = map[IdeaStatus]int{
	StatusCaptured: 0,
	StatusReviewed: 1,
	StatusUsed:     2,
	StatusArchived: 3,
}

// Idea priority bounds.
const (
	MinIdeaPriority     = 1
	MaxIdeaPriority     = 10
	DefaultIdeaPriority = 5
)

// Idea is a captured thought, classified by the generation provider.
type Idea struct {
	ID             string             `json:"id"`
	UserID         string             `json:"userId"`
	Content        string             `json:"content"`
	Title          string             `json:"title"`
	Category       IdeaCategory       `json:"category"`
	Tags           []string           `json:"tags"`
	Priority       int                `json:"priority"`
	Source         IdeaSource         `json:"source"`
	SourceMetadata IdeaSourceMetadata `json:"sourceMetadata"`
	Status         IdeaStatus         `json:"status"`
	UsedIn         []IdeaUsage        `json:"usedIn"`
	Analysis       IdeaAnalysis       `json:"aiAnalysis"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

type IdeaSourceMetadata struct {
	MeetingID string `json:"meetingId,omitempty"`
	AudioFile string `json:"audioFile,omitempty"` // original upload name; the staged file itself is deleted after transcription
	Context   string `json:"context,omitempty"`
}

// IdeaUsage records one place an idea was used, e.g. a newsletter.
type IdeaUsage struct {
	Type      string    `json:"type"`
	Reference string    `json:"reference"`
	Date      time.Time `json:"date"`
}

type IdeaAnalysis struct {
	Sentiment     string   `json:"sentiment,omitempty"`
	Themes        []string `json:"themes"`
	Actionability Level    `json:"actionability,omitempty"`
}

// Advance moves the idea forward to status. It never moves backwards: asking
// for an earlier (or the same) status is a no-op. It reports whether the
// status changed.
func (i *Idea) Advance(status IdeaStatus) bool {
	next, ok := ideaStatusRank[status]
	if !ok {
		return false
	}
	if cur, ok := ideaStatusRank[i.Status]; ok && next <= cur {
		return false
	}
	i.Status = status
	return true
}

// MarkUsed advances the idea to used and records where.
func (i *Idea) MarkUsed(kind, reference string, at time.Time) {
	i.Advance(StatusUsed)
	i.UsedIn = append(i.UsedIn, IdeaUsage{Type: kind, Reference: reference, Date: at})
}

// ClampPriority keeps p inside [MinIdeaPriority, MaxIdeaPriority]; 0 means default.
func ClampPriority(p int) int {
	switch {
	case p == 0:
		return DefaultIdeaPriority
	case p < MinIdeaPriority:
		return MinIdeaPriority
	case p > MaxIdeaPriority:
		return MaxIdeaPriority
	}
	return p
}

// displayTitleRunes bounds the content prefix used when an idea has no title.
const displayTitleRunes = 60

// DisplayTitle returns the title, or the start of the content when the idea
// was captured without one.
func (i *Idea) DisplayTitle() string {
	if t := strings.TrimSpace(i.Title); t != "" {
		return t
	}
	r := []rune(strings.TrimSpace(i.Content))
	if len(r) <= displayTitleRunes {
		return string(r)
	}
	return strings.TrimSpace(string(r[:displayTitleRunes])) + "..."
}
