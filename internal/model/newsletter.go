package model

import (
	"sort"
	"strings"
	"time"
)

// NewsletterStatus is the editorial lifecycle: draft → review → approved → published.
type NewsletterStatus string

const (
	NewsletterDraft     NewsletterStatus = "draft"
	NewsletterReview    NewsletterStatus = "review"
	NewsletterApproved  NewsletterStatus = "approved"
	NewsletterPublished NewsletterStatus = "published"
)

var newsletterStatusRank = map[NewsletterStatus]int{
	NewsletterDraft:     0,
	NewsletterReview:    1,
	NewsletterApproved:  2,
	NewsletterPublished: 3,
}

// Valid reports whether s is a known status.
func (s NewsletterStatus) Valid() bool {
	_, ok := newsletterStatusRank[s]
	return ok
}

// SectionType is the role a section plays in the newsletter.
type SectionType string

const (
	SectionIntroduction SectionType = "introduction"
	SectionHighlights   SectionType = "highlights"
	SectionInsights     SectionType = "insights"
	SectionPeople       SectionType = "people"
	SectionCulture      SectionType = "culture"
	SectionClosing      SectionType = "closing"
	SectionGeneral      SectionType = "general"
)

// ParseSectionType returns the matching type or SectionGeneral.
func ParseSectionType(s string) SectionType {
	switch SectionType(s) {
	case SectionIntroduction, SectionHighlights, SectionInsights, SectionPeople,
		SectionCulture, SectionClosing:
		return SectionType(s)
	}
	return SectionGeneral
}

// Newsletter is a weekly "Friday Notes" draft.
//
// Content and Analytics must never be set independently: use SetContent so
// the word count and reading time always describe the stored content.
type Newsletter struct {
	ID           string              `json:"id"`
	UserID       string              `json:"userId"`
	Title        string              `json:"title"`
	WeekOf       time.Time           `json:"weekOf"`
	Content      string              `json:"content"`
	Sections     []NewsletterSection `json:"sections"`
	Status       NewsletterStatus    `json:"status"`
	InputSources []InputSource       `json:"inputSources"`
	Analytics    NewsletterAnalytics `json:"analytics"`
	PublishedAt  *time.Time          `json:"publishedAt,omitempty"`
	PublishedTo  []string            `json:"publishedTo"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

type NewsletterSection struct {
	Title   string      `json:"title"`
	Content string      `json:"content"`
	Order   int         `json:"order"`
	Type    SectionType `json:"type"`
}

// InputSource snapshots one record that fed the draft.
type InputSource struct {
	Type     string `json:"type"` // meeting, idea or manual
	SourceID string `json:"sourceId,omitempty"`
	Content  string `json:"content"`
}

type NewsletterAnalytics struct {
	WordCount      int      `json:"wordCount"`
	ReadingTime    int      `json:"readingTime"` // minutes
	SentimentScore float64  `json:"sentimentScore"`
	KeyThemes      []string `json:"keyThemes"`
}

// SetContent replaces the content and recomputes WordCount and ReadingTime.
func (n *Newsletter) SetContent(content string) {
	n.Content = content
	n.Analytics.WordCount = WordCount(content)
	n.Analytics.ReadingTime = ReadingMinutes(n.Analytics.WordCount)
}

// SetSections stores the sections sorted by Order and rebuilds Content from
// them, one blank line between sections.
func (n *Newsletter) SetSections(sections []NewsletterSection) {
	sorted := append([]NewsletterSection(nil), sections...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	n.Sections = sorted

	parts := make([]string, 0, len(sorted))
	for _, s := range sorted {
		var b strings.Builder
		if s.Title != "" {
			b.WriteString(s.Title)
			b.WriteString("\n\n")
		}
		b.WriteString(s.Content)
		parts = append(parts, b.String())
	}
	n.SetContent(strings.Join(parts, "\n\n"))
}

// CanMoveTo reports whether the status may change to next. The lifecycle
// only moves forward; staying put is allowed.
func (n *Newsletter) CanMoveTo(next NewsletterStatus) bool {
	to, ok := newsletterStatusRank[next]
	if !ok {
		return false
	}
	return to >= newsletterStatusRank[n.Status]
}
