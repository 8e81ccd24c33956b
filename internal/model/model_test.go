package model

import (
	"strings"
	"testing"
	"time"
)

func TestNewsletterSetContent_RecomputesAnalytics(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantWords   int
		wantMinutes int
	}{
		{name: "empty", content: "", wantWords: 0, wantMinutes: 0},
		{name: "whitespace only", content: " \n\t ", wantWords: 0, wantMinutes: 0},
		{name: "one word", content: "hello", wantWords: 1, wantMinutes: 1},
		{name: "mixed whitespace", content: "  a\tb\n\nc  d ", wantWords: 4, wantMinutes: 1},
		{name: "exactly 200", content: strings.Repeat("w ", 200), wantWords: 200, wantMinutes: 1},
		{name: "201 rounds up", content: strings.Repeat("w ", 201), wantWords: 201, wantMinutes: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Newsletter
			n.Analytics.WordCount = 999
			n.SetContent(tt.content)

			if n.Analytics.WordCount != tt.wantWords {
				t.Errorf("WordCount = %d, want %d", n.Analytics.WordCount, tt.wantWords)
			}
			if n.Analytics.ReadingTime != tt.wantMinutes {
				t.Errorf("ReadingTime = %d, want %d", n.Analytics.ReadingTime, tt.wantMinutes)
			}
			if n.Content != tt.content {
				t.Errorf("Content not stored verbatim")
			}
		})
	}
}

func TestNewsletterSetSections_OrdersAndBuildsContent(t *testing.T) {
	var n Newsletter
	n.SetSections([]NewsletterSection{
		{Title: "Looking Ahead", Content: "Next week.", Order: 2, Type: SectionClosing},
		{Title: "Intro", Content: "Hello team.", Order: 1, Type: SectionIntroduction},
	})

	if n.Sections[0].Order != 1 || n.Sections[1].Order != 2 {
		t.Fatalf("sections not sorted: %+v", n.Sections)
	}
	want := "Intro\n\nHello team.\n\nLooking Ahead\n\nNext week."
	if n.Content != want {
		t.Errorf("Content = %q, want %q", n.Content, want)
	}
	if n.Analytics.WordCount != WordCount(want) {
		t.Errorf("WordCount = %d, want %d", n.Analytics.WordCount, WordCount(want))
	}
}

func TestNewsletterCanMoveTo(t *testing.T) {
	n := Newsletter{Status: NewsletterReview}

	if n.CanMoveTo(NewsletterDraft) {
		t.Error("review → draft should be rejected")
	}
	if !n.CanMoveTo(NewsletterReview) {
		t.Error("staying in review should be allowed")
	}
	if !n.CanMoveTo(NewsletterPublished) {
		t.Error("review → published should be allowed")
	}
	if n.CanMoveTo("shipped") {
		t.Error("unknown status should be rejected")
	}
}

// Idea status only moves forward, whatever order the transitions arrive in.
func TestIdeaAdvance_NeverRegresses(t *testing.T) {
	sequences := [][]IdeaStatus{
		{StatusUsed, StatusCaptured, StatusReviewed},
		{StatusReviewed, StatusUsed, StatusReviewed, StatusArchived, StatusUsed},
		{StatusArchived, StatusCaptured},
	}

	for _, seq := range sequences {
		idea := Idea{Status: StatusCaptured}
		highest := ideaStatusRank[StatusCaptured]
		for _, next := range seq {
			idea.Advance(next)
			rank := ideaStatusRank[idea.Status]
			if rank < highest {
				t.Fatalf("status regressed to %s in sequence %v", idea.Status, seq)
			}
			highest = rank
		}
	}
}

func TestIdeaAdvance_ReportsChange(t *testing.T) {
	idea := Idea{Status: StatusCaptured}
	if !idea.Advance(StatusUsed) {
		t.Error("captured → used should report a change")
	}
	if idea.Advance(StatusUsed) {
		t.Error("used → used should be a no-op")
	}
	if idea.Advance("bogus") {
		t.Error("unknown status should be ignored")
	}
}

func TestIdeaMarkUsed(t *testing.T) {
	at := time.Date(2024, 8, 16, 0, 0, 0, 0, time.UTC)
	idea := Idea{Status: StatusArchived}
	idea.MarkUsed("newsletter", "nl-1", at)

	if idea.Status != StatusArchived {
		t.Errorf("archived idea regressed to %s", idea.Status)
	}
	if len(idea.UsedIn) != 1 || idea.UsedIn[0].Reference != "nl-1" {
		t.Errorf("UsedIn = %+v", idea.UsedIn)
	}
}

func TestParsers(t *testing.T) {
	if ParseCategory("strategy") != CategoryStrategy || ParseCategory("finance") != CategoryGeneral {
		t.Error("ParseCategory")
	}
	if ParseSource("") != SourceText || ParseSource("fax") != SourceOther || ParseSource("voice") != SourceVoice {
		t.Error("ParseSource")
	}
	if ParseLevel("high", LevelMedium) != LevelHigh || ParseLevel("urgent", LevelMedium) != LevelMedium {
		t.Error("ParseLevel")
	}
	if ParseSectionType("people") != SectionPeople || ParseSectionType("sports") != SectionGeneral {
		t.Error("ParseSectionType")
	}
	if ParseMeetingType("client") != MeetingClient || ParseMeetingType("") != MeetingOther {
		t.Error("ParseMeetingType")
	}
}

func TestClampPriority(t *testing.T) {
	cases := map[int]int{0: 5, -3: 1, 1: 1, 7: 7, 11: 10}
	for in, want := range cases {
		if got := ClampPriority(in); got != want {
			t.Errorf("ClampPriority(%d) = %d, want %d", in, got, want)
		}
	}
}
