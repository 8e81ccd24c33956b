package model

import "time"

// Level is a three-step importance/priority scale.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// ParseLevel normalises s, falling back to def for anything unknown.
func ParseLevel(s string, def Level) Level {
	switch Level(s) {
	case LevelLow, LevelMedium, LevelHigh:
		return Level(s)
	}
	return def
}

// MeetingType classifies a meeting.
type MeetingType string

const (
	MeetingOneOnOne   MeetingType = "one-on-one"
	MeetingTeam       MeetingType = "team"
	MeetingConference MeetingType = "conference"
	MeetingClient     MeetingType = "client"
	MeetingOther      MeetingType = "other"
)

// ParseMeetingType returns the matching type or MeetingOther.
func ParseMeetingType(s string) MeetingType {
	switch MeetingType(s) {
	case MeetingOneOnOne, MeetingTeam, MeetingConference, MeetingClient:
		return MeetingType(s)
	}
	return MeetingOther
}

// DefaultMeetingDuration is used when a meeting is captured without one.
const DefaultMeetingDuration = 60

// Meeting is a summarised meeting. Participants, key points and action items
// keep the order they were produced in.
//
// Meetings are immutable after creation except for FollowUpScheduled, which
// is set once the executive assistant has been asked to book the follow-up.
type Meeting struct {
	ID                string        `json:"id"`
	UserID            string        `json:"userId"`
	Title             string        `json:"title"`
	Participants      []Participant `json:"participants"`
	Date              time.Time     `json:"date"`
	Duration          int           `json:"duration"` // minutes
	Summary           string        `json:"summary"`
	KeyPoints         []KeyPoint    `json:"keyPoints"`
	ActionItems       []ActionItem  `json:"actionItems"`
	FollowUpNeeded    bool          `json:"followUpNeeded"`
	FollowUpScheduled bool          `json:"followUpScheduled"`
	MeetingType       MeetingType   `json:"meetingType"`
	Sentiment         string        `json:"sentiment,omitempty"`
	Tags              []string      `json:"tags"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

type KeyPoint struct {
	Point      string `json:"point"`
	Importance Level  `json:"importance"`
}

type ActionItem struct {
	Description string     `json:"description"`
	AssignedTo  string     `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    Level      `json:"priority"`
}

// ParticipantNames returns the participant names in order.
func (m *Meeting) ParticipantNames() []string {
	names := make([]string, 0, len(m.Participants))
	for _, p := range m.Participants {
		names = append(names, p.Name)
	}
	return names
}

// KeyPointTexts returns the key point texts in order.
func (m *Meeting) KeyPointTexts() []string {
	out := make([]string, 0, len(m.KeyPoints))
	for _, kp := range m.KeyPoints {
		out = append(out, kp.Point)
	}
	return out
}
