package model

// RecordType names a searchable collection.
type RecordType string

const (
	TypeMeeting    RecordType = "Meeting"
	TypeIdea       RecordType = "Idea"
	TypeInsight    RecordType = "Insight"
	TypeNewsletter RecordType = "Newsletter"
)

// SearchHit is one record matched by a free-text query, tagged with the
// collection it came from. Score is only comparable within one collection.
type SearchHit struct {
	Type    RecordType `json:"type"`
	ID      string     `json:"id"`
	OwnerID string     `json:"ownerId"`
	Title   string     `json:"title"`
	Score   float64    `json:"score"`
	Record  any        `json:"record"`
}
