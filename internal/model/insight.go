package model

import (
	"math"
	"strings"
	"time"
)

// Insight is one strategic observation synthesised from recent meetings and
// ideas.
//
// Insights produced by the weekly generation run carry AutoGenerated=true and
// the id of the run in GenerationBatchID. Regenerating replaces every
// auto-generated insight of the owner and leaves hand-made ones alone.
type Insight struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	Title             string    `json:"title"`
	Summary           string    `json:"summary"`
	Source            string    `json:"source"`
	ReadTime          int       `json:"readTime"` // minutes
	Tags              []string  `json:"tags"`
	Relevance         Level     `json:"relevance"`
	KeyPoints         []string  `json:"keyPoints"`
	Link              string    `json:"link,omitempty"`
	AutoGenerated     bool      `json:"isAutoGenerated"`
	GenerationBatchID string    `json:"generationBatchId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// WordsPerMinute is the reading speed used for every read-time estimate.
const WordsPerMinute = 200

// WordCount counts whitespace-separated fields.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// ReadingMinutes is ceil(words / WordsPerMinute).
func ReadingMinutes(words int) int {
	return int(math.Ceil(float64(words) / WordsPerMinute))
}
