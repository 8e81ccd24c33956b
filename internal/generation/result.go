package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Result is implemented by the typed reply of each template. The unexported
// method closes the set: only the types in this file can be passed to
// Gateway.Generate.
type Result interface {
	Validate() error
	template() Template
}

// Number decodes a JSON number or a numeric string. Providers regularly
// quote numbers that the schema asks for unquoted.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*n = Number(f)
	return nil
}

// Flag decodes a JSON boolean or the strings "true"/"false".
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.ToLower(strings.Trim(strings.TrimSpace(string(b)), `"`))
	switch s {
	case "true", "yes":
		*f = true
	case "false", "no", "", "null":
		*f = false
	default:
		return fmt.Errorf("not a boolean: %s", b)
	}
	return nil
}

type KeyPoint struct {
	Point      string `json:"point"`
	Importance string `json:"importance"`
}

type ActionItem struct {
	Description string `json:"description"`
	AssignedTo  string `json:"assignedTo"`
	Priority    string `json:"priority"`
}

// MeetingSummary is the reply to SummarizeMeeting.
type MeetingSummary struct {
	Summary        string       `json:"summary"`
	KeyPoints      []KeyPoint   `json:"keyPoints"`
	ActionItems    []ActionItem `json:"actionItems"`
	FollowUpNeeded Flag         `json:"followUpNeeded"`
	Sentiment      string       `json:"sentiment"`
}

func (*MeetingSummary) template() Template { return SummarizeMeeting }

func (r *MeetingSummary) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Summary) == "" {
		errs = append(errs, missing("summary"))
	}
	errs = append(errs, checkActionItems(r.ActionItems)...)
	return errors.Join(errs...)
}

// IdeaClassification is the reply to ClassifyIdea.
type IdeaClassification struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Priority Number   `json:"priority"`
	Analysis struct {
		Sentiment     string   `json:"sentiment"`
		Themes        []string `json:"themes"`
		Actionability string   `json:"actionability"`
	} `json:"aiAnalysis"`
}

func (*IdeaClassification) template() Template { return ClassifyIdea }

func (r *IdeaClassification) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, missing("title"))
	}
	if strings.TrimSpace(r.Category) == "" {
		errs = append(errs, missing("category"))
	}
	return errors.Join(errs...)
}

// PersonBrief is the reply to BriefPerson.
type PersonBrief struct {
	PersonName                string   `json:"personName"`
	SummaryOfPastInteractions string   `json:"summaryOfPastInteractions"`
	KeyOpenTopics             []string `json:"keyOpenTopics"`
	LastActionItems           []struct {
		Description string `json:"description"`
		Status      string `json:"status"`
	} `json:"lastActionItems"`
	SuggestedTalkingPoints []string `json:"suggestedTalkingPoints"`
}

func (*PersonBrief) template() Template { return BriefPerson }

func (r *PersonBrief) Validate() error {
	if strings.TrimSpace(r.SummaryOfPastInteractions) == "" {
		return missing("summaryOfPastInteractions")
	}
	return nil
}

type Excerpt struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ExcerptMatch is the reply to FindExcerpt. BestMatch is nil when the
// provider found nothing suitable.
type ExcerptMatch struct {
	BestMatch              *Excerpt `json:"bestMatch"`
	RelevanceJustification string   `json:"relevanceJustification"`
}

func (*ExcerptMatch) template() Template { return FindExcerpt }

// Validate accepts a null match. A match with only one of its fields set is
// normalised to "no match" instead of failing.
func (r *ExcerptMatch) Validate() error {
	if r.BestMatch != nil && strings.TrimSpace(r.BestMatch.Content) == "" {
		r.BestMatch = nil
	}
	return nil
}

// Found reports whether the provider picked an excerpt.
func (r *ExcerptMatch) Found() bool { return r.BestMatch != nil }

// IdeaSynthesis is the reply to SynthesizeIdeas.
type IdeaSynthesis struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	NextSteps []string `json:"nextSteps"`
}

func (*IdeaSynthesis) template() Template { return SynthesizeIdeas }

func (r *IdeaSynthesis) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, missing("title"))
	}
	if strings.TrimSpace(r.Summary) == "" {
		errs = append(errs, missing("summary"))
	}
	return errors.Join(errs...)
}

// DocumentAnalysis is the reply to AnalyzeDocument.
type DocumentAnalysis struct {
	Summary        string   `json:"summary"`
	KeyFindings    []string `json:"keyFindings"`
	Risks          []string `json:"risks"`
	Recommendation string   `json:"recommendation"`
}

func (*DocumentAnalysis) template() Template { return AnalyzeDocument }

func (r *DocumentAnalysis) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return missing("summary")
	}
	return nil
}

// MeetingAnswer is the reply to AnswerQuestion.
type MeetingAnswer struct {
	Answer string `json:"answer"`
}

func (*MeetingAnswer) template() Template { return AnswerQuestion }

func (r *MeetingAnswer) Validate() error {
	if strings.TrimSpace(r.Answer) == "" {
		return missing("answer")
	}
	return nil
}

// QuickCapture is the reply to StructureQuickCapture.
type QuickCapture struct {
	Title        string `json:"title"`
	Participants []struct {
		Name string `json:"name"`
		Role string `json:"role"`
	} `json:"participants"`
	Summary        string       `json:"summary"`
	KeyPoints      []KeyPoint   `json:"keyPoints"`
	ActionItems    []ActionItem `json:"actionItems"`
	FollowUpNeeded Flag         `json:"followUpNeeded"`
	MeetingType    string       `json:"meetingType"`
	Tags           []string     `json:"tags"`
}

func (*QuickCapture) template() Template { return StructureQuickCapture }

func (r *QuickCapture) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, missing("title"))
	}
	if strings.TrimSpace(r.Summary) == "" {
		errs = append(errs, missing("summary"))
	}
	errs = append(errs, checkActionItems(r.ActionItems)...)
	return errors.Join(errs...)
}

type InsightDraft struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Tags      []string `json:"tags"`
	Relevance string   `json:"relevance"`
	KeyPoints []string `json:"keyPoints"`
}

// WeeklyInsightSet is the reply to WeeklyInsights.
type WeeklyInsightSet struct {
	Insights []InsightDraft `json:"insights"`
}

func (*WeeklyInsightSet) template() Template { return WeeklyInsights }

func (r *WeeklyInsightSet) Validate() error {
	if len(r.Insights) == 0 {
		return missing("insights")
	}
	var errs []error
	for i, in := range r.Insights {
		if strings.TrimSpace(in.Title) == "" {
			errs = append(errs, missing(fmt.Sprintf("insights[%d].title", i)))
		}
		if strings.TrimSpace(in.Summary) == "" {
			errs = append(errs, missing(fmt.Sprintf("insights[%d].summary", i)))
		}
	}
	return errors.Join(errs...)
}

type SectionDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   Number `json:"order"`
	Type    string `json:"type"`
}

// NewsletterDraft is the reply to DraftNewsletter.
type NewsletterDraft struct {
	Title     string         `json:"title"`
	Sections  []SectionDraft `json:"sections"`
	Analytics struct {
		SentimentScore Number   `json:"sentimentScore"`
		KeyThemes      []string `json:"keyThemes"`
	} `json:"analytics"`
}

func (*NewsletterDraft) template() Template { return DraftNewsletter }

func (r *NewsletterDraft) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, missing("title"))
	}
	if len(r.Sections) == 0 {
		errs = append(errs, missing("sections"))
	}
	for i, s := range r.Sections {
		if strings.TrimSpace(s.Content) == "" {
			errs = append(errs, missing(fmt.Sprintf("sections[%d].content", i)))
		}
	}
	if s := float64(r.Analytics.SentimentScore); s < -1 || s > 1 {
		errs = append(errs, fmt.Errorf("analytics.sentimentScore %v is outside [-1, 1]", s))
	}
	return errors.Join(errs...)
}

func checkActionItems(items []ActionItem) []error {
	var errs []error
	for i, it := range items {
		if strings.TrimSpace(it.Description) == "" {
			errs = append(errs, missing(fmt.Sprintf("actionItems[%d].description", i)))
		}
	}
	return errs
}

func missing(field string) error {
	return fmt.Errorf("%s is required", field)
}

// decode parses raw into out, rejecting trailing garbage.
func decode(raw string, out Result) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after the JSON object")
	}
	return nil
}

// isSyntaxError separates a reply that is not JSON at all from one whose
// JSON has the wrong shape.
func isSyntaxError(err error) bool {
	var syn *json.SyntaxError
	return errors.As(err, &syn) || errors.Is(err, io.ErrUnexpectedEOF)
}
