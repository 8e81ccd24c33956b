package generation

// Template identifies one of the fixed instructions the gateway can send.
//
// WHY A CLOSED SET?
// Every template is paired with exactly one result type (see result.go) and
// that result type knows how to validate itself. Callers cannot pass an
// arbitrary instruction string, so every reply the gateway hands back has
// been checked against the shape its template asked for.
type Template string

const (
	SummarizeMeeting      Template = "summarize-meeting"
	ClassifyIdea          Template = "classify-idea"
	BriefPerson           Template = "brief-person"
	FindExcerpt           Template = "find-excerpt"
	SynthesizeIdeas       Template = "synthesize-ideas"
	AnalyzeDocument       Template = "analyze-document"
	AnswerQuestion        Template = "answer-question"
	StructureQuickCapture Template = "structure-quick-capture"
	WeeklyInsights        Template = "weekly-insights"
	DraftNewsletter       Template = "draft-newsletter"
)

// Templates lists every template, in a stable order.
var Templates = []Template{
	SummarizeMeeting, ClassifyIdea, BriefPerson, FindExcerpt, SynthesizeIdeas,
	AnalyzeDocument, AnswerQuestion, StructureQuickCapture, WeeklyInsights, DraftNewsletter,
}

// Valid reports whether t is one of the known templates.
func (t Template) Valid() bool {
	_, ok := instructions[t]
	return ok
}

// Instruction returns the system instruction sent with t.
func (t Template) Instruction() string {
	return instructions[t]
}

const jsonOnly = "\nReply with the JSON object only. Do not add any text before or after it."

var instructions = map[Template]string{
	SummarizeMeeting: `You are an executive assistant. Read the meeting notes or transcript you are given and extract the essentials.
Return a JSON object of this shape:
{
  "summary": "2-4 sentences covering the whole meeting",
  "keyPoints": [{"point": "a decision or takeaway", "importance": "low | medium | high"}],
  "actionItems": [{"description": "a concrete task", "assignedTo": "the owner, or 'unassigned'", "priority": "low | medium | high"}],
  "followUpNeeded": true or false, whether a follow-up meeting is mentioned or implied,
  "sentiment": "positive | neutral | negative | mixed"
}
Use an empty array when there are no action items.` + jsonOnly,

	ClassifyIdea: `You are a strategy analyst. Classify the idea you are given.
Return a JSON object of this shape:
{
  "title": "a short, memorable title",
  "category": "one of leadership, strategy, culture, operations, innovation, people, general",
  "tags": ["3 to 5 keyword tags"],
  "priority": an integer from 1 (low) to 10 (urgent),
  "aiAnalysis": {
    "sentiment": "positive | neutral | negative",
    "themes": ["1 to 3 core themes"],
    "actionability": "low | medium | high"
  }
}` + jsonOnly,

	BriefPerson: `You are an executive assistant preparing a briefing before a meeting.
You are given a person's name and notes from past meetings with them, most recent first.
Return a JSON object of this shape:
{
  "personName": "the person being met",
  "summaryOfPastInteractions": "the relationship and what was discussed so far",
  "keyOpenTopics": ["unresolved issues or ongoing topics"],
  "lastActionItems": [{"description": "the last known action item", "status": "Completed | Pending | Unknown"}],
  "suggestedTalkingPoints": ["3 to 4 points worth raising"]
}` + jsonOnly,

	FindExcerpt: `You help an author share passages from their own book.
You are given a request and a numbered list of excerpts. Pick the single excerpt that best fits the request.
Return a JSON object of this shape:
{
  "bestMatch": {"title": "title of the chosen excerpt", "content": "its full content, unchanged"},
  "relevanceJustification": "one or two sentences on why it fits"
}
If nothing fits, set "bestMatch" to null. Never write a new excerpt.` + jsonOnly,

	SynthesizeIdeas: `You are a strategy partner. You are given a topic and a list of related ideas captured by an executive.
Combine them into one coherent proposal.
Return a JSON object of this shape:
{
  "title": "a title for the combined proposal",
  "summary": "one or two paragraphs connecting the ideas",
  "nextSteps": ["3 to 5 concrete next steps"]
}` + jsonOnly,

	AnalyzeDocument: `You are a business analyst. You are given a question and the text of an internal document.
Answer strictly from the document.
Return a JSON object of this shape:
{
  "summary": "a direct answer to the question",
  "keyFindings": ["the facts from the document that support the answer"],
  "risks": ["risks or open issues the document reveals, if any"],
  "recommendation": "what the executive should do next"
}` + jsonOnly,

	AnswerQuestion: `You answer questions about a past meeting using only the meeting notes you are given.
If the notes do not contain the answer, say so.
Return a JSON object of this shape:
{
  "answer": "the answer in one short paragraph"
}` + jsonOnly,

	StructureQuickCapture: `You turn rough, hurried notes about a meeting into a structured record.
Return a JSON object of this shape:
{
  "title": "a descriptive meeting title",
  "participants": [{"name": "participant name", "role": "their role if mentioned"}],
  "summary": "2-4 sentences",
  "keyPoints": [{"point": "a decision or takeaway", "importance": "low | medium | high"}],
  "actionItems": [{"description": "a concrete task", "assignedTo": "the owner, or 'unassigned'", "priority": "low | medium | high"}],
  "followUpNeeded": true or false,
  "meetingType": "one-on-one | team | conference | client | other",
  "tags": ["keyword tags"]
}` + jsonOnly,

	WeeklyInsights: `You are a chief-of-staff analyst. You are given the meetings and ideas of an executive's past week.
Find the patterns, risks and opportunities that cut across them.
Return a JSON object of this shape:
{
  "insights": [
    {
      "title": "a headline for the insight",
      "summary": "one paragraph explaining it",
      "tags": ["keyword tags"],
      "relevance": "low | medium | high",
      "keyPoints": ["supporting points"]
    }
  ]
}
Produce between 2 and 5 insights.` + jsonOnly,

	DraftNewsletter: `You are the communications writer for a CEO and draft their weekly "Friday Notes" email to the company.
Write in the voice described under "Author". Without one, be insightful, authentic and forward-looking: informal but professional, linking business news to people and culture.
Return a JSON object of this shape:
{
  "title": "a compelling title, e.g. 'Friday Notes: Momentum & Milestones'",
  "sections": [
    {"title": "Introduction", "content": "a short opening that sets the tone", "order": 1, "type": "introduction"},
    {"title": "This Week's Highlights", "content": "the main achievements and events, 2-3 paragraphs", "order": 2, "type": "highlights"},
    {"title": "A Deeper Dive", "content": "one theme connected to strategy or culture", "order": 3, "type": "insights"},
    {"title": "People & Culture", "content": "people news or cultural observations", "order": 4, "type": "people"},
    {"title": "Looking Ahead", "content": "a short, positive closing", "order": 5, "type": "closing"}
  ],
  "analytics": {
    "sentimentScore": a number from -1 (negative) to 1 (positive),
    "keyThemes": ["3 to 5 key themes"]
  }
}
Sections whose context is "None" may be short, but every section must be present.` + jsonOnly,
}
