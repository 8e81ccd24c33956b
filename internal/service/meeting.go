package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/assembler"
	"github.com/sakif/execmind/internal/generation"
	"github.com/sakif/execmind/internal/knowledge"
	"github.com/sakif/execmind/internal/mail"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository"
)

// NoMeetingMatchAnswer is the answer given when no stored meeting matches a
// question.
const NoMeetingMatchAnswer = "I couldn't find a meeting matching that description in the archive."

// ErrNoMeetingMatch is returned by Ask when nothing matches. The handler
// answers it with {"answer": ...} rather than the usual error body.
var ErrNoMeetingMatch = apperror.Missing(NoMeetingMatchAnswer)

type MeetingService struct {
	meetings repository.MeetingRepository
	ctx      *assembler.Assembler
	gen      generation.Generator
	mail     mail.Mailer
	kb       *knowledge.Base
	now      Clock
	logger   *slog.Logger
}

func NewMeetingService(
	meetings repository.MeetingRepository,
	asm *assembler.Assembler,
	gen generation.Generator,
	mailer mail.Mailer,
	kb *knowledge.Base,
	now Clock,
	logger *slog.Logger,
) *MeetingService {
	if now == nil {
		now = time.Now
	}
	return &MeetingService{
		meetings: meetings,
		ctx:      asm,
		gen:      gen,
		mail:     mailer,
		kb:       kb,
		now:      now,
		logger:   logger,
	}
}

// List returns the owner's meetings, newest date first.
func (s *MeetingService) List(ctx context.Context, ownerID string) ([]model.Meeting, error) {
	return s.meetings.ListMeetings(ctx, ownerID, repository.ListOptions{})
}

type SummarizeInput struct {
	Title        string
	Participants []model.Participant
	Date         *time.Time
	Notes        string
}

// Summarize turns raw meeting notes into a stored Meeting.
//
// AFTER THE MEETING IS SAVED:
// If the executive has an assistant on file, two emails may go out: a
// follow-up scheduling request (when the provider says a follow-up is
// needed) and the list of action items. Both are best effort. The meeting
// is already stored, so a mail failure is logged and the request still
// succeeds.
func (s *MeetingService) Summarize(ctx context.Context, user *model.User, in SummarizeInput) (*model.Meeting, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Title == "" {
		return nil, apperror.ValidationFailed("title", "Meeting title is required.")
	}
	if in.Notes == "" {
		return nil, apperror.ValidationFailed("meetingNotes", "Meeting notes are required.")
	}
	if len(in.Notes) > MaxContentLength {
		return nil, apperror.ValidationFailed("meetingNotes", "Meeting notes are too long.")
	}

	var sum generation.MeetingSummary
	if err := s.gen.Generate(ctx, generation.SummarizeMeeting, in.Notes, &sum); err != nil {
		return nil, apperror.Upstream("Failed to create meeting summary", err)
	}

	date := s.now()
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}

	m := &model.Meeting{
		UserID:         user.ID,
		Title:          in.Title,
		Participants:   cleanParticipants(in.Participants),
		Date:           date,
		Summary:        strings.TrimSpace(sum.Summary),
		KeyPoints:      keyPoints(sum.KeyPoints),
		ActionItems:    actionItems(sum.ActionItems),
		FollowUpNeeded: bool(sum.FollowUpNeeded),
		Sentiment:      sum.Sentiment,
	}
	if err := s.meetings.CreateMeeting(ctx, m); err != nil {
		return nil, fmt.Errorf("service/meeting: %w", err)
	}

	s.notifyAssistant(ctx, user, m)
	return m, nil
}

func (s *MeetingService) notifyAssistant(ctx context.Context, user *model.User, m *model.Meeting) {
	if user.EAEmail == "" {
		return
	}
	log := s.logger.With(slog.String("meeting_id", m.ID))

	if m.FollowUpNeeded {
		msg, err := mail.FollowUpRequest(user.EAEmail, m)
		if err == nil {
			err = s.mail.Send(ctx, msg)
		}
		if err != nil {
			log.Warn("follow-up request not sent", slog.String("error", err.Error()))
		} else if err := s.meetings.MarkFollowUpScheduled(ctx, user.ID, m.ID); err != nil {
			log.Warn("could not mark follow-up scheduled", slog.String("error", err.Error()))
		} else {
			m.FollowUpScheduled = true
		}
	}

	msg, ok, err := mail.ActionItemsRequest(user.EAEmail, m)
	if ok {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		log.Warn("action items not sent", slog.String("error", err.Error()))
	}
}

// PrepResult answers a meeting-prep request. Briefing is nil when there is
// no history with the person.
type PrepResult struct {
	Message  string                  `json:"message"`
	Briefing *generation.PersonBrief `json:"briefing"`
}

// Prep briefs the executive on a person from their last few meetings
// together.
func (s *MeetingService) Prep(ctx context.Context, ownerID, name string) (*PrepResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("participantName", "Participant name is required.")
	}

	past, err := s.ctx.MeetingsWithParticipant(ctx, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("service/meeting: %w", err)
	}
	if len(past) == 0 {
		return &PrepResult{Message: fmt.Sprintf("No past meetings found with %s.", name)}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Person: %s\nPast meeting summaries:\n", name)
	for _, m := range past {
		fmt.Fprintf(&b, "On %s: %s\nKey points: %s\n\n",
			m.Date.Format("2006-01-02"), m.Summary, strings.Join(m.KeyPointTexts(), ", "))
	}

	var brief generation.PersonBrief
	if err := s.gen.Generate(ctx, generation.BriefPerson, b.String(), &brief); err != nil {
		return nil, apperror.Upstream("Failed to get meeting prep", err)
	}
	if brief.PersonName == "" {
		brief.PersonName = name
	}
	return &PrepResult{Message: fmt.Sprintf("Briefing prepared for %s.", name), Briefing: &brief}, nil
}

// Ask answers a question from the stored meetings that match it best.
func (s *MeetingService) Ask(ctx context.Context, ownerID, query string) (*generation.MeetingAnswer, error) {
	query, err := requireQuery(query, "A query is required.")
	if err != nil {
		return nil, err
	}

	found, err := s.ctx.MeetingsMatching(ctx, ownerID, query, AskMeetings)
	if err != nil {
		return nil, fmt.Errorf("service/meeting: %w", err)
	}
	if len(found) == 0 {
		return nil, ErrNoMeetingMatch
	}

	lines := make([]assembler.Line, 0, len(found))
	for _, m := range found {
		body := m.Summary
		if kp := m.KeyPointTexts(); len(kp) > 0 {
			body += " Key points: " + strings.Join(kp, "; ")
		}
		lines = append(lines, assembler.Line{Label: m.Title + " (" + m.Date.Format("2006-01-02") + ")", Body: body})
	}
	prompt := "Question: " + query + "\n\n" + assembler.RenderSections(assembler.Section{Heading: "Meeting records", Lines: lines})

	var ans generation.MeetingAnswer
	if err := s.gen.Generate(ctx, generation.AnswerQuestion, prompt, &ans); err != nil {
		return nil, apperror.Upstream("Failed to answer the question.", err)
	}
	return &ans, nil
}

// QuickCapture structures a free-form brain dump into a stored meeting dated
// now.
func (s *MeetingService) QuickCapture(ctx context.Context, ownerID, raw string) (*model.Meeting, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperror.ValidationFailed("rawText", "Text to capture is required.")
	}
	if len(raw) > MaxContentLength {
		return nil, apperror.ValidationFailed("rawText", "Text to capture is too long.")
	}

	var qc generation.QuickCapture
	if err := s.gen.Generate(ctx, generation.StructureQuickCapture, raw, &qc); err != nil {
		return nil, apperror.Upstream("Failed to process quick capture", err)
	}

	participants := make([]model.Participant, 0, len(qc.Participants))
	for _, p := range qc.Participants {
		participants = append(participants, model.Participant{Name: p.Name, Role: p.Role})
	}

	m := &model.Meeting{
		UserID:         ownerID,
		Title:          strings.TrimSpace(qc.Title),
		Participants:   cleanParticipants(participants),
		Date:           s.now(),
		Summary:        strings.TrimSpace(qc.Summary),
		KeyPoints:      keyPoints(qc.KeyPoints),
		ActionItems:    actionItems(qc.ActionItems),
		FollowUpNeeded: bool(qc.FollowUpNeeded),
		MeetingType:    model.ParseMeetingType(strings.ToLower(qc.MeetingType)),
		Tags:           cleanTags(qc.Tags),
	}
	if err := s.meetings.CreateMeeting(ctx, m); err != nil {
		return nil, fmt.Errorf("service/meeting: %w", err)
	}
	return m, nil
}

// Archive returns the curated meeting summaries from the knowledge base.
func (s *MeetingService) Archive() []knowledge.ArchivedMeeting {
	return s.kb.Archive()
}

func cleanParticipants(in []model.Participant) []model.Participant {
	out := make([]model.Participant, 0, len(in))
	for _, p := range in {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			continue
		}
		p.Email = strings.TrimSpace(p.Email)
		p.Role = strings.TrimSpace(p.Role)
		out = append(out, p)
	}
	return out
}

func keyPoints(in []generation.KeyPoint) []model.KeyPoint {
	out := make([]model.KeyPoint, 0, len(in))
	for _, kp := range in {
		if strings.TrimSpace(kp.Point) == "" {
			continue
		}
		out = append(out, model.KeyPoint{Point: strings.TrimSpace(kp.Point), Importance: level(kp.Importance)})
	}
	return out
}

func actionItems(in []generation.ActionItem) []model.ActionItem {
	out := make([]model.ActionItem, 0, len(in))
	for _, it := range in {
		assignee := strings.TrimSpace(it.AssignedTo)
		if assignee == "" {
			assignee = "unassigned"
		}
		out = append(out, model.ActionItem{
			Description: strings.TrimSpace(it.Description),
			AssignedTo:  assignee,
			Priority:    level(it.Priority),
		})
	}
	return out
}

// cleanTags lower-cases, trims and de-duplicates tags, keeping first-seen
// order.
func cleanTags(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
