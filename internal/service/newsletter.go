package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/assembler"
	"github.com/sakif/execmind/internal/generation"
	"github.com/sakif/execmind/internal/mail"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository"
)

// UsageNewsletter is the IdeaUsage type recorded for ideas that fed a
// newsletter.
const UsageNewsletter = "newsletter"

// MaxRecipients bounds a single newsletter send.
const MaxRecipients = 100

type NewsletterService struct {
	newsletters repository.NewsletterRepository
	ideas       repository.IdeaRepository
	ctx         *assembler.Assembler
	gen         generation.Generator
	mail        mail.Mailer
	tx          repository.TxManager
	now         Clock
	logger      *slog.Logger
}

func NewNewsletterService(
	newsletters repository.NewsletterRepository,
	ideas repository.IdeaRepository,
	asm *assembler.Assembler,
	gen generation.Generator,
	mailer mail.Mailer,
	tx repository.TxManager,
	now Clock,
	logger *slog.Logger,
) *NewsletterService {
	if now == nil {
		now = time.Now
	}
	return &NewsletterService{
		newsletters: newsletters,
		ideas:       ideas,
		ctx:         asm,
		gen:         gen,
		mail:        mailer,
		tx:          tx,
		now:         now,
		logger:      logger,
	}
}

// List returns the owner's newsletters, most recent week first.
func (s *NewsletterService) List(ctx context.Context, ownerID string) ([]model.Newsletter, error) {
	return s.newsletters.ListNewsletters(ctx, ownerID, repository.ListOptions{})
}

// Get returns one newsletter. A foreign id reads as not found.
func (s *NewsletterService) Get(ctx context.Context, ownerID, id string) (*model.Newsletter, error) {
	n, err := s.newsletters.GetNewsletter(ctx, ownerID, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Missing("Newsletter not found.")
	}
	return n, err
}

type GenerateNewsletterInput struct {
	WeekOf       *time.Time
	ManualInputs string
	SourceIDs    []string
}

// Generate drafts this week's newsletter from the selected meetings and
// ideas plus any manual notes.
//
// UNIT OF WORK:
// The draft is stored and every idea that fed it is advanced to "used" in a
// single transaction. Either the newsletter exists and its ideas are marked,
// or neither happened.
func (s *NewsletterService) Generate(ctx context.Context, user *model.User, in GenerateNewsletterInput) (*model.Newsletter, error) {
	manual := strings.TrimSpace(in.ManualInputs)
	if len(manual) > MaxContentLength {
		return nil, apperror.ValidationFailed("manualInputs", "Manual inputs are too long.")
	}

	meetings, err := s.ctx.MeetingsByIDs(ctx, user.ID, in.SourceIDs)
	if err != nil {
		return nil, fmt.Errorf("service/newsletter: %w", err)
	}
	ideas, err := s.ctx.IdeasByIDs(ctx, user.ID, in.SourceIDs)
	if err != nil {
		return nil, fmt.Errorf("service/newsletter: %w", err)
	}

	var manualLines []assembler.Line
	if manual != "" {
		manualLines = []assembler.Line{{Label: "Notes", Body: manual}}
	}
	prompt := authorBlock(user) + "\n\n" + assembler.RenderSections(
		assembler.Section{Heading: "Recent meetings", Lines: assembler.FromMeetings(meetings)},
		assembler.Section{Heading: "Recent ideas", Lines: assembler.FromIdeas(ideas)},
		assembler.Section{Heading: "Additional themes and notes", Lines: manualLines},
	)

	var draft generation.NewsletterDraft
	if err := s.gen.Generate(ctx, generation.DraftNewsletter, prompt, &draft); err != nil {
		return nil, apperror.Upstream("Failed to generate newsletter", err)
	}

	now := s.now()
	weekOf := now
	if in.WeekOf != nil && !in.WeekOf.IsZero() {
		weekOf = *in.WeekOf
	}

	n := &model.Newsletter{
		UserID:       user.ID,
		Title:        strings.TrimSpace(draft.Title),
		WeekOf:       weekOf,
		Status:       model.NewsletterDraft,
		InputSources: inputSources(meetings, ideas, manual),
		PublishedTo:  []string{},
	}
	n.SetSections(sections(draft.Sections))
	n.Analytics.SentimentScore = float64(draft.Analytics.SentimentScore)
	n.Analytics.KeyThemes = nonEmpty(draft.Analytics.KeyThemes)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.newsletters.CreateNewsletter(ctx, n); err != nil {
			return err
		}
		for i := range ideas {
			ideas[i].MarkUsed(UsageNewsletter, n.ID, now)
			if err := s.ideas.UpdateIdeaUsage(ctx, &ideas[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service/newsletter: storing draft: %w", err)
	}

	s.logger.Info("newsletter drafted",
		slog.String("newsletter_id", n.ID),
		slog.Int("meetings", len(meetings)),
		slog.Int("ideas", len(ideas)),
	)
	return n, nil
}

func authorBlock(user *model.User) string {
	var b strings.Builder
	b.WriteString("Author:\n")
	fmt.Fprintf(&b, "- Name: %s\n", user.Name)
	if style := strings.TrimSpace(user.WritingStyle); style != "" {
		fmt.Fprintf(&b, "- Writing style: %s\n", style)
	}
	return strings.TrimRight(b.String(), "\n")
}

func sections(in []generation.SectionDraft) []model.NewsletterSection {
	out := make([]model.NewsletterSection, 0, len(in))
	for i, d := range in {
		order := int(d.Order)
		if order <= 0 {
			order = i + 1
		}
		out = append(out, model.NewsletterSection{
			Title:   strings.TrimSpace(d.Title),
			Content: strings.TrimSpace(d.Content),
			Order:   order,
			Type:    model.ParseSectionType(strings.ToLower(strings.TrimSpace(d.Type))),
		})
	}
	return out
}

func inputSources(meetings []model.Meeting, ideas []model.Idea, manual string) []model.InputSource {
	out := make([]model.InputSource, 0, len(meetings)+len(ideas)+1)
	for _, m := range meetings {
		out = append(out, model.InputSource{Type: "meeting", SourceID: m.ID, Content: m.Summary})
	}
	for _, i := range ideas {
		out = append(out, model.InputSource{Type: "idea", SourceID: i.ID, Content: i.Content})
	}
	if manual != "" {
		out = append(out, model.InputSource{Type: "manual", Content: manual})
	}
	return out
}

// UpdateNewsletterInput carries the fields of a partial update. Nil means
// "leave unchanged".
type UpdateNewsletterInput struct {
	Title   *string
	Content *string
	Status  *string
}

// Update edits a newsletter. Editing the content recomputes its analytics;
// the status may only move forward.
func (s *NewsletterService) Update(ctx context.Context, ownerID, id string, in UpdateNewsletterInput) (*model.Newsletter, error) {
	n, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "Title cannot be empty.")
		}
		n.Title = title
	}
	if in.Content != nil {
		if len(*in.Content) > MaxContentLength {
			return nil, apperror.ValidationFailed("content", "Content is too long.")
		}
		n.SetContent(*in.Content)
	}
	if in.Status != nil {
		next := model.NewsletterStatus(strings.ToLower(strings.TrimSpace(*in.Status)))
		if !next.Valid() {
			return nil, apperror.ValidationFailed("status", fmt.Sprintf("Unknown status %q.", *in.Status))
		}
		if !n.CanMoveTo(next) {
			return nil, apperror.ValidationFailed("status", fmt.Sprintf("Cannot move a newsletter from %s back to %s.", n.Status, next))
		}
		s.moveTo(n, next)
	}

	if err := s.newsletters.UpdateNewsletter(ctx, n); err != nil {
		return nil, fmt.Errorf("service/newsletter: %w", err)
	}
	return n, nil
}

func (s *NewsletterService) moveTo(n *model.Newsletter, next model.NewsletterStatus) {
	n.Status = next
	if next == model.NewsletterPublished && n.PublishedAt == nil {
		at := s.now()
		n.PublishedAt = &at
	}
}

// Send mails the newsletter to recipients, records them in PublishedTo and
// marks the newsletter published.
func (s *NewsletterService) Send(ctx context.Context, ownerID, id string, recipients []string) (*model.Newsletter, error) {
	to := make([]string, 0, len(recipients))
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if !validEmail(r) {
			return nil, apperror.ValidationFailed("recipients", fmt.Sprintf("%s is not a valid email address.", r))
		}
		to = append(to, r)
	}
	if len(to) == 0 {
		return nil, apperror.ValidationFailed("recipients", "At least one recipient is required.")
	}
	if len(to) > MaxRecipients {
		return nil, apperror.ValidationFailed("recipients", fmt.Sprintf("At most %d recipients per send.", MaxRecipients))
	}

	n, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	msg, err := mail.NewsletterMessage(n, to)
	if err != nil {
		return nil, fmt.Errorf("service/newsletter: %w", err)
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return nil, apperror.Upstream("Failed to send newsletter", err)
	}

	seen := make(map[string]bool, len(n.PublishedTo))
	for _, r := range n.PublishedTo {
		seen[strings.ToLower(r)] = true
	}
	for _, r := range to {
		if !seen[strings.ToLower(r)] {
			seen[strings.ToLower(r)] = true
			n.PublishedTo = append(n.PublishedTo, r)
		}
	}
	s.moveTo(n, model.NewsletterPublished)

	if err := s.newsletters.UpdateNewsletter(ctx, n); err != nil {
		return nil, fmt.Errorf("service/newsletter: recording send: %w", err)
	}

	s.logger.Info("newsletter sent", slog.String("newsletter_id", n.ID), slog.Int("recipients", len(to)))
	return n, nil
}
