package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/assembler"
	"github.com/sakif/execmind/internal/generation"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository"
)

// DefaultIdeaContext is stored when an idea is captured without a note on
// where it came from.
const DefaultIdeaContext = "Manual input"

// Transcriber turns a staged audio file into text. Implementations own the
// file once called and remove it whether or not transcription succeeds.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

type IdeaService struct {
	ideas  repository.IdeaRepository
	ctx    *assembler.Assembler
	gen    generation.Generator
	audio  Transcriber
	logger *slog.Logger
}

func NewIdeaService(
	ideas repository.IdeaRepository,
	asm *assembler.Assembler,
	gen generation.Generator,
	audio Transcriber,
	logger *slog.Logger,
) *IdeaService {
	return &IdeaService{ideas: ideas, ctx: asm, gen: gen, audio: audio, logger: logger}
}

// List returns the owner's ideas, newest first, optionally only those
// created at or after since.
func (s *IdeaService) List(ctx context.Context, ownerID string, since *time.Time) ([]model.Idea, error) {
	return s.ideas.ListIdeas(ctx, ownerID, repository.ListOptions{Since: since})
}

type CreateIdeaInput struct {
	Content string
	Source  string
	Context string
}

// Create classifies a text idea and stores it.
func (s *IdeaService) Create(ctx context.Context, ownerID string, in CreateIdeaInput) (*model.Idea, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "Idea content is required.")
	}
	meta := model.IdeaSourceMetadata{Context: contextOrDefault(in.Context)}
	return s.classifyAndStore(ctx, ownerID, content, model.ParseSource(strings.ToLower(strings.TrimSpace(in.Source))), meta)
}

// VoiceUpload describes an audio file already staged on disk.
type VoiceUpload struct {
	Path         string
	OriginalName string
	Context      string
}

// CreateFromVoice transcribes a staged recording and stores the result as a
// voice idea.
//
// WHY THE FILE NAME AND NOT THE PATH?
// The staged file is deleted by the transcriber as soon as the text is out,
// so a stored path would always point at nothing. The original upload name
// is kept for the executive's reference.
func (s *IdeaService) CreateFromVoice(ctx context.Context, ownerID string, up VoiceUpload) (*model.Idea, error) {
	text, err := s.audio.Transcribe(ctx, up.Path)
	if err != nil {
		return nil, apperror.Upstream("Failed to create idea", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("audio", "Idea content is required.")
	}

	meta := model.IdeaSourceMetadata{Context: contextOrDefault(up.Context), AudioFile: up.OriginalName}
	return s.classifyAndStore(ctx, ownerID, text, model.SourceVoice, meta)
}

func (s *IdeaService) classifyAndStore(ctx context.Context, ownerID, content string, source model.IdeaSource, meta model.IdeaSourceMetadata) (*model.Idea, error) {
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content", "Idea content is too long.")
	}

	var c generation.IdeaClassification
	if err := s.gen.Generate(ctx, generation.ClassifyIdea, content, &c); err != nil {
		return nil, apperror.Upstream("Failed to create idea", err)
	}

	idea := &model.Idea{
		UserID:         ownerID,
		Content:        content,
		Title:          strings.TrimSpace(c.Title),
		Category:       model.ParseCategory(strings.ToLower(strings.TrimSpace(c.Category))),
		Tags:           cleanTags(c.Tags),
		Priority:       model.ClampPriority(int(math.Round(float64(c.Priority)))),
		Source:         source,
		SourceMetadata: meta,
		Status:         model.StatusCaptured,
		Analysis: model.IdeaAnalysis{
			Sentiment:     strings.ToLower(strings.TrimSpace(c.Analysis.Sentiment)),
			Themes:        cleanTags(c.Analysis.Themes),
			Actionability: level(c.Analysis.Actionability),
		},
	}
	if err := s.ideas.CreateIdea(ctx, idea); err != nil {
		return nil, fmt.Errorf("service/idea: %w", err)
	}

	s.logger.Info("idea captured",
		slog.String("idea_id", idea.ID),
		slog.String("source", string(idea.Source)),
		slog.String("category", string(idea.Category)),
	)
	return idea, nil
}

// Synthesize combines the ideas that best match query into one proposal.
func (s *IdeaService) Synthesize(ctx context.Context, ownerID, query string) (*generation.IdeaSynthesis, error) {
	query, err := requireQuery(query, "A query is required.")
	if err != nil {
		return nil, err
	}

	found, err := s.ctx.IdeasMatching(ctx, ownerID, query, SynthesisIdeas)
	if err != nil {
		return nil, fmt.Errorf("service/idea: %w", err)
	}
	if len(found) == 0 {
		return nil, apperror.Missing("No relevant ideas found for this topic.")
	}

	prompt := "Topic: " + query + "\n\n" + assembler.RenderSections(assembler.Section{
		Heading: "Related ideas",
		Lines:   assembler.FromIdeas(found),
	})

	var out generation.IdeaSynthesis
	if err := s.gen.Generate(ctx, generation.SynthesizeIdeas, prompt, &out); err != nil {
		return nil, apperror.Upstream("Failed to synthesize ideas", err)
	}
	return &out, nil
}

func contextOrDefault(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return DefaultIdeaContext
}
