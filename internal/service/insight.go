package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/assembler"
	"github.com/sakif/execmind/internal/generation"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository"
)

type InsightService struct {
	insights repository.InsightRepository
	ctx      *assembler.Assembler
	gen      generation.Generator
	tx       repository.TxManager
	now      Clock
	logger   *slog.Logger
}

func NewInsightService(
	insights repository.InsightRepository,
	asm *assembler.Assembler,
	gen generation.Generator,
	tx repository.TxManager,
	now Clock,
	logger *slog.Logger,
) *InsightService {
	if now == nil {
		now = time.Now
	}
	return &InsightService{insights: insights, ctx: asm, gen: gen, tx: tx, now: now, logger: logger}
}

// List returns the latest insights, at most InsightListLimit.
func (s *InsightService) List(ctx context.Context, ownerID string, since *time.Time) ([]model.Insight, error) {
	return s.insights.ListInsights(ctx, ownerID, repository.ListOptions{Since: since, Limit: InsightListLimit})
}

// Generate synthesises insights from the last week of meetings and ideas
// and replaces the previous auto-generated set.
//
// REPLACING THE OLD BATCH:
// Old insights are found by their AutoGenerated flag, not by matching the
// text of their source line. Deleting them and inserting the new batch
// happen in one transaction, so a failed insert leaves the previous batch in
// place instead of an empty list.
func (s *InsightService) Generate(ctx context.Context, ownerID string) ([]*model.Insight, error) {
	w := repository.LastDays(s.now(), InsightWindowDays)

	meetings, err := s.ctx.MeetingsInWindow(ctx, ownerID, w)
	if err != nil {
		return nil, fmt.Errorf("service/insight: %w", err)
	}
	ideas, err := s.ctx.IdeasInWindow(ctx, ownerID, w)
	if err != nil {
		return nil, fmt.Errorf("service/insight: %w", err)
	}
	if len(meetings) == 0 && len(ideas) == 0 {
		return nil, apperror.ValidationFailed("window", "Not enough data from the past week to generate insights.")
	}

	prompt := assembler.RenderSections(
		assembler.Section{Heading: "Recent meetings", Lines: assembler.FromMeetings(meetings)},
		assembler.Section{Heading: "Recent ideas", Lines: assembler.FromIdeas(ideas)},
	)

	var set generation.WeeklyInsightSet
	if err := s.gen.Generate(ctx, generation.WeeklyInsights, prompt, &set); err != nil {
		return nil, apperror.Upstream("Failed to generate insights.", err)
	}

	batch := xid.New().String()
	source := sourceLine(len(meetings), len(ideas))
	out := make([]*model.Insight, 0, len(set.Insights))
	for _, d := range set.Insights {
		summary := strings.TrimSpace(d.Summary)
		out = append(out, &model.Insight{
			UserID:            ownerID,
			Title:             strings.TrimSpace(d.Title),
			Summary:           summary,
			Source:            source,
			ReadTime:          model.ReadingMinutes(model.WordCount(summary)),
			Tags:              cleanTags(d.Tags),
			Relevance:         level(d.Relevance),
			KeyPoints:         nonEmpty(d.KeyPoints),
			AutoGenerated:     true,
			GenerationBatchID: batch,
		})
	}

	var removed int64
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		n, err := s.insights.DeleteAutoGeneratedInsights(ctx, ownerID)
		if err != nil {
			return err
		}
		removed = n
		return s.insights.CreateInsights(ctx, out)
	})
	if err != nil {
		return nil, fmt.Errorf("service/insight: replacing batch: %w", err)
	}

	s.logger.Info("insights generated",
		slog.String("batch_id", batch),
		slog.Int("count", len(out)),
		slog.Int64("replaced", removed),
	)
	return out, nil
}

// sourceLine describes what a batch was built from, naming only the kinds
// that were present: "Synthesized from 2 Meeting(s) & 1 Idea(s)".
func sourceLine(meetings, ideas int) string {
	var parts []string
	if meetings > 0 {
		parts = append(parts, fmt.Sprintf("%d Meeting(s)", meetings))
	}
	if ideas > 0 {
		parts = append(parts, fmt.Sprintf("%d Idea(s)", ideas))
	}
	return "Synthesized from " + strings.Join(parts, " & ")
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
