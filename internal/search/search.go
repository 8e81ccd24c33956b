// Package search runs one free-text query across every collection an owner
// has and merges the results.
//
// HOW RESULTS ARE ORDERED:
// Each collection is ranked by its own full-text relevance. Those scores are
// not comparable across collections (different fields, different lengths),
// so there is no global re-ranking. Instead the per-collection lists are
// concatenated in the fixed order given by TypePriority: every meeting hit
// comes before every idea hit, and so on.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository"
)

// PerCollectionLimit caps the hits taken from each collection.
const PerCollectionLimit = 10

// TypePriority is the order collections appear in a merged result.
var TypePriority = []model.RecordType{
	model.TypeMeeting,
	model.TypeIdea,
	model.TypeInsight,
	model.TypeNewsletter,
}

type Service struct {
	repo   repository.SearchRepository
	logger *slog.Logger
}

func NewService(repo repository.SearchRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Search queries every collection in TypePriority concurrently and returns
// the owner's hits grouped by type. A failure in any collection fails the
// whole search; partial results are never returned.
func (s *Service) Search(ctx context.Context, ownerID, query string) ([]model.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.ValidationFailed("q", "Search query is required.")
	}

	start := time.Now()

	// WHY A SLICE INDEXED BY POSITION?
	// Each goroutine writes only to its own slot, so no mutex is needed, and
	// the merge below reads the slots in priority order regardless of which
	// query finished first.
	perType := make([][]model.SearchHit, len(TypePriority))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range TypePriority {
		g.Go(func() error {
			hits, err := s.repo.SearchCollection(gctx, t, ownerID, query, PerCollectionLimit)
			if err != nil {
				return fmt.Errorf("search %s: %w", t, err)
			}
			perType[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := merge(perType)

	s.logger.Debug("search completed",
		slog.String("user_id", ownerID),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)),
	)
	return results, nil
}

// merge concatenates the per-type lists in order, keeping each list's own
// ranking. The result is never nil so it encodes as [].
func merge(perType [][]model.SearchHit) []model.SearchHit {
	n := 0
	for _, hits := range perType {
		n += len(hits)
	}
	out := make([]model.SearchHit, 0, n)
	for _, hits := range perType {
		out = append(out, hits...)
	}
	return out
}
