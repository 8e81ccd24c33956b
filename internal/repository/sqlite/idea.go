package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository"
)

var _ repository.IdeaRepository = (*DB)(nil)

var ideaColumns = []string{
	"id", "user_id", "content", "title", "category", "tags", "priority", "source",
	"source_metadata", "status", "used_in", "analysis", "created_at", "updated_at",
}

// CreateIdea inserts an idea and its search index row atomically.
// Missing category, source, status and priority get their defaults.
func (db *DB) CreateIdea(ctx context.Context, idea *model.Idea) error {
	now := time.Now().UTC()
	idea.ID = xid.New().String()
	idea.CreatedAt = now
	idea.UpdatedAt = now
	idea.Priority = model.ClampPriority(idea.Priority)
	if idea.Category == "" {
		idea.Category = model.CategoryGeneral
	}
	if idea.Source == "" {
		idea.Source = model.SourceText
	}
	if idea.Status == "" {
		idea.Status = model.StatusCaptured
	}

	var enc encoder
	tags := enc.array(idea.Tags)
	meta := enc.object(idea.SourceMetadata)
	usedIn := enc.array(idea.UsedIn)
	analysis := enc.object(idea.Analysis)
	if enc.err != nil {
		return fmt.Errorf("sqlite: inserting idea: %w", enc.err)
	}

	query, args, err := sq.Insert("ideas").Columns(ideaColumns...).Values(
		idea.ID, idea.UserID, idea.Content, idea.Title, string(idea.Category), tags, idea.Priority,
		string(idea.Source), meta, string(idea.Status), usedIn, analysis, idea.CreatedAt, idea.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building idea insert: %w", err)
	}

	return db.withinTx(ctx, func(ctx context.Context) error {
		if _, err := db.q(ctx).ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("sqlite: inserting idea: %w", err)
		}
		body := joinText(idea.Content, strings.Join(idea.Tags, " "), strings.Join(idea.Analysis.Themes, " "))
		if err := db.indexRecord(ctx, ftsIdeas, idea.ID, idea.Title, body); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		return nil
	})
}

// ListIdeas returns the owner's ideas, newest first.
func (db *DB) ListIdeas(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Idea, error) {
	b := sq.Select(ideaColumns...).From("ideas").
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("created_at DESC")
	if opts.Since != nil {
		b = b.Where(sq.GtOrEq{"created_at": utc(*opts.Since)})
	}
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit))
	}
	return db.selectIdeas(ctx, b)
}

// IdeasByIDs returns the owner's ideas among ids, dropping unknown or
// foreign ids silently.
func (db *DB) IdeasByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Idea, error) {
	if len(ids) == 0 {
		return []model.Idea{}, nil
	}
	return db.selectIdeas(ctx, sq.Select(ideaColumns...).From("ideas").
		Where(sq.Eq{"user_id": ownerID, "id": ids}).
		OrderBy("created_at DESC"))
}

// IdeasInWindow returns ideas created in [w.Start, w.End), newest first.
func (db *DB) IdeasInWindow(ctx context.Context, ownerID string, w repository.Window, limit int) ([]model.Idea, error) {
	b := sq.Select(ideaColumns...).From("ideas").
		Where(sq.Eq{"user_id": ownerID}).
		Where(sq.GtOrEq{"created_at": utc(w.Start)}).
		Where(sq.Lt{"created_at": utc(w.End)}).
		OrderBy("created_at DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return db.selectIdeas(ctx, b)
}

// UpdateIdeaUsage persists status and usedIn, the two fields automated
// paths change.
func (db *DB) UpdateIdeaUsage(ctx context.Context, idea *model.Idea) error {
	idea.UpdatedAt = time.Now().UTC()

	var enc encoder
	usedIn := enc.array(idea.UsedIn)
	if enc.err != nil {
		return fmt.Errorf("sqlite: updating idea %s: %w", idea.ID, enc.err)
	}

	res, err := db.q(ctx).ExecContext(ctx,
		`UPDATE ideas SET status = ?, used_in = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		string(idea.Status), usedIn, idea.UpdatedAt, idea.ID, idea.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating idea %s: %w", idea.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("idea", idea.ID)
	}
	return nil
}

func (db *DB) selectIdeas(ctx context.Context, b sq.SelectBuilder) ([]model.Idea, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building idea query: %w", err)
	}

	rows, err := db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying ideas: %w", err)
	}
	defer rows.Close()

	out := []model.Idea{}
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning idea: %w", err)
		}
		out = append(out, *idea)
	}
	return out, rows.Err()
}

func scanIdea(row rowScanner, extra ...any) (*model.Idea, error) {
	var (
		i                            model.Idea
		category, source, status     string
		tags, meta, usedIn, analysis string
	)
	dest := []any{
		&i.ID, &i.UserID, &i.Content, &i.Title, &category, &tags, &i.Priority, &source,
		&meta, &status, &usedIn, &analysis, &i.CreatedAt, &i.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	i.Category = model.IdeaCategory(category)
	i.Source = model.IdeaSource(source)
	i.Status = model.IdeaStatus(status)

	var dec decoder
	dec.decode(tags, &i.Tags)
	dec.decode(meta, &i.SourceMetadata)
	dec.decode(usedIn, &i.UsedIn)
	dec.decode(analysis, &i.Analysis)
	if dec.err != nil {
		return nil, dec.err
	}
	return &i, nil
}
