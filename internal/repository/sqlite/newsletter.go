package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository"
)

var _ repository.NewsletterRepository = (*DB)(nil)

var newsletterColumns = []string{
	"id", "user_id", "title", "week_of", "content", "sections", "status", "input_sources",
	"analytics", "published_at", "published_to", "created_at", "updated_at",
}

// CreateNewsletter inserts a newsletter and its index row atomically.
func (db *DB) CreateNewsletter(ctx context.Context, n *model.Newsletter) error {
	now := time.Now().UTC()
	n.ID = xid.New().String()
	n.WeekOf = utc(n.WeekOf)
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.Status == "" {
		n.Status = model.NewsletterDraft
	}
	// word count and reading time always describe the stored content
	n.SetContent(n.Content)

	args, err := newsletterArgs(n)
	if err != nil {
		return fmt.Errorf("sqlite: inserting newsletter: %w", err)
	}
	query, qargs, err := sq.Insert("newsletters").Columns(newsletterColumns...).Values(args...).ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building newsletter insert: %w", err)
	}

	return db.withinTx(ctx, func(ctx context.Context) error {
		if _, err := db.q(ctx).ExecContext(ctx, query, qargs...); err != nil {
			return fmt.Errorf("sqlite: inserting newsletter: %w", err)
		}
		if err := db.indexRecord(ctx, ftsNewsletters, n.ID, n.Title, n.Content); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		return nil
	})
}

// GetNewsletter returns one of the owner's newsletters.
func (db *DB) GetNewsletter(ctx context.Context, ownerID, id string) (*model.Newsletter, error) {
	ns, err := db.selectNewsletters(ctx, sq.Select(newsletterColumns...).From("newsletters").
		Where(sq.Eq{"id": id, "user_id": ownerID}))
	if err != nil {
		return nil, err
	}
	if len(ns) == 0 {
		return nil, apperror.NotFound("newsletter", id)
	}
	return &ns[0], nil
}

// ListNewsletters returns the owner's newsletters, most recent week first.
func (db *DB) ListNewsletters(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Newsletter, error) {
	b := sq.Select(newsletterColumns...).From("newsletters").
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("week_of DESC", "created_at DESC")
	if opts.Since != nil {
		b = b.Where(sq.GtOrEq{"week_of": utc(*opts.Since)})
	}
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit))
	}
	return db.selectNewsletters(ctx, b)
}

// UpdateNewsletter writes every mutable field back and refreshes the index.
func (db *DB) UpdateNewsletter(ctx context.Context, n *model.Newsletter) error {
	n.UpdatedAt = time.Now().UTC()
	n.SetContent(n.Content)

	var enc encoder
	sections := enc.array(n.Sections)
	analytics := enc.object(n.Analytics)
	publishedTo := enc.array(n.PublishedTo)
	if enc.err != nil {
		return fmt.Errorf("sqlite: updating newsletter %s: %w", n.ID, enc.err)
	}

	var publishedAt any
	if n.PublishedAt != nil {
		publishedAt = utc(*n.PublishedAt)
	}

	query, args, err := sq.Update("newsletters").
		Set("title", n.Title).
		Set("content", n.Content).
		Set("sections", sections).
		Set("status", string(n.Status)).
		Set("analytics", analytics).
		Set("published_at", publishedAt).
		Set("published_to", publishedTo).
		Set("updated_at", n.UpdatedAt).
		Where(sq.Eq{"id": n.ID, "user_id": n.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building newsletter update: %w", err)
	}

	return db.withinTx(ctx, func(ctx context.Context) error {
		res, err := db.q(ctx).ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("sqlite: updating newsletter %s: %w", n.ID, err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return apperror.NotFound("newsletter", n.ID)
		}
		if err := db.indexRecord(ctx, ftsNewsletters, n.ID, n.Title, n.Content); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		return nil
	})
}

func newsletterArgs(n *model.Newsletter) ([]any, error) {
	var enc encoder
	sections := enc.array(n.Sections)
	inputs := enc.array(n.InputSources)
	analytics := enc.object(n.Analytics)
	publishedTo := enc.array(n.PublishedTo)
	if enc.err != nil {
		return nil, enc.err
	}
	var publishedAt any
	if n.PublishedAt != nil {
		publishedAt = utc(*n.PublishedAt)
	}
	return []any{
		n.ID, n.UserID, n.Title, n.WeekOf, n.Content, sections, string(n.Status), inputs,
		analytics, publishedAt, publishedTo, n.CreatedAt, n.UpdatedAt,
	}, nil
}

func (db *DB) selectNewsletters(ctx context.Context, b sq.SelectBuilder) ([]model.Newsletter, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building newsletter query: %w", err)
	}

	rows, err := db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying newsletters: %w", err)
	}
	defer rows.Close()

	out := []model.Newsletter{}
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning newsletter: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func scanNewsletter(row rowScanner, extra ...any) (*model.Newsletter, error) {
	var (
		n                                                model.Newsletter
		status, sections, inputs, analytics, publishedTo string
		publishedAt                                      sql.NullTime
	)
	dest := []any{
		&n.ID, &n.UserID, &n.Title, &n.WeekOf, &n.Content, &sections, &status, &inputs,
		&analytics, &publishedAt, &publishedTo, &n.CreatedAt, &n.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	n.Status = model.NewsletterStatus(status)
	if publishedAt.Valid {
		t := publishedAt.Time
		n.PublishedAt = &t
	}

	var dec decoder
	dec.decode(sections, &n.Sections)
	dec.decode(inputs, &n.InputSources)
	dec.decode(analytics, &n.Analytics)
	dec.decode(publishedTo, &n.PublishedTo)
	if dec.err != nil {
		return nil, dec.err
	}
	return &n, nil
}
