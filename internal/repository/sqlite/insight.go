package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository"
)

var _ repository.InsightRepository = (*DB)(nil)

var insightColumns = []string{
	"id", "user_id", "title", "summary", "source", "read_time", "tags", "relevance",
	"key_points", "link", "auto_generated", "generation_batch_id", "created_at",
}

// CreateInsights inserts a batch of insights and their index rows in one
// transaction (or the caller's).
func (db *DB) CreateInsights(ctx context.Context, insights []*model.Insight) error {
	if len(insights) == 0 {
		return nil
	}

	now := time.Now().UTC()
	b := sq.Insert("insights").Columns(insightColumns...)
	for _, in := range insights {
		in.ID = xid.New().String()
		in.CreatedAt = now
		if in.Relevance == "" {
			in.Relevance = model.LevelMedium
		}

		var enc encoder
		tags := enc.array(in.Tags)
		keyPoints := enc.array(in.KeyPoints)
		if enc.err != nil {
			return fmt.Errorf("sqlite: inserting insights: %w", enc.err)
		}
		b = b.Values(in.ID, in.UserID, in.Title, in.Summary, in.Source, in.ReadTime, tags,
			string(in.Relevance), keyPoints, in.Link, in.AutoGenerated, in.GenerationBatchID, in.CreatedAt)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building insight insert: %w", err)
	}

	return db.withinTx(ctx, func(ctx context.Context) error {
		if _, err := db.q(ctx).ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("sqlite: inserting insights: %w", err)
		}
		for _, in := range insights {
			body := joinText(in.Summary, strings.Join(in.KeyPoints, "\n"), strings.Join(in.Tags, " "))
			if err := db.indexRecord(ctx, ftsInsights, in.ID, in.Title, body); err != nil {
				return fmt.Errorf("sqlite: %w", err)
			}
		}
		return nil
	})
}

// ListInsights returns the owner's insights, newest first.
func (db *DB) ListInsights(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Insight, error) {
	b := sq.Select(insightColumns...).From("insights").
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("created_at DESC")
	if opts.Since != nil {
		b = b.Where(sq.GtOrEq{"created_at": utc(*opts.Since)})
	}
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit))
	}
	return db.selectInsights(ctx, b)
}

// DeleteAutoGeneratedInsights removes every auto-generated insight of the
// owner, whatever batch produced it. Hand-made insights are untouched.
func (db *DB) DeleteAutoGeneratedInsights(ctx context.Context, ownerID string) (int64, error) {
	var deleted int64
	err := db.withinTx(ctx, func(ctx context.Context) error {
		rows, err := db.q(ctx).QueryContext(ctx,
			`SELECT id FROM insights WHERE user_id = ? AND auto_generated = 1`, ownerID)
		if err != nil {
			return fmt.Errorf("sqlite: listing auto-generated insights: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("sqlite: scanning insight id: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("sqlite: listing auto-generated insights: %w", err)
		}

		res, err := db.q(ctx).ExecContext(ctx,
			`DELETE FROM insights WHERE user_id = ? AND auto_generated = 1`, ownerID)
		if err != nil {
			return fmt.Errorf("sqlite: deleting auto-generated insights: %w", err)
		}
		deleted, _ = res.RowsAffected()

		if err := db.unindexRecords(ctx, ftsInsights, ids); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		return nil
	})
	return deleted, err
}

func (db *DB) selectInsights(ctx context.Context, b sq.SelectBuilder) ([]model.Insight, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building insight query: %w", err)
	}

	rows, err := db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying insights: %w", err)
	}
	defer rows.Close()

	out := []model.Insight{}
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning insight: %w", err)
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

func scanInsight(row rowScanner, extra ...any) (*model.Insight, error) {
	var (
		in                         model.Insight
		tags, keyPoints, relevance string
	)
	dest := []any{
		&in.ID, &in.UserID, &in.Title, &in.Summary, &in.Source, &in.ReadTime, &tags, &relevance,
		&keyPoints, &in.Link, &in.AutoGenerated, &in.GenerationBatchID, &in.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	in.Relevance = model.Level(relevance)

	var dec decoder
	dec.decode(tags, &in.Tags)
	dec.decode(keyPoints, &in.KeyPoints)
	if dec.err != nil {
		return nil, dec.err
	}
	return &in, nil
}
