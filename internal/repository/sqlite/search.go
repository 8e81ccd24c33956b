package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository"
)

var _ repository.SearchRepository = (*DB)(nil)

// bm25 column weights: record_id (unindexed), title, body. A term in the
// title counts four times as much as one in the body.
const bm25Weights = "0.0, 4.0, 1.0"

// SearchCollection runs query against one collection's FTS table and returns
// the owner's best matches, most relevant first.
//
// HOW THE JOIN WORKS:
// The FTS table only stores record_id plus the indexed text. We MATCH on it,
// join back to the real table for the full record and the owner filter, and
// order by bm25 (lower is better in SQLite, so the score we expose is its
// negation: higher is better).
func (db *DB) SearchCollection(ctx context.Context, t model.RecordType, ownerID, query string, limit int) ([]model.SearchHit, error) {
	match := matchExpression(query)
	if match == "" {
		return []model.SearchHit{}, nil
	}

	switch t {
	case model.TypeMeeting:
		return searchTable(ctx, db, ftsMeetings, "meetings", meetingColumns, match, ownerID, limit,
			func(row rowScanner, rank *float64) (model.SearchHit, error) {
				m, err := scanMeeting(row, rank)
				if err != nil {
					return model.SearchHit{}, err
				}
				return model.SearchHit{Type: t, ID: m.ID, OwnerID: m.UserID, Title: m.Title, Record: *m}, nil
			})
	case model.TypeIdea:
		return searchTable(ctx, db, ftsIdeas, "ideas", ideaColumns, match, ownerID, limit,
			func(row rowScanner, rank *float64) (model.SearchHit, error) {
				i, err := scanIdea(row, rank)
				if err != nil {
					return model.SearchHit{}, err
				}
				return model.SearchHit{Type: t, ID: i.ID, OwnerID: i.UserID, Title: i.DisplayTitle(), Record: *i}, nil
			})
	case model.TypeInsight:
		return searchTable(ctx, db, ftsInsights, "insights", insightColumns, match, ownerID, limit,
			func(row rowScanner, rank *float64) (model.SearchHit, error) {
				in, err := scanInsight(row, rank)
				if err != nil {
					return model.SearchHit{}, err
				}
				return model.SearchHit{Type: t, ID: in.ID, OwnerID: in.UserID, Title: in.Title, Record: *in}, nil
			})
	case model.TypeNewsletter:
		return searchTable(ctx, db, ftsNewsletters, "newsletters", newsletterColumns, match, ownerID, limit,
			func(row rowScanner, rank *float64) (model.SearchHit, error) {
				n, err := scanNewsletter(row, rank)
				if err != nil {
					return model.SearchHit{}, err
				}
				return model.SearchHit{Type: t, ID: n.ID, OwnerID: n.UserID, Title: n.Title, Record: *n}, nil
			})
	default:
		return nil, fmt.Errorf("sqlite: unknown search collection %q", t)
	}
}

type hitScanner func(row rowScanner, rank *float64) (model.SearchHit, error)

func searchTable(ctx context.Context, db *DB, fts, table string, columns []string,
	match, ownerID string, limit int, scan hitScanner,
) ([]model.SearchHit, error) {
	qualified := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		qualified = append(qualified, "t."+c)
	}
	rank := "bm25(" + fts + ", " + bm25Weights + ")"
	qualified = append(qualified, rank)

	b := sq.Select(qualified...).
		From(fts).
		Join(table + " t ON t.id = " + fts + ".record_id").
		Where(fts+" MATCH ?", match).
		Where(sq.Eq{"t.user_id": ownerID}).
		OrderBy(rank)
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building %s search: %w", table, err)
	}

	rows, err := db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching %s: %w", table, err)
	}
	defer rows.Close()

	hits := []model.SearchHit{}
	for rows.Next() {
		var r float64
		hit, err := scan(rows, &r)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s hit: %w", table, err)
		}
		hit.Score = -r
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: searching %s: %w", table, err)
	}
	return hits, nil
}
