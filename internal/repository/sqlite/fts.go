package sqlite

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// FTS5 tables, one per searchable collection. Names are constants; they are
// never built from input.
const (
	ftsMeetings    = "meetings_fts"
	ftsIdeas       = "ideas_fts"
	ftsInsights    = "insights_fts"
	ftsNewsletters = "newsletters_fts"
)

// stopWords are dropped from free-text queries. Without this, "the" or "what"
// would match nearly every record once terms are OR-ed together.
var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "been": {}, "but": {}, "by": {}, "can": {}, "could": {}, "did": {}, "do": {},
	"does": {}, "for": {}, "from": {}, "had": {}, "has": {}, "have": {}, "he": {}, "her": {},
	"his": {}, "how": {}, "i": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {},
	"its": {}, "me": {}, "my": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {},
	"our": {}, "she": {}, "so": {}, "that": {}, "the": {}, "their": {}, "them": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "those": {}, "to": {}, "us": {}, "was": {},
	"we": {}, "were": {}, "what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "why": {},
	"will": {}, "with": {}, "would": {}, "you": {}, "your": {},
}

// matchExpression turns free text into an FTS5 MATCH expression.
//
// Each remaining term is double-quoted (so FTS5 operators in the input are
// inert) and the terms are OR-ed: a record matches if it contains any of
// them, and bm25 ranks records that contain more of them higher. Stemming
// ("meetings" ~ "meeting") comes from the porter tokenizer on the tables.
//
// An empty result means nothing searchable was left; callers return no hits.
func matchExpression(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, `"`+f+`"`)
	}
	return strings.Join(terms, " OR ")
}

// indexRecord replaces the FTS row for id. Must run in the same transaction
// as the write to the record itself.
func (db *DB) indexRecord(ctx context.Context, table, id, title, body string) error {
	q := db.q(ctx)
	if _, err := q.ExecContext(ctx, "DELETE FROM "+table+" WHERE record_id = ?", id); err != nil {
		return fmt.Errorf("clearing %s row %s: %w", table, id, err)
	}
	if _, err := q.ExecContext(ctx,
		"INSERT INTO "+table+" (record_id, title, body) VALUES (?, ?, ?)", id, title, body,
	); err != nil {
		return fmt.Errorf("indexing %s row %s: %w", table, id, err)
	}
	return nil
}

// unindexRecords removes the FTS rows for ids.
func (db *DB) unindexRecords(ctx context.Context, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := db.q(ctx).ExecContext(ctx,
		"DELETE FROM "+table+" WHERE record_id IN ("+placeholders(len(ids))+")", args...,
	)
	if err != nil {
		return fmt.Errorf("unindexing %s rows: %w", table, err)
	}
	return nil
}

// joinText joins non-empty parts with newlines for an FTS body column.
func joinText(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
