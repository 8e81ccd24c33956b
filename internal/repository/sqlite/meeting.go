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

var _ repository.MeetingRepository = (*DB)(nil)

var meetingColumns = []string{
	"id", "user_id", "title", "participants", "date", "duration", "summary", "key_points",
	"action_items", "follow_up_needed", "follow_up_scheduled", "meeting_type", "sentiment",
	"tags", "created_at", "updated_at",
}

// CreateMeeting inserts a meeting and its search index row atomically.
func (db *DB) CreateMeeting(ctx context.Context, m *model.Meeting) error {
	now := time.Now().UTC()
	m.ID = xid.New().String()
	m.Date = utc(m.Date)
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Duration <= 0 {
		m.Duration = model.DefaultMeetingDuration
	}
	if m.MeetingType == "" {
		m.MeetingType = model.MeetingOther
	}

	var enc encoder
	participants := enc.array(m.Participants)
	keyPoints := enc.array(m.KeyPoints)
	actionItems := enc.array(m.ActionItems)
	tags := enc.array(m.Tags)
	if enc.err != nil {
		return fmt.Errorf("sqlite: inserting meeting: %w", enc.err)
	}

	query, args, err := sq.Insert("meetings").Columns(meetingColumns...).Values(
		m.ID, m.UserID, m.Title, participants, m.Date, m.Duration, m.Summary, keyPoints,
		actionItems, m.FollowUpNeeded, m.FollowUpScheduled, string(m.MeetingType), m.Sentiment,
		tags, m.CreatedAt, m.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building meeting insert: %w", err)
	}

	return db.withinTx(ctx, func(ctx context.Context) error {
		if _, err := db.q(ctx).ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("sqlite: inserting meeting %q: %w", m.Title, err)
		}
		body := joinText(m.Summary, strings.Join(m.KeyPointTexts(), "\n"),
			strings.Join(m.ParticipantNames(), " "), strings.Join(m.Tags, " "))
		if err := db.indexRecord(ctx, ftsMeetings, m.ID, m.Title, body); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		return nil
	})
}

// GetMeeting returns one of the owner's meetings.
func (db *DB) GetMeeting(ctx context.Context, ownerID, id string) (*model.Meeting, error) {
	ms, err := db.selectMeetings(ctx, sq.Select(meetingColumns...).From("meetings").
		Where(sq.Eq{"id": id, "user_id": ownerID}))
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, apperror.NotFound("meeting", id)
	}
	return &ms[0], nil
}

// ListMeetings returns the owner's meetings, newest meeting date first.
func (db *DB) ListMeetings(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Meeting, error) {
	b := sq.Select(meetingColumns...).From("meetings").
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("date DESC", "created_at DESC")
	if opts.Since != nil {
		b = b.Where(sq.GtOrEq{"date": utc(*opts.Since)})
	}
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit))
	}
	return db.selectMeetings(ctx, b)
}

// MeetingsByIDs returns the owner's meetings among ids. Ids that do not exist
// or belong to someone else are dropped silently.
func (db *DB) MeetingsByIDs(ctx context.Context, ownerID string, ids []string) ([]model.Meeting, error) {
	if len(ids) == 0 {
		return []model.Meeting{}, nil
	}
	return db.selectMeetings(ctx, sq.Select(meetingColumns...).From("meetings").
		Where(sq.Eq{"user_id": ownerID, "id": ids}).
		OrderBy("date DESC"))
}

// MeetingsInWindow returns meetings whose date falls in [w.Start, w.End),
// newest first, at most limit (0 = unbounded).
func (db *DB) MeetingsInWindow(ctx context.Context, ownerID string, w repository.Window, limit int) ([]model.Meeting, error) {
	b := sq.Select(meetingColumns...).From("meetings").
		Where(sq.Eq{"user_id": ownerID}).
		Where(sq.GtOrEq{"date": utc(w.Start)}).
		Where(sq.Lt{"date": utc(w.End)}).
		OrderBy("date DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return db.selectMeetings(ctx, b)
}

// MeetingsWithParticipant returns meetings with a participant whose name
// contains name, case-insensitively, newest first.
func (db *DB) MeetingsWithParticipant(ctx context.Context, ownerID, name string, limit int) ([]model.Meeting, error) {
	b := sq.Select(meetingColumns...).From("meetings").
		Where(sq.Eq{"user_id": ownerID}).
		Where(sq.Expr(`EXISTS (
			SELECT 1 FROM json_each(meetings.participants) p
			WHERE instr(lower(json_extract(p.value, '$.name')), lower(?)) > 0)`, strings.TrimSpace(name))).
		OrderBy("date DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return db.selectMeetings(ctx, b)
}

// MarkFollowUpScheduled sets the only mutable flag of a meeting.
func (db *DB) MarkFollowUpScheduled(ctx context.Context, ownerID, id string) error {
	res, err := db.q(ctx).ExecContext(ctx,
		`UPDATE meetings SET follow_up_scheduled = 1, updated_at = ? WHERE id = ? AND user_id = ?`,
		time.Now().UTC(), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking follow-up for meeting %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("meeting", id)
	}
	return nil
}

func (db *DB) selectMeetings(ctx context.Context, b sq.SelectBuilder) ([]model.Meeting, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building meeting query: %w", err)
	}

	rows, err := db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying meetings: %w", err)
	}
	defer rows.Close()

	out := []model.Meeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning meeting: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// scanMeeting reads the columns in meetingColumns order, followed by any
// extra destinations (the search query appends its rank).
func scanMeeting(row rowScanner, extra ...any) (*model.Meeting, error) {
	var (
		m                                          model.Meeting
		participants, keyPoints, actionItems, tags string
		meetingType                                string
	)
	dest := []any{
		&m.ID, &m.UserID, &m.Title, &participants, &m.Date, &m.Duration, &m.Summary, &keyPoints,
		&actionItems, &m.FollowUpNeeded, &m.FollowUpScheduled, &meetingType, &m.Sentiment,
		&tags, &m.CreatedAt, &m.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	m.MeetingType = model.MeetingType(meetingType)

	var dec decoder
	dec.decode(participants, &m.Participants)
	dec.decode(keyPoints, &m.KeyPoints)
	dec.decode(actionItems, &m.ActionItems)
	dec.decode(tags, &m.Tags)
	if dec.err != nil {
		return nil, dec.err
	}
	return &m, nil
}
