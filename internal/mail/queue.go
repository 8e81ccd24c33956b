package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// QueueMailer hands messages to a Worker through a Redis list.
//
// WHY A QUEUE?
// Delivering over SMTP takes seconds and the relay can be down. Pushing a
// job onto a list takes a millisecond, and the worker can retry delivery
// without holding an HTTP request open.
type QueueMailer struct {
	rdb    *redis.Client
	queue  string
	from   string
	logger *slog.Logger
}

// job is the JSON pushed onto the queue.
type job struct {
	ID       string    `json:"id"`
	From     string    `json:"from"`
	Message  Message   `json:"message"`
	QueuedAt time.Time `json:"queuedAt"`
	Attempts int       `json:"attempts,omitempty"`
}

func NewQueueMailer(rdb *redis.Client, queue, from string, logger *slog.Logger) *QueueMailer {
	return &QueueMailer{rdb: rdb, queue: queue, from: from, logger: logger}
}

// NewQueueMailerFromURL connects to the Redis server at url.
func NewQueueMailerFromURL(url, queue, from string, logger *slog.Logger) (*QueueMailer, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("mail: parse redis url: %w", err)
	}
	return NewQueueMailer(redis.NewClient(opt), queue, from, logger), nil
}

func (m *QueueMailer) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	j := job{
		ID:       uuid.New().String(),
		From:     m.from,
		Message:  msg,
		QueuedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("mail: marshal job: %w", err)
	}

	// workers BRPOP, so LPUSH keeps the list FIFO
	if err := m.rdb.LPush(ctx, m.queue, payload).Err(); err != nil {
		return fmt.Errorf("mail: redis LPUSH: %w", err)
	}

	m.logger.Info("queued mail",
		slog.String("job_id", j.ID),
		slog.String("subject", msg.Subject),
		slog.String("queue", m.queue),
	)
	return nil
}

// Ping checks the Redis connection.
func (m *QueueMailer) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return m.rdb.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (m *QueueMailer) Close() error {
	return m.rdb.Close()
}
