package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// MaxAttempts is how many times the worker tries to deliver one job before
// dropping it.
const MaxAttempts = 3

// queueClient is the part of *redis.Client the worker uses.
type queueClient interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Worker drains the queue QueueMailer fills and delivers each job through
// another Mailer, normally an SMTPMailer.
//
// DELIVERY RULES:
//
//	sent           the job is gone
//	send failed    pushed back to the far end of the queue, attempts + 1
//	MaxAttempts    logged and dropped
//	bad payload    logged and dropped; it can never succeed
type Worker struct {
	rdb    queueClient
	queue  string
	sender Mailer
	logger *slog.Logger

	// how long one BRPOP blocks, and how long to back off after a Redis error
	wait    time.Duration
	backoff time.Duration
}

func NewWorker(rdb queueClient, queue string, sender Mailer, logger *slog.Logger) *Worker {
	return &Worker{
		rdb:     rdb,
		queue:   queue,
		sender:  sender,
		logger:  logger,
		wait:    5 * time.Second,
		backoff: time.Second,
	}
}

// NewWorkerFromURL connects to the Redis server at url.
func NewWorkerFromURL(url, queue string, sender Mailer, logger *slog.Logger) (*Worker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("mail: parse redis url: %w", err)
	}
	return NewWorker(redis.NewClient(opt), queue, sender, logger), nil
}

// Ping checks the Redis connection.
func (w *Worker) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return w.rdb.Ping(ctx).Err()
}

func (w *Worker) Close() error {
	return w.rdb.Close()
}

// Run delivers jobs until ctx is cancelled. It only returns once ctx is done,
// so a Redis outage is logged and waited out rather than ending the process.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("mail worker started", slog.String("queue", w.queue))

	for {
		if ctx.Err() != nil {
			w.logger.Info("mail worker stopped")
			return nil
		}

		// BRPOP answers [key, value]
		res, err := w.rdb.BRPop(ctx, w.wait, w.queue).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("mail queue read failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
			case <-time.After(w.backoff):
			}
			continue
		case len(res) != 2:
			continue
		}

		w.process(ctx, res[1])
	}
}

func (w *Worker) process(ctx context.Context, payload string) {
	var j job
	if err := json.Unmarshal([]byte(payload), &j); err != nil {
		w.logger.Error("dropping unreadable mail job", slog.String("error", err.Error()))
		return
	}
	if err := validate(j.Message); err != nil {
		w.logger.Error("dropping invalid mail job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	err := w.sender.Send(ctx, j.Message)
	if err == nil {
		w.logger.Info("delivered mail",
			slog.String("job_id", j.ID),
			slog.String("subject", j.Message.Subject),
			slog.Duration("queued_for", time.Since(j.QueuedAt)),
		)
		return
	}

	j.Attempts++
	if j.Attempts >= MaxAttempts {
		w.logger.Error("giving up on mail job",
			slog.String("job_id", j.ID),
			slog.Int("attempts", j.Attempts),
			slog.String("error", err.Error()),
		)
		return
	}

	w.logger.Warn("mail delivery failed, requeueing",
		slog.String("job_id", j.ID),
		slog.Int("attempts", j.Attempts),
		slog.String("error", err.Error()),
	)
	if err := w.requeue(ctx, j); err != nil {
		w.logger.Error("requeue failed, job lost",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (w *Worker) requeue(ctx context.Context, j job) error {
	payload, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("mail: marshal job: %w", err)
	}
	// a cancelled ctx must not lose a job that was already popped
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	return w.rdb.LPush(ctx, w.queue, payload).Err()
}
