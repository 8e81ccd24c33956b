// Package mail sends outbound email: action-item requests to the executive
// assistant, follow-up scheduling requests, newsletters and book excerpts.
//
// THREE TRANSPORTS, ONE INTERFACE:
//
//	log    write the message to the log and drop it (development default)
//	smtp   deliver directly to an SMTP relay
//	redis  push a JSON job onto a Redis list; Worker (cmd/mailworker) delivers it
//
// Services only see Mailer, so switching transport is a config change.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/execmind/internal/config"
)

// Message is one outbound email. HTML and Text are alternative renderings of
// the same body; either may be empty.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Mailer delivers a Message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SubjectPrefix tags every message sent to the executive assistant.
const SubjectPrefix = "[ExecMind] "

// New returns the transport selected by cfg.Transport.
func New(cfg config.MailConfig, logger *slog.Logger) (Mailer, error) {
	switch cfg.Transport {
	case "", "log":
		return NewLogMailer(logger), nil
	case "smtp":
		return NewSMTPMailer(cfg), nil
	case "redis":
		q, err := NewQueueMailerFromURL(cfg.RedisURL, cfg.Queue, cfg.From, logger)
		if err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, fmt.Errorf("mail: unknown transport %q", cfg.Transport)
	}
}

func validate(msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mail: message %q has no recipients", msg.Subject)
	}
	if msg.HTML == "" && msg.Text == "" {
		return fmt.Errorf("mail: message %q has no body", msg.Subject)
	}
	return nil
}

// LogMailer logs messages instead of sending them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	m.logger.Info("mail not sent (log transport)",
		slog.Any("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("text_bytes", len(msg.Text)),
	)
	return nil
}
