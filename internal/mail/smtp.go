package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/execmind/internal/config"
)

// SMTPMailer delivers through an SMTP relay with PLAIN auth when a username
// is configured. The relay is expected to offer STARTTLS on the submission
// port; net/smtp upgrades automatically when it does.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	m := &SMTPMailer{
		addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		from: cfg.From,
		send: smtp.SendMail,
	}
	if cfg.SMTPUsername != "" {
		m.auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return m
}

// Send delivers msg. smtp.SendMail does not take a context, so cancellation
// is only checked before dialling.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := buildMIME(m.from, msg, time.Now())
	if err != nil {
		return fmt.Errorf("mail: building message: %w", err)
	}

	envelopeFrom := m.from
	if addr, err := parseAddress(m.from); err == nil {
		envelopeFrom = addr
	}
	if err := m.send(m.addr, m.auth, envelopeFrom, msg.To, body); err != nil {
		return fmt.Errorf("mail: smtp send to %s: %w", m.addr, err)
	}
	return nil
}

// buildMIME renders msg as a multipart/alternative message with a plain-text
// part followed by an HTML part.
func buildMIME(from string, msg Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }
	header("From", from)
	header("To", strings.Join(msg.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	parts := []struct{ contentType, body string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// parseAddress pulls the bare address out of "Name <addr>".
func parseAddress(s string) (string, error) {
	start := strings.LastIndex(s, "<")
	end := strings.LastIndex(s, ">")
	if start == -1 || end < start {
		return "", fmt.Errorf("no angle-bracket address in %q", s)
	}
	return strings.TrimSpace(s[start+1 : end]), nil
}
