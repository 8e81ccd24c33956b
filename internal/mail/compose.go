package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/sakif/execmind/internal/model"
)

// Action types shown on requests to the executive assistant.
const (
	ActionItems     = "action-items"
	ScheduleMeeting = "schedule-meeting"
)

// FollowUpWeeks is how far out a follow-up meeting is requested.
const FollowUpWeeks = 4

const dateLayout = "Jan 2, 2006"

var pages = template.Must(template.New("mail").Funcs(template.FuncMap{
	"lines": func(s string) []string { return strings.Split(s, "\n") },
	"date":  func(t time.Time) string { return t.Format(dateLayout) },
}).Parse(`
{{define "request"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2c3e50;">ExecMind Action Request</h2>
  <p style="color: #7f8c8d;">Action Type: <strong>{{.ActionType}}</strong></p>
  <h3 style="color: #2c3e50;">{{.Subject}}</h3>
  <div style="line-height: 1.6; color: #495057;">{{range lines .Body}}{{.}}<br>{{end}}</div>
  <p style="color: #1565c0; font-size: 14px;"><strong>Note:</strong> This is an automated message from ExecMind. Please take the appropriate action as requested.</p>
</div>{{end}}

{{define "newsletter"}}<div style="font-family: Georgia, serif; max-width: 700px; margin: 0 auto;">
  <header style="background-color: #2c3e50; color: white; padding: 30px; text-align: center;">
    <h1 style="margin: 0;">{{.Title}}</h1>
    <p>Week of {{date .WeekOf}}</p>
  </header>
  {{range .Sections}}<section style="margin-bottom: 35px;">
    <h2 style="color: #2c3e50; border-bottom: 2px solid #3498db;">{{.Title}}</h2>
    <div style="line-height: 1.8;">{{range lines .Content}}{{.}}<br>{{end}}</div>
  </section>
  {{end}}<footer style="color: #6c757d; font-size: 14px; text-align: center;">Generated by ExecMind</footer>
</div>{{end}}

{{define "excerpt"}}<div style="font-family: Georgia, serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2c3e50; text-align: center;">Book Excerpt</h2>
  <blockquote style="border-left: 4px solid #3498db; padding: 20px; font-style: italic;">{{range lines .Content}}{{.}}<br>{{end}}</blockquote>
  {{if .Context}}<h4>Context:</h4><p style="color: #6c757d;">{{.Context}}</p>{{end}}
  <p style="color: #6c757d; text-align: center;">Best regards,<br>ExecMind Assistant</p>
</div>{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("mail: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// AssistantRequest builds a message to the executive assistant.
func AssistantRequest(to, subject, body, actionType string) (Message, error) {
	html, err := render("request", struct{ Subject, Body, ActionType string }{subject, body, actionType})
	if err != nil {
		return Message{}, err
	}
	text := fmt.Sprintf("ExecMind Action Request\nAction Type: %s\n\n%s\n\n%s\n\nThis is an automated message from ExecMind.",
		actionType, subject, body)
	return Message{To: []string{to}, Subject: SubjectPrefix + subject, HTML: html, Text: text}, nil
}

// ActionItemsRequest asks the assistant to chase a meeting's action items.
// ok is false when the meeting has none.
func ActionItemsRequest(to string, m *model.Meeting) (msg Message, ok bool, err error) {
	if len(m.ActionItems) == 0 {
		return Message{}, false, nil
	}
	lines := make([]string, 0, len(m.ActionItems))
	for _, it := range m.ActionItems {
		lines = append(lines, fmt.Sprintf("- %s (Assigned to: %s)", it.Description, it.AssignedTo))
	}
	body := "Please follow up on these action items:\n" + strings.Join(lines, "\n")
	msg, err = AssistantRequest(to, fmt.Sprintf("Action Items from %q", m.Title), body, ActionItems)
	return msg, err == nil, err
}

// FollowUpRequest asks the assistant to book a follow-up meeting roughly
// FollowUpWeeks after m.
func FollowUpRequest(to string, m *model.Meeting) (Message, error) {
	names := make([]string, 0, len(m.Participants))
	for _, p := range m.Participants {
		names = append(names, "- "+p.Name)
	}
	body := fmt.Sprintf(`Hi,

Please schedule a follow-up meeting for the %q meeting that occurred on %s.

Participants:
%s

Requested follow-up timeframe:
Approximately %d weeks from the original meeting date (around %s). Please find a suitable time.

Thank you.`,
		m.Title, m.Date.Format(dateLayout), strings.Join(names, "\n"),
		FollowUpWeeks, m.Date.AddDate(0, 0, 7*FollowUpWeeks).Format(dateLayout))

	return AssistantRequest(to, "Meeting Follow-up Scheduling Request: "+m.Title, body, ScheduleMeeting)
}

// NewsletterMessage renders n for recipients.
func NewsletterMessage(n *model.Newsletter, recipients []string) (Message, error) {
	html, err := render("newsletter", n)
	if err != nil {
		return Message{}, err
	}
	return Message{To: recipients, Subject: n.Title, HTML: html, Text: n.Content}, nil
}

// ExcerptMessage shares a book excerpt with recipient.
func ExcerptMessage(recipient, excerpt, context string) (Message, error) {
	html, err := render("excerpt", struct{ Content, Context string }{excerpt, context})
	if err != nil {
		return Message{}, err
	}
	text := "Book Excerpt - As Requested\n\n" + excerpt + "\n\n"
	if context != "" {
		text += "Context: " + context + "\n\n"
	}
	text += "Best regards,\nExecMind Assistant"
	return Message{To: []string{recipient}, Subject: "Book Excerpt - As Requested", HTML: html, Text: text}, nil
}
