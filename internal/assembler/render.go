package assembler

import (
	"strings"

	"github.com/sakif/execmind/internal/model"
)

// Line is one record as it appears in a prompt.
type Line struct {
	Label string
	Body  string
}

// Render writes one "- label: body" line per entry, in the order given.
func Render(lines []Line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(l.Label)
		b.WriteString(": ")
		b.WriteString(oneLine(l.Body))
	}
	return b.String()
}

// Section is a headed block of lines.
type Section struct {
	Heading string
	Lines   []Line
}

// RenderSections renders each section under its heading, separated by a
// blank line. An empty section still gets its heading, followed by "None",
// so the provider can tell "nothing happened" from "not asked".
func RenderSections(sections ...Section) string {
	blocks := make([]string, 0, len(sections))
	for _, s := range sections {
		body := "None"
		if len(s.Lines) > 0 {
			body = Render(s.Lines)
		}
		blocks = append(blocks, s.Heading+":\n"+body)
	}
	return strings.Join(blocks, "\n\n")
}

// FromMeetings labels each meeting with its title and date and uses its
// summary as the body.
func FromMeetings(ms []model.Meeting) []Line {
	lines := make([]Line, 0, len(ms))
	for _, m := range ms {
		lines = append(lines, Line{
			Label: m.Title + " (" + m.Date.Format("2006-01-02") + ")",
			Body:  m.Summary,
		})
	}
	return lines
}

// FromIdeas labels each idea with its display title and uses its content as
// the body.
func FromIdeas(ideas []model.Idea) []Line {
	lines := make([]Line, 0, len(ideas))
	for i := range ideas {
		lines = append(lines, Line{
			Label: ideas[i].DisplayTitle(),
			Body:  ideas[i].Content,
		})
	}
	return lines
}

// oneLine folds newlines so a multi-line body cannot start a fake entry.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
