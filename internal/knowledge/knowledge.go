// Package knowledge holds the static reference material the assistant can
// draw on: analyst documents, an archive of curated meeting summaries and
// the scripted demo conversation.
//
// The built-in set is embedded in the binary. A deployment can replace it
// with its own YAML file of the same shape (config: knowledge.path).
package knowledge

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Document is a reference document the analyst endpoint can reason over.
type Document struct {
	ID       string   `yaml:"id"       json:"id"`
	Title    string   `yaml:"title"    json:"title"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Body     string   `yaml:"body"     json:"body"`
}

// ArchivedMeeting is a curated meeting summary.
type ArchivedMeeting struct {
	ID       string   `yaml:"id"       json:"id"`
	Title    string   `yaml:"title"    json:"title"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Summary  string   `yaml:"summary"  json:"summary"`
}

// EndOfDemo is returned for any turn past the end of the script.
const EndOfDemo = "This concludes our scripted demo. Thank you!"

// Base is a loaded knowledge base. It is read-only after Load.
type Base struct {
	Documents []Document        `yaml:"documents"`
	Meetings  []ArchivedMeeting `yaml:"meetings"`
	Demo      []string          `yaml:"demo"`
}

// Load reads the knowledge base at path, or the built-in one when path is
// empty.
func Load(path string) (*Base, error) {
	data := defaultYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("knowledge: reading %s: %w", path, err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes a knowledge base. Keywords are lower-cased and bodies
// trimmed so lookups need no further normalisation.
func Parse(data []byte) (*Base, error) {
	var kb Base
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("knowledge: decoding: %w", err)
	}
	for i := range kb.Documents {
		d := &kb.Documents[i]
		if d.ID == "" || strings.TrimSpace(d.Body) == "" {
			return nil, fmt.Errorf("knowledge: document %d needs an id and a body", i)
		}
		d.Keywords = lowerAll(d.Keywords)
		d.Body = strings.TrimSpace(d.Body)
	}
	for i := range kb.Meetings {
		m := &kb.Meetings[i]
		m.Keywords = lowerAll(m.Keywords)
		m.Summary = strings.TrimSpace(m.Summary)
	}
	return &kb, nil
}

// RetrieveDocument returns the first document with a keyword that appears
// in query, case-insensitively.
func (kb *Base) RetrieveDocument(query string) (*Document, bool) {
	q := strings.ToLower(query)
	for i := range kb.Documents {
		if containsAny(q, kb.Documents[i].Keywords) {
			return &kb.Documents[i], true
		}
	}
	return nil, false
}

// Archive returns every archived meeting in file order.
func (kb *Base) Archive() []ArchivedMeeting {
	out := make([]ArchivedMeeting, len(kb.Meetings))
	copy(out, kb.Meetings)
	return out
}

// DemoLine returns the scripted reply for a zero-based turn.
func (kb *Base) DemoLine(turn int) string {
	if turn < 0 || turn >= len(kb.Demo) {
		return EndOfDemo
	}
	return kb.Demo[turn]
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func lowerAll(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}
