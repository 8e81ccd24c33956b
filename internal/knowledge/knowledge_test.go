package knowledge

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Default(t *testing.T) {
	kb, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(kb.Documents) == 0 || len(kb.Meetings) == 0 || len(kb.Demo) == 0 {
		t.Fatalf("built-in base is incomplete: %d docs, %d meetings, %d demo lines",
			len(kb.Documents), len(kb.Meetings), len(kb.Demo))
	}
}

func TestRetrieveDocument(t *testing.T) {
	kb, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		query string
		want  string
	}{
		{"Should we go ahead with the Market Expansion?", "q3_market_expansion"},
		{"what are the risks of the cloud vendor deal", "vendor_contract_renewal"},
		{"summarise the ENGAGEMENT SURVEY", "engagement_survey"},
		{"tell me a joke", ""},
	}
	for _, tt := range tests {
		doc, ok := kb.RetrieveDocument(tt.query)
		if tt.want == "" {
			if ok {
				t.Errorf("RetrieveDocument(%q) = %s, want none", tt.query, doc.ID)
			}
			continue
		}
		if !ok || doc.ID != tt.want {
			t.Errorf("RetrieveDocument(%q) = %v, want %s", tt.query, doc, tt.want)
		}
	}
}

func TestDemoLine(t *testing.T) {
	kb, err := Parse([]byte("demo:\n  - first\n  - second\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := kb.DemoLine(0); got != "first" {
		t.Errorf("DemoLine(0) = %q", got)
	}
	if got := kb.DemoLine(1); got != "second" {
		t.Errorf("DemoLine(1) = %q", got)
	}
	for _, turn := range []int{-1, 2, 99} {
		if got := kb.DemoLine(turn); got != EndOfDemo {
			t.Errorf("DemoLine(%d) = %q, want end of demo", turn, got)
		}
	}
}

func TestArchive_IsACopy(t *testing.T) {
	kb, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a := kb.Archive()
	a[0].Title = "changed"
	if kb.Archive()[0].Title == "changed" {
		t.Fatal("Archive exposes internal state")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	data := "documents:\n  - id: d1\n    title: Doc\n    keywords: [Budget]\n    body: \"  numbers  \"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	kb, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	doc, ok := kb.RetrieveDocument("the budget")
	if !ok || doc.Body != "numbers" {
		t.Fatalf("got %+v, %v", doc, ok)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
	if _, err := Parse([]byte("documents:\n  - title: no id\n")); err == nil {
		t.Error("document without id accepted")
	}
}
