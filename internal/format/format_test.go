package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ID        string         `json:"qid"`
	Flagged   bool           `json:"flagged"`
	Reviews   int            `json:"reviewCount"`
	Exhibits  []string       `json:"exhibits"`
	Progress  map[string]int `json:"progress,omitempty"`
	Secondary *string        `json:"secondarySubject"`
}

func TestWriteEDN(t *testing.T) {
	t.Parallel()

	v := sample{ID: "q1", Flagged: true, Reviews: 3, Exhibits: []string{"a", "b"}}
	var buf bytes.Buffer
	if err := Write(&buf, v, EDN, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := `{:exhibits ["a" "b"] :flagged true :qid "q1" :review-count 3 :secondary-subject nil}` + "\n"
	if buf.String() != want {
		t.Fatalf("edn=%q\nwant %q", buf.String(), want)
	}
}

func TestWriteEDN_Pretty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteEDN(&buf, map[string]any{"ids": []string{"q1"}, "empty": []string{}}, true); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "{\n  :empty []\n  :ids [\n    \"q1\"\n  ]\n}\n"
	if buf.String() != want {
		t.Fatalf("pretty edn=%q\nwant %q", buf.String(), want)
	}
}

func TestKeyword(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"qid":                ":qid",
		"permittedTestTypes": ":permitted-test-types",
		"ID":                 ":id",
		"top level":          ":top-level",
		"step1Score":         ":step1-score",
	}
	for in, want := range tests {
		if got := Keyword(in); got != want {
			t.Fatalf("Keyword(%q)=%q want %q", in, got, want)
		}
	}
}

func TestWriteJSON_NoHTMLEscape(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, map[string]string{"text": "<b>x</b>"}, "", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"text":"<b>x</b>"}` {
		t.Fatalf("json=%s", got)
	}
}

type rows struct{}

func (rows) Header() []string { return []string{"ID", "TITLE"} }
func (rows) Rows() [][]string { return [][]string{{"q1", "Murmurs"}, {"q22", "Anion gap"}} }

func TestWriteText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, rows{}, Text, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "TITLE", "q22", "Anion gap"} {
		if !strings.Contains(out, want) {
			t.Fatalf("text output missing %q:\n%s", want, out)
		}
	}
	if err := Write(&buf, 42, Text, false); err == nil {
		t.Fatalf("expected error for non-tabular value")
	}
	if err := Write(&buf, rows{}, "yaml", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
