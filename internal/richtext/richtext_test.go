package richtext

import (
	"strings"
	"testing"
)

func TestPlainText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain passthrough", in: "no markup", want: "no markup"},
		{name: "nested", in: "<p>Hello <b>World</b></p>", want: "Hello World"},
		{name: "entities", in: "a &amp; b", want: "a & b"},
		{name: "script dropped", in: "<div>a<script>var x</script>b</div>", want: "ab"},
		{name: "table cells", in: "<table><tr><td>x</td><td>y</td></tr></table>", want: "xy"},
	}
	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := PlainText(tt.in); got != tt.want {
				t.Fatalf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsReference(t *testing.T) {
	t.Parallel()

	if !IsReference(`<img src="https://media.example.com/a.png">`) {
		t.Fatalf("expected external media exhibit to be a reference")
	}
	if IsReference("<table><tr><td>Na</td></tr></table>") {
		t.Fatalf("expected inline table not to be a reference")
	}
}

func TestMarkdown_InlineAndBlocks(t *testing.T) {
	t.Parallel()

	got := Markdown("<p>A <b>bold</b> move</p><p>Second <i>one</i></p>")
	want := "A **bold** move\n\nSecond *one*"
	if got != want {
		t.Fatalf("Markdown mismatch:\nwant: %q\ngot:  %q", want, got)
	}
}

func TestMarkdown_Lists(t *testing.T) {
	t.Parallel()

	got := Markdown("<ul><li>one</li><li>two</li></ul>")
	if got != "- one\n- two" {
		t.Fatalf("unexpected unordered list: %q", got)
	}

	got = Markdown("<ol><li>first</li><li>second</li></ol>")
	if got != "1. first\n2. second" {
		t.Fatalf("unexpected ordered list: %q", got)
	}
}

func TestMarkdown_Table(t *testing.T) {
	t.Parallel()

	got := Markdown("<table><tr><th>Lab</th><th>Value</th></tr><tr><td>Na</td><td>140</td></tr></table>")
	for _, want := range []string{"| Lab | Value |", "| --- | --- |", "| Na | 140 |"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in table output:\n%s", want, got)
		}
	}
}

func TestMarkdown_EscapesEmphasisMarkers(t *testing.T) {
	t.Parallel()

	if got := Markdown("<p>2*3_4</p>"); got != `2\*3\_4` {
		t.Fatalf("unexpected escape result: %q", got)
	}
}
