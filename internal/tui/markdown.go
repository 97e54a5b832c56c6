package tui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"eoreview/internal/richtext"
)

var (
	mdRendererMu sync.Mutex
	// Keyed by style and wrap width. Fixed styles avoid terminal queries.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

func markdownRenderer(dark bool, width int) (*glamour.TermRenderer, error) {
	if width < 10 {
		width = 10
	}
	style := "light"
	if dark {
		style = "dark"
	}
	key := style + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	defer mdRendererMu.Unlock()
	if r := mdRenderers[key]; r != nil {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(markdownStyleConfig(dark)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	mdRenderers[key] = r
	return r, nil
}

// renderHTML converts an HTML fragment to markdown and renders it. On
// failure it falls back to wrapped plain text.
func renderHTML(fragment string, width int, dark bool) string {
	md := strings.TrimSpace(richtext.Markdown(fragment))
	if md == "" {
		return ""
	}
	r, err := markdownRenderer(dark, width)
	if err != nil {
		return wrapPlain(richtext.PlainText(fragment), width, 0)
	}
	out, err := r.Render(md)
	if err != nil {
		return wrapPlain(richtext.PlainText(fragment), width, 0)
	}
	return strings.TrimRight(out, "\n")
}

func wrapPlain(s string, width int, pad uint) string {
	if width-int(pad) < 10 {
		width = 10 + int(pad)
	}
	return indent.String(wordwrap.String(s, width-int(pad)), pad)
}

func markdownStyleConfig(dark bool) ansi.StyleConfig {
	cfg := glamourstyles.LightStyleConfig
	if dark {
		cfg = glamourstyles.DarkStyleConfig
	}
	text := string(pick(colorText, dark))
	link := string(pick(colorAccent, dark))
	zero := uint(0)

	cfg.Document.Margin = &zero
	cfg.Document.Color = &text
	cfg.Text.Color = &text
	cfg.Heading.Color = &text
	cfg.H1.Color = &text
	cfg.H1.BackgroundColor = nil
	cfg.H2.Color = &text
	cfg.Link.Color = &link
	cfg.LinkText.Color = &link
	cfg.Strong.Color = nil
	cfg.Emph.Color = nil
	faint := false
	cfg.BlockQuote.Faint = &faint
	return cfg
}
