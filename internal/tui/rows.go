package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"eoreview/internal/itemstore"
	"eoreview/internal/model"
	"eoreview/internal/nav"
)

const (
	markFlag      = "⚑"
	markExhibit   = "▣"
	markHidden    = "⊘"
	markCompleted = "✓"
)

// rowPainter renders list rows for the virtualized list. It reads session
// state at render time, so rows must be invalidated when that state changes.
type rowPainter struct {
	width int
	st    styles
	items *itemstore.Store
	ctrl  *nav.Controller
}

func (p *rowPainter) render(it model.Item, highlighted bool) string {
	sess := p.ctrl.Session()
	mark := func(on bool, glyph string, style func(...string) string) string {
		if !on {
			return " "
		}
		return style(glyph)
	}
	marks := mark(sess.Flagged.Has(it.ID), markFlag, p.st.flag.Render) +
		mark(len(it.Exhibits) > 0, markExhibit, p.st.accent.Render) +
		mark(sess.Hidden.Has(it.ID), markHidden, p.st.muted.Render) +
		mark(sess.Completed.Has(it.ID), markCompleted, p.st.completed.Render)

	count := p.st.muted.Render(fmt.Sprintf("%3d", p.ctrl.Reviews().Count(it.ID)))
	subject := p.st.badge(p.items.Snapshot().ColorIndex(it.Subject)).Render(it.SubjectPair())
	title := it.Title
	if topic := strings.TrimSpace(it.Topic); topic != "" && topic != title {
		title = topic + " · " + title
	}

	line := fmt.Sprintf("%s %s %s %s", marks, count, subject, title)
	w := p.width
	if w <= 0 {
		w = 80
	}
	line = ansi.Truncate(line, w-1, "…")
	if highlighted {
		return p.st.selected.Width(w).Render(ansi.Strip(line))
	}
	return line
}
