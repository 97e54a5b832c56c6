package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"

	"eoreview/internal/model"
	"eoreview/internal/richtext"
)

// Fixed chrome: header, search, two rules and the footer.
const chromeLines = 5

func (m appModel) listHeight() int {
	h := (m.height - chromeLines) * 2 / 5
	if h < 3 {
		h = 3
	}
	return h
}

func (m appModel) paneHeight() int {
	h := m.height - chromeLines - m.listHeight()
	if h < 3 {
		h = 3
	}
	return h
}

func (m *appModel) layout() {
	m.painter.width = m.width
	m.list.Resize(m.listHeight())
	m.list.InvalidateAll()
	if id := m.ctrl.Session().Current; id != "" {
		m.list.ScrollTo(id, false)
	}

	m.detail.Width = m.width
	m.detail.Height = m.paneHeight()
	// The overlay border and padding take two rows and four columns.
	m.pane.Width = max(m.width-4, 10)
	m.pane.Height = max(m.paneHeight()-2, 1)
	m.help.Width = m.pane.Width
	m.search.Width = max(m.width-4, 10)

	m.refreshDetail(true)
	switch m.overlay {
	case overlayExhibit:
		m.openExhibit(m.exhibit)
	case overlayHelp:
		m.openHelp()
	}
}

func (m *appModel) activePane() *viewport.Model {
	if m.overlay != overlayNone {
		return &m.pane
	}
	return &m.detail
}

func (m *appModel) refreshDetail(force bool) {
	it, ok := m.ctrl.Current()
	if !ok {
		m.detailID = ""
		m.detail.SetContent("")
		return
	}
	if !force && it.ID == m.detailID {
		return
	}
	m.detailID = it.ID

	var b strings.Builder
	b.WriteString(m.st.title.Render(it.Title))
	b.WriteString("\n")
	var tags []string
	for i, t := range it.Tags() {
		tags = append(tags, fmt.Sprintf("%d %s", i+1, t))
	}
	b.WriteString(m.st.muted.Render(strings.Join(tags, "  ")))
	b.WriteString("\n")
	meta := fmt.Sprintf("%s · reviewed %d×", it.ID, m.ctrl.Reviews().Count(it.ID))
	if n := len(it.Exhibits); n > 0 {
		meta += fmt.Sprintf(" · %d exhibit(s), press e", n)
	}
	b.WriteString(m.st.muted.Render(meta))
	b.WriteString("\n\n")
	b.WriteString(renderHTML(it.Body, max(m.width-2, 10), m.dark))

	m.detail.SetContent(b.String())
	m.detail.GotoTop()
}

func (m *appModel) openExhibit(i int) {
	it, ok := m.ctrl.Current()
	if !ok || i < 0 || i >= len(it.Exhibits) {
		m.closeOverlay()
		return
	}
	m.overlay = overlayExhibit
	m.exhibit = i

	ex := string(it.Exhibits[i])
	var body string
	if richtext.IsReference(ex) {
		body = wrapPlain(richtext.PlainText(ex), m.pane.Width, 2)
	} else {
		body = renderHTML(ex, m.pane.Width, m.dark)
	}
	head := m.st.title.Render(fmt.Sprintf("Exhibit %d/%d", i+1, len(it.Exhibits)))
	if len(it.Exhibits) > 1 {
		head += m.st.muted.Render("  e: next · esc: close")
	} else {
		head += m.st.muted.Render("  esc: close")
	}
	m.pane.SetContent(head + "\n\n" + body)
	m.pane.GotoTop()
}

func (m *appModel) openHelp() {
	m.overlay = overlayHelp
	m.exhibit = -1
	m.help.ShowAll = true
	keys := m.help.FullHelpView(m.keys.FullHelp())
	about := wrapPlain("Search matches all tags, the body text and exhibits. "+
		"Each search is recorded in the back history; b returns to the previous "+
		"search and the item that was current there. Items are counted as reviewed "+
		"once per session.", m.pane.Width, 0)
	m.pane.SetContent(m.st.title.Render("Keys") + "\n\n" + indent.String(keys, 1) + "\n\n" + m.st.muted.Render(about))
	m.pane.GotoTop()
}

func (m *appModel) closeOverlay() {
	m.overlay = overlayNone
	m.exhibit = -1
	m.help.ShowAll = false
}

func (m appModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	switch m.mode {
	case modeLoading:
		return m.centered(m.spinner.View() + " decrypting " + m.testDisplay() + "…")
	case modePassword:
		box := m.st.title.Render("Unlock "+m.testDisplay()) + "\n\n" +
			m.password.View() + "\n\n" +
			m.st.muted.Render("enter to unlock · esc to skip")
		return m.centered(m.st.prompt.Render(box))
	}

	rule := m.st.rule.Render(strings.Repeat("─", m.width))
	lines := make([]string, 0, m.height)
	lines = append(lines, m.viewHeader(), m.search.View(), rule)

	rows := make([]string, 0, m.listHeight())
	for _, h := range m.list.Visible() {
		rows = append(rows, h.View)
	}
	if len(rows) == 0 && m.loaded {
		rows = append(rows, m.st.muted.Render("  no matching items"))
	}
	for len(rows) < m.listHeight() {
		rows = append(rows, "")
	}
	lines = append(lines, rows...)
	lines = append(lines, rule)

	if m.overlay != overlayNone {
		lines = append(lines, m.st.overlay.Width(m.width-2).Render(m.pane.View()))
	} else {
		lines = append(lines, m.detail.View())
	}

	footer := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.status != "" {
		footer = m.st.status.Render(m.status)
	}
	lines = append(lines, footer)
	return strings.Join(lines, "\n")
}

func (m appModel) centered(s string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}

func (m appModel) testDisplay() string {
	if t, ok := model.LookupTestType(m.test); ok {
		return t.Display
	}
	if m.test == "" {
		return "no test"
	}
	return m.test
}

func (m appModel) viewHeader() string {
	sess := m.ctrl.Session()
	pos := fmt.Sprintf("%d/%d", m.hooks.index+1, m.hooks.total)

	var modes []string
	if sess.Sorted {
		modes = append(modes, "sorted")
	}
	if sess.Predicate.FlagOnly {
		modes = append(modes, "flagged")
	}
	if sess.Predicate.CompletedOnly {
		modes = append(modes, "completed")
	}
	if sess.Predicate.HideHidden {
		modes = append(modes, "hiding hidden")
	}
	if sess.RemoteAvailable {
		modes = append(modes, "synced")
	}

	head := m.st.title.Render("EO Review") + "  " +
		m.st.accent.Render(m.testDisplay()) + "  " +
		m.st.muted.Render(pos)
	if len(modes) > 0 {
		head += "  " + m.st.muted.Render("["+strings.Join(modes, " · ")+"]")
	}
	return head
}
