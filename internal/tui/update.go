package tui

import (
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"eoreview/internal/nav"
	"eoreview/internal/richtext"
	"eoreview/internal/store"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case spinner.TickMsg:
		if m.mode != modeLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case contentLoadedMsg:
		cmd := m.onContentLoaded(msg)
		return m, cmd

	case completedMsg:
		cmd := m.onCompleted(msg)
		return m, cmd

	case metaMsg:
		cmd := m.onMeta(msg)
		return m, cmd

	case searchDebounceMsg:
		if msg.seq != m.searchSeq {
			return m, nil
		}
		m.ctrl.SetSearch(m.search.Value())
		m.afterNav()
		return m, m.scrollCmd()

	case scrollStepMsg:
		if m.list.Step() {
			return m, m.scrollCmd()
		}
		return m, nil

	case statusDoneMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modePassword:
			return m.updatePassword(msg)
		case modeLoading:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m appModel) updatePassword(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		// Skipping the prompt leaves the session without content.
		m.prompted = true
		m.password.Blur()
		cmd := m.onContentLoaded(contentLoadedMsg{test: m.test, err: errNoPasswordGiven})
		return m, cmd
	case "enter":
		pw := m.password.Value()
		if pw == "" {
			return m, nil
		}
		m.prompted = true
		m.password.Blur()
		m.password.Reset()
		m.loader.SetPassword(pw)
		m.mode = modeLoading
		return m, tea.Batch(m.spinner.Tick, m.loadCmd(m.test))
	}
	var cmd tea.Cmd
	m.password, cmd = m.password.Update(msg)
	return m, cmd
}

func (m appModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "esc", "enter":
		m.searching = false
		m.search.Blur()
		// Apply immediately instead of waiting for the debounce.
		m.searchSeq++
		m.ctrl.SetSearch(m.search.Value())
		m.afterNav()
		return m, m.scrollCmd()
	case "up":
		m.ctrl.Move(-1)
		m.afterNav()
		return m, m.scrollCmd()
	case "down":
		m.ctrl.Move(1)
		m.afterNav()
		return m, m.scrollCmd()
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	m.searchSeq++
	seq := m.searchSeq
	debounce := tea.Tick(m.debounce, func(time.Time) tea.Msg { return searchDebounceMsg{seq: seq} })
	return m, tea.Batch(cmd, debounce)
}

func (m appModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	sess := m.ctrl.Session()

	switch {
	case key.Matches(msg, k.Quit):
		return m.quit()

	case key.Matches(msg, k.Close):
		m.closeOverlay()
		return m, nil

	case key.Matches(msg, k.Help):
		if m.overlay == overlayHelp {
			m.closeOverlay()
		} else {
			m.openHelp()
		}
		return m, nil

	case key.Matches(msg, k.PageUp):
		m.activePane().HalfViewUp()
		return m, nil

	case key.Matches(msg, k.PageDown):
		m.activePane().HalfViewDown()
		return m, nil
	}

	if m.overlay == overlayHelp {
		return m, nil
	}

	var cmd tea.Cmd
	switch {
	case key.Matches(msg, k.Up):
		m.ctrl.Move(-1)

	case key.Matches(msg, k.Down):
		m.ctrl.Move(1)

	case key.Matches(msg, k.First):
		m.ctrl.JumpTo(m.ctrl.View().First())

	case key.Matches(msg, k.Last):
		if v := m.ctrl.View(); v.Len() > 0 {
			m.ctrl.JumpTo(v.At(v.Len() - 1).ID)
		}

	case key.Matches(msg, k.Search):
		m.searching = true
		m.closeOverlay()
		cmd = m.search.Focus()

	case key.Matches(msg, k.Back):
		m.ctrl.NavigateBack()
		m.search.SetValue(sess.Predicate.Search)

	case key.Matches(msg, k.Exhibit):
		it, ok := m.ctrl.Current()
		if !ok {
			break
		}
		next, open := nav.NextExhibit(len(it.Exhibits), m.overlay == overlayExhibit, m.exhibit)
		if !open {
			m.closeOverlay()
			break
		}
		m.ctrl.RequestExhibit(next)

	case key.Matches(msg, k.Flag):
		if id := sess.Current; id != "" {
			m.ctrl.ToggleFlag(id)
			m.list.Invalidate(id)
		}

	case key.Matches(msg, k.FlagOnly):
		m.ctrl.SetFlagMode(!sess.Predicate.FlagOnly)

	case key.Matches(msg, k.Completed):
		want := !sess.Predicate.CompletedOnly
		if got := m.ctrl.SetCompletedMode(want); got != want {
			cmd = m.setStatus("completed filter needs remote sync")
		}

	case key.Matches(msg, k.Hide):
		if id := sess.Current; id != "" {
			m.ctrl.ToggleHidden(id)
			m.list.Invalidate(id)
		}

	case key.Matches(msg, k.ShowHidden):
		show := sess.Predicate.HideHidden
		m.ctrl.SetShowHidden(show)
		if show {
			cmd = m.setStatus("showing hidden items")
		} else {
			cmd = m.setStatus("hiding hidden items")
		}

	case key.Matches(msg, k.Sort):
		m.ctrl.ToggleSort()

	case key.Matches(msg, k.Theme):
		m.applyTheme(!m.dark)
		m.savePref("appearance", func(p *store.Prefs) error { return p.SaveAppearance(appearance(m.dark)) })

	case key.Matches(msg, k.Copy):
		cmd = m.copyCurrent()

	case key.Matches(msg, k.Tag):
		m.searchTag(msg.String())

	case key.Matches(msg, k.Test):
		return m, m.nextTest()

	case key.Matches(msg, k.Sync):
		if !m.remote.Configured() {
			cmd = m.setStatus("remote sync is not configured")
			break
		}
		cmd = tea.Batch(m.completedCmd(m.test), m.metaCmd())

	default:
		return m, nil
	}

	m.afterNav()
	return m, tea.Batch(cmd, m.scrollCmd())
}

// searchTag replaces the search with the n-th tag of the current item.
func (m *appModel) searchTag(digit string) {
	it, ok := m.ctrl.Current()
	if !ok {
		return
	}
	n := int(digit[0] - '1')
	tags := it.Tags()
	if n < 0 || n >= len(tags) {
		return
	}
	m.searchSeq++
	m.search.SetValue(strings.ToLower(tags[n]))
	m.ctrl.SetSearch(tags[n])
}

func (m *appModel) copyCurrent() tea.Cmd {
	it, ok := m.ctrl.Current()
	if !ok {
		return nil
	}
	text := it.Title + "\n\n" + richtext.PlainText(it.Body)
	if err := clipboard.WriteAll(text); err != nil {
		m.log.Warn("copy to clipboard", slog.Any("err", err))
		return m.setStatus("clipboard unavailable")
	}
	return m.setStatus("copied " + it.ID)
}

func (m appModel) quit() (tea.Model, tea.Cmd) {
	if err := m.ctrl.Flush(); err != nil {
		m.log.Warn("save review progress", slog.Any("err", err))
	}
	return m, tea.Quit
}
