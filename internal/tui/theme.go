package tui

import (
	"github.com/charmbracelet/lipgloss"

	"eoreview/internal/config"
	"eoreview/internal/itemstore"
	"eoreview/internal/store"
)

// Colors are declared as light/dark pairs and resolved against the
// session appearance rather than the terminal background, since the
// appearance is a stored user preference.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func pick(c lipgloss.AdaptiveColor, dark bool) lipgloss.Color {
	if dark {
		return lipgloss.Color(c.Dark)
	}
	return lipgloss.Color(c.Light)
}

var (
	colorText       = ac("235", "252")
	colorMuted      = ac("240", "245")
	colorAccent     = ac("27", "75")
	colorSelectedBg = ac("#e9e9e9", "#303030")
	colorSelectedFg = ac("232", "255")
	colorFlag       = ac("160", "210")
	colorCompleted  = ac("28", "114")
	colorBorder     = ac("250", "240")

	// Subject badges. Index with itemstore.ColorIndex.
	subjectPalette = [itemstore.PaletteSize]lipgloss.AdaptiveColor{
		ac("#1f5fbf", "#6ea8fe"),
		ac("#2e7d32", "#75c779"),
		ac("#b45309", "#f4a259"),
		ac("#6a1b9a", "#c39bd3"),
		ac("#00796b", "#5fd3c4"),
		ac("#ad1457", "#f48fb1"),
	}
)

type styles struct {
	dark bool

	title     lipgloss.Style
	muted     lipgloss.Style
	accent    lipgloss.Style
	selected  lipgloss.Style
	flag      lipgloss.Style
	completed lipgloss.Style
	status    lipgloss.Style
	rule      lipgloss.Style
	overlay   lipgloss.Style
	prompt    lipgloss.Style
	badges    [itemstore.PaletteSize]lipgloss.Style
}

func newStyles(dark bool) styles {
	muted := lipgloss.NewStyle().Foreground(pick(colorMuted, dark))
	if dark {
		muted = muted.Faint(true)
	}
	st := styles{
		dark:      dark,
		title:     lipgloss.NewStyle().Bold(true).Foreground(pick(colorText, dark)),
		muted:     muted,
		accent:    lipgloss.NewStyle().Foreground(pick(colorAccent, dark)),
		selected:  lipgloss.NewStyle().Background(pick(colorSelectedBg, dark)).Foreground(pick(colorSelectedFg, dark)).Bold(true),
		flag:      lipgloss.NewStyle().Foreground(pick(colorFlag, dark)),
		completed: lipgloss.NewStyle().Foreground(pick(colorCompleted, dark)),
		status:    lipgloss.NewStyle().Foreground(pick(colorAccent, dark)).Italic(true),
		rule:      lipgloss.NewStyle().Foreground(pick(colorBorder, dark)),
		overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(pick(colorAccent, dark)).
			Padding(0, 1),
		prompt: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(pick(colorBorder, dark)).
			Padding(1, 2),
	}
	for i, c := range subjectPalette {
		st.badges[i] = lipgloss.NewStyle().Foreground(pick(c, dark)).Bold(true)
	}
	return st
}

func (s styles) badge(colorIndex int) lipgloss.Style {
	if colorIndex < 0 {
		return s.muted
	}
	return s.badges[colorIndex%itemstore.PaletteSize]
}

// resolveDark decides the appearance. An explicit config theme wins, then
// the stored appearance, then the terminal background when nothing was
// ever stored.
func resolveDark(theme string, st store.State, detect func() bool) bool {
	switch theme {
	case config.ThemeDark:
		return true
	case config.ThemeLight:
		return false
	}
	if st.AppearanceSet || detect == nil {
		return st.Appearance == store.AppearanceDark
	}
	return detect()
}

func appearance(dark bool) string {
	if dark {
		return store.AppearanceDark
	}
	return store.AppearanceLight
}
