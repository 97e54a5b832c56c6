package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	First      key.Binding
	Last       key.Binding
	Search     key.Binding
	Close      key.Binding
	Back       key.Binding
	Exhibit    key.Binding
	Flag       key.Binding
	FlagOnly   key.Binding
	Completed  key.Binding
	Hide       key.Binding
	ShowHidden key.Binding
	Sort       key.Binding
	Theme      key.Binding
	Copy       key.Binding
	Tag        key.Binding
	Test       key.Binding
	Sync       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
		First:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
		Last:       key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
		Search:     key.NewBinding(key.WithKeys("ctrl+f", "/"), key.WithHelp("ctrl+f", "search")),
		Close:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Back:       key.NewBinding(key.WithKeys("b", "backspace"), key.WithHelp("b", "back")),
		Exhibit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "exhibits")),
		Flag:       key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "flag")),
		FlagOnly:   key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "flagged only")),
		Completed:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "completed only")),
		Hide:       key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hide")),
		ShowHidden: key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "show hidden")),
		Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Theme:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Copy:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Tag:        key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "search tag")),
		Test:       key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "next test")),
		Sync:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "sync")),
		PageUp:     key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "scroll up")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "scroll down")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Search, k.Exhibit, k.Flag, k.Back, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.First, k.Last, k.PageUp, k.PageDown},
		{k.Search, k.Close, k.Back, k.Tag, k.Sort},
		{k.Exhibit, k.Flag, k.FlagOnly, k.Completed, k.Hide, k.ShowHidden},
		{k.Theme, k.Copy, k.Test, k.Sync, k.Help, k.Quit},
	}
}
