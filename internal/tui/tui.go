package tui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"eoreview/internal/config"
)

// Run starts the review UI and blocks until it exits. When configPath is
// non-empty, edits to that file are applied while the UI runs.
func Run(ctx context.Context, opts Options, configPath string) error {
	if opts.DetectDark == nil {
		opts.DetectDark = termenv.HasDarkBackground
	}
	m := newAppModel(opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if configPath != "" {
		err := config.Watch(ctx, configPath, func(cfg *config.Config, err error) {
			if err != nil {
				m.log.Warn("reload config", slog.String("path", configPath), slog.Any("err", err))
				return
			}
			p.Send(ConfigReloadedMsg{Config: cfg})
		})
		if err != nil {
			m.log.Warn("watch config", slog.String("path", configPath), slog.Any("err", err))
		}
	}

	final, err := p.Run()
	if fm, ok := final.(appModel); ok {
		if ferr := fm.ctrl.Flush(); ferr != nil {
			fm.log.Warn("save review progress", slog.Any("err", ferr))
		}
	}
	return err
}
