package cli

import (
	"github.com/spf13/cobra"

	"eoreview/internal/tui"
)

func runTUI(cmd *cobra.Command, app *App) error {
	e, err := app.open(cmd.Context())
	if err != nil {
		return writeErr(cmd, err)
	}
	defer e.Close()

	if app.Test != "" {
		if _, err := e.test(app.Test); err != nil {
			return writeErr(cmd, err)
		}
	}
	opts := tui.Options{
		Config: e.cfg,
		Prefs:  e.prefs,
		State:  e.state,
		Loader: e.loader,
		Remote: e.remote,
		Logger: e.log.Slog(),
		Test:   app.Test,
		Search: app.Search,
	}
	if err := tui.Run(cmd.Context(), opts, e.configPath); err != nil {
		e.log.Error("tui", "err", err)
		return writeErr(cmd, err)
	}
	return nil
}
