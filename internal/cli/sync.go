package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"eoreview/internal/content"
	"eoreview/internal/remote"
)

type syncResult struct {
	Test      string   `json:"test,omitempty"`
	Version   string   `json:"version"`
	Permitted []string `json:"permittedTestTypes"`
	Completed int      `json:"completed"`
	Session   string   `json:"sessionId"`
}

func (r syncResult) String() string {
	return fmt.Sprintf("server %s · permitted %s · %d completed in %s",
		r.Version, strings.Join(r.Permitted, ","), r.Completed, r.Test)
}

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch permitted test types and completed items from the progress service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			err := app.withEnv(ctx, func(e *env) error {
				if !e.remote.Configured() {
					return errors.New("no progress service configured (set [remote] url or --remote)")
				}
				meta, err := e.remote.Meta(ctx)
				if err != nil {
					return err
				}
				res := syncResult{Version: e.remote.Version(), Session: e.remote.SessionID()}
				if len(meta.PermittedTestTypes) > 0 {
					if err := e.prefs.SavePermitted(meta.PermittedTestTypes); err != nil {
						return err
					}
					e.state.Permitted = meta.PermittedTestTypes
				}
				res.Permitted = e.state.Permitted

				valid := content.ValidTestTypes(e.state.Permitted)
				test := app.Test
				if test == "" || !content.IsValidTest(valid, test) {
					test = content.ChooseTest(valid, e.state.Test)
				}
				if test != "" && test != e.state.Test {
					if err := e.prefs.SaveTest(test); err != nil {
						return err
					}
				}
				if test == "" {
					return writeOut(cmd, app, res)
				}

				res.Test = test
				ids, err := e.remote.Completed(ctx, test)
				if err != nil {
					if errors.Is(err, remote.ErrVersionMismatch) {
						return err
					}
					e.log.Warn("remote sync", slog.String("test", test), slog.Any("err", err))
				}
				res.Completed = len(ids)
				res.Version = e.remote.Version()
				return writeOut(cmd, app, res)
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
}
