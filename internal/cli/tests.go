package cli

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"eoreview/internal/content"
	"eoreview/internal/model"
	"eoreview/internal/store"
)

type testRow struct {
	Key     string `json:"key"`
	Display string `json:"display"`
	Current bool   `json:"current"`
	Pack    bool   `json:"pack"`
	Items   *int   `json:"items,omitempty"`
	Error   string `json:"error,omitempty"`
}

type testRows []testRow

func (r testRows) Header() []string { return []string{"TEST", "NAME", "CURRENT", "PACK", "ITEMS"} }

func (r testRows) Rows() [][]string {
	out := make([][]string, 0, len(r))
	for _, t := range r {
		items := ""
		switch {
		case t.Error != "":
			items = t.Error
		case t.Items != nil:
			items = strconv.Itoa(*t.Items)
		}
		cur := ""
		if t.Current {
			cur = "*"
		}
		out = append(out, []string{t.Key, t.Display, cur, strconv.FormatBool(t.Pack), items})
	}
	return out
}

func newTestsCmd(app *App) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "tests",
		Short: "List the permitted test types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			err := app.withEnv(ctx, func(e *env) error {
				valid := content.ValidTestTypes(e.state.Permitted)
				packs, err := e.loader.Source().Tests()
				if err != nil {
					return err
				}
				have := model.NewIDSet(packs...)
				current := content.ChooseTest(valid, e.state.Test)

				rows := make(testRows, 0, len(valid))
				for _, t := range valid {
					rows = append(rows, testRow{Key: t.Key, Display: t.Display, Current: t.Key == current, Pack: have.Has(t.Key)})
				}
				if verify && len(valid) > 0 {
					keys := make([]string, len(valid))
					for i, t := range valid {
						keys[i] = t.Key
					}
					results, err := e.loader.Verify(ctx, keys)
					if err != nil {
						return err
					}
					for i, res := range results {
						if res.Err != nil {
							rows[i].Error = explain(res.Err).Error()
							continue
						}
						n := res.Items
						rows[i].Items = &n
					}
				}
				return writeOut(cmd, app, rows)
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "Decrypt every permitted pack and report item counts")
	return cmd
}

func newUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <test>",
		Short: "Make a permitted test type current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.withEnv(cmd.Context(), func(e *env) error {
				test, err := e.test(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if err := e.prefs.SaveTest(test); err != nil {
					return err
				}
				// A new test starts with an empty search, as in the review UI.
				if err := e.prefs.SaveCurrent(e.state.CurrentID, "", e.state.Sorted); err != nil {
					return err
				}
				t, _ := model.LookupTestType(test)
				return writeOut(cmd, app, testRows{{Key: t.Key, Display: t.Display, Current: true}})
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
}

func newPermitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "permit <test>[,<test>...]",
		Short: "Set the permitted test types",
		Long:  "Set the permitted test types. Unknown types are ignored; an empty list permits nothing.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []string
			if len(args) == 1 {
				list = store.SplitList(args[0])
			}
			err := app.withEnv(cmd.Context(), func(e *env) error {
				for _, t := range list {
					if _, ok := model.LookupTestType(t); !ok {
						e.log.Warn("ignoring unknown test type", "test", t)
					}
				}
				if err := e.prefs.SavePermitted(list); err != nil {
					return err
				}
				valid := content.ValidTestTypes(list)
				current := content.ChooseTest(valid, e.state.Test)
				if current != e.state.Test && current != "" {
					if err := e.prefs.SaveTest(current); err != nil {
						return err
					}
				}
				rows := make(testRows, 0, len(valid))
				for _, t := range valid {
					rows = append(rows, testRow{Key: t.Key, Display: t.Display, Current: t.Key == current})
				}
				return writeOut(cmd, app, rows)
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
}

func newKeysCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the stored registry keys",
	}

	var key1, key2 string
	set := &cobra.Command{
		Use:   "set",
		Short: "Store both registry keys, replacing any stored pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key1, key2 = strings.TrimSpace(key1), strings.TrimSpace(key2)
			if key1 == "" || key2 == "" {
				return writeErr(cmd, errors.New("both --key1 and --key2 are required"))
			}
			err := app.withEnv(cmd.Context(), func(e *env) error {
				if err := e.prefs.SaveRegistryKeys(key1, key2); err != nil {
					return err
				}
				return writeOut(cmd, app, keysResult{Stored: true})
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	// Local flags shadow the persistent --key1/--key2 so open() does not
	// store the pair before the command runs.
	set.Flags().StringVar(&key1, "key1", "", "Registry key 1")
	set.Flags().StringVar(&key2, "key2", "", "Registry key 2")

	show := &cobra.Command{
		Use:   "status",
		Short: "Report whether registry keys are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.withEnv(cmd.Context(), func(e *env) error {
				return writeOut(cmd, app, keysResult{Stored: e.state.Key1 != "" && e.state.Key2 != ""})
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.AddCommand(set, show)
	return cmd
}

type keysResult struct {
	Stored bool `json:"stored"`
}

func (r keysResult) String() string {
	if r.Stored {
		return "registry keys stored"
	}
	return "no registry keys stored"
}
