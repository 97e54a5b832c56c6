package cli

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"eoreview/internal/itemstore"
	"eoreview/internal/model"
	"eoreview/internal/nav"
)

type markResult struct {
	ID    string `json:"qid"`
	Mark  string `json:"mark"`
	On    bool   `json:"on"`
	Count int    `json:"count"`
}

func (r markResult) String() string {
	state := "cleared"
	if r.On {
		state = "set"
	}
	return r.Mark + " " + state + " on " + r.ID + " (" + strconv.Itoa(r.Count) + " total)"
}

// newMarkCmds builds flag, unflag, hide and unhide. Ids are not checked
// against the content so marks can be set without the session password.
func newMarkCmds(app *App) []*cobra.Command {
	type markCmd struct {
		use, short, mark string
		on               bool
	}
	marks := []markCmd{
		{"flag", "Flag items", "flagged", true},
		{"unflag", "Remove the flag from items", "flagged", false},
		{"hide", "Hide items", "hidden", true},
		{"unhide", "Unhide items", "hidden", false},
	}
	cmds := make([]*cobra.Command, 0, len(marks))
	for _, s := range marks {
		cmds = append(cmds, &cobra.Command{
			Use:   s.use + " <item-id>...",
			Short: s.short,
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				err := app.withEnv(cmd.Context(), func(e *env) error {
					ids, save := e.state.Flagged, e.prefs.SaveFlagged
					if s.mark == "hidden" {
						ids, save = e.state.Hidden, e.prefs.SaveHidden
					}
					set := model.NewIDSet(ids...)
					for _, id := range args {
						if id = strings.TrimSpace(id); id == "" {
							continue
						}
						if s.on {
							set.Add(id)
						} else {
							set.Remove(id)
						}
					}
					if err := save(set.Sorted()); err != nil {
						return err
					}
					out := make([]markResult, 0, len(args))
					for _, id := range args {
						out = append(out, markResult{ID: strings.TrimSpace(id), Mark: s.mark, On: s.on, Count: len(set)})
					}
					if len(out) == 1 {
						return writeOut(cmd, app, out[0])
					}
					return writeOut(cmd, app, markResults(out))
				})
				if err != nil {
					return writeErr(cmd, err)
				}
				return nil
			},
		})
	}
	return cmds
}

type markResults []markResult

func (r markResults) Header() []string { return []string{"QID", "MARK", "ON"} }

func (r markResults) Rows() [][]string {
	out := make([][]string, 0, len(r))
	for _, m := range r {
		out = append(out, []string{m.ID, m.Mark, strconv.FormatBool(m.On)})
	}
	return out
}

type progressRow struct {
	ID      string `json:"qid"`
	Reviews int    `json:"reviews"`
}

type progressRows []progressRow

func (r progressRows) Header() []string { return []string{"QID", "REVIEWS"} }

func (r progressRows) Rows() [][]string {
	out := make([][]string, 0, len(r))
	for _, p := range r {
		out = append(out, []string{p.ID, strconv.Itoa(p.Reviews)})
	}
	return out
}

func newProgressCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show review counts, most reviewed first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.withEnv(cmd.Context(), func(e *env) error {
				rows := make(progressRows, 0, len(e.state.Progress))
				for id, n := range e.state.Progress {
					rows = append(rows, progressRow{ID: id, Reviews: n})
				}
				sort.Slice(rows, func(i, j int) bool {
					if rows[i].Reviews != rows[j].Reviews {
						return rows[i].Reviews > rows[j].Reviews
					}
					return rows[i].ID < rows[j].ID
				})
				if limit > 0 && len(rows) > limit {
					rows = rows[:limit]
				}
				return writeOut(cmd, app, rows)
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many items (0 = all)")
	return cmd
}

type historyRows []model.Checkpoint

func (r historyRows) Header() []string { return []string{"#", "SEARCH", "QID"} }

func (r historyRows) Rows() [][]string {
	out := make([][]string, 0, len(r))
	for i, c := range r {
		search := c.Search
		if search == "" {
			search = "(all)"
		}
		out = append(out, []string{strconv.Itoa(i + 1), search, c.ID})
	}
	return out
}

func newHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the back-navigation history, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.withEnv(cmd.Context(), func(e *env) error {
				return writeOut(cmd, app, historyRows(e.state.History))
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
}

type backResult struct {
	Search  string `json:"search"`
	ID      string `json:"qid"`
	Title   string `json:"title,omitempty"`
	History int    `json:"history"`
}

func (r backResult) String() string {
	search := r.Search
	if search == "" {
		search = "(all)"
	}
	return "search " + search + " · " + r.ID + " " + r.Title
}

// controller restores the stored session over items the way the review UI
// does on startup.
func (e *env) controller(items []model.Item) *nav.Controller {
	st := itemstore.New()
	st.Load(items)
	sess := &nav.Session{
		Current:   e.state.CurrentID,
		Predicate: model.Predicate{Search: model.NormalizeSearch(e.state.Search)},
		Sorted:    e.state.Sorted,
		History:   e.state.History,
		Flagged:   model.NewIDSet(e.state.Flagged...),
		Hidden:    model.NewIDSet(e.state.Hidden...),
	}
	ctrl := nav.New(st, sess, nav.Config{
		Persister:   e.prefs,
		Logger:      e.log.Slog(),
		Progress:    e.state.Progress,
		ReviewBatch: e.cfg.ReviewBatch,
	})
	ctrl.Start()
	return ctrl
}

func runBack(ctx context.Context, app *App, e *env) (backResult, error) {
	test, err := e.test(app.Test)
	if err != nil {
		return backResult{}, err
	}
	items, err := e.items(ctx, test)
	if err != nil {
		return backResult{}, err
	}
	ctrl := e.controller(items)
	ctrl.NavigateBack()
	if err := ctrl.Flush(); err != nil {
		return backResult{}, err
	}
	sess := ctrl.Session()
	res := backResult{Search: sess.Predicate.Search, ID: sess.Current, History: len(sess.History)}
	if it, ok := ctrl.Current(); ok {
		res.Title = it.Title
	}
	return res, nil
}

func newBackCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "back",
		Short: "Restore the previous search and the item that was current there",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.withEnv(cmd.Context(), func(e *env) error {
				res, err := runBack(cmd.Context(), app, e)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, res)
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
}
