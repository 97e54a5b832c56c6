package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"eoreview/internal/filter"
	"eoreview/internal/itemstore"
	"eoreview/internal/model"
	"eoreview/internal/richtext"
)

// itemRow is the list representation of an item.
type itemRow struct {
	ID        string `json:"qid"`
	Subject   string `json:"subject"`
	Topic     string `json:"topic,omitempty"`
	Title     string `json:"title"`
	Reviews   int    `json:"reviews"`
	Exhibits  int    `json:"exhibits"`
	Flagged   bool   `json:"flagged"`
	Hidden    bool   `json:"hidden"`
	Completed bool   `json:"completed"`
}

type itemRows []itemRow

func (r itemRows) Header() []string {
	return []string{"QID", "SUBJECT", "TITLE", "REVIEWS", "MARKS"}
}

func (r itemRows) Rows() [][]string {
	out := make([][]string, 0, len(r))
	for _, it := range r {
		var marks []string
		if it.Flagged {
			marks = append(marks, "flagged")
		}
		if it.Hidden {
			marks = append(marks, "hidden")
		}
		if it.Completed {
			marks = append(marks, "completed")
		}
		if it.Exhibits > 0 {
			marks = append(marks, fmt.Sprintf("%d exhibits", it.Exhibits))
		}
		title := it.Title
		if it.Topic != "" && it.Topic != it.Title {
			title = it.Topic + " · " + title
		}
		out = append(out, []string{it.ID, it.Subject, title, strconv.Itoa(it.Reviews), strings.Join(marks, ", ")})
	}
	return out
}

// itemDetail is the full representation printed by show.
type itemDetail struct {
	itemRow
	Test  string   `json:"test"`
	Tags  []string `json:"tags"`
	Body  string   `json:"text"`
	Texts []string `json:"exhibitTexts,omitempty"`
}

func (d itemDetail) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", d.ID, d.Title)
	fmt.Fprintf(&b, "%s\n", strings.Join(d.Tags, " · "))
	fmt.Fprintf(&b, "reviewed %d×", d.Reviews)
	if d.Flagged {
		b.WriteString(" · flagged")
	}
	if d.Hidden {
		b.WriteString(" · hidden")
	}
	b.WriteString("\n\n")
	b.WriteString(d.Body)
	for i, ex := range d.Texts {
		fmt.Fprintf(&b, "\n\nExhibit %d/%d\n%s", i+1, len(d.Texts), ex)
	}
	return b.String()
}

func (e *env) row(it model.Item, completed model.IDSet) itemRow {
	return itemRow{
		ID:        it.ID,
		Subject:   it.SubjectPair(),
		Topic:     it.Topic,
		Title:     it.Title,
		Reviews:   e.state.Progress[it.ID],
		Exhibits:  len(it.Exhibits),
		Flagged:   containsID(e.state.Flagged, it.ID),
		Hidden:    containsID(e.state.Hidden, it.ID),
		Completed: completed.Has(it.ID),
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// completed fetches the remote completed set. It degrades to an empty set.
func (e *env) completed(ctx context.Context, test string) (model.IDSet, bool) {
	if !e.remote.Configured() {
		return model.IDSet{}, false
	}
	ids, err := e.remote.Completed(ctx, test)
	if err != nil {
		e.log.Warn("remote sync", slog.String("test", test), slog.Any("err", err))
		return model.IDSet{}, false
	}
	return ids, true
}

func newListCmd(app *App) *cobra.Command {
	var (
		search     string
		flagged    bool
		completed  bool
		hideHidden bool
		sorted     bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items matching a search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			err := app.withEnv(ctx, func(e *env) error {
				test, err := e.test(app.Test)
				if err != nil {
					return err
				}
				items, err := e.items(ctx, test)
				if err != nil {
					return err
				}
				done, available := e.completed(ctx, test)
				if completed && !available {
					return errors.New("--completed needs a reachable progress service")
				}

				p := model.Predicate{
					Search:        model.NormalizeSearch(search),
					FlagOnly:      flagged,
					CompletedOnly: completed,
					HideHidden:    hideHidden,
				}
				sets := filter.Sets{
					Flagged:   model.NewIDSet(e.state.Flagged...),
					Hidden:    model.NewIDSet(e.state.Hidden...),
					Completed: done,
				}
				view := filter.Apply(itemstore.Build(items), p, sorted, sets)

				rows := make(itemRows, 0, view.Len())
				for _, it := range view.Items() {
					rows = append(rows, e.row(it, done))
				}
				return writeOut(cmd, app, rows)
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive substring over tags, body and exhibits")
	cmd.Flags().BoolVar(&flagged, "flagged", false, "Only flagged items")
	cmd.Flags().BoolVar(&completed, "completed", false, "Only items the progress service reports as completed")
	cmd.Flags().BoolVar(&hideHidden, "hide-hidden", false, "Exclude hidden items")
	cmd.Flags().BoolVar(&sorted, "sorted", false, "Sort by subject, topic attribute, topic and title")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show one item with its exhibits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := strings.TrimSpace(args[0])
			err := app.withEnv(ctx, func(e *env) error {
				test, err := e.test(app.Test)
				if err != nil {
					return err
				}
				items, err := e.items(ctx, test)
				if err != nil {
					return err
				}
				it, ok := itemstore.Build(items).Get(id)
				if !ok {
					return errNotFound("item", id)
				}
				d := itemDetail{
					itemRow: e.row(it, model.IDSet{}),
					Test:    test,
					Tags:    it.Tags(),
					Body:    richtext.PlainText(it.Body),
				}
				for _, ex := range it.Exhibits {
					d.Texts = append(d.Texts, richtext.PlainText(string(ex)))
				}
				return writeOut(cmd, app, d)
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
}
