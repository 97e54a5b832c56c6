package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"eoreview/internal/content"
	"eoreview/internal/model"
)

type packResult struct {
	Test       string `json:"test"`
	Items      int    `json:"items"`
	Compressed bool   `json:"compressed"`
	Dir        string `json:"dir"`
}

func (r packResult) String() string {
	return fmt.Sprintf("sealed %d items for %s into %s", r.Items, r.Test, r.Dir)
}

// newPackCmd seals a plaintext item file with the current credentials so it
// can be opened by the review UI.
func newPackCmd(app *App) *cobra.Command {
	var compress bool
	cmd := &cobra.Command{
		Use:   "pack <test> <items.json>",
		Short: "Seal a JSON item array into a content pack",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			test := strings.TrimSpace(args[0])
			if _, ok := model.LookupTestType(test); !ok {
				return writeErr(cmd, errNotFound("test type", test))
			}
			b, err := os.ReadFile(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			var items []model.Item
			if err := json.Unmarshal(b, &items); err != nil {
				return writeErr(cmd, fmt.Errorf("%s: %w", args[1], err))
			}

			err = app.withEnv(cmd.Context(), func(e *env) error {
				sealed, err := content.Seal(items, e.loader.Credentials())
				if err != nil {
					return explain(err)
				}
				src := e.loader.Source()
				if err := src.Write(test, sealed, compress); err != nil {
					return err
				}
				e.loader.Forget(test)
				return writeOut(cmd, app, packResult{Test: test, Items: len(items), Compressed: compress, Dir: src.Dir})
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&compress, "zstd", false, "Write a zstd-compressed pack (<test>.enc.zst)")
	return cmd
}
