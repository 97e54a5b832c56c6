package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"eoreview/internal/format"
)

type App struct {
	Dir        string
	ConfigPath string
	Test       string
	Key1       string
	Key2       string
	Password   string
	RemoteURL  string
	LogLevel   string
	PrettyJSON bool
	Format     string

	// Search is the TUI startup search.
	Search string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "eoreview",
		Short:        "Review educational objectives in the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive review UI
  eoreview --password ... --key1 ... --key2 ...

  # Start on a test type with a search applied
  eoreview --test s2 --search "anion gap"

  # Scriptable commands
  eoreview list --flagged --format text

  # Direct item lookup (shortcut for: eoreview show <item-id>)
  eoreview 12345
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.Dir, "dir", envOr("EOREVIEW_DIR", ""), "Path to the data dir (default: discovered .eoreview, else ~/.eoreview)")
	pf.StringVar(&app.ConfigPath, "config", envOr("EOREVIEW_CONFIG", ""), "Path to config.toml")
	pf.StringVar(&app.Test, "test", envOr("EOREVIEW_TEST", ""), "Test type to open (s1|s2|bar)")
	pf.StringVar(&app.Key1, "key1", envOr("EOREVIEW_KEY1", ""), "Registry key 1 (stored for next time)")
	pf.StringVar(&app.Key2, "key2", envOr("EOREVIEW_KEY2", ""), "Registry key 2 (stored for next time)")
	pf.StringVar(&app.Password, "password", envOr("EOREVIEW_PASSWORD", ""), "Session password for the content packs")
	pf.StringVar(&app.RemoteURL, "remote", envOr("EOREVIEW_REMOTE_URL", ""), "Progress service base URL (overrides config)")
	pf.StringVar(&app.LogLevel, "log-level", envOr("EOREVIEW_LOG_LEVEL", ""), "Log level (debug|info|warn|error)")
	pf.BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	pf.StringVar(&app.Format, "format", envOr("EOREVIEW_FORMAT", "json"), "Output format (json|edn|text)")

	cmd.Flags().StringVar(&app.Search, "search", "", "Search applied after the content loads")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newMarkCmds(app)...)
	cmd.AddCommand(newProgressCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newBackCmd(app))
	cmd.AddCommand(newTestsCmd(app))
	cmd.AddCommand(newUseCmd(app))
	cmd.AddCommand(newPermitCmd(app))
	cmd.AddCommand(newKeysCmd(app))
	cmd.AddCommand(newSyncCmd(app))
	cmd.AddCommand(newPackCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeOut wraps v in a {"data": ...} envelope for json and edn. Text output
// writes v as is.
func writeOut(cmd *cobra.Command, app *App, v any) error {
	if strings.EqualFold(app.Format, format.Text) {
		return format.WriteText(cmd.OutOrStdout(), v)
	}
	return format.Write(cmd.OutOrStdout(), map[string]any{"data": v}, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
