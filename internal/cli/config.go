package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"eoreview/internal/config"
)

type configView struct {
	Path   string         `json:"path"`
	Config *config.Config `json:"config"`
}

func (v configView) String() string {
	c := v.Config
	var b strings.Builder
	fmt.Fprintf(&b, "path          %s\n", v.Path)
	fmt.Fprintf(&b, "content_dir   %s\n", c.ContentDir)
	fmt.Fprintf(&b, "data_dir      %s\n", c.DataDir)
	fmt.Fprintf(&b, "default_test  %s\n", c.DefaultTest)
	fmt.Fprintf(&b, "log_level     %s\n", c.LogLevel)
	fmt.Fprintf(&b, "theme         %s\n", c.Theme)
	fmt.Fprintf(&b, "debounce_ms   %d\n", c.DebounceMS)
	fmt.Fprintf(&b, "overscan      %d\n", c.Overscan)
	fmt.Fprintf(&b, "review_batch  %d\n", c.ReviewBatch)
	fmt.Fprintf(&b, "smooth_scroll %t\n", c.SmoothScroll)
	fmt.Fprintf(&b, "remote.url    %s", c.Remote.URL)
	return b.String()
}

// redacted hides secrets before printing.
func redacted(c *config.Config) *config.Config {
	out := *c
	if out.Remote.Token != "" {
		out.Remote.Token = "********"
	}
	if out.Keys.Key1 != "" {
		out.Keys.Key1 = "********"
	}
	if out.Keys.Key2 != "" {
		out.Keys.Key2 = "********"
	}
	return &out
}

// setConfigValue assigns one dotted key. Values are normalized afterwards.
func setConfigValue(c *config.Config, key, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	}
	var err error
	switch key {
	case "content_dir":
		c.ContentDir = value
	case "data_dir":
		c.DataDir = value
	case "default_test":
		c.DefaultTest = value
	case "log_level":
		c.LogLevel = value
	case "theme":
		c.Theme = value
	case "debounce_ms":
		c.DebounceMS, err = atoi()
	case "overscan":
		c.Overscan, err = atoi()
	case "review_batch":
		c.ReviewBatch, err = atoi()
	case "smooth_scroll":
		c.SmoothScroll, err = strconv.ParseBool(value)
	case "remote.url":
		c.Remote.URL = value
	case "remote.token":
		c.Remote.Token = value
	case "remote.timeout_seconds":
		c.Remote.TimeoutSeconds, err = atoi()
	case "remote.client_version":
		c.Remote.ClientVersion = value
	default:
		return errNotFound("config key", key)
	}
	if err != nil {
		return err
	}
	c.Normalize()
	return nil
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit config.toml",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective config (secrets redacted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.resolveConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg, err := config.Load(path)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, configView{Path: path, Config: redacted(cfg)})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one config value (e.g. theme dark, remote.url https://...)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.resolveConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg, err := config.Load(path)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := setConfigValue(cfg, strings.TrimSpace(args[0]), strings.TrimSpace(args[1])); err != nil {
				return writeErr(cmd, err)
			}
			if err := config.Save(path, cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, configView{Path: path, Config: redacted(cfg)})
		},
	})
	return cmd
}
