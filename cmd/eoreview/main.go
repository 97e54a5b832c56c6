package main

import (
	"os"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"eoreview/internal/cli"
)

// isItemID accepts any token that is not a command name and contains a
// digit. Item ids are opaque, but all of them carry one.
func isItemID(s string, commands map[string]bool) bool {
	s = strings.TrimSpace(s)
	if s == "" || commands[s] {
		return false
	}
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func commandNames(root *cobra.Command) map[string]bool {
	names := map[string]bool{"help": true, "completion": true}
	for _, c := range root.Commands() {
		names[c.Name()] = true
		for _, a := range c.Aliases {
			names[a] = true
		}
	}
	return names
}

// rewriteDirectItemLookupArgs makes `eoreview <item-id>` work like
// `eoreview show <item-id>`. Cobra treats the first non-flag token as a
// subcommand, so argv is rewritten before parsing. Persistent flags may come
// first, so this finds the first positional token rather than argv[1].
func rewriteDirectItemLookupArgs(argv []string, commands map[string]bool) []string {
	if len(argv) < 2 {
		return argv
	}

	// Flags we don't recognize are skipped without skipping a value, to avoid
	// consuming the item id.
	valueFlags := map[string]bool{
		"--dir":       true,
		"--config":    true,
		"--test":      true,
		"--key1":      true,
		"--key2":      true,
		"--password":  true,
		"--remote":    true,
		"--log-level": true,
		"--format":    true,
		"--search":    true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	rewrite := func(i int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "show")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isItemID(argv[i+1], commands) {
				return rewrite(i + 1)
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}

		if isItemID(a, commands) {
			return rewrite(i)
		}
		return argv
	}
	return argv
}

func main() {
	cmd := cli.NewRootCmd()
	cmd.SetArgs(rewriteDirectItemLookupArgs(os.Args, commandNames(cmd))[1:])
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
