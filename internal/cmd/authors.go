package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/metagit/mgit/internal/theme"
)

// AuthorsCmd lists the contributor alias table
type AuthorsCmd struct {
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
}

// Run executes the authors command
func (a *AuthorsCmd) Run(cli *CLI) error {
	entries := cli.Container.ProjectConfig.Aliases.Entries()
	out := cli.stdout()

	if a.Format == "json" {
		users := make(map[string][]string, len(entries))
		for _, entry := range entries {
			users[entry.Canonical] = entry.Aliases
		}
		data, err := json.MarshalIndent(users, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No contributors configured. Run refresh to collect them from commit history.")
		return nil
	}

	width := 0
	for _, entry := range entries {
		width = max(width, len(entry.Canonical))
	}
	for _, entry := range entries {
		fmt.Fprintf(out, "%s  %s\n",
			theme.Render(theme.OwnerStyle, fmt.Sprintf("%-*s", width, entry.Canonical)),
			theme.Render(theme.MutedStyle, strings.Join(entry.Aliases, ", ")))
	}
	return nil
}
