package cmd

import (
	"context"
	"fmt"

	"github.com/metagit/mgit/internal/logging"
	"github.com/metagit/mgit/internal/theme"
)

// RepairCmd runs the repair step over every tracked repository
type RepairCmd struct{}

// Run executes the repair command
func (r *RepairCmd) Run(cli *CLI) error {
	repos := cli.Container.ProjectConfig.TrackedRepositories()
	logging.Logger.Debug("Executing repair command", "repositories", len(repos))

	outcomes := cli.Container.RepairService.RepairAll(context.Background(), repos)

	out := cli.stdout()
	failed := 0
	for _, outcome := range outcomes {
		name := theme.Render(theme.RepoStyle, outcome.Name)
		switch {
		case outcome.Err != nil:
			failed++
			fmt.Fprintf(out, "%s: %s\n", name, theme.Render(theme.ErrorStyle, outcome.Err.Error()))
		case outcome.Result != nil && (outcome.Result.HasFixes() || outcome.Result.NeedsAttention || len(outcome.Result.Warnings) > 0):
			fmt.Fprintf(out, "%s:\n", name)
			printRepairNotices(out, "  ", outcome.Result)
		default:
			fmt.Fprintf(out, "%s: %s\n", name, theme.Render(theme.SuccessStyle, "ok"))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d repositories could not be repaired", failed, len(outcomes))
	}
	return nil
}
