package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/logging"
	"github.com/metagit/mgit/internal/services"
	"github.com/metagit/mgit/internal/theme"
)

// DefaultWorkers is the sync parallelism used when neither flag nor settings set it
const DefaultWorkers = 4

var actionLabels = map[domain.SyncAction]string{
	domain.SyncActionBranchRefresh: "branch refreshed",
	domain.SyncActionFullRefresh:   "full refresh",
	domain.SyncActionHeadless:      "headless",
	domain.SyncActionSkipped:       "skipped",
	domain.SyncActionSwitched:      "switched branch",
	domain.SyncActionUnchanged:     "up to date",
}

// RefreshCmd synchronizes the state cache with every tracked repository
type RefreshCmd struct {
	NoAuthors bool `help:"Do not record newly seen author identities in the project config"`
	Workers   int  `help:"Repositories processed in parallel (0 = settings or default)" short:"w" env:"MGIT_WORKERS"`
}

// Run executes the refresh command
func (r *RefreshCmd) Run(cli *CLI) error {
	workers := r.Workers
	if workers == 0 && cli.settings != nil && cli.settings.Workers != nil {
		workers = *cli.settings.Workers
	}
	if workers == 0 {
		workers = DefaultWorkers
	}

	project := cli.Container.ProjectConfig
	repos := project.TrackedRepositories()
	logging.Logger.Debug("Executing refresh command", "repositories", len(repos), "workers", workers, "no_authors", r.NoAuthors)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := cli.Container.SyncService.Synchronize(ctx, services.SyncParams{
		Aliases:        project.Aliases,
		CollectAuthors: !r.NoAuthors,
		Repositories:   repos,
		Workers:        workers,
	})
	if report == nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	out := cli.stdout()
	printSyncReport(out, report)

	if report.AliasesAdded > 0 {
		if err := project.Save(); err != nil {
			return fmt.Errorf("failed to save project config: %w", err)
		}
		fmt.Fprintf(out, "Added %d author identities to %s\n", report.AliasesAdded, project.Path)
	}

	if err != nil {
		return fmt.Errorf("synchronization interrupted: %w", err)
	}
	if report.ErrorCount > 0 {
		return fmt.Errorf("%d of %d repositories failed to refresh", report.ErrorCount, len(report.Results))
	}
	return nil
}

func printSyncReport(out io.Writer, report *domain.SyncReport) {
	width := 0
	for _, result := range report.Results {
		width = max(width, len(result.Name))
	}

	for _, result := range report.Results {
		name := theme.Render(theme.RepoStyle, fmt.Sprintf("%-*s", width, result.Name))
		if result.Err != nil {
			fmt.Fprintf(out, "  %s %s  %s\n",
				theme.Render(theme.ErrorStyle, "✗"), name,
				theme.Render(theme.ErrorStyle, result.Err.Error()))
		} else {
			fmt.Fprintf(out, "  %s %s  %s %s\n",
				theme.Render(theme.SuccessStyle, "✓"), name,
				actionLabels[result.Action],
				theme.Render(theme.MutedStyle, fmt.Sprintf("(%d branches, %d commits)", result.Branches, result.Commits)))
		}
		printRepairNotices(out, "      ", result.Repair)
	}

	fmt.Fprintln(out)
	summary := fmt.Sprintf("Refreshed %d repositories: %d ok, %d failed, %d repaired",
		len(report.Results), report.SuccessCount, report.ErrorCount, report.RepairCount)
	if report.ErrorCount > 0 {
		fmt.Fprintln(out, theme.Render(theme.WarningStyle, summary))
	} else {
		fmt.Fprintln(out, theme.Render(theme.HeaderStyle, summary))
	}
}

func printRepairNotices(out io.Writer, indent string, result *domain.RepairResult) {
	if result == nil {
		return
	}

	if result.HasFixes() {
		var fixes []string
		if result.FixedFetchHead {
			fixes = append(fixes, "removed corrupted FETCH_HEAD")
		}
		if n := len(result.RemovedCorruptedRefs); n > 0 {
			fixes = append(fixes, fmt.Sprintf("removed %d corrupted refs (%s)", n, strings.Join(result.RemovedCorruptedRefs, ", ")))
		}
		fmt.Fprintf(out, "%s%s %s\n", indent, theme.Render(theme.WarningStyle, "repaired:"), strings.Join(fixes, "; "))
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(out, "%s%s %s\n", indent, theme.Render(theme.WarningStyle, "warning:"), warning)
	}
	for _, finding := range result.FsckErrors {
		fmt.Fprintf(out, "%s%s %s\n", indent, theme.Render(theme.ErrorStyle, "fsck:"), finding)
	}
}
