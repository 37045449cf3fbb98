package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/logging"
	"github.com/metagit/mgit/internal/services"
	"github.com/metagit/mgit/internal/theme"
)

// StatusCmd prints cached repository state
type StatusCmd struct {
	All       bool `help:"Show every repository and branch without filtering" short:"a" xor:"view"`
	Detailed  bool `help:"List branches active within the stale window" short:"d" xor:"view"`
	StaleDays int  `help:"Days without commits after which a branch is hidden in the detailed view (0 = settings or 30)" env:"MGIT_STALE_DAYS"`
}

// Run executes the status command
func (s *StatusCmd) Run(cli *CLI) error {
	view := services.StatusViewDefault
	switch {
	case s.All:
		view = services.StatusViewAll
	case s.Detailed:
		view = services.StatusViewDetailed
	}

	staleDays := s.StaleDays
	if staleDays == 0 && cli.settings != nil && cli.settings.StaleDays != nil {
		staleDays = *cli.settings.StaleDays
	}

	project := cli.Container.ProjectConfig
	logging.Logger.Debug("Executing status command", "view", view, "stale_days", staleDays)

	statuses, err := cli.Container.StatusService.Status(context.Background(), services.StatusParams{
		Aliases:      project.Aliases,
		Repositories: project.TrackedRepositories(),
		StaleDays:    staleDays,
		View:         view,
	})
	if err != nil {
		return fmt.Errorf("failed to load status: %w", err)
	}

	out := cli.stdout()
	if len(statuses) == 0 {
		if view == services.StatusViewDefault {
			fmt.Fprintln(out, "No repositories with your commits on the checked out branch. Use --all to show everything.")
		} else {
			fmt.Fprintln(out, "No repositories to show.")
		}
		return nil
	}

	if view == services.StatusViewDefault {
		printStatusSummary(out, statuses)
	} else {
		printStatusBranches(out, statuses)
	}
	return nil
}

// printStatusSummary prints one line per repository: current branch, its owner and last activity
func printStatusSummary(out io.Writer, statuses []services.RepoStatus) {
	nameWidth, branchWidth := 0, 0
	for _, status := range statuses {
		nameWidth = max(nameWidth, len(status.State.Name))
		branchWidth = max(branchWidth, len(status.State.CurrentBranch))
	}

	for _, status := range statuses {
		state := status.State
		owner := domain.UnknownOwner
		if current, ok := state.CurrentBranchInfo(); ok {
			owner = current.Owner
		}

		fmt.Fprintf(out, "%s  %s  %s  %s%s\n",
			theme.Render(theme.RepoStyle, fmt.Sprintf("%-*s", nameWidth, state.Name)),
			theme.Render(theme.CurrentBranchStyle, fmt.Sprintf("%-*s", branchWidth, state.CurrentBranch)),
			theme.Render(theme.OwnerStyle, owner),
			theme.Render(theme.MutedStyle, theme.RelativeTime(state.LastUpdated)),
			snapshotNote(status))
	}
}

// printStatusBranches prints each repository followed by its branches
func printStatusBranches(out io.Writer, statuses []services.RepoStatus) {
	for i, status := range statuses {
		if i > 0 {
			fmt.Fprintln(out)
		}
		state := status.State
		fmt.Fprintf(out, "%s%s\n", theme.Render(theme.RepoStyle, state.Name), snapshotNote(status))

		branchWidth, ownerWidth := 0, 0
		for _, branch := range state.Branches {
			branchWidth = max(branchWidth, len(branch.Name))
			ownerWidth = max(ownerWidth, len(branch.Owner))
		}

		for _, branch := range state.Branches {
			marker := " "
			name := fmt.Sprintf("%-*s", branchWidth, branch.Name)
			if branch.Name == state.CurrentBranch {
				marker = "*"
				name = theme.Render(theme.CurrentBranchStyle, name)
			}
			fmt.Fprintf(out, "  %s %s  %s  %s  %s\n",
				marker,
				name,
				theme.Render(theme.OwnerStyle, fmt.Sprintf("%-*s", ownerWidth, branch.Owner)),
				theme.Render(theme.MutedStyle, fmt.Sprintf("%4d commits", branch.TotalCommits())),
				theme.Render(theme.MutedStyle, theme.RelativeTime(branch.LastUpdated)))
		}
		if domain.IsHeadless(state.CurrentBranch) {
			fmt.Fprintf(out, "  %s\n", theme.Render(theme.StaleStyle, "HEAD "+state.CurrentBranch))
		}
	}
}

func snapshotNote(status services.RepoStatus) string {
	if !status.Snapshot {
		return ""
	}
	return "  " + theme.Render(theme.MutedStyle, "(not refreshed yet)")
}
