package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	adaptergit "github.com/metagit/mgit/internal/adapters/git"
	"github.com/metagit/mgit/internal/config"
	"github.com/metagit/mgit/internal/logging"
	"github.com/metagit/mgit/internal/services"
	"github.com/metagit/mgit/internal/theme"
)

// InitCmd creates a project config listing the repositories found in a directory
type InitCmd struct {
	Dir       string `arg:"" optional:"" help:"Workspace directory to scan (default: working directory)" type:"path"`
	NoRefresh bool   `help:"Only write the config file, skip the initial refresh"`
}

// Run executes the init command
func (i *InitCmd) Run(cli *CLI) error {
	dir := i.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	logging.Logger.Debug("Executing init command", "dir", dir, "no_refresh", i.NoRefresh)

	out := cli.stdout()
	for _, name := range config.ProjectConfigNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(out, "Configuration file already exists at %s\n", path)
			return nil
		}
	}

	fmt.Fprintf(out, "Scanning %s for git repositories...\n", dir)
	found, err := services.NewDiscoveryService(adaptergit.NewOpener()).Discover(dir)
	if err != nil {
		return err
	}

	var repos []config.RepositoryConfig
	for _, d := range found {
		name := theme.Render(theme.RepoStyle, d.Name)
		if d.Err != nil {
			fmt.Fprintf(out, "  %s %s: %s\n", theme.Render(theme.WarningStyle, "!"), name, d.Err)
			continue
		}
		fmt.Fprintf(out, "  %s %s (%s)\n", theme.Render(theme.SuccessStyle, "+"), name, d.URL)
		repos = append(repos, config.RepositoryConfig{Name: d.Name, URL: d.URL})
	}

	if len(repos) == 0 {
		fmt.Fprintln(out, "No git repositories with an origin remote found.")
	} else {
		noun := "repositories"
		if len(repos) == 1 {
			noun = "repository"
		}
		fmt.Fprintf(out, "Found %d %s.\n", len(repos), noun)
	}

	project, err := config.CreateProjectConfig(dir, repos)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Configuration saved to %s\n", project.Path)

	if len(repos) == 0 || i.NoRefresh {
		return nil
	}

	if err := cli.openContainer(project); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return (&RefreshCmd{}).Run(cli)
}
