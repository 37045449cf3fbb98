package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/metagit/mgit/internal/config"
	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/logging"
)

// CLI represents the command-line interface structure
type CLI struct {
	Version     kong.VersionFlag `help:"Show version information"`
	Debug       bool             `help:"Enable debug logging to file" env:"MGIT_DEBUG"`
	DebugFile   string           `help:"Custom path for debug log file (disables automatic cleanup)" env:"MGIT_DEBUG_FILE"`
	MaxLogFiles int              `help:"Maximum number of log files to keep (0 = unlimited)" default:"1000" env:"MGIT_MAX_LOG_FILES"`
	Config      string           `help:"Path to the project config file (default: searched upwards from the working directory)" type:"path" env:"MGIT_CONFIG"`

	Init     InitCmd     `cmd:"init" help:"Create a project config from the repositories in a directory"`
	Refresh  RefreshCmd  `cmd:"refresh" help:"Synchronize cached branch ownership for every repository"`
	Status   StatusCmd   `cmd:"status" help:"Show cached repository status"`
	Repair   RepairCmd   `cmd:"repair" help:"Detect and discard corrupted refs in every repository"`
	Authors  AuthorsCmd  `cmd:"authors" help:"List contributors and their aliases"`
	Settings SettingsCmd `cmd:"settings" help:"Manage settings (meta)"`

	// Internal fields (not flags)
	Container        *Container                                      `kong:"-"`
	containerFactory func(*config.ProjectConfig) (*Container, error) `kong:"-"`
	out              io.Writer                                       `kong:"-"`
	settings         *config.Settings                                `kong:"-"`
}

// SetSettings sets the settings on the CLI struct
func (c *CLI) SetSettings(settings *config.Settings) {
	c.settings = settings
}

// AfterApply initializes logging after CLI parsing, applies settings and
// wires the container for commands that work on the project
func (c *CLI) AfterApply(kctx *kong.Context) error {
	// Precedence: CLI flags and env vars (via kong) > settings.json > defaults
	if c.settings != nil {
		if c.MaxLogFiles == logging.DefaultMaxLogFiles && c.settings.MaxLogFiles != nil {
			c.MaxLogFiles = *c.settings.MaxLogFiles
		}
		if !c.Debug && c.settings.Debug != nil && *c.settings.Debug {
			c.Debug = true
		}
	}

	if _, err := logging.Initialize(c.Debug, c.DebugFile, c.MaxLogFiles); err != nil {
		return err
	}

	// init creates the project config; settings works without one
	command := kctx.Command()
	if strings.HasPrefix(command, "settings") || strings.HasPrefix(command, "init") {
		return nil
	}

	project, err := c.loadProjectConfig()
	if err != nil {
		return err
	}

	// Container is created after logging so gorm's logger has a live slog target
	return c.openContainer(project)
}

func (c *CLI) openContainer(project *config.ProjectConfig) error {
	factory := c.containerFactory
	if factory == nil {
		factory = NewContainer
	}
	container, err := factory(project)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	c.Container = container
	return nil
}

func (c *CLI) loadProjectConfig() (*config.ProjectConfig, error) {
	if c.Config != "" {
		return config.LoadProjectConfig(c.Config)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	project, err := config.DiscoverProjectConfig(wd)
	if errors.Is(err, domain.ErrConfigNotFound) {
		return nil, fmt.Errorf("%w (create %s or pass --config)", err, config.ProjectConfigNames[0])
	}
	return project, err
}

// Close closes all resources held by the CLI
func (c *CLI) Close() error {
	if c.Container != nil {
		return c.Container.Close()
	}
	return nil
}

func (c *CLI) stdout() io.Writer {
	if c.out != nil {
		return c.out
	}
	return os.Stdout
}
