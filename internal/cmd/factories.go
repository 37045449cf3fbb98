package cmd

import (
	adaptergit "github.com/metagit/mgit/internal/adapters/git"
	adapterstorage "github.com/metagit/mgit/internal/adapters/storage"
	"github.com/metagit/mgit/internal/config"
	"github.com/metagit/mgit/internal/ports"
	"github.com/metagit/mgit/internal/services"
)

// Container holds all dependencies for the application
type Container struct {
	ProjectConfig *config.ProjectConfig

	// Services
	RepairService *services.RepairService
	StatusService *services.StatusService
	SyncService   *services.SyncService

	// Internal - for cleanup only
	store ports.StateStore
}

// NewContainer creates a new Container with all dependencies wired.
// The state cache lives next to the project config file.
func NewContainer(project *config.ProjectConfig) (*Container, error) {
	store, err := adapterstorage.NewSQLiteStateStoreForDir(project.Dir)
	if err != nil {
		return nil, err
	}

	return newContainer(project, store, adaptergit.NewOpener(), adaptergit.NewRepairer()), nil
}

func newContainer(project *config.ProjectConfig, store ports.StateStore, vcs ports.VCSOpener, repairer ports.Repairer) *Container {
	return &Container{
		ProjectConfig: project,
		RepairService: services.NewRepairService(repairer),
		StatusService: services.NewStatusService(store, vcs),
		SyncService:   services.NewSyncService(store, vcs, repairer),
		store:         store,
	}
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
