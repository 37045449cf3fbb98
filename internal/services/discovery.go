package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/logging"
	"github.com/metagit/mgit/internal/ports"
)

// DiscoveredRepository is a checkout found in a workspace directory
type DiscoveredRepository struct {
	Err  error // Set when the checkout cannot be tracked (no origin remote)
	Name string
	Path string
	URL  string
}

// DiscoveryService finds repositories to track in a new workspace
type DiscoveryService struct {
	vcs ports.VCSOpener
}

// NewDiscoveryService creates a new DiscoveryService
func NewDiscoveryService(vcs ports.VCSOpener) *DiscoveryService {
	return &DiscoveryService{vcs: vcs}
}

// Discover inspects the immediate subdirectories of dir, in name order.
// Directories that are not repositories are ignored; repositories without an
// origin URL are returned with Err set.
func (s *DiscoveryService) Discover(dir string) ([]DiscoveredRepository, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var found []DiscoveredRepository
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		repo, err := s.vcs.Open(path)
		if err != nil {
			if !errors.Is(err, domain.ErrNotGitRepository) {
				logging.Logger.Warn("Failed to open candidate repository", "path", path, "error", err)
			}
			continue
		}

		discovered := DiscoveredRepository{Name: entry.Name(), Path: path}
		discovered.URL, discovered.Err = repo.OriginURL()
		found = append(found, discovered)
	}

	logging.Logger.Debug("Workspace scanned", "dir", dir, "repositories", len(found))
	return found, nil
}
