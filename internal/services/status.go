package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/logging"
	"github.com/metagit/mgit/internal/ports"
)

// DefaultStaleDays is how far back the detailed view looks for branch activity
const DefaultStaleDays = 30

// StatusView selects how cached states are filtered for display
type StatusView int

const (
	// StatusViewDefault keeps repositories where the current user has commits on the checked out branch
	StatusViewDefault StatusView = iota
	// StatusViewDetailed keeps branches active within the stale window
	StatusViewDetailed
	// StatusViewAll disables filtering
	StatusViewAll
)

// StatusParams configures a status read
type StatusParams struct {
	Aliases      *domain.AliasTable
	Repositories []domain.TrackedRepository
	StaleDays    int
	View         StatusView
}

// RepoStatus is one repository as shown by the status command
type RepoStatus struct {
	Err      error
	Snapshot bool // State was read live because the cache had no entry
	State    *domain.RepositoryState
}

// StatusService reads cached repository state for display
type StatusService struct {
	clock func() time.Time
	store ports.StateStore
	vcs   ports.VCSOpener
}

// NewStatusService creates a new StatusService
func NewStatusService(store ports.StateStore, vcs ports.VCSOpener) *StatusService {
	return &StatusService{
		clock: func() time.Time { return time.Now().UTC() },
		store: store,
		vcs:   vcs,
	}
}

// GetCachedState returns the cached state of a repository, or nil when absent
func (s *StatusService) GetCachedState(ctx context.Context, name string) (*domain.RepositoryState, error) {
	state, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get cached state for %s: %w", name, err)
	}
	return state, nil
}

// Status loads every repository state and filters it for the requested view.
// Results are ordered by LastUpdated, most recent first.
func (s *StatusService) Status(ctx context.Context, params StatusParams) ([]RepoStatus, error) {
	statuses := s.LoadStates(ctx, params.Repositories, params.Aliases)

	var loaded []RepoStatus
	for _, status := range statuses {
		if status.Err != nil {
			logging.Logger.Warn("Skipping repository in status", "error", status.Err)
			continue
		}
		loaded = append(loaded, status)
	}

	sort.SliceStable(loaded, func(i, j int) bool {
		return loaded[i].State.LastUpdated.After(loaded[j].State.LastUpdated)
	})

	switch params.View {
	case StatusViewAll:
		return loaded, nil
	case StatusViewDetailed:
		staleDays := params.StaleDays
		if staleDays <= 0 {
			staleDays = DefaultStaleDays
		}
		return FilterActiveBranches(loaded, s.clock().AddDate(0, 0, -staleDays)), nil
	default:
		user, err := s.currentUser(params.Aliases)
		if err != nil {
			// Without a configured user there is nothing to filter by
			logging.Logger.Warn("Current user unavailable, showing all repositories", "error", err)
			return loaded, nil
		}
		return FilterByContributor(loaded, user), nil
	}
}

// LoadStates returns the cached state of each repository in input order. Repositories
// without a cache entry are read live into a light snapshot (no commit stats) which
// is saved so the next read is served from the cache.
func (s *StatusService) LoadStates(ctx context.Context, repos []domain.TrackedRepository, aliases *domain.AliasTable) []RepoStatus {
	statuses := make([]RepoStatus, 0, len(repos))
	for _, tracked := range repos {
		if _, err := os.Stat(tracked.Path); err != nil {
			statuses = append(statuses, RepoStatus{
				Err:   fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, tracked.Name),
				State: domain.NewRepositoryState(tracked.Name),
			})
			continue
		}

		state, err := s.store.Get(ctx, tracked.Name)
		if err != nil {
			logging.Logger.Warn("Failed to read cached state", "repository", tracked.Name, "error", err)
		}
		if state != nil {
			statuses = append(statuses, RepoStatus{State: state})
			continue
		}

		state, err = s.Snapshot(tracked, aliases)
		if err != nil {
			statuses = append(statuses, RepoStatus{
				Err:   fmt.Errorf("failed to read repository %s: %w", tracked.Name, err),
				State: domain.NewRepositoryState(tracked.Name),
			})
			continue
		}
		if err := s.store.Save(ctx, *state); err != nil {
			logging.Logger.Warn("Failed to save snapshot", "repository", tracked.Name, "error", err)
		}
		statuses = append(statuses, RepoStatus{Snapshot: true, State: state})
	}
	return statuses
}

// Snapshot reads branch names and tip commit times without walking history.
// Every branch is attributed to the configured user.
func (s *StatusService) Snapshot(tracked domain.TrackedRepository, aliases *domain.AliasTable) (*domain.RepositoryState, error) {
	repo, err := s.vcs.Open(tracked.Path)
	if err != nil {
		return nil, err
	}

	current, err := repo.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("failed to read current branch: %w", err)
	}

	branches, err := repo.LocalBranches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	owners := &ownerResolver{aliases: aliases, repo: repo}
	now := s.clock()

	infos := make([]domain.BranchInfo, 0, len(branches))
	for _, branch := range branches {
		updated := now
		err := repo.WalkCommits(branch.Tip, nil, func(commit domain.CommitInfo) error {
			updated = commit.When.UTC()
			return domain.ErrStopWalk
		})
		if err != nil && !errors.Is(err, domain.ErrStopWalk) {
			return nil, fmt.Errorf("failed to read tip of %s: %w", branch.Name, err)
		}

		infos = append(infos, domain.BranchInfo{
			CommitStats: map[string]int{},
			LastUpdated: updated,
			Name:        branch.Name,
			Owner:       owners.provisional(),
		})
	}

	state := domain.NewRepositoryState(tracked.Name)
	state.CurrentBranch = current
	state.SetBranches(infos, now)
	return state, nil
}

func (s *StatusService) currentUser(aliases *domain.AliasTable) (string, error) {
	name, err := s.vcs.GlobalUserName()
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", domain.ErrUserNotConfigured
	}
	return aliases.Normalize(name), nil
}

// FilterByContributor keeps repositories whose checked out branch has commits by contributor
func FilterByContributor(statuses []RepoStatus, contributor string) []RepoStatus {
	var filtered []RepoStatus
	for _, status := range statuses {
		current, ok := status.State.CurrentBranchInfo()
		if ok && current.HasCommitsBy(contributor) {
			filtered = append(filtered, status)
		}
	}
	return filtered
}

// FilterActiveBranches drops branches last updated before since, then repositories left without branches
func FilterActiveBranches(statuses []RepoStatus, since time.Time) []RepoStatus {
	var filtered []RepoStatus
	for _, status := range statuses {
		state := status.State.Clone()
		active := make([]domain.BranchInfo, 0, len(state.Branches))
		for _, branch := range state.Branches {
			if branch.LastUpdated.After(since) {
				active = append(active, branch)
			}
		}
		if len(active) == 0 {
			continue
		}
		state.Branches = active
		filtered = append(filtered, RepoStatus{Snapshot: status.Snapshot, State: state})
	}
	return filtered
}
