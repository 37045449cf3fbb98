package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/logging"
	"github.com/metagit/mgit/internal/ports"
)

// SyncParams configures one synchronization run
type SyncParams struct {
	Aliases        *domain.AliasTable
	CollectAuthors bool // Record unmapped author identities into Aliases after the batch
	Repositories   []domain.TrackedRepository
	Workers        int // <= 1 processes repositories sequentially
}

// SyncService refreshes the cached state of every tracked repository
type SyncService struct {
	clock    func() time.Time
	repairer ports.Repairer
	store    ports.StateStore
	vcs      ports.VCSOpener
}

// NewSyncService creates a new SyncService
func NewSyncService(store ports.StateStore, vcs ports.VCSOpener, repairer ports.Repairer) *SyncService {
	return &SyncService{
		clock:    func() time.Time { return time.Now().UTC() },
		repairer: repairer,
		store:    store,
		vcs:      vcs,
	}
}

// Synchronize runs a pass over every repository. Per-repository failures are
// counted in the report and never abort the batch.
func (s *SyncService) Synchronize(ctx context.Context, params SyncParams) (*domain.SyncReport, error) {
	if s.store == nil {
		return nil, domain.ErrStoreClosed
	}
	aliases := params.Aliases
	if aliases == nil {
		aliases = domain.NewAliasTable()
	}

	log := logging.Logger.With("run_id", uuid.New().String())
	log.Info("Starting synchronization",
		"repositories", len(params.Repositories),
		"workers", params.Workers,
		"collect_authors", params.CollectAuthors)

	results := make([]domain.RepoSyncResult, len(params.Repositories))
	identities := domain.IdentitySet{}
	var identitiesMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	workers := params.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, tracked := range params.Repositories {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = domain.RepoSyncResult{Action: domain.SyncActionSkipped, Err: err, Name: tracked.Name}
				return nil
			}

			result, found := s.syncRepository(gctx, tracked, aliases, params.CollectAuthors, log)
			results[i] = result

			if len(found) > 0 {
				identitiesMu.Lock()
				identities.Merge(found)
				identitiesMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &domain.SyncReport{Results: results}
	for _, result := range results {
		if result.Err != nil {
			report.ErrorCount++
		} else {
			report.SuccessCount++
		}
		if result.Repair.HasFixes() {
			report.RepairCount++
		}
	}

	// Alias mutations happen here only, after every worker is done
	if params.CollectAuthors {
		for _, identity := range identities.Sorted() {
			if aliases.RecordUnmappedIdentity(identity.Name, identity.Email) {
				report.AliasesAdded++
			}
		}
	}

	log.Info("Synchronization finished",
		"success", report.SuccessCount,
		"errors", report.ErrorCount,
		"repaired", report.RepairCount,
		"aliases_added", report.AliasesAdded)

	return report, ctx.Err()
}

// SyncRepository runs a single repository pass
func (s *SyncService) SyncRepository(ctx context.Context, tracked domain.TrackedRepository, aliases *domain.AliasTable) domain.RepoSyncResult {
	if aliases == nil {
		aliases = domain.NewAliasTable()
	}
	result, _ := s.syncRepository(ctx, tracked, aliases, false, logging.Logger)
	return result
}

func (s *SyncService) syncRepository(ctx context.Context, tracked domain.TrackedRepository, aliases *domain.AliasTable, collectAuthors bool, log *slog.Logger) (domain.RepoSyncResult, domain.IdentitySet) {
	log = log.With("repository", tracked.Name)
	result := domain.RepoSyncResult{Action: domain.SyncActionSkipped, Name: tracked.Name}

	if _, err := os.Stat(tracked.Path); err != nil {
		log.Warn("Repository path not found", "path", tracked.Path, "error", err)
		result.Err = fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, tracked.Path)
		return result, nil
	}

	// Repair is best-effort and must finish before anything reads the repository
	repair, err := s.repairer.Repair(ctx, tracked.Path)
	if err != nil {
		log.Warn("Repair check failed", "error", err)
	} else {
		result.Repair = repair
		if repair.HasFixes() {
			log.Info("Repository repaired",
				"fixed_fetch_head", repair.FixedFetchHead,
				"removed_refs", repair.RemovedCorruptedRefs)
		}
		if repair.NeedsAttention {
			log.Warn("Consistency check reported errors", "fsck_errors", len(repair.FsckErrors))
		}
	}

	previous := s.loadPrevious(ctx, tracked.Name, log)

	repo, err := s.vcs.Open(tracked.Path)
	if err != nil {
		log.Error("Failed to open repository", "error", err)
		result.Err = fmt.Errorf("failed to open repository: %w", err)
		return result, nil
	}

	state, action, err := s.refreshState(repo, tracked.Name, previous, aliases, log)
	if err != nil {
		log.Error("Failed to read repository", "error", err)
		result.Err = err
		return result, nil
	}

	if action != domain.SyncActionUnchanged {
		if err := s.store.Save(ctx, *state); err != nil {
			// The previous snapshot stays in place and is retried next run
			log.Error("Failed to save repository state", "error", err)
			result.Err = fmt.Errorf("failed to save state: %w", err)
			return result, nil
		}
	}

	result.Action = action
	result.Branches = len(state.Branches)
	result.Commits = state.TotalCommits()
	log.Info("Repository synchronized", "action", action, "branches", result.Branches, "commits", result.Commits)

	if !collectAuthors {
		return result, nil
	}
	identities, err := collectIdentities(repo)
	if err != nil {
		log.Warn("Failed to collect author identities", "error", err)
	}
	return result, identities
}

// loadPrevious reads the cached state; read or decode failures count as a cache miss
func (s *SyncService) loadPrevious(ctx context.Context, name string, log *slog.Logger) *domain.RepositoryState {
	previous, err := s.store.Get(ctx, name)
	if err != nil {
		log.Warn("Failed to load cached state, recomputing", "error", err)
		return nil
	}
	if previous == nil {
		log.Debug("No cached state")
	}
	return previous
}

// refreshState decides what must be recomputed and returns the new state.
// SyncActionUnchanged means previous is still valid and nothing should be written.
func (s *SyncService) refreshState(repo ports.Repository, name string, previous *domain.RepositoryState, aliases *domain.AliasTable, log *slog.Logger) (*domain.RepositoryState, domain.SyncAction, error) {
	now := s.clock()

	state := domain.NewRepositoryState(name)
	if previous != nil {
		state = previous.Clone()
		state.Name = name
	}

	current, err := repo.CurrentBranch()
	if err != nil {
		return nil, domain.SyncActionSkipped, fmt.Errorf("failed to read current branch: %w", err)
	}

	if domain.IsHeadless(current) {
		if previous != nil && previous.CurrentBranch == current {
			return previous, domain.SyncActionUnchanged, nil
		}
		log.Debug("Headless repository, skipping stats", "current_branch", current)
		state.CurrentBranch = current
		if previous == nil {
			state.RefreshLastUpdated(now)
		}
		return state, domain.SyncActionHeadless, nil
	}

	owners := &ownerResolver{aliases: aliases, repo: repo}

	base, hasBase, err := repo.BaseBranch()
	if err != nil {
		return nil, domain.SyncActionSkipped, fmt.Errorf("failed to resolve base branch: %w", err)
	}

	fullRefresh := false
	if hasBase {
		cached, ok := domain.BranchInfo{}, false
		if previous != nil {
			cached, ok = previous.Branch(base.Name)
		}
		if !ok || cached.LastCommitSHA == "" || cached.LastCommitSHA != base.Tip {
			log.Info("Base branch changed, recomputing all branches",
				"base", base.Name, "cached_sha", cached.LastCommitSHA, "live_sha", base.Tip)
			fullRefresh = true
		}
	} else if previous == nil {
		fullRefresh = true
	}

	if fullRefresh {
		branches, err := s.computeAllBranches(repo, aliases, owners, now)
		if err != nil {
			return nil, domain.SyncActionSkipped, err
		}
		state.CurrentBranch = current
		state.SetBranches(branches, now)
		return state, domain.SyncActionFullRefresh, nil
	}

	tip, err := repo.BranchTip(current)
	if err != nil {
		return nil, domain.SyncActionSkipped, fmt.Errorf("failed to resolve branch %s: %w", current, err)
	}

	if cached, ok := previous.Branch(current); ok && cached.LastCommitSHA == tip {
		if previous.CurrentBranch == current {
			return previous, domain.SyncActionUnchanged, nil
		}
		state.CurrentBranch = current
		return state, domain.SyncActionSwitched, nil
	}

	log.Info("Current branch changed, recomputing", "branch", current, "live_sha", tip)
	info, err := s.computeBranch(repo, aliases, owners, current, tip, now)
	if err != nil {
		return nil, domain.SyncActionSkipped, err
	}
	state.CurrentBranch = current
	state.ReplaceBranch(info, now)
	return state, domain.SyncActionBranchRefresh, nil
}

func (s *SyncService) computeAllBranches(repo ports.Repository, aliases *domain.AliasTable, owners *ownerResolver, now time.Time) ([]domain.BranchInfo, error) {
	branches, err := repo.LocalBranches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	infos := make([]domain.BranchInfo, 0, len(branches))
	for _, branch := range branches {
		info, err := s.computeBranch(repo, aliases, owners, branch.Name, branch.Tip, now)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *SyncService) computeBranch(repo ports.Repository, aliases *domain.AliasTable, owners *ownerResolver, name, tip string, now time.Time) (domain.BranchInfo, error) {
	stats, err := CollectBranchStats(repo, aliases, name, tip, now)
	if err != nil {
		return domain.BranchInfo{}, err
	}

	info := domain.BranchInfo{
		CommitStats:   stats.CommitStats,
		LastCommitSHA: stats.LastCommitSHA,
		LastUpdated:   stats.LastUpdated,
		Name:          name,
	}
	if len(stats.CommitStats) == 0 {
		info.Owner = owners.provisional()
	} else {
		info.Owner = domain.CalculateOwner(stats.CommitStats)
	}
	return info, nil
}

// ownerResolver resolves the provisional owner of branches without commits of
// their own: the configured VCS user, normalized through the alias table
type ownerResolver struct {
	aliases  *domain.AliasTable
	owner    string
	repo     ports.Repository
	resolved bool
}

func (o *ownerResolver) provisional() string {
	if o.resolved {
		return o.owner
	}
	o.resolved = true
	o.owner = domain.UnknownUser

	userName, err := o.repo.UserName()
	if err != nil || userName == "" {
		if err != nil && !errors.Is(err, domain.ErrUserNotConfigured) {
			logging.Logger.Warn("Failed to read git user name", "error", err)
		}
		return o.owner
	}
	o.owner = o.aliases.Normalize(userName)
	return o.owner
}

// collectIdentities gathers distinct author identities across all local branches
func collectIdentities(repo ports.Repository) (domain.IdentitySet, error) {
	identities := domain.IdentitySet{}

	branches, err := repo.LocalBranches()
	if err != nil {
		return identities, fmt.Errorf("failed to list branches: %w", err)
	}

	var walked []string
	for _, branch := range branches {
		err := repo.WalkCommits(branch.Tip, walked, func(commit domain.CommitInfo) error {
			if commit.AuthorName != "" && commit.AuthorEmail != "" {
				identities.Add(domain.AuthorIdentity{Email: commit.AuthorEmail, Name: commit.AuthorName})
			}
			return nil
		})
		if err != nil {
			return identities, fmt.Errorf("failed to walk branch %s: %w", branch.Name, err)
		}
		walked = append(walked, branch.Tip)
	}
	return identities, nil
}
