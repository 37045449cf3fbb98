package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/logging"
	"github.com/metagit/mgit/internal/ports"
)

// BranchStats is the result of walking one branch's unmerged commits
type BranchStats struct {
	CommitStats   map[string]int
	LastCommitSHA string
	LastUpdated   time.Time
}

// CollectBranchStats counts commits per canonical contributor over the commits
// reachable from branchTip but not from the base branch. Base branches
// themselves, and repositories without one, are counted over full history.
// The stats are always recomputed from scratch: the base branch can move, which
// redefines the unmerged set of every other branch.
func CollectBranchStats(repo ports.Repository, aliases *domain.AliasTable, branchName, branchTip string, now time.Time) (BranchStats, error) {
	stats := BranchStats{
		CommitStats:   map[string]int{},
		LastCommitSHA: branchTip,
		LastUpdated:   now,
	}

	var hide []string
	if !domain.IsBaseBranch(branchName) {
		base, ok, err := repo.BaseBranch()
		if err != nil {
			return stats, fmt.Errorf("failed to resolve base branch: %w", err)
		}
		if ok {
			hide = append(hide, base.Tip)
		}
	}

	logging.Logger.Debug("Collecting branch stats", "branch", branchName, "tip", branchTip, "hide", hide)

	first := true
	err := repo.WalkCommits(branchTip, hide, func(commit domain.CommitInfo) error {
		author := resolveAuthor(aliases, commit.AuthorName, commit.AuthorEmail)
		stats.CommitStats[author]++

		if first {
			stats.LastCommitSHA = commit.SHA
			stats.LastUpdated = commit.When.UTC()
			first = false
		}
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrStopWalk) {
		return stats, fmt.Errorf("failed to walk branch %s: %w", branchName, err)
	}

	return stats, nil
}

// resolveAuthor normalizes the author name, retrying with the email when the
// name is not known to the alias table. Identities unknown by both keep the raw name.
func resolveAuthor(aliases *domain.AliasTable, name, email string) string {
	if name == "" {
		name = domain.UnknownUser
	}
	normalized := aliases.Normalize(name)
	if normalized != name || email == "" {
		return normalized
	}
	if byEmail := aliases.Normalize(email); byEmail != email {
		return byEmail
	}
	return name
}
