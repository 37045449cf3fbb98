package domain

import (
	"sort"
	"time"
)

// Current branch sentinels for repositories without a checked out branch
const (
	DetachedBranch = "(detached)"
	NoBranch       = "(no branch)"
)

// BaseBranchNames lists the trunk branch names in lookup order
var BaseBranchNames = []string{"master", "main"}

// IsBaseBranch reports whether name is one of the trunk branch names
func IsBaseBranch(name string) bool {
	for _, base := range BaseBranchNames {
		if name == base {
			return true
		}
	}
	return false
}

// IsHeadless reports whether the current branch value is a detached/unborn sentinel
func IsHeadless(branch string) bool {
	return branch == DetachedBranch || branch == NoBranch || branch == ""
}

// TrackedRepository is a configured repository resolved to a local path
type TrackedRepository struct {
	Name string
	Path string
}

// BranchInfo holds cached activity and ownership data for one local branch
type BranchInfo struct {
	CommitStats   map[string]int // Canonical contributor -> unmerged commit count
	LastCommitSHA string         // Change detector, not a walk cursor
	LastUpdated   time.Time
	Name          string
	Owner         string
}

// CalculateOwner derives the owner label from the branch commit stats
func (b BranchInfo) CalculateOwner() string {
	return CalculateOwner(b.CommitStats)
}

// OwnerCommitCount returns the primary author's commit count
func (b BranchInfo) OwnerCommitCount() int {
	return OwnerCommitCount(b.CommitStats)
}

// TotalCommits returns the number of unmerged commits counted for the branch
func (b BranchInfo) TotalCommits() int {
	total := 0
	for _, count := range b.CommitStats {
		total += count
	}
	return total
}

// HasCommitsBy reports whether contributor has at least one counted commit
func (b BranchInfo) HasCommitsBy(contributor string) bool {
	return b.CommitStats[contributor] > 0
}

// Clone returns a deep copy of the branch info
func (b BranchInfo) Clone() BranchInfo {
	stats := make(map[string]int, len(b.CommitStats))
	for name, count := range b.CommitStats {
		stats[name] = count
	}
	b.CommitStats = stats
	return b
}

// RepositoryState is the last known snapshot of one tracked repository.
// Branches are kept sorted by LastUpdated, most recent first.
type RepositoryState struct {
	Branches      []BranchInfo
	CurrentBranch string
	LastUpdated   time.Time
	Name          string
}

// NewRepositoryState creates an empty state for a repository
func NewRepositoryState(name string) *RepositoryState {
	return &RepositoryState{
		Branches: []BranchInfo{},
		Name:     name,
	}
}

// Clone returns a deep copy of the state
func (s *RepositoryState) Clone() *RepositoryState {
	clone := *s
	clone.Branches = make([]BranchInfo, len(s.Branches))
	for i, branch := range s.Branches {
		clone.Branches[i] = branch.Clone()
	}
	return &clone
}

// Branch returns the cached info for a branch name
func (s *RepositoryState) Branch(name string) (BranchInfo, bool) {
	for _, branch := range s.Branches {
		if branch.Name == name {
			return branch, true
		}
	}
	return BranchInfo{}, false
}

// CurrentBranchInfo returns the cached info for the checked out branch
func (s *RepositoryState) CurrentBranchInfo() (BranchInfo, bool) {
	if IsHeadless(s.CurrentBranch) {
		return BranchInfo{}, false
	}
	return s.Branch(s.CurrentBranch)
}

// ReplaceBranch drops any entry with the same name and adds the fresh one
func (s *RepositoryState) ReplaceBranch(info BranchInfo, now time.Time) {
	kept := make([]BranchInfo, 0, len(s.Branches)+1)
	for _, branch := range s.Branches {
		if branch.Name != info.Name {
			kept = append(kept, branch)
		}
	}
	s.Branches = append(kept, info)
	s.SortBranches()
	s.RefreshLastUpdated(now)
}

// SetBranches replaces the whole branch collection
func (s *RepositoryState) SetBranches(branches []BranchInfo, now time.Time) {
	s.Branches = branches
	s.SortBranches()
	s.RefreshLastUpdated(now)
}

// SortBranches orders branches by LastUpdated descending, then by name
func (s *RepositoryState) SortBranches() {
	sort.SliceStable(s.Branches, func(i, j int) bool {
		if !s.Branches[i].LastUpdated.Equal(s.Branches[j].LastUpdated) {
			return s.Branches[i].LastUpdated.After(s.Branches[j].LastUpdated)
		}
		return s.Branches[i].Name < s.Branches[j].Name
	})
}

// RefreshLastUpdated sets LastUpdated to the most recent branch timestamp, or now without branches
func (s *RepositoryState) RefreshLastUpdated(now time.Time) {
	if len(s.Branches) == 0 {
		s.LastUpdated = now
		return
	}
	latest := s.Branches[0].LastUpdated
	for _, branch := range s.Branches[1:] {
		if branch.LastUpdated.After(latest) {
			latest = branch.LastUpdated
		}
	}
	s.LastUpdated = latest
}

// TotalCommits sums the unmerged commits counted across all branches
func (s *RepositoryState) TotalCommits() int {
	total := 0
	for _, branch := range s.Branches {
		total += branch.TotalCommits()
	}
	return total
}
