package ports

import "github.com/metagit/mgit/internal/domain"

// VCSOpener opens local repositories for reading
type VCSOpener interface {
	// GlobalUserName returns user.name from the user-level VCS configuration
	GlobalUserName() (string, error)
	Open(path string) (Repository, error)
}

// BranchReader enumerates and resolves branches
type BranchReader interface {
	// BaseBranch returns the first existing trunk branch ("master", then "main")
	BaseBranch() (domain.Branch, bool, error)
	BranchTip(name string) (string, error)
	// CurrentBranch returns the checked out branch or a headless sentinel
	CurrentBranch() (string, error)
	LocalBranches() ([]domain.Branch, error)
}

// CommitWalker walks commit ancestry
type CommitWalker interface {
	// WalkCommits visits every commit reachable from `from` that is not reachable
	// from any commit in hide. The first visited commit is `from` itself unless it
	// is hidden. Returning domain.ErrStopWalk from fn ends the walk without error.
	WalkCommits(from string, hide []string, fn func(domain.CommitInfo) error) error
}

// Repository is the composite read interface over one repository
type Repository interface {
	BranchReader
	CommitWalker
	// OriginURL returns the first URL of the "origin" remote
	OriginURL() (string, error)
	// UserName returns user.name as seen from this repository (local over global)
	UserName() (string, error)
}
