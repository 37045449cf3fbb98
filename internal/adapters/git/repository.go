package git

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/logging"
	"github.com/metagit/mgit/internal/ports"
)

// Opener implements ports.VCSOpener on top of go-git
type Opener struct{}

// Verify interface compliance at compile time
var _ ports.VCSOpener = (*Opener)(nil)

// NewOpener creates a new Opener
func NewOpener() *Opener {
	return &Opener{}
}

// GlobalUserName implements VCSOpener.GlobalUserName
func (o *Opener) GlobalUserName() (string, error) {
	cfg, err := config.LoadConfig(config.GlobalScope)
	if err != nil {
		return "", fmt.Errorf("failed to load global git config: %w", err)
	}
	if cfg.User.Name == "" {
		return "", domain.ErrUserNotConfigured
	}
	return cfg.User.Name, nil
}

// Open implements VCSOpener.Open
func (o *Opener) Open(path string) (ports.Repository, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotGitRepository, path)
		}
		return nil, fmt.Errorf("failed to open repository %s: %w", path, err)
	}
	return &Repository{path: path, repo: repo}, nil
}

// Repository implements ports.Repository over an opened go-git repository
type Repository struct {
	path string
	repo *gogit.Repository

	// Ancestry of hiddenTips, reused while callers keep hiding the same tips
	// (or append to them)
	hidden     map[plumbing.Hash]bool
	hiddenTips []string
	mu         sync.Mutex
}

// Verify interface compliance at compile time
var _ ports.Repository = (*Repository)(nil)

// CurrentBranch implements BranchReader.CurrentBranch
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		// Unborn or unreadable HEAD
		logging.Logger.Debug("HEAD not resolvable", "path", r.path, "error", err)
		return domain.NoBranch, nil
	}
	if !head.Name().IsBranch() {
		return domain.DetachedBranch, nil
	}
	return head.Name().Short(), nil
}

// LocalBranches implements BranchReader.LocalBranches
func (r *Repository) LocalBranches() ([]domain.Branch, error) {
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer iter.Close()

	var branches []domain.Branch
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		branches = append(branches, domain.Branch{
			Name: ref.Name().Short(),
			Tip:  ref.Hash().String(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate branches: %w", err)
	}

	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// BranchTip implements BranchReader.BranchTip
func (r *Repository) BranchTip(name string) (string, error) {
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", fmt.Errorf("%w: %s", domain.ErrBranchNotFound, name)
		}
		return "", fmt.Errorf("failed to resolve branch %s: %w", name, err)
	}
	return ref.Hash().String(), nil
}

// BaseBranch implements BranchReader.BaseBranch
func (r *Repository) BaseBranch() (domain.Branch, bool, error) {
	for _, name := range domain.BaseBranchNames {
		tip, err := r.BranchTip(name)
		if errors.Is(err, domain.ErrBranchNotFound) {
			continue
		}
		if err != nil {
			return domain.Branch{}, false, err
		}
		return domain.Branch{Name: name, Tip: tip}, true, nil
	}
	return domain.Branch{}, false, nil
}

// WalkCommits implements CommitWalker.WalkCommits. The ancestry of every hide
// tip is collected first; the walk from `from` then skips anything in that set.
func (r *Repository) WalkCommits(from string, hide []string, fn func(domain.CommitInfo) error) error {
	start, err := r.repo.CommitObject(plumbing.NewHash(from))
	if err != nil {
		return fmt.Errorf("failed to read commit %s: %w", from, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	hidden, err := r.hiddenSet(hide)
	if err != nil {
		return err
	}

	iter := object.NewCommitPreorderIter(start, hidden, nil)
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		return fn(domain.CommitInfo{
			AuthorEmail: c.Author.Email,
			AuthorName:  c.Author.Name,
			SHA:         c.Hash.String(),
			When:        c.Committer.When,
		})
	})
	if err != nil && !errors.Is(err, domain.ErrStopWalk) {
		return err
	}
	return nil
}

// hiddenSet returns the ancestry of hide. The cached set is reused when hide
// equals the cached tips and extended in place when hide only appends to them.
func (r *Repository) hiddenSet(hide []string) (map[plumbing.Hash]bool, error) {
	if len(hide) == 0 {
		return nil, nil
	}

	extra := hide
	if r.hidden != nil && len(hide) >= len(r.hiddenTips) && slices.Equal(hide[:len(r.hiddenTips)], r.hiddenTips) {
		extra = hide[len(r.hiddenTips):]
	} else {
		r.hidden = map[plumbing.Hash]bool{}
		r.hiddenTips = nil
	}

	for _, sha := range extra {
		if err := r.addAncestry(sha); err != nil {
			// Drop the partially extended set
			r.hidden = nil
			r.hiddenTips = nil
			return nil, err
		}
		r.hiddenTips = append(r.hiddenTips, sha)
	}
	return r.hidden, nil
}

func (r *Repository) addAncestry(sha string) error {
	tip, err := r.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return fmt.Errorf("failed to read commit %s: %w", sha, err)
	}

	ancestry := object.NewCommitPreorderIter(tip, r.hidden, nil)
	defer ancestry.Close()

	var reached []plumbing.Hash
	err = ancestry.ForEach(func(c *object.Commit) error {
		reached = append(reached, c.Hash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk ancestry of %s: %w", sha, err)
	}
	for _, hash := range reached {
		r.hidden[hash] = true
	}
	return nil
}

// OriginURL implements Repository.OriginURL
func (r *Repository) OriginURL() (string, error) {
	remote, err := r.repo.Remote("origin")
	if err != nil {
		if errors.Is(err, gogit.ErrRemoteNotFound) {
			return "", fmt.Errorf("%w: origin", domain.ErrRemoteNotFound)
		}
		return "", fmt.Errorf("failed to read remote origin: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 || urls[0] == "" {
		return "", fmt.Errorf("%w: origin has no URL", domain.ErrRemoteNotFound)
	}
	return urls[0], nil
}

// UserName implements Repository.UserName, preferring the repository's own setting
func (r *Repository) UserName() (string, error) {
	cfg, err := r.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return "", fmt.Errorf("failed to read git config: %w", err)
	}
	if cfg.User.Name == "" {
		return "", domain.ErrUserNotConfigured
	}
	return cfg.User.Name, nil
}
