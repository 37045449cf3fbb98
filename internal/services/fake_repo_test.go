package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/ports"
)

// fakeCommit is a node of the in-memory commit graph
type fakeCommit struct {
	email   string
	name    string
	parents []string
	when    time.Time
}

// fakeRepo is an in-memory ports.Repository
type fakeRepo struct {
	branches map[string]string
	commits  map[string]fakeCommit
	head     string // Branch name, or a headless sentinel
	mu       sync.Mutex
	origin   string
	seq      int
	userName string
	walks    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		branches: map[string]string{},
		commits:  map[string]fakeCommit{},
		head:     "main",
		userName: "Alice",
	}
}

// commit adds a commit on top of branch, starting a new root when the branch is missing
func (r *fakeRepo) commit(branch, name, email string, when time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	sha := fmt.Sprintf("%040x", r.seq)

	var parents []string
	if tip, ok := r.branches[branch]; ok {
		parents = []string{tip}
	}
	r.commits[sha] = fakeCommit{email: email, name: name, parents: parents, when: when}
	r.branches[branch] = sha
	return sha
}

// branch creates name pointing at from's tip
func (r *fakeRepo) branch(name, from string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.branches[name] = r.branches[from]
}

// merge creates a merge commit on into with from as second parent
func (r *fakeRepo) merge(into, from string, when time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	sha := fmt.Sprintf("%040x", r.seq)
	r.commits[sha] = fakeCommit{
		email:   "merge@example.com",
		name:    "Merger",
		parents: []string{r.branches[into], r.branches[from]},
		when:    when,
	}
	r.branches[into] = sha
	return sha
}

func (r *fakeRepo) checkout(head string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = head
}

func (r *fakeRepo) walkCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.walks
}

func (r *fakeRepo) CurrentBranch() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if domain.IsHeadless(r.head) {
		return r.head, nil
	}
	if _, ok := r.branches[r.head]; !ok {
		return domain.NoBranch, nil
	}
	return r.head, nil
}

func (r *fakeRepo) LocalBranches() ([]domain.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	branches := make([]domain.Branch, 0, len(r.branches))
	for name, tip := range r.branches {
		branches = append(branches, domain.Branch{Name: name, Tip: tip})
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

func (r *fakeRepo) BranchTip(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tip, ok := r.branches[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrBranchNotFound, name)
	}
	return tip, nil
}

func (r *fakeRepo) BaseBranch() (domain.Branch, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range domain.BaseBranchNames {
		if tip, ok := r.branches[name]; ok {
			return domain.Branch{Name: name, Tip: tip}, true, nil
		}
	}
	return domain.Branch{}, false, nil
}

func (r *fakeRepo) WalkCommits(from string, hide []string, fn func(domain.CommitInfo) error) error {
	r.mu.Lock()
	r.walks++
	hidden := map[string]bool{}
	for _, sha := range hide {
		r.collect(sha, hidden)
	}

	var order []string
	seen := map[string]bool{}
	stack := []string{from}
	for len(stack) > 0 {
		sha := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if sha == "" || seen[sha] || hidden[sha] {
			continue
		}
		seen[sha] = true
		order = append(order, sha)
		parents := r.commits[sha].parents
		for i := len(parents) - 1; i >= 0; i-- {
			stack = append(stack, parents[i])
		}
	}
	commits := make([]domain.CommitInfo, 0, len(order))
	for _, sha := range order {
		c := r.commits[sha]
		commits = append(commits, domain.CommitInfo{AuthorEmail: c.email, AuthorName: c.name, SHA: sha, When: c.when})
	}
	r.mu.Unlock()

	for _, commit := range commits {
		if err := fn(commit); err != nil {
			if errors.Is(err, domain.ErrStopWalk) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (r *fakeRepo) collect(sha string, into map[string]bool) {
	stack := []string{sha}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == "" || into[current] {
			continue
		}
		into[current] = true
		stack = append(stack, r.commits[current].parents...)
	}
}

func (r *fakeRepo) OriginURL() (string, error) {
	if r.origin == "" {
		return "", fmt.Errorf("%w: origin", domain.ErrRemoteNotFound)
	}
	return r.origin, nil
}

func (r *fakeRepo) UserName() (string, error) {
	if r.userName == "" {
		return "", domain.ErrUserNotConfigured
	}
	return r.userName, nil
}

// fakeOpener maps repository paths to fake repositories
type fakeOpener struct {
	globalUser string
	repos      map[string]*fakeRepo
}

func (o *fakeOpener) GlobalUserName() (string, error) {
	if o.globalUser == "" {
		return "", domain.ErrUserNotConfigured
	}
	return o.globalUser, nil
}

func (o *fakeOpener) Open(path string) (ports.Repository, error) {
	repo, ok := o.repos[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotGitRepository, path)
	}
	return repo, nil
}

// memoryStore is an in-memory ports.StateStore that counts writes
type memoryStore struct {
	mu     sync.Mutex
	saves  map[string]int
	states map[string]domain.RepositoryState
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		saves:  map[string]int{},
		states: map[string]domain.RepositoryState{},
	}
}

func (s *memoryStore) Get(_ context.Context, name string) (*domain.RepositoryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[name]
	if !ok {
		return nil, nil
	}
	return state.Clone(), nil
}

func (s *memoryStore) ListAll(_ context.Context) ([]domain.RepositoryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := make([]domain.RepositoryState, 0, len(s.states))
	for _, state := range s.states {
		states = append(states, *state.Clone())
	}
	return states, nil
}

func (s *memoryStore) Save(_ context.Context, state domain.RepositoryState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.Name] = *state.Clone()
	s.saves[state.Name]++
	return nil
}

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) saveCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[name]
}

// noopRepairer never finds anything to fix
type noopRepairer struct{}

func (noopRepairer) Repair(context.Context, string) (*domain.RepairResult, error) {
	return &domain.RepairResult{}, nil
}
