package git

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type testRepo struct {
	path string
	repo *gogit.Repository
	seq  int
}

// isolateGitConfig points the user-level git configuration at empty temp dirs
func isolateGitConfig(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	return home
}

// initTestRepo creates a repository whose HEAD points at refs/heads/<head>
func initTestRepo(t *testing.T, head string) *testRepo {
	t.Helper()
	path := t.TempDir()
	repo, err := gogit.PlainInit(path, false)
	require.NoError(t, err)

	ref := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(head))
	require.NoError(t, repo.Storer.SetReference(ref))

	return &testRepo{path: path, repo: repo}
}

// commit writes a unique file on the checked out branch and commits it
func (r *testRepo) commit(t *testing.T, author, email string, when time.Time) string {
	t.Helper()
	r.seq++

	wt, err := r.repo.Worktree()
	require.NoError(t, err)

	name := fmt.Sprintf("file-%d.txt", r.seq)
	require.NoError(t, os.WriteFile(filepath.Join(r.path, name), []byte(name), 0644))
	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit(fmt.Sprintf("commit %d", r.seq), &gogit.CommitOptions{
		Author: &object.Signature{Email: email, Name: author, When: when},
	})
	require.NoError(t, err)
	return hash.String()
}

// branch creates name at the current HEAD commit
func (r *testRepo) branch(t *testing.T, name string) {
	t.Helper()
	head, err := r.repo.Head()
	require.NoError(t, err)
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), head.Hash())
	require.NoError(t, r.repo.Storer.SetReference(ref))
}

func (r *testRepo) checkout(t *testing.T, name string) {
	t.Helper()
	wt, err := r.repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&gogit.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}))
}

func (r *testRepo) detach(t *testing.T, sha string) {
	t.Helper()
	wt, err := r.repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&gogit.CheckoutOptions{Hash: plumbing.NewHash(sha)}))
}

func (r *testRepo) gitPath(parts ...string) string {
	return filepath.Join(append([]string{r.path, ".git"}, parts...)...)
}
