package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	adaptergit "github.com/metagit/mgit/internal/adapters/git"
	adapterstorage "github.com/metagit/mgit/internal/adapters/storage"
	"github.com/metagit/mgit/internal/config"
	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/logging"
	"github.com/metagit/mgit/internal/ports/mocks"
	"github.com/metagit/mgit/internal/theme"
)

type project struct {
	cli *CLI
	dir string
	out *bytes.Buffer
}

// newProject lays out a project with an "api" repository where main has one
// commit by Alice and the checked out "feature" branch adds one by Bob
func newProject(t *testing.T, repairer *mocks.MockRepairer, extraRepos ...string) *project {
	t.Helper()
	theme.SetEnabled(false)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("MGIT_HOME", filepath.Join(home, ".mgit"))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".gitconfig"), []byte("[user]\n\tname = Bob\n"), 0644))

	dir := t.TempDir()
	initAPIRepo(t, filepath.Join(dir, "api"))

	content := "repositories:\n  - name: api\n"
	for _, name := range extraRepos {
		content += fmt.Sprintf("  - name: %s\n", name)
	}
	configPath := filepath.Join(dir, ".mgitconfig.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := config.LoadProjectConfig(configPath)
	require.NoError(t, err)

	store, err := adapterstorage.NewSQLiteStateStoreForDir(dir)
	require.NoError(t, err)

	container := newContainer(cfg, store, adaptergit.NewOpener(), repairer)
	out := &bytes.Buffer{}
	cli := &CLI{Container: container, out: out}
	t.Cleanup(func() { cli.Close() })

	return &project{cli: cli, dir: dir, out: out}
}

func initAPIRepo(t *testing.T, path string) {
	t.Helper()
	repo, err := gogit.PlainInit(path, false)
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))))

	wt, err := repo.Worktree()
	require.NoError(t, err)

	commit := func(file, author string, when time.Time) plumbing.Hash {
		require.NoError(t, os.WriteFile(filepath.Join(path, file), []byte(file), 0644))
		_, err := wt.Add(file)
		require.NoError(t, err)
		hash, err := wt.Commit(file, &gogit.CommitOptions{
			Author: &object.Signature{Email: author + "@example.com", Name: author, When: when},
		})
		require.NoError(t, err)
		return hash
	}

	now := time.Now().UTC()
	base := commit("readme.md", "Alice", now.Add(-48*time.Hour))
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewBranchReferenceName("feature"), base)))
	require.NoError(t, wt.Checkout(&gogit.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("feature")}))
	commit("feature.go", "Bob", now.Add(-time.Hour))
}

func okRepairer(t *testing.T) *mocks.MockRepairer {
	repairer := mocks.NewMockRepairer(t)
	repairer.EXPECT().Repair(mock.Anything, mock.Anything).Return(&domain.RepairResult{}, nil).Maybe()
	return repairer
}

func TestRefreshCmd(t *testing.T) {
	p := newProject(t, okRepairer(t))

	err := (&RefreshCmd{Workers: 2}).Run(p.cli)
	require.NoError(t, err)

	output := p.out.String()
	assert.Contains(t, output, "✓ api")
	assert.Contains(t, output, "full refresh")
	assert.Contains(t, output, "Refreshed 1 repositories: 1 ok, 0 failed, 0 repaired")
	assert.Contains(t, output, "Added 2 author identities")

	reloaded, err := config.LoadProjectConfig(filepath.Join(p.dir, ".mgitconfig.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Alice", reloaded.Aliases.Normalize("alice@example.com"))
	assert.Equal(t, "Bob", reloaded.Aliases.Normalize("bob@example.com"))

	// Second run finds nothing new
	p.out.Reset()
	require.NoError(t, (&RefreshCmd{}).Run(p.cli))
	assert.Contains(t, p.out.String(), "up to date")
	assert.NotContains(t, p.out.String(), "author identities")
}

func TestRefreshCmd_NoAuthors(t *testing.T) {
	p := newProject(t, okRepairer(t))

	require.NoError(t, (&RefreshCmd{NoAuthors: true}).Run(p.cli))

	reloaded, err := config.LoadProjectConfig(filepath.Join(p.dir, ".mgitconfig.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Aliases.Len())
}

func TestRefreshCmd_FailedRepositoryIsReported(t *testing.T) {
	p := newProject(t, okRepairer(t), "missing")

	err := (&RefreshCmd{NoAuthors: true}).Run(p.cli)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 repositories failed")
	assert.Contains(t, p.out.String(), "✗ missing")
	assert.Contains(t, p.out.String(), "✓ api")
}

func TestRefreshCmd_PrintsRepairs(t *testing.T) {
	repairer := mocks.NewMockRepairer(t)
	repairer.EXPECT().Repair(mock.Anything, mock.Anything).Return(&domain.RepairResult{
		FixedFetchHead:       true,
		RemovedCorruptedRefs: []string{".git/refs/heads/broken"},
	}, nil).Once()
	p := newProject(t, repairer)

	require.NoError(t, (&RefreshCmd{NoAuthors: true}).Run(p.cli))

	output := p.out.String()
	assert.Contains(t, output, "repaired: removed corrupted FETCH_HEAD; removed 1 corrupted refs (.git/refs/heads/broken)")
	assert.Contains(t, output, "1 repaired")
}

func TestStatusCmd(t *testing.T) {
	p := newProject(t, okRepairer(t))
	require.NoError(t, (&RefreshCmd{NoAuthors: true}).Run(p.cli))

	tests := []struct {
		name    string
		cmd     StatusCmd
		want    []string
		notWant []string
	}{
		{
			name: "default view shows the current branch",
			cmd:  StatusCmd{},
			want: []string{"api", "feature", "Bob", "hour ago"},
		},
		{
			name: "all lists every branch",
			cmd:  StatusCmd{All: true},
			want: []string{"* feature", "main", "2 days ago"},
		},
		{
			name:    "detailed hides stale branches",
			cmd:     StatusCmd{Detailed: true, StaleDays: 1},
			want:    []string{"* feature"},
			notWant: []string{"main"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.out.Reset()
			require.NoError(t, tt.cmd.Run(p.cli))

			for _, want := range tt.want {
				assert.Contains(t, p.out.String(), want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, p.out.String(), notWant)
			}
		})
	}
}

func TestStatusCmd_SnapshotBeforeRefresh(t *testing.T) {
	p := newProject(t, okRepairer(t))

	require.NoError(t, (&StatusCmd{All: true}).Run(p.cli))

	assert.Contains(t, p.out.String(), "api  (not refreshed yet)")
}

func TestRepairCmd(t *testing.T) {
	repairer := mocks.NewMockRepairer(t)
	repairer.EXPECT().Repair(mock.Anything, mock.Anything).Return(&domain.RepairResult{
		FsckErrors:     []string{"error: object file is empty"},
		NeedsAttention: true,
	}, nil).Once()
	p := newProject(t, repairer, "missing")

	err := (&RepairCmd{}).Run(p.cli)

	require.Error(t, err)
	output := p.out.String()
	assert.Contains(t, output, "api:\n  fsck: error: object file is empty")
	assert.Contains(t, output, "missing: repository not found")
}

func TestAuthorsCmd(t *testing.T) {
	p := newProject(t, okRepairer(t))

	require.NoError(t, (&AuthorsCmd{Format: "table"}).Run(p.cli))
	assert.Contains(t, p.out.String(), "No contributors configured")

	p.cli.Container.ProjectConfig.Aliases.Add("Alice", "alice@example.com", "ally")
	p.out.Reset()
	require.NoError(t, (&AuthorsCmd{Format: "table"}).Run(p.cli))
	assert.Contains(t, p.out.String(), "Alice  alice@example.com, ally")

	p.out.Reset()
	require.NoError(t, (&AuthorsCmd{Format: "json"}).Run(p.cli))
	assert.JSONEq(t, `{"Alice": ["alice@example.com", "ally"]}`, p.out.String())
}

func TestSettingsMetaCmd(t *testing.T) {
	home := t.TempDir()
	t.Setenv("MGIT_HOME", home)
	out := &bytes.Buffer{}
	cli := &CLI{out: out}

	require.NoError(t, (&SettingsMetaCmd{Format: "table"}).Run(cli))

	assert.Contains(t, out.String(), filepath.Join(home, "settings.json"))
	assert.Contains(t, out.String(), "workers")
	assert.Contains(t, out.String(), "stale_days")
}

func newWorkspace(t *testing.T) (string, *CLI, *bytes.Buffer) {
	t.Helper()
	theme.SetEnabled(false)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("MGIT_HOME", filepath.Join(home, ".mgit"))

	dir := t.TempDir()
	initAPIRepo(t, filepath.Join(dir, "api"))
	repo, err := gogit.PlainOpen(filepath.Join(dir, "api"))
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{"git@example.com:team/api.git"}})
	require.NoError(t, err)

	_, err = gogit.PlainInit(filepath.Join(dir, "scratch"), false)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0755))

	out := &bytes.Buffer{}
	cli := &CLI{out: out}
	cli.containerFactory = func(project *config.ProjectConfig) (*Container, error) {
		store, err := adapterstorage.NewSQLiteStateStoreForDir(project.Dir)
		if err != nil {
			return nil, err
		}
		return newContainer(project, store, adaptergit.NewOpener(), okRepairer(t)), nil
	}
	t.Cleanup(func() { cli.Close() })

	return dir, cli, out
}

func TestInitCmd(t *testing.T) {
	dir, cli, out := newWorkspace(t)

	require.NoError(t, (&InitCmd{Dir: dir}).Run(cli))

	output := out.String()
	assert.Contains(t, output, "+ api (git@example.com:team/api.git)")
	assert.Contains(t, output, "! scratch: remote not found")
	assert.NotContains(t, output, "docs")
	assert.Contains(t, output, "Found 1 repository.")
	assert.Contains(t, output, "Configuration saved to "+filepath.Join(dir, ".mgitconfig.yaml"))
	assert.Contains(t, output, "✓ api")

	cfg, err := config.LoadProjectConfig(filepath.Join(dir, ".mgitconfig.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []config.RepositoryConfig{{Name: "api", URL: "git@example.com:team/api.git"}}, cfg.Repositories)
	assert.Equal(t, "Bob", cfg.Aliases.Normalize("bob@example.com"), "initial refresh records identities")
}

func TestInitCmd_NoRefresh(t *testing.T) {
	dir, cli, out := newWorkspace(t)

	require.NoError(t, (&InitCmd{Dir: dir, NoRefresh: true}).Run(cli))

	assert.NotContains(t, out.String(), "✓ api")
	assert.Nil(t, cli.Container)
	assert.FileExists(t, filepath.Join(dir, ".mgitconfig.yaml"))
}

func TestInitCmd_ExistingConfig(t *testing.T) {
	dir, cli, out := newWorkspace(t)
	path := filepath.Join(dir, ".mgitconfig.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"repositories":[]}`), 0644))

	require.NoError(t, (&InitCmd{Dir: dir}).Run(cli))

	assert.Contains(t, out.String(), "Configuration file already exists at "+path)
	assert.NoFileExists(t, filepath.Join(dir, ".mgitconfig.yaml"))
}

func TestAfterApply_DebugStaysInProcess(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	t.Setenv("MGIT_HOME", filepath.Join(home, ".mgit"))
	t.Setenv("MGIT_DEBUG", "")
	t.Setenv("MGIT_MAX_LOG_FILES", "")
	require.NoError(t, os.Unsetenv("MGIT_DEBUG"))
	require.NoError(t, os.Unsetenv("MGIT_MAX_LOG_FILES"))
	t.Cleanup(func() { logging.Initialize(false, "", 0) })

	var cli CLI
	parser, err := kong.New(&cli, kong.Bind(&cli))
	require.NoError(t, err)
	_, err = parser.Parse([]string{"--debug", "--max-log-files", "5", "settings", "meta"})
	require.NoError(t, err)

	assert.True(t, logging.Enabled())
	assert.Nil(t, cli.Container, "settings runs without a project")
	_, set := os.LookupEnv("MGIT_DEBUG")
	assert.False(t, set)
	_, set = os.LookupEnv("MGIT_MAX_LOG_FILES")
	assert.False(t, set)
}
