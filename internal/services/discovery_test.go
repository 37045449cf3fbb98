package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metagit/mgit/internal/domain"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"web", "api", "notes", "local"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, name), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0644))

	api := newFakeRepo()
	api.origin = "git@example.com:team/api.git"
	web := newFakeRepo()
	web.origin = "https://example.com/team/web.git"
	opener := &fakeOpener{repos: map[string]*fakeRepo{
		filepath.Join(dir, "api"):   api,
		filepath.Join(dir, "local"): newFakeRepo(),
		filepath.Join(dir, "web"):   web,
	}}

	found, err := NewDiscoveryService(opener).Discover(dir)

	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, DiscoveredRepository{Name: "api", Path: filepath.Join(dir, "api"), URL: "git@example.com:team/api.git"}, found[0])
	assert.Equal(t, "local", found[1].Name)
	assert.ErrorIs(t, found[1].Err, domain.ErrRemoteNotFound)
	assert.Equal(t, "web", found[2].Name)
	assert.NoError(t, found[2].Err)
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := NewDiscoveryService(&fakeOpener{}).Discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
