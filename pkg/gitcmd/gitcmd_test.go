package gitcmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carve-dev/carve/pkg/testutil"
)

func TestCloneAndHeadCommit(t *testing.T) {
	bare := testutil.CreateBareRepo(t, map[string]string{
		"Cargo.toml": "[workspace]\n",
	})
	dest := filepath.Join(t.TempDir(), "clone")

	require.NoError(t, Clone(bare, dest, CloneOpts{}))
	assert.FileExists(t, filepath.Join(dest, "Cargo.toml"))

	sha, err := HeadCommit(dest)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(sha), 7)
}

func TestCloneShallow(t *testing.T) {
	bare := testutil.CreateBareRepo(t, map[string]string{
		"Cargo.toml": "[workspace]\n",
	})
	dest := filepath.Join(t.TempDir(), "shallow")
	depth := 1

	require.NoError(t, Clone(bare, dest, CloneOpts{Depth: &depth}))
	assert.FileExists(t, filepath.Join(dest, "Cargo.toml"))
}

func TestCloneFailure(t *testing.T) {
	testutil.RequireGit(t)
	dest := filepath.Join(t.TempDir(), "clone")
	err := Clone("/nonexistent/repo.git", dest, CloneOpts{})
	assert.Error(t, err)
}

func TestIsDirty(t *testing.T) {
	bare := testutil.CreateBareRepo(t, map[string]string{
		"Cargo.toml": "[workspace]\n",
	})
	dest := filepath.Join(t.TempDir(), "repo")
	require.NoError(t, Clone(bare, dest, CloneOpts{}))

	dirty, err := IsDirty(dest)
	require.NoError(t, err)
	assert.False(t, dirty)

	require.NoError(t, os.WriteFile(
		filepath.Join(dest, "new.rs"), []byte("x"), 0644,
	))
	dirty, err = IsDirty(dest)
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestCommitAndPush(t *testing.T) {
	bare := testutil.CreateBareRepo(t, map[string]string{
		"Cargo.toml": "[workspace]\n",
	})
	dest := filepath.Join(t.TempDir(), "repo")
	require.NoError(t, Clone(bare, dest, CloneOpts{}))

	require.NoError(t, os.WriteFile(
		filepath.Join(dest, "new.rs"), []byte("x"), 0644,
	))
	require.NoError(t, AddAll(dest))
	require.NoError(t, Commit(dest, "Sync from source abc1234"))
	require.NoError(t, Push(dest))

	// A second clone sees the pushed commit.
	verify := filepath.Join(t.TempDir(), "verify")
	require.NoError(t, Clone(bare, verify, CloneOpts{}))
	assert.FileExists(t, filepath.Join(verify, "new.rs"))
}

func TestAddAllStagesDeletions(t *testing.T) {
	bare := testutil.CreateBareRepo(t, map[string]string{
		"Cargo.toml": "[workspace]\n",
		"old.rs":     "gone",
	})
	dest := filepath.Join(t.TempDir(), "repo")
	require.NoError(t, Clone(bare, dest, CloneOpts{}))

	require.NoError(t, os.Remove(filepath.Join(dest, "old.rs")))
	require.NoError(t, AddAll(dest))

	dirty, err := IsDirty(dest)
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestHeadCommitNotARepo(t *testing.T) {
	testutil.RequireGit(t)
	_, err := HeadCommit(t.TempDir())
	assert.Error(t, err)
}
