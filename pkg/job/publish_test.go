package job

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carve-dev/carve/pkg/config"
	"github.com/carve-dev/carve/pkg/gitcmd"
	"github.com/carve-dev/carve/pkg/testutil"
)

// publishFixture builds an acquired source checkout, a pruned output
// tree, and a bare mirror repo, and returns them plus the config.
func publishFixture(t *testing.T) (*config.Config, string, string, string) {
	t.Helper()

	srcBare := testutil.CreateBareRepo(t, map[string]string{
		"Cargo.toml": "[workspace]\n",
	})
	work := t.TempDir()
	srcDir := filepath.Join(work, "source")
	require.NoError(t, gitcmd.Clone(srcBare, srcDir, gitcmd.CloneOpts{}))

	outDir := filepath.Join(work, "output")
	testutil.WriteTree(t, outDir, map[string]string{
		"Cargo.toml":              "[workspace]\nmembers = [\"crates/gpui\"]\n",
		"crates/gpui/Cargo.toml":  "[package]\nname = \"gpui\"\n",
		"crates/gpui/src/gpui.rs": "fn main() {}\n",
	})

	mirrorBare := testutil.CreateBareRepo(t, map[string]string{
		"README.md":       "# mirror\n",
		"crates/x/old.rs": "stale\n",
	})

	cfg := testConfig()
	cfg.MirrorURL = mirrorBare
	return cfg, srcDir, outDir, work
}

func TestPublish(t *testing.T) {
	cfg, srcDir, outDir, work := publishFixture(t)

	require.NoError(t, publish(cfg, srcDir, outDir, work))

	check := filepath.Join(t.TempDir(), "check")
	require.NoError(t, gitcmd.Clone(
		cfg.MirrorURL, check, gitcmd.CloneOpts{},
	))
	assert.FileExists(t,
		filepath.Join(check, "crates", "gpui", "src", "gpui.rs"),
	)
	// Stale entries are reconciled away, the mirror's own README
	// survives.
	assert.NoDirExists(t, filepath.Join(check, "crates", "x"))
	assert.FileExists(t, filepath.Join(check, "README.md"))
}

func TestPublishIdempotent(t *testing.T) {
	cfg, srcDir, outDir, work := publishFixture(t)

	require.NoError(t, publish(cfg, srcDir, outDir, work))

	check := filepath.Join(t.TempDir(), "check1")
	require.NoError(t, gitcmd.Clone(
		cfg.MirrorURL, check, gitcmd.CloneOpts{},
	))
	head, err := gitcmd.HeadCommit(check)
	require.NoError(t, err)

	// Second run against the already-synced mirror: no new commit.
	work2 := t.TempDir()
	require.NoError(t, publish(cfg, srcDir, outDir, work2))

	check2 := filepath.Join(t.TempDir(), "check2")
	require.NoError(t, gitcmd.Clone(
		cfg.MirrorURL, check2, gitcmd.CloneOpts{},
	))
	head2, err := gitcmd.HeadCommit(check2)
	require.NoError(t, err)
	assert.Equal(t, head, head2)
}

func TestPublishProtectsGitWithoutConfig(t *testing.T) {
	cfg, srcDir, outDir, work := publishFixture(t)
	// A config that forgets .git must not let reconciliation eat
	// the mirror's history; commit and push still work.
	cfg.Protected = nil

	require.NoError(t, publish(cfg, srcDir, outDir, work))

	check := filepath.Join(t.TempDir(), "check")
	require.NoError(t, gitcmd.Clone(
		cfg.MirrorURL, check, gitcmd.CloneOpts{},
	))
	assert.FileExists(t,
		filepath.Join(check, "crates", "gpui", "src", "gpui.rs"),
	)
}

func TestPublishCloneFailure(t *testing.T) {
	cfg, srcDir, outDir, work := publishFixture(t)
	cfg.MirrorURL = "/nonexistent/mirror.git"

	err := publish(cfg, srcDir, outDir, filepath.Join(work, "w2"))
	assert.ErrorContains(t, err, "clone mirror")
}

func TestPublishUnknownSourceRevision(t *testing.T) {
	cfg, _, outDir, work := publishFixture(t)

	// A source dir that is not a git repo yields the sentinel
	// reference, not a failure.
	require.NoError(t, publish(
		cfg, t.TempDir(), outDir, filepath.Join(work, "w2"),
	))
}
