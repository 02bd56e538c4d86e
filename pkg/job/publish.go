package job

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/carve-dev/carve/pkg/config"
	"github.com/carve-dev/carve/pkg/gitcmd"
	"github.com/carve-dev/carve/pkg/tree"
)

// publish drives the mirror repository's file set to match the
// pruned output tree and commits the result, tagging the message
// with the source revision's short hash. A clean working tree after
// reconciliation means nothing to do, so back-to-back runs against
// an already-synced mirror are no-ops.
func publish(cfg *config.Config, srcDir, outDir, work string) error {
	mirrorDir := filepath.Join(work, "mirror")
	slog.Info("cloning mirror", "url", cfg.MirrorURL)
	err := gitcmd.Clone(cfg.MirrorURL, mirrorDir, gitcmd.CloneOpts{})
	if err != nil {
		return fmt.Errorf("clone mirror: %w", err)
	}

	ref, err := gitcmd.HeadCommit(srcDir)
	if err != nil {
		slog.Debug("source revision unknown", "err", err)
		ref = "unknown"
	}

	keep, err := tree.Walk(outDir)
	if err != nil {
		return fmt.Errorf("walk output tree: %w", err)
	}
	// The mirror's own history is never reconciled away, whatever
	// the configured protection list says.
	protected := cfg.Protected
	if !slices.Contains(protected, ".git") {
		protected = append([]string{".git"}, protected...)
	}
	logSkips("reconcile", tree.Reconcile(
		mirrorDir, keep, protected, cfg.ProtectedFiles,
	))

	results, err := tree.CopyTree(outDir, mirrorDir)
	if err != nil {
		return fmt.Errorf("copy into mirror: %w", err)
	}
	logSkips("publish copy", results)

	if err := gitcmd.AddAll(mirrorDir); err != nil {
		return fmt.Errorf("stage mirror changes: %w", err)
	}
	dirty, err := gitcmd.IsDirty(mirrorDir)
	if err != nil {
		return fmt.Errorf("mirror status: %w", err)
	}
	if !dirty {
		slog.Info("mirror already up to date")
		return nil
	}

	msg := fmt.Sprintf("Sync from source %s", ref)
	if err := gitcmd.Commit(mirrorDir, msg); err != nil {
		return fmt.Errorf("commit mirror: %w", err)
	}
	if err := gitcmd.Push(mirrorDir); err != nil {
		return fmt.Errorf("push mirror: %w", err)
	}
	slog.Info("mirror updated", "source", ref)
	return nil
}
