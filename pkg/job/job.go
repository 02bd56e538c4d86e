// Package job orchestrates the extraction pipeline: acquire the
// source workspace, clone its tree, resolve the local-dependency
// closure, prune, rewrite the workspace manifest, verify the build,
// and publish to the mirror. Stages run strictly in sequence.
package job

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/carve-dev/carve/pkg/config"
	"github.com/carve-dev/carve/pkg/gitcmd"
	"github.com/carve-dev/carve/pkg/manifest"
	"github.com/carve-dev/carve/pkg/resolve"
	"github.com/carve-dev/carve/pkg/tree"
)

// Options controls one pipeline run.
type Options struct {
	// WorkDir is the scratch directory. Empty means a fresh temp
	// dir, removed when the run ends unless KeepWork is set.
	WorkDir string
	// KeepWork leaves the scratch directory behind for inspection.
	KeepWork bool
	// SkipBuild skips the cargo verification stage.
	SkipBuild bool
	// DryRun stops before the publish stage.
	DryRun bool
}

// Run executes the full pipeline. Errors from the acquire, resolve,
// rewrite, and verify stages are fatal; publish failures are
// reported and swallowed so the process still exits cleanly.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	work := opts.WorkDir
	if work == "" {
		tmp, err := os.MkdirTemp("", "carve-*")
		if err != nil {
			return fmt.Errorf("scratch dir: %w", err)
		}
		if !opts.KeepWork {
			defer os.RemoveAll(tmp)
		}
		work = tmp
	}
	slog.Debug("scratch dir", "path", work)

	srcDir := filepath.Join(work, "source")
	outDir := filepath.Join(work, "output")

	depth := 1
	slog.Info("acquiring source", "url", cfg.SourceURL)
	err := gitcmd.Clone(cfg.SourceURL, srcDir, gitcmd.CloneOpts{
		Depth: &depth,
	})
	if err != nil {
		return fmt.Errorf("acquire source: %w", err)
	}

	slog.Info("cloning tree")
	results, err := tree.CopyTree(srcDir, outDir)
	if err != nil {
		return fmt.Errorf("clone tree: %w", err)
	}
	logSkips("copy", results)

	closure, err := CollectClosure(outDir, cfg)
	if err != nil {
		return err
	}
	slog.Info("closure resolved",
		"root", cfg.RootCrate,
		"crates", len(closure),
	)

	slog.Info("pruning tree")
	logSkips("prune", tree.Prune(outDir, tree.PruneOptions{
		CratesDir: cfg.CratesDir,
		RootCrate: cfg.RootCrate,
		Closure:   closure,
		AuxDirs:   cfg.AuxDirs,
		RootKeep:  cfg.RootKeep,
	}))

	slog.Info("rewriting workspace manifest")
	if err := Rewrite(outDir, cfg); err != nil {
		return err
	}

	if opts.SkipBuild {
		slog.Info("build verification skipped")
	} else if err := verifyBuild(ctx, outDir, cfg.RootCrate); err != nil {
		// A tree that does not build is never published.
		return err
	}

	if opts.DryRun {
		slog.Info("dry run, skipping publish")
		return nil
	}
	if cfg.MirrorURL == "" {
		slog.Info("no mirror configured, skipping publish")
		return nil
	}
	if err := publish(cfg, srcDir, outDir, work); err != nil {
		slog.Error("publish failed", "err", err)
	}
	return nil
}

// CollectClosure reads the workspace manifest at root and resolves
// the local-dependency closure of the configured root crate. A
// missing or unreadable root manifest is fatal.
func CollectClosure(
	root string, cfg *config.Config,
) (map[string]bool, error) {
	doc, err := manifest.Load(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return nil, fmt.Errorf("workspace manifest: %w", err)
	}
	local := resolve.LocalCrates(
		doc.WorkspaceDependencies(), cfg.CratesDir,
	)
	return resolve.Closure(
		root, cfg.CratesDir, cfg.RootCrate, local,
	), nil
}

// verifyBuild builds the root crate with cargo. Missing cargo skips
// the check; a failed build is fatal and gates publishing.
func verifyBuild(ctx context.Context, dir, rootCrate string) error {
	if _, err := exec.LookPath("cargo"); err != nil {
		slog.Info("cargo not found, skipping build verification")
		return nil
	}
	slog.Info("verifying build", "crate", rootCrate)
	cmd := exec.CommandContext(ctx, "cargo", "build", "-p", rootCrate)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf(
			"cargo build -p %s: %w: %s",
			rootCrate, err, tail(stderr.String(), 2000),
		)
	}
	return nil
}

func logSkips(stage string, results []tree.ItemResult) {
	for _, r := range tree.Skips(results) {
		slog.Debug("item skipped",
			"stage", stage, "path", r.Path, "err", r.Err,
		)
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
