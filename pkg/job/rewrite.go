package job

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/carve-dev/carve/pkg/config"
	"github.com/carve-dev/carve/pkg/manifest"
	"github.com/carve-dev/carve/pkg/patch"
)

// Rewrite edits the workspace manifest at root in place so that every
// surviving reference points at something that still exists on disk:
// default-members becomes the root crate alone, members and
// workspace.dependencies are filtered by existence, and profile
// package overrides for removed crates are dropped. It then strips
// the configured optional dependencies and applies the compatibility
// patches.
func Rewrite(root string, cfg *config.Config) error {
	manifestPath := filepath.Join(root, "Cargo.toml")
	doc, err := manifest.Load(manifestPath)
	if err != nil {
		return fmt.Errorf("workspace manifest: %w", err)
	}

	rootMember := path.Join(cfg.CratesDir, cfg.RootCrate)
	if _, ok := doc.DefaultMembers(); ok {
		doc.SetDefaultMembers([]string{rootMember})
	}

	var members []string
	for _, m := range doc.Members() {
		if dirExists(filepath.Join(root, filepath.FromSlash(m))) {
			members = append(members, m)
		}
	}
	doc.SetMembers(members)

	// Any path-bearing definition counts as local, wherever it
	// points; the pruner may have removed trees outside the crates
	// root too (tooling, xtask-style helpers).
	for name, def := range doc.WorkspaceDependencies() {
		p, ok := manifest.DependencyPath(def)
		if !ok {
			continue
		}
		p = path.Clean(filepath.ToSlash(p))
		if !dirExists(filepath.Join(root, filepath.FromSlash(p))) {
			doc.RemoveWorkspaceDependency(name)
		}
	}

	doc.PrunePackageOverrides(func(pkg string) bool {
		for _, m := range members {
			if m == pkg || strings.HasSuffix(m, "/"+pkg) {
				return true
			}
		}
		return false
	})

	if err := doc.Save(manifestPath); err != nil {
		return err
	}

	for _, s := range cfg.Strip {
		if err := stripDependency(root, cfg.CratesDir, s); err != nil {
			return err
		}
	}

	for _, r := range patch.Apply(root, cfg.Patches) {
		if r.Applied {
			slog.Info("patch applied", "file", r.File)
		} else {
			slog.Debug("patch skipped",
				"file", r.File, "reason", r.Reason,
			)
		}
	}
	return nil
}

// stripDependency removes one optional dependency from a crate's
// manifest. A crate that was pruned away is a no-op.
func stripDependency(
	root, cratesDir string, s config.StripDep,
) error {
	p := filepath.Join(root, cratesDir, s.Crate, "Cargo.toml")
	doc, err := manifest.Load(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("crate %s manifest: %w", s.Crate, err)
	}
	if !doc.RemoveDependency(s.Dependency) {
		return nil
	}
	slog.Info("optional dependency stripped",
		"crate", s.Crate, "dependency", s.Dependency,
	)
	return doc.Save(p)
}

func dirExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
