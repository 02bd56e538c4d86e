package tree

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PruneOptions parameterizes a pruning pass.
type PruneOptions struct {
	// CratesDir is the workspace's crates root, relative to the
	// tree root (usually "crates").
	CratesDir string
	// RootCrate is the crate whose readme.md survives the
	// metadata strip; its doc-comment build step reads it.
	RootCrate string
	// Closure is the set of crate directory names to keep.
	Closure map[string]bool
	// AuxDirs are top-level directories removed whole (tooling,
	// extensions, CI config, assets and the like).
	AuxDirs []string
	// RootKeep is the allow-list of root-level entry names that
	// survive; everything else at the root is deleted.
	RootKeep []string
}

var stripPrefixes = []string{
	"readme", "license", "changelog", "contributing", "dockerfile",
}

var stripSuffixes = []string{".md", ".txt"}

// Prune reduces the output tree: crates outside the closure, then
// auxiliary directories, then non-allow-listed root entries, then a
// metadata sweep over what remains (docs dirs, symlinks, readme/
// license/changelog-style files). Individual deletion failures are
// recorded and skipped.
func Prune(root string, opts PruneOptions) []ItemResult {
	var results []ItemResult

	pruneCrates(root, opts, &results)
	pruneAux(root, opts, &results)
	pruneRoot(root, opts, &results)
	stripMetadata(root, opts, &results)

	return results
}

func pruneCrates(
	root string, opts PruneOptions, results *[]ItemResult,
) {
	cratesRoot := filepath.Join(root, opts.CratesDir)
	entries, err := os.ReadDir(cratesRoot)
	if err != nil {
		*results = append(*results, ItemResult{
			Path: opts.CratesDir, Err: err,
		})
		return
	}
	for _, e := range entries {
		if !e.IsDir() || opts.Closure[e.Name()] {
			continue
		}
		remove(root, filepath.Join(opts.CratesDir, e.Name()), results)
	}
}

// pruneAux deletes top-level auxiliary directories. Entries are
// matched by name, literally or as a glob pattern.
func pruneAux(
	root string, opts PruneOptions, results *[]ItemResult,
) {
	entries, err := os.ReadDir(root)
	if err != nil {
		*results = append(*results, ItemResult{Path: ".", Err: err})
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		for _, pat := range opts.AuxDirs {
			matched, _ := filepath.Match(pat, e.Name())
			if matched || pat == e.Name() {
				remove(root, e.Name(), results)
				break
			}
		}
	}
}

func pruneRoot(
	root string, opts PruneOptions, results *[]ItemResult,
) {
	keep := map[string]bool{}
	for _, name := range opts.RootKeep {
		keep[name] = true
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		*results = append(*results, ItemResult{Path: ".", Err: err})
		return
	}
	for _, e := range entries {
		// Root symlinks go regardless of name.
		if e.Type()&fs.ModeSymlink != 0 {
			remove(root, e.Name(), results)
			continue
		}
		if keep[e.Name()] {
			continue
		}
		remove(root, e.Name(), results)
	}
}

func stripMetadata(
	root string, opts PruneOptions, results *[]ItemResult,
) {
	filepath.WalkDir(
		root,
		func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			rel, relErr := filepath.Rel(root, p)
			if relErr != nil || rel == "." {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if d.Name() == "docs" {
					remove(root, rel, results)
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				remove(root, rel, results)
				return nil
			}
			if stripName(d.Name()) &&
				!protectedReadme(rel, d.Name(), opts.RootCrate) {
				remove(root, rel, results)
			}
			return nil
		},
	)
}

func stripName(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range stripPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	for _, s := range stripSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// protectedReadme reports whether this is the root crate's own
// readme.md, which must survive the strip.
func protectedReadme(rel, name, rootCrate string) bool {
	if strings.ToLower(name) != "readme.md" {
		return false
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == rootCrate {
			return true
		}
	}
	return false
}

func remove(root, rel string, results *[]ItemResult) {
	err := os.RemoveAll(filepath.Join(root, rel))
	*results = append(*results, ItemResult{
		Path: filepath.ToSlash(rel), Err: err,
	})
}
