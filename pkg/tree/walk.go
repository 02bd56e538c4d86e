package tree

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Walk returns the set of slash-separated relative paths (files and
// directories) under root. The root itself is not included.
func Walk(root string) (map[string]bool, error) {
	set := map[string]bool{}
	err := filepath.WalkDir(
		root,
		func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if rel == "." {
				return nil
			}
			set[rel] = true
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Reconcile deletes entries under dir whose relative path is absent
// from keep, skipping anything under a protected prefix and any
// exactly-protected path. Deleted directories are removed whole and
// not descended into. Failures are recorded, not raised.
func Reconcile(
	dir string,
	keep map[string]bool,
	protectedPrefixes, protectedPaths []string,
) []ItemResult {
	var results []ItemResult
	filepath.WalkDir(
		dir,
		func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			rel, relErr := filepath.Rel(dir, p)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if rel == "." {
				return nil
			}
			if underPrefix(rel, protectedPrefixes) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			for _, pp := range protectedPaths {
				if rel == pp {
					return nil
				}
			}
			if keep[rel] {
				return nil
			}
			rmErr := os.RemoveAll(p)
			results = append(results, ItemResult{
				Path: rel, Err: rmErr,
			})
			if d.IsDir() && rmErr == nil {
				return filepath.SkipDir
			}
			return nil
		},
	)
	return results
}

func underPrefix(rel string, prefixes []string) bool {
	for _, p := range prefixes {
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}
