// Package tree holds the filesystem primitives of the extraction job:
// best-effort recursive copy, path-set walking, mirror reconciliation,
// and the pruning pass.
package tree

import (
	"io"
	"os"
	"path/filepath"
)

// ItemResult records the outcome for one filesystem entry during a
// best-effort pass. Err is nil when the item was handled.
type ItemResult struct {
	Path string
	Err  error
}

// Skips returns the subset of results that failed.
func Skips(results []ItemResult) []ItemResult {
	var out []ItemResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// CopyTree recursively duplicates everything under src into dst,
// creating directories as needed. Symlinks are dereferenced: the
// target's content is copied, not the link. Per-item failures
// (dangling links, unreadable files) are recorded and skipped so a
// single bad entry never aborts the pass. Monorepo checkouts are
// expected to contain dangling links from optional submodules.
func CopyTree(src, dst string) ([]ItemResult, error) {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return nil, err
	}
	var results []ItemResult
	copyDir(src, dst, "", &results)
	return results, nil
}

func copyDir(src, dst, rel string, results *[]ItemResult) {
	entries, err := os.ReadDir(filepath.Join(src, rel))
	if err != nil {
		*results = append(*results, ItemResult{Path: rel, Err: err})
		return
	}
	for _, e := range entries {
		itemRel := filepath.Join(rel, e.Name())
		from := filepath.Join(src, itemRel)
		to := filepath.Join(dst, itemRel)

		// Stat follows symlinks, so linked files and directories
		// are copied as their targets. Dangling links fail here
		// and are skipped.
		info, err := os.Stat(from)
		if err != nil {
			*results = append(*results, ItemResult{
				Path: filepath.ToSlash(itemRel), Err: err,
			})
			continue
		}

		if info.IsDir() {
			if err := os.MkdirAll(to, 0755); err != nil {
				*results = append(*results, ItemResult{
					Path: filepath.ToSlash(itemRel), Err: err,
				})
				continue
			}
			copyDir(src, dst, itemRel, results)
			continue
		}

		err = copyFile(from, to, info.Mode().Perm())
		*results = append(*results, ItemResult{
			Path: filepath.ToSlash(itemRel), Err: err,
		})
	}
}

func copyFile(from, to string, perm os.FileMode) error {
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(
		to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm,
	)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}
