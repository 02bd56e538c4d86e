// Package patch applies a small, explicit set of known-incompatibility
// patches to specific files. Each patch is a plain data record keyed on
// an exact anchor text.
package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/carve-dev/carve/pkg/paths"
)

// Patch replaces one exact anchor text in one file.
type Patch struct {
	File        string `yaml:"file"`
	Anchor      string `yaml:"anchor"`
	Replacement string `yaml:"replacement"`
}

// Result reports the outcome of one patch.
type Result struct {
	File    string
	Applied bool
	Reason  string
}

// Apply applies each patch under root. Application is idempotent: a
// file that already carries the replacement (and no longer the
// anchor) is left alone. A missing file or absent anchor is a skip,
// not an error; only read/write failures surface in the reason.
func Apply(root string, patches []Patch) []Result {
	results := make([]Result, 0, len(patches))
	for _, p := range patches {
		results = append(results, applyOne(root, p))
	}
	return results
}

func applyOne(root string, p Patch) Result {
	if err := paths.ValidateRelPath(p.File); err != nil {
		return Result{
			File:   p.File,
			Reason: fmt.Sprintf("path: %v", err),
		}
	}
	path := filepath.Join(root, filepath.FromSlash(p.File))
	if !paths.IsWithinDir(root, path) {
		return Result{File: p.File, Reason: "path escapes tree"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{
			File:   p.File,
			Reason: fmt.Sprintf("read: %v", err),
		}
	}
	text := string(data)

	if !strings.Contains(text, p.Anchor) {
		if strings.Contains(text, p.Replacement) {
			return Result{
				File:   p.File,
				Reason: "already applied",
			}
		}
		return Result{
			File:   p.File,
			Reason: "anchor not found",
		}
	}

	text = strings.Replace(text, p.Anchor, p.Replacement, 1)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return Result{
			File:   p.File,
			Reason: fmt.Sprintf("write: %v", err),
		}
	}
	return Result{File: p.File, Applied: true}
}
