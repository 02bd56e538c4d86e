// Package resolve computes the local-dependency closure of a root
// crate: the set of workspace crates transitively required to build
// it, following only dependencies whose definition carries a path
// inside the crates directory.
package resolve

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/carve-dev/carve/pkg/manifest"
)

// LocalCrates maps workspace dependency names to crate directory
// names, for dependencies whose path points under cratesDir. The map
// is consumed by Closure and discarded.
func LocalCrates(
	deps map[string]any,
	cratesDir string,
) map[string]string {
	prefix := cratesDir + "/"
	local := map[string]string{}
	for name, def := range deps {
		p, ok := manifest.DependencyPath(def)
		if !ok {
			continue
		}
		p = path.Clean(filepath.ToSlash(p))
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		local[name] = strings.TrimPrefix(p, prefix)
	}
	return local
}

// Closure returns the set of crate directory names reachable from
// rootCrate through local dependency edges. A crate whose manifest
// is missing or unreadable contributes no edges. Cycles terminate
// via the visited set. Only the set is meaningful; traversal order
// is unspecified.
func Closure(
	workspaceRoot, cratesDir, rootCrate string,
	local map[string]string,
) map[string]bool {
	visited := map[string]bool{rootCrate: true}
	queue := []string{rootCrate}

	for len(queue) > 0 {
		crate := queue[0]
		queue = queue[1:]

		doc, err := manifest.Load(filepath.Join(
			workspaceRoot, cratesDir, crate, "Cargo.toml",
		))
		if err != nil {
			continue
		}

		for _, dep := range doc.DependencyNames() {
			dir, ok := local[dep]
			if !ok || visited[dir] {
				continue
			}
			visited[dir] = true
			queue = append(queue, dir)
		}
	}
	return visited
}
