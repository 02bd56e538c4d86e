// Package manifest reads and rewrites Cargo.toml files. Documents are
// decoded into generic tables so that fields the job never touches are
// re-encoded unchanged.
package manifest

import (
	"fmt"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Document is a parsed Cargo.toml.
type Document struct {
	root map[string]any
}

// Load reads and parses a Cargo.toml file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse parses Cargo.toml content.
func Parse(data []byte) (*Document, error) {
	root := map[string]any{}
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing manifest TOML: %w", err)
	}
	return &Document{root: root}, nil
}

// Save encodes the document and writes it back to path, keeping the
// existing file's permissions when it is already present.
func (d *Document) Save(path string) error {
	data, err := d.Encode()
	if err != nil {
		return err
	}
	perm := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Encode serializes the document to TOML.
func (d *Document) Encode() ([]byte, error) {
	data, err := toml.Marshal(d.root)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return data, nil
}

// table walks nested tables by key, returning nil if any level is
// missing or not a table.
func (d *Document) table(keys ...string) map[string]any {
	cur := d.root
	for _, k := range keys {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// Members returns workspace.members, or nil if absent.
func (d *Document) Members() []string {
	ws := d.table("workspace")
	if ws == nil {
		return nil
	}
	return stringSlice(ws["members"])
}

// SetMembers replaces workspace.members.
func (d *Document) SetMembers(members []string) {
	if ws := d.table("workspace"); ws != nil {
		ws["members"] = anySlice(members)
	}
}

// DefaultMembers returns workspace.default-members and whether the
// list is present at all.
func (d *Document) DefaultMembers() ([]string, bool) {
	ws := d.table("workspace")
	if ws == nil {
		return nil, false
	}
	raw, ok := ws["default-members"]
	if !ok {
		return nil, false
	}
	return stringSlice(raw), true
}

// SetDefaultMembers replaces workspace.default-members.
func (d *Document) SetDefaultMembers(members []string) {
	if ws := d.table("workspace"); ws != nil {
		ws["default-members"] = anySlice(members)
	}
}

// WorkspaceDependencies returns the workspace.dependencies table, or
// nil if absent. The returned map aliases the document.
func (d *Document) WorkspaceDependencies() map[string]any {
	return d.table("workspace", "dependencies")
}

// RemoveWorkspaceDependency drops one entry from
// workspace.dependencies.
func (d *Document) RemoveWorkspaceDependency(name string) {
	if deps := d.table("workspace", "dependencies"); deps != nil {
		delete(deps, name)
	}
}

// DependencyPath extracts the "path" field from a dependency
// definition, which may be a table or a bare version string.
func DependencyPath(def any) (string, bool) {
	table, ok := def.(map[string]any)
	if !ok {
		return "", false
	}
	p, ok := table["path"].(string)
	return p, ok
}

// Profiles returns the top-level profile table, or nil if absent.
func (d *Document) Profiles() map[string]any {
	return d.table("profile")
}

// PrunePackageOverrides removes profile.<name>.package entries whose
// package name fails the keep predicate. Empty package tables left
// behind are removed too.
func (d *Document) PrunePackageOverrides(keep func(pkg string) bool) {
	for _, raw := range d.Profiles() {
		prof, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		pkgs, ok := prof["package"].(map[string]any)
		if !ok {
			continue
		}
		for name := range pkgs {
			if !keep(name) {
				delete(pkgs, name)
			}
		}
		if len(pkgs) == 0 {
			delete(prof, "package")
		}
	}
}

// dependency categories read during closure resolution, both at the
// top level and under every target.<cfg> table.
var depCategories = []string{
	"dependencies",
	"dev-dependencies",
	"build-dependencies",
}

// DependencyNames returns every dependency name declared by a crate
// manifest across all categories and per-target variants. Duplicates
// are collapsed.
func (d *Document) DependencyNames() []string {
	seen := map[string]bool{}
	var names []string
	collect := func(table map[string]any) {
		for _, cat := range depCategories {
			deps, ok := table[cat].(map[string]any)
			if !ok {
				continue
			}
			for name := range deps {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
	}
	collect(d.root)
	for _, raw := range d.table("target") {
		if cfg, ok := raw.(map[string]any); ok {
			collect(cfg)
		}
	}
	return names
}

// RemoveDependency drops name from the crate's dependencies table and
// strips feature entries referencing it ("dep:name", "name/feature",
// or the bare name), so the manifest stays consistent after an
// optional dependency is removed. Reports whether anything changed.
func (d *Document) RemoveDependency(name string) bool {
	changed := false
	if deps := d.table("dependencies"); deps != nil {
		if _, ok := deps[name]; ok {
			delete(deps, name)
			changed = true
		}
	}
	feats := d.table("features")
	for feat, raw := range feats {
		entries := stringSlice(raw)
		var kept []string
		for _, e := range entries {
			if referencesDependency(e, name) {
				changed = true
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) != len(entries) {
			feats[feat] = anySlice(kept)
		}
	}
	return changed
}

func referencesDependency(entry, dep string) bool {
	return entry == dep ||
		entry == "dep:"+dep ||
		strings.HasPrefix(entry, dep+"/") ||
		strings.HasPrefix(entry, dep+"?/")
}

func stringSlice(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
