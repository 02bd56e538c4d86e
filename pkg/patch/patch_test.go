package patch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stub = Patch{
	File:        "crates/util/src/util.rs",
	Anchor:      "use perf::profiled;",
	Replacement: "macro_rules! profiled { ($($tt:tt)*) => {}; }",
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(
		filepath.Join(root, filepath.FromSlash(rel)),
	)
	require.NoError(t, err)
	return string(data)
}

func TestApply(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, stub.File,
		"use perf::profiled;\n\npub fn measure() {}\n",
	)

	results := Apply(root, []Patch{stub})
	require.Len(t, results, 1)
	assert.True(t, results[0].Applied)

	text := readFile(t, root, stub.File)
	assert.NotContains(t, text, stub.Anchor)
	assert.Contains(t, text, stub.Replacement)
	assert.Contains(t, text, "pub fn measure() {}")
}

func TestApplyIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, stub.File, "use perf::profiled;\n")

	first := Apply(root, []Patch{stub})
	require.True(t, first[0].Applied)
	after := readFile(t, root, stub.File)

	second := Apply(root, []Patch{stub})
	assert.False(t, second[0].Applied)
	assert.Equal(t, "already applied", second[0].Reason)
	assert.Equal(t, after, readFile(t, root, stub.File))
}

func TestApplyAnchorNotFound(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, stub.File, "pub fn unrelated() {}\n")

	results := Apply(root, []Patch{stub})
	assert.False(t, results[0].Applied)
	assert.Equal(t, "anchor not found", results[0].Reason)
}

func TestApplyMissingFile(t *testing.T) {
	results := Apply(t.TempDir(), []Patch{stub})
	assert.False(t, results[0].Applied)
	assert.Contains(t, results[0].Reason, "read:")
}

func TestApplyRejectsEscapingPath(t *testing.T) {
	results := Apply(t.TempDir(), []Patch{{
		File:        "../outside.rs",
		Anchor:      "a",
		Replacement: "b",
	}})
	assert.False(t, results[0].Applied)
	assert.Contains(t, results[0].Reason, "path")
}

func TestApplyFirstOccurrenceOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, stub.File,
		"use perf::profiled;\nuse perf::profiled;\n",
	)

	Apply(root, []Patch{stub})
	text := readFile(t, root, stub.File)
	assert.Contains(t, text, "use perf::profiled;")
	assert.Contains(t, text, stub.Replacement)
}
