// Package config holds the job configuration: which workspace to
// extract, which crate to keep, what to strip, and where to publish.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/carve-dev/carve/pkg/patch"
	"github.com/carve-dev/carve/pkg/paths"
)

// StripDep names an optional dependency removed from one crate's
// manifest during the rewrite stage.
type StripDep struct {
	Crate      string `yaml:"crate"`
	Dependency string `yaml:"dependency"`
}

// Config is the extraction job configuration.
type Config struct {
	// SourceURL is the monorepo to extract from.
	SourceURL string `yaml:"source_url"`
	// MirrorURL is the publication repository. Empty skips the
	// publish stage.
	MirrorURL string `yaml:"mirror_url"`
	// RootCrate is the crate whose closure is extracted.
	RootCrate string `yaml:"root_crate"`
	// CratesDir is the crates root inside the workspace.
	CratesDir string `yaml:"crates_dir"`
	// AuxDirs are top-level directories removed whole.
	AuxDirs []string `yaml:"aux_dirs"`
	// RootKeep is the allow-list of root-level names that survive
	// pruning.
	RootKeep []string `yaml:"root_keep"`
	// Protected are path prefixes the mirror reconciliation never
	// deletes (version-control and CI metadata).
	Protected []string `yaml:"protected"`
	// ProtectedFiles are exact mirror paths never deleted.
	ProtectedFiles []string `yaml:"protected_files"`
	// Strip lists optional dependencies removed from specific
	// crates.
	Strip []StripDep `yaml:"strip"`
	// Patches are applied after the manifest rewrite.
	Patches []patch.Patch `yaml:"patches"`
}

// Default returns the gpui extraction profile.
func Default() *Config {
	return &Config{
		SourceURL: "https://github.com/zed-industries/zed.git",
		RootCrate: "gpui",
		CratesDir: "crates",
		AuxDirs: []string{
			".github",
			"assets",
			"docs",
			"extensions",
			"script",
			"tooling",
		},
		RootKeep: []string{
			"Cargo.toml",
			"Cargo.lock",
			"rust-toolchain.toml",
			"clippy.toml",
			".gitignore",
			"crates",
			"target",
		},
		Protected:      []string{".git", ".github"},
		ProtectedFiles: []string{"README.md"},
		Strip: []StripDep{
			{Crate: "util", Dependency: "perf"},
		},
		Patches: []patch.Patch{
			{
				File:   "crates/util/src/util.rs",
				Anchor: "use perf::profiled;",
				Replacement: strings.Join([]string{
					"// Inlined replacement for the optional perf",
					"// instrumentation macro, dropped from the",
					"// extracted tree.",
					"macro_rules! profiled {",
					"    ($($tt:tt)*) => {};",
					"}",
					"pub(crate) use profiled;",
				}, "\n"),
			},
		},
	}
}

// Load reads a YAML config file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML config content over the defaults, so omitted
// fields keep their default values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SourceURL == "" {
		return fmt.Errorf("config: source_url is required")
	}
	if c.RootCrate == "" {
		return fmt.Errorf("config: root_crate is required")
	}
	if c.CratesDir == "" {
		return fmt.Errorf("config: crates_dir is required")
	}
	if err := validatePath(c.CratesDir, "crates_dir"); err != nil {
		return err
	}
	for i, s := range c.Strip {
		if s.Crate == "" || s.Dependency == "" {
			return fmt.Errorf(
				"config: strip[%d] needs crate and dependency", i,
			)
		}
	}
	for i, p := range c.Patches {
		if p.File == "" || p.Anchor == "" {
			return fmt.Errorf(
				"config: patches[%d] needs file and anchor", i,
			)
		}
		label := fmt.Sprintf("patches[%d].file", i)
		if err := validatePath(p.File, label); err != nil {
			return err
		}
	}
	return nil
}

// validatePath ensures a configured path is relative and stays
// inside the tree it is applied to.
func validatePath(p, label string) error {
	if err := paths.ValidateRelPath(p); err != nil {
		return fmt.Errorf("config: %s: %w", label, err)
	}
	return nil
}
