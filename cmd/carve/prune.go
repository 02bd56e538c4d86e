package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/carve-dev/carve/pkg/config"
	"github.com/carve-dev/carve/pkg/job"
	"github.com/carve-dev/carve/pkg/tree"
)

func pruneCmd() *cli.Command {
	return &cli.Command{
		Name:      "prune",
		Usage:     "prune and rewrite an already-extracted workspace in place",
		ArgsUsage: "<workspaceDir>",
		Action:    pruneAction,
	}
}

func pruneAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: carve prune <workspaceDir>")
	}
	root := c.Args().Get(0)
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	closure, err := job.CollectClosure(root, cfg)
	if err != nil {
		return err
	}

	results := tree.Prune(root, tree.PruneOptions{
		CratesDir: cfg.CratesDir,
		RootCrate: cfg.RootCrate,
		Closure:   closure,
		AuxDirs:   cfg.AuxDirs,
		RootKeep:  cfg.RootKeep,
	})
	for _, r := range tree.Skips(results) {
		fmt.Printf("  skipped %s (%v)\n", r.Path, r.Err)
	}

	if err := job.Rewrite(root, cfg); err != nil {
		return err
	}
	fmt.Printf(
		"Pruned to %d crates rooted at %s\n",
		len(closure), cfg.RootCrate,
	)
	return nil
}
