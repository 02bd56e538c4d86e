package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/carve-dev/carve/pkg/config"
	"github.com/carve-dev/carve/pkg/job"
)

func resolveCmd() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "print the local-dependency closure of a workspace",
		ArgsUsage: "<workspaceDir>",
		Action:    resolveAction,
	}
}

func resolveAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: carve resolve <workspaceDir>")
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	closure, err := job.CollectClosure(c.Args().Get(0), cfg)
	if err != nil {
		return err
	}

	crates := make([]string, 0, len(closure))
	for crate := range closure {
		crates = append(crates, crate)
	}
	sort.Strings(crates)
	for _, crate := range crates {
		fmt.Println(crate)
	}
	return nil
}
