package main

import (
	"fmt"
	"os/exec"

	"github.com/urfave/cli/v2"

	"github.com/carve-dev/carve/pkg/config"
	"github.com/carve-dev/carve/pkg/gitcmd"
)

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:   "doctor",
		Usage:  "verify required tools and configuration",
		Action: doctorAction,
	}
}

func doctorAction(c *cli.Context) error {
	ok := true

	if gitcmd.Installed() {
		fmt.Println("  git: ok")
	} else {
		fmt.Println("  git: MISSING (required)")
		ok = false
	}

	if _, err := exec.LookPath("cargo"); err == nil {
		fmt.Println("  cargo: ok")
	} else {
		fmt.Println("  cargo: missing (build verification will be skipped)")
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		fmt.Printf("  config: FAIL (%v)\n", err)
		return fmt.Errorf("doctor checks failed")
	}
	fmt.Printf(
		"  config: ok (root crate %s, source %s)\n",
		cfg.RootCrate, cfg.SourceURL,
	)
	if cfg.MirrorURL == "" {
		fmt.Println("  mirror: not configured (publish will be skipped)")
	} else {
		fmt.Printf("  mirror: %s\n", cfg.MirrorURL)
	}

	if !ok {
		return fmt.Errorf("doctor checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}
