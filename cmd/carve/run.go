package main

import (
	"github.com/urfave/cli/v2"

	"github.com/carve-dev/carve/pkg/config"
	"github.com/carve-dev/carve/pkg/job"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run the full extraction and mirror pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "work-dir",
				Usage: "scratch directory (default: temp dir)",
			},
			&cli.BoolFlag{
				Name:  "keep-work",
				Usage: "keep the scratch directory",
			},
			&cli.BoolFlag{
				Name:  "skip-build",
				Usage: "skip cargo build verification",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "stop before publishing",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()

	return job.Run(ctx, cfg, job.Options{
		WorkDir:   c.String("work-dir"),
		KeepWork:  c.Bool("keep-work"),
		SkipBuild: c.Bool("skip-build"),
		DryRun:    c.Bool("dry-run"),
	})
}
