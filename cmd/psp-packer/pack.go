package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/psp-tools/psp-packer/internal/batch"
	"github.com/psp-tools/psp-packer/internal/logger"
	"github.com/psp-tools/psp-packer/pkg/psp"
)

var errNoInput = errors.New("missing FILE argument")

func packAction(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		_ = cli.ShowAppHelp(cmd)
		return errNoInput
	}
	if outputPath != "" && len(files) > 1 {
		return errors.New("--output needs exactly one input file")
	}

	tags, err := resolveTags(cmd)
	if err != nil {
		return err
	}

	queue := make([]batch.Job, len(files))
	for i, f := range files {
		queue[i] = batch.NewJob(f, outputPath)
	}

	p := &batch.Packer{
		Options: psp.Options{Tags: tags},
		DryRun:  dryRun,
		Log:     logger.FromContext(ctx),
	}
	_, err = batch.Run(ctx, queue, int(jobs), p.Pack)
	return err
}
