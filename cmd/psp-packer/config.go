package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/psp-tools/psp-packer/internal/config"
	"github.com/psp-tools/psp-packer/internal/logger"
	"github.com/psp-tools/psp-packer/pkg/psp"
)

// cfg is the loaded config file; setup fills it before any action runs.
var cfg config.Config

// setup loads the config file, applies it under the explicit flags and
// installs the logger in the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path, explicit := config.DefaultPath(), cmd.IsSet("config")
	if explicit {
		path = configFile
	}
	loaded, err := config.Load(path, explicit)
	if err != nil {
		return ctx, err
	}
	cfg = loaded
	applyRootConfig(cmd, cfg)

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return ctx, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	log, err := logger.NewWithFormat(os.Stderr, logFormat, level)
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

func applyRootConfig(c *cli.Command, cfg config.Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if cfg.Jobs != nil && !c.IsSet("jobs") {
		jobs = int64(*cfg.Jobs)
	}
}

// resolveTags returns the tags from --tags, else from the config file,
// else nil for the per-kind defaults.
func resolveTags(c *cli.Command) (*psp.Tags, error) {
	if !c.IsSet("tags") {
		return cfg.Tags()
	}
	tag, oeTag, ok := strings.Cut(tagsFlag, ",")
	if !ok {
		return nil, fmt.Errorf("--tags wants TAG,OE_TAG, got %q", tagsFlag)
	}
	t, err := psp.ParseTags(strings.TrimSpace(tag), strings.TrimSpace(oeTag))
	if err != nil {
		return nil, err
	}
	return &t, nil
}
