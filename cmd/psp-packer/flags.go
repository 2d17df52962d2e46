package main

import "github.com/urfave/cli/v3"

var (
	configFile string
	logLevel   string
	logFormat  string
	verbose    bool

	outputPath string
	tagsFlag   string
	dryRun     bool
	jobs       int64
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "warn",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"v"},
			Usage:       "verbose output to stderr (shorthand for --log-level=debug)",
			Destination: &verbose,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config file",
			Destination: &configFile,
		},
	}
}

func packFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "write the packed file to `OUT_FILE` instead of overwriting the input",
			Destination: &outputPath,
		},
		&cli.StringFlag{
			Name:        "tags",
			Aliases:     []string{"s"},
			Usage:       "header tags as `TAG,OE_TAG` (decimal or 0x hex)",
			Destination: &tagsFlag,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Aliases:     []string{"n"},
			Usage:       "don't actually write the compressed file",
			Destination: &dryRun,
		},
		&cli.Int64Flag{
			Name:        "jobs",
			Aliases:     []string{"j"},
			Usage:       "files to pack in parallel",
			Value:       1,
			Destination: &jobs,
		},
	}
}
