package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/urfave/cli/v3"

	"github.com/psp-tools/psp-packer/internal/api"
	"github.com/psp-tools/psp-packer/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		maxBodySize int64
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the packer over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.Int64Flag{
				Name:        "max-body-size",
				Usage:       "largest accepted request body in bytes",
				Value:       api.DefaultMaxBodySize,
				Destination: &maxBodySize,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, &addr, &maxBodySize)

			tags, err := resolveTags(cmd.Root())
			if err != nil {
				return err
			}
			server := api.NewServer(api.Config{
				MaxBodySize: maxBodySize,
				Tags:        tags,
				Log:         log,
			})
			e := api.NewEcho(server)
			log.Info("starting server", "address", addr, "max_body_size", maxBodySize)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, addr *string, maxBodySize *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxBodySize != nil && !c.IsSet("max-body-size") {
		*maxBodySize = *cfg.MaxBodySize
	}
}
