package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/psp-tools/psp-packer/pkg/packerr"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "psp-packer",
		Usage:     "Pack PRX modules and EBOOT.PBP files into the ~PSP format",
		ArgsUsage: "FILE...",
		Flags:     append(loggingFlags(), packFlags()...),
		Before:    setup,
		Action:    packAction,
		Commands: []*cli.Command{
			inspectCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().Run(ctx, os.Args)
	stop()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "psp-packer: %v\n", err)
		os.Exit(packerr.Code(err))
	}
}
