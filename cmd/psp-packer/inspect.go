package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/psp-tools/psp-packer/internal/loader"
	"github.com/psp-tools/psp-packer/pkg/psp"
)

func inspectCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Describe a PRX, PBP or packed file without writing anything",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the report as JSON",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("inspect needs exactly one FILE")
			}
			tags, err := resolveTags(cmd.Root())
			if err != nil {
				return err
			}

			in, err := loader.Open(cmd.Args().First())
			if err != nil {
				return err
			}
			defer func() { _ = in.Close() }()

			report, err := psp.Inspect(in.Data, tags)
			if err != nil {
				return fmt.Errorf("%s: %w", in.Path, err)
			}

			w := cmd.Root().Writer
			if asJSON {
				b, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(w, "%s\n", b)
				return err
			}
			return printReport(w, in.Path, report)
		},
	}
}

func printReport(w io.Writer, path string, r *psp.Report) error {
	var b strings.Builder
	row := func(k, format string, args ...any) {
		fmt.Fprintf(&b, "%-18s "+format+"\n", append([]any{k + ":"}, args...)...)
	}

	row("file", "%s (%s)", path, humanize.IBytes(uint64(r.FileSize)))
	state := "unpacked"
	if r.Packed {
		state = "packed"
	}
	kind := r.Kind
	if kind == "" {
		kind = "prx"
	}
	row("kind", "%s, %s", kind, state)
	row("image", "%#x + %s (%d B)", r.ImageOffset, humanize.IBytes(uint64(r.ImageSize)), r.ImageSize)
	row("module", "%s v%d.%d", r.Module.Name, r.Module.VersionHigh, r.Module.VersionLow)
	row("attribute", "%#04x %s", uint16(r.Module.Attribute), strings.Join(r.Module.Flags, ","))
	row("module info", "%#08x", r.ModuleInfoOffset)
	row("entry", "%#08x", r.Entry)
	for i, s := range r.Segments {
		row(fmt.Sprintf("segment %d", i), "addr=%#08x size=%#x align=%#x", s.Addr, s.Size, s.Align)
	}
	row("bss", "%#x", r.BSSSize)
	if r.Rule != "" {
		row("decrypt mode", "%s (%s)", r.DecryptMode, r.Rule)
	} else {
		row("decrypt mode", "%s", r.DecryptMode)
	}
	row("devkit", "%#08x", r.DevkitVersion)
	row("tags", "%#08x %#08x", r.Tags.Tag, r.Tags.OETag)
	if r.Packed {
		row("compressed", "%s (%d B)", humanize.IBytes(uint64(r.CompressedSize)), r.CompressedSize)
		row("psp size", "%s (%d B)", humanize.IBytes(uint64(r.PSPSize)), r.PSPSize)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
