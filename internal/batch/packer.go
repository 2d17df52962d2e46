package batch

import (
	"context"

	"github.com/dustin/go-humanize"

	"github.com/psp-tools/psp-packer/internal/loader"
	"github.com/psp-tools/psp-packer/internal/logger"
	"github.com/psp-tools/psp-packer/pkg/psp"
)

// Result describes one finished job.
type Result struct {
	Job        Job
	Kind       psp.Kind
	InputSize  int
	OutputSize int
	Written    bool
	Err        error
}

// Packer packs files from disk.
type Packer struct {
	Options psp.Options
	// DryRun runs the pipeline without writing anything.
	DryRun bool
	Log    logger.Logger
}

// Pack is a Func that loads job.Input, packs it and writes job.Output.
func (p *Packer) Pack(ctx context.Context, job Job) (Result, error) {
	log := p.Log
	if log == nil {
		log = logger.FromContext(ctx)
	}
	log = log.With("job", job.ID, "file", job.Input)

	res := Result{Job: job}
	fail := func(err error) (Result, error) {
		res.Err = err
		return res, err
	}

	in, err := loader.Open(job.Input)
	if err != nil {
		return fail(err)
	}
	defer func() { _ = in.Close() }()
	res.InputSize = len(in.Data)
	log.Debug("loaded", "size", res.InputSize, "mapped", in.Mapped())

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	packed, err := psp.Pack(in.Data, p.Options)
	if err != nil {
		return fail(err)
	}
	res.Kind = packed.Kind
	res.OutputSize = packed.Size()

	switch {
	case p.DryRun:
		log.Info("not writing to file due to dry run")
	default:
		if job.Overwrites() {
			log.Info("no output given, overwriting input")
		}
		if err := loader.WriteFile(job.Output, packed.Bytes(), in.Mode); err != nil {
			return fail(err)
		}
		res.Written = true
	}

	log.Info("packed",
		"kind", packed.Kind.String(),
		"decrypt_mode", packed.Mode.Decrypt.String(),
		"original", humanize.IBytes(uint64(res.InputSize)),
		"original_bytes", res.InputSize,
		"compressed", humanize.IBytes(uint64(res.OutputSize)),
		"compressed_bytes", res.OutputSize,
	)
	return res, nil
}
