// Package batch packs independent files in parallel.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/google/uuid"
)

// Job is one file to pack.
type Job struct {
	ID     string
	Input  string
	Output string
}

// NewJob returns a job writing to output, or back to input when output is
// empty.
func NewJob(input, output string) Job {
	if output == "" {
		output = input
	}
	return Job{ID: uuid.NewString(), Input: input, Output: output}
}

// Overwrites reports whether the job replaces its own input.
func (j Job) Overwrites() bool { return j.Output == j.Input }

// Func handles one job.
type Func func(ctx context.Context, job Job) (Result, error)

// Run calls fn for every job with at most limit in flight. Results are in
// input order. The first failure cancels jobs that have not started; the
// returned error names the failing input.
func Run(ctx context.Context, jobs []Job, limit int, fn Func) ([]Result, error) {
	if limit < 1 {
		limit = 1
	}
	results := make([]Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, job)
			r.Job = job
			results[i] = r
			if err != nil {
				return fmt.Errorf("%s: %w", job.Input, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
