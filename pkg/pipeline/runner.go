package pipeline

import (
	"context"
	"fmt"

	"github.com/complyscope/complyscope/pkg/defaults"
	"github.com/complyscope/complyscope/pkg/duration"
	"github.com/complyscope/complyscope/pkg/workerpool"
)

// Job is one scan for the Runner.
type Job struct {
	Scan   ScanContext
	Policy Policy
	Source Source
	Sink   Sink
}

// Runner evaluates independent scans concurrently on a bounded pool.
// Policies may be shared between jobs; they are only read.
type Runner struct {
	pool *workerpool.Pool
	opts Options
}

// NewRunner returns a runner with the given concurrency, clamped to
// [1, defaults.ConcurrencyMax].
func NewRunner(concurrency int, opts Options) *Runner {
	if concurrency < 1 {
		concurrency = defaults.Concurrency
	}
	if concurrency > defaults.ConcurrencyMax {
		concurrency = defaults.ConcurrencyMax
	}
	return &Runner{pool: workerpool.New(concurrency), opts: opts}
}

// Run processes jobs and returns reports and errors in job order. Each
// scan is bounded by duration.ScanEvaluation.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]*Report, []error) {
	return workerpool.Map(ctx, r.pool, jobs, func(ctx context.Context, job Job) (*Report, error) {
		ctx, cancel := context.WithTimeout(ctx, duration.ScanEvaluation)
		defer cancel()
		rep, err := Process(ctx, job.Scan, job.Policy, job.Source, job.Sink, r.opts)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", job.Scan.ScanID, err)
		}
		return rep, nil
	})
}

// Close stops the pool. Run must not be called afterwards.
func (r *Runner) Close() {
	r.pool.Close()
}
