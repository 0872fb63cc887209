package simind

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"simindstir/pkg/interfile"
)

// Job is one header conversion
type Job struct {
	Header  string
	Contour string
}

// Result is the outcome of a Job
type Result struct {
	Job
	Output string
	Err    error
}

// ConvertAll converts independent headers concurrently with at most
// workers conversions in flight (runtime.NumCPU() when workers <= 0).
// Results are returned in job order. A failed job does not stop the
// others; the returned error joins every job error. Jobs writing to the
// same output path are rejected before anything is converted.
func (c *Converter) ConvertAll(ctx context.Context, jobs []Job, workers int) ([]Result, error) {
	seen := make(map[string]string, len(jobs))
	for _, j := range jobs {
		out := c.OutputPath(j.Header)
		if prev, ok := seen[out]; ok {
			return nil, fmt.Errorf("%w: %s and %s both convert to %s", interfile.ErrFatalInput, prev, j.Header, out)
		}
		seen[out] = j.Header
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			results[i].Job = j
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Output, results[i].Err = c.Convert(j.Header, j.Contour)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Header, r.Err))
		}
	}
	return results, errors.Join(errs...)
}
