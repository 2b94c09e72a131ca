package resample

import (
	"context"
	"fmt"
	"runtime"

	"github.com/okian/vitalrace/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

// Option applies a configuration option to ResampleCohort.
type Option func(*cohortConfig)

type cohortConfig struct {
	workers int
}

// WithWorkers bounds the number of subjects resampled concurrently.
func WithWorkers(n int) Option {
	return func(c *cohortConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// ResampleCohort resamples metricID for every subject in ds that carries it.
// Subjects are independent, so they are resampled in parallel and joined
// before returning. The first failure cancels the rest.
func ResampleCohort(ctx context.Context, ds model.Dataset, metricID string, pointCount int, opts ...Option) (map[string]model.ResampledSeries, error) {
	cfg := cohortConfig{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&cfg)
	}

	subjects := ds.SubjectsWith(metricID)
	if len(subjects) == 0 {
		return nil, &model.UnknownKeyError{MetricID: metricID}
	}

	results := make([]model.ResampledSeries, len(subjects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i, subjectID := range subjects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("resample cancelled: %w", err)
			}
			series, err := ds.Series(subjectID, metricID)
			if err != nil {
				return err
			}
			r, err := Resample(series, pointCount)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]model.ResampledSeries, len(subjects))
	for i, subjectID := range subjects {
		out[subjectID] = results[i]
	}
	return out, nil
}
