// Package repository holds the loaded dataset and the resampled series
// derived from it.
package repository

import (
	"context"

	"github.com/okian/vitalrace/internal/domain/model"
)

// Store provides read/write access to raw series and their resampled form.
type Store interface {
	// Put replaces the samples of one subject and metric. Cached resamples of
	// that metric are discarded.
	Put(ctx context.Context, subjectID, metricID string, samples []model.Sample) error
	// Replace swaps the whole dataset and clears every cache.
	Replace(ctx context.Context, ds model.Dataset) error

	// Series returns one series or an UnknownKeyError.
	Series(ctx context.Context, subjectID, metricID string) (model.Series, error)
	// Dataset returns a copy of the stored dataset.
	Dataset(ctx context.Context) model.Dataset
	Subjects(ctx context.Context) []string
	Metrics(ctx context.Context) []string

	// Resampled returns every subject's series for metricID resampled to
	// pointCount points, computing it on first use.
	Resampled(ctx context.Context, metricID string, pointCount int) (map[string]model.ResampledSeries, error)

	// Count returns the number of stored series.
	Count(ctx context.Context) int
}
