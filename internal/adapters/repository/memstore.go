package repository

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/okian/vitalrace/internal/domain/model"
	"github.com/okian/vitalrace/internal/domain/resample"
	"github.com/okian/vitalrace/pkg/metrics"
)

type cacheKey struct {
	metricID   string
	pointCount int
}

// MemoryStore is an in-memory Store. Resampled cohorts are cached per
// (metric, point count) and invalidated when the metric's series change.
type MemoryStore struct {
	mu       sync.RWMutex
	data     model.Dataset
	versions map[string]uint64
	cache    map[cacheKey]map[string]model.ResampledSeries
	workers  int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		data:     model.Dataset{},
		versions: make(map[string]uint64),
		cache:    make(map[cacheKey]map[string]model.ResampledSeries),
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, subjectID, metricID string, samples []model.Sample) error {
	if strings.TrimSpace(subjectID) == "" || strings.TrimSpace(metricID) == "" {
		return fmt.Errorf("%w: subject %q metric %q", ErrInvalidKey, subjectID, metricID)
	}
	cp := make([]model.Sample, len(samples))
	copy(cp, samples)

	s.mu.Lock()
	defer s.mu.Unlock()
	byMetric, ok := s.data[subjectID]
	if !ok {
		byMetric = make(map[string][]model.Sample)
		s.data[subjectID] = byMetric
	}
	byMetric[metricID] = cp
	s.invalidateLocked(metricID)
	s.updateGaugesLocked()
	return nil
}

// Replace implements Store.
func (s *MemoryStore) Replace(_ context.Context, ds model.Dataset) error {
	next := copyDataset(ds)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, metricID := range s.data.Metrics() {
		s.versions[metricID]++
	}
	for _, metricID := range next.Metrics() {
		s.versions[metricID]++
	}
	s.data = next
	s.cache = make(map[cacheKey]map[string]model.ResampledSeries)
	s.updateGaugesLocked()
	return nil
}

// Series implements Store.
func (s *MemoryStore) Series(_ context.Context, subjectID, metricID string) (model.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, err := s.data.Series(subjectID, metricID)
	if err != nil {
		return model.Series{}, err
	}
	series.Samples = append([]model.Sample(nil), series.Samples...)
	return series, nil
}

// Dataset implements Store.
func (s *MemoryStore) Dataset(_ context.Context) model.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyDataset(s.data)
}

// Subjects implements Store.
func (s *MemoryStore) Subjects(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Subjects()
}

// Metrics implements Store.
func (s *MemoryStore) Metrics(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Metrics()
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.SeriesCount()
}

// Resampled implements Store. The returned map is shared with the cache and
// must not be modified.
func (s *MemoryStore) Resampled(ctx context.Context, metricID string, pointCount int) (map[string]model.ResampledSeries, error) {
	key := cacheKey{metricID: metricID, pointCount: pointCount}

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		metrics.RecordResampleCacheHit()
		return cached, nil
	}
	version := s.versions[metricID]
	cohort := model.Dataset{}
	for _, subjectID := range s.data.SubjectsWith(metricID) {
		cohort[subjectID] = map[string][]model.Sample{metricID: s.data[subjectID][metricID]}
	}
	s.mu.RUnlock()
	metrics.RecordResampleCacheMiss()

	start := time.Now()
	out, err := resample.ResampleCohort(ctx, cohort, metricID, pointCount, resample.WithWorkers(s.workers))
	metrics.RecordResampleLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordResampleError(ErrorKind(err))
		return nil, fmt.Errorf("resample metric %q: %w", metricID, err)
	}

	s.mu.Lock()
	if s.versions[metricID] == version {
		s.cache[key] = out
	}
	s.mu.Unlock()
	return out, nil
}

// ErrorKind classifies domain errors for metrics labels.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, model.ErrUnknownKey):
		return "unknown_key"
	case errors.Is(err, model.ErrEmptyPool):
		return "empty_pool"
	case errors.Is(err, model.ErrInvalidPointCount):
		return "invalid_point_count"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}

func (s *MemoryStore) invalidateLocked(metricID string) {
	s.versions[metricID]++
	for key := range s.cache {
		if key.metricID == metricID {
			delete(s.cache, key)
		}
	}
}

func (s *MemoryStore) updateGaugesLocked() {
	metrics.UpdateDatasetSize(len(s.data), s.data.SeriesCount())
}

func copyDataset(ds model.Dataset) model.Dataset {
	out := make(model.Dataset, len(ds))
	for subjectID, byMetric := range ds {
		m := make(map[string][]model.Sample, len(byMetric))
		for metricID, samples := range byMetric {
			m[metricID] = append([]model.Sample(nil), samples...)
		}
		out[subjectID] = m
	}
	return out
}
