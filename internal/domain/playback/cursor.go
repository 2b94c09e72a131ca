// Package playback evaluates resampled series at a continuous progress value
// and ranks a cohort per animation frame.
package playback

import (
	"math"
	"sort"
	"time"

	"github.com/okian/vitalrace/internal/domain/model"
)

// ValueAt returns the value of r at progress, linearly interpolating between
// neighbouring points. Progress is clamped to [0,1].
func ValueAt(r model.ResampledSeries, progress float64) float64 {
	n := len(r)
	switch {
	case n == 0:
		return math.NaN()
	case n == 1:
		return r[0].Value
	}

	progress = clamp01(progress)
	pos := progress * float64(n-1)
	index := int(math.Floor(pos))
	if progress == 1 || index >= n-1 {
		return r[n-1].Value
	}
	if index < 0 {
		index = 0
	}
	frac := pos - float64(index)
	a, b := r[index].Value, r[index+1].Value
	return a + (b-a)*frac
}

// Snapshot evaluates every subject at progress and ranks them by value,
// highest first. Equal values rank by ascending subject id.
func Snapshot(all map[string]model.ResampledSeries, metricID string, progress, threshold float64) model.CohortSnapshot {
	entries := make([]model.SnapshotEntry, 0, len(all))
	for subjectID, r := range all {
		v := ValueAt(r, progress)
		if math.IsNaN(v) {
			continue
		}
		entries = append(entries, model.SnapshotEntry{
			SubjectID:      subjectID,
			Value:          v,
			AboveThreshold: v >= threshold,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].SubjectID < entries[j].SubjectID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return model.CohortSnapshot{
		MetricID:  metricID,
		Progress:  clamp01(progress),
		Threshold: threshold,
		Entries:   entries,
	}
}

func clamp01(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Cursor binds a Clock to the series of the active metric.
// It is not safe for concurrent use.
type Cursor struct {
	clock     *Clock
	metricID  string
	series    map[string]model.ResampledSeries
	threshold float64
}

// NewCursor returns a cursor driven by clock with no active metric.
func NewCursor(clock *Clock) *Cursor {
	if clock == nil {
		clock = NewClock(DefaultDuration)
	}
	return &Cursor{clock: clock, threshold: math.Inf(1)}
}

// Clock returns the underlying clock.
func (c *Cursor) Clock() *Clock { return c.clock }

// MetricID returns the active metric.
func (c *Cursor) MetricID() string { return c.metricID }

// Select switches the queried series. Progress is left untouched.
func (c *Cursor) Select(metricID string, series map[string]model.ResampledSeries, threshold float64) {
	c.metricID = metricID
	c.series = series
	c.threshold = threshold
}

// Tick advances the clock by delta and returns the frame for the new
// progress. ok is false when the clock did not move.
func (c *Cursor) Tick(delta time.Duration) (model.CohortSnapshot, bool) {
	progress, ok := c.clock.Advance(delta)
	if !ok {
		return model.CohortSnapshot{}, false
	}
	return Snapshot(c.series, c.metricID, progress, c.threshold), true
}

// Current returns the frame at the clock's current progress.
func (c *Cursor) Current() model.CohortSnapshot {
	return Snapshot(c.series, c.metricID, c.clock.Progress(), c.threshold)
}
