// Package model contains domain models passed between layers.
package model

import "sort"

// Sample is one raw observation of a metric.
type Sample struct {
	Time  float64 `json:"timestamp"` // unix seconds
	Value float64 `json:"value"`
}

// Series is one subject's samples for one metric, ordered by time.
type Series struct {
	SubjectID string
	MetricID  string
	Samples   []Sample
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Samples) }

// ResampledPoint is one point of a uniformly spaced series.
type ResampledPoint struct {
	Progress float64 `json:"progress"`
	Value    float64 `json:"value"`
}

// ResampledSeries holds exactly N points with progress running from 0 to 1.
type ResampledSeries []ResampledPoint

// Values returns the value column.
func (r ResampledSeries) Values() []float64 {
	out := make([]float64, len(r))
	for i, p := range r {
		out[i] = p.Value
	}
	return out
}

// Dataset maps subject id -> metric id -> samples.
type Dataset map[string]map[string][]Sample

// Series returns the samples of one subject and metric.
func (d Dataset) Series(subjectID, metricID string) (Series, error) {
	metrics, ok := d[subjectID]
	if !ok {
		return Series{}, &UnknownKeyError{SubjectID: subjectID, MetricID: metricID}
	}
	samples, ok := metrics[metricID]
	if !ok {
		return Series{}, &UnknownKeyError{SubjectID: subjectID, MetricID: metricID}
	}
	return Series{SubjectID: subjectID, MetricID: metricID, Samples: samples}, nil
}

// Subjects returns all subject ids in ascending order.
func (d Dataset) Subjects() []string {
	out := make([]string, 0, len(d))
	for id := range d {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Metrics returns the union of metric ids across subjects in ascending order.
func (d Dataset) Metrics() []string {
	seen := make(map[string]struct{})
	for _, metrics := range d {
		for id := range metrics {
			seen[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SubjectsWith returns, in ascending order, the subjects that carry metricID.
func (d Dataset) SubjectsWith(metricID string) []string {
	out := make([]string, 0, len(d))
	for id, metrics := range d {
		if _, ok := metrics[metricID]; ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Add appends samples to a subject's metric, creating the entries as needed.
func (d Dataset) Add(subjectID, metricID string, samples ...Sample) {
	metrics, ok := d[subjectID]
	if !ok {
		metrics = make(map[string][]Sample)
		d[subjectID] = metrics
	}
	metrics[metricID] = append(metrics[metricID], samples...)
}

// SeriesCount returns the number of (subject, metric) pairs.
func (d Dataset) SeriesCount() int {
	n := 0
	for _, metrics := range d {
		n += len(metrics)
	}
	return n
}
