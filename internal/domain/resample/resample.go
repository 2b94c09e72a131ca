// Package resample converts irregular series into uniformly spaced ones
// suitable for smooth playback.
package resample

import (
	"fmt"
	"math"

	"github.com/okian/vitalrace/internal/domain/model"
	"gonum.org/v1/gonum/interp"
)

// DefaultPointCount is the default resample resolution.
const DefaultPointCount = 100

// Resample maps series onto pointCount evenly spaced progress values in
// [0,1] by piecewise-linear reconstruction of the samples.
//
// The series must hold at least one sample with finite values and
// non-decreasing timestamps. Samples sharing a timestamp resolve to the
// later one.
func Resample(series model.Series, pointCount int) (model.ResampledSeries, error) {
	if pointCount < 2 {
		return nil, fmt.Errorf("%w: %d (need at least 2)", model.ErrInvalidPointCount, pointCount)
	}
	times, values, err := knots(series)
	if err != nil {
		return nil, err
	}

	out := make(model.ResampledSeries, pointCount)
	last := float64(pointCount - 1)

	if len(times) == 1 {
		for i := range out {
			out[i] = model.ResampledPoint{Progress: float64(i) / last, Value: values[0]}
		}
		return out, nil
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(times, values); err != nil {
		return nil, &model.InsufficientDataError{SubjectID: series.SubjectID, MetricID: series.MetricID, Reason: err.Error()}
	}

	t0, t1 := times[0], times[len(times)-1]
	span := t1 - t0
	for i := range out {
		progress := float64(i) / last
		var target float64
		switch i {
		case 0:
			target = t0
		case pointCount - 1:
			target = t1
		default:
			target = t0 + progress*span
		}
		out[i] = model.ResampledPoint{Progress: progress, Value: pl.Predict(target)}
	}
	return out, nil
}

// knots validates the samples and returns strictly increasing times with
// their values, keeping the later sample of any duplicate timestamp.
func knots(series model.Series) ([]float64, []float64, error) {
	samples := series.Samples
	if len(samples) == 0 {
		return nil, nil, &model.InsufficientDataError{SubjectID: series.SubjectID, MetricID: series.MetricID, Reason: "empty series"}
	}

	times := make([]float64, 0, len(samples))
	values := make([]float64, 0, len(samples))
	for i, s := range samples {
		if !finite(s.Time) || !finite(s.Value) {
			return nil, nil, &model.InsufficientDataError{
				SubjectID: series.SubjectID,
				MetricID:  series.MetricID,
				Reason:    fmt.Sprintf("non-finite sample at index %d", i),
			}
		}
		n := len(times)
		switch {
		case n == 0 || s.Time > times[n-1]:
			times = append(times, s.Time)
			values = append(values, s.Value)
		case s.Time == times[n-1]:
			values[n-1] = s.Value
		default:
			return nil, nil, &model.InsufficientDataError{
				SubjectID: series.SubjectID,
				MetricID:  series.MetricID,
				Reason:    fmt.Sprintf("timestamp decreases at index %d", i),
			}
		}
	}
	return times, values, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
