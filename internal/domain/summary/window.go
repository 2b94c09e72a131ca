package summary

import (
	"fmt"
	"math"

	"github.com/okian/vitalrace/internal/domain/model"
)

const secondsPerMinute = 60

// Window selects samples by minutes elapsed since the first sample of their
// series. Both bounds are inclusive.
type Window struct {
	StartMin float64 `json:"start_min"`
	EndMin   float64 `json:"end_min"`
}

// AllTime covers every sample.
var AllTime = Window{StartMin: 0, EndMin: math.Inf(1)}

// Validate reports whether the bounds are ordered and not NaN.
func (w Window) Validate() error {
	if math.IsNaN(w.StartMin) || math.IsNaN(w.EndMin) || w.StartMin > w.EndMin {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidWindow, w.StartMin, w.EndMin)
	}
	return nil
}

// Contains reports whether elapsedMin falls inside the window.
func (w Window) Contains(elapsedMin float64) bool {
	return elapsedMin >= w.StartMin && elapsedMin <= w.EndMin
}

// Pool returns the values of samples that fall inside w.
func Pool(samples []model.Sample, w Window) []float64 {
	if len(samples) == 0 {
		return nil
	}
	origin := samples[0].Time
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if w.Contains((s.Time - origin) / secondsPerMinute) {
			out = append(out, s.Value)
		}
	}
	return out
}

// CohortPool concatenates the windowed values of metricID across subjects.
// Subjects that do not carry the metric contribute nothing.
func CohortPool(ds model.Dataset, metricID string, subjects []string, w Window) ([]float64, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	var out []float64
	for _, subjectID := range subjects {
		series, err := ds.Series(subjectID, metricID)
		if err != nil {
			continue
		}
		out = append(out, Pool(series.Samples, w)...)
	}
	return out, nil
}
