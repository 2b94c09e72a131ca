// Package summary computes robust five-number summaries with 1.5·IQR
// outlier fences for box-plot display.
package summary

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/okian/vitalrace/internal/domain/model"
)

// FenceFactor scales the IQR to place the outlier fences.
const FenceFactor = 1.5

// Quantile returns the p-quantile of an ascending slice, interpolating
// linearly between the elements at floor and ceil of p·(n−1).
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN()
	case n == 1:
		return sorted[0]
	}
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[n-1]
	}

	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// Summarize computes the five-number summary of pool. Non-finite values are
// ignored; an empty pool fails with EmptyPoolError.
//
// Min and Max come from the values inside the fences when there are any,
// otherwise from the whole pool, and never fall inside the box.
func Summarize(groupID string, pool []float64) (model.GroupSummary, error) {
	sorted := make([]float64, 0, len(pool))
	for _, v := range pool {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return model.GroupSummary{}, &model.EmptyPoolError{GroupID: groupID}
	}
	sort.Float64s(sorted)

	q1 := Quantile(sorted, 0.25)
	median := Quantile(sorted, 0.5)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1
	lowerFence := q1 - FenceFactor*iqr
	upperFence := q3 + FenceFactor*iqr

	outliers := make([]float64, 0)
	inliers := make([]float64, 0, len(sorted))
	for _, v := range sorted {
		if v < lowerFence || v > upperFence {
			outliers = append(outliers, v)
			continue
		}
		inliers = append(inliers, v)
	}

	whiskers := inliers
	if len(whiskers) == 0 {
		whiskers = sorted
	}
	lo, err := stats.Min(whiskers)
	if err != nil {
		return model.GroupSummary{}, &model.EmptyPoolError{GroupID: groupID}
	}
	hi, err := stats.Max(whiskers)
	if err != nil {
		return model.GroupSummary{}, &model.EmptyPoolError{GroupID: groupID}
	}
	mean, err := stats.Mean(sorted)
	if err != nil {
		return model.GroupSummary{}, &model.EmptyPoolError{GroupID: groupID}
	}

	return model.GroupSummary{
		GroupID:    groupID,
		Count:      len(sorted),
		Min:        math.Min(lo, q1),
		Q1:         q1,
		Median:     median,
		Q3:         q3,
		Max:        math.Max(hi, q3),
		Mean:       mean,
		IQR:        iqr,
		LowerFence: lowerFence,
		UpperFence: upperFence,
		Outliers:   outliers,
	}, nil
}
