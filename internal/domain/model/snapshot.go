package model

import (
	"encoding/json"
	"math"
)

// SnapshotEntry is one ranked row of a race frame.
type SnapshotEntry struct {
	Rank           int     `json:"rank"`
	SubjectID      string  `json:"subject_id"`
	Value          float64 `json:"value"`
	AboveThreshold bool    `json:"is_above_threshold"`
}

// CohortSnapshot is a race frame: entries ordered by value descending,
// ties by ascending subject id.
type CohortSnapshot struct {
	MetricID  string          `json:"metric_id"`
	Progress  float64         `json:"progress"`
	Threshold float64         `json:"threshold"`
	Entries   []SnapshotEntry `json:"entries"`
}

// MarshalJSON encodes a non-finite threshold as null.
func (c CohortSnapshot) MarshalJSON() ([]byte, error) {
	type plain CohortSnapshot
	out := struct {
		plain
		Threshold *float64 `json:"threshold"`
	}{plain: plain(c)}
	if !math.IsInf(c.Threshold, 0) && !math.IsNaN(c.Threshold) {
		out.Threshold = &c.Threshold
	}
	if out.Entries == nil {
		out.Entries = []SnapshotEntry{}
	}
	return json.Marshal(out)
}

// GroupSummary is the five-number summary of one group's pool.
//
// Min <= Q1 <= Median <= Q3 <= Max always holds, and every value in
// Outliers lies strictly outside [LowerFence, UpperFence].
type GroupSummary struct {
	GroupID    string    `json:"group_id"`
	MetricID   string    `json:"metric_id,omitempty"`
	Count      int       `json:"count"`
	Min        float64   `json:"min"`
	Q1         float64   `json:"q1"`
	Median     float64   `json:"median"`
	Q3         float64   `json:"q3"`
	Max        float64   `json:"max"`
	Mean       float64   `json:"mean"`
	IQR        float64   `json:"iqr"`
	LowerFence float64   `json:"lower_fence"`
	UpperFence float64   `json:"upper_fence"`
	Outliers   []float64 `json:"outliers"`
}
