package replay

import (
	"fmt"

	"github.com/okian/vitalrace/internal/domain/model"
)

// verifyFrames checks that progress only grows and that every frame is
// ranked by value descending, ties by subject id.
func verifyFrames(frames []model.CohortSnapshot) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames rendered")
	}
	for i, f := range frames {
		if i > 0 && f.Progress <= frames[i-1].Progress {
			return fmt.Errorf("frame %d: progress %.6f not after %.6f", i, f.Progress, frames[i-1].Progress)
		}
		for j, e := range f.Entries {
			if e.Rank != j+1 {
				return fmt.Errorf("frame %d: entry %d has rank %d", i, j, e.Rank)
			}
			if j == 0 {
				continue
			}
			prev := f.Entries[j-1]
			if e.Value > prev.Value || (e.Value == prev.Value && e.SubjectID < prev.SubjectID) {
				return fmt.Errorf("frame %d: %s ranked after %s out of order", i, e.SubjectID, prev.SubjectID)
			}
		}
	}
	return nil
}

// verifySummaries checks the box-plot ordering and outlier placement.
func verifySummaries(sums []model.GroupSummary) error {
	for _, s := range sums {
		if !(s.Min <= s.Q1 && s.Q1 <= s.Median && s.Median <= s.Q3 && s.Q3 <= s.Max) {
			return fmt.Errorf("group %s: quartiles out of order", s.GroupID)
		}
		for _, v := range s.Outliers {
			if v >= s.LowerFence && v <= s.UpperFence {
				return fmt.Errorf("group %s: outlier %g inside fences", s.GroupID, v)
			}
		}
	}
	return nil
}
