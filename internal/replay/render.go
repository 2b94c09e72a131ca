package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/okian/vitalrace/internal/adapters/player"
	"github.com/okian/vitalrace/internal/domain/model"
)

// frameRecorder writes frames to w and keeps them for verification.
type frameRecorder struct {
	mu     sync.Mutex
	w      io.Writer
	format string
	top    int
	armed  bool
	frames []model.CohortSnapshot
}

func newFrameRecorder(w io.Writer, format string, top int) *frameRecorder {
	return &frameRecorder{w: w, format: format, top: top}
}

// Sink returns the recorder as a player.FrameSink.
func (r *frameRecorder) Sink() player.FrameSink {
	return player.SinkFunc(r.render)
}

func (r *frameRecorder) render(_ context.Context, frame model.CohortSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.armed {
		return nil
	}
	r.frames = append(r.frames, frame)

	if r.format == FormatJSON {
		b, err := json.Marshal(frame)
		if err != nil {
			return fmt.Errorf("encode frame: %w", err)
		}
		_, err = fmt.Fprintf(r.w, "%s\n", b)
		return err
	}

	if _, err := fmt.Fprintf(r.w, "frame %5.1f%%  %s\n", frame.Progress*100, frame.MetricID); err != nil {
		return err
	}
	for i, e := range frame.Entries {
		if r.top > 0 && i >= r.top {
			break
		}
		flag := ""
		if e.AboveThreshold {
			flag = " !"
		}
		if _, err := fmt.Fprintf(r.w, "  %3d. %-36s %8.2f%s\n", e.Rank, e.SubjectID, e.Value, flag); err != nil {
			return err
		}
	}
	return nil
}

// arm starts recording. Frames rendered before, such as the one produced
// when a metric is selected, are dropped.
func (r *frameRecorder) arm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = true
}

func (r *frameRecorder) recorded() []model.CohortSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.CohortSnapshot(nil), r.frames...)
}

// writeSummaries prints one line per group summary.
func writeSummaries(w io.Writer, format string, sums []model.GroupSummary) error {
	if format == FormatJSON {
		b, err := json.Marshal(sums)
		if err != nil {
			return fmt.Errorf("encode summaries: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	}
	for _, s := range sums {
		if _, err := fmt.Fprintf(w, "group %-12s n=%-5d min=%.2f q1=%.2f median=%.2f q3=%.2f max=%.2f outliers=%v\n",
			s.GroupID, s.Count, s.Min, s.Q1, s.Median, s.Q3, s.Max, s.Outliers); err != nil {
			return err
		}
	}
	return nil
}
