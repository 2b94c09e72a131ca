// Package replay plays a dataset through the race pipeline offline and
// writes every frame and group summary to a writer.
package replay

import (
	"errors"
	"fmt"
	"time"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds configuration for a replay run.
type Config struct {
	Input       string        // dataset file (.json or .xlsx); empty generates a cohort
	SaveDataset string        // where to write a generated cohort, optional
	Metric      string        // metric to play; empty picks the first one
	Frames      int           // frames per loop
	PointCount  int           // resampled length
	Duration    time.Duration // virtual loop duration
	Top         int           // rows per text frame
	Format      string        // text or json
	Subjects    int           // generated cohort size
	Seed        int64         // generator seed
	Groups      map[string][]string
	Threshold   float64 // NaN leaves the metric unflagged
	Verbose     bool
}

// ErrInvalidConfig reports an unusable replay configuration.
var ErrInvalidConfig = errors.New("invalid replay config")

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Frames < 1:
		return fmt.Errorf("%w: frames must be positive, got %d", ErrInvalidConfig, c.Frames)
	case c.PointCount < 2:
		return fmt.Errorf("%w: points must be at least 2, got %d", ErrInvalidConfig, c.PointCount)
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalidConfig)
	case c.Format != FormatText && c.Format != FormatJSON:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	case c.Input == "" && c.Subjects < 1:
		return fmt.Errorf("%w: need an input file or a positive subject count", ErrInvalidConfig)
	}
	return nil
}

// Stats holds replay statistics.
type Stats struct {
	Subjects       int
	Series         int
	FramesRendered int
	GroupSummaries int
	Outliers       int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
