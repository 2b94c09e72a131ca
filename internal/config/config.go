// Package config defines service configuration structures and loading hooks.
package config

import (
	"math"
	"runtime"
	"time"

	"github.com/okian/vitalrace/internal/domain/summary"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches the log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DatasetPath points to a .json or .xlsx dataset loaded at startup.
	DatasetPath string `koanf:"dataset_path"`

	// PointCount is the resampled length of every series.
	PointCount int `koanf:"point_count"`

	// DurationMS is the playback loop duration.
	DurationMS int `koanf:"duration_ms"`

	// FrameIntervalMS is the playback ticker period.
	FrameIntervalMS int `koanf:"frame_interval_ms"`

	// ResampleWorkers bounds concurrent per-subject resampling.
	ResampleWorkers int `koanf:"resample_workers"`

	// DefaultMetric is selected for playback after the dataset loads.
	DefaultMetric string `koanf:"default_metric"`

	// Autoplay starts playback once the default metric is selected.
	Autoplay bool `koanf:"autoplay"`

	// CriticalThresholds maps metric ids to the value flagged in snapshots.
	CriticalThresholds map[string]float64 `koanf:"critical_thresholds"`

	// WindowStartMin and WindowEndMin bound the default summary window in
	// minutes since each series' first sample.
	WindowStartMin float64 `koanf:"window_start_min"`
	WindowEndMin   float64 `koanf:"window_end_min"`

	// Groups maps group ids to their subject ids.
	Groups map[string][]string `koanf:"groups"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		PointCount:         100,
		DurationMS:         20_000,
		FrameIntervalMS:    16,
		ResampleWorkers:    runtime.NumCPU(),
		CriticalThresholds: map[string]float64{},
		WindowStartMin:     0,
		WindowEndMin:       120,
		Groups:             map[string][]string{},
	}
}

// Duration returns the playback loop duration.
func (c *Config) Duration() time.Duration {
	return time.Duration(c.DurationMS) * time.Millisecond
}

// FrameInterval returns the playback ticker period.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// Window returns the default summary window.
func (c *Config) Window() summary.Window {
	return summary.Window{StartMin: c.WindowStartMin, EndMin: c.WindowEndMin}
}

// Threshold returns the critical threshold of metricID, or +Inf when none
// is configured.
func (c *Config) Threshold(metricID string) float64 {
	if v, ok := c.CriticalThresholds[metricID]; ok {
		return v
	}
	return math.Inf(1)
}
