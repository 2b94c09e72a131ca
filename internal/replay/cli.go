package replay

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/vitalrace/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging sends logs to stderr and, when logFile is set, to that file.
// Stdout stays reserved for frames.
func SetupLogging(logFile string, verbose bool) error {
	var w io.Writer = os.Stderr
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, file)
	}
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the replay tool.
func ShowHelp() {
	os.Stdout.WriteString(`vitalrace replay
================

Plays a cohort through the race pipeline offline: every frame of one loop is
written to stdout, followed by the box-plot summary of each group.

Usage:
  go run ./cmd/replay [options]

Options:
  -input string       dataset file (.json or .xlsx); empty generates a cohort
  -save string        write the generated cohort to this JSON file
  -metric string      metric to play (default: first metric)
  -frames int         frames per loop (default 100)
  -points int         resampled points per series (default 100)
  -duration duration  virtual loop duration (default 20s)
  -top int            rows per text frame, 0 for all (default 10)
  -format string      text or json (default "text")
  -subjects int       generated cohort size (default 12)
  -seed int           generator seed (default 1)
  -groups string      group file: YAML or JSON mapping group -> subjects
  -threshold string   critical threshold for the metric
  -log string         also write logs to this file
  -verbose            debug logging
  -help               show this help message

Examples:
  go run ./cmd/replay -subjects 20 -format json > frames.jsonl
  go run ./cmd/replay -input cohort.xlsx -metric heart_rate -threshold 120
`)
}
