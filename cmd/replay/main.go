package main

import (
	"context"
	"flag"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/vitalrace/internal/replay"
)

// Default configuration constants.
const (
	defaultFrames     = 100
	defaultPointCount = 100
	defaultDuration   = 20 * time.Second
	defaultTopN       = 10
	defaultSubjects   = 12
	defaultSeed       = 1
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		input     = flag.String("input", "", "Dataset file (.json or .xlsx); empty generates a cohort")
		save      = flag.String("save", "", "Write the generated cohort to this JSON file")
		metric    = flag.String("metric", "", "Metric to play (default: first metric)")
		frames    = flag.Int("frames", defaultFrames, "Frames per loop")
		points    = flag.Int("points", defaultPointCount, "Resampled points per series")
		duration  = flag.Duration("duration", defaultDuration, "Virtual loop duration")
		topN      = flag.Int("top", defaultTopN, "Rows per text frame, 0 for all")
		format    = flag.String("format", replay.FormatText, "Output format: text or json")
		subjects  = flag.Int("subjects", defaultSubjects, "Generated cohort size")
		seed      = flag.Int64("seed", defaultSeed, "Generator seed")
		groupFile = flag.String("groups", "", "Group file mapping group -> subject ids")
		threshold = flag.String("threshold", "", "Critical threshold for the metric")
		logFile   = flag.String("log", "", "Also write logs to this file")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		replay.ShowHelp()
		return
	}

	_ = godotenv.Load()

	if err := replay.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	limit := math.NaN()
	if *threshold != "" {
		v, err := strconv.ParseFloat(*threshold, 64)
		if err != nil {
			os.Stderr.WriteString("Invalid threshold: " + err.Error() + "\n")
			os.Exit(2)
		}
		limit = v
	}

	var groups map[string][]string
	if *groupFile != "" {
		g, err := replay.LoadGroups(*groupFile)
		if err != nil {
			os.Stderr.WriteString("Failed to load groups: " + err.Error() + "\n")
			os.Exit(2)
		}
		groups = g
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	config := &replay.Config{
		Input:       *input,
		SaveDataset: *save,
		Metric:      *metric,
		Frames:      *frames,
		PointCount:  *points,
		Duration:    *duration,
		Top:         *topN,
		Format:      *format,
		Subjects:    *subjects,
		Seed:        *seed,
		Groups:      groups,
		Threshold:   limit,
		Verbose:     *verbose,
	}

	if _, err := replay.Run(ctx, config, os.Stdout); err != nil {
		os.Stderr.WriteString("Replay failed: " + err.Error() + "\n")
		cancel()
		stop()
		os.Exit(1)
	}
}
