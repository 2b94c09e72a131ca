package replay

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/vitalrace/internal/adapters/dataset"
	service "github.com/okian/vitalrace/internal/app"
	"github.com/okian/vitalrace/internal/domain/model"
	"github.com/okian/vitalrace/internal/domain/summary"
	"github.com/okian/vitalrace/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run plays one loop of the configured metric, writes every frame and the
// group summaries to out, and verifies their ordering.
func Run(ctx context.Context, config *Config, out io.Writer) (*Stats, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("replay")
	log.Info(ctx, "starting replay",
		logger.String("input", config.Input),
		logger.String("metric", config.Metric),
		logger.Int("frames", config.Frames),
		logger.Int("points", config.PointCount),
		logger.Duration("duration", config.Duration),
		logger.String("format", config.Format),
	)

	ds, err := obtainDataset(ctx, config)
	if err != nil {
		return nil, err
	}
	stats.Subjects = len(ds)
	stats.Series = ds.SeriesCount()

	metricID := config.Metric
	if metricID == "" {
		metrics := ds.Metrics()
		if len(metrics) == 0 {
			return nil, fmt.Errorf("dataset has no metrics")
		}
		metricID = metrics[0]
	}

	recorder := newFrameRecorder(out, config.Format, config.Top)
	svc := service.New(
		service.WithLogger(log),
		service.WithFrameSink(recorder.Sink()),
		service.WithPointCount(config.PointCount),
		service.WithDuration(config.Duration),
		// the loop is driven by Step, keep the ticker idle
		service.WithFrameInterval(time.Hour),
		service.WithGroups(config.Groups),
		service.WithThresholds(thresholds(metricID, config.Threshold)),
		service.WithWindow(summary.AllTime),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	if err := svc.Load(ctx, ds); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if err := svc.SelectMetric(ctx, metricID); err != nil {
		return nil, fmt.Errorf("select metric %q: %w", metricID, err)
	}

	recorder.arm()
	if err := svc.Play(ctx); err != nil {
		return nil, fmt.Errorf("play: %w", err)
	}
	delta := (config.Duration + time.Duration(config.Frames) - 1) / time.Duration(config.Frames)
	for i := 0; i < config.Frames; i++ {
		if _, err := svc.Step(ctx, delta); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	frames := recorder.recorded()
	stats.FramesRendered = len(frames)
	if err := verifyFrames(frames); err != nil {
		return nil, fmt.Errorf("frame verification failed: %w", err)
	}

	sums, err := svc.Summaries(ctx, metricID, summary.AllTime)
	if err != nil {
		return nil, fmt.Errorf("summaries: %w", err)
	}
	if err := verifySummaries(sums); err != nil {
		return nil, fmt.Errorf("summary verification failed: %w", err)
	}
	if err := writeSummaries(out, config.Format, sums); err != nil {
		return nil, fmt.Errorf("write summaries: %w", err)
	}
	stats.GroupSummaries = len(sums)
	for _, s := range sums {
		stats.Outliers += len(s.Outliers)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

func thresholds(metricID string, v float64) map[string]float64 {
	if math.IsNaN(v) {
		return nil
	}
	return map[string]float64{metricID: v}
}

// obtainDataset loads config.Input or generates a cohort, saving it when
// requested.
func obtainDataset(ctx context.Context, config *Config) (model.Dataset, error) {
	if config.Input != "" {
		ds, err := dataset.Load(ctx, config.Input)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", config.Input, err)
		}
		return ds, nil
	}

	ds := GenerateCohort(ctx, config.Subjects, config.Seed)
	if config.SaveDataset != "" {
		if err := saveDataset(ctx, config.SaveDataset, ds); err != nil {
			logger.Get().Warn(ctx, "failed to save generated dataset", logger.Error(err))
		}
	}
	return ds, nil
}

// saveDataset writes ds as JSON to filename.
func saveDataset(ctx context.Context, filename string, ds model.Dataset) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	if err := dataset.EncodeJSON(file, ds); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	logger.Get().Info(ctx, "dataset saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the replay statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var framesPerSecond float64
	if stats.Duration > 0 {
		framesPerSecond = float64(stats.FramesRendered) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("subjects", stats.Subjects),
		logger.Int("series", stats.Series),
		logger.Int("framesRendered", stats.FramesRendered),
		logger.Int("groupSummaries", stats.GroupSummaries),
		logger.Int("outliers", stats.Outliers),
		logger.Duration("duration", stats.Duration),
		logger.Float64("framesPerSecond", framesPerSecond),
	)
}
