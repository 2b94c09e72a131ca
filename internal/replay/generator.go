package replay

import (
	"context"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/okian/vitalrace/internal/domain/model"
	"github.com/okian/vitalrace/pkg/logger"
)

// Generated metric ids.
const (
	MetricHeartRate = "heart_rate"
	MetricSpO2      = "spo2"
)

// Synthetic sampling parameters.
const (
	sessionSeconds     = 2 * 60 * 60
	minGapSeconds      = 30.0
	maxGapSeconds      = 300.0
	heartRateBase      = 70.0
	heartRateSpread    = 25.0
	heartRateStep      = 6.0
	spo2Base           = 97.0
	spo2Step           = 0.8
	spo2Floor          = 85.0
	spo2Ceiling        = 100.0
	sessionStartOffset = 1_700_000_000
)

// GenerateCohort builds a deterministic cohort of n subjects with irregularly
// sampled heart rate and SpO2 series.
func GenerateCohort(ctx context.Context, n int, seed int64) model.Dataset {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic data
	ds := model.Dataset{}

	for i := 0; i < n; i++ {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			id = uuid.New()
		}
		subjectID := id.String()

		start := float64(sessionStartOffset) + rng.Float64()*600
		hr := heartRateBase + (rng.Float64()*2-1)*heartRateSpread
		spo2 := spo2Base

		for t := start; t < start+sessionSeconds; t += minGapSeconds + rng.Float64()*(maxGapSeconds-minGapSeconds) {
			hr = math.Max(40, hr+(rng.Float64()*2-1)*heartRateStep)
			ds.Add(subjectID, MetricHeartRate, model.Sample{Time: math.Round(t), Value: math.Round(hr)})
		}
		for t := start; t < start+sessionSeconds; t += minGapSeconds + rng.Float64()*(maxGapSeconds-minGapSeconds) {
			spo2 = math.Min(spo2Ceiling, math.Max(spo2Floor, spo2+(rng.Float64()*2-1)*spo2Step))
			ds.Add(subjectID, MetricSpO2, model.Sample{Time: math.Round(t), Value: math.Round(spo2*10) / 10})
		}
	}

	logger.Get().Info(ctx, "generated cohort",
		logger.Int("subjects", len(ds)),
		logger.Int("series", ds.SeriesCount()),
	)
	return ds
}
