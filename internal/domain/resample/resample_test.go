package resample_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/vitalrace/internal/domain/model"
	"github.com/okian/vitalrace/internal/domain/resample"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func series(samples ...model.Sample) model.Series {
	return model.Series{SubjectID: "s1", MetricID: "hr", Samples: samples}
}

// randomSeries builds an irregular series with strictly increasing times.
func randomSeries(rng *rand.Rand, n int) model.Series {
	samples := make([]model.Sample, n)
	t := rng.Float64() * 1000
	for i := range samples {
		t += 0.1 + rng.Float64()*30
		samples[i] = model.Sample{Time: t, Value: 40 + rng.Float64()*140}
	}
	return series(samples...)
}

// bracketScan is the straightforward linear-scan reconstruction.
func bracketScan(s []model.Sample, target float64) float64 {
	before, after := -1, -1
	for i, smp := range s {
		if smp.Time <= target {
			before = i
		}
		if smp.Time >= target && after < 0 {
			after = i
		}
	}
	if before < 0 {
		return s[0].Value
	}
	if after < 0 || s[before].Time == s[after].Time {
		return s[before].Value
	}
	b, a := s[before], s[after]
	return b.Value + (a.Value-b.Value)*(target-b.Time)/(a.Time-b.Time)
}

func TestResample(t *testing.T) {
	Convey("Given a two-sample series", t, func() {
		s := series(model.Sample{Time: 0, Value: 10}, model.Sample{Time: 10, Value: 20})

		Convey("When resampling to three points", func() {
			out, err := resample.Resample(s, 3)

			Convey("Then it should interpolate the midpoint", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, model.ResampledSeries{
					{Progress: 0, Value: 10},
					{Progress: 0.5, Value: 15},
					{Progress: 1, Value: 20},
				})
			})
		})

		Convey("When resampling to the default resolution", func() {
			out, err := resample.Resample(s, resample.DefaultPointCount)

			Convey("Then it should return exactly that many points", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, resample.DefaultPointCount)
				So(out[0].Progress, ShouldEqual, 0)
				So(out[len(out)-1].Progress, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a series with a duplicated timestamp", t, func() {
		s := series(
			model.Sample{Time: 0, Value: 1},
			model.Sample{Time: 5, Value: 2},
			model.Sample{Time: 5, Value: 4},
			model.Sample{Time: 10, Value: 6},
		)

		Convey("When resampling across the duplicate", func() {
			out, err := resample.Resample(s, 3)

			Convey("Then the later sample should win", func() {
				So(err, ShouldBeNil)
				So(out[1].Value, ShouldEqual, 4)
			})
		})
	})

	Convey("Given a series with zero span", t, func() {
		Convey("When it holds a single sample", func() {
			out, err := resample.Resample(series(model.Sample{Time: 3, Value: 7}), 5)

			Convey("Then every value should equal that sample", func() {
				So(err, ShouldBeNil)
				for _, p := range out {
					So(p.Value, ShouldEqual, 7)
				}
				So(out[4].Progress, ShouldEqual, 1)
			})
		})

		Convey("When it holds repeated samples at one instant", func() {
			out, err := resample.Resample(series(model.Sample{Time: 3, Value: 7}, model.Sample{Time: 3, Value: 9}), 4)

			Convey("Then every value should equal the later sample", func() {
				So(err, ShouldBeNil)
				for _, p := range out {
					So(p.Value, ShouldEqual, 9)
				}
			})
		})
	})

	Convey("Given invalid input", t, func() {
		Convey("When the series is empty", func() {
			_, err := resample.Resample(series(), 10)

			Convey("Then it should fail with insufficient data", func() {
				So(errors.Is(err, model.ErrInsufficientData), ShouldBeTrue)
				var ide *model.InsufficientDataError
				So(errors.As(err, &ide), ShouldBeTrue)
				So(ide.SubjectID, ShouldEqual, "s1")
			})
		})

		Convey("When timestamps decrease", func() {
			_, err := resample.Resample(series(model.Sample{Time: 5, Value: 1}, model.Sample{Time: 4, Value: 2}), 10)

			Convey("Then it should fail with insufficient data", func() {
				So(errors.Is(err, model.ErrInsufficientData), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "decreases")
			})
		})

		Convey("When a value is not finite", func() {
			_, err := resample.Resample(series(model.Sample{Time: 0, Value: math.NaN()}), 10)

			Convey("Then it should fail with insufficient data", func() {
				So(errors.Is(err, model.ErrInsufficientData), ShouldBeTrue)
			})
		})

		Convey("When the point count is below two", func() {
			_, err := resample.Resample(series(model.Sample{Time: 0, Value: 1}), 1)

			Convey("Then it should fail with an invalid point count", func() {
				So(errors.Is(err, model.ErrInvalidPointCount), ShouldBeTrue)
			})
		})
	})
}

func TestResampleProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		s := randomSeries(rng, 1+rng.Intn(40))
		n := 2 + rng.Intn(150)

		out, err := resample.Resample(s, n)
		require.NoError(t, err)
		require.Len(t, out, n)

		lo, hi := math.Inf(1), math.Inf(-1)
		for _, smp := range s.Samples {
			lo = math.Min(lo, smp.Value)
			hi = math.Max(hi, smp.Value)
		}

		assert.Equal(t, 0.0, out[0].Progress)
		assert.Equal(t, 1.0, out[n-1].Progress)
		assert.Equal(t, s.Samples[0].Value, out[0].Value, "first value")
		assert.Equal(t, s.Samples[len(s.Samples)-1].Value, out[n-1].Value, "last value")

		t0 := s.Samples[0].Time
		span := s.Samples[len(s.Samples)-1].Time - t0
		for i, p := range out {
			if i > 0 {
				require.Greater(t, p.Progress, out[i-1].Progress)
				assert.InDelta(t, 1/float64(n-1), p.Progress-out[i-1].Progress, tolerance)
			}
			require.GreaterOrEqual(t, p.Value, lo-tolerance)
			require.LessOrEqual(t, p.Value, hi+tolerance)

			target := t0 + p.Progress*span
			assert.InDelta(t, bracketScan(s.Samples, target), p.Value, 1e-6)
		}
	}
}

func TestResampleIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const n = 100

	samples := make([]model.Sample, n)
	for i := range samples {
		samples[i] = model.Sample{Time: float64(i), Value: rng.Float64() * 100}
	}

	first, err := resample.Resample(series(samples...), n)
	require.NoError(t, err)
	for i := range first {
		assert.InDelta(t, samples[i].Value, first[i].Value, tolerance)
	}

	uniform := make([]model.Sample, n)
	for i, p := range first {
		uniform[i] = model.Sample{Time: p.Progress, Value: p.Value}
	}
	second, err := resample.Resample(series(uniform...), n)
	require.NoError(t, err)
	for i := range second {
		assert.InDelta(t, first[i].Value, second[i].Value, tolerance)
		assert.Equal(t, first[i].Progress, second[i].Progress)
	}
}

func TestResampleCohort(t *testing.T) {
	Convey("Given a dataset with three subjects", t, func() {
		ds := model.Dataset{}
		ds.Add("alice", "hr", model.Sample{Time: 0, Value: 60}, model.Sample{Time: 60, Value: 90})
		ds.Add("bob", "hr", model.Sample{Time: 10, Value: 80}, model.Sample{Time: 20, Value: 70})
		ds.Add("carol", "spo2", model.Sample{Time: 0, Value: 97})
		ctx := context.Background()

		Convey("When resampling a metric carried by two subjects", func() {
			out, err := resample.ResampleCohort(ctx, ds, "hr", 5, resample.WithWorkers(2))

			Convey("Then only those subjects should be resampled", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 2)
				So(len(out["alice"]), ShouldEqual, 5)
				So(out["alice"][2].Value, ShouldEqual, 75)
				So(out["bob"][4].Value, ShouldEqual, 70)
				_, hasCarol := out["carol"]
				So(hasCarol, ShouldBeFalse)
			})
		})

		Convey("When resampling a metric nobody carries", func() {
			_, err := resample.ResampleCohort(ctx, ds, "temp", 5)

			Convey("Then it should fail with an unknown key", func() {
				So(errors.Is(err, model.ErrUnknownKey), ShouldBeTrue)
			})
		})

		Convey("When one subject's series is empty", func() {
			ds.Add("dave", "hr")
			_, err := resample.ResampleCohort(ctx, ds, "hr", 5)

			Convey("Then the whole call should fail fast", func() {
				So(errors.Is(err, model.ErrInsufficientData), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := resample.ResampleCohort(cctx, ds, "hr", 5)

			Convey("Then it should return the cancellation", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
