package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/vitalrace/internal/domain/model"
	"github.com/okian/vitalrace/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func testConfig() *Config {
	return &Config{
		Frames:     10,
		PointCount: 50,
		Duration:   time.Second,
		Top:        3,
		Format:     FormatText,
		Subjects:   6,
		Seed:       7,
		Threshold:  math.NaN(),
	}
}

func TestGenerateCohort(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		ctx := context.Background()

		Convey("The same seed yields the same cohort", func() {
			a := GenerateCohort(ctx, 4, 42)
			b := GenerateCohort(ctx, 4, 42)
			So(a.Subjects(), ShouldResemble, b.Subjects())
			for _, id := range a.Subjects() {
				sa, err := a.Series(id, MetricHeartRate)
				So(err, ShouldBeNil)
				sb, err := b.Series(id, MetricHeartRate)
				So(err, ShouldBeNil)
				So(sa, ShouldResemble, sb)
			}
		})

		Convey("Every subject carries both metrics with increasing time", func() {
			ds := GenerateCohort(ctx, 5, 3)
			So(len(ds), ShouldEqual, 5)
			So(ds.Metrics(), ShouldResemble, []string{MetricHeartRate, MetricSpO2})
			for _, id := range ds.Subjects() {
				s, err := ds.Series(id, MetricSpO2)
				So(err, ShouldBeNil)
				So(len(s.Samples), ShouldBeGreaterThan, 2)
				for i := 1; i < len(s.Samples); i++ {
					So(s.Samples[i].Time, ShouldBeGreaterThan, s.Samples[i-1].Time)
				}
			}
		})

		Convey("Different seeds yield different subjects", func() {
			a := GenerateCohort(ctx, 3, 1)
			b := GenerateCohort(ctx, 3, 2)
			So(a.Subjects(), ShouldNotResemble, b.Subjects())
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a generated cohort", t, func() {
		ctx := context.Background()
		cfg := testConfig()
		var out bytes.Buffer

		Convey("A text run renders the start frame plus one per step", func() {
			stats, err := Run(ctx, cfg, &out)
			So(err, ShouldBeNil)
			So(stats.Subjects, ShouldEqual, 6)
			So(stats.Series, ShouldEqual, 12)
			So(stats.FramesRendered, ShouldEqual, cfg.Frames+1)
			So(stats.GroupSummaries, ShouldEqual, 1)
			So(strings.Count(out.String(), "frame "), ShouldEqual, cfg.Frames+1)
			So(out.String(), ShouldContainSubstring, "frame 100.0%")
			So(out.String(), ShouldContainSubstring, "group all")
		})

		Convey("A JSON run writes one frame per line followed by the summaries", func() {
			cfg.Format = FormatJSON
			cfg.Metric = MetricSpO2
			stats, err := Run(ctx, cfg, &out)
			So(err, ShouldBeNil)

			var lines []string
			sc := bufio.NewScanner(&out)
			sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
			for sc.Scan() {
				lines = append(lines, sc.Text())
			}
			So(sc.Err(), ShouldBeNil)
			So(len(lines), ShouldEqual, stats.FramesRendered+1)

			var first, last model.CohortSnapshot
			So(json.Unmarshal([]byte(lines[0]), &first), ShouldBeNil)
			So(json.Unmarshal([]byte(lines[len(lines)-2]), &last), ShouldBeNil)
			So(first.MetricID, ShouldEqual, MetricSpO2)
			So(first.Progress, ShouldEqual, 0)
			So(last.Progress, ShouldEqual, 1)
			So(len(last.Entries), ShouldEqual, 6)

			var sums []model.GroupSummary
			So(json.Unmarshal([]byte(lines[len(lines)-1]), &sums), ShouldBeNil)
			So(len(sums), ShouldEqual, 1)
			So(sums[0].GroupID, ShouldEqual, "all")
			So(sums[0].MetricID, ShouldEqual, MetricSpO2)
		})

		Convey("A threshold flags values above it", func() {
			cfg.Format = FormatJSON
			cfg.Threshold = 0
			cfg.Frames = 1
			_, err := Run(ctx, cfg, &out)
			So(err, ShouldBeNil)
			line, err := out.ReadBytes('\n')
			So(err, ShouldBeNil)
			var frame model.CohortSnapshot
			So(json.Unmarshal(line, &frame), ShouldBeNil)
			So(frame.Threshold, ShouldEqual, 0)
			for _, e := range frame.Entries {
				So(e.AboveThreshold, ShouldBeTrue)
			}
		})

		Convey("Groups split the summaries", func() {
			ds := GenerateCohort(ctx, cfg.Subjects, cfg.Seed)
			ids := ds.Subjects()
			cfg.Groups = map[string][]string{"a": ids[:3], "b": ids[3:]}
			stats, err := Run(ctx, cfg, &out)
			So(err, ShouldBeNil)
			So(stats.GroupSummaries, ShouldEqual, 2)
		})

		Convey("An unknown metric fails", func() {
			cfg.Metric = "lactate"
			_, err := Run(ctx, cfg, &out)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "lactate")
		})

		Convey("An invalid config is rejected before any work", func() {
			cfg.Frames = 0
			_, err := Run(ctx, cfg, &out)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
			So(out.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given a saved cohort file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "nested", "cohort.json")

		cfg := testConfig()
		cfg.SaveDataset = path
		_, err := Run(ctx, cfg, &bytes.Buffer{})
		So(err, ShouldBeNil)
		_, err = os.Stat(path)
		So(err, ShouldBeNil)

		Convey("Replaying it from disk gives the same frames", func() {
			var generated, loaded bytes.Buffer
			gen := testConfig()
			gen.Format = FormatJSON
			_, err := Run(ctx, gen, &generated)
			So(err, ShouldBeNil)

			fromFile := testConfig()
			fromFile.Format = FormatJSON
			fromFile.Input = path
			_, err = Run(ctx, fromFile, &loaded)
			So(err, ShouldBeNil)
			So(loaded.String(), ShouldEqual, generated.String())
		})

		Convey("A missing file fails", func() {
			missing := testConfig()
			missing.Input = filepath.Join(t.TempDir(), "absent.json")
			_, err := Run(ctx, missing, &bytes.Buffer{})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestLoadGroups(t *testing.T) {
	Convey("Given a group file", t, func() {
		dir := t.TempDir()

		Convey("YAML lists become subject ids", func() {
			path := filepath.Join(dir, "groups.yaml")
			So(os.WriteFile(path, []byte("exam1:\n  - s1\n  - s2\nexam.2:\n  - s3\n"), 0o600), ShouldBeNil)
			groups, err := LoadGroups(path)
			So(err, ShouldBeNil)
			So(groups, ShouldResemble, map[string][]string{"exam1": {"s1", "s2"}, "exam.2": {"s3"}})
		})

		Convey("JSON is accepted too", func() {
			path := filepath.Join(dir, "groups.json")
			So(os.WriteFile(path, []byte(`{"g": ["a", "b"]}`), 0o600), ShouldBeNil)
			groups, err := LoadGroups(path)
			So(err, ShouldBeNil)
			So(groups["g"], ShouldResemble, []string{"a", "b"})
		})

		Convey("A missing file fails", func() {
			_, err := LoadGroups(filepath.Join(dir, "nope.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestVerifyFrames(t *testing.T) {
	Convey("Frame verification", t, func() {
		entries := []model.SnapshotEntry{
			{SubjectID: "a", Value: 9, Rank: 1},
			{SubjectID: "b", Value: 5, Rank: 2},
		}

		Convey("accepts ordered frames", func() {
			frames := []model.CohortSnapshot{{Progress: 0, Entries: entries}, {Progress: 0.5, Entries: entries}}
			So(verifyFrames(frames), ShouldBeNil)
		})

		Convey("rejects an empty run", func() {
			So(verifyFrames(nil), ShouldNotBeNil)
		})

		Convey("rejects progress that does not grow", func() {
			frames := []model.CohortSnapshot{{Progress: 0.5}, {Progress: 0.5}}
			So(verifyFrames(frames), ShouldNotBeNil)
		})

		Convey("rejects values out of order", func() {
			bad := []model.SnapshotEntry{
				{SubjectID: "a", Value: 1, Rank: 1},
				{SubjectID: "b", Value: 5, Rank: 2},
			}
			So(verifyFrames([]model.CohortSnapshot{{Entries: bad}}), ShouldNotBeNil)
		})

		Convey("rejects ties broken against subject order", func() {
			bad := []model.SnapshotEntry{
				{SubjectID: "b", Value: 5, Rank: 1},
				{SubjectID: "a", Value: 5, Rank: 2},
			}
			So(verifyFrames([]model.CohortSnapshot{{Entries: bad}}), ShouldNotBeNil)
		})

		Convey("rejects wrong ranks", func() {
			bad := []model.SnapshotEntry{{SubjectID: "a", Value: 5, Rank: 2}}
			So(verifyFrames([]model.CohortSnapshot{{Entries: bad}}), ShouldNotBeNil)
		})
	})
}

func TestVerifySummaries(t *testing.T) {
	Convey("Summary verification", t, func() {
		good := model.GroupSummary{
			GroupID: "g", Min: 1, Q1: 2, Median: 3, Q3: 4, Max: 5,
			LowerFence: -1, UpperFence: 7, Outliers: []float64{100},
		}
		So(verifySummaries([]model.GroupSummary{good}), ShouldBeNil)

		unordered := good
		unordered.Q1 = 3.5
		So(verifySummaries([]model.GroupSummary{unordered}), ShouldNotBeNil)

		inside := good
		inside.Outliers = []float64{6}
		So(verifySummaries([]model.GroupSummary{inside}), ShouldNotBeNil)
	})
}
