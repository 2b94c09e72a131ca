package dataset_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/vitalrace/internal/adapters/dataset"
	"github.com/okian/vitalrace/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

const sampleJSON = `{
  "alice": {
    "hr":   [{"timestamp": 1700000000, "value": 72}, {"timestamp": 1700000060, "value": 75.5}],
    "spo2": [{"timestamp": 1700000000, "value": 98}]
  },
  "bob": {
    "hr": [{"timestamp": 1700000010, "value": 80}]
  }
}`

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "vitals.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeJSON(t *testing.T) {
	Convey("Given a JSON dataset document", t, func() {
		ds, err := dataset.DecodeJSON(strings.NewReader(sampleJSON))

		Convey("Then it should decode subjects, metrics and samples", func() {
			So(err, ShouldBeNil)
			So(ds.Subjects(), ShouldResemble, []string{"alice", "bob"})
			s, err := ds.Series("alice", "hr")
			So(err, ShouldBeNil)
			So(s.Samples, ShouldResemble, []model.Sample{{Time: 1700000000, Value: 72}, {Time: 1700000060, Value: 75.5}})
		})

		Convey("And encoding it again should round-trip", func() {
			var buf bytes.Buffer
			So(dataset.EncodeJSON(&buf, ds), ShouldBeNil)
			again, err := dataset.DecodeJSON(&buf)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, ds)
		})
	})

	Convey("Given invalid JSON", t, func() {
		_, err := dataset.DecodeJSON(strings.NewReader(`{"alice": [`))

		Convey("Then decoding should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a JSON null document", t, func() {
		ds, err := dataset.DecodeJSON(strings.NewReader(`null`))

		Convey("Then an empty dataset should be returned", func() {
			So(err, ShouldBeNil)
			So(ds, ShouldNotBeNil)
			So(ds.Subjects(), ShouldBeEmpty)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given dataset files on disk", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		Convey("When loading a .json file", func() {
			path := filepath.Join(dir, "vitals.json")
			So(os.WriteFile(path, []byte(sampleJSON), 0o600), ShouldBeNil)
			ds, err := dataset.Load(ctx, path)

			Convey("Then it should decode it", func() {
				So(err, ShouldBeNil)
				So(ds.SeriesCount(), ShouldEqual, 3)
			})
		})

		Convey("When loading an unknown extension", func() {
			_, err := dataset.Load(ctx, filepath.Join(dir, "vitals.csv"))

			Convey("Then it should fail with ErrUnsupportedFormat", func() {
				So(errors.Is(err, dataset.ErrUnsupportedFormat), ShouldBeTrue)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := dataset.Load(ctx, filepath.Join(dir, "missing.json"))

			Convey("Then it should fail", func() {
				So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := dataset.Load(cctx, filepath.Join(dir, "vitals.json"))

			Convey("Then it should fail with the cancellation", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestLoadExcel(t *testing.T) {
	Convey("Given a workbook with a header row", t, func() {
		path := writeWorkbook(t, [][]any{
			{"Subject_ID", "metric_id", "timestamp", "value"},
			{"alice", "hr", 0, 72.5},
			{"alice", "hr", 60, 75},
			{},
			{"bob", "hr", 30, 81},
		})

		Convey("When loading it", func() {
			ds, err := dataset.Load(context.Background(), path)

			Convey("Then rows should be appended to their series in order", func() {
				So(err, ShouldBeNil)
				So(ds.Subjects(), ShouldResemble, []string{"alice", "bob"})
				s, err := ds.Series("alice", "hr")
				So(err, ShouldBeNil)
				So(s.Samples, ShouldResemble, []model.Sample{{Time: 0, Value: 72.5}, {Time: 60, Value: 75}})
			})
		})

		Convey("When decoding it from a stream", func() {
			f, err := os.Open(path)
			So(err, ShouldBeNil)
			defer func() { _ = f.Close() }()
			ds, err := dataset.DecodeExcel(f)

			Convey("Then it should produce the same dataset", func() {
				So(err, ShouldBeNil)
				So(ds.SeriesCount(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a workbook without a value column", t, func() {
		path := writeWorkbook(t, [][]any{{"subject", "metric", "time"}, {"a", "hr", 1}})
		_, err := dataset.LoadExcel(path)

		Convey("Then it should fail with ErrMissingColumn", func() {
			So(errors.Is(err, dataset.ErrMissingColumn), ShouldBeTrue)
		})
	})

	Convey("Given a workbook with a non-numeric value", t, func() {
		path := writeWorkbook(t, [][]any{{"subject", "metric", "time", "value"}, {"a", "hr", 1, "high"}})
		_, err := dataset.LoadExcel(path)

		Convey("Then it should fail with ErrMalformedRow", func() {
			So(errors.Is(err, dataset.ErrMalformedRow), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "row 2")
		})
	})
}
