package dataset

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/vitalrace/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

// Column headers recognised in spreadsheets, by canonical name.
var columnAliases = map[string][]string{
	"subject":   {"subject_id", "subject"},
	"metric":    {"metric_id", "metric"},
	"timestamp": {"timestamp", "time"},
	"value":     {"value"},
}

// LoadExcel reads the first sheet of an XLSX workbook. The first row is a
// header naming subject_id, metric_id, timestamp and value columns; rows
// are appended to their series in sheet order.
func LoadExcel(path string) (model.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readWorkbook(f)
}

// DecodeExcel is LoadExcel for an already open stream.
func DecodeExcel(r io.Reader) (model.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) (model.Dataset, error) {
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	ds := model.Dataset{}
	if len(rows) == 0 {
		return ds, nil
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := i + 2
		cell := func(name string) string {
			idx := cols[name]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		subject, metric := cell("subject"), cell("metric")
		if subject == "" || metric == "" {
			return nil, fmt.Errorf("%w: row %d: empty subject or metric", ErrMalformedRow, line)
		}
		ts, err := strconv.ParseFloat(cell("timestamp"), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: timestamp: %w", ErrMalformedRow, line, err)
		}
		v, err := strconv.ParseFloat(cell("value"), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: value: %w", ErrMalformedRow, line, err)
		}
		ds.Add(subject, metric, model.Sample{Time: ts, Value: v})
	}
	return ds, nil
}

func headerIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(columnAliases))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for name, aliases := range columnAliases {
			for _, a := range aliases {
				if h == a {
					cols[name] = i
				}
			}
		}
	}
	for name := range columnAliases {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return cols, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
