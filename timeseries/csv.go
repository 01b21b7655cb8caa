package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sartorproj/goacm/timeindex"
)

// ErrNoData is returned when a CSV source holds no usable rows.
var ErrNoData = errors.New("no valid data found in CSV")

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn   string // Column name for dates (default: first of "date", "ds", "week")
	ValueColumn  string // Column name for values (default: "deaths")
	DateFormat   string // Date format (default: "2006-01-02"); ISO week labels are always accepted
	HasHeader    bool   // Whether CSV has header row (default: true)
	Delimiter    rune   // Field delimiter (default: ',')
	SkipRows     int    // Number of rows to skip at start
	TrimTrailing int    // Number of trailing observations to drop (incomplete recent weeks)
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		ValueColumn: "deaths",
		DateFormat:  time.DateOnly,
		HasHeader:   true,
		Delimiter:   ',',
	}
}

// LoadCSV loads a dated series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s, err := LoadCSVFromReader(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// LoadCSVFromReader loads a dated series from an io.Reader. Rows whose value
// is empty or marked NA/NaN/null are treated as missing observations and
// skipped; any other unparseable cell is an error.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	if reader.Comma == 0 {
		reader.Comma = ','
	}
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	dateIdx, valueIdx := 0, 1
	if opts.HasHeader {
		header, err := reader.Read()
		if err != nil {
			return nil, err
		}
		dateIdx, valueIdx = -1, -1
		for i, h := range header {
			h = cleanCell(h)
			switch {
			case h == opts.ValueColumn:
				valueIdx = i
			case opts.DateColumn != "" && h == opts.DateColumn:
				dateIdx = i
			case opts.DateColumn == "" && dateIdx == -1 && (h == "date" || h == "ds" || h == "week"):
				dateIdx = i
			}
		}
		if dateIdx == -1 {
			return nil, fmt.Errorf("date column %q not found", opts.DateColumn)
		}
		if valueIdx == -1 {
			return nil, fmt.Errorf("value column %q not found", opts.ValueColumn)
		}
	}

	var dates []time.Time
	var values []float64

	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if dateIdx >= len(record) || valueIdx >= len(record) {
			return nil, fmt.Errorf("row %d: expected at least %d fields", line, max(dateIdx, valueIdx)+1)
		}

		valStr := cleanCell(record[valueIdx])
		if valStr == "" || valStr == "NA" || valStr == "NaN" || valStr == "null" || valStr == ".." {
			continue
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		ts, err := ParseDate(record[dateIdx], opts.DateFormat)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		dates = append(dates, ts)
		values = append(values, val)
	}

	if opts.TrimTrailing > 0 {
		n := max(0, len(values)-opts.TrimTrailing)
		dates, values = dates[:n], values[:n]
	}

	if len(values) == 0 {
		return nil, ErrNoData
	}

	return New(dates, values)
}

// ParseDate parses a date cell. ISO week labels ("2020W05") map to the
// Thursday of that week; otherwise format and a few common layouts are tried.
func ParseDate(cell, format string) (time.Time, error) {
	s := cleanCell(cell)
	if d, err := timeindex.ParseWeekLabel(s); err == nil {
		return d, nil
	}

	formats := []string{
		format,
		time.DateOnly,
		"2006-01-02T15:04:05",
		"2006/01/02",
		"02.01.2006",
	}
	for _, f := range formats {
		if f == "" {
			continue
		}
		if ts, err := time.Parse(f, s); err == nil {
			return timeindex.Civil(ts), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func cleanCell(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "\""))
}

// SaveCSV saves a series to a CSV file with a "date,<name>" header.
func SaveCSV(series *Series, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := WriteCSV(file, series); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteCSV writes a series as CSV with a header row and one record per line.
func WriteCSV(w io.Writer, series *Series) error {
	name := series.Name
	if name == "" {
		name = "value"
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"date", name}); err != nil {
		return err
	}
	for i, v := range series.Values {
		record := []string{
			series.Dates[i].Format(time.DateOnly),
			strconv.FormatFloat(v, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
