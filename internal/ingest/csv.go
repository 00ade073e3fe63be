// Package ingest parses monthly climate CSV files into weather records.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
)

// RequiredColumns are the header names a monthly CSV must carry. A "date"
// column may be present but is not read; year and month are authoritative.
var RequiredColumns = []string{"pr", "tasmax", "tasmin", "year", "month"}

// RowError describes a data row that could not be parsed.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Result holds the parsed records and the rows that were skipped.
type Result struct {
	Records []domain.WeatherRecord
	Skipped []RowError
}

// ParseCSV reads a header-addressed monthly CSV. Invalid rows are skipped and
// reported in Result.Skipped; only an unreadable file or a missing column is
// an error. The mean temperature is derived as (tasmax + tasmin) / 2.
func ParseCSV(r io.Reader, location string) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, errors.New("empty csv")
	}
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range RequiredColumns {
		if _, ok := colIdx[col]; !ok {
			return Result{}, fmt.Errorf("missing column %q", col)
		}
	}

	var res Result
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: line, Err: err})
			continue
		}

		rec, err := parseRow(row, colIdx, location)
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: line, Err: err})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func parseRow(row []string, colIdx map[string]int, location string) (domain.WeatherRecord, error) {
	pr, err := parseFloat(row, colIdx, "pr")
	if err != nil {
		return domain.WeatherRecord{}, err
	}
	tasmax, err := parseFloat(row, colIdx, "tasmax")
	if err != nil {
		return domain.WeatherRecord{}, err
	}
	tasmin, err := parseFloat(row, colIdx, "tasmin")
	if err != nil {
		return domain.WeatherRecord{}, err
	}
	year, err := parseInt(row, colIdx, "year")
	if err != nil {
		return domain.WeatherRecord{}, err
	}
	month, err := parseInt(row, colIdx, "month")
	if err != nil {
		return domain.WeatherRecord{}, err
	}
	if month < 1 || month > 12 {
		return domain.WeatherRecord{}, fmt.Errorf("month %d out of range", month)
	}

	avg := (tasmax + tasmin) / 2
	return domain.WeatherRecord{
		ID:            domain.GenerateRecordID(location, year, month),
		Location:      location,
		Year:          year,
		Month:         month,
		Precipitation: pr,
		MaxTemp:       tasmax,
		MinTemp:       tasmin,
		AvgTemp:       &avg,
	}, nil
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloat(row []string, idx map[string]int, col string) (float64, error) {
	v, err := strconv.ParseFloat(get(row, idx, col), 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("column %s: value %v is not finite", col, v)
	}
	return v, nil
}

func parseInt(row []string, idx map[string]int, col string) (int, error) {
	s := get(row, idx, col)
	v, err := strconv.Atoi(s)
	if err != nil {
		// Some exports write integral columns as floats ("1990.0").
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		v = int(f)
	}
	return v, nil
}
