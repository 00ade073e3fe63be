package domain

import (
	"io"
	"log/slog"
	"time"
)

const testLocation = "Lisbon"

var testDetectedAt = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeRecord(year, month int, pr, tasmax, tasmin float64) WeatherRecord {
	avg := (tasmax + tasmin) / 2
	return WeatherRecord{
		ID:            GenerateRecordID(testLocation, year, month),
		Location:      testLocation,
		Year:          year,
		Month:         month,
		Precipitation: pr,
		MaxTemp:       tasmax,
		MinTemp:       tasmin,
		AvgTemp:       &avg,
	}
}

// julySeries builds one July record per year in [start, end], all with the
// same values except for the year given as outlierYear.
func julySeries(start, end, outlierYear int, base, outlier WeatherRecord) []WeatherRecord {
	var records []WeatherRecord
	for y := start; y <= end; y++ {
		src := base
		if y == outlierYear {
			src = outlier
		}
		records = append(records, makeRecord(y, 7, src.Precipitation, src.MaxTemp, src.MinTemp))
	}
	return records
}
