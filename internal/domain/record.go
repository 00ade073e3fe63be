package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// WeatherRecord is one month of aggregated climate observations for a location.
type WeatherRecord struct {
	ID            string    `json:"id"`
	Location      string    `json:"location"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	Precipitation float64   `json:"pr_total"`
	MaxTemp       float64   `json:"tasmax_avg"`
	MinTemp       float64   `json:"tasmin_avg"`
	AvgTemp       *float64  `json:"tas_avg,omitempty"` // nil when the dataset carries no mean temperature
	IngestedAt    time.Time `json:"ingested_at"`
}

// Date returns the first day of the record's month in UTC.
func (r WeatherRecord) Date() time.Time {
	return time.Date(r.Year, time.Month(r.Month), 1, 0, 0, 0, 0, time.UTC)
}

// GenerateRecordID produces a deterministic ID from a record's identity fields.
// Re-ingesting the same location/month yields the same ID, which turns the
// insert into a replace.
func GenerateRecordID(location string, year, month int) string {
	input := fmt.Sprintf("%s|%04d|%02d", location, year, month)
	hash := sha256.Sum256([]byte(input))
	return "rec-" + hex.EncodeToString(hash[:8])
}

// Metric identifies one of the observed climate variables.
type Metric string

const (
	MetricPrecipitation Metric = "pr"
	MetricMaxTemp       Metric = "tasmax"
	MetricMinTemp       Metric = "tasmin"
	MetricAvgTemp       Metric = "tas"
)

// Value extracts the metric's observation from a record. MetricAvgTemp
// returns 0 when the record carries no mean temperature.
func (m Metric) Value(r WeatherRecord) float64 {
	switch m {
	case MetricPrecipitation:
		return r.Precipitation
	case MetricMaxTemp:
		return r.MaxTemp
	case MetricMinTemp:
		return r.MinTemp
	case MetricAvgTemp:
		if r.AvgTemp != nil {
			return *r.AvgTemp
		}
	}
	return 0
}

// Kind maps a metric to the variable kind anomalies are stored under.
// All temperature metrics share KindTemperature.
func (m Metric) Kind() VariableKind {
	if m == MetricPrecipitation {
		return KindPrecipitation
	}
	return KindTemperature
}

// Unit is the display unit used in anomaly descriptions.
func (m Metric) Unit() string {
	if m == MetricPrecipitation {
		return "mm"
	}
	return "°C"
}

func (m Metric) label() string {
	switch m {
	case MetricPrecipitation:
		return "Precipitation"
	case MetricMaxTemp:
		return "Maximum temperature"
	case MetricMinTemp:
		return "Minimum temperature"
	default:
		return "Average temperature"
	}
}
