package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by storage lookups that match nothing.
var ErrNotFound = errors.New("not found")

// VariableKind is the coarse variable category an anomaly is stored under.
type VariableKind string

const (
	KindTemperature   VariableKind = "temperature"
	KindPrecipitation VariableKind = "precipitation"
)

// Severity is the tier assigned to an anomaly.
type Severity string

const (
	SeverityLow     Severity = "low"
	SeverityMedium  Severity = "medium"
	SeverityHigh    Severity = "high"
	SeverityExtreme Severity = "extreme"
)

// ParseSeverity validates a severity name. The empty string is accepted and
// means "any severity".
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case "", SeverityLow, SeverityMedium, SeverityHigh, SeverityExtreme:
		return Severity(s), nil
	default:
		return "", fmt.Errorf("invalid severity %q", s)
	}
}

// Source names the detector that produced an anomaly.
type Source string

const (
	SourceZScore        Source = "zscore"
	SourceExtreme       Source = "extreme"
	SourceMovingAverage Source = "moving_average"
)

// Anomaly is a flagged observation. It is created by a detector, persisted by
// the storage collaborator and never mutated afterwards.
type Anomaly struct {
	ID                string       `json:"id,omitempty"`
	RecordID          string       `json:"weather_data_id"`
	Kind              VariableKind `json:"anomaly_type"`
	Metric            Metric       `json:"metric_type,omitempty"`
	Source            Source       `json:"source"`
	Severity          Severity     `json:"severity"`
	Value             float64      `json:"value"`
	Expected          float64      `json:"expected_value"`
	Deviation         float64      `json:"deviation"`
	ZScore            float64      `json:"z_score"`
	Significant       bool         `json:"is_significant"`
	MonthlyBaseline   float64      `json:"monthly_historical_avg"`
	MonthlyAnomalyStd float64      `json:"monthly_anomaly_std"`
	Description       string       `json:"description"`
	Location          string       `json:"location"`
	DetectedAt        time.Time    `json:"detected_at"`
}

// AnomalyQuery filters stored anomalies. Zero Severity matches all tiers.
type AnomalyQuery struct {
	Location string
	Severity Severity
	Limit    int
}

// DataSummary describes the stored record set.
type DataSummary struct {
	TotalRecords     int      `json:"total_records"`
	StartYear        int      `json:"start_year,omitempty"`
	EndYear          int      `json:"end_year,omitempty"`
	AvgTemperature   float64  `json:"avg_temperature"`
	AvgPrecipitation float64  `json:"avg_precipitation"`
	Locations        []string `json:"locations"`
}
