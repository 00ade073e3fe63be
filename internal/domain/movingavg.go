package domain

import (
	"fmt"
	"time"
)

// DefaultMovingAverageWindow is the window size used when none is given.
const DefaultMovingAverageWindow = 10

// DetectMovingAverageAnomalies flags mean-temperature observations that
// deviate from a centered rolling window.
//
// For every index i the window [i-W/2, i+W/2] is clamped to the series and
// its mean and sample std computed. Only indices in [W, len-W) are tested;
// the boundary points still feed their neighbours' windows. A point is
// flagged when the window std is positive and |z| >= SignificanceThreshold.
//
// The detector is skipped (nil result) when the dataset has fewer than W
// records or any record lacks a mean temperature. Records are used in the
// order given.
func DetectMovingAverageAnomalies(records []WeatherRecord, window int, detectedAt time.Time) []Anomaly {
	if window <= 0 {
		window = DefaultMovingAverageWindow
	}
	if len(records) < window {
		return nil
	}

	values := make([]float64, len(records))
	for i, r := range records {
		if r.AvgTemp == nil {
			return nil
		}
		values[i] = *r.AvgTemp
	}

	half := window / 2
	means := make([]float64, len(values))
	stds := make([]float64, len(values))
	for i := range values {
		start := max(0, i-half)
		end := min(len(values), i+half+1)
		means[i] = Mean(values[start:end])
		stds[i] = SampleStd(values[start:end])
	}

	var anomalies []Anomaly
	for i := window; i < len(values)-window; i++ {
		if stds[i] <= 0 {
			continue
		}
		z := ZScore(values[i], means[i], stds[i])
		if !isSignificant(z) {
			continue
		}
		r := records[i]
		anomalies = append(anomalies, Anomaly{
			RecordID:    r.ID,
			Kind:        KindTemperature,
			Metric:      MetricAvgTemp,
			Source:      SourceMovingAverage,
			Severity:    ClassifySeverity(z),
			Value:       values[i],
			Expected:    means[i],
			Deviation:   values[i] - means[i],
			ZScore:      z,
			Significant: true,
			Description: fmt.Sprintf("Moving average anomaly in %d-%02d: %.2f°C vs %.2f°C (z-score: %.2f)",
				r.Year, r.Month, values[i], means[i], z),
			Location:   r.Location,
			DetectedAt: detectedAt,
		})
	}
	return anomalies
}
