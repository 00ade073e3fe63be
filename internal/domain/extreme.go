package domain

import (
	"fmt"
	"math"
	"time"
)

// MinExtremeSamples is the number of records a calendar month needs before
// its cross-year extremes are considered.
const MinExtremeSamples = 10

// extremeCheck is one of the three record tests run per month.
type extremeCheck struct {
	metric Metric
	high   bool
	label  string
}

var extremeChecks = []extremeCheck{
	{metric: MetricMaxTemp, high: true, label: "Record high temperature"},
	{metric: MetricMinTemp, high: false, label: "Record low temperature"},
	{metric: MetricPrecipitation, high: true, label: "Record high precipitation"},
}

// monthExtreme is the outcome of one check over one month's distribution.
type monthExtreme struct {
	value float64
	mean  float64
	std   float64
	z     float64
}

// DetectExtremeEvents finds calendar-month record highs and lows across years.
//
// Months with fewer than MinExtremeSamples records are skipped. For each
// check, every record whose value equals the month's extreme qualifies (ties
// all emit), and an anomaly is emitted only when the extreme's z-score against
// the month's full distribution clears SignificanceThreshold. Severity is
// always extreme. Months are visited in ascending order, records in input
// order.
//
// A month whose values are all equal has zero spread, so its extreme scores
// z = 0 and nothing is emitted for it. This is intentional.
func DetectExtremeEvents(records []WeatherRecord, detectedAt time.Time) []Anomaly {
	var anomalies []Anomaly
	for _, g := range groupByMonth(records) {
		if len(g.records) < MinExtremeSamples {
			continue
		}

		extremes := make([]monthExtreme, len(extremeChecks))
		for i, c := range extremeChecks {
			extremes[i] = computeExtreme(metricValues(g.records, c.metric), c.high)
		}

		for _, r := range g.records {
			for i, c := range extremeChecks {
				ext := extremes[i]
				if c.metric.Value(r) != ext.value || !isSignificant(ext.z) {
					continue
				}
				anomalies = append(anomalies, Anomaly{
					RecordID:          r.ID,
					Kind:              c.metric.Kind(),
					Metric:            c.metric,
					Source:            SourceExtreme,
					Severity:          SeverityExtreme,
					Value:             ext.value,
					Expected:          ext.mean,
					Deviation:         ext.value - ext.mean,
					ZScore:            ext.z,
					Significant:       true,
					MonthlyBaseline:   ext.mean,
					MonthlyAnomalyStd: ext.std,
					Description: fmt.Sprintf("%s for month %d: %.2f%s in %d (z-score: %.2f)",
						c.label, g.month, ext.value, c.metric.Unit(), r.Year, ext.z),
					Location:   r.Location,
					DetectedAt: detectedAt,
				})
			}
		}
	}
	return anomalies
}

func computeExtreme(values []float64, high bool) monthExtreme {
	ext := values[0]
	for _, v := range values[1:] {
		if high {
			ext = math.Max(ext, v)
		} else {
			ext = math.Min(ext, v)
		}
	}
	mean := Mean(values)
	std := SampleStd(values)
	return monthExtreme{value: ext, mean: mean, std: std, z: ZScore(ext, mean, std)}
}
