package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func januaries(n int, tmax func(i int) float64) []WeatherRecord {
	records := make([]WeatherRecord, n)
	for i := range records {
		records[i] = makeRecord(2000+i, 1, 50, tmax(i), 0)
	}
	return records
}

func TestDetectExtremeEvents_RecordHigh(t *testing.T) {
	records := januaries(12, func(i int) float64 {
		if i == 7 {
			return 20
		}
		return 10
	})

	anomalies := DetectExtremeEvents(records, testDetectedAt)
	require.Len(t, anomalies, 1)

	a := anomalies[0]
	assert.Equal(t, records[7].ID, a.RecordID)
	assert.Equal(t, KindTemperature, a.Kind)
	assert.Equal(t, MetricMaxTemp, a.Metric)
	assert.Equal(t, SourceExtreme, a.Source)
	assert.Equal(t, SeverityExtreme, a.Severity)
	assert.InDelta(t, 20.0, a.Value, 1e-12)
	assert.InDelta(t, 130.0/12.0, a.Expected, 1e-12)
	assert.InDelta(t, 20-130.0/12.0, a.Deviation, 1e-12)
	assert.Greater(t, a.ZScore, 3.0)
	assert.Equal(t, "Record high temperature for month 1: 20.00°C in 2007 (z-score: 3.18)", a.Description)
}

func TestDetectExtremeEvents_TiesAllQualify(t *testing.T) {
	records := januaries(12, func(i int) float64 {
		if i == 3 || i == 9 {
			return 20
		}
		return 10
	})

	anomalies := DetectExtremeEvents(records, testDetectedAt)
	require.Len(t, anomalies, 2)
	assert.Equal(t, records[3].ID, anomalies[0].RecordID)
	assert.Equal(t, records[9].ID, anomalies[1].RecordID)
	assert.InDelta(t, anomalies[0].ZScore, anomalies[1].ZScore, 1e-12)
}

func TestDetectExtremeEvents_InsufficientSample(t *testing.T) {
	records := januaries(9, func(i int) float64 {
		if i == 0 {
			return 100
		}
		return 10
	})

	assert.Empty(t, DetectExtremeEvents(records, testDetectedAt))
}

func TestDetectExtremeEvents_DegenerateVariance(t *testing.T) {
	records := januaries(15, func(int) float64 { return 10 })

	assert.Empty(t, DetectExtremeEvents(records, testDetectedAt))
}

func TestDetectExtremeEvents_RecordLowAndPrecipitation(t *testing.T) {
	var records []WeatherRecord
	for i := 0; i < 12; i++ {
		pr, tmin := 50.0, 5.0
		switch i {
		case 2:
			tmin = -5
		case 5:
			pr = 150
		}
		records = append(records, makeRecord(1990+i, 2, pr, 12, tmin))
	}

	anomalies := DetectExtremeEvents(records, testDetectedAt)
	require.Len(t, anomalies, 2)

	low := anomalies[0]
	assert.Equal(t, MetricMinTemp, low.Metric)
	assert.Equal(t, records[2].ID, low.RecordID)
	assert.Less(t, low.ZScore, -2.0)
	assert.Contains(t, low.Description, "Record low temperature for month 2: -5.00°C in 1992")

	wet := anomalies[1]
	assert.Equal(t, KindPrecipitation, wet.Kind)
	assert.Equal(t, records[5].ID, wet.RecordID)
	assert.Contains(t, wet.Description, "Record high precipitation for month 2: 150.00mm in 1995")
}

func TestDetectExtremeEvents_MonthsInAscendingOrder(t *testing.T) {
	spike := func(month int) []WeatherRecord {
		var out []WeatherRecord
		for i := 0; i < 10; i++ {
			tmax := 10.0
			if i == 0 {
				tmax = 30
			}
			out = append(out, makeRecord(2000+i, month, 50, tmax, 0))
		}
		return out
	}
	records := append(spike(11), spike(4)...)

	anomalies := DetectExtremeEvents(records, testDetectedAt)
	require.Len(t, anomalies, 2)
	assert.Contains(t, anomalies[0].Description, "month 4:")
	assert.Contains(t, anomalies[1].Description, "month 11:")
}
