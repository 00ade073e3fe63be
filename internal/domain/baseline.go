package domain

import "sort"

// MonthlyBaseline holds the historical mean of each variable for one calendar
// month, computed across every year present.
type MonthlyBaseline struct {
	Month         int
	Samples       int
	Precipitation float64
	MaxTemp       float64
	MinTemp       float64
}

// Value returns the baseline for a metric. MetricAvgTemp has no monthly
// baseline and returns 0.
func (b MonthlyBaseline) Value(m Metric) float64 {
	switch m {
	case MetricPrecipitation:
		return b.Precipitation
	case MetricMaxTemp:
		return b.MaxTemp
	case MetricMinTemp:
		return b.MinTemp
	default:
		return 0
	}
}

// Baselines maps calendar month to its baseline.
type Baselines map[int]MonthlyBaseline

// ComputeBaselines groups records by calendar month, regardless of year, and
// averages each variable within the group. The result is empty only when
// records is empty; callers must check before scoring.
func ComputeBaselines(records []WeatherRecord) Baselines {
	baselines := make(Baselines)
	for _, g := range groupByMonth(records) {
		baselines[g.month] = MonthlyBaseline{
			Month:         g.month,
			Samples:       len(g.records),
			Precipitation: Mean(metricValues(g.records, MetricPrecipitation)),
			MaxTemp:       Mean(metricValues(g.records, MetricMaxTemp)),
			MinTemp:       Mean(metricValues(g.records, MetricMinTemp)),
		}
	}
	return baselines
}

// monthGroup is the set of records sharing a calendar month, in input order.
type monthGroup struct {
	month   int
	records []WeatherRecord
}

// groupByMonth partitions records by calendar month. Groups come back in
// ascending month order so iteration is deterministic.
func groupByMonth(records []WeatherRecord) []monthGroup {
	byMonth := make(map[int][]WeatherRecord)
	for _, r := range records {
		byMonth[r.Month] = append(byMonth[r.Month], r)
	}

	months := make([]int, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Ints(months)

	groups := make([]monthGroup, 0, len(months))
	for _, m := range months {
		groups = append(groups, monthGroup{month: m, records: byMonth[m]})
	}
	return groups
}

func metricValues(records []WeatherRecord, m Metric) []float64 {
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = m.Value(r)
	}
	return values
}
