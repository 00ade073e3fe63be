package domain

// MetricSeries is the column-oriented view of one metric across a location's
// records, shaped for charting.
type MetricSeries struct {
	Dates         []string  `json:"dates"`
	Values        []float64 `json:"values"`
	HistoricalAvg []float64 `json:"historical_avg"`
	Anomalies     []float64 `json:"anomalies"`
	ZScores       []float64 `json:"z_scores"`
	Significant   []bool    `json:"significant"`
}

// Timeseries holds the per-metric series produced by the z-score pass.
type Timeseries struct {
	Precipitation  MetricSeries `json:"precipitation"`
	MaxTemperature MetricSeries `json:"max_temperature"`
	MinTemperature MetricSeries `json:"min_temperature"`
}

// BuildTimeseries flattens scored records into one series per metric,
// preserving record order.
func BuildTimeseries(scored []ScoredRecord) Timeseries {
	return Timeseries{
		Precipitation:  buildSeries(scored, MetricPrecipitation),
		MaxTemperature: buildSeries(scored, MetricMaxTemp),
		MinTemperature: buildSeries(scored, MetricMinTemp),
	}
}

func buildSeries(scored []ScoredRecord, m Metric) MetricSeries {
	s := MetricSeries{
		Dates:         make([]string, len(scored)),
		Values:        make([]float64, len(scored)),
		HistoricalAvg: make([]float64, len(scored)),
		Anomalies:     make([]float64, len(scored)),
		ZScores:       make([]float64, len(scored)),
		Significant:   make([]bool, len(scored)),
	}
	for i, rec := range scored {
		score := rec.Score(m)
		s.Dates[i] = rec.Record.Date().Format("2006-01-02")
		s.Values[i] = score.Value
		s.HistoricalAvg[i] = score.Baseline
		s.Anomalies[i] = score.Deviation
		s.ZScores[i] = score.ZScore
		s.Significant[i] = score.Significant
	}
	return s
}
