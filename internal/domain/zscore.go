package domain

import (
	"fmt"
	"math"
	"time"
)

// scoredMetrics lists the variables the z-score detector covers, in the order
// anomalies are emitted for each record. The order is part of the dedup
// contract: a record flagged on both temperature metrics keeps tasmax.
var scoredMetrics = []Metric{MetricMaxTemp, MetricMinTemp, MetricPrecipitation}

// MetricScore is one variable of one record after both statistical passes.
type MetricScore struct {
	Value       float64 `json:"value"`
	Baseline    float64 `json:"historical_avg"`
	Deviation   float64 `json:"anomaly"`
	AnomalyStd  float64 `json:"anomaly_std"`
	ZScore      float64 `json:"z_score"`
	Significant bool    `json:"significant"`
}

// ScoredRecord pairs a record with its per-metric scores.
type ScoredRecord struct {
	Record        WeatherRecord `json:"record"`
	Precipitation MetricScore   `json:"precipitation"`
	MaxTemp       MetricScore   `json:"max_temperature"`
	MinTemp       MetricScore   `json:"min_temperature"`
}

// Score returns the score for a metric.
func (s ScoredRecord) Score(m Metric) MetricScore {
	switch m {
	case MetricPrecipitation:
		return s.Precipitation
	case MetricMaxTemp:
		return s.MaxTemp
	default:
		return s.MinTemp
	}
}

func (s *ScoredRecord) setScore(m Metric, score MetricScore) {
	switch m {
	case MetricPrecipitation:
		s.Precipitation = score
	case MetricMaxTemp:
		s.MaxTemp = score
	default:
		s.MinTemp = score
	}
}

type monthMetric struct {
	month  int
	metric Metric
}

// ScoreRecords runs the two statistical passes over a location's records.
//
// Pass one subtracts each record's monthly baseline to get a deviation. Pass
// two takes, per calendar month, the sample std of those deviations. The
// z-score is deviation / anomaly std, 0 when that std is 0. Output order
// matches input order.
func ScoreRecords(records []WeatherRecord) []ScoredRecord {
	if len(records) == 0 {
		return nil
	}
	baselines := ComputeBaselines(records)

	scored := make([]ScoredRecord, len(records))
	deviations := make(map[monthMetric][]float64)
	for i, r := range records {
		scored[i].Record = r
		b := baselines[r.Month]
		for _, m := range scoredMetrics {
			v := m.Value(r)
			dev := v - b.Value(m)
			scored[i].setScore(m, MetricScore{Value: v, Baseline: b.Value(m), Deviation: dev})
			key := monthMetric{month: r.Month, metric: m}
			deviations[key] = append(deviations[key], dev)
		}
	}

	anomalyStd := make(map[monthMetric]float64, len(deviations))
	for key, devs := range deviations {
		anomalyStd[key] = SampleStd(devs)
	}

	for i := range scored {
		for _, m := range scoredMetrics {
			s := scored[i].Score(m)
			s.AnomalyStd = anomalyStd[monthMetric{month: scored[i].Record.Month, metric: m}]
			s.ZScore = ZScore(s.Deviation, 0, s.AnomalyStd)
			s.Significant = isSignificant(s.ZScore)
			scored[i].setScore(m, s)
		}
	}
	return scored
}

// ZScoreAnomalies converts the significant scores into anomalies. For each
// record, metrics are emitted in tasmax, tasmin, precipitation order.
// Scores with an undefined z-score are skipped.
func ZScoreAnomalies(scored []ScoredRecord, detectedAt time.Time) []Anomaly {
	var anomalies []Anomaly
	for _, s := range scored {
		for _, m := range scoredMetrics {
			score := s.Score(m)
			if !score.Significant || math.IsNaN(score.ZScore) {
				continue
			}
			anomalies = append(anomalies, Anomaly{
				RecordID:          s.Record.ID,
				Kind:              m.Kind(),
				Metric:            m,
				Source:            SourceZScore,
				Severity:          ClassifySeverity(score.ZScore),
				Value:             score.Value,
				Expected:          score.Baseline,
				Deviation:         score.Deviation,
				ZScore:            score.ZScore,
				Significant:       true,
				MonthlyBaseline:   score.Baseline,
				MonthlyAnomalyStd: score.AnomalyStd,
				Description:       describeZScoreAnomaly(m, s.Record, score),
				Location:          s.Record.Location,
				DetectedAt:        detectedAt,
			})
		}
	}
	return anomalies
}

// DetectZScoreAnomalies scores records and returns the significant anomalies.
func DetectZScoreAnomalies(records []WeatherRecord, detectedAt time.Time) []Anomaly {
	return ZScoreAnomalies(ScoreRecords(records), detectedAt)
}

func describeZScoreAnomaly(m Metric, r WeatherRecord, s MetricScore) string {
	unit := m.Unit()
	return fmt.Sprintf("%s anomaly in %d-%02d: %.2f%s (monthly avg: %.2f%s, anomaly: %.2f%s, z-score: %.2f)",
		m.label(), r.Year, r.Month, s.Value, unit, s.Baseline, unit, s.Deviation, unit, s.ZScore)
}
