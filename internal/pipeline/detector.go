package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
	"github.com/couchcryptid/climate-anomaly-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrStorage marks a run that failed at the storage boundary. Nothing from
// such a run is persisted.
var ErrStorage = errors.New("storage failure")

// RecordSource reads a location's weather records ordered by year.
type RecordSource interface {
	FetchRecords(ctx context.Context, location string) ([]domain.WeatherRecord, error)
}

// AnomalyStore replaces a location's stored anomalies.
type AnomalyStore interface {
	DeleteAnomalies(ctx context.Context, location string) (int64, error)
	InsertAnomalies(ctx context.Context, anomalies []domain.Anomaly) (int, error)
}

// Result reports the outcome of one detection run.
type Result struct {
	Location      string           `json:"location"`
	Records       int              `json:"records"`
	ZScoreCount   int              `json:"zscore_anomalies"`
	ExtremeCount  int              `json:"extreme_events"`
	TotalDetected int              `json:"total_detected"`
	Duplicates    int              `json:"duplicates"`
	Persisted     int              `json:"persisted"`
	Anomalies     []domain.Anomaly `json:"anomalies"`
}

// Detector runs the statistical detectors for one location at a time.
// Runs for the same location must be serialized by the caller.
type Detector struct {
	records   RecordSource
	anomalies AnomalyStore
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewDetector creates a Detector. A nil clock uses the real clock.
func NewDetector(records RecordSource, anomalies AnomalyStore, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Detector {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Detector{
		records:   records,
		anomalies: anomalies,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Detect clears a location's stored anomalies, scores its records, runs the
// extreme-event check, deduplicates the union by (record, kind) and persists
// the result. Any storage error aborts the run and is wrapped in ErrStorage.
func (d *Detector) Detect(ctx context.Context, location string) (Result, error) {
	start := d.clock.Now()

	res, err := d.detect(ctx, location)
	if err != nil {
		d.metrics.DetectionRuns.WithLabelValues("error").Inc()
		d.logger.Error("detection run failed", "location", location, "error", err)
		return Result{}, err
	}

	d.metrics.DetectionRuns.WithLabelValues("success").Inc()
	d.metrics.AnomaliesDetected.WithLabelValues(string(domain.SourceZScore)).Add(float64(res.ZScoreCount))
	d.metrics.AnomaliesDetected.WithLabelValues(string(domain.SourceExtreme)).Add(float64(res.ExtremeCount))
	d.metrics.DuplicatesDropped.Add(float64(res.Duplicates))
	d.metrics.AnomaliesPersisted.Add(float64(res.Persisted))
	elapsed := d.clock.Since(start)
	d.metrics.DetectionDuration.Observe(elapsed.Seconds())

	d.logger.Info("detection run complete",
		"location", location,
		"records", res.Records,
		"zscore_anomalies", res.ZScoreCount,
		"extreme_events", res.ExtremeCount,
		"duplicates", res.Duplicates,
		"persisted", res.Persisted,
		"duration", elapsed,
	)
	return res, nil
}

func (d *Detector) detect(ctx context.Context, location string) (Result, error) {
	cleared, err := d.anomalies.DeleteAnomalies(ctx, location)
	if err != nil {
		return Result{}, fmt.Errorf("%w: clear anomalies for %s: %w", ErrStorage, location, err)
	}
	d.logger.Debug("cleared stored anomalies", "location", location, "deleted", cleared)

	records, err := d.records.FetchRecords(ctx, location)
	if err != nil {
		return Result{}, fmt.Errorf("%w: fetch records for %s: %w", ErrStorage, location, err)
	}

	detectedAt := d.clock.Now().UTC()
	zscore := domain.DetectZScoreAnomalies(records, detectedAt)
	extreme := domain.DetectExtremeEvents(records, detectedAt)

	union := make([]domain.Anomaly, 0, len(zscore)+len(extreme))
	union = append(union, zscore...)
	union = append(union, extreme...)
	unique, dropped := domain.Deduplicate(union)

	for i := range unique {
		unique[i].ID = uuid.NewString()
	}

	persisted, err := d.anomalies.InsertAnomalies(ctx, unique)
	if err != nil {
		return Result{}, fmt.Errorf("%w: persist anomalies for %s: %w", ErrStorage, location, err)
	}

	return Result{
		Location:      location,
		Records:       len(records),
		ZScoreCount:   len(zscore),
		ExtremeCount:  len(extreme),
		TotalDetected: len(union),
		Duplicates:    dropped,
		Persisted:     persisted,
		Anomalies:     unique,
	}, nil
}

// MovingAverage runs the rolling-window detector over a location's mean
// temperature series. Its anomalies are returned, not persisted.
func (d *Detector) MovingAverage(ctx context.Context, location string, window int) ([]domain.Anomaly, error) {
	records, err := d.records.FetchRecords(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch records for %s: %w", ErrStorage, location, err)
	}
	anomalies := domain.DetectMovingAverageAnomalies(records, window, d.clock.Now().UTC())
	d.metrics.AnomaliesDetected.WithLabelValues(string(domain.SourceMovingAverage)).Add(float64(len(anomalies)))
	return anomalies, nil
}

// Timeseries returns the scored per-metric series for a location.
func (d *Detector) Timeseries(ctx context.Context, location string) (domain.Timeseries, error) {
	records, err := d.records.FetchRecords(ctx, location)
	if err != nil {
		return domain.Timeseries{}, fmt.Errorf("%w: fetch records for %s: %w", ErrStorage, location, err)
	}
	return domain.BuildTimeseries(domain.ScoreRecords(records)), nil
}
