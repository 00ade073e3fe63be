package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
	"github.com/couchcryptid/climate-anomaly-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

const (
	initialBackoff     = 200 * time.Millisecond
	maxBackoff         = 5 * time.Second
	defaultMaxAttempts = 5
)

// RequestSource yields detection requests one at a time.
type RequestSource interface {
	FetchRequest(ctx context.Context) (domain.DetectionRequest, error)
}

// DetectionRunner runs a full detection for one location.
type DetectionRunner interface {
	Detect(ctx context.Context, location string) (Result, error)
}

// AnomalyPublisher publishes persisted anomalies to downstream consumers.
type AnomalyPublisher interface {
	PublishAnomalies(ctx context.Context, location string, anomalies []domain.Anomaly) error
}

// Service consumes detection requests, runs them and publishes the results.
// Requests are handled sequentially, which serializes runs per location.
type Service struct {
	requests  RequestSource
	runner    DetectionRunner
	publisher AnomalyPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	maxAttempts    int
	initialBackoff time.Duration
}

// NewService wires a request source, a detection runner and a publisher.
func NewService(requests RequestSource, runner DetectionRunner, publisher AnomalyPublisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		requests:  requests,
		runner:    runner,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,

		maxAttempts:    defaultMaxAttempts,
		initialBackoff: initialBackoff,
	}
}

// Run processes requests until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("detection service started")
	s.metrics.ServiceRunning.Set(1)
	defer s.metrics.ServiceRunning.Set(0)

	backoff := s.initialBackoff
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("detection service stopping", "reason", ctx.Err())
			return nil
		default:
		}

		req, err := s.requests.FetchRequest(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("fetch request failed", "error", err)
			if !s.backoffOrStop(ctx, &backoff) {
				return nil
			}
			continue
		}
		backoff = s.initialBackoff
		s.metrics.RequestsConsumed.Inc()

		if !s.handle(ctx, req) {
			return nil
		}
	}
}

// handle runs one request, retrying with backoff on failure. Retrying is safe
// since each run replaces the location's stored anomalies. After maxAttempts
// failures the request is committed and dropped so later requests on the
// partition are not blocked. Returns false if the service should stop.
func (s *Service) handle(ctx context.Context, req domain.DetectionRequest) bool {
	if req.Location == "" {
		s.logger.Warn("request without location, skipping",
			"topic", req.Topic, "partition", req.Partition, "offset", req.Offset)
		s.commit(ctx, req)
		return true
	}

	backoff := s.initialBackoff
	for attempt := 1; ; attempt++ {
		err := s.process(ctx, req)
		if err == nil {
			s.commit(ctx, req)
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		if attempt >= s.maxAttempts {
			s.logger.Error("request failed, dropping",
				"location", req.Location, "attempts", attempt, "error", err,
				"topic", req.Topic, "partition", req.Partition, "offset", req.Offset)
			s.metrics.RequestsDropped.Inc()
			s.commit(ctx, req)
			return true
		}
		s.logger.Warn("request failed, retrying",
			"location", req.Location, "attempt", attempt, "error", err, "backoff", backoff)
		if !s.backoffOrStop(ctx, &backoff) {
			return false
		}
	}
}

func (s *Service) process(ctx context.Context, req domain.DetectionRequest) error {
	res, err := s.runner.Detect(ctx, req.Location)
	if err != nil {
		return err
	}
	if len(res.Anomalies) == 0 {
		return nil
	}
	if err := s.publisher.PublishAnomalies(ctx, req.Location, res.Anomalies); err != nil {
		s.metrics.PublishErrors.Inc()
		return err
	}
	return nil
}

func (s *Service) commit(ctx context.Context, req domain.DetectionRequest) {
	if req.Commit == nil {
		return
	}
	if err := req.Commit(ctx); err != nil {
		s.logger.Warn("commit offset failed", "error", err,
			"topic", req.Topic, "partition", req.Partition, "offset", req.Offset)
	}
}

// backoffOrStop sleeps for the current backoff and advances it. Returns false
// if the context was cancelled.
func (s *Service) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}
