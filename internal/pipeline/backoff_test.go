package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
	"github.com/couchcryptid/climate-anomaly-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRunner struct {
	calls int
}

func (f *failingRunner) Detect(context.Context, string) (Result, error) {
	f.calls++
	return Result{}, ErrStorage
}

type nopPublisher struct{}

func (nopPublisher) PublishAnomalies(context.Context, string, []domain.Anomaly) error { return nil }

func newRetryService(runner DetectionRunner, attempts int) *Service {
	svc := NewService(nil, runner, nopPublisher{}, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	svc.maxAttempts = attempts
	svc.initialBackoff = time.Millisecond
	return svc
}

func TestBackoffOrStop_Doubles(t *testing.T) {
	svc := newRetryService(&failingRunner{}, 1)
	backoff := time.Millisecond

	require.True(t, svc.backoffOrStop(context.Background(), &backoff))
	assert.Equal(t, 2*time.Millisecond, backoff)
}

func TestBackoffOrStop_Cancelled(t *testing.T) {
	svc := newRetryService(&failingRunner{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	backoff := time.Minute

	assert.False(t, svc.backoffOrStop(ctx, &backoff))
	assert.Equal(t, time.Minute, backoff)
}

func TestHandle_DropsRequestAfterMaxAttempts(t *testing.T) {
	runner := &failingRunner{}
	svc := newRetryService(runner, 3)

	committed := false
	req := domain.DetectionRequest{
		Location: "Lisbon",
		Commit: func(context.Context) error {
			committed = true
			return nil
		},
	}

	assert.True(t, svc.handle(context.Background(), req))
	assert.Equal(t, 3, runner.calls)
	assert.True(t, committed)
	assert.InDelta(t, 1.0, testutil.ToFloat64(svc.metrics.RequestsDropped), 1e-9)
}

func TestHandle_StopsOnCancelWithoutCommit(t *testing.T) {
	runner := &failingRunner{}
	svc := newRetryService(runner, 3)
	svc.initialBackoff = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	committed := false
	req := domain.DetectionRequest{
		Location: "Lisbon",
		Commit: func(context.Context) error {
			committed = true
			return errors.New("unexpected commit")
		},
	}

	assert.False(t, svc.handle(ctx, req))
	assert.Equal(t, 1, runner.calls)
	assert.False(t, committed)
	assert.Zero(t, testutil.ToFloat64(svc.metrics.RequestsDropped))
}
