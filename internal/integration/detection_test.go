//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	kafkaadapter "github.com/couchcryptid/climate-anomaly-service/internal/adapter/kafka"
	"github.com/couchcryptid/climate-anomaly-service/internal/config"
	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
	"github.com/couchcryptid/climate-anomaly-service/internal/ingest"
	"github.com/couchcryptid/climate-anomaly-service/internal/observability"
	"github.com/couchcryptid/climate-anomaly-service/internal/pipeline"
	"github.com/couchcryptid/climate-anomaly-service/internal/store/sqlite"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRequestTopic = "test-requests"
	testAnomalyTopic = "test-anomalies"
)

// julyCSV builds 31 Julys of steady weather with a 250mm cloudburst in 2005.
func julyCSV() string {
	var b strings.Builder
	b.WriteString("date,pr,tasmax,tasmin,year,month\n")
	for y := 1990; y <= 2020; y++ {
		pr := 80.0 + float64(y%3-1)
		if y == 2005 {
			pr = 250
		}
		tasmax := 30.0 + float64(y%2)*0.5
		fmt.Fprintf(&b, "%d-07-01,%.2f,%.2f,%.2f,%d,7\n", y, pr, tasmax, tasmax-10, y)
	}
	return b.String()
}

func newStore(ctx context.Context, t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(ctx, filepath.Join(t.TempDir(), "climate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	res, err := ingest.ParseCSV(strings.NewReader(julyCSV()), "Lisbon")
	require.NoError(t, err)
	require.Empty(t, res.Skipped)
	_, err = store.InsertRecords(ctx, res.Records)
	require.NoError(t, err)
	return store
}

// TestDetectorWithSQLite runs the detector against a real store and checks
// that a second run replaces rather than adds to the first.
func TestDetectorWithSQLite(t *testing.T) {
	ctx := context.Background()
	store := newStore(ctx, t)
	detector := pipeline.NewDetector(store, store, clockwork.NewRealClock(), discardLogger(), observability.NewMetricsForTesting())

	first, err := detector.Detect(ctx, "Lisbon")
	require.NoError(t, err)
	require.Positive(t, first.Persisted)

	second, err := detector.Detect(ctx, "Lisbon")
	require.NoError(t, err)
	assert.Equal(t, first.Persisted, second.Persisted)

	stored, err := store.QueryAnomalies(ctx, domain.AnomalyQuery{Location: "Lisbon", Limit: 100})
	require.NoError(t, err)
	assert.Len(t, stored, second.Persisted, "second run must replace the first")

	var found bool
	for _, a := range stored {
		if a.Kind == domain.KindPrecipitation && a.RecordID == domain.GenerateRecordID("Lisbon", 2005, 7) {
			found = true
			assert.Equal(t, domain.SeverityExtreme, a.Severity)
			assert.InDelta(t, 250.0, a.Value, 1e-9)
		}
	}
	assert.True(t, found, "2005 cloudburst should be stored")
}

// TestServiceEndToEnd publishes a detection request and expects the stored
// anomalies to come out on the anomaly topic.
func TestServiceEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testRequestTopic)
	createTopic(t, broker, testAnomalyTopic)

	cfg := &config.Config{
		KafkaEnabled:      true,
		KafkaBrokers:      []string{broker},
		KafkaRequestTopic: testRequestTopic,
		KafkaAnomalyTopic: testAnomalyTopic,
		KafkaGroupID:      fmt.Sprintf("test-detector-%d", time.Now().UnixNano()),
	}

	store := newStore(ctx, t)
	metrics := observability.NewMetricsForTesting()
	detector := pipeline.NewDetector(store, store, clockwork.NewRealClock(), discardLogger(), metrics)

	reader := kafkaadapter.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafkaadapter.NewWriter(cfg, nil, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	svc := pipeline.NewService(reader, detector, writer, discardLogger(), metrics)
	svcCtx, svcCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(svcCtx) }()

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testRequestTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("Lisbon"),
		Value: []byte(`{"location":"Lisbon"}`),
	}))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testAnomalyTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 60*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from anomaly topic")

	svcCancel()
	require.NoError(t, <-errCh)

	var event domain.AnomalyEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "Lisbon", event.Location)
	assert.Equal(t, event.RecordID, string(msg.Key))
	assert.Nil(t, event.Geo, "geocoding disabled")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.NotEmpty(t, headers["severity"])
	_, err = time.Parse(time.RFC3339, headers["detected_at"])
	assert.NoError(t, err, "detected_at should be valid RFC3339")
}
