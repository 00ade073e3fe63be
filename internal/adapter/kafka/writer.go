package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-anomaly-service/internal/config"
	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces anomaly events to a Kafka topic.
// It implements pipeline.AnomalyPublisher.
type Writer struct {
	writer   *kafkago.Writer
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewWriter creates a Kafka producer for the configured anomaly topic. Pass a
// nil geocoder to publish events without coordinates.
func NewWriter(cfg *config.Config, geocoder domain.Geocoder, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAnomalyTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, geocoder: geocoder, logger: logger}
}

// PublishAnomalies serializes a location's anomalies and writes them in a
// single WriteMessages call. The location is geocoded once per call.
func (w *Writer) PublishAnomalies(ctx context.Context, location string, anomalies []domain.Anomaly) error {
	if len(anomalies) == 0 {
		return nil
	}
	geo := domain.ResolveLocation(ctx, w.geocoder, location, w.logger)

	msgs := make([]kafkago.Message, len(anomalies))
	for i := range anomalies {
		msg, err := serializeToMessage(domain.AnomalyEvent{Anomaly: anomalies[i], Geo: geo})
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an AnomalyEvent into a Kafka message keyed by
// record ID, so all anomalies for one record land on the same partition.
func serializeToMessage(event domain.AnomalyEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize anomaly event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.RecordID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "anomaly_type", Value: []byte(event.Kind)},
			{Key: "severity", Value: []byte(event.Severity)},
			{Key: "detected_at", Value: []byte(event.DetectedAt.Format(time.RFC3339))},
		},
	}, nil
}
