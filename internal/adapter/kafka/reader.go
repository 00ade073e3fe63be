package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/climate-anomaly-service/internal/config"
	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Reader consumes detection requests from a Kafka topic.
// It implements pipeline.RequestSource.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a consumer-group reader for the configured request topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		GroupID:     cfg.KafkaGroupID,
		Topic:       cfg.KafkaRequestTopic,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    1e6,
	})
	return &Reader{reader: r, logger: logger}
}

// FetchRequest blocks until the next request arrives. The offset is not
// committed until the returned request's Commit is called.
func (r *Reader) FetchRequest(ctx context.Context) (domain.DetectionRequest, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return domain.DetectionRequest{}, fmt.Errorf("fetch request: %w", err)
	}

	req, err := mapMessageToRequest(msg)
	if err != nil {
		// Malformed payloads surface as a request without a location, which
		// the service commits and skips.
		r.logger.Warn("malformed detection request", "error", err,
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	}
	req.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return req, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

type requestPayload struct {
	Location string `json:"location"`
}

// mapMessageToRequest reads the location from a JSON body, falling back to
// the message key when the body is empty.
func mapMessageToRequest(msg kafkago.Message) (domain.DetectionRequest, error) {
	req := domain.DetectionRequest{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}

	if len(msg.Value) > 0 {
		var p requestPayload
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			return req, fmt.Errorf("decode request: %w", err)
		}
		req.Location = strings.TrimSpace(p.Location)
	}
	if req.Location == "" {
		req.Location = strings.TrimSpace(string(msg.Key))
	}
	return req, nil
}
