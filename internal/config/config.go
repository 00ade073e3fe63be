package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaRequestTopic string
	KafkaAnomalyTopic string
	KafkaGroupID      string
	HTTPAddr          string
	LogLevel          string
	LogFormat         string
	ShutdownTimeout   time.Duration

	SQLitePath          string
	MovingAverageWindow int

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	window, err := strconv.Atoi(sharedcfg.EnvOrDefault("MOVING_AVERAGE_WINDOW", "10"))
	if err != nil || window < 2 {
		return nil, errors.New("invalid MOVING_AVERAGE_WINDOW: must be an integer >= 2")
	}

	kafkaEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("KAFKA_ENABLED", "true"))
	if err != nil {
		return nil, errors.New("invalid KAFKA_ENABLED")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaEnabled:      kafkaEnabled,
		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaRequestTopic: sharedcfg.EnvOrDefault("KAFKA_REQUEST_TOPIC", "anomaly-detection-requests"),
		KafkaAnomalyTopic: sharedcfg.EnvOrDefault("KAFKA_ANOMALY_TOPIC", "climate-anomalies"),
		KafkaGroupID:      sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "climate-anomaly-detector"),
		HTTPAddr:          sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:   shutdownTimeout,

		SQLitePath:          sharedcfg.EnvOrDefault("SQLITE_PATH", "climate.db"),
		MovingAverageWindow: window,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaRequestTopic == "" {
			return nil, errors.New("KAFKA_REQUEST_TOPIC is required")
		}
		if cfg.KafkaAnomalyTopic == "" {
			return nil, errors.New("KAFKA_ANOMALY_TOPIC is required")
		}
	}
	if cfg.SQLitePath == "" {
		return nil, errors.New("SQLITE_PATH is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
