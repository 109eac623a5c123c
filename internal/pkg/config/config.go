// Package config reads the storefront settings from the environment.
//
// Every setting is read from STOREFRONT_<NAME> first and then from the bare
// <NAME>, so the conventional DATABASE_URL, REDIS_ADDR, KAFKA_BROKERS and
// PORT work unchanged.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/jcmexdev/grocery-storefront/internal/pkg/telemetry"
)

const Prefix = "STOREFRONT"

var ErrInvalidConfig = errors.New("invalid configuration")

// Logging holds the settings every command needs before it runs.
type Logging struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type Config struct {
	Logging

	Port     int `envconfig:"PORT" default:"8080"`
	GRPCPort int `envconfig:"GRPC_PORT" default:"9090"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:"storefront.db"`
	RedisAddr   string `envconfig:"REDIS_ADDR"`

	KafkaBrokers     string `envconfig:"KAFKA_BROKERS"`
	KafkaPlacedTopic string `envconfig:"KAFKA_PLACED_TOPIC" default:"order.placed"`
	KafkaStatusTopic string `envconfig:"KAFKA_STATUS_TOPIC" default:"order.status"`
	KafkaGroupID     string `envconfig:"KAFKA_GROUP_ID" default:"storefront"`

	// MockTracking answers lookups with synthetic records instead of the
	// order store.
	MockTracking     bool          `envconfig:"MOCK_TRACKING" default:"false"`
	TrackingTimeout  time.Duration `envconfig:"TRACKING_TIMEOUT" default:"10s"`
	TrackingAttempts uint          `envconfig:"TRACKING_ATTEMPTS" default:"3"`
	TrackingCacheTTL time.Duration `envconfig:"TRACKING_CACHE_TTL" default:"5m"`

	ServiceName    string `envconfig:"OTEL_SERVICE_NAME" default:"storefront"`
	TracesExporter string `envconfig:"OTEL_TRACES_EXPORTER" default:"none"`
	OTLPEndpoint   string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	Environment    string `envconfig:"ENVIRONMENT" default:"local"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads and validates the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadLogging reads only the logging settings, so client commands are not
// held to the server's validation.
func LoadLogging() (Logging, error) {
	var l Logging
	if err := envconfig.Process(Prefix, &l); err != nil {
		return Logging{}, fmt.Errorf("config: process env: %w", err)
	}
	return l, nil
}

func (c Config) Validate() error {
	var problems []string
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", c.Port))
	}
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		problems = append(problems, fmt.Sprintf("grpc port %d out of range", c.GRPCPort))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		problems = append(problems, "database url is empty")
	}
	if c.TrackingTimeout <= 0 {
		problems = append(problems, "tracking timeout must be positive")
	}
	if c.TrackingAttempts == 0 {
		problems = append(problems, "tracking attempts must be at least 1")
	}
	switch c.TracesExporter {
	case telemetry.ExporterOTLP, telemetry.ExporterStdout, telemetry.ExporterNone:
	default:
		problems = append(problems, fmt.Sprintf("unknown traces exporter %q", c.TracesExporter))
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: %s: %w", strings.Join(problems, "; "), ErrInvalidConfig)
	}
	return nil
}

func (c Config) HTTPAddr() string { return fmt.Sprintf(":%d", c.Port) }

func (c Config) GRPCAddr() string { return fmt.Sprintf(":%d", c.GRPCPort) }

func (c Config) KafkaEnabled() bool { return strings.TrimSpace(c.KafkaBrokers) != "" }

func (c Config) RedisEnabled() bool { return strings.TrimSpace(c.RedisAddr) != "" }

func (c Config) Tracer() telemetry.TracerConfig {
	return telemetry.TracerConfig{
		ServiceName: c.ServiceName,
		Exporter:    c.TracesExporter,
		Endpoint:    c.OTLPEndpoint,
		Environment: c.Environment,
	}
}

// Usage prints the recognised variables.
func Usage() error {
	var cfg Config
	return envconfig.Usage(Prefix, &cfg)
}
