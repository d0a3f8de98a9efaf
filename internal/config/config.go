package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// MP logistics center
	MPEndpointURL string `envconfig:"MP_ENDPOINT_URL" default:"http://logistic-center.multipunkt.de/api/odoo/logistics"`
	MPUseMock     bool   `envconfig:"MP_USE_MOCK" default:"false"`

	// Inbound tracking webhook credentials
	WebhookUsername string `envconfig:"WEBHOOK_USERNAME" required:"true"`
	WebhookPassword string `envconfig:"WEBHOOK_PASSWORD" required:"true"`

	// Record store. Empty DSN runs the in-memory store.
	DatabaseDSN string `envconfig:"DATABASE_DSN"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.observability.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"mpbridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("mp.mock", c.MPUseMock),
		attribute.Bool("store.postgres", c.DatabaseDSN != ""),
	}
}
