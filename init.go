package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/warelink/mpbridge/internal/config"
	"github.com/warelink/mpbridge/internal/store"
	"github.com/warelink/mpbridge/internal/telemetry"
	"github.com/warelink/mpbridge/pkg/carrier"
	"github.com/warelink/mpbridge/pkg/carrier/mp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	// A missing .env is fine; the environment wins either way.
	godotenv.Load()
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

func initStore(cfg *config.Config) (store.Store, func(), error) {
	if cfg.DatabaseDSN == "" {
		return store.NewMemory(), func() {}, nil
	}
	pg, err := store.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	return pg, func() { pg.Close() }, nil
}

func initCarrierRegistry(cfg *config.Config, logger *otelzap.Logger) *carrier.Registry {
	registry := carrier.NewRegistry()

	tracer := otel.GetTracerProvider().Tracer(cfg.ServiceName)

	mpCarrier := mp.New(mp.Config{
		EndpointURL: cfg.MPEndpointURL,
		UseMock:     cfg.MPUseMock,
	}, logger, tracer)
	registry.Register(mpCarrier)

	logger.Info("Registered carrier variants", zap.Strings("tags", registry.Tags()))

	return registry
}
