package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/warelink/mpbridge/internal/server"
	"github.com/warelink/mpbridge/internal/shipping"
	"github.com/warelink/mpbridge/internal/telemetry"
	"github.com/warelink/mpbridge/internal/tracking"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "mpbridge",
	Short:   "MP Logistics Bridge - warehouse shipping gateway for the MP logistics center",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	st, closeStore, err := initStore(cfg)
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	defer closeStore()

	registry := initCarrierRegistry(cfg, logger)
	metrics := telemetry.NewMetrics()

	svc := shipping.NewService(st, registry, shipping.NopRenderer{}, logger, metrics)
	reconciler := tracking.New(st, logger)

	logger.Info("Starting MP Logistics Bridge",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
	)

	srv := server.New(server.Config{
		Port: cfg.Port,
		WebhookAuth: server.BasicAuth{
			Username: cfg.WebhookUsername,
			Password: cfg.WebhookPassword,
		},
	}, svc, reconciler, logger, metrics)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
