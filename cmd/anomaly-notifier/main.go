package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"costlens/internal/events"
	"costlens/pkg/config"
	"costlens/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.AMQP.URL == "" {
		logger.Fatal("AMQP_URL is required")
	}
	appLogger := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := events.NewClient(cfg.AMQP.URL, cfg.AMQP.ExchangeName, cfg.AMQP.QueueName, appLogger)
	if err != nil {
		logger.Fatal("Failed to connect to AMQP broker", zap.Error(err))
	}
	defer client.Close()

	logger.Info("Waiting for anomaly alerts", zap.String("queue", cfg.AMQP.QueueName))
	if err := client.ConsumeAnomalyAlerts(ctx, events.LogAlerts(appLogger)); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", zap.Error(err))
		return
	}
	logger.Info("Anomaly notifier stopped")
}
