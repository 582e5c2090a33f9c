package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lucasfarias/orderflow-backend/internal/consumers/reconcile"
	"github.com/lucasfarias/orderflow-backend/pkg/broker"
	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
	"github.com/lucasfarias/orderflow-backend/pkg/logsink"
	"github.com/lucasfarias/orderflow-backend/pkg/orderclient"
	"github.com/lucasfarias/orderflow-backend/pkg/paymentclient"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emitter := logsink.New(cfg.LogSink, cfg.Services.LogServiceURL, logg)
	go func() {
		if err := emitter.Run(ctx); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "log emitter stopped")
		}
	}()

	worker, err := reconcile.NewWorker(
		paymentclient.New(cfg.Services),
		orderclient.New(cfg.Services, cfg.Internal),
		emitter,
		cfg.Saga,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create reconciliation worker", err)
		os.Exit(1)
	}

	dial := func(ctx context.Context) (reconcile.DeliverySource, error) {
		return broker.Dial(ctx, cfg.Broker, logg)
	}

	logg.Info(logg.WithField(ctx, "queue", cfg.Broker.Queue), "starting reconciliation worker")

	if err := worker.Run(ctx, dial, cfg.Broker.ReconnectDelay); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconciliation worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(context.Background(), "reconciliation worker stopped")
}
