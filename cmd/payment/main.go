package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lucasfarias/orderflow-backend/api/routes"
	"github.com/lucasfarias/orderflow-backend/internal/payments"
	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
	"github.com/lucasfarias/orderflow-backend/pkg/logsink"
	"github.com/lucasfarias/orderflow-backend/pkg/metrics"
	"github.com/lucasfarias/orderflow-backend/pkg/orderclient"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "payment"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "payment",
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

	orderStore := orderclient.New(cfg.Services, cfg.Internal)
	paymentsSvc, err := payments.NewService(orderStore, emitter, cfg.Payment, logg)
	if err != nil {
		logg.Error(ctx, "failed to create payments service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry, "payment")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8004"
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting payment authority server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewPaymentRouter(cfg, logg, httpMetrics, registry, paymentsSvc, nil),
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(startCtx, "payment authority server stopped unexpectedly", err)
		os.Exit(1)
	}
}
