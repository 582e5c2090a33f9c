package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lucasfarias/orderflow-backend/api/controllers"
	"github.com/lucasfarias/orderflow-backend/api/routes"
	"github.com/lucasfarias/orderflow-backend/internal/orders"
	"github.com/lucasfarias/orderflow-backend/pkg/broker"
	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/db"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
	"github.com/lucasfarias/orderflow-backend/pkg/logsink"
	"github.com/lucasfarias/orderflow-backend/pkg/metrics"
	"github.com/lucasfarias/orderflow-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "orders-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "orders-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	// The broker is best-effort for placement: a dead broker degrades the
	// service to durable writes with no events, it never blocks startup.
	var publisher orders.EventPublisher
	brokerClient, err := broker.Dial(ctx, cfg.Broker, logg)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "broker unavailable, placements will not publish events")
	} else {
		publisher = brokerClient
		defer func() {
			if err := brokerClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing broker", err)
			}
		}()
	}

	emitter := logsink.New(cfg.LogSink, cfg.Services.LogServiceURL, logg)
	go func() {
		if err := emitter.Run(ctx); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "log emitter stopped")
		}
	}()

	ordersSvc, err := orders.NewService(orders.NewRepository(dbClient.DB()), publisher, emitter, logg)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry, "orders-api")

	readiness := map[string]controllers.Pinger{
		"database": dbClient,
	}
	if brokerClient != nil {
		readiness["broker"] = brokerClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting orders api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewOrderRouter(cfg, logg, httpMetrics, registry, ordersSvc, readiness),
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(startCtx, "orders api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
