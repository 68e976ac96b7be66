package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todotracker/internal/adapter/database"
	"todotracker/internal/adapter/database/postgres"
	"todotracker/internal/adapter/database/sqlite"
	apphttp "todotracker/internal/adapter/http"
	"todotracker/internal/adapter/lock"
	"todotracker/internal/adapter/push"
	"todotracker/internal/adapter/telemetry"
	"todotracker/internal/core/port"
	"todotracker/pkg/config"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()

	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := config.NewLokiLogger(cfg.ServiceName, cfg.LokiURL)

	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}

	defer logger.Sync()

	zapLogger := logger.Zap()

	tel, err := telemetry.NewContainer(telemetry.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		MetricsPort:    cfg.MetricsPort,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	}, slog.Default())

	if err != nil {
		zapLogger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	metrics := tel.AppMetrics

	db, err := openDatabase(cfg)

	if err != nil {
		zapLogger.Fatal("Failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}

	defer db.Close()

	tel.PrometheusRegistry.MustRegister(collectors.NewDBStatsCollector(db.DB, cfg.Database.Driver))

	var transport port.PushTransport
	if t := push.NewWebPushTransport(push.Config{
		PublicKey:  cfg.Push.PublicKey,
		PrivateKey: cfg.Push.PrivateKey,
		Subject:    cfg.Push.Subject,
	}); t != nil {
		transport = t
	}

	var cycleLock port.CycleLock = lock.NewLocalLock()
	if cfg.RedisURL != "" {
		redisLock, err := lock.NewRedisLock(cfg.RedisURL)

		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}

		defer redisLock.Close()
		cycleLock = redisLock
	}

	server, err := apphttp.NewServer(db, apphttp.Dependencies{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Telemetry: tel.NewTelemetryProbe(slog.Default()),
		Transport: transport,
		Lock:      cycleLock,
	})

	if err != nil {
		zapLogger.Fatal("Failed to build server", zap.Error(err))
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			zapLogger.Error("Server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("Shutting down gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP shutdown failed", zap.Error(err))
	}

	if err := tel.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Telemetry shutdown failed", zap.Error(err))
	}
}

func openDatabase(cfg *config.AppConfig) (*database.DB, error) {
	if cfg.Database.Driver == database.DialectPostgres {
		return postgres.NewDB(postgres.Config{
			URL:            cfg.Database.URL,
			MigrationsPath: cfg.Database.MigrationsPath,
			LogLevel:       cfg.Database.LogLevel,
		})
	}

	return sqlite.NewDB(sqlite.Config{
		Path:           cfg.Database.Path,
		MigrationsPath: cfg.Database.MigrationsPath,
		LogLevel:       cfg.Database.LogLevel,
	})
}
