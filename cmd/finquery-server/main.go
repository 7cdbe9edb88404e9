package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"finquery-engine/internal/common/config"
	"finquery-engine/internal/common/database"
	"finquery-engine/internal/common/logger"
	"finquery-engine/internal/common/observability"
	"finquery-engine/internal/dataaccess"
	"finquery-engine/internal/engine/orchestrator"
	"finquery-engine/internal/engine/respond"
	"finquery-engine/internal/engine/snapshot"
	"finquery-engine/internal/remote"
	"finquery-engine/internal/server"
)

// retryWithBackoff retries an operation with a linearly growing delay.
func retryWithBackoff(operation func() error, maxRetries int, delay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if i < maxRetries-1 {
			wait := time.Duration(i+1) * delay
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("delay", wait),
			)
			time.Sleep(wait)
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := logger.NewZapAdapter(zapLogger)

	log.Info("starting finquery server", map[string]interface{}{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"engine_mode": cfg.Engine.Mode,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var connErr error
		pg, connErr = database.NewPostgres(cfg.Database.Postgres)
		return connErr
	}, 5, 2*time.Second, zapLogger, "postgres connection")
	if err != nil {
		zapLogger.Fatal("could not connect to postgres", zap.Error(err))
	}
	defer pg.Close()

	store := dataaccess.NewPostgresStore(pg.GetDB())
	aggregator := snapshot.New(store, log)
	generator := respond.New(log)

	var remoteClient orchestrator.RemoteGenerator
	if cfg.Engine.Mode == config.EngineModeRemote {
		client, err := remote.NewClient(cfg.Remote, log)
		if err != nil {
			zapLogger.Fatal("could not build remote client", zap.Error(err))
		}
		remoteClient = client
	}

	engine := orchestrator.New(cfg.Engine, aggregator, generator, remoteClient, log)
	srv := server.New(cfg.Server, engine, obs, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case sig := <-quit:
		log.Info("shutdown signal received", map[string]interface{}{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	log.Info("server stopped", nil)
}
