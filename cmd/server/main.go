package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/config"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/db"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/events"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/handlers"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("failed to create logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("ledger-service stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	// Apply schema migrations before serving traffic
	if err := db.Migrate(cfg.Database.URL, logger); err != nil {
		return err
	}

	// Initialize database connection pool
	pool, err := db.NewPool(ctx, cfg.Database.URL, db.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("database connection pool initialized")

	// Create repositories
	accountRepo := db.NewAccountRepository(pool.Pool)
	transferRepo := db.NewTransferRepository(pool.Pool)
	txManager := db.NewTransactionManager(pool.Pool, cfg.Database.LockTimeout, logger)

	// Optional event publisher
	var publisher domain.EventPublisher
	if cfg.RabbitMQ.EventsEnabled() {
		rmq, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
		if err != nil {
			return err
		}
		defer rmq.Close()
		publisher = rmq
		logger.Info("transfer events enabled",
			zap.String("exchange", cfg.RabbitMQ.Exchange),
			zap.String("routing_key", cfg.RabbitMQ.RoutingKey),
		)
	} else {
		logger.Info("RABBITMQ_URL not set, transfer events disabled")
	}

	// Create domain services
	transferService := domain.NewTransferService(accountRepo, transferRepo, txManager, publisher, logger)
	accountService := domain.NewAccountService(accountRepo)
	logger.Info("domain services initialized")

	handler := handlers.NewHandler(accountService, transferService, pool, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("ledger-service HTTP server starting", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.Info("shutting down HTTP server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")

	return nil
}
