// Package cli holds the start-up steps shared by the binaries under cmd/.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/store"
)

// SetupLogger builds the process logger for component and makes it the slog default.
// Unknown levels fall back to info.
func SetupLogger(level, component string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Component = component
	if lvl, err := applog.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits the process when it is invalid.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens the configured expense store or exits the process.
func OpenStore(ctx context.Context, logger *applog.Logger, cfg *config.Config) store.Store {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid storage configuration", "error", err)
		os.Exit(1)
	}
	s, err := backend.Open(ctx, bc, logger.WithComponent(applog.ComponentStorage).Logger)
	if err != nil {
		logger.Error("Failed to open expense store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return s
}

// NewExpenseService builds the service over st. Aggregates are cached only on
// the memory backend, where this process is the only writer; SQLite and
// Postgres may be written by other processes, so their sums are recomputed
// on every call.
func NewExpenseService(cfg *config.Config, st store.Store, publisher services.EventPublisher) (*services.ExpenseService, error) {
	if cfg.DataBackend == config.BackendMemory {
		return services.NewCachedExpenseService(st, publisher)
	}
	return services.NewExpenseService(st, publisher, nil, nil), nil
}

// ConnectAMQP dials the broker when AMQP_URL is set. It returns nil, nil
// when messaging is disabled.
func ConnectAMQP(logger *applog.Logger, cfg *config.Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP broker: %w", err)
	}
	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
