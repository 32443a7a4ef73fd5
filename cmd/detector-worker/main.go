package main

import (
	"context"
	"fmt"
	"os"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/detector"
	applog "expensetracker/internal/log"
	"expensetracker/internal/notify"
	"expensetracker/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentDetector)
	logger.Info("Starting detector-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Detector worker running on the memory backend; detected expenses are not shared with the API")
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Detector worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Detector worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	st := cli.OpenStore(ctx, logger, cfg)

	notifiers := notify.Multi{notify.NewLogNotifier(logger.Logger)}
	var publisher services.EventPublisher
	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
	} else if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
		notifiers = append(notifiers, notify.NewAMQPNotifier(amqpClient))
	}

	svc, err := cli.NewExpenseService(cfg, st, publisher)
	if err != nil {
		st.Close()
		return fmt.Errorf("create expense service: %w", err)
	}
	defer svc.Close()

	dc, err := cfg.Detector()
	if err != nil {
		return err
	}
	gen, err := detector.New(dc, svc, notifiers, detector.WithLogger(logger.Logger))
	if err != nil {
		return fmt.Errorf("create detector: %w", err)
	}
	return gen.Run(ctx)
}
