package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/detector"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
	"expensetracker/internal/notify"
	"expensetracker/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Expense tracker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Expense tracker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	st := cli.OpenStore(ctx, logger, cfg)

	var publisher services.EventPublisher
	var statusPub notify.StatusPublisher
	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
	} else if amqpClient != nil {
		defer amqpClient.Close()
		publisher, statusPub = amqpClient, amqpClient
	}

	svc, err := cli.NewExpenseService(cfg, st, publisher)
	if err != nil {
		st.Close()
		return fmt.Errorf("create expense service: %w", err)
	}
	defer svc.Close()

	board := notify.NewBoard(cfg.NotificationsEnabled, 0)
	detectorLogger := logger.WithComponent(applog.ComponentDetector)
	notifiers := notify.Multi{board, notify.NewLogNotifier(detectorLogger.Logger)}
	if statusPub != nil {
		notifiers = append(notifiers, notify.NewAMQPNotifier(statusPub))
	}

	opts := apphttp.Options{
		Logger:             logger,
		Board:              board,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}

	var gen *detector.Generator
	if cfg.DetectorEnabled {
		dc, err := cfg.Detector()
		if err != nil {
			return err
		}
		gen, err = detector.New(dc, svc, notifiers, detector.WithLogger(detectorLogger.Logger))
		if err != nil {
			return fmt.Errorf("create detector: %w", err)
		}
		opts.Detector = gen
	} else {
		logger.Info("Detector disabled")
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, opts)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting expense tracker",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"detector", cfg.DetectorEnabled,
			"amqp", amqpClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if gen != nil {
		if err := gen.Start(gctx); err != nil {
			return err
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if gen != nil {
			if err := gen.Stop(shutdownCtx); err != nil {
				logger.Warn("Detector shutdown error", "error", err)
			}
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
