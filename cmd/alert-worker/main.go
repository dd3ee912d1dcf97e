package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"contable/internal/amqp"
	"contable/internal/backend"
	"contable/internal/cache"
	"contable/internal/cli"
	"contable/internal/log"
	"contable/internal/worker"
)

const (
	dedupeWindow  = time.Hour
	sweepInterval = 10 * time.Minute
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(nil, log.ComponentWorker)
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	logger = cli.SetupLogger(cfg, log.ComponentWorker)

	if !cfg.AMQPEnabled() {
		cli.Fatal(logger, "AMQP_URL is required for the alert worker", errors.New("amqp disabled"))
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.Info("Starting alert-worker", log.FieldOperation, log.OpStartup)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	if err := backendCfg.RequireShared(); err != nil {
		cli.Fatal(logger, "The alert worker needs the API's persistent store", err)
	}
	store, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		_ = store.Cleanup()
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}

	alerts := worker.NewAlertWorker(store.Repository, worker.LogNotifier{Logger: logger.Slog()}, dedupeWindow)
	sweeper := cache.NewSweeper(logger.WithComponent(log.ComponentCache).Slog(), alerts.Seen())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeWithReconnect(gctx, alerts.HandleStockAlert)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return sweeper.Run(gctx, sweepInterval)
	})

	err = g.Wait()
	_ = cli.GracefulShutdown(logger, 10*time.Second,
		cli.ShutdownStep{Name: "amqp", Fn: func(context.Context) error { return amqpClient.Close() }},
		cli.ShutdownStep{Name: "storage", Fn: func(context.Context) error { return store.Cleanup() }},
	)
	if err != nil {
		cli.Fatal(logger, "Message consumption failed", err)
	}
	logger.Info("Alert worker stopped")
}
