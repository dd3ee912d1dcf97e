package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"contable/internal/advisor"
	"contable/internal/amqp"
	"contable/internal/backend"
	"contable/internal/cache"
	"contable/internal/cli"
	"contable/internal/config"
	apphttp "contable/internal/http"
	"contable/internal/ledger"
	"contable/internal/log"
	"contable/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = 10 * time.Minute
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(nil, log.ComponentApp)
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	logger = cli.SetupLogger(cfg, log.ComponentApp)

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		cli.Fatal(logger, "Server error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}

	engine := ledger.New(ctx, store.Repository,
		ledger.WithLogger(logger.WithComponent(log.ComponentLedger).Slog()))

	// A nil interface, not a typed nil pointer, disables alerts.
	var alerts services.AlertPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without stock alerts", log.FieldError, err)
		} else {
			alerts = amqpClient
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	tips := advisor.New(advisor.Config{
		APIKey:   cfg.APIKey,
		Model:    cfg.TipModel,
		BaseURL:  cfg.TipBaseURL,
		Timeout:  cfg.TipTimeout,
		CacheTTL: cfg.TipCacheTTL,
	}, logger.WithComponent(log.ComponentAdvisor).Slog())
	if !tips.Enabled() {
		logger.Info("Advisory tips disabled, no API_KEY configured")
	}

	books := services.NewBookkeeping(engine, alerts, tips, cfg.LowStockThreshold, logger.Slog())

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Books:              books,
		Tips:               tips,
		Health:             store.Repository,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	sweeper := cache.NewSweeper(logger.WithComponent(log.ComponentCache).Slog(), tips.Cache(), srv.RateLimiter())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting contable server", "port", cfg.Port, "backend", cfg.DataBackend,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx, sweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
		return cli.GracefulShutdown(logger, shutdownTimeout,
			cli.ShutdownStep{Name: "http", Fn: srv.Shutdown},
			cli.ShutdownStep{Name: "tips", Fn: func(context.Context) error { tips.Wait(); return nil }},
			cli.ShutdownStep{Name: "amqp", Fn: func(context.Context) error {
				if amqpClient == nil {
					return nil
				}
				return amqpClient.Close()
			}},
			cli.ShutdownStep{Name: "storage", Fn: func(context.Context) error { return store.Cleanup() }},
		)
	})

	err = g.Wait()
	if n := engine.PersistFailures(); n > 0 {
		logger.Warn("Ledger had persistence failures during this run", "count", n)
	}
	logger.Info("Server stopped gracefully")
	return err
}
