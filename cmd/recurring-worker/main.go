// Command recurring-worker materializes due recurring transactions on a
// fixed interval and serves Prometheus metrics.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"chitieu/internal/amqp"
	"chitieu/internal/cli"
	"chitieu/internal/config"
	"chitieu/internal/log"
	"chitieu/internal/metrics"
	"chitieu/internal/notify"
	"chitieu/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentRecurring)
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := run(ctx, logger, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Recurring-worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	hub := notify.NewHub()
	hub.Subscribe(m.Listener())

	// Created transactions go to the sync worker through AMQP. Without it
	// they still get exported by the sync worker's pending scan.
	if cfg.AMQPURL != "" {
		broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "")
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			defer broker.Close()
			hub.Subscribe(broker.Listener())
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - created transactions are not announced")
	}

	ledgerSvc := services.NewLedgerService(res.Store, hub)
	defer ledgerSvc.Close()
	processor := services.NewRecurringProcessor(res.Store, ledgerSvc)

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"backend", cfg.DataBackend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cli.ServeMetrics(gctx, logger.WithComponent(log.ComponentMetrics), cfg.MetricsAddr, prometheus.DefaultGatherer)
	})
	g.Go(func() error {
		return processLoop(gctx, logger, processor, m, cfg.RecurringInterval)
	})
	return g.Wait()
}

// processLoop runs once at startup and then on every tick until ctx is done.
func processLoop(ctx context.Context, logger *log.Logger, p *services.RecurringProcessor, m *metrics.Metrics, interval time.Duration) error {
	process := func(now time.Time) {
		count, err := p.ProcessDue(ctx, now)
		m.AddRecurring(count)
		if err != nil {
			if ctx.Err() == nil {
				logger.ErrorContext(ctx, "Recurring processing failed", log.FieldError, err)
			}
			return
		}
		logger.InfoContext(ctx, "Recurring processing complete",
			"transactions_created", count,
			"next_check", now.Add(interval).Format("15:04:05"))
	}

	logger.Info("Running initial recurring processing...")
	process(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			process(now)
		}
	}
}
