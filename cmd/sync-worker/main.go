// Command sync-worker appends confirmed transactions to a Google Sheet. It
// consumes transaction-created messages from AMQP and periodically scans the
// SQLite store for records whose export is still pending.
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
	"chitieu/internal/sheets/google"
	"chitieu/internal/worker"
)

var errNoSpreadsheet = errors.New("GOOGLE_SPREADSHEET_ID is required for the sync worker")

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting sync-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := run(ctx, logger, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Sync-worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	if cfg.GoogleSpreadsheetID == "" {
		return errNoSpreadsheet
	}

	// Sync status lives in SQLite only; other backends sync elsewhere.
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sheetsClient, err := google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	m := metrics.New(prometheus.DefaultRegisterer)
	syncWorker := worker.NewSyncWorker(repo, m.InstrumentExporter(sheetsClient), cfg.SyncBatchSize)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		// Not fatal; the periodic scan retries.
		log.NewStructuredLogger(logger).LogError(ctx, "Failed startup sync check", err, log.ComponentWorker, log.OpStartup, nil)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cli.ServeMetrics(gctx, logger.WithComponent(log.ComponentMetrics), cfg.MetricsAddr, prometheus.DefaultGatherer)
	})
	g.Go(func() error {
		return syncWorker.Run(gctx, cfg.SyncInterval)
	})

	if cfg.AMQPURL != "" {
		broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer broker.Close()
		g.Go(func() error {
			return broker.ConsumeTransactionCreated(gctx, syncWorker.HandleMessage)
		})
	} else {
		logger.Info("AMQP disabled - relying on the periodic pending scan", "interval", cfg.SyncInterval)
	}

	return g.Wait()
}
