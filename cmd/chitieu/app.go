package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"chitieu/internal/amqp"
	"chitieu/internal/apiclient"
	"chitieu/internal/backend"
	"chitieu/internal/cli"
	"chitieu/internal/config"
	"chitieu/internal/log"
	"chitieu/internal/metrics"
	"chitieu/internal/notify"
	"chitieu/internal/services"
)

// app holds what the commands share. The backend is opened on first use so
// that pure text commands work without a database.
type app struct {
	in  io.Reader
	out io.Writer
	now func() time.Time

	cfg     *config.Config
	logger  *log.Logger
	metrics *metrics.Metrics
	hub     *notify.Hub

	backend *backend.BackendResult
	ledger  *services.LedgerService
	broker  *amqp.Client
}

func newApp(in io.Reader, out io.Writer) *app {
	return &app{
		in:      in,
		out:     out,
		now:     time.Now,
		metrics: metrics.New(prometheus.NewRegistry()),
		hub:     notify.NewHub(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "chitieu",
		Short:         "Track expenses and income from free text",
		Long:          `chitieu turns messages like "ăn phở 45k" into expense records, keeps recurring bills on schedule and reports monthly totals and budgets.`,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(); err != nil {
				return err
			}
			cmd.SetContext(log.NewContext(cmd.Context(), a.logger))
			return nil
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)

	root.AddCommand(
		newDetectCmd(a),
		newChartCmd(a),
		newParseCmd(a),
		newChatCmd(a),
		newAddCmd(a),
		newGroupCmd(a),
		newReportCmd(a),
		newBudgetCmd(a),
		newRecurringCmd(a),
		newMigrateCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
	)
	return root
}

// init loads .env and the configuration once. Tests preset cfg.
func (a *app) init() error {
	if a.logger == nil {
		cli.LoadEnvFile()
		a.logger = cli.SetupLogger(log.ComponentCLI)
	}
	if a.cfg != nil {
		return nil
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// open connects the backend and the event fan-out.
func (a *app) open(ctx context.Context) (*services.LedgerService, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	res, err := cli.OpenBackend(ctx, a.logger, a.cfg)
	if err != nil {
		return nil, err
	}
	a.backend = res

	a.hub.Subscribe(a.metrics.Listener())
	if a.cfg.AMQPURL != "" {
		broker, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, "")
		if err != nil {
			// Records still land in the store; the sync worker's startup scan
			// exports them later.
			a.logger.WarnContext(ctx, "AMQP unavailable, events stay local", log.FieldError, err)
		} else {
			a.broker = broker
			a.hub.Subscribe(broker.Listener())
		}
	}

	a.ledger = services.NewLedgerService(res.Store, a.hub)
	return a.ledger, nil
}

// remoteClient returns the API client when DATA_BACKEND is remote, nil
// otherwise.
func (a *app) remoteClient(ctx context.Context) (*apiclient.Client, error) {
	if a.cfg.DataBackend != config.BackendRemote {
		return nil, nil
	}
	if _, err := a.open(ctx); err != nil {
		return nil, err
	}
	return a.backend.Remote, nil
}

func (a *app) close() {
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			a.logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	}
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			a.logger.Warn("Failed to close store", log.FieldError, err)
		}
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
