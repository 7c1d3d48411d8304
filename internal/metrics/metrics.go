// Package metrics exposes Prometheus counters for the candidate workflow,
// the parse services and the background workers.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"chitieu/internal/cache"
	"chitieu/internal/core"
	"chitieu/internal/notify"
	"chitieu/internal/sheets"
	"chitieu/internal/workflow"
)

const namespace = "chitieu"

type Metrics struct {
	transitions  *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
	parseSeconds *prometheus.HistogramVec
	created      *prometheus.CounterVec
	recurring    prometheus.Counter
	syncs        *prometheus.CounterVec
	reg          prometheus.Registerer
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer to
// serve them from promhttp.Handler().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_transitions_total",
			Help:      "Workflow state changes by source and target state",
		}, []string{"from", "to"}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_outcomes_total",
			Help:      "Dispatch results by outcome or error kind",
		}, []string{"outcome"}), // chat, candidate, saved, dismissed, parse_failure, ...
		parseSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Duration of parse service calls in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1.5, 3, 6},
		}, []string{"parser", "result"}),
		created: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_created_total",
			Help:      "Transactions announced as created, by type",
		}, []string{"type"}),
		recurring: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recurring_materialized_total",
			Help:      "Transactions created from recurring records",
		}),
		syncs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_exports_total",
			Help:      "Sheet export attempts by result",
		}, []string{"result"}),
	}
}

// ObserveTransition is a workflow.OnTransition observer.
func (m *Metrics) ObserveTransition(_ context.Context, t workflow.Transition) {
	m.transitions.WithLabelValues(t.From.String(), t.To.String()).Inc()
}

// ObserveDispatch counts the result of one workflow.Dispatch call.
func (m *Metrics) ObserveDispatch(res workflow.Result, err error) {
	m.outcomes.WithLabelValues(outcomeLabel(res, err)).Inc()
}

func outcomeLabel(res workflow.Result, err error) string {
	switch {
	case err == nil:
		return string(res.Outcome)
	case errors.Is(err, workflow.ErrParseFailure):
		return "parse_failure"
	case errors.Is(err, workflow.ErrPersistenceFailure):
		return "persistence_failure"
	case errors.Is(err, workflow.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, workflow.ErrClosed):
		return "closed"
	default:
		return "error"
	}
}

// Listener counts transaction-created events from the notify hub.
func (m *Metrics) Listener() notify.Listener {
	return func(_ context.Context, e notify.Event) {
		if e.Kind == notify.KindTransactionCreated {
			m.created.WithLabelValues(string(e.Type)).Inc()
		}
	}
}

func (m *Metrics) AddRecurring(n int) {
	if n > 0 {
		m.recurring.Add(float64(n))
	}
}

// ObserveExport counts one sheet export.
func (m *Metrics) ObserveExport(err error) {
	if err != nil {
		m.syncs.WithLabelValues("error").Inc()
		return
	}
	m.syncs.WithLabelValues("ok").Inc()
}

// RegisterCacheStats exposes hit, miss and size gauges read from stats on
// every scrape.
func (m *Metrics) RegisterCacheStats(name string, stats func() cache.Stats) error {
	if m.reg == nil {
		return nil
	}
	labels := prometheus.Labels{"cache": name}
	gauges := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_hits_total", Help: "Cache hits", ConstLabels: labels,
		}, func() float64 { return float64(stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_misses_total", Help: "Cache misses", ConstLabels: labels,
		}, func() float64 { return float64(stats().Misses) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cache_entries", Help: "Entries currently cached", ConstLabels: labels,
		}, func() float64 { return float64(stats().Size) }),
	}
	for _, g := range gauges {
		if err := m.reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}

// Parser times an inner parse service.
type Parser struct {
	next    workflow.Parser
	name    string
	metrics *Metrics
}

func (m *Metrics) InstrumentParser(name string, next workflow.Parser) *Parser {
	return &Parser{next: next, name: name, metrics: m}
}

func (p *Parser) Parse(ctx context.Context, text string) (core.Candidate, error) {
	start := time.Now()
	c, err := p.next.Parse(ctx, text)
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.metrics.parseSeconds.WithLabelValues(p.name, result).Observe(time.Since(start).Seconds())
	return c, err
}

// Exporter counts the results of an inner sheet exporter.
type Exporter struct {
	next    sheets.Exporter
	metrics *Metrics
}

func (m *Metrics) InstrumentExporter(next sheets.Exporter) *Exporter {
	return &Exporter{next: next, metrics: m}
}

func (e *Exporter) Export(ctx context.Context, r sheets.Row) (string, error) {
	ref, err := e.next.Export(ctx, r)
	e.metrics.ObserveExport(err)
	return ref, err
}
