package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rxtech-lab/argo-chart/internal/analysis"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

// Metrics holds the Prometheus collectors of one server. Each server owns its
// registry so several can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec   // labels: route, code
	RequestDuration *prometheus.HistogramVec // labels: route

	AnalysesTotal    prometheus.Counter
	AnalysisDuration prometheus.Histogram
	PatternsTotal    *prometheus.CounterVec // labels: kind
	SignalsTotal     *prometheus.CounterVec // labels: action

	BacktestsTotal   *prometheus.CounterVec // labels: status
	BacktestDuration prometheus.Histogram
	BacktestTrades   prometheus.Counter
	ActiveStreams    prometheus.Gauge
}

// NewMetrics registers and returns all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_chart_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "argo_chart_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		AnalysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "argo_chart_analyses_total",
			Help: "Completed pipeline analyses",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "argo_chart_analysis_duration_seconds",
			Help:    "Time to run the analysis pipeline over one series",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		PatternsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_chart_patterns_detected_total",
			Help: "Detected chart patterns by kind",
		}, []string{"kind"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_chart_signals_total",
			Help: "Generated signals by action",
		}, []string{"action"}),
		BacktestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_chart_backtests_total",
			Help: "Backtest runs by outcome",
		}, []string{"status"}),
		BacktestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "argo_chart_backtest_duration_seconds",
			Help:    "Wall time of backtest runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		BacktestTrades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "argo_chart_backtest_trades_total",
			Help: "Simulated trades across all backtest runs",
		}),
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "argo_chart_backtest_streams_active",
			Help: "Open backtest websocket streams",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.PatternsTotal,
		m.SignalsTotal,
		m.BacktestsTotal,
		m.BacktestDuration,
		m.BacktestTrades,
		m.ActiveStreams,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeAnalysis(result analysis.Result, elapsed time.Duration) {
	m.AnalysesTotal.Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())

	for _, p := range result.Patterns {
		m.PatternsTotal.WithLabelValues(string(p.Kind)).Inc()
	}

	m.SignalsTotal.WithLabelValues(string(result.Signal.Action)).Inc()
}

func (m *Metrics) observeBacktest(report *types.BacktestReport, err error, elapsed time.Duration) {
	m.BacktestDuration.Observe(elapsed.Seconds())

	if err != nil {
		m.BacktestsTotal.WithLabelValues("failed").Inc()

		return
	}

	m.BacktestsTotal.WithLabelValues("completed").Inc()
	m.BacktestTrades.Add(float64(len(report.Trades)))
}
