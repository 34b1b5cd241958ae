package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for scrape and report runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	PagesTotal    *prometheus.CounterVec // labels: source
	FetchDuration prometheus.Histogram
	TickersTotal  *prometheus.CounterVec // labels: result=ok|failed
	RowsScraped   prometheus.Counter
	SignalsTotal  *prometheus.CounterVec // labels: signal
	LastRun       *prometheus.GaugeVec   // labels: job
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_pages_fetched_total",
			Help: "History pages fetched",
		}, []string{"source"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_page_fetch_duration_seconds",
			Help:    "Latency of one history page fetch",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		TickersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_tickers_scraped_total",
			Help: "Tickers scraped, by result",
		}, []string{"result"}),
		RowsScraped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_rows_scraped_total",
			Help: "Price rows extracted from history pages, before merging",
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_signals_total",
			Help: "Trend labels produced by report runs",
		}, []string{"signal"}),
		LastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sentinel_last_run_timestamp_seconds",
			Help: "Unix time of the last finished run",
		}, []string{"job"}),
	}

	m.registry.MustRegister(
		m.PagesTotal,
		m.FetchDuration,
		m.TickersTotal,
		m.RowsScraped,
		m.SignalsTotal,
		m.LastRun,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObservePage(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(source).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) TickerDone(ok bool, rows int) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.TickersTotal.WithLabelValues(result).Inc()
	m.RowsScraped.Add(float64(rows))
}

func (m *Metrics) Signal(label string) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) RunFinished(job string, at time.Time) {
	if m == nil {
		return
	}
	m.LastRun.WithLabelValues(job).Set(float64(at.Unix()))
}
