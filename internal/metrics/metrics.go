package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Export outcomes used as the status label of ExportsTotal.
const (
	ExportOK        = "ok"
	ExportError     = "error"
	ExportCancelled = "cancelled"
)

// Metrics lives on its own registry: the tool has no HTTP listener, the
// registry is dumped to a textfile instead. A nil *Metrics is a valid no-op.
type Metrics struct {
	Registry *prometheus.Registry

	QueriesTotal  prometheus.Counter
	QueryDuration prometheus.Histogram
	QueryResults  prometheus.Histogram
	ExportsTotal  *prometheus.CounterVec
	CatalogBooks  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		QueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookrec_queries_total",
			Help: "Total number of recommendation queries run",
		}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookrec_query_duration_seconds",
			Help:    "Time spent filtering and sorting the catalog",
			Buckets: prometheus.DefBuckets,
		}),
		QueryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookrec_query_results",
			Help:    "Number of books returned by a query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookrec_exports_total",
			Help: "Total number of export attempts",
		}, []string{"status"}),
		CatalogBooks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bookrec_catalog_books",
			Help: "Number of books in the loaded catalog",
		}),
	}
	m.Registry.MustRegister(m.QueriesTotal, m.QueryDuration, m.QueryResults, m.ExportsTotal, m.CatalogBooks)
	return m
}

func (m *Metrics) ObserveQuery(d time.Duration, results int) {
	if m == nil {
		return
	}
	m.QueriesTotal.Inc()
	m.QueryDuration.Observe(d.Seconds())
	m.QueryResults.Observe(float64(results))
}

func (m *Metrics) ObserveExport(status string) {
	if m == nil {
		return
	}
	m.ExportsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) SetCatalogSize(n int) {
	if m == nil {
		return
	}
	m.CatalogBooks.Set(float64(n))
}

// WriteTextfile dumps the registry in the Prometheus text format, suitable
// for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
