// Package metrics exposes search service counters in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "juniper_search"

// Metrics owns a private registry so several servers can coexist in one
// process.
type Metrics struct {
	registry *prometheus.Registry

	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	corpusVerses  prometheus.Gauge
	wsClients     prometheus.Gauge
	rateLimited   prometheus.Counter
}

// New registers the service collectors plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries evaluated, by resolved intent.",
		}, []string{"intent"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query evaluation latency, by resolved intent.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"intent"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups, by outcome.",
		}, []string{"result"}),
		corpusVerses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_verses",
			Help:      "Verses in the loaded corpus.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(
		m.queries,
		m.queryDuration,
		m.cacheLookups,
		m.corpusVerses,
		m.wsClients,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveQuery records one evaluated query.
func (m *Metrics) ObserveQuery(intent string, d time.Duration) {
	m.queries.WithLabelValues(intent).Inc()
	m.queryDuration.WithLabelValues(intent).Observe(d.Seconds())
}

// CacheHit records a result cache hit.
func (m *Metrics) CacheHit() { m.cacheLookups.WithLabelValues("hit").Inc() }

// CacheMiss records a result cache miss.
func (m *Metrics) CacheMiss() { m.cacheLookups.WithLabelValues("miss").Inc() }

// SetCorpusVerses sets the corpus size gauge.
func (m *Metrics) SetCorpusVerses(n int) { m.corpusVerses.Set(float64(n)) }

// ClientConnected increments the websocket client gauge.
func (m *Metrics) ClientConnected() { m.wsClients.Inc() }

// ClientDisconnected decrements the websocket client gauge.
func (m *Metrics) ClientDisconnected() { m.wsClients.Dec() }

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() { m.rateLimited.Inc() }

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
