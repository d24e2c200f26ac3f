// Package metrics provides Prometheus metrics for the scanner.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scan outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ScanMetrics collects scan-related Prometheus metrics on a private registry.
type ScanMetrics struct {
	registry *prometheus.Registry

	ScansTotal         *prometheus.CounterVec
	ScanDuration       *prometheus.HistogramVec
	OpportunitiesFound *prometheus.CounterVec
	MarketsFetched     *prometheus.GaugeVec
	BookFetchFailures  *prometheus.CounterVec
}

// NewScanMetrics creates and registers the scan metrics.
func NewScanMetrics() *ScanMetrics {
	m := &ScanMetrics{
		registry: prometheus.NewRegistry(),

		ScansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbscanner_scans_total",
				Help: "Total number of scans by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		ScanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbscanner_scan_duration_seconds",
				Help:    "Wall time of a full scan",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
			},
			[]string{"kind"},
		),
		OpportunitiesFound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbscanner_opportunities_found_total",
				Help: "Opportunities reported by scans",
			},
			[]string{"kind", "strategy"},
		),
		MarketsFetched: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbscanner_markets_fetched",
				Help: "Markets returned by the last fetch of each venue",
			},
			[]string{"venue"},
		),
		BookFetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbscanner_book_fetch_failures_total",
				Help: "Order book fetches that produced no usable book",
			},
			[]string{"reason"},
		),
	}

	m.registry.MustRegister(
		m.ScansTotal,
		m.ScanDuration,
		m.OpportunitiesFound,
		m.MarketsFetched,
		m.BookFetchFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the prometheus registry.
func (m *ScanMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *ScanMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordScan counts one scan and observes its duration.
func (m *ScanMetrics) RecordScan(kind string, err error, elapsed time.Duration) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.ScansTotal.WithLabelValues(kind, status).Inc()
	m.ScanDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// RecordOpportunities adds n opportunities for kind and strategy.
func (m *ScanMetrics) RecordOpportunities(kind, strategy string, n int) {
	if n <= 0 {
		return
	}
	m.OpportunitiesFound.WithLabelValues(kind, strategy).Add(float64(n))
}

// SetMarketsFetched records the size of the last fetch from venue.
func (m *ScanMetrics) SetMarketsFetched(venue string, n int) {
	m.MarketsFetched.WithLabelValues(venue).Set(float64(n))
}

// BookFetchFailed counts a failed order book fetch.
func (m *ScanMetrics) BookFetchFailed(reason string) {
	m.BookFetchFailures.WithLabelValues(reason).Inc()
}
