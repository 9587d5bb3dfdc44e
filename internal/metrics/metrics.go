package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the QuoteBox collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	QuotesTotal        *prometheus.CounterVec
	ShipmentsPerQuote  prometheus.Histogram
	AuditWriteFailures prometheus.Counter
	EventPublishTotal  *prometheus.CounterVec
	ZoneAdminOps       *prometheus.CounterVec
	AuditRowsFlagged   prometheus.Counter
	HTTPRequestsTotal  *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "quotebox"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.QuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quotes_total",
		Help:      "Quote computations by outcome",
	}, []string{"outcome"})

	m.ShipmentsPerQuote = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "shipments_per_quote",
		Help:      "Number of shipments in a computed quote",
		Buckets:   []float64{1, 2, 3, 4, 6, 8, 12},
	})

	m.AuditWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_write_failures_total",
		Help:      "Audit records that could not be written",
	})

	m.EventPublishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Kafka events by topic and status",
	}, []string{"topic", "status"})

	m.ZoneAdminOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "zone_admin_operations_total",
		Help:      "Zone administration operations",
	}, []string{"op", "status"})

	m.AuditRowsFlagged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_rows_flagged_total",
		Help:      "Audit rows flagged by the free-distance migration",
	})

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	reg.MustRegister(
		m.QuotesTotal,
		m.ShipmentsPerQuote,
		m.AuditWriteFailures,
		m.EventPublishTotal,
		m.ZoneAdminOps,
		m.AuditRowsFlagged,
		m.HTTPRequestsTotal,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Quote outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeNoCoverage = "no_coverage"
	OutcomeSuspended  = "zone_suspended"
	OutcomeInvalid    = "invalid_cart"
	OutcomeBadType    = "unsupported_delivery_type"
	OutcomeConfig     = "config_missing"
	OutcomeError      = "error"
)
