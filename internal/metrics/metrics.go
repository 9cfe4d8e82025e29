package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "warehouse"

// Metrics holds the ledger and HTTP collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	TransactionsTotal    *prometheus.CounterVec
	ExchangeProcessed    *prometheus.CounterVec
	IntegrityViolations  prometheus.Gauge
	HTTPRequestsTotal    *prometheus.CounterVec
	TransactionsInFlight prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transaction requests handled by the ledger engine",
		},
		[]string{"type", "reason", "result"},
	)

	m.ExchangeProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchange_processed_total",
			Help:      "Exchange queue process attempts",
		},
		[]string{"result"},
	)

	m.IntegrityViolations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inventory_integrity_violations",
			Help:      "Inventory rows with negative stock found by the last integrity scan",
		},
	)

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.TransactionsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transactions_in_flight",
			Help:      "Transaction requests currently holding an item lock",
		},
	)

	registry.MustRegister(
		m.TransactionsTotal,
		m.ExchangeProcessed,
		m.IntegrityViolations,
		m.HTTPRequestsTotal,
		m.TransactionsInFlight,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordTransaction(txType, reason, result string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.TransactionsTotal.WithLabelValues(txType, reason, result).Inc()
}

func (m *Metrics) RecordExchangeProcessed(result string) {
	if m == nil {
		return
	}
	m.ExchangeProcessed.WithLabelValues(result).Inc()
}

func (m *Metrics) SetIntegrityViolations(n int) {
	if m == nil {
		return
	}
	m.IntegrityViolations.Set(float64(n))
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) TransactionStarted() {
	if m == nil {
		return
	}
	m.TransactionsInFlight.Inc()
}

func (m *Metrics) TransactionFinished() {
	if m == nil {
		return
	}
	m.TransactionsInFlight.Dec()
}
