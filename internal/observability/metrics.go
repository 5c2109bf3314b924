// Package observability holds the Prometheus registry, HTTP middleware and domain counters.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	salesCreated    prometheus.Counter
	salesRejected   *prometheus.CounterVec
	saleAmount      prometheus.Histogram
	debtPayments    *prometheus.CounterVec
	debtsOverdue    prometheus.Gauge
}

// NewMetrics initialises the registry and all collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jms_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jms_http_request_duration_seconds",
			Help:    "HTTP request duration per route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		salesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jms_sales_created_total",
			Help: "Committed sales.",
		}),
		salesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jms_sales_rejected_total",
			Help: "Rejected sale attempts by error kind.",
		}, []string{"kind"}),
		saleAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jms_sale_amount_rupees",
			Help:    "Invoice totals in rupees.",
			Buckets: prometheus.ExponentialBuckets(1000, 2.5, 10),
		}),
		debtPayments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jms_debt_payments_total",
			Help: "Applied debt payments, labelled by whether the payment settled the debt.",
		}, []string{"settled"}),
		debtsOverdue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jms_debts_overdue",
			Help: "Pending debts past their due date at the last digest run.",
		}),
	}
	registry.MustRegister(
		m.requestsTotal, m.requestDuration,
		m.salesCreated, m.salesRejected, m.saleAmount,
		m.debtPayments, m.debtsOverdue,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// SaleCreated counts a committed sale.
func (m *Metrics) SaleCreated(totalAmount decimal.Decimal) {
	if m == nil {
		return
	}
	m.salesCreated.Inc()
	m.saleAmount.Observe(totalAmount.InexactFloat64())
}

// SaleRejected counts a failed sale attempt.
func (m *Metrics) SaleRejected(kind string) {
	if m == nil {
		return
	}
	m.salesRejected.WithLabelValues(kind).Inc()
}

// PaymentApplied counts a debt payment.
func (m *Metrics) PaymentApplied(_ decimal.Decimal, settled bool) {
	if m == nil {
		return
	}
	m.debtPayments.WithLabelValues(strconv.FormatBool(settled)).Inc()
}

// SetDebtsOverdue publishes the overdue count of the latest digest.
func (m *Metrics) SetDebtsOverdue(n int) {
	if m == nil {
		return
	}
	m.debtsOverdue.Set(float64(n))
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
