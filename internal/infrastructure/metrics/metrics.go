package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scholarfund"

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	donations      *prometheus.CounterVec
	ledger         *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	hubDeliveries  *prometheus.CounterVec
	hubConnections prometheus.Gauge
	events         *prometheus.CounterVec
	sweeps         *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
		donations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "donations", Name: "total",
			Help: "Donations persisted, by resulting payment status.",
		}, []string{"status"}),
		ledger: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "mutations_total",
			Help: "Ledger mutations applied, by operation.",
		}, []string{"op"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "applications", Name: "transitions_total",
			Help: "Application status transitions committed.",
		}, []string{"from", "to"}),
		hubDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "hub", Name: "deliveries_total",
			Help: "Push messages handed to live connections, by target kind.",
		}, []string{"target"}),
		hubConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "hub", Name: "connections",
			Help: "Currently registered push connections.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "broker", Name: "published_total",
			Help: "Outbound domain events, by routing key and result.",
		}, []string{"key", "result"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "swept_total",
			Help: "Rows changed by scheduled sweeps.",
		}, []string{"job"}),
	}
	m.Registry.MustRegister(
		m.httpRequests, m.httpDuration,
		m.donations, m.ledger, m.transitions,
		m.hubDeliveries, m.hubConnections,
		m.events, m.sweeps,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency by route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil || c.Path() == "/metrics" {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()
			m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func (m *Metrics) DonationRecorded(status string) {
	if m == nil {
		return
	}
	m.donations.WithLabelValues(status).Inc()
}

func (m *Metrics) LedgerMutation(op string) {
	if m == nil {
		return
	}
	m.ledger.WithLabelValues(op).Inc()
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) Delivered(target string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.hubDeliveries.WithLabelValues(target).Add(float64(n))
}

func (m *Metrics) SetConnections(n int) {
	if m == nil {
		return
	}
	m.hubConnections.Set(float64(n))
}

func (m *Metrics) EventPublished(key string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.events.WithLabelValues(key, result).Inc()
}

func (m *Metrics) Swept(job string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sweeps.WithLabelValues(job).Add(float64(n))
}
