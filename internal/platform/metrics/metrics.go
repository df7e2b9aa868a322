package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledger"

// Metrics holds the Prometheus collectors of the ledger core. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	JournalsPosted      *prometheus.CounterVec
	IdempotencyOutcomes *prometheus.CounterVec
	TxRetries           *prometheus.CounterVec
	AuditEntries        *prometheus.CounterVec
	CommandErrors       *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. Pass a fresh
// prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		JournalsPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journals_posted_total",
			Help:      "Journals transitioned from draft to posted",
		}, []string{"tenant"}),
		IdempotencyOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotency_outcomes_total",
			Help:      "Idempotency claim outcomes by command",
		}, []string{"command", "outcome"}),
		TxRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_retries_total",
			Help:      "Units of work retried after a transient storage failure",
		}, []string{"operation"}),
		AuditEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_total",
			Help:      "Audit entries appended",
		}, []string{"entity_type", "action"}),
		CommandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_errors_total",
			Help:      "Failed commands by error code",
		}, []string{"code"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.JournalsPosted,
		m.IdempotencyOutcomes,
		m.TxRetries,
		m.AuditEntries,
		m.CommandErrors,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)
	return m
}

func (m *Metrics) JournalPosted(tenantID string) {
	if m == nil {
		return
	}
	m.JournalsPosted.WithLabelValues(tenantID).Inc()
}

func (m *Metrics) IdempotencyOutcome(command, outcome string) {
	if m == nil {
		return
	}
	m.IdempotencyOutcomes.WithLabelValues(command, outcome).Inc()
}

func (m *Metrics) TxRetry(operation string) {
	if m == nil {
		return
	}
	m.TxRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) AuditEntry(entityType, action string) {
	if m == nil {
		return
	}
	m.AuditEntries.WithLabelValues(entityType, action).Inc()
}

func (m *Metrics) CommandError(code string) {
	if m == nil {
		return
	}
	m.CommandErrors.WithLabelValues(code).Inc()
}

// Middleware returns gin middleware that collects HTTP metrics.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
