package observability

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

const namespace = "trilhas"

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	aggregateOps       *prometheus.HistogramVec
	aggregateConflicts *prometheus.CounterVec
	aggregateRetries   *prometheus.CounterVec

	enrollments  *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	sseClients   prometheus.Gauge
	mailSent     *prometheus.CounterVec
	workerErrors prometheus.Counter

	dbStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide metrics once. It returns nil when disabled;
// every Metrics method is safe on a nil receiver.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
	})
	return instance
}

func Current() *Metrics {
	return instance
}

// New registers a fresh metric set on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		aggregateOps: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "aggregate_operation_duration_seconds",
			Help:    "Aggregate write latency by operation and outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		aggregateConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "aggregate_conflicts_total",
			Help: "Aggregate writes rejected by a concurrency guard.",
		}, []string{"operation"}),
		aggregateRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "aggregate_retryable_total",
			Help: "Aggregate writes that failed with a retryable error.",
		}, []string{"operation"}),
		enrollments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "enrollments_total",
			Help: "Enrollment attempts by outcome.",
		}, []string{"outcome"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "inscription_transitions_total",
			Help: "Applied inscription status transitions.",
		}, []string{"from", "to"}),
		sseClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "sse_clients",
			Help: "Connected SSE clients.",
		}),
		mailSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "verification_mail_total",
			Help: "Verification mails by delivery outcome.",
		}, []string{"status"}),
		workerErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "activation_worker_errors_total",
			Help: "Failed activation sweeps.",
		}),
		dbStats: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "db_stats",
			Help: "database/sql connection pool stats.",
		}, []string{"metric"}),
		redisUp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "redis_up",
			Help: "Redis connectivity (1=up, 0=down).",
		}),
		redisPing: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "redis_ping_seconds",
			Help: "Last Redis ping latency.",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.WithLabelValues(orUnknown(name), orUnknown(status)).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.WithLabelValues(orUnknown(name)).Inc()
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m == nil {
		return
	}
	m.aggregateRetries.WithLabelValues(orUnknown(name)).Inc()
}

func (m *Metrics) IncEnrollment(outcome string) {
	if m == nil {
		return
	}
	m.enrollments.WithLabelValues(orUnknown(outcome)).Inc()
}

func (m *Metrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(orUnknown(from), orUnknown(to)).Inc()
}

func (m *Metrics) SSEClientsInc() {
	if m == nil {
		return
	}
	m.sseClients.Inc()
}

func (m *Metrics) SSEClientsDec() {
	if m == nil {
		return
	}
	m.sseClients.Dec()
}

func (m *Metrics) IncMail(status string) {
	if m == nil {
		return
	}
	m.mailSent.WithLabelValues(orUnknown(status)).Inc()
}

func (m *Metrics) IncWorkerError() {
	if m == nil {
		return
	}
	m.workerErrors.Inc()
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
