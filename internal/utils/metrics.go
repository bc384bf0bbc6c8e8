package utils

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tracks performance metrics across the system
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64

	registry  *prometheus.Registry
	requests  prometheus.Counter
	errors    prometheus.Counter
	latencies *prometheus.HistogramVec
	commands  *prometheus.CounterVec

	systemStartTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "social_requests_total",
			Help: "Requests received by the engine actor.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "social_errors_total",
			Help: "Requests that ended in an error.",
		}),
		latencies: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "social_operation_seconds",
			Help:    "Operation latency by operation name.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"operation"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_commands_total",
			Help: "Committed and rejected commands by outcome code.",
		}, []string{"operation", "outcome"}),
		systemStartTime: time.Now(),
	}
	mc.registry.MustRegister(mc.requests, mc.errors, mc.latencies, mc.commands)
	return mc
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.requestCount++
	mc.requests.Inc()
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.errorCount++
	mc.errors.Inc()
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.latencies.WithLabelValues(operationName).Observe(duration.Seconds())
}

// RecordCommand counts a command outcome; outcome is "ok" or an error code.
func (mc *MetricsCollector) RecordCommand(operationName, outcome string) {
	mc.commands.WithLabelValues(operationName, outcome).Inc()
}

// Counts returns the request and error totals.
func (mc *MetricsCollector) Counts() (requests, errors uint64) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.requestCount, mc.errorCount
}

func (mc *MetricsCollector) Uptime() time.Duration {
	return time.Since(mc.systemStartTime)
}

// Handler exposes the collector's registry in the Prometheus text format.
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}
