package observability

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsConfig holds configuration for the metrics subsystem.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool
	// Namespace prefix for all metrics (default: ipmentor).
	Namespace string
	// Version is the application version for the info metric.
	Version string
}

// DefaultMetricsConfig returns the default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "ipmentor",
		Version:   "dev",
	}
}

// MetricsConfigFromEnv creates a MetricsConfig from environment variables.
// IPMENTOR_METRICS_ENABLED: true/false (default: true)
// APP_VERSION: version string (default: dev)
func MetricsConfigFromEnv() MetricsConfig {
	cfg := DefaultMetricsConfig()
	if v := os.Getenv("IPMENTOR_METRICS_ENABLED"); v != "" {
		cfg.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("APP_VERSION"); v != "" {
		cfg.Version = v
	}
	return cfg
}

// Metrics provides application metrics collection in Prometheus text
// format. Thread-safe for concurrent use.
type Metrics struct {
	namespace string
	version   string

	// HTTP request counters: key = "method:path:status"
	httpMu            sync.RWMutex
	httpRequestCounts map[string]*atomic.Int64

	// HTTP request durations: key = "method:path"
	durationMu    sync.RWMutex
	httpDurations map[string]*durationCollector

	// Calculation counters: key = "tool:method:outcome"
	calcMu     sync.RWMutex
	calcCounts map[string]*atomic.Int64

	rateLimitAllowed  atomic.Int64
	rateLimitRejected atomic.Int64
}

// durationCollector keeps a sliding window of duration samples for
// on-demand quantile computation.
type durationCollector struct {
	mu      sync.Mutex
	samples []float64
	maxSize int
}

func newDurationCollector(maxSize int) *durationCollector {
	return &durationCollector{samples: make([]float64, 0, maxSize), maxSize: maxSize}
}

func (d *durationCollector) add(duration time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.samples) >= d.maxSize {
		copy(d.samples, d.samples[1:])
		d.samples = d.samples[:len(d.samples)-1]
	}
	d.samples = append(d.samples, duration.Seconds())
}

func (d *durationCollector) quantile(q float64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(d.samples))
	copy(sorted, d.samples)
	sort.Float64s(sorted)

	idx := q * float64(len(sorted)-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func (d *durationCollector) sumAndCount() (float64, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var total float64
	for _, s := range d.samples {
		total += s
	}
	return total, len(d.samples)
}

// NewMetrics creates a new Metrics collector.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		namespace:         cfg.Namespace,
		version:           cfg.Version,
		httpRequestCounts: make(map[string]*atomic.Int64),
		httpDurations:     make(map[string]*durationCollector),
		calcCounts:        make(map[string]*atomic.Int64),
	}
}

func counterFor(mu *sync.RWMutex, counts map[string]*atomic.Int64, key string) *atomic.Int64 {
	mu.RLock()
	c, ok := counts[key]
	mu.RUnlock()
	if ok {
		return c
	}
	mu.Lock()
	defer mu.Unlock()
	if c, ok = counts[key]; !ok {
		c = &atomic.Int64{}
		counts[key] = c
	}
	return c
}

// RecordHTTPRequest records an HTTP request with its method, path, status
// code, and duration.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	countKey := fmt.Sprintf("%s:%s:%d", method, path, statusCode)
	counterFor(&m.httpMu, m.httpRequestCounts, countKey).Add(1)

	durationKey := method + ":" + path
	m.durationMu.Lock()
	collector, ok := m.httpDurations[durationKey]
	if !ok {
		collector = newDurationCollector(1000)
		m.httpDurations[durationKey] = collector
	}
	m.durationMu.Unlock()
	collector.add(duration)
}

// RecordCalc records one engine invocation: tool is "ip_info" or
// "subnet_calc", method is the calculation method (or "-" for ip_info),
// outcome is "ok" or "error".
func (m *Metrics) RecordCalc(tool, method, outcome string) {
	if m == nil {
		return
	}
	key := fmt.Sprintf("%s:%s:%s", tool, method, outcome)
	counterFor(&m.calcMu, m.calcCounts, key).Add(1)
}

// RecordRateLimitAllowed increments the count of allowed requests.
func (m *Metrics) RecordRateLimitAllowed() {
	m.rateLimitAllowed.Add(1)
}

// RecordRateLimitRejected increments the count of rejected requests.
func (m *Metrics) RecordRateLimitRejected() {
	m.rateLimitRejected.Add(1)
}

// Handler returns an http.Handler that serves Prometheus-format metrics.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		m.writePrometheusMetrics(w)
	})
}

func sortedKeys[V any](mu *sync.RWMutex, m map[string]V) []string {
	mu.RLock()
	defer mu.RUnlock()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writePrometheusMetrics writes all metrics in Prometheus text format.
func (m *Metrics) writePrometheusMetrics(w http.ResponseWriter) {
	fmt.Fprintf(w, "# HELP %s_info Application information\n", m.namespace)
	fmt.Fprintf(w, "# TYPE %s_info gauge\n", m.namespace)
	fmt.Fprintf(w, "%s_info{version=%q} 1\n\n", m.namespace, m.version)

	fmt.Fprintf(w, "# HELP %s_http_requests_total Total number of HTTP requests\n", m.namespace)
	fmt.Fprintf(w, "# TYPE %s_http_requests_total counter\n", m.namespace)
	for _, key := range sortedKeys(&m.httpMu, m.httpRequestCounts) {
		m.httpMu.RLock()
		counter := m.httpRequestCounts[key]
		m.httpMu.RUnlock()
		parts := strings.SplitN(key, ":", 3)
		if len(parts) == 3 {
			fmt.Fprintf(w, "%s_http_requests_total{method=%q,path=%q,status=%q} %d\n",
				m.namespace, parts[0], parts[1], parts[2], counter.Load())
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_http_request_duration_seconds HTTP request duration in seconds\n", m.namespace)
	fmt.Fprintf(w, "# TYPE %s_http_request_duration_seconds summary\n", m.namespace)
	for _, key := range sortedKeys(&m.durationMu, m.httpDurations) {
		m.durationMu.RLock()
		collector := m.httpDurations[key]
		m.durationMu.RUnlock()
		parts := strings.SplitN(key, ":", 2)
		if len(parts) != 2 {
			continue
		}
		method, path := parts[0], parts[1]
		for _, q := range []float64{0.5, 0.9, 0.99} {
			fmt.Fprintf(w, "%s_http_request_duration_seconds{method=%q,path=%q,quantile=\"%.2f\"} %.6f\n",
				m.namespace, method, path, q, collector.quantile(q))
		}
		total, count := collector.sumAndCount()
		fmt.Fprintf(w, "%s_http_request_duration_seconds_sum{method=%q,path=%q} %.6f\n",
			m.namespace, method, path, total)
		fmt.Fprintf(w, "%s_http_request_duration_seconds_count{method=%q,path=%q} %d\n",
			m.namespace, method, path, count)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_calc_total Total subnet engine invocations\n", m.namespace)
	fmt.Fprintf(w, "# TYPE %s_calc_total counter\n", m.namespace)
	for _, key := range sortedKeys(&m.calcMu, m.calcCounts) {
		m.calcMu.RLock()
		counter := m.calcCounts[key]
		m.calcMu.RUnlock()
		parts := strings.SplitN(key, ":", 3)
		if len(parts) == 3 {
			fmt.Fprintf(w, "%s_calc_total{tool=%q,method=%q,outcome=%q} %d\n",
				m.namespace, parts[0], parts[1], parts[2], counter.Load())
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_rate_limit_requests_total Total rate limit decisions\n", m.namespace)
	fmt.Fprintf(w, "# TYPE %s_rate_limit_requests_total counter\n", m.namespace)
	fmt.Fprintf(w, "%s_rate_limit_requests_total{status=\"allowed\"} %d\n", m.namespace, m.rateLimitAllowed.Load())
	fmt.Fprintf(w, "%s_rate_limit_requests_total{status=\"rejected\"} %d\n", m.namespace, m.rateLimitRejected.Load())
}

// MetricsMiddleware returns an HTTP middleware that records request metrics.
func MetricsMiddleware(m *Metrics) func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip the metrics endpoint itself.
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			m.RecordHTTPRequest(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start))
		})
	}
}

// RateLimitMetricsMiddleware returns middleware that records rate limit
// decisions. It should wrap the rate limiting middleware so it can see
// 429 responses.
func RateLimitMetricsMiddleware(m *Metrics, rateLimitEnabled bool) func(http.Handler) http.Handler {
	if m == nil || !rateLimitEnabled {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode == http.StatusTooManyRequests {
				m.RecordRateLimitRejected()
			} else {
				m.RecordRateLimitAllowed()
			}
		})
	}
}

// metricsResponseWriter wraps http.ResponseWriter to capture the status code.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap returns the underlying ResponseWriter for compatibility with
// http.ResponseController and other wrapping utilities.
func (w *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
