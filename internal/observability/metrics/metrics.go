package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result constants for metric labels.
const (
	ResultGranted = "granted"
	ResultDenied  = "denied"
	ResultError   = "error"
)

// Recorder owns the application's Prometheus collectors.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	roleChecks   *prometheus.CounterVec
	pageRenders  *prometheus.CounterVec
	queryFetches *prometheus.CounterVec
}

// NewRecorder creates a Recorder backed by a fresh registry.
// Namespace prefixes every metric name (e.g. "webshell").
func NewRecorder(namespace string) (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		roleChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_checks_total",
			Help:      "Role checks by requested role and outcome.",
		}, []string{"role", "result"}),
		pageRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_renders_total",
			Help:      "Layout renders by page and outcome.",
		}, []string{"page", "result"}),
		queryFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_fetches_total",
			Help:      "Query client lookups by source (cache, origin, shared).",
		}, []string{"source"}),
	}

	cs := []prometheus.Collector{
		r.httpRequests, r.httpDuration, r.roleChecks, r.pageRenders, r.queryFetches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range cs {
		if err := r.registry.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
		}
	}
	return r, nil
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry (for tests and additional collectors).
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveHTTP records one completed HTTP request.
func (r *Recorder) ObserveHTTP(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RoleCheck records the outcome of a role check.
func (r *Recorder) RoleCheck(role, result string) {
	if r == nil {
		return
	}
	r.roleChecks.WithLabelValues(role, result).Inc()
}

// PageRender records a layout render for page; ok=false marks a failed render.
func (r *Recorder) PageRender(page string, ok bool) {
	if r == nil {
		return
	}
	result := "ok"
	if !ok {
		result = ResultError
	}
	r.pageRenders.WithLabelValues(page, result).Inc()
}

// QueryFetch records where a query client lookup was served from.
func (r *Recorder) QueryFetch(source string) {
	if r == nil {
		return
	}
	r.queryFetches.WithLabelValues(source).Inc()
}
