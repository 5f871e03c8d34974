package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "invest",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invest",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	yieldRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "yield",
			Name:      "accrual_runs_total",
			Help:      "Yield accrual batch runs by outcome.",
		},
		[]string{"success"},
	)

	yieldInvestments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "yield",
			Name:      "investments_processed_total",
			Help:      "Investments touched by yield accrual by result.",
		},
		[]string{"result"},
	)

	emailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "mail",
			Name:      "emails_total",
			Help:      "Transactional emails by template and outcome.",
		},
		[]string{"template", "success"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
		[]string{"scope"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		yieldRuns,
		yieldInvestments,
		emailsSent,
		rateLimited,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records in-flight, count and latency per chi route pattern.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routePattern(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordYieldRun counts one accrual batch and its per-investment results.
func RecordYieldRun(processed, failed int, success bool) {
	yieldRuns.WithLabelValues(strconv.FormatBool(success)).Inc()
	yieldInvestments.WithLabelValues("ok").Add(float64(processed))
	yieldInvestments.WithLabelValues("failed").Add(float64(failed))
}

// RecordEmail counts a transactional email attempt.
func RecordEmail(template string, success bool) {
	if template == "" {
		template = "unknown"
	}
	emailsSent.WithLabelValues(template, strconv.FormatBool(success)).Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}

// routePattern keeps label cardinality bounded by using the matched chi
// pattern rather than the raw path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
