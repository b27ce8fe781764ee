// Package metrics exposes Prometheus collectors for the HTTP server and
// the background rate refresher.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "client_ledger",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "client_ledger",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "path", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "client_ledger",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "path"})

	rateRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "client_ledger",
		Subsystem: "currency",
		Name:      "rate_refreshes_total",
		Help:      "Exchange rate refresh attempts by result.",
	}, []string{"result"})

	storeNotices = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "client_ledger",
		Subsystem: "clients",
		Name:      "notices_total",
		Help:      "Notices queued by client stores, by level and backend.",
	}, []string{"level", "backend"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		rateRefreshes,
		storeNotices,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRateRefresh counts one exchange rate refresh.
func RecordRateRefresh(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	rateRefreshes.WithLabelValues(result).Inc()
}

// RecordNotice counts one store notice.
func RecordNotice(level string, demo bool) {
	backend := "remote"
	if demo {
		backend = "demo"
	}
	storeNotices.WithLabelValues(level, backend).Inc()
}

// InstrumentHandler wraps next with request counters and latency histograms.
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

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// canonicalPath collapses ids so label cardinality stays bounded:
// /api/clients/abc/payments -> /api/clients/{id}/payments.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch {
	case len(parts) >= 3 && parts[0] == "api" && (parts[1] == "clients" || parts[1] == "analytics"):
		parts[2] = "{id}"
	case len(parts) >= 2 && parts[0] == "clients":
		parts[1] = "{id}"
	}
	if len(parts) > 4 {
		parts = parts[:4]
	}
	return "/" + strings.Join(parts, "/")
}
