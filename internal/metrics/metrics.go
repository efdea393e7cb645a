// Package metrics provides Prometheus metrics for the Recents service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scan metrics
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recents_scans_total",
			Help: "Total number of pointer directory scans",
		},
		[]string{"status"},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recents_scan_duration_seconds",
			Help:    "Time to scan the pointer directory and build a snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Cache metrics
	snapshotItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recents_snapshot_items",
			Help: "Number of items in the current snapshot",
		},
	)

	snapshotChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recents_snapshot_changes_total",
			Help: "Number of snapshot replacements that notified listeners",
		},
	)

	refreshDeferred = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recents_refresh_deferred_total",
			Help: "Refreshes re-armed because a scan was already running",
		},
	)

	resolverCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recents_resolver_cache_entries",
			Help: "Number of memoized pointer file resolutions",
		},
	)

	resolverCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recents_resolver_cache_hits_total",
			Help: "Pointer file resolutions served from the resolver cache",
		},
	)

	resolverCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recents_resolver_cache_misses_total",
			Help: "Pointer file resolutions that called the resolver",
		},
	)

	// Query metrics
	queryRestarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recents_query_restarts_total",
			Help: "Number of query restarts",
		},
	)

	queryPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recents_query_pages_total",
			Help: "Number of pages served by the query engine",
		},
		[]string{"result"},
	)

	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recents_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recents_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordScan records one scan attempt.
func RecordScan(duration time.Duration, success bool) {
	scanDuration.Observe(duration.Seconds())
	status := "success"
	if !success {
		status = "error"
	}
	scansTotal.WithLabelValues(status).Inc()
}

// SetSnapshotItems sets the size of the current snapshot.
func SetSnapshotItems(n int) {
	snapshotItems.Set(float64(n))
}

// RecordSnapshotChange counts a notified snapshot replacement.
func RecordSnapshotChange() {
	snapshotChanges.Inc()
}

// RecordRefreshDeferred counts a refresh that found a scan in progress.
func RecordRefreshDeferred() {
	refreshDeferred.Inc()
}

// SetResolverCacheEntries sets the resolver cache size.
func SetResolverCacheEntries(n int) {
	resolverCacheEntries.Set(float64(n))
}

// RecordResolverLookups adds hits and misses to the resolver cache counters.
func RecordResolverLookups(hits, misses int) {
	resolverCacheHits.Add(float64(hits))
	resolverCacheMisses.Add(float64(misses))
}

// RecordQueryRestart counts a query restart.
func RecordQueryRestart() {
	queryRestarts.Inc()
}

// RecordQueryPage records a page request outcome: "ok", "stale" or "canceled".
func RecordQueryPage(result string) {
	queryPages.WithLabelValues(result).Inc()
}

// Middleware records request count and latency labelled by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				path = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
